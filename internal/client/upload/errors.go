package upload

import "errors"

var (
	// Validation rejections; the file never enters the queue.
	ErrEmptyFile       = errors.New("file is empty")
	ErrFileTooLarge    = errors.New("file too large")
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrLimitExceeded rejects files beyond the queue capacity.
	ErrLimitExceeded = errors.New("limit exceeded")

	ErrPreviewUnavailable = errors.New("preview unavailable")
	ErrUnitNotFound       = errors.New("upload unit not found")
	ErrQueueClosed        = errors.New("upload queue closed")
	ErrInvalidTransition  = errors.New("invalid upload state transition")
)
