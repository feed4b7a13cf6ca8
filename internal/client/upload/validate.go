package upload

import (
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/vanchuong201/joywork-web-sub000/internal/client/models"
)

// Validator checks a picked file against a content-type allow-list and a
// size limit before it may become a unit. The type is sniffed from the
// content, not taken from the file name.
type Validator struct {
	allowed []string
	maxSize int64
}

func NewValidator(allowed []string, maxSize int64) *Validator {
	return &Validator{allowed: append([]string(nil), allowed...), maxSize: maxSize}
}

// Validate returns the detected content type.
func (v *Validator) Validate(f models.LocalFile) (string, error) {
	size := f.Size()
	if size <= 0 {
		return "", fmt.Errorf("%w: %s", ErrEmptyFile, f.Name())
	}
	if v.maxSize > 0 && size > v.maxSize {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d", ErrFileTooLarge, f.Name(), size, v.maxSize)
	}

	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name(), err)
	}
	defer rc.Close()

	mt, err := mimetype.DetectReader(rc)
	if err != nil {
		return "", fmt.Errorf("detect type of %s: %w", f.Name(), err)
	}

	for _, a := range v.allowed {
		if mt.Is(a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %s is %s", ErrUnsupportedType, f.Name(), mt.String())
}
