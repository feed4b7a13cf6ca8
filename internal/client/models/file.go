package models

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
)

// LocalFile is a file picked on the device. Its bytes only leave the client
// through an object-storage upload.
type LocalFile interface {
	Name() string
	Size() int64
	Open() (io.ReadCloser, error)
}

// DiskFile is a LocalFile backed by a path on disk.
type DiskFile struct {
	Path string
	size int64
}

// NewDiskFile stats path so Size is known before the file is read.
func NewDiskFile(path string) (*DiskFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	return &DiskFile{Path: path, size: info.Size()}, nil
}

func (f *DiskFile) Name() string                 { return filepath.Base(f.Path) }
func (f *DiskFile) Size() int64                  { return f.size }
func (f *DiskFile) Open() (io.ReadCloser, error) { return os.Open(f.Path) }

// MemoryFile is a LocalFile held in memory.
type MemoryFile struct {
	FileName string
	Data     []byte
}

func (f *MemoryFile) Name() string { return f.FileName }
func (f *MemoryFile) Size() int64  { return int64(len(f.Data)) }
func (f *MemoryFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.Data)), nil
}

// ObjectMetadata describes a payload handed to object storage.
type ObjectMetadata struct {
	FileName    string
	ContentType string
	Size        int64
}

// RemoteObject is where an uploaded attachment ended up.
type RemoteObject struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}
