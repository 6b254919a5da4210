package ports

import "io"

// File is an open file with random access, as MP4 parsing needs: boxes
// are decoded by seeking and sample data is read at absolute offsets.
type File interface {
	io.ReadSeeker
	io.ReaderAt
	io.Closer
}

// FileSystem abstracts file system operations.
type FileSystem interface {
	// Open opens a file for reading.
	Open(path string) (File, error)

	// ReadFile reads the entire contents of a file.
	ReadFile(path string) ([]byte, error)

	// Size returns the size of a file in bytes.
	Size(path string) (int64, error)

	// WriteFile replaces a file with data, creating parent directories.
	// Readers see either the old contents or the new ones.
	WriteFile(path string, data []byte) error

	// MkdirAll creates a directory and all parent directories.
	MkdirAll(path string) error
}
