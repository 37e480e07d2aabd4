// Package source provides the document/file collaborators the pipeline reads
// through: a billy-backed file reader and a SQLite corpus stream. Discovery
// of documents stays the caller's responsibility; these only read.
package source

import (
	"errors"
	"fmt"
	"io/fs"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
)

// ReadError classifies a failed read by origin.
type ReadError struct {
	Path string
	Kind ReadErrorKind
	Err  error
}

type ReadErrorKind int

const (
	FileNotFound ReadErrorKind = iota
	PermissionDenied
	OtherReadError
)

func (e *ReadError) Error() string {
	switch e.Kind {
	case FileNotFound:
		return fmt.Sprintf("read %s: file not found", e.Path)
	case PermissionDenied:
		return fmt.Sprintf("read %s: permission denied", e.Path)
	default:
		return fmt.Sprintf("read %s: %v", e.Path, e.Err)
	}
}

func (e *ReadError) Unwrap() error { return e.Err }

// FileSource reads documents through a billy filesystem, so tests can inject
// memfs and production uses the OS root.
type FileSource struct {
	FS billy.Filesystem
}

// NewOSSource reads from the real filesystem root.
func NewOSSource() *FileSource {
	return &FileSource{FS: osfs.New("/")}
}

// NewSource reads from the given filesystem.
func NewSource(fsys billy.Filesystem) *FileSource {
	return &FileSource{FS: fsys}
}

// Read returns a file's content or a typed ReadError.
func (s *FileSource) Read(path string) ([]byte, error) {
	content, err := util.ReadFile(s.FS, path)
	if err != nil {
		kind := OtherReadError
		switch {
		case errors.Is(err, fs.ErrNotExist):
			kind = FileNotFound
		case errors.Is(err, fs.ErrPermission):
			kind = PermissionDenied
		}
		return nil, &ReadError{Path: path, Kind: kind, Err: err}
	}
	return content, nil
}
