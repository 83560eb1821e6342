package device

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// CreateFS is a file system that supports creating files, for marshaling
// core dumps.
type CreateFS interface {
	// Create creates a new file for writing.
	Create(name string) (file io.WriteCloser, err error)
	// Mkdir creates a new directory with the specified permissions.
	Mkdir(name string, filemode fs.FileMode) (err error)
}

// DirFS is a CreateFS rooted at an operating system directory.
type DirFS string

var _ CreateFS = DirFS("")

// Create creates or truncates a file in the directory.
func (dir DirFS) Create(name string) (file io.WriteCloser, err error) {
	if !fs.ValidPath(name) {
		err = &fs.PathError{Op: "create", Path: name, Err: fs.ErrInvalid}
		return
	}

	file, err = os.Create(filepath.Join(string(dir), filepath.FromSlash(name)))
	return
}

// Mkdir creates a directory, including the root itself for name ".".
func (dir DirFS) Mkdir(name string, filemode fs.FileMode) (err error) {
	if !fs.ValidPath(name) {
		err = &fs.PathError{Op: "mkdir", Path: name, Err: fs.ErrInvalid}
		return
	}

	err = os.MkdirAll(filepath.Join(string(dir), filepath.FromSlash(name)), filemode)
	return
}

// FS returns the read side of the directory.
func (dir DirFS) FS() fs.FS {
	return os.DirFS(string(dir))
}
