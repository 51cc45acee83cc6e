package filesystem

import (
	"io/fs"
)

// FS is the filesystem interface threaded through every component that
// touches disk.
type FS interface {
	// File operations
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Directory operations
	MkdirAll(path string, perm fs.FileMode) error
	ReadDir(name string) ([]fs.DirEntry, error)

	// Symlink operations
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)

	// Removal and replacement
	Remove(name string) error
	RemoveAll(path string) error
	Rename(oldpath, newpath string) error
}
