package filesystem

import (
	"io/fs"
	"path/filepath"
)

// CopyFile copies a single file through the given filesystem,
// preserving its mode.
func CopyFile(fsys FS, src, dst string) error {
	info, err := fsys.Stat(src)
	if err != nil {
		return err
	}

	data, err := fsys.ReadFile(src)
	if err != nil {
		return err
	}

	if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}

	return fsys.WriteFile(dst, data, info.Mode().Perm())
}

// CopyTree recursively copies a directory through the given filesystem.
// Symlinks inside the tree are re-created pointing at their original
// targets rather than being followed.
func CopyTree(fsys FS, src, dst string) error {
	info, err := fsys.Lstat(src)
	if err != nil {
		return err
	}

	if info.Mode()&fs.ModeSymlink != 0 {
		target, err := fsys.Readlink(src)
		if err != nil {
			return err
		}
		if err := fsys.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return err
		}
		return fsys.Symlink(target, dst)
	}

	if !info.IsDir() {
		return CopyFile(fsys, src, dst)
	}

	if err := fsys.MkdirAll(dst, info.Mode().Perm()); err != nil {
		return err
	}

	entries, err := fsys.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		dstPath := filepath.Join(dst, entry.Name())
		if err := CopyTree(fsys, srcPath, dstPath); err != nil {
			return err
		}
	}

	return nil
}
