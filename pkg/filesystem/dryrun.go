package filesystem

import (
	"io/fs"

	"github.com/dotpilot-sh/dotpilot/pkg/logging"
)

// Intent records one mutation a dry run would have performed.
type Intent struct {
	Op     string
	Path   string
	Detail string
}

// DryRunFS wraps another FS, passing reads through and turning every
// mutation into a logged intent. Callers observe success without the
// filesystem changing.
type DryRunFS struct {
	inner   FS
	intents []Intent
}

// NewDryRun creates a dry-run decorator around the given filesystem
func NewDryRun(inner FS) *DryRunFS {
	return &DryRunFS{inner: inner}
}

// Intents returns the mutations recorded so far, in order
func (d *DryRunFS) Intents() []Intent {
	return d.intents
}

func (d *DryRunFS) record(op, path, detail string) {
	d.intents = append(d.intents, Intent{Op: op, Path: path, Detail: detail})
	logger := logging.GetLogger("dryrun")
	logger.Info().
		Str("op", op).
		Str("path", path).
		Str("detail", detail).
		Msg("Would perform")
}

// Reads delegate to the wrapped filesystem.

func (d *DryRunFS) Stat(name string) (fs.FileInfo, error) {
	return d.inner.Stat(name)
}

func (d *DryRunFS) Lstat(name string) (fs.FileInfo, error) {
	return d.inner.Lstat(name)
}

func (d *DryRunFS) ReadFile(name string) ([]byte, error) {
	return d.inner.ReadFile(name)
}

func (d *DryRunFS) ReadDir(name string) ([]fs.DirEntry, error) {
	return d.inner.ReadDir(name)
}

func (d *DryRunFS) Readlink(name string) (string, error) {
	return d.inner.Readlink(name)
}

// Mutations are recorded, never executed.

func (d *DryRunFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	d.record("write", name, "")
	return nil
}

func (d *DryRunFS) MkdirAll(path string, perm fs.FileMode) error {
	d.record("mkdir", path, "")
	return nil
}

func (d *DryRunFS) Symlink(oldname, newname string) error {
	d.record("symlink", newname, "-> "+oldname)
	return nil
}

func (d *DryRunFS) Remove(name string) error {
	d.record("remove", name, "")
	return nil
}

func (d *DryRunFS) RemoveAll(path string) error {
	d.record("remove-all", path, "")
	return nil
}

func (d *DryRunFS) Rename(oldpath, newpath string) error {
	d.record("rename", oldpath, "-> "+newpath)
	return nil
}
