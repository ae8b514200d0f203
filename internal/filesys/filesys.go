// Package filesys is the narrow file system surface takedown needs: reading
// the notice document and config, and atomically replacing report files.
// Everything delegates to the os package in production and is mocked in tests.
package filesys

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/lc/takedown/internal/log"
)

// ReadFS is what the config loader and the input reader need.
type ReadFS interface {
	Open(string) (*os.File, error)
}

// FileOps is what AtomicWrite and the report writer need.
type FileOps interface {
	Open(string) (*os.File, error)
	MkdirAll(string, os.FileMode) error
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// FS is the union handed to the pipeline, which both reads input and writes reports.
type FS interface {
	ReadFS
	FileOps
}

// OS returns the local-disk implementation.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements FS against the local disk.
type OsFS struct{}

func (OsFS) MkdirAll(p string, m os.FileMode) error       { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)              { return os.Open(p) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error) { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error             { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                        { return os.Remove(p) }
func (OsFS) Chmod(p string, m os.FileMode) error          { return os.Chmod(p, m) }

var _ FS = OsFS{}

// AtomicWrite replaces dst with data so readers never observe a half-written
// report:
//
//  1. temp file in the same dir
//  2. fsync(temp) + close
//  3. chmod(temp, perm)  (so rename doesn’t carry 0600 default)
//  4. rename(temp, dst)
//  5. fsync(dir)
//
// On any failure the temp file is removed and dst is left untouched.
func AtomicWrite(fsys FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	tmp, err := fsys.CreateTemp(dir, ".takedown-*")
	if err != nil {
		return err
	}
	name := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = fsys.Chmod(name, perm)
	}
	if err == nil {
		err = fsys.Rename(name, dst)
	}
	if err != nil {
		if rmErr := fsys.Remove(name); rmErr != nil {
			log.Warn("filesys: failed to remove temp file", "path", name, "error", rmErr)
		}
		return err
	}

	syncDir(fsys, dir)
	return nil
}

// syncDir makes the rename durable. Failures only cost durability, not correctness.
func syncDir(fsys FileOps, dir string) {
	d, err := fsys.Open(dir)
	if err != nil {
		return
	}
	if err := d.Sync(); err != nil {
		log.Debug("filesys: directory sync failed", "dir", dir, "error", err)
	}
	if err := d.Close(); err != nil {
		log.Debug("filesys: directory close failed", "dir", dir, "error", err)
	}
}
