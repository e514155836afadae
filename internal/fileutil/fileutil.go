// Package fileutil holds file permission constants and whole-file replacement.
package fileutil

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/moenvlab/oaskeyguard/oaserrors"
)

// OwnerReadWrite is the file permission mode for spec output files
// containing potentially sensitive API data (owner read/write only).
const OwnerReadWrite os.FileMode = 0o600

// ReadableByAll is the file permission mode for files intended to be
// read by other users, such as the diagnostic event log.
const ReadableByAll os.FileMode = 0o644

// WriteAtomic replaces the content of path with data.
//
// The data is written to a temporary file in the destination directory and
// renamed over path, so readers observe either the old or the new content.
// An existing destination keeps its permission bits; a new one gets perm.
// When path is a symlink the link target is replaced.
func WriteAtomic(path string, data []byte, perm os.FileMode) error {
	target := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		target = resolved
	}

	info, err := os.Stat(target)
	switch {
	case err == nil:
		if !info.Mode().IsRegular() {
			return &oaserrors.WriteError{Path: path, Op: "stat", Cause: errors.New("not a regular file")}
		}
		perm = info.Mode().Perm()
	case !errors.Is(err, os.ErrNotExist):
		return &oaserrors.WriteError{Path: path, Op: "stat", Cause: err}
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return &oaserrors.WriteError{Path: path, Op: "create", Cause: err}
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "write", Cause: err}
	}
	if err := tmp.Sync(); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "sync", Cause: err}
	}
	if err := tmp.Chmod(perm); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "chmod", Cause: err}
	}
	if err := tmp.Close(); err != nil {
		return &oaserrors.WriteError{Path: path, Op: "close", Cause: err}
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		committed = true
		return &oaserrors.WriteError{Path: path, Op: "rename", Cause: err}
	}
	committed = true
	return nil
}
