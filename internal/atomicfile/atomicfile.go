// Package atomicfile writes files by temp-file and rename so readers never
// observe a partially written ledger, manifest or snapshot.
package atomicfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// DefaultPerm is used for every artifact the tool writes.
const DefaultPerm os.FileMode = 0o644

// TempPath returns a unique sibling temp name for path.
func TempPath(path string) string {
	return path + ".tmp-" + uuid.NewString()
}

// Write replaces path with data atomically, creating parent directories.
// On any failure the temp file is removed and path is left untouched.
func Write(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("atomic write %s: mkdir: %w", path, err)
	}

	tmp := TempPath(path)
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_EXCL, DefaultPerm)
	if err != nil {
		return fmt.Errorf("atomic write %s: create temp: %w", path, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: write: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: sync: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: close: %w", path, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("atomic write %s: rename: %w", path, err)
	}
	return nil
}

// Append rewrites path as its current content plus data, atomically.
// A missing file is treated as empty. A final line without a newline is
// terminated before data is added.
func Append(path string, data []byte) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("atomic append %s: read: %w", path, err)
	}

	buf := make([]byte, 0, len(existing)+len(data)+1)
	buf = append(buf, existing...)
	if len(buf) > 0 && buf[len(buf)-1] != '\n' {
		buf = append(buf, '\n')
	}
	buf = append(buf, data...)
	return Write(path, buf)
}
