package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/priorledger/internal/ir"
)

// Suffix ends every snapshot file name.
const Suffix = ".snapshot.md"

// ComputeSnapshotPath returns {dir}/{base-without-ext}.{id[:8]}.snapshot.md
// for a source artifact. Only the final extension is stripped.
func ComputeSnapshotPath(source, entryID string) string {
	dir := filepath.Dir(source)
	base := filepath.Base(source)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(dir, base+"."+ir.ShortID(entryID)+Suffix)
}

// IntegrityError reports a pre-existing snapshot whose content differs from
// what the current apply would produce.
type IntegrityError struct {
	Path         string
	ExpectedHash string
	ActualHash   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("snapshot integrity check failed for %s: expected sha256 %s, found %s",
		e.Path, e.ExpectedHash, e.ActualHash)
}

// IsIntegrityError returns true if err is an *IntegrityError.
func IsIntegrityError(err error) bool {
	var ie *IntegrityError
	return errors.As(err, &ie)
}

// VerifyIntegrity checks that the file at path, if any, has exactly the
// expected content. A missing file passes.
func VerifyIntegrity(path string, expected []byte) error {
	actual, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("verify snapshot %s: %w", path, err)
	}
	if bytes.Equal(actual, expected) {
		return nil
	}
	return &IntegrityError{
		Path:         path,
		ExpectedHash: ir.ContentHash(expected),
		ActualHash:   ir.ContentHash(actual),
	}
}
