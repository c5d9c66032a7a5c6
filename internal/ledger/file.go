package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/roach88/priorledger/internal/atomicfile"
	"github.com/roach88/priorledger/internal/ir"
)

// FileName is the ledger file inside each business directory.
const FileName = "learning-ledger.jsonl"

// FileBackend stores one JSON-lines ledger per business under root.
type FileBackend struct {
	root string
}

// NewFileBackend stores ledgers at {root}/{business}/learning-ledger.jsonl.
func NewFileBackend(root string) *FileBackend {
	return &FileBackend{root: root}
}

// Path returns the ledger file for business.
func (f *FileBackend) Path(business string) string {
	return filepath.Join(f.root, business, FileName)
}

// Load implements Backend. Blank lines are skipped; a malformed line is an
// error naming its line number.
func (f *FileBackend) Load(_ context.Context, business string) ([]ir.LearningEntry, error) {
	path := f.Path(business)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []ir.LearningEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", path, err)
	}

	entries := []ir.LearningEntry{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		var e ir.LearningEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			return nil, fmt.Errorf("parse ledger %s line %d: %w", path, line, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan ledger %s: %w", path, err)
	}
	return entries, nil
}

// Write implements Backend. The existing file is copied with the new line
// appended and renamed into place, so a crash never leaves a torn line.
func (f *FileBackend) Write(_ context.Context, business string, entry ir.LearningEntry) error {
	line, err := ir.EncodeJSON(entry, "")
	if err != nil {
		return fmt.Errorf("encode entry %s: %w", entry.EntryID, err)
	}
	line = append(line, '\n')

	if err := atomicfile.Append(f.Path(business), line); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	return nil
}
