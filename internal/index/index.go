package index

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/priorledger/internal/ir"
	"github.com/roach88/priorledger/internal/priors"
)

// ArtifactReader loads artifact text by path.
type ArtifactReader interface {
	ReadArtifact(path string) (string, error)
}

// OSReader reads artifacts from the local filesystem.
type OSReader struct{}

// ReadArtifact implements ArtifactReader.
func (OSReader) ReadArtifact(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// MapReader serves artifacts from memory. Useful in tests.
type MapReader map[string]string

// ReadArtifact implements ArtifactReader.
func (m MapReader) ReadArtifact(path string) (string, error) {
	doc, ok := m[path]
	if !ok {
		return "", fmt.Errorf("open %s: %w", path, os.ErrNotExist)
	}
	return doc, nil
}

// Options configures Build.
type Options struct {
	// BaseDir resolves relative artifact paths. Empty means use them as-is.
	BaseDir string

	// Reader defaults to OSReader.
	Reader ArtifactReader

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Index maps prior ids to the artifacts that define them.
type Index struct {
	Entries []ir.PriorIndexEntry            `json:"entries"`
	ByID    map[string][]ir.PriorIndexEntry `json:"by_id"`

	// priors caches each artifact's extracted priors by resolved path.
	priors map[string][]ir.Prior

	// baseDir resolves relative paths in path-qualified refs.
	baseDir string
}

// New returns an empty index.
func New() *Index {
	return &Index{
		Entries: []ir.PriorIndexEntry{},
		ByID:    make(map[string][]ir.PriorIndexEntry),
		priors:  make(map[string][]ir.Prior),
	}
}

// ResolvePath joins a relative artifact path onto baseDir.
func ResolvePath(baseDir, path string) string {
	if baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// Build reads every pointed-to artifact and indexes its priors.
// Any unreadable or unparsable artifact aborts the build; partial indices are
// never returned.
func Build(pointers []ir.ManifestPointer, opts Options) (*Index, error) {
	reader := opts.Reader
	if reader == nil {
		reader = OSReader{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	idx := New()
	idx.baseDir = opts.BaseDir
	for i, ptr := range pointers {
		path := ResolvePath(opts.BaseDir, ptr.ArtifactPath)

		ps, ok := idx.priors[path]
		if !ok {
			doc, err := reader.ReadArtifact(path)
			if err != nil {
				return nil, fmt.Errorf("build index: pointer %d (%s): read %s: %w", i, ptr.ArtifactScope, path, err)
			}
			ps, err = priors.Extract(doc)
			if err != nil {
				return nil, fmt.Errorf("build index: pointer %d (%s): extract %s: %w", i, ptr.ArtifactScope, path, err)
			}
			idx.priors[path] = ps
		}

		for _, p := range ps {
			idx.add(ir.PriorIndexEntry{
				PriorID:       p.ID,
				ArtifactScope: ptr.ArtifactScope,
				ArtifactPath:  path,
				QualifiedRef:  ir.QualifiedRef(ptr.ArtifactScope, p.ID),
			})
		}

		logger.Debug("artifact indexed",
			"scope", ptr.ArtifactScope,
			"path", path,
			"priors", len(ps),
		)
	}

	return idx, nil
}

func (idx *Index) add(e ir.PriorIndexEntry) {
	idx.Entries = append(idx.Entries, e)
	idx.ByID[e.PriorID] = append(idx.ByID[e.PriorID], e)
}

// Priors returns the priors extracted from the artifact at path.
func (idx *Index) Priors(path string) ([]ir.Prior, error) {
	ps, ok := idx.priors[path]
	if !ok {
		return nil, fmt.Errorf("artifact not indexed: %s", path)
	}
	return ps, nil
}

// Prior returns one prior from an indexed artifact.
func (idx *Index) Prior(path, priorID string) (ir.Prior, bool) {
	for _, p := range idx.priors[path] {
		if p.ID == priorID {
			return p, true
		}
	}
	return ir.Prior{}, false
}

// ByScope finds the entry for prior id in the artifact with the given scope.
func (idx *Index) ByScope(scope, priorID string) (ir.PriorIndexEntry, bool) {
	for _, e := range idx.ByID[priorID] {
		if e.ArtifactScope == scope {
			return e, true
		}
	}
	return ir.PriorIndexEntry{}, false
}

// ByPath finds the entry for prior id in the artifact at path.
// A relative path matches either as written or resolved against the build's
// BaseDir. Paths are compared after filepath.Clean.
func (idx *Index) ByPath(path, priorID string) (ir.PriorIndexEntry, bool) {
	want := filepath.Clean(path)
	resolved := filepath.Clean(ResolvePath(idx.baseDir, path))
	for _, e := range idx.ByID[priorID] {
		got := filepath.Clean(e.ArtifactPath)
		if got == want || got == resolved {
			return e, true
		}
	}
	return ir.PriorIndexEntry{}, false
}

// Scopes lists the distinct scopes defining a bare id, in index order.
func (idx *Index) Scopes(priorID string) []string {
	var scopes []string
	seen := make(map[string]bool)
	for _, e := range idx.ByID[priorID] {
		if !seen[e.ArtifactScope] {
			seen[e.ArtifactScope] = true
			scopes = append(scopes, e.ArtifactScope)
		}
	}
	return scopes
}

// SplitRef splits "left#prior_id" on its last '#'. ok is false for bare ids.
func SplitRef(ref string) (left, priorID string, ok bool) {
	i := strings.LastIndex(ref, "#")
	if i < 0 {
		return "", ref, false
	}
	return ref[:i], ref[i+1:], true
}

// ByQualifiedRef resolves "scope#prior_id".
func (idx *Index) ByQualifiedRef(ref string) (ir.PriorIndexEntry, bool) {
	scope, id, ok := SplitRef(ref)
	if !ok {
		return ir.PriorIndexEntry{}, false
	}
	return idx.ByScope(scope, id)
}

// ByPathRef resolves "artifact_path#prior_id".
func (idx *Index) ByPathRef(ref string) (ir.PriorIndexEntry, bool) {
	path, id, ok := SplitRef(ref)
	if !ok {
		return ir.PriorIndexEntry{}, false
	}
	return idx.ByPath(path, id)
}

// ByBareID returns every entry carrying a bare prior id, in index order.
func (idx *Index) ByBareID(priorID string) []ir.PriorIndexEntry {
	return idx.ByID[priorID]
}
