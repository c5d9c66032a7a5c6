package hook

import "path/filepath"

// Defaults for Paths.
const (
	DefaultBaselinesDir = "docs/business-os/startup-baselines"
	DefaultStage        = "S10"

	ManifestFileName    = "baseline.manifest.json"
	StageResultFileName = "stage-result.json"
)

// Paths lays out run directories under a repository root:
//
//	{root}/{baselines_dir}/{business}/runs/{run_id}/baseline.manifest.json
//	{root}/{baselines_dir}/{business}/runs/{run_id}/stages/{stage}/stage-result.json
type Paths struct {
	Root         string
	BaselinesDir string
	Stage        string
}

func (p Paths) withDefaults() Paths {
	if p.BaselinesDir == "" {
		p.BaselinesDir = DefaultBaselinesDir
	}
	if p.Stage == "" {
		p.Stage = DefaultStage
	}
	return p
}

// BaselinesRoot is the directory holding one subdirectory per business.
// The file ledger backend is rooted here.
func (p Paths) BaselinesRoot() string {
	p = p.withDefaults()
	return filepath.Join(p.Root, p.BaselinesDir)
}

// RunDir returns the directory for one business run.
func (p Paths) RunDir(business, runID string) string {
	return filepath.Join(p.BaselinesRoot(), business, "runs", runID)
}

// ManifestPath returns the baseline manifest of a run.
func (p Paths) ManifestPath(business, runID string) string {
	return filepath.Join(p.RunDir(business, runID), ManifestFileName)
}

// StageResultPath returns the stage result written for a run.
func (p Paths) StageResultPath(business, runID string) string {
	p = p.withDefaults()
	return filepath.Join(p.RunDir(business, runID), "stages", p.Stage, StageResultFileName)
}
