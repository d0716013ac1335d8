// Package pipeline defines the fixed step catalog, the bootstrap script
// builder, and input pairing rules for the metagenomics pipeline.
//
// The catalog is the single shared table for step identity: the bootstrap
// script echoes its marker strings into the remote log, and the status
// tracker searches for the same strings. Keeping both sides on this table
// prevents silent drift between writer and parser.
package pipeline

// Step is one named stage of the fixed pipeline catalog.
type Step struct {
	ID             string // stable identifier used in --steps and log parsing
	DisplayName    string // human-readable name
	Marker         string // tool name echoed into the pipeline log
	EnabledDefault bool
}

// StartMarker is the log line prefix emitted when a step begins.
func (s Step) StartMarker() string { return "Running " + s.Marker }

// CompleteMarker is the log line emitted when a step finishes.
func (s Step) CompleteMarker() string { return s.Marker + " completed" }

// catalog is the fixed, ordered seven-stage pipeline.
var catalog = []Step{
	{ID: "fastqc", DisplayName: "FastQC", Marker: "FastQC", EnabledDefault: true},
	{ID: "trimmomatic", DisplayName: "Trimmomatic", Marker: "Trimmomatic", EnabledDefault: true},
	{ID: "megahit", DisplayName: "MEGAHIT Assembly", Marker: "MEGAHIT", EnabledDefault: true},
	{ID: "prodigal", DisplayName: "Prodigal", Marker: "Prodigal", EnabledDefault: true},
	{ID: "hmmscan", DisplayName: "HMMscan (Pfam)", Marker: "HMMscan", EnabledDefault: true},
	{ID: "binning", DisplayName: "MetaBAT2 Binning", Marker: "MetaBAT2", EnabledDefault: true},
	{ID: "checkm", DisplayName: "CheckM Quality", Marker: "CheckM", EnabledDefault: true},
}

// Catalog returns the ordered step catalog. The returned slice is a copy.
func Catalog() []Step {
	steps := make([]Step, len(catalog))
	copy(steps, catalog)
	return steps
}

// StepByID looks up a catalog step by its identifier.
func StepByID(id string) (Step, bool) {
	for _, s := range catalog {
		if s.ID == id {
			return s, true
		}
	}
	return Step{}, false
}

// DefaultStepIDs returns the ids of steps enabled by default, in catalog order.
func DefaultStepIDs() []string {
	ids := make([]string, 0, len(catalog))
	for _, s := range catalog {
		if s.EnabledDefault {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// NormalizeStepIDs filters the catalog down to the given ids, preserving
// catalog order regardless of caller-supplied order. Unknown ids are
// reported back so callers can reject them.
func NormalizeStepIDs(ids []string) (ordered []string, unknown []string) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	for _, s := range catalog {
		if want[s.ID] {
			ordered = append(ordered, s.ID)
			delete(want, s.ID)
		}
	}
	for id := range want {
		unknown = append(unknown, id)
	}
	return ordered, unknown
}
