// Package manifest implements the Manifest Updater (spec §4.12): an
// in-memory snapshot plus append-only images array, rewritten atomically
// to disk after every successful image (write-temp-and-rename, the same
// idiom pkg/session uses for image files).
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// Snapshot is the reproducibility record written once at session start and
// carried, unmodified apart from per-placeholder Used tracking, through
// every subsequent rewrite (§6).
type Snapshot struct {
	Version          string                     `json:"version"`
	Timestamp        string                     `json:"timestamp"`
	RuntimeInfo      map[string]string          `json:"runtime_info"`
	ResolvedTemplate ResolvedTemplate           `json:"resolved_template"`
	GenerationParams GenerationParams           `json:"generation_params"`
	APIParams        map[string]interface{}     `json:"api_params"`
	Variations       map[string]*VariationEntry `json:"variations"`
	ThemeName        *string                    `json:"theme_name"`
	Style            *string                    `json:"style"`
}

// ResolvedTemplate records the fully resolved (pre-substitution) prompt and
// negative-prompt bodies.
type ResolvedTemplate struct {
	Prompt   string `json:"prompt"`
	Negative string `json:"negative"`
}

// GenerationParams records the enumeration configuration used this run.
type GenerationParams struct {
	Mode              string `json:"mode"`
	SeedMode          string `json:"seed_mode"`
	BaseSeed          int64  `json:"base_seed"`
	NumImages         int    `json:"num_images"`
	TotalCombinations int    `json:"total_combinations"`
}

// VariationEntry records, for one placeholder, its full restricted space
// and the subset actually used so far.
type VariationEntry struct {
	Available []string `json:"available"`
	Used      []string `json:"used"`
	Count     int      `json:"count"`
}

// ImageEntry is one row of the manifest's append-only images array.
type ImageEntry struct {
	Filename          string            `json:"filename"`
	Seed              int64             `json:"seed"`
	Prompt            string            `json:"prompt"`
	NegativePrompt    string            `json:"negative_prompt"`
	AppliedVariations map[string]string `json:"applied_variations"`
}

// Manifest holds the full document (snapshot + images) in memory and
// serializes it to path atomically on every Append.
type Manifest struct {
	path     string
	Snapshot Snapshot   `json:"snapshot"`
	Images   []ImageEntry `json:"images"`
}

// New builds a Manifest with an empty images array and writes the initial
// file to path, serving as the reproducibility anchor even if zero images
// end up succeeding (§4.10 "session initialization").
func New(path string, snapshot Snapshot) (*Manifest, error) {
	m := &Manifest{path: path, Snapshot: snapshot, Images: []ImageEntry{}}
	if err := m.rewrite(); err != nil {
		return nil, err
	}
	return m, nil
}

// Append records one successful image, marks its applied variation keys as
// used in the snapshot, and rewrites the manifest file atomically. A
// failure here is a ManifestWriteFailure: the executor must treat it as a
// hard abort (§7) since the session stops being reproducible.
func (m *Manifest) Append(entry ImageEntry) error {
	m.Images = append(m.Images, entry)
	for placeholder, key := range entry.AppliedVariations {
		ve := m.Snapshot.Variations[placeholder]
		if ve == nil {
			continue
		}
		if !containsString(ve.Used, key) {
			ve.Used = append(ve.Used, key)
		}
	}
	return m.rewrite()
}

func containsString(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}

// rewrite serializes the whole manifest to a sibling temp file and renames
// it over m.path, so a crash mid-write never leaves a truncated manifest.
func (m *Manifest) rewrite() error {
	data, err := json.MarshalIndent(struct {
		Snapshot Snapshot     `json:"snapshot"`
		Images   []ImageEntry `json:"images"`
	}{m.Snapshot, m.Images}, "", "  ")
	if err != nil {
		return &sderrors.ManifestWriteFailure{Path: m.path, Err: err}
	}

	dir := filepath.Dir(m.path)
	tmp, err := os.CreateTemp(dir, ".manifest-*.tmp")
	if err != nil {
		return &sderrors.ManifestWriteFailure{Path: m.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &sderrors.ManifestWriteFailure{Path: m.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &sderrors.ManifestWriteFailure{Path: m.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &sderrors.ManifestWriteFailure{Path: m.path, Err: err}
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		os.Remove(tmpName)
		return &sderrors.ManifestWriteFailure{Path: m.path, Err: err}
	}
	return nil
}

// NowTimestamp returns the current time formatted as the snapshot's
// ISO-8601 timestamp field. Callers that need determinism in tests should
// build Snapshot.Timestamp directly instead of calling this.
func NowTimestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
