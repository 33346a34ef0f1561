package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewWritesInitialManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")

	snap := Snapshot{
		Version: "2.0",
		Variations: map[string]*VariationEntry{
			"Expression": {Available: []string{"happy", "sad"}, Count: 2},
		},
	}
	m, err := New(path, snap)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if len(m.Images) != 0 {
		t.Fatalf("Images = %+v, want empty", m.Images)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var decoded struct {
		Snapshot Snapshot     `json:"snapshot"`
		Images   []ImageEntry `json:"images"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if decoded.Images == nil || len(decoded.Images) != 0 {
		t.Fatalf("decoded images = %+v, want empty array", decoded.Images)
	}
}

func TestAppendMarksUsedAndRewrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	snap := Snapshot{
		Variations: map[string]*VariationEntry{
			"Expression": {Available: []string{"happy", "sad"}, Count: 2},
		},
	}
	m, err := New(path, snap)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := m.Append(ImageEntry{
		Filename:          "0000.png",
		Seed:              42,
		Prompt:            "masterpiece, smiling",
		AppliedVariations: map[string]string{"Expression": "happy"},
	}); err != nil {
		t.Fatalf("Append: %v", err)
	}

	if len(m.Images) != 1 {
		t.Fatalf("Images = %+v, want 1 entry", m.Images)
	}
	used := m.Snapshot.Variations["Expression"].Used
	if len(used) != 1 || used[0] != "happy" {
		t.Fatalf("used = %v, want [happy]", used)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var decoded struct {
		Images []ImageEntry `json:"images"`
	}
	json.Unmarshal(data, &decoded)
	if len(decoded.Images) != 1 || decoded.Images[0].Filename != "0000.png" {
		t.Fatalf("decoded images = %+v", decoded.Images)
	}
}

func TestAppendMonotonic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	m, err := New(path, Snapshot{})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := m.Append(ImageEntry{Filename: string(rune('a' + i))}); err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
		if len(m.Images) != i+1 {
			t.Fatalf("after append %d: len(Images) = %d", i, len(m.Images))
		}
	}
}
