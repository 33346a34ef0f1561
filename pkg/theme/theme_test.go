package theme

import (
	"reflect"
	"testing"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
)

type fakeLoader struct {
	themes map[string]*docmodel.ThemeDocument
}

func (f *fakeLoader) LoadTheme(path string) (*docmodel.ThemeDocument, error) {
	return f.themes[path], nil
}

func fileEntry(path string) docmodel.ImportEntry {
	return docmodel.ImportEntry{Kind: docmodel.ImportFile, Path: path}
}

// TestResolveCompleteSubstitution exercises scenario D from spec.md §8: a
// theme replaces HairCut and Outfit entirely, while the prompt document's
// own explicit Rendering import still wins over everything.
func TestResolveCompleteSubstitution(t *testing.T) {
	block := &docmodel.ThemesBlock{
		Themes: map[string]string{"cyberpunk": "/themes/cyberpunk/theme.yaml"},
	}
	loader := &fakeLoader{themes: map[string]*docmodel.ThemeDocument{
		"/themes/cyberpunk/theme.yaml": {
			Name: "cyberpunk",
			Imports: map[string]docmodel.ImportEntry{
				"HairCut": fileEntry("cp/hair.yaml"),
				"Outfit":  fileEntry("cp/outfit.yaml"),
			},
		},
	}}

	merged := map[string]docmodel.ImportEntry{
		"HairCut":   fileEntry("default/haircut.yaml"),
		"Outfit":    fileEntry("default/outfit.yaml"),
		"Rendering": fileEntry("common/rendering.yaml"),
	}
	explicit := map[string]docmodel.ImportEntry{
		"Rendering": fileEntry("custom/my_rendering.yaml"),
	}

	out, provenance, err := Resolve(loader, block, "/docs", "cyberpunk", "", merged, explicit)
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}

	want := map[string]docmodel.ImportEntry{
		"HairCut":   fileEntry("cp/hair.yaml"),
		"Outfit":    fileEntry("cp/outfit.yaml"),
		"Rendering": fileEntry("custom/my_rendering.yaml"),
	}
	if !reflect.DeepEqual(out, want) {
		t.Fatalf("Resolve imports = %+v, want %+v", out, want)
	}
	if provenance["Rendering"] != ProvenancePrompt {
		t.Fatalf("Rendering provenance = %q, want %q", provenance["Rendering"], ProvenancePrompt)
	}
	if provenance["HairCut"] != ProvenanceTheme {
		t.Fatalf("HairCut provenance = %q, want %q", provenance["HairCut"], ProvenanceTheme)
	}
}

func TestResolveStyleFallbackAndDrop(t *testing.T) {
	block := &docmodel.ThemesBlock{Themes: map[string]string{"t": "/t/theme.yaml"}}
	loader := &fakeLoader{themes: map[string]*docmodel.ThemeDocument{
		"/t/theme.yaml": {
			Imports: map[string]docmodel.ImportEntry{
				"Outfit.cartoon":   fileEntry("outfit_cartoon.yaml"),
				"Outfit.realistic": fileEntry("outfit_realistic.yaml"),
				"Hair":             fileEntry("hair.yaml"),
				"Pose.cartoon":     fileEntry("pose_cartoon.yaml"),
			},
		},
	}}

	out, _, err := Resolve(loader, block, "/docs", "t", "realistic", nil, nil)
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}
	if out["Outfit"] != fileEntry("outfit_realistic.yaml") {
		t.Fatalf("Outfit = %+v, want realistic variant", out["Outfit"])
	}
	if out["Hair"] != fileEntry("hair.yaml") {
		t.Fatalf("Hair = %+v, want style-agnostic fallback", out["Hair"])
	}
	if _, ok := out["Pose"]; ok {
		t.Fatalf("Pose should be dropped (only a mismatched style variant exists), got %+v", out["Pose"])
	}
}

func TestResolveThemeNotFound(t *testing.T) {
	loader := &fakeLoader{themes: map[string]*docmodel.ThemeDocument{}}
	_, _, err := Resolve(loader, &docmodel.ThemesBlock{}, "/docs", "missing", "", nil, nil)
	if err == nil {
		t.Fatal("Resolve: expected ThemeNotFound, got nil")
	}
}
