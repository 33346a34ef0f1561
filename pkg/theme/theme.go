// Package theme implements the Theme Resolver (spec §4.5): theme
// autodiscovery, complete import-set substitution when a theme is active,
// style-suffix rebinding/dropping, and per-placeholder provenance tracking
// for the manifest.
package theme

import (
	"os"
	"path/filepath"
	"strings"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// RemoveSentinel is the special import value that binds a placeholder to
// the empty string instead of a real substitution.
const RemoveSentinel = "[Remove]"

// Provenance values recorded per placeholder for the manifest.
const (
	ProvenanceTheme    = "theme"
	ProvenancePrompt   = "prompt"
	ProvenanceTemplate = "template"
)

// Loader is the subset of sdyaml.Loader the resolver needs.
type Loader interface {
	LoadTheme(path string) (*docmodel.ThemeDocument, error)
}

// Discover returns the available themes map: explicit entries from block
// take precedence over autodiscovered `theme.yaml` subdirectories.
func Discover(block *docmodel.ThemesBlock, baseDir string) (map[string]string, error) {
	available := make(map[string]string)

	if block == nil {
		return available, nil
	}

	if block.EnableAutodiscovery {
		for _, searchPath := range block.SearchPaths {
			root := searchPath
			if !filepath.IsAbs(root) {
				root = filepath.Join(baseDir, root)
			}
			entries, err := os.ReadDir(root)
			if err != nil {
				continue // an unreadable search path is not fatal; it simply contributes no themes
			}
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				candidate := filepath.Join(root, e.Name(), "theme.yaml")
				if _, err := os.Stat(candidate); err == nil {
					available[e.Name()] = candidate
				}
			}
		}
	}

	for name, path := range block.Themes {
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		available[name] = path
	}

	return available, nil
}

// Resolve applies theme substitution to mergedImports. explicitPromptImports
// holds the imports declared directly on the prompt document (as opposed to
// inherited via `implements`); those always win last, per spec §4.5.
func Resolve(
	loader Loader,
	block *docmodel.ThemesBlock,
	baseDir string,
	themeName string,
	style string,
	mergedImports map[string]docmodel.ImportEntry,
	explicitPromptImports map[string]docmodel.ImportEntry,
) (map[string]docmodel.ImportEntry, map[string]string, error) {
	available, err := Discover(block, baseDir)
	if err != nil {
		return nil, nil, err
	}

	path, ok := available[themeName]
	if !ok {
		names := make([]string, 0, len(available))
		for n := range available {
			names = append(names, n)
		}
		return nil, nil, &sderrors.ThemeNotFound{Name: themeName, Available: names}
	}

	themeDoc, err := loader.LoadTheme(path)
	if err != nil {
		return nil, nil, err
	}

	themeBindings := resolveStyleVariants(themeDoc.Imports, style)

	out := make(map[string]docmodel.ImportEntry, len(mergedImports))
	provenance := make(map[string]string, len(mergedImports))
	for k, v := range mergedImports {
		out[k] = v
		provenance[k] = ProvenanceTemplate
	}
	for k, v := range themeBindings {
		out[k] = v
		provenance[k] = ProvenanceTheme
	}
	for k, v := range explicitPromptImports {
		out[k] = v
		provenance[k] = ProvenancePrompt
	}

	return out, provenance, nil
}

// resolveStyleVariants groups theme import keys by base name (the part
// before the first '.') and picks, per base name, the entry matching the
// active style, falling back to the style-agnostic entry, or dropping the
// placeholder entirely when only mismatched style variants exist.
func resolveStyleVariants(themeImports map[string]docmodel.ImportEntry, style string) map[string]docmodel.ImportEntry {
	type variant struct {
		style string // "" for the style-agnostic entry
		entry docmodel.ImportEntry
	}
	byBase := make(map[string][]variant)

	for key, entry := range themeImports {
		base, suffix, hasSuffix := strings.Cut(key, ".")
		if !hasSuffix {
			byBase[key] = append(byBase[key], variant{style: "", entry: entry})
			continue
		}
		byBase[base] = append(byBase[base], variant{style: suffix, entry: entry})
	}

	out := make(map[string]docmodel.ImportEntry, len(byBase))
	for base, variants := range byBase {
		var chosen *docmodel.ImportEntry
		var fallback *docmodel.ImportEntry
		for i := range variants {
			v := &variants[i]
			if v.style == style && style != "" {
				chosen = &v.entry
			}
			if v.style == "" {
				fallback = &v.entry
			}
		}
		var picked *docmodel.ImportEntry
		switch {
		case chosen != nil:
			picked = chosen
		case fallback != nil:
			picked = fallback
		default:
			continue // only mismatched style variants exist: drop
		}
		out[base] = applyRemoveSentinel(*picked)
	}
	return out
}

func applyRemoveSentinel(entry docmodel.ImportEntry) docmodel.ImportEntry {
	if entry.Kind == docmodel.ImportInlineString && entry.InlineString == RemoveSentinel {
		return docmodel.ImportEntry{Kind: docmodel.ImportInlineString, InlineString: ""}
	}
	return entry
}
