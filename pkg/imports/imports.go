// Package imports implements the Import Resolver (spec §4.4): it turns each
// entry of a document's merged `imports` mapping into a concrete variation
// map, merged variation map, ADetailer/ControlNet config, or chunk
// document, resolving every path relative to the document that declared it.
package imports

import (
	"path/filepath"
	"strconv"
	"strings"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// DocumentLoader is the subset of sdyaml.Loader the resolver needs.
type DocumentLoader interface {
	LoadDocument(path string) (*docmodel.Document, error)
	LoadVariationMap(path string) (*docmodel.VariationMap, error)
}

// Resolved holds the outcome of resolving one import entry. Exactly one of
// Variation, ADetailer, ControlNet, Chunk is non-nil.
type Resolved struct {
	Variation  *docmodel.VariationMap
	ADetailer  *docmodel.ADetailerConfig
	ControlNet *docmodel.ControlNetConfig
	Chunk      *docmodel.Document
}

const (
	extADetailer  = ".adetailer.yaml"
	extControlNet = ".controlnet.yaml"
	extChunk      = ".chunk.yaml"
)

// ResolveAll resolves every entry in imports, whose paths are relative to
// baseDir (the directory of the document that declared them).
func ResolveAll(loader DocumentLoader, imports map[string]docmodel.ImportEntry, baseDir string) (map[string]*Resolved, error) {
	out := make(map[string]*Resolved, len(imports))
	for name, entry := range imports {
		r, err := resolveOne(loader, name, entry, baseDir)
		if err != nil {
			return nil, err
		}
		out[name] = r
	}
	return out, nil
}

func resolveOne(loader DocumentLoader, name string, entry docmodel.ImportEntry, baseDir string) (*Resolved, error) {
	switch entry.Kind {
	case docmodel.ImportFile:
		return resolveFile(loader, name, entry.Path, baseDir)

	case docmodel.ImportFileList:
		merged := docmodel.NewVariationMap(nil, nil)
		for _, p := range entry.Paths {
			abs := resolvePath(baseDir, p)
			vm, err := loader.LoadVariationMap(abs)
			if err != nil {
				return nil, &sderrors.ImportNotFound{Name: name, Path: abs}
			}
			for _, k := range vm.Keys() {
				v, _ := vm.Get(k)
				merged.Set(k, v) // later entries override earlier (union semantics)
			}
		}
		return &Resolved{Variation: merged}, nil

	case docmodel.ImportInlineString:
		return &Resolved{Variation: docmodel.NewVariationMap(
			[]string{entry.InlineString},
			map[string]string{entry.InlineString: entry.InlineString},
		)}, nil

	case docmodel.ImportInlineList:
		keys := make([]string, len(entry.InlineList))
		vals := make(map[string]string, len(entry.InlineList))
		for i, v := range entry.InlineList {
			k := strconv.Itoa(i)
			keys[i] = k
			vals[k] = v
		}
		return &Resolved{Variation: docmodel.NewVariationMap(keys, vals)}, nil

	default:
		return nil, &sderrors.ImportTypeMismatch{Name: name, Expected: "file|file_list|inline_string|inline_list", Got: entry.Kind.String()}
	}
}

func resolveFile(loader DocumentLoader, name, path, baseDir string) (*Resolved, error) {
	abs := resolvePath(baseDir, path)

	switch {
	case strings.HasSuffix(path, extADetailer):
		doc, err := loader.LoadDocument(abs)
		if err != nil {
			return nil, &sderrors.ImportNotFound{Name: name, Path: abs}
		}
		if doc.Kind != docmodel.KindADetailer {
			return nil, &sderrors.ImportTypeMismatch{Name: name, Path: abs, Expected: "adetailer_config", Got: string(doc.Kind)}
		}
		return &Resolved{ADetailer: &docmodel.ADetailerConfig{Version: doc.Version, Detectors: doc.Detectors}}, nil

	case strings.HasSuffix(path, extControlNet):
		doc, err := loader.LoadDocument(abs)
		if err != nil {
			return nil, &sderrors.ImportNotFound{Name: name, Path: abs}
		}
		if doc.Kind != docmodel.KindControlNet {
			return nil, &sderrors.ImportTypeMismatch{Name: name, Path: abs, Expected: "controlnet_config", Got: string(doc.Kind)}
		}
		return &Resolved{ControlNet: &docmodel.ControlNetConfig{Version: doc.Version, Units: doc.Units}}, nil

	case strings.HasSuffix(path, extChunk):
		doc, err := loader.LoadDocument(abs)
		if err != nil {
			return nil, &sderrors.ImportNotFound{Name: name, Path: abs}
		}
		if doc.Kind != docmodel.KindChunk {
			return nil, &sderrors.ImportTypeMismatch{Name: name, Path: abs, Expected: "chunk", Got: string(doc.Kind)}
		}
		return &Resolved{Chunk: doc}, nil

	default:
		vm, err := loadAsVariationOrChunk(loader, abs)
		if err != nil {
			return nil, &sderrors.ImportNotFound{Name: name, Path: abs}
		}
		return vm, nil
	}
}

// loadAsVariationOrChunk handles a plain `.yaml` import whose kind is only
// knowable after parsing: either a flat variation map or (less commonly) a
// chunk document referenced without the `.chunk.yaml` naming convention.
func loadAsVariationOrChunk(loader DocumentLoader, abs string) (*Resolved, error) {
	vm, err := loader.LoadVariationMap(abs)
	if err == nil {
		return &Resolved{Variation: vm}, nil
	}
	doc, docErr := loader.LoadDocument(abs)
	if docErr != nil {
		return nil, err
	}
	if doc.Kind == docmodel.KindChunk {
		return &Resolved{Chunk: doc}, nil
	}
	return nil, err
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}
