// Package inherit implements the Inheritance Resolver (spec §4.3): it walks
// a document's `implements` chain, merges parent and child fields per the
// documented rules, and detects cycles and excessive chain depth.
package inherit

import (
	"log/slog"
	"path/filepath"
	"reflect"
	"strings"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// MaxDepth bounds the implements chain so a pathological or accidentally
// cyclic document set fails fast rather than recursing unboundedly (spec
// §9: "make the recursion iterative or depth-limited (max 16)").
const MaxDepth = 16

// DocumentLoader is the subset of sdyaml.Loader the resolver needs. Kept as
// an interface so tests can supply an in-memory double.
type DocumentLoader interface {
	LoadDocument(path string) (*docmodel.Document, error)
}

// Resolve walks leaf's `implements` chain to the root, then merges
// root-to-leaf so the leaf wins on every conflict, returning a single
// synthetic Document that downstream stages treat as if it had been
// declared directly (with Implements cleared).
func Resolve(loader DocumentLoader, leaf *docmodel.Document, logger *slog.Logger) (*docmodel.Document, error) {
	if logger == nil {
		logger = slog.Default()
	}

	chain := []*docmodel.Document{leaf}
	visited := map[string]bool{leaf.SourcePath: true}
	chainPaths := []string{leaf.SourcePath}

	cur := leaf
	depth := 0
	for cur.Implements != "" {
		depth++
		if depth > MaxDepth {
			return nil, &sderrors.MaxInheritanceDepthExceeded{Path: leaf.SourcePath, Depth: depth, Max: MaxDepth}
		}

		parentPath := filepath.Join(filepath.Dir(cur.SourcePath), cur.Implements)
		abs, err := filepath.Abs(parentPath)
		if err != nil {
			return nil, err
		}
		if visited[abs] {
			return nil, &sderrors.CycleDetected{Chain: append(chainPaths, abs)}
		}

		parent, err := loader.LoadDocument(abs)
		if err != nil {
			return nil, err
		}

		visited[abs] = true
		chainPaths = append(chainPaths, abs)
		chain = append(chain, parent)
		cur = parent
	}

	// chain is ordered leaf-to-root; merge root-to-leaf.
	merged := cloneDocument(chain[len(chain)-1])
	warnedReplace := false
	for i := len(chain) - 2; i >= 0; i-- {
		merged = mergeFields(merged, chain[i], logger, &warnedReplace)
	}
	merged.Implements = ""
	return merged, nil
}

func cloneDocument(d *docmodel.Document) *docmodel.Document {
	out := *d
	out.Imports = cloneImports(d.Imports)
	out.Chunks = cloneChunks(d.Chunks)
	out.Parameters = cloneParameters(d.Parameters)
	return &out
}

func cloneImports(m map[string]docmodel.ImportEntry) map[string]docmodel.ImportEntry {
	out := make(map[string]docmodel.ImportEntry, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneChunks(m map[string]*docmodel.Document) map[string]*docmodel.Document {
	out := make(map[string]*docmodel.Document, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneParameters(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// mergeFields merges parent (the accumulated result so far) with child (the
// next document down the chain, closer to the leaf), per the table in spec
// §4.3. child wins on every conflict.
func mergeFields(parent, child *docmodel.Document, logger *slog.Logger, warnedReplace *bool) *docmodel.Document {
	out := cloneDocument(child)

	out.Body, *warnedReplace = mergeTemplateBody(parent.Body, child.Body, child.IsPrompt, logger, *warnedReplace)
	out.IsPrompt = child.IsPrompt || parent.IsPrompt
	out.NegativePrompt = mergeNegativePrompt(parent.NegativePrompt, child.NegativePrompt)

	out.Parameters = mergeParameters(parent.Parameters, child.Parameters)
	out.Imports = mergeImports(parent.Imports, child.Imports)
	out.Chunks = mergeChunks(parent.Chunks, child.Chunks)

	if isZeroGeneration(child.Generation) {
		out.Generation = parent.Generation
	} else {
		out.Generation = child.Generation
	}

	if child.Themes == nil {
		out.Themes = parent.Themes
	}
	if child.Output == nil {
		out.Output = parent.Output
	}

	return out
}

// mergeTemplateBody substitutes child's body into parent's `{prompt}`
// marker. When parent's body has no such marker, child's body replaces it
// entirely and a warning is logged once per chain (spec §6F decision:
// replace-with-warning, not a validation error).
func mergeTemplateBody(parentBody, childBody string, childIsTerminal bool, logger *slog.Logger, warnedAlready bool) (string, bool) {
	if parentBody == "" {
		return childBody, warnedAlready
	}
	if strings.Contains(parentBody, "{prompt}") {
		return strings.ReplaceAll(parentBody, "{prompt}", childBody), warnedAlready
	}
	if !warnedAlready {
		logger.Warn("parent template has no {prompt} marker; child replaces it entirely",
			"component", "inherit")
	}
	return childBody, true
}

func mergeNegativePrompt(parent, child string) string {
	switch {
	case strings.Contains(parent, "{negprompt}"):
		return strings.ReplaceAll(parent, "{negprompt}", child)
	case child == "":
		return parent
	case parent == "":
		return child
	default:
		return parent + ", " + child
	}
}

func mergeParameters(parent, child map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func mergeImports(parent, child map[string]docmodel.ImportEntry) map[string]docmodel.ImportEntry {
	out := make(map[string]docmodel.ImportEntry, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func mergeChunks(parent, child map[string]*docmodel.Document) map[string]*docmodel.Document {
	out := make(map[string]*docmodel.Document, len(parent)+len(child))
	for k, v := range parent {
		out[k] = v
	}
	for k, v := range child {
		out[k] = v
	}
	return out
}

func isZeroGeneration(g docmodel.GenerationConfig) bool {
	return reflect.DeepEqual(g, docmodel.GenerationConfig{})
}
