package docmodel

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportKind discriminates the variant held by an ImportEntry.
type ImportKind int

const (
	ImportFile ImportKind = iota
	ImportFileList
	ImportInlineString
	ImportInlineList
)

func (k ImportKind) String() string {
	switch k {
	case ImportFile:
		return "file"
	case ImportFileList:
		return "file_list"
	case ImportInlineString:
		return "inline_string"
	case ImportInlineList:
		return "inline_list"
	default:
		return "unknown"
	}
}

// ImportEntry is the tagged union an `imports:` mapping value decodes into.
// YAML gives no static type information here (a value may be a scalar or a
// sequence), so the union variant is classified once at decode time and
// every downstream package pattern-matches on Kind instead of re-sniffing
// the YAML shape.
type ImportEntry struct {
	Kind ImportKind

	// Path holds the file path for ImportFile.
	Path string

	// Paths holds the file paths for ImportFileList, in declared order.
	Paths []string

	// InlineString holds the literal value for ImportInlineString.
	InlineString string

	// InlineList holds the literal values for ImportInlineList, in
	// declared order; index becomes the key when turned into a
	// VariationMap by the Import Resolver.
	InlineList []string
}

// fileExtensions lists the suffixes that classify a scalar or sequence
// entry as a file reference rather than an inline literal.
var fileExtensions = []string{".yaml", ".yml"}

func looksLikeFilePath(s string) bool {
	for _, ext := range fileExtensions {
		if strings.HasSuffix(s, ext) {
			return true
		}
	}
	return false
}

// UnmarshalYAML classifies the node and populates the matching variant.
func (e *ImportEntry) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		if looksLikeFilePath(s) {
			e.Kind = ImportFile
			e.Path = s
		} else {
			e.Kind = ImportInlineString
			e.InlineString = s
		}
		return nil
	case yaml.SequenceNode:
		var items []string
		if err := node.Decode(&items); err != nil {
			return err
		}
		allFiles := len(items) > 0
		for _, it := range items {
			if !looksLikeFilePath(it) {
				allFiles = false
				break
			}
		}
		if allFiles {
			e.Kind = ImportFileList
			e.Paths = items
		} else {
			e.Kind = ImportInlineList
			e.InlineList = items
		}
		return nil
	default:
		return &yamlShapeError{Node: node, Want: "scalar or sequence"}
	}
}

// MarshalYAML re-emits whichever variant is populated, mirroring the shape
// UnmarshalYAML would have read it from.
func (e ImportEntry) MarshalYAML() (interface{}, error) {
	switch e.Kind {
	case ImportFile:
		return e.Path, nil
	case ImportFileList:
		return e.Paths, nil
	case ImportInlineString:
		return e.InlineString, nil
	case ImportInlineList:
		return e.InlineList, nil
	default:
		return nil, nil
	}
}

type yamlShapeError struct {
	Node *yaml.Node
	Want string
}

func (e *yamlShapeError) Error() string {
	return "unexpected yaml node shape at line " + strconv.Itoa(e.Node.Line) + ": want " + e.Want
}
