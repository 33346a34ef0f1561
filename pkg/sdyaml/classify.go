package sdyaml

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// classifyKind inspects a document's top-level keys and optional `type:`
// tag to determine its docmodel.Kind, per spec §4.1. A flat mapping with no
// `version` key and only scalar values is a variation map; everything else
// is a structured document distinguished by its `type:` tag or, absent
// one, by whether it declares `prompt` or `template`.
func classifyKind(path string, data []byte) (docmodel.Kind, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return "", &sderrors.MalformedSource{Path: path, Err: err}
	}
	if len(root.Content) == 0 {
		return "", &sderrors.MalformedSource{Path: path, Err: fmt.Errorf("empty document")}
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return "", &sderrors.BadKind{Path: path, Expected: "mapping document", Got: "non-mapping document"}
	}

	var typeTag string
	hasVersion := false
	hasPrompt := false
	hasTemplate := false
	allScalarValues := true
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key := mapping.Content[i].Value
		val := mapping.Content[i+1]
		switch key {
		case "version":
			hasVersion = true
		case "type":
			typeTag = val.Value
		case "prompt":
			hasPrompt = true
		case "template":
			hasTemplate = true
		}
		if val.Kind != yaml.ScalarNode {
			allScalarValues = false
		}
	}

	switch typeTag {
	case "adetailer_config":
		return docmodel.KindADetailer, nil
	case "controlnet_config":
		return docmodel.KindControlNet, nil
	case "theme":
		return docmodel.KindTheme, nil
	case "":
		// fall through to key-based classification below
	default:
		// "chunk", "character", or any other document-type tag that isn't
		// one of the three reserved extension/theme tags denotes a chunk.
		return docmodel.KindChunk, nil
	}

	if !hasVersion && allScalarValues && !hasPrompt && !hasTemplate {
		return docmodel.KindVariation, nil
	}

	switch {
	case hasPrompt:
		return docmodel.KindPrompt, nil
	case hasTemplate:
		return docmodel.KindTemplate, nil
	default:
		return "", &sderrors.BadKind{
			Path:     path,
			Expected: "prompt|template|chunk|variation|adetailer_config|controlnet_config|theme",
			Got:      "unrecognized document shape",
		}
	}
}
