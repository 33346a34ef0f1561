// Package validate implements the Validator (spec §4.2): structural and
// referential checks run on a single parsed document, before inheritance
// resolution begins.
package validate

import (
	"fmt"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/xeipuuv/gojsonschema"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// Validate checks doc in isolation and returns every violation found (not
// just the first), so a caller such as the `validate` CLI subcommand can
// report them all at once. raw is the document's generic
// map[string]interface{} decoding, used for the JSON Schema pass; pass nil
// to skip it (chunk documents loaded as sub-values of a parent do not carry
// one).
func Validate(doc *docmodel.Document, raw map[string]interface{}) []error {
	var errs []error

	if raw != nil {
		errs = append(errs, validateSchema(raw)...)
	}

	if doc.Version == "" {
		errs = append(errs, sderrors.MissingField("version"))
	} else if _, err := semver.NewVersion(doc.Version); err != nil {
		errs = append(errs, &sderrors.ValidationError{
			Field:  "version",
			Reason: fmt.Sprintf("not a valid version string: %v", err),
		})
	}

	if doc.Kind == docmodel.KindPrompt || doc.Kind == docmodel.KindTemplate {
		if doc.Name == "" {
			errs = append(errs, sderrors.MissingField("name"))
		}
		if doc.Prompt == nil && doc.Template == nil {
			errs = append(errs, sderrors.MissingField("prompt or template"))
		}
		errs = append(errs, validateGeneration(doc)...)
	}

	if doc.Implements != "" && filepath.IsAbs(doc.Implements) {
		errs = append(errs, &sderrors.ValidationError{
			Field:      "implements",
			Reason:     "must be a relative path",
			Suggestion: "reference the parent document relative to this file's directory",
		})
	}

	if doc.Kind == docmodel.KindChunk {
		errs = append(errs, validateChunkBody(doc)...)
	}

	errs = append(errs, validatePlaceholderSyntax(doc.Body)...)

	return errs
}

func validateSchema(raw map[string]interface{}) []error {
	schemaLoader := gojsonschema.NewStringLoader(documentSchema)
	docLoader := gojsonschema.NewGoLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, docLoader)
	if err != nil {
		return []error{fmt.Errorf("schema validation: %w", err)}
	}
	if result.Valid() {
		return nil
	}
	var errs []error
	for _, re := range result.Errors() {
		errs = append(errs, &sderrors.ValidationError{
			Field:  re.Field(),
			Reason: re.Description(),
		})
	}
	return errs
}

func validateGeneration(doc *docmodel.Document) []error {
	var errs []error
	gen := doc.Generation

	if gen.Mode != "" && gen.Mode != docmodel.ModeCombinatorial && gen.Mode != docmodel.ModeRandom {
		errs = append(errs, sderrors.BadEnum("generation.mode", string(gen.Mode), docmodel.ValidModes))
	}
	if gen.SeedMode != "" &&
		gen.SeedMode != docmodel.SeedFixed &&
		gen.SeedMode != docmodel.SeedProgressive &&
		gen.SeedMode != docmodel.SeedRandom {
		errs = append(errs, sderrors.BadEnum("generation.seed_mode", string(gen.SeedMode), docmodel.ValidSeedModes))
	}
	if gen.MaxImages < 0 {
		errs = append(errs, &sderrors.ValidationError{
			Field:      "generation.max_images",
			Reason:     "must be >= 0 (0 means \"all\")",
			Suggestion: "use 0 for \"all combinations\" rather than a negative number",
		})
	}
	return errs
}

func validateChunkBody(doc *docmodel.Document) []error {
	var errs []error
	for _, reserved := range []string{"prompt", "negprompt"} {
		occs, err := docmodel.FindPlaceholders(doc.Body)
		if err != nil {
			continue // reported by validatePlaceholderSyntax
		}
		for _, occ := range occs {
			if occ.Name == reserved {
				errs = append(errs, &sderrors.ReservedPlaceholderInChunk{
					ChunkName:   doc.Name,
					Placeholder: reserved,
				})
			}
		}
	}
	return errs
}

func validatePlaceholderSyntax(body string) []error {
	if _, err := docmodel.FindPlaceholders(body); err != nil {
		return []error{&sderrors.BadPlaceholderSyntax{Token: body, Reason: err.Error()}}
	}
	return nil
}
