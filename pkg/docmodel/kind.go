// Package docmodel holds the shared document types that flow through every
// stage of the resolution pipeline: the Kind discriminator, the tagged
// union used for import entries, ordered variation maps, extension configs,
// and the resolved-context/resolved-prompt types produced once resolution
// completes.
package docmodel

// Kind discriminates the shape of a parsed YAML document. The Loader
// classifies a document into exactly one Kind by inspecting its top-level
// keys and an optional `type:` tag; every downstream package dispatches on
// Kind rather than doing its own shape-sniffing.
type Kind string

const (
	KindPrompt     Kind = "prompt"
	KindTemplate   Kind = "template"
	KindChunk      Kind = "chunk"
	KindVariation  Kind = "variation"
	KindADetailer  Kind = "adetailer_config"
	KindControlNet Kind = "controlnet_config"
	KindTheme      Kind = "theme"
)

// Mode selects how the Prompt Generator enumerates the combination space.
type Mode string

const (
	ModeCombinatorial Mode = "combinatorial"
	ModeRandom        Mode = "random"
)

// SeedMode selects how a seed is assigned to each emitted prompt.
type SeedMode string

const (
	SeedFixed       SeedMode = "fixed"
	SeedProgressive SeedMode = "progressive"
	SeedRandom      SeedMode = "random"
)

// ValidModes and ValidSeedModes back the Validator's enum checks.
var (
	ValidModes     = []string{string(ModeCombinatorial), string(ModeRandom)}
	ValidSeedModes = []string{string(SeedFixed), string(SeedProgressive), string(SeedRandom)}
)
