package docmodel

// ResolvedContext is the outcome of resolution before combination
// enumeration (§3): per-placeholder restricted variation maps (post-theme,
// post-selector), resolved chunk bodies, the merged effective parameters,
// and per-placeholder provenance for the manifest.
type ResolvedContext struct {
	// Variations maps placeholder name to its restricted choice space.
	Variations map[string]*VariationMap

	// PlaceholderOrder is the declaration order placeholders were first
	// encountered in the merged template, after chunk injection. This is
	// the order the Prompt Generator enumerates the Cartesian product in.
	PlaceholderOrder []string

	// Chunks maps chunk name to its resolved (but not yet
	// placeholder-substituted) template body, for diagnostics.
	Chunks map[string]string

	// Parameters is the merged effective parameters mapping (child
	// overrides parent, §4.3).
	Parameters map[string]interface{}

	// Provenance records, for each placeholder, whether its binding came
	// from "theme", "prompt", or "template" (§4.5).
	Provenance map[string]string

	// ThemeName and Style are nil when no theme was requested.
	ThemeName *string
	Style     *string

	// Template is the fully chunk-injected template body, before Phase B
	// placeholder substitution.
	Template string

	// NegativeTemplate is the merged negative prompt body, before
	// substitution (negative prompts do not carry placeholders in this
	// system, but normalization still runs over the final string).
	NegativeTemplate string
}

// ResolvedPrompt is one concrete generation unit (§3): final prompt
// strings, the seed to submit (or -1 to let the API choose), the chosen
// key per placeholder, and a parameters snapshot for this specific prompt.
type ResolvedPrompt struct {
	Index          int
	Prompt         string
	NegativePrompt string
	Seed           int64
	Applied        map[string]string
	Parameters     map[string]interface{}
}
