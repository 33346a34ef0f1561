package docmodel

// GenerationConfig controls enumeration mode and seed assignment (§3, §4.7).
type GenerationConfig struct {
	Mode      Mode     `yaml:"mode"`
	SeedMode  SeedMode `yaml:"seed_mode"`
	BaseSeed  int64    `yaml:"base_seed"`
	MaxImages int      `yaml:"max_images"`
}

// AnnotationConfig configures the Annotation Worker (§4.13).
type AnnotationConfig struct {
	Enabled           bool     `yaml:"enabled"`
	Position          string   `yaml:"position"`
	FontSize          int      `yaml:"font_size"`
	BackgroundOpacity float64  `yaml:"background_opacity"`
	TextColor         string   `yaml:"text_color"`
	Keys              []string `yaml:"keys"`
}

// OutputConfig controls session naming and filename construction (§3, §6).
type OutputConfig struct {
	SessionName  string             `yaml:"session_name"`
	FilenameKeys []string           `yaml:"filename_keys"`
	Annotation   *AnnotationConfig  `yaml:"annotation"`
}

// ThemesBlock configures theme autodiscovery and explicit theme entries
// (§4.5).
type ThemesBlock struct {
	EnableAutodiscovery bool              `yaml:"enable_autodiscovery"`
	SearchPaths         []string          `yaml:"search_paths"`
	Themes              map[string]string `yaml:"themes"`
}

// Document is the common structural record for every YAML document kind:
// prompt, template, chunk, theme, and (via their own Detectors/Units
// fields) the two extension config kinds. The Loader sets Kind, Body,
// IsPrompt, and SourcePath after decoding; everything else comes straight
// off YAML struct tags.
type Document struct {
	// Fields present in the YAML source.
	Version        string                  `yaml:"version"`
	Name           string                  `yaml:"name"`
	Implements     string                  `yaml:"implements"`
	Type           string                  `yaml:"type"`
	Imports        map[string]ImportEntry  `yaml:"imports"`
	Chunks         map[string]*Document    `yaml:"chunks"`
	Prompt         *string                 `yaml:"prompt"`
	Template       *string                 `yaml:"template"`
	NegativePrompt string                  `yaml:"negative_prompt"`
	Defaults       map[string]string       `yaml:"defaults"`
	Parameters     map[string]interface{}  `yaml:"parameters"`
	Generation     GenerationConfig        `yaml:"generation"`
	Output         *OutputConfig           `yaml:"output"`
	Themes         *ThemesBlock            `yaml:"themes"`
	Detectors      []ADetailerDetector     `yaml:"detectors"`
	Units          []ControlNetUnit        `yaml:"units"`

	// Fields computed by the Loader, not present in YAML.
	Kind       Kind   `yaml:"-"`
	Body       string `yaml:"-"`
	IsPrompt   bool   `yaml:"-"`
	SourcePath string `yaml:"-"`
}

// EffectiveParameters returns a shallow copy of Parameters, never nil, so
// callers can merge into it without worrying about a nil map.
func (d *Document) EffectiveParameters() map[string]interface{} {
	out := make(map[string]interface{}, len(d.Parameters))
	for k, v := range d.Parameters {
		out[k] = v
	}
	return out
}
