package docmodel

// ThemeDocument is the shape of a `theme.yaml` file: a name, an imports
// mapping that completely replaces the thematic entries of the document
// that activates it. Style variants are import keys of the form
// `Name.style` (e.g. `Outfit.cartoon`); there is no separate list of styles.
type ThemeDocument struct {
	Name    string                 `yaml:"name"`
	Imports map[string]ImportEntry `yaml:"imports"`
}
