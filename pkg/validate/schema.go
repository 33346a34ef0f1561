package validate

// documentSchema is a loose JSON Schema covering the shape every document
// kind shares (version/name as strings, generation enums and ranges when
// present). It runs ahead of the hand-written structural checks below,
// which express invariants (placeholder syntax, selector grammar, reserved
// chunk placeholders) that JSON Schema cannot.
const documentSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "version": {"type": "string"},
    "name": {"type": "string"},
    "implements": {"type": "string"},
    "generation": {
      "type": "object",
      "properties": {
        "mode": {"type": "string", "enum": ["combinatorial", "random"]},
        "seed_mode": {"type": "string", "enum": ["fixed", "progressive", "random"]},
        "max_images": {"type": "integer", "minimum": 0}
      }
    }
  }
}`
