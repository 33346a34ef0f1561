package docmodel

import (
	"regexp"
	"strconv"
	"strings"
)

// SelectorKind discriminates the five selector forms in spec §3/§4.6.
type SelectorKind int

const (
	// SelectorNone means no selector was present: use the full space in
	// declared order.
	SelectorNone SelectorKind = iota
	// SelectorFirstN is `[N]`: the first N entries.
	SelectorFirstN
	// SelectorRandomN is `[random:N]`: N entries sampled without
	// replacement using the session RNG.
	SelectorRandomN
	// SelectorIndexList is `[#i,j,k]`: entries at the given 0-based
	// indices.
	SelectorIndexList
	// SelectorIndexRange is `[#i-j]`: entries at indices i through j
	// inclusive.
	SelectorIndexRange
	// SelectorKeyList is `[key1,key2,…]`: entries whose keys match one of
	// the listed identifiers.
	SelectorKeyList
)

// Selector is a parsed placeholder selector.
type Selector struct {
	Kind    SelectorKind
	N       int      // SelectorFirstN, SelectorRandomN
	Indices []int    // SelectorIndexList
	RangeLo int      // SelectorIndexRange
	RangeHi int      // SelectorIndexRange
	Keys    []string // SelectorKeyList
	Raw     string   // original selector text, for error messages
}

// Occurrence is one `{Name}` / `{Name[selector]}` occurrence found in a
// template string.
type Occurrence struct {
	Name     string
	Selector *Selector // nil when no selector was present
	Start    int       // byte offset of '{' in the source string
	End      int       // byte offset just past the matching '}'
	Raw      string    // the full `{...}` text
}

var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)(?:\[([^\]]*)\])?\}`)

var chunkMarkerPattern = regexp.MustCompile(`@([A-Za-z_][A-Za-z0-9_]*)`)

// FindPlaceholders scans template for every `{Name}` / `{Name[selector]}`
// occurrence, in left-to-right order. Each selector is parsed with
// ParseSelector; the first malformed selector makes it return an error
// naming the offending token.
func FindPlaceholders(template string) ([]Occurrence, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(template, -1)
	out := make([]Occurrence, 0, len(matches))
	for _, m := range matches {
		name := template[m[2]:m[3]]
		occ := Occurrence{
			Name:  name,
			Start: m[0],
			End:   m[1],
			Raw:   template[m[0]:m[1]],
		}
		if m[4] >= 0 {
			selRaw := template[m[4]:m[5]]
			sel, err := ParseSelector(selRaw)
			if err != nil {
				return nil, &placeholderSyntaxWrap{token: occ.Raw, err: err}
			}
			occ.Selector = sel
		}
		out = append(out, occ)
	}
	return out, nil
}

type placeholderSyntaxWrap struct {
	token string
	err   error
}

func (e *placeholderSyntaxWrap) Error() string { return e.err.Error() }
func (e *placeholderSyntaxWrap) Unwrap() error { return e.err }

// FindChunkMarkers scans template for every `@ChunkName` marker, in
// left-to-right order, returning the chunk names referenced.
func FindChunkMarkers(template string) []string {
	matches := chunkMarkerPattern.FindAllStringSubmatch(template, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// ChunkOccurrence is one `@ChunkName` marker found in a template string,
// with its byte offsets so callers can splice in the chunk's body.
type ChunkOccurrence struct {
	Name  string
	Start int
	End   int
	Raw   string
}

// FindChunkMarkerOccurrences is FindChunkMarkers with byte-offset
// information attached, for in-place splicing during chunk injection.
func FindChunkMarkerOccurrences(template string) []ChunkOccurrence {
	matches := chunkMarkerPattern.FindAllStringSubmatchIndex(template, -1)
	out := make([]ChunkOccurrence, 0, len(matches))
	for _, m := range matches {
		out = append(out, ChunkOccurrence{
			Name:  template[m[2]:m[3]],
			Start: m[0],
			End:   m[1],
			Raw:   template[m[0]:m[1]],
		})
	}
	return out
}

// ParseSelector parses the text between `[` and `]` in a placeholder
// occurrence into one of the five selector forms. An empty string is not a
// valid call here; callers only invoke this when a `[...]` suffix was
// present (see SelectorNone for "absent").
func ParseSelector(s string) (*Selector, error) {
	trimmed := strings.TrimSpace(s)
	switch {
	case isAllDigits(trimmed):
		n, err := strconv.Atoi(trimmed)
		if err != nil || n < 0 {
			return nil, badSelectorSyntax(s, "expected a non-negative integer")
		}
		return &Selector{Kind: SelectorFirstN, N: n, Raw: s}, nil

	case strings.HasPrefix(trimmed, "random:"):
		rest := strings.TrimPrefix(trimmed, "random:")
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		if err != nil || n < 0 {
			return nil, badSelectorSyntax(s, "expected random:N with a non-negative integer N")
		}
		return &Selector{Kind: SelectorRandomN, N: n, Raw: s}, nil

	case strings.HasPrefix(trimmed, "#"):
		rest := trimmed[1:]
		if strings.Contains(rest, "-") && !strings.Contains(rest, ",") {
			parts := strings.SplitN(rest, "-", 2)
			if len(parts) != 2 {
				return nil, badSelectorSyntax(s, "expected #i-j")
			}
			lo, errLo := strconv.Atoi(strings.TrimSpace(parts[0]))
			hi, errHi := strconv.Atoi(strings.TrimSpace(parts[1]))
			if errLo != nil || errHi != nil {
				return nil, badSelectorSyntax(s, "expected #i-j with integer bounds")
			}
			if lo > hi {
				return nil, badSelectorSyntax(s, "range lower bound must not exceed upper bound")
			}
			return &Selector{Kind: SelectorIndexRange, RangeLo: lo, RangeHi: hi, Raw: s}, nil
		}
		fields := strings.Split(rest, ",")
		indices := make([]int, 0, len(fields))
		for _, f := range fields {
			i, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, badSelectorSyntax(s, "expected #i,j,k with integer indices")
			}
			indices = append(indices, i)
		}
		return &Selector{Kind: SelectorIndexList, Indices: indices, Raw: s}, nil

	case trimmed == "":
		return nil, badSelectorSyntax(s, "selector must not be empty")

	default:
		keys := strings.Split(trimmed, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
			if keys[i] == "" {
				return nil, badSelectorSyntax(s, "key list entries must not be empty")
			}
		}
		return &Selector{Kind: SelectorKeyList, Keys: keys, Raw: s}, nil
	}
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

type selectorSyntaxError struct {
	selector string
	reason   string
}

func (e *selectorSyntaxError) Error() string {
	return "bad selector [" + e.selector + "]: " + e.reason
}

func badSelectorSyntax(selector, reason string) error {
	return &selectorSyntaxError{selector: selector, reason: reason}
}
