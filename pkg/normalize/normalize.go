// Package normalize implements the Normalizer (spec §4.8): a string-level
// post-processor applied once per resolved prompt and once per negative
// prompt, run after generation and before submission to the synthesis API.
package normalize

import (
	"regexp"
	"strings"
)

var commaWhitespaceRun = regexp.MustCompile(`[,\s]*,[,\s]*`)

// Apply trims each line, drops empty lines, joins the remaining lines with
// a single space, replaces every run of commas and whitespace that contains
// a comma with ", ", and removes a trailing comma from the result. Applying
// it twice yields the same result.
func Apply(s string) string {
	lines := strings.Split(s, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		kept = append(kept, line)
	}
	joined := strings.Join(kept, " ")

	joined = commaWhitespaceRun.ReplaceAllString(joined, ", ")
	joined = strings.TrimSpace(joined)
	joined = strings.TrimSuffix(joined, ",")
	joined = strings.TrimSpace(joined)
	return joined
}
