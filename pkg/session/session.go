// Package session implements the Session Manager & Image Writer (spec
// §4.11): session directory naming and creation, and atomic per-image PNG
// writes. Adapted from the teacher's waifu session/cache idiom: a
// timestamp-prefixed directory name and write-to-temp-then-rename for
// every file this package produces.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode"

	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// Manager owns one session's output directory.
type Manager struct {
	dir  string
	name string
}

// ResolveName picks the session's human-chosen label by priority: CLI
// override > output.session-name in the document > document name >
// document filename stem (§3).
func ResolveName(cliOverride, outputSessionName, docName, filenameStem string) string {
	switch {
	case cliOverride != "":
		return cliOverride
	case outputSessionName != "":
		return outputSessionName
	case docName != "":
		return docName
	default:
		return filenameStem
	}
}

// New creates the session directory `<outputDir>/YYYYMMDD_HHMMSS_<name>/`
// (and its parents) and returns a Manager scoped to it.
func New(outputDir, name string, now time.Time) (*Manager, error) {
	dirName := fmt.Sprintf("%s_%s", now.Format("20060102_150405"), sanitizeDirName(name))
	dir := filepath.Join(outputDir, dirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &sderrors.WriteFailure{Path: dir, Err: err}
	}
	return &Manager{dir: dir, name: name}, nil
}

// Dir returns the session's absolute output directory.
func (m *Manager) Dir() string { return m.dir }

// ManifestPath returns the path to this session's manifest.json.
func (m *Manager) ManifestPath() string { return filepath.Join(m.dir, "manifest.json") }

var nonDirChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

func sanitizeDirName(name string) string {
	return nonDirChars.ReplaceAllString(name, "_")
}

// Filename builds the on-disk name for the index-th image (0-based). With
// no filenameKeys it is `<prefix>_<4-digit index>.png`; with filenameKeys
// set it is `<index>_<key1>-<val1>_<key2>-<val2>.png`, one segment per key
// present in applied, values camelCase-sanitized.
func Filename(prefix string, index int, filenameKeys []string, applied map[string]string) string {
	if len(filenameKeys) == 0 {
		return fmt.Sprintf("%s_%04d.png", prefix, index)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d", index)
	for _, key := range filenameKeys {
		val, ok := applied[key]
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "_%s-%s", key, camelCaseSanitize(val))
	}
	b.WriteString(".png")
	return b.String()
}

// camelCaseSanitize strips spaces/underscores/hyphens and non-alphanumeric
// characters, lowercases the first letter, and capitalizes the first
// letter of every subsequent word (§6).
func camelCaseSanitize(s string) string {
	words := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == '_' || r == '-' || (!unicode.IsLetter(r) && !unicode.IsDigit(r))
	})

	var b strings.Builder
	for i, w := range words {
		if w == "" {
			continue
		}
		runes := []rune(w)
		if i == 0 {
			runes[0] = unicode.ToLower(runes[0])
		} else {
			runes[0] = unicode.ToUpper(runes[0])
		}
		b.WriteString(string(runes))
	}
	return b.String()
}

// WriteImage writes data to `<dir>/<filename>` atomically via a sibling
// temp file and rename, matching the teacher's cache write idiom.
func (m *Manager) WriteImage(filename string, data []byte) error {
	target := filepath.Join(m.dir, filename)

	tmp, err := os.CreateTemp(m.dir, ".image-*.tmp")
	if err != nil {
		return &sderrors.WriteFailure{Path: target, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &sderrors.WriteFailure{Path: target, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &sderrors.WriteFailure{Path: target, Err: err}
	}
	if err := os.Rename(tmpName, target); err != nil {
		os.Remove(tmpName)
		return &sderrors.WriteFailure{Path: target, Err: err}
	}
	return nil
}
