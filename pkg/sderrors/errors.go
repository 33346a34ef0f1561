// Package sderrors defines the structured error taxonomy used across every
// stage of the resolution pipeline and the batch executor. Each error kind
// is a distinct type so callers can use errors.As to recover the offending
// field, placeholder, or path rather than parsing a message string.
package sderrors

import "fmt"

// --- Source errors (Loader & Parser) ---

// NotFound reports a missing file referenced by path (directly, via
// `implements`, or via an import entry).
type NotFound struct {
	Path string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("not found: %s", e.Path)
}

// MalformedSource reports a YAML document that failed to parse.
type MalformedSource struct {
	Path string
	Err  error
}

func (e *MalformedSource) Error() string {
	return fmt.Sprintf("malformed source %s: %v", e.Path, e.Err)
}

func (e *MalformedSource) Unwrap() error { return e.Err }

// BadKind reports a document whose classified kind does not match what the
// caller expected (e.g. a YAML document that is not a mapping, or a mapping
// that matches none of the recognized document shapes).
type BadKind struct {
	Path     string
	Expected string
	Got      string
}

func (e *BadKind) Error() string {
	return fmt.Sprintf("bad document kind at %s: expected %s, got %s", e.Path, e.Expected, e.Got)
}

// --- Structural errors (Validator) ---

// ValidationError is the structured record every Validator failure produces.
type ValidationError struct {
	Field      string
	Reason     string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Suggestion != "" {
		return fmt.Sprintf("validation: field %q: %s (%s)", e.Field, e.Reason, e.Suggestion)
	}
	return fmt.Sprintf("validation: field %q: %s", e.Field, e.Reason)
}

// MissingField is a convenience constructor for a required-field violation.
func MissingField(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "required field is missing"}
}

// BadEnum is a convenience constructor for an enum-membership violation.
func BadEnum(field, got string, allowed []string) *ValidationError {
	return &ValidationError{
		Field:      field,
		Reason:     fmt.Sprintf("value %q is not one of %v", got, allowed),
		Suggestion: fmt.Sprintf("use one of %v", allowed),
	}
}

// BadPlaceholderSyntax reports a malformed `{Name}` / `{Name[selector]}` token.
type BadPlaceholderSyntax struct {
	Token  string
	Reason string
}

func (e *BadPlaceholderSyntax) Error() string {
	return fmt.Sprintf("bad placeholder syntax %q: %s", e.Token, e.Reason)
}

// ReservedPlaceholderInChunk reports a chunk template body that uses one of
// the cross-document placeholders `{prompt}`/`{negprompt}`, which are
// reserved for inheritance merging.
type ReservedPlaceholderInChunk struct {
	ChunkName   string
	Placeholder string
}

func (e *ReservedPlaceholderInChunk) Error() string {
	return fmt.Sprintf("chunk %q uses reserved placeholder {%s}", e.ChunkName, e.Placeholder)
}

// --- Resolution errors ---

// CycleDetected reports an `implements` chain that revisits a document.
type CycleDetected struct {
	Chain []string
}

func (e *CycleDetected) Error() string {
	return fmt.Sprintf("cycle detected in implements chain: %v", e.Chain)
}

// MaxInheritanceDepthExceeded reports a chain longer than the configured
// maximum depth (bounds recursion; see DESIGN.md).
type MaxInheritanceDepthExceeded struct {
	Path  string
	Depth int
	Max   int
}

func (e *MaxInheritanceDepthExceeded) Error() string {
	return fmt.Sprintf("implements chain at %s exceeds max depth %d (depth %d)", e.Path, e.Max, e.Depth)
}

// ImportNotFound reports an import entry whose target file cannot be read.
type ImportNotFound struct {
	Name string
	Path string
}

func (e *ImportNotFound) Error() string {
	return fmt.Sprintf("import %q: file not found: %s", e.Name, e.Path)
}

// ImportTypeMismatch reports an import entry resolving to a document kind
// the caller did not expect (e.g. a chunk path yielding a variation map).
type ImportTypeMismatch struct {
	Name     string
	Path     string
	Expected string
	Got      string
}

func (e *ImportTypeMismatch) Error() string {
	return fmt.Sprintf("import %q at %s: expected %s, got %s", e.Name, e.Path, e.Expected, e.Got)
}

// ThemeNotFound reports a requested theme name absent from the available
// themes map (explicit entries plus autodiscovery).
type ThemeNotFound struct {
	Name      string
	Available []string
}

func (e *ThemeNotFound) Error() string {
	return fmt.Sprintf("theme %q not found; available: %v", e.Name, e.Available)
}

// UnresolvedPlaceholder reports a `{Name}` occurrence in the final template
// with no matching entry in the resolved variation context.
type UnresolvedPlaceholder struct {
	Name      string
	DidYouMean string
}

func (e *UnresolvedPlaceholder) Error() string {
	if e.DidYouMean != "" {
		return fmt.Sprintf("unresolved placeholder %q; did you mean %q?", e.Name, e.DidYouMean)
	}
	return fmt.Sprintf("unresolved placeholder %q", e.Name)
}

// UnresolvedChunk reports an `@ChunkName` marker with no matching chunk.
type UnresolvedChunk struct {
	Name string
}

func (e *UnresolvedChunk) Error() string {
	return fmt.Sprintf("unresolved chunk %q", e.Name)
}

// SelectorOutOfRange reports an index selector (`[#i,j]` or `[#i-j]`) whose
// index falls outside the placeholder's variation space.
type SelectorOutOfRange struct {
	Placeholder string
	Index       int
	Size        int
}

func (e *SelectorOutOfRange) Error() string {
	return fmt.Sprintf("selector on {%s}: index %d out of range (size %d)", e.Placeholder, e.Index, e.Size)
}

// SelectorUnknownKey reports a key-list selector (`[k1,k2]`) naming a key
// absent from the placeholder's variation map.
type SelectorUnknownKey struct {
	Placeholder string
	Key         string
}

func (e *SelectorUnknownKey) Error() string {
	return fmt.Sprintf("selector on {%s}: unknown key %q", e.Placeholder, e.Key)
}

// --- Runtime errors (API Client / Batch Executor) ---

// Transport reports a network-layer failure reaching the synthesis backend.
type Transport struct {
	Op  string
	Err error
}

func (e *Transport) Error() string {
	return fmt.Sprintf("transport error during %s: %v", e.Op, e.Err)
}

func (e *Transport) Unwrap() error { return e.Err }

// BadResponse reports a response the client could not decode.
type BadResponse struct {
	Op  string
	Err error
}

func (e *BadResponse) Error() string {
	return fmt.Sprintf("bad response during %s: %v", e.Op, e.Err)
}

func (e *BadResponse) Unwrap() error { return e.Err }

// BackendError reports a well-formed error response from the synthesis
// backend (non-2xx HTTP status with a body).
type BackendError struct {
	Code int
	Body string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error %d: %s", e.Code, e.Body)
}

// WriteFailure reports a filesystem write failure (image or session dir).
type WriteFailure struct {
	Path string
	Err  error
}

func (e *WriteFailure) Error() string {
	return fmt.Sprintf("write failure at %s: %v", e.Path, e.Err)
}

func (e *WriteFailure) Unwrap() error { return e.Err }

// ManifestWriteFailure reports a failed manifest rewrite. This is a hard
// error: the executor aborts because the session ceases to be reproducible.
type ManifestWriteFailure struct {
	Path string
	Err  error
}

func (e *ManifestWriteFailure) Error() string {
	return fmt.Sprintf("manifest write failure at %s: %v", e.Path, e.Err)
}

func (e *ManifestWriteFailure) Unwrap() error { return e.Err }
