package inherit

import (
	"log/slog"
	"testing"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

type fakeLoader struct {
	docs map[string]*docmodel.Document
}

func (f *fakeLoader) LoadDocument(path string) (*docmodel.Document, error) {
	d, ok := f.docs[path]
	if !ok {
		return nil, &sderrors.NotFound{Path: path}
	}
	return d, nil
}

func TestResolveSingleLevel(t *testing.T) {
	template := "masterpiece, {prompt}, best quality"
	parent := &docmodel.Document{
		SourcePath: "/docs/template.yaml",
		Body:       template,
		IsPrompt:   false,
	}
	loader := &fakeLoader{docs: map[string]*docmodel.Document{
		"/docs/template.yaml": parent,
	}}

	leaf := &docmodel.Document{
		SourcePath: "/docs/leaf.yaml",
		Implements: "template.yaml",
		Body:       "1girl, smiling",
		IsPrompt:   true,
	}

	merged, err := Resolve(loader, leaf, slog.Default())
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}
	want := "masterpiece, 1girl, smiling, best quality"
	if merged.Body != want {
		t.Fatalf("merged.Body = %q, want %q", merged.Body, want)
	}
}

func TestResolveReplaceWithoutMarker(t *testing.T) {
	parent := &docmodel.Document{
		SourcePath: "/docs/template.yaml",
		Body:       "masterpiece, best quality",
	}
	loader := &fakeLoader{docs: map[string]*docmodel.Document{
		"/docs/template.yaml": parent,
	}}

	leaf := &docmodel.Document{
		SourcePath: "/docs/leaf.yaml",
		Implements: "template.yaml",
		Body:       "1girl, smiling",
		IsPrompt:   true,
	}

	merged, err := Resolve(loader, leaf, slog.Default())
	if err != nil {
		t.Fatalf("Resolve: unexpected error: %v", err)
	}
	if merged.Body != "1girl, smiling" {
		t.Fatalf("merged.Body = %q, want child body verbatim", merged.Body)
	}
}

func TestResolveCycleDetected(t *testing.T) {
	a := &docmodel.Document{SourcePath: "/docs/a.yaml", Implements: "b.yaml"}
	b := &docmodel.Document{SourcePath: "/docs/b.yaml", Implements: "a.yaml"}
	loader := &fakeLoader{docs: map[string]*docmodel.Document{
		"/docs/a.yaml": a,
		"/docs/b.yaml": b,
	}}

	_, err := Resolve(loader, a, slog.Default())
	if err == nil {
		t.Fatal("Resolve: expected cycle error, got nil")
	}
	var cycleErr *sderrors.CycleDetected
	if !asCycle(err, &cycleErr) {
		t.Fatalf("Resolve: expected *sderrors.CycleDetected, got %T: %v", err, err)
	}
}

func asCycle(err error, target **sderrors.CycleDetected) bool {
	if c, ok := err.(*sderrors.CycleDetected); ok {
		*target = c
		return true
	}
	return false
}

func TestResolveDepthExceeded(t *testing.T) {
	docs := map[string]*docmodel.Document{}
	prevPath := ""
	for i := 0; i < MaxDepth+3; i++ {
		path := "/docs/doc" + string(rune('a'+i)) + ".yaml"
		d := &docmodel.Document{SourcePath: path, Body: "x"}
		if prevPath != "" {
			docs[prevPath].Implements = path
		}
		docs[path] = d
		prevPath = path
	}
	loader := &fakeLoader{docs: docs}

	leaf := docs["/docs/doca.yaml"]
	_, err := Resolve(loader, leaf, slog.Default())
	if err == nil {
		t.Fatal("Resolve: expected depth-exceeded error, got nil")
	}
	if _, ok := err.(*sderrors.MaxInheritanceDepthExceeded); !ok {
		t.Fatalf("Resolve: expected *sderrors.MaxInheritanceDepthExceeded, got %T", err)
	}
}
