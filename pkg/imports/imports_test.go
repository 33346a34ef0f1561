package imports

import (
	"errors"
	"reflect"
	"testing"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

type fakeLoader struct {
	vars map[string]*docmodel.VariationMap
	docs map[string]*docmodel.Document
}

func (f *fakeLoader) LoadDocument(path string) (*docmodel.Document, error) {
	d, ok := f.docs[path]
	if !ok {
		return nil, &sderrors.NotFound{Path: path}
	}
	return d, nil
}

func (f *fakeLoader) LoadVariationMap(path string) (*docmodel.VariationMap, error) {
	vm, ok := f.vars[path]
	if !ok {
		return nil, &sderrors.NotFound{Path: path}
	}
	return vm, nil
}

func TestResolveAllFileEntry(t *testing.T) {
	loader := &fakeLoader{vars: map[string]*docmodel.VariationMap{
		"/docs/pose.yaml": docmodel.NewVariationMap([]string{"standing", "sitting"}, map[string]string{
			"standing": "standing pose",
			"sitting":  "sitting pose",
		}),
	}}

	out, err := ResolveAll(loader, map[string]docmodel.ImportEntry{
		"Pose": {Kind: docmodel.ImportFile, Path: "pose.yaml"},
	}, "/docs")
	if err != nil {
		t.Fatalf("ResolveAll: unexpected error: %v", err)
	}

	vm := out["Pose"].Variation
	if vm == nil {
		t.Fatal("Pose resolved to a nil Variation")
	}
	if got, _ := vm.Get("standing"); got != "standing pose" {
		t.Fatalf("Pose[standing] = %q, want %q", got, "standing pose")
	}
}

func TestResolveAllFileListUnionsInOrder(t *testing.T) {
	loader := &fakeLoader{vars: map[string]*docmodel.VariationMap{
		"/docs/a.yaml": docmodel.NewVariationMap([]string{"x"}, map[string]string{"x": "from-a"}),
		"/docs/b.yaml": docmodel.NewVariationMap([]string{"x", "y"}, map[string]string{"x": "from-b", "y": "from-b-y"}),
	}}

	out, err := ResolveAll(loader, map[string]docmodel.ImportEntry{
		"Combined": {Kind: docmodel.ImportFileList, Paths: []string{"a.yaml", "b.yaml"}},
	}, "/docs")
	if err != nil {
		t.Fatalf("ResolveAll: unexpected error: %v", err)
	}

	vm := out["Combined"].Variation
	if got, _ := vm.Get("x"); got != "from-b" {
		t.Fatalf("Combined[x] = %q, want %q (later file list entries override earlier)", got, "from-b")
	}
	if got, _ := vm.Get("y"); got != "from-b-y" {
		t.Fatalf("Combined[y] = %q, want %q", got, "from-b-y")
	}
}

func TestResolveAllInlineString(t *testing.T) {
	out, err := ResolveAll(&fakeLoader{}, map[string]docmodel.ImportEntry{
		"Quality": {Kind: docmodel.ImportInlineString, InlineString: "masterpiece"},
	}, "/docs")
	if err != nil {
		t.Fatalf("ResolveAll: unexpected error: %v", err)
	}

	vm := out["Quality"].Variation
	if !reflect.DeepEqual(vm.Keys(), []string{"masterpiece"}) {
		t.Fatalf("Quality keys = %v, want [masterpiece]", vm.Keys())
	}
	if got, _ := vm.Get("masterpiece"); got != "masterpiece" {
		t.Fatalf("Quality[masterpiece] = %q, want %q", got, "masterpiece")
	}
}

func TestResolveAllInlineList(t *testing.T) {
	out, err := ResolveAll(&fakeLoader{}, map[string]docmodel.ImportEntry{
		"Colors": {Kind: docmodel.ImportInlineList, InlineList: []string{"red", "blue"}},
	}, "/docs")
	if err != nil {
		t.Fatalf("ResolveAll: unexpected error: %v", err)
	}

	vm := out["Colors"].Variation
	if !reflect.DeepEqual(vm.Keys(), []string{"0", "1"}) {
		t.Fatalf("Colors keys = %v, want [0 1] (index-keyed)", vm.Keys())
	}
	if got, _ := vm.Get("0"); got != "red" {
		t.Fatalf("Colors[0] = %q, want %q", got, "red")
	}
	if got, _ := vm.Get("1"); got != "blue" {
		t.Fatalf("Colors[1] = %q, want %q", got, "blue")
	}
}

func TestResolveAllADetailerSuffix(t *testing.T) {
	loader := &fakeLoader{docs: map[string]*docmodel.Document{
		"/docs/face.adetailer.yaml": {
			Kind:      docmodel.KindADetailer,
			Version:   "1.0.0",
			Detectors: []docmodel.ADetailerDetector{{}},
		},
	}}

	out, err := ResolveAll(loader, map[string]docmodel.ImportEntry{
		"Face": {Kind: docmodel.ImportFile, Path: "face.adetailer.yaml"},
	}, "/docs")
	if err != nil {
		t.Fatalf("ResolveAll: unexpected error: %v", err)
	}
	if out["Face"].ADetailer == nil {
		t.Fatal("Face resolved to a nil ADetailer config")
	}
	if len(out["Face"].ADetailer.Detectors) != 1 {
		t.Fatalf("Face.Detectors = %d entries, want 1", len(out["Face"].ADetailer.Detectors))
	}
}

func TestResolveAllControlNetSuffix(t *testing.T) {
	loader := &fakeLoader{docs: map[string]*docmodel.Document{
		"/docs/pose.controlnet.yaml": {
			Kind:    docmodel.KindControlNet,
			Version: "1.0.0",
			Units:   []docmodel.ControlNetUnit{{}},
		},
	}}

	out, err := ResolveAll(loader, map[string]docmodel.ImportEntry{
		"Net": {Kind: docmodel.ImportFile, Path: "pose.controlnet.yaml"},
	}, "/docs")
	if err != nil {
		t.Fatalf("ResolveAll: unexpected error: %v", err)
	}
	if out["Net"].ControlNet == nil {
		t.Fatal("Net resolved to a nil ControlNet config")
	}
}

func TestResolveAllChunkSuffix(t *testing.T) {
	loader := &fakeLoader{docs: map[string]*docmodel.Document{
		"/docs/intro.chunk.yaml": {Kind: docmodel.KindChunk, Name: "intro", Body: "masterpiece"},
	}}

	out, err := ResolveAll(loader, map[string]docmodel.ImportEntry{
		"Intro": {Kind: docmodel.ImportFile, Path: "intro.chunk.yaml"},
	}, "/docs")
	if err != nil {
		t.Fatalf("ResolveAll: unexpected error: %v", err)
	}
	if out["Intro"].Chunk == nil || out["Intro"].Chunk.Body != "masterpiece" {
		t.Fatalf("Intro chunk = %+v, want Body %q", out["Intro"].Chunk, "masterpiece")
	}
}

func TestResolveAllSuffixKindMismatchIsTypeMismatch(t *testing.T) {
	loader := &fakeLoader{docs: map[string]*docmodel.Document{
		"/docs/face.adetailer.yaml": {Kind: docmodel.KindChunk},
	}}

	_, err := ResolveAll(loader, map[string]docmodel.ImportEntry{
		"Face": {Kind: docmodel.ImportFile, Path: "face.adetailer.yaml"},
	}, "/docs")
	if err == nil {
		t.Fatal("ResolveAll: expected ImportTypeMismatch, got nil")
	}
	var mismatch *sderrors.ImportTypeMismatch
	if !errors.As(err, &mismatch) {
		t.Fatalf("ResolveAll: error = %v, want *sderrors.ImportTypeMismatch", err)
	}
}

func TestResolveAllMissingFileIsImportNotFound(t *testing.T) {
	_, err := ResolveAll(&fakeLoader{}, map[string]docmodel.ImportEntry{
		"Pose": {Kind: docmodel.ImportFile, Path: "missing.yaml"},
	}, "/docs")
	if err == nil {
		t.Fatal("ResolveAll: expected ImportNotFound, got nil")
	}
	var notFound *sderrors.ImportNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("ResolveAll: error = %v, want *sderrors.ImportNotFound", err)
	}
}
