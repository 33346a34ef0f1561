// Package sdyaml implements the Loader & Parser (spec §4.1): it reads a
// YAML file from disk, classifies its document Kind, and decodes it into
// the shared docmodel types. It is pure with respect to file content: no
// implicit path resolution happens here beyond the path the caller passes
// in (callers resolve relative imports themselves, see pkg/imports).
package sdyaml

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/singleflight"
	"gopkg.in/yaml.v3"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// Loader reads and caches parsed YAML documents. A single Loader should be
// shared by one resolution run so that a prompt document and its imports
// graph read each file from disk exactly once, even when multiple import
// entries reference the same path.
type Loader struct {
	group singleflight.Group

	mu    sync.Mutex
	docs  map[string]*docmodel.Document
	vars  map[string]*docmodel.VariationMap
	theme map[string]*docmodel.ThemeDocument
}

// NewLoader returns a Loader with an empty cache.
func NewLoader() *Loader {
	return &Loader{
		docs:  make(map[string]*docmodel.Document),
		vars:  make(map[string]*docmodel.VariationMap),
		theme: make(map[string]*docmodel.ThemeDocument),
	}
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &sderrors.NotFound{Path: path}
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// LoadDocument reads a prompt/template/chunk/ADetailer/ControlNet document
// at path and classifies it. The returned Document's Kind field tells the
// caller which variant was decoded.
func (l *Loader) LoadDocument(path string) (*docmodel.Document, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path for %s: %w", path, err)
	}

	l.mu.Lock()
	if d, ok := l.docs[abs]; ok {
		l.mu.Unlock()
		return d, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do("doc:"+abs, func() (interface{}, error) {
		data, err := readFile(abs)
		if err != nil {
			return nil, err
		}
		kind, err := classifyKind(abs, data)
		if err != nil {
			return nil, err
		}
		doc := &docmodel.Document{}
		if err := yaml.Unmarshal(data, doc); err != nil {
			return nil, &sderrors.MalformedSource{Path: abs, Err: err}
		}
		doc.Kind = kind
		doc.SourcePath = abs
		switch {
		case doc.Template != nil:
			doc.Body = *doc.Template
			doc.IsPrompt = false
		case doc.Prompt != nil:
			doc.Body = *doc.Prompt
			doc.IsPrompt = true
		}

		l.mu.Lock()
		l.docs[abs] = doc
		l.mu.Unlock()
		return doc, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*docmodel.Document), nil
}

// LoadVariationMap reads a flat string-to-string mapping file at path.
func (l *Loader) LoadVariationMap(path string) (*docmodel.VariationMap, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path for %s: %w", path, err)
	}

	l.mu.Lock()
	if vm, ok := l.vars[abs]; ok {
		l.mu.Unlock()
		return vm, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do("var:"+abs, func() (interface{}, error) {
		data, err := readFile(abs)
		if err != nil {
			return nil, err
		}
		vm := &docmodel.VariationMap{}
		if err := yaml.Unmarshal(data, vm); err != nil {
			return nil, &sderrors.MalformedSource{Path: abs, Err: err}
		}
		l.mu.Lock()
		l.vars[abs] = vm
		l.mu.Unlock()
		return vm, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*docmodel.VariationMap), nil
}

// LoadTheme reads a theme.yaml file at path.
func (l *Loader) LoadTheme(path string) (*docmodel.ThemeDocument, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path for %s: %w", path, err)
	}

	l.mu.Lock()
	if t, ok := l.theme[abs]; ok {
		l.mu.Unlock()
		return t, nil
	}
	l.mu.Unlock()

	v, err, _ := l.group.Do("theme:"+abs, func() (interface{}, error) {
		data, err := readFile(abs)
		if err != nil {
			return nil, err
		}
		t := &docmodel.ThemeDocument{}
		if err := yaml.Unmarshal(data, t); err != nil {
			return nil, &sderrors.MalformedSource{Path: abs, Err: err}
		}
		l.mu.Lock()
		l.theme[abs] = t
		l.mu.Unlock()
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*docmodel.ThemeDocument), nil
}
