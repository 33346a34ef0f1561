package sdyaml

import (
	"errors"
	"testing"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

func TestClassifyKind(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want docmodel.Kind
	}{
		{
			name: "prompt by prompt key",
			yaml: "version: \"1.0.0\"\nname: leaf\nprompt: \"1girl\"\n",
			want: docmodel.KindPrompt,
		},
		{
			name: "template by template key",
			yaml: "version: \"1.0.0\"\nname: leaf\ntemplate: \"masterpiece, {prompt}\"\n",
			want: docmodel.KindTemplate,
		},
		{
			name: "chunk by explicit type tag",
			yaml: "version: \"1.0.0\"\nname: intro\ntype: chunk\ntemplate: \"masterpiece\"\n",
			want: docmodel.KindChunk,
		},
		{
			name: "adetailer by type tag",
			yaml: "version: \"1.0.0\"\ntype: adetailer_config\ndetectors: []\n",
			want: docmodel.KindADetailer,
		},
		{
			name: "controlnet by type tag",
			yaml: "version: \"1.0.0\"\ntype: controlnet_config\nunits: []\n",
			want: docmodel.KindControlNet,
		},
		{
			name: "theme by type tag",
			yaml: "version: \"1.0.0\"\ntype: theme\nimports: {}\n",
			want: docmodel.KindTheme,
		},
		{
			name: "flat scalar mapping is a variation map",
			yaml: "cat: cat\ndog: dog\n",
			want: docmodel.KindVariation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := classifyKind("/docs/doc.yaml", []byte(tt.yaml))
			if err != nil {
				t.Fatalf("classifyKind: unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("classifyKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClassifyKindUnrecognizedShape(t *testing.T) {
	_, err := classifyKind("/docs/doc.yaml", []byte("version: \"1.0.0\"\nname: leaf\n"))
	if err == nil {
		t.Fatal("classifyKind: expected BadKind for a document with no prompt/template, got nil")
	}
	var badKind *sderrors.BadKind
	if !errors.As(err, &badKind) {
		t.Fatalf("classifyKind: error = %v, want *sderrors.BadKind", err)
	}
}

func TestClassifyKindMalformedYAML(t *testing.T) {
	_, err := classifyKind("/docs/doc.yaml", []byte("foo: [1, 2\n"))
	if err == nil {
		t.Fatal("classifyKind: expected MalformedSource for invalid YAML, got nil")
	}
	var malformed *sderrors.MalformedSource
	if !errors.As(err, &malformed) {
		t.Fatalf("classifyKind: error = %v, want *sderrors.MalformedSource", err)
	}
}

func TestClassifyKindNonMappingDocument(t *testing.T) {
	_, err := classifyKind("/docs/doc.yaml", []byte("- a\n- b\n"))
	if err == nil {
		t.Fatal("classifyKind: expected BadKind for a non-mapping document, got nil")
	}
	var badKind *sderrors.BadKind
	if !errors.As(err, &badKind) {
		t.Fatalf("classifyKind: error = %v, want *sderrors.BadKind", err)
	}
}
