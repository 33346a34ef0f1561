package sdgenconfig

import (
	"strings"
	"testing"
)

func TestLoadFromReaderAppliesDefaults(t *testing.T) {
	cfg, err := LoadFromReader(strings.NewReader(`{"api_url": "http://example.test"}`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.APIURL != "http://example.test" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.ConfigsDir == "" || cfg.OutputDir == "" {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadFromReaderEnvOverridesWin(t *testing.T) {
	t.Setenv("SDGEN_API_URL", "http://override.test")
	cfg, err := LoadFromReader(strings.NewReader(`{"api_url": "http://example.test"}`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.APIURL != "http://override.test" {
		t.Fatalf("APIURL = %q, want env override to win", cfg.APIURL)
	}
}

func TestLoadFromReaderMalformed(t *testing.T) {
	if _, err := LoadFromReader(strings.NewReader(`not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestLoadFromFileMissingFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadFromFile(dir + "/does-not-exist.json")
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.APIURL != DefaultConfig().APIURL {
		t.Fatalf("APIURL = %q, want default", cfg.APIURL)
	}
}
