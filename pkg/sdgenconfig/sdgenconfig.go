// Package sdgenconfig loads the global configuration file
// (sdgen_config.json): the three paths the rest of the module treats as
// given from outside — configs_dir, output_dir, api_url. Adapted from the
// teacher's pkg/config search-path idiom, with JSON in place of TOML and
// SDGEN_-prefixed env var overrides in place of the teacher's bespoke
// per-field ones.
package sdgenconfig

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// Config holds the three documented global configuration keys.
type Config struct {
	ConfigsDir string `json:"configs_dir"`
	OutputDir  string `json:"output_dir"`
	APIURL     string `json:"api_url"`
}

// DefaultConfig returns the configuration used when no config file is
// found and no environment overrides are set.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ConfigsDir: filepath.Join(home, "sdgen", "configs"),
		OutputDir:  filepath.Join(home, "sdgen", "output"),
		APIURL:     "http://127.0.0.1:7860",
	}
}

// Load reads sdgen_config.json from the standard search path:
//  1. $XDG_CONFIG_HOME/sdgen/sdgen_config.json
//  2. ~/.config/sdgen/sdgen_config.json
//
// If no file exists, starts from DefaultConfig(). Either way, SDGEN_*
// environment variables are applied last and always win.
func Load() (*Config, error) {
	for _, p := range configSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return LoadFromFile(p)
		}
	}
	cfg := DefaultConfig()
	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := DefaultConfig()
			applyEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}
	defer f.Close()
	return LoadFromReader(f)
}

// LoadFromReader reads configuration from an io.Reader, starting from
// DefaultConfig() so a partial file only overrides the keys it names.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()
	if err := json.NewDecoder(r).Decode(cfg); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SDGEN_CONFIGS_DIR"); v != "" {
		cfg.ConfigsDir = v
	}
	if v := os.Getenv("SDGEN_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("SDGEN_API_URL"); v != "" {
		cfg.APIURL = v
	}
}

func configSearchPaths() []string {
	home, _ := os.UserHomeDir()
	var paths []string

	xdg := xdgConfigHome(home)
	paths = append(paths, filepath.Join(xdg, "sdgen", "sdgen_config.json"))

	defaultXDG := filepath.Join(home, ".config")
	if xdg != defaultXDG {
		paths = append(paths, filepath.Join(defaultXDG, "sdgen", "sdgen_config.json"))
	}

	return paths
}

func xdgConfigHome(home string) string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	return filepath.Join(home, ".config")
}
