package docmodel

import "gopkg.in/yaml.v3"

// ADetailerDetector is one entry in an ADetailer config's detector list.
// Field names and defaults mirror the ADetailer extension's own argument
// schema; a field a YAML document omits takes its value from
// ADetailerDetectorDefaults.
type ADetailerDetector struct {
	Model              string  `yaml:"model"`
	Prompt             string  `yaml:"prompt"`
	NegativePrompt     string  `yaml:"negative_prompt"`
	Confidence         float64 `yaml:"confidence"`
	MaskBlur           int     `yaml:"mask_blur"`
	DenoisingStrength  float64 `yaml:"denoising_strength"`
	InpaintOnlyMasked  bool    `yaml:"inpaint_only_masked"`
	InpaintPadding     int     `yaml:"inpaint_padding"`
	UseSeparateSteps   bool    `yaml:"use_separate_steps"`
	Steps              int     `yaml:"steps"`
	UseSeparateCFG     bool    `yaml:"use_separate_cfg"`
	CFGScale           float64 `yaml:"cfg_scale"`
	UseSeparateSampler bool    `yaml:"use_separate_sampler"`
	Sampler            string  `yaml:"sampler"`
}

// UnmarshalYAML decodes the YAML-provided fields onto a copy of
// ADetailerDetectorDefaults.
func (d *ADetailerDetector) UnmarshalYAML(node *yaml.Node) error {
	type plain ADetailerDetector
	p := plain(ADetailerDetectorDefaults())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*d = ADetailerDetector(p)
	return nil
}

// ADetailerDetectorDefaults returns a detector populated with the
// documented defaults; UnmarshalYAML overlays YAML-provided fields onto a
// copy.
func ADetailerDetectorDefaults() ADetailerDetector {
	return ADetailerDetector{
		Model:             "face_yolov8n.pt",
		Confidence:        0.3,
		MaskBlur:          4,
		DenoisingStrength: 0.4,
		InpaintOnlyMasked: true,
		InpaintPadding:    32,
		Steps:             28,
		CFGScale:          7.0,
		Sampler:           "Euler a",
	}
}

// ADetailerConfig is an ordered list of detectors, loaded from a
// `.adetailer.yaml` import.
type ADetailerConfig struct {
	Version   string              `yaml:"version"`
	Detectors []ADetailerDetector `yaml:"detectors"`
}

// ControlNetUnit is one control unit in a ControlNet config.
type ControlNetUnit struct {
	Model         string  `yaml:"model"`
	Module        string  `yaml:"module"`
	Weight        float64 `yaml:"weight"`
	GuidanceStart float64 `yaml:"guidance_start"`
	GuidanceEnd   float64 `yaml:"guidance_end"`
	Image         string  `yaml:"image"`
}

// ControlNetUnitDefaults returns a unit populated with the documented
// defaults.
func ControlNetUnitDefaults() ControlNetUnit {
	return ControlNetUnit{
		Module:        "none",
		Weight:        1.0,
		GuidanceStart: 0.0,
		GuidanceEnd:   1.0,
	}
}

// ControlNetConfig is an ordered list of control units, loaded from a
// `.controlnet.yaml` import.
type ControlNetConfig struct {
	Version string           `yaml:"version"`
	Units   []ControlNetUnit `yaml:"units"`
}
