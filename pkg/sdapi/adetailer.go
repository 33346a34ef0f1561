package sdapi

import "gitlab.com/tinyland/lab/sdgen/pkg/docmodel"

// adetailerArgsPerDetector is the flat positional width reserved per
// detector in the ADetailer extension's argument vector. Our detector
// record only carries the fields that matter for this orchestrator; the
// remainder of the vector is padded with false so the backend receives a
// vector of the width it expects.
const adetailerArgsPerDetector = 72

// adetailerArgs builds the `alwayson_scripts.ADetailer.args` positional
// vector (§4.9): `[true, false, <args for detector 1>, <args for detector
// 2>?, …]`. The leading booleans are the extension's own enable/skip-img2img
// toggles.
func adetailerArgs(cfg *docmodel.ADetailerConfig) []interface{} {
	args := []interface{}{true, false}
	for _, d := range cfg.Detectors {
		args = append(args, detectorArgs(d)...)
	}
	return args
}

func detectorArgs(d docmodel.ADetailerDetector) []interface{} {
	defaults := docmodel.ADetailerDetectorDefaults()
	fill := func(s string, def string) string {
		if s == "" {
			return def
		}
		return s
	}

	out := make([]interface{}, 0, adetailerArgsPerDetector)
	out = append(out,
		fill(d.Model, defaults.Model),
		d.Prompt,
		d.NegativePrompt,
		nonZeroFloat(d.Confidence, defaults.Confidence),
		nonZeroInt(d.MaskBlur, defaults.MaskBlur),
		nonZeroFloat(d.DenoisingStrength, defaults.DenoisingStrength),
		d.InpaintOnlyMasked,
		nonZeroInt(d.InpaintPadding, defaults.InpaintPadding),
		d.UseSeparateSteps,
		nonZeroInt(d.Steps, defaults.Steps),
		d.UseSeparateCFG,
		nonZeroFloat(d.CFGScale, defaults.CFGScale),
		d.UseSeparateSampler,
		fill(d.Sampler, defaults.Sampler),
	)
	for len(out) < adetailerArgsPerDetector {
		out = append(out, false)
	}
	return out[:adetailerArgsPerDetector]
}

func nonZeroFloat(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
