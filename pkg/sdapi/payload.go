package sdapi

import "gitlab.com/tinyland/lab/sdgen/pkg/docmodel"

// BuildRequest assembles the synthesis API's wire payload (§6) from a
// resolved prompt's parameter snapshot. params is the document's effective
// parameters map; recognized scalar keys are lifted onto named fields, and
// "adetailer"/"controlnet" extension configs (if present) are serialized
// into alwayson_scripts.
func BuildRequest(prompt, negativePrompt string, seed int64, params map[string]interface{}) generateRequest {
	req := generateRequest{
		Prompt:         prompt,
		NegativePrompt: negativePrompt,
		Seed:           seed,
		Steps:          intParam(params, "steps"),
		CFGScale:       floatParam(params, "cfg_scale"),
		Width:          intParam(params, "width"),
		Height:         intParam(params, "height"),
		SamplerName:    stringParam(params, "sampler_name"),
		Scheduler:      stringParam(params, "scheduler"),
	}

	scripts := make(map[string]interface{})
	if cfg, ok := params["adetailer"].(*docmodel.ADetailerConfig); ok && cfg != nil {
		scripts["ADetailer"] = map[string]interface{}{"args": adetailerArgs(cfg)}
	}
	if cfg, ok := params["controlnet"].(*docmodel.ControlNetConfig); ok && cfg != nil {
		scripts["controlnet"] = map[string]interface{}{"args": controlnetArgs(cfg)}
	}
	if len(scripts) > 0 {
		req.AlwaysOnScripts = scripts
	}

	return req
}

func intParam(params map[string]interface{}, key string) int {
	switch v := params[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func floatParam(params map[string]interface{}, key string) float64 {
	switch v := params[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func stringParam(params map[string]interface{}, key string) string {
	s, _ := params[key].(string)
	return s
}
