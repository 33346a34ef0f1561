package sdapi

import (
	"encoding/base64"
	"os"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
)

type controlnetUnitPayload struct {
	Model         string  `json:"model"`
	Module        string  `json:"module"`
	Weight        float64 `json:"weight"`
	GuidanceStart float64 `json:"guidance_start"`
	GuidanceEnd   float64 `json:"guidance_end"`
	Image         string  `json:"image,omitempty"`
}

// controlnetArgs builds the `alwayson_scripts.controlnet.args` list (§4.9):
// one structured object per unit, with its reference image read from disk
// and base64-encoded. A unit whose image cannot be read is sent without an
// image rather than failing the whole request; ControlNet units without an
// input image are a supported (if unusual) configuration upstream.
func controlnetArgs(cfg *docmodel.ControlNetConfig) []interface{} {
	defaults := docmodel.ControlNetUnitDefaults()
	args := make([]interface{}, 0, len(cfg.Units))
	for _, u := range cfg.Units {
		payload := controlnetUnitPayload{
			Model:         u.Model,
			Module:        fillString(u.Module, defaults.Module),
			Weight:        nonZeroFloat(u.Weight, defaults.Weight),
			GuidanceStart: u.GuidanceStart,
			GuidanceEnd:   nonZeroFloat(u.GuidanceEnd, defaults.GuidanceEnd),
		}
		if u.Image != "" {
			if data, err := os.ReadFile(u.Image); err == nil {
				payload.Image = base64.StdEncoding.EncodeToString(data)
			}
		}
		args = append(args, payload)
	}
	return args
}

func fillString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
