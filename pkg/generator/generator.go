// Package generator implements the Prompt Generator (spec §4.7): given a
// resolved context (per-placeholder restricted variation spaces, computed
// once by the Template Resolver) it enumerates combinatorial or random
// combinations, assigns seeds, and substitutes each into a ResolvedPrompt.
package generator

import (
	"math/rand/v2"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/template"
)

// space is one placeholder's enumerable key list, captured once so the
// enumeration loops never re-query the VariationMap.
type space struct {
	name string
	keys []string
}

// Generate enumerates ctx per gen, substituting each combination through
// ctx's template via pkg/template. rng is the selection RNG owned by the
// caller (seeded via NewSelectionRNG from gen.BaseSeed); it is used only
// for random-mode combination sampling, never shared with any other
// package-level state.
func Generate(ctx *docmodel.ResolvedContext, gen docmodel.GenerationConfig, rng *rand.Rand) ([]docmodel.ResolvedPrompt, error) {
	spaces := make([]space, 0, len(ctx.PlaceholderOrder))
	for _, name := range ctx.PlaceholderOrder {
		vm := ctx.Variations[name]
		spaces = append(spaces, space{name: name, keys: vm.Keys()})
	}

	var combos []map[string]string
	switch gen.Mode {
	case docmodel.ModeRandom:
		combos = enumerateRandom(spaces, gen, rng)
	default:
		combos = enumerateCombinatorial(spaces, gen)
	}

	out := make([]docmodel.ResolvedPrompt, 0, len(combos))
	for i, combo := range combos {
		prompt, err := template.Substitute(ctx, combo)
		if err != nil {
			return nil, err
		}
		out = append(out, docmodel.ResolvedPrompt{
			Index:          i,
			Prompt:         prompt,
			NegativePrompt: ctx.NegativeTemplate,
			Seed:           assignSeed(gen, i),
			Applied:        combo,
			Parameters:     ctx.Parameters,
		})
	}
	return out, nil
}

func assignSeed(gen docmodel.GenerationConfig, i int) int64 {
	switch gen.SeedMode {
	case docmodel.SeedProgressive:
		return progressiveSeed(gen.BaseSeed, i)
	case docmodel.SeedRandom:
		return -1
	default:
		return gen.BaseSeed
	}
}

// enumerateCombinatorial walks the Cartesian product in declaration order:
// the last placeholder varies fastest, matching spec §8 Scenario A's
// expected ordering. An empty spaces list yields exactly one empty
// combination.
func enumerateCombinatorial(spaces []space, gen docmodel.GenerationConfig) []map[string]string {
	total := 1
	for _, s := range spaces {
		total *= len(s.keys)
	}
	if len(spaces) == 0 {
		total = 1
	}

	limit := total
	if gen.MaxImages > 0 && gen.MaxImages < total {
		limit = gen.MaxImages
	}

	out := make([]map[string]string, 0, limit)
	digits := make([]int, len(spaces))
	for i := 0; i < limit; i++ {
		out = append(out, comboFromDigits(spaces, digits))
		incrementOdometer(spaces, digits)
	}
	return out
}

// incrementOdometer advances digits by one, carrying from the rightmost
// (fastest-varying) placeholder.
func incrementOdometer(spaces []space, digits []int) {
	for j := len(spaces) - 1; j >= 0; j-- {
		digits[j]++
		if digits[j] < len(spaces[j].keys) {
			return
		}
		digits[j] = 0
	}
}

func comboFromDigits(spaces []space, digits []int) map[string]string {
	combo := make(map[string]string, len(spaces))
	for j, s := range spaces {
		if len(s.keys) == 0 {
			continue
		}
		combo[s.name] = s.keys[digits[j]]
	}
	return combo
}

// enumerateRandom implements §4.7's random-mode rules, including the
// explicit empty-space and max_images=0 boundary behaviors from §8.
func enumerateRandom(spaces []space, gen docmodel.GenerationConfig, rng *rand.Rand) []map[string]string {
	if len(spaces) == 0 {
		if gen.SeedMode == docmodel.SeedFixed {
			return []map[string]string{{}}
		}
		n := gen.MaxImages
		out := make([]map[string]string, n)
		for i := range out {
			out[i] = map[string]string{}
		}
		return out
	}

	if gen.MaxImages == 0 {
		return nil
	}

	total := 1
	for _, s := range spaces {
		total *= len(s.keys)
	}

	n := gen.MaxImages
	allowDuplicates := gen.SeedMode != docmodel.SeedFixed && n > total
	if !allowDuplicates && n > total {
		n = total // fixed mode cannot honor more distinct draws than the space holds
	}

	if allowDuplicates {
		out := make([]map[string]string, n)
		for i := range out {
			out[i] = comboFromDigits(spaces, randomDigits(spaces, rng))
		}
		return out
	}

	indices := sampleIndicesWithoutReplacement(total, n, rng)
	out := make([]map[string]string, n)
	for i, idx := range indices {
		out[i] = comboFromDigits(spaces, digitsFromIndex(spaces, idx))
	}
	return out
}

func randomDigits(spaces []space, rng *rand.Rand) []int {
	digits := make([]int, len(spaces))
	for j, s := range spaces {
		digits[j] = rng.IntN(len(s.keys))
	}
	return digits
}

func digitsFromIndex(spaces []space, idx int) []int {
	digits := make([]int, len(spaces))
	for j := len(spaces) - 1; j >= 0; j-- {
		size := len(spaces[j].keys)
		digits[j] = idx % size
		idx /= size
	}
	return digits
}

// sampleIndicesWithoutReplacement draws n distinct combination indices from
// [0, total) uniformly, via a partial Fisher-Yates shuffle over an
// explicit index pool (total is expected to be small enough for this to be
// cheap; batch sizes in this domain are bounded by max_images anyway).
func sampleIndicesWithoutReplacement(total, n int, rng *rand.Rand) []int {
	pool := make([]int, total)
	for i := range pool {
		pool[i] = i
	}
	for i := 0; i < n && i < total; i++ {
		j := i + rng.IntN(total-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}
