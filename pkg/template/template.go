// Package template implements the Template Resolver (spec §4.6): Phase A
// splices chunk bodies into the merged template in place (structural,
// one-level, non-recursive); Phase B substitutes placeholder occurrences
// per enumerated combination using the restricted variation spaces built
// once ahead of enumeration.
package template

import (
	"math/rand/v2"
	"strings"

	"gitlab.com/tinyland/lab/sdgen/pkg/docmodel"
	"gitlab.com/tinyland/lab/sdgen/pkg/sderrors"
)

// InjectChunks performs Phase A: it splices the body of every chunk
// referenced via `@ChunkName` into body, in place, exactly once (chunk
// bodies are not re-scanned for further `@` markers). It returns the
// spliced body and the union of chunk-declared defaults for placeholders
// not already present in outerDefaults (outerDefaults wins on conflict).
func InjectChunks(body string, chunks map[string]*docmodel.Document, outerDefaults map[string]string) (string, map[string]string, error) {
	occs := docmodel.FindChunkMarkerOccurrences(body)
	if len(occs) == 0 {
		return body, map[string]string{}, nil
	}

	pushed := make(map[string]string)
	var b strings.Builder
	last := 0
	for _, occ := range occs {
		chunk, ok := chunks[occ.Name]
		if !ok {
			return "", nil, &sderrors.UnresolvedChunk{Name: occ.Name}
		}
		b.WriteString(body[last:occ.Start])
		b.WriteString(chunk.Body)
		last = occ.End

		for k, v := range chunk.Defaults {
			if _, already := outerDefaults[k]; already {
				continue
			}
			if _, already := pushed[k]; !already {
				pushed[k] = v
			}
		}
	}
	b.WriteString(body[last:])
	return b.String(), pushed, nil
}

// BuildContext computes the restricted variation space for every
// placeholder occurring in injectedBody (Phase A's output), applying each
// occurrence's selector once, ahead of combination enumeration (§4.7). rng
// is used only for `[random:N]` selectors; it is owned by the Prompt
// Generator and passed down so sampling stays deterministic from the
// generator's seed.
func BuildContext(
	injectedBody string,
	negativeBody string,
	full map[string]*docmodel.VariationMap,
	chunkDefaults map[string]string,
	rng *rand.Rand,
) (*docmodel.ResolvedContext, error) {
	occs, err := docmodel.FindPlaceholders(injectedBody)
	if err != nil {
		return nil, &sderrors.BadPlaceholderSyntax{Token: injectedBody, Reason: err.Error()}
	}

	variations := make(map[string]*docmodel.VariationMap)
	order := make([]string, 0)
	selectorSeen := make(map[string]bool)

	for _, occ := range occs {
		if !selectorSeen[occ.Name] {
			order = append(order, occ.Name)
			selectorSeen[occ.Name] = true
		}
		if _, already := variations[occ.Name]; already && occ.Selector == nil {
			continue // an unselectored repeat occurrence never narrows an already-restricted space
		}

		base := full[occ.Name]
		if base == nil {
			if def, ok := chunkDefaults[occ.Name]; ok {
				base = docmodel.NewVariationMap([]string{occ.Name}, map[string]string{occ.Name: def})
			} else {
				return nil, &sderrors.UnresolvedPlaceholder{Name: occ.Name}
			}
		}

		restricted, err := applySelector(base, occ.Selector, occ.Name, rng)
		if err != nil {
			return nil, err
		}
		variations[occ.Name] = restricted
	}

	return &docmodel.ResolvedContext{
		Variations:       variations,
		PlaceholderOrder: order,
		Template:         injectedBody,
		NegativeTemplate: negativeBody,
	}, nil
}

// applySelector restricts base to the space named by sel (nil means the
// full space in declared order).
func applySelector(base *docmodel.VariationMap, sel *docmodel.Selector, placeholder string, rng *rand.Rand) (*docmodel.VariationMap, error) {
	if sel == nil {
		return base.Clone(), nil
	}

	keys := base.Keys()
	switch sel.Kind {
	case docmodel.SelectorFirstN:
		n := sel.N
		if n > len(keys) {
			n = len(keys)
		}
		return base.Restrict(keys[:n]), nil

	case docmodel.SelectorRandomN:
		n := sel.N
		if n > len(keys) {
			n = len(keys)
		}
		picked := sampleWithoutReplacement(keys, n, rng)
		return base.Restrict(picked), nil

	case docmodel.SelectorIndexList:
		picked := make([]string, 0, len(sel.Indices))
		for _, idx := range sel.Indices {
			if idx < 0 || idx >= len(keys) {
				return nil, &sderrors.SelectorOutOfRange{Placeholder: placeholder, Index: idx, Size: len(keys)}
			}
			picked = append(picked, keys[idx])
		}
		return base.Restrict(picked), nil

	case docmodel.SelectorIndexRange:
		if sel.RangeLo < 0 || sel.RangeHi >= len(keys) {
			bad := sel.RangeHi
			if sel.RangeLo < 0 {
				bad = sel.RangeLo
			}
			return nil, &sderrors.SelectorOutOfRange{Placeholder: placeholder, Index: bad, Size: len(keys)}
		}
		return base.Restrict(keys[sel.RangeLo : sel.RangeHi+1]), nil

	case docmodel.SelectorKeyList:
		known := make(map[string]bool, len(keys))
		for _, k := range keys {
			known[k] = true
		}
		for _, k := range sel.Keys {
			if !known[k] {
				return nil, &sderrors.SelectorUnknownKey{Placeholder: placeholder, Key: k}
			}
		}
		return base.Restrict(sel.Keys), nil

	default:
		return base.Clone(), nil
	}
}

// sampleWithoutReplacement draws n distinct keys uniformly using a
// Fisher-Yates partial shuffle, preserving nothing about declared order
// (selection is uniform, not ordered).
func sampleWithoutReplacement(keys []string, n int, rng *rand.Rand) []string {
	pool := append([]string(nil), keys...)
	for i := 0; i < n && i < len(pool); i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:n]
}

// Substitute performs Phase B for one enumerated combination: it replaces
// every `{Name[selector?]}` occurrence in ctx.Template with the value bound
// to applied[Name] in ctx.Variations[Name].
func Substitute(ctx *docmodel.ResolvedContext, applied map[string]string) (string, error) {
	occs, err := docmodel.FindPlaceholders(ctx.Template)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	last := 0
	for _, occ := range occs {
		b.WriteString(ctx.Template[last:occ.Start])
		key, ok := applied[occ.Name]
		if !ok {
			return "", &sderrors.UnresolvedPlaceholder{Name: occ.Name}
		}
		vm := ctx.Variations[occ.Name]
		val, ok := vm.Get(key)
		if !ok {
			return "", &sderrors.UnresolvedPlaceholder{Name: occ.Name}
		}
		b.WriteString(val)
		last = occ.End
	}
	b.WriteString(ctx.Template[last:])
	return b.String(), nil
}
