package generator

import "math/rand/v2"

// splitMix64 advances state and returns the next SplitMix64 output, per
// spec §4.7's documented seeding formula suggestion.
func splitMix64(state *uint64) uint64 {
	*state += 0x9E3779B97F4A7C15
	z := *state
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	return z ^ (z >> 31)
}

// NewSelectionRNG derives the selection RNG from the document's base seed
// using SplitMix64, then uses its first two outputs to seed a PCG source.
// The same *rand.Rand instance is threaded through both the Template
// Resolver's `[random:N]` selector sampling and this package's random-mode
// combination sampling, so a given base seed reproduces byte-identical
// output across runs without any package owning a shared global RNG.
func NewSelectionRNG(baseSeed int64) *rand.Rand {
	state := uint64(baseSeed)
	s1 := splitMix64(&state)
	s2 := splitMix64(&state)
	return rand.New(rand.NewPCG(s1, s2))
}

// progressiveSeed computes base+i with 2^63 modulo wraparound, staying
// within the non-negative 63-bit range seeds must occupy on the wire.
func progressiveSeed(base int64, i int) int64 {
	sum := uint64(base) + uint64(i)
	return int64(sum & 0x7FFFFFFFFFFFFFFF)
}
