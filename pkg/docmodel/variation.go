package docmodel

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// VariationMap is an insertion-ordered mapping from a placeholder key to its
// substitution string. A plain Go map loses declaration order, which the
// combinatorial enumeration and the manifest's `available` arrays both
// depend on, so VariationMap keeps an explicit key slice alongside the
// value map and implements its own YAML decoding to read that order off the
// source document's mapping node.
type VariationMap struct {
	keys []string
	vals map[string]string
}

// NewVariationMap builds a VariationMap from an explicit key order. Callers
// that build one programmatically (rather than by decoding YAML) should use
// this rather than a bare struct literal.
func NewVariationMap(keys []string, vals map[string]string) *VariationMap {
	vm := &VariationMap{keys: append([]string(nil), keys...), vals: make(map[string]string, len(vals))}
	for _, k := range keys {
		vm.vals[k] = vals[k]
	}
	return vm
}

// Set appends or overwrites a key. Overwriting an existing key does not
// change its position in Keys().
func (vm *VariationMap) Set(key, val string) {
	if vm.vals == nil {
		vm.vals = make(map[string]string)
	}
	if _, ok := vm.vals[key]; !ok {
		vm.keys = append(vm.keys, key)
	}
	vm.vals[key] = val
}

// Get returns the value bound to key and whether it was present.
func (vm *VariationMap) Get(key string) (string, bool) {
	if vm == nil {
		return "", false
	}
	v, ok := vm.vals[key]
	return v, ok
}

// Keys returns the keys in declaration order. The returned slice must not
// be mutated by the caller.
func (vm *VariationMap) Keys() []string {
	if vm == nil {
		return nil
	}
	return vm.keys
}

// Len returns the number of entries.
func (vm *VariationMap) Len() int {
	if vm == nil {
		return 0
	}
	return len(vm.keys)
}

// Values returns the values in the same order as Keys.
func (vm *VariationMap) Values() []string {
	if vm == nil {
		return nil
	}
	out := make([]string, len(vm.keys))
	for i, k := range vm.keys {
		out[i] = vm.vals[k]
	}
	return out
}

// Clone returns a deep copy so callers can apply a selector's restriction
// without mutating the document-level map.
func (vm *VariationMap) Clone() *VariationMap {
	if vm == nil {
		return NewVariationMap(nil, nil)
	}
	return NewVariationMap(vm.keys, vm.vals)
}

// Restrict returns a new VariationMap containing only the given keys, in
// the order given. Unknown keys are silently skipped by callers that have
// already validated key membership (selector application validates first).
func (vm *VariationMap) Restrict(keys []string) *VariationMap {
	out := NewVariationMap(nil, nil)
	for _, k := range keys {
		if v, ok := vm.Get(k); ok {
			out.Set(k, v)
		}
	}
	return out
}

// UnmarshalYAML decodes a flat string-to-string mapping node while
// preserving the declaration order recorded in node.Content.
func (vm *VariationMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("variation map: expected a mapping node, got kind %d", node.Kind)
	}
	vm.keys = nil
	vm.vals = make(map[string]string, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]
		var key, val string
		if err := keyNode.Decode(&key); err != nil {
			return fmt.Errorf("variation map: key %d: %w", i/2, err)
		}
		if err := valNode.Decode(&val); err != nil {
			return fmt.Errorf("variation map: value for key %q: %w", key, err)
		}
		vm.Set(key, val)
	}
	return nil
}

// MarshalYAML re-emits the map as an ordered mapping node so round-tripping
// (e.g. rebuild's synthetic variation files) preserves declared order.
func (vm *VariationMap) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range vm.Keys() {
		v, _ := vm.Get(k)
		var kn, vn yaml.Node
		if err := kn.Encode(k); err != nil {
			return nil, err
		}
		if err := vn.Encode(v); err != nil {
			return nil, err
		}
		node.Content = append(node.Content, &kn, &vn)
	}
	return node, nil
}
