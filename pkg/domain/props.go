package domain

import (
	"encoding/json"

	"github.com/mohae/deepcopy"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Props is an insertion-ordered key/value map used for element properties and settings.
// Key order survives JSON round trips. The zero value is ready to use.
type Props struct {
	m *orderedmap.OrderedMap[string, any]
}

// NewProps builds Props from a plain map. Go maps are unordered, so keys are inserted
// in sorted order to keep the result deterministic.
func NewProps(values map[string]any) Props {
	p := Props{}
	for _, k := range sortedKeys(values) {
		p.Set(k, values[k])
	}
	return p
}

func (p *Props) init() {
	if p.m == nil {
		p.m = orderedmap.New[string, any]()
	}
}

// Set stores value under key. New keys are appended; existing keys keep their position.
func (p *Props) Set(key string, value any) {
	p.init()
	p.m.Set(key, value)
}

// Get returns the value for key.
func (p Props) Get(key string) (any, bool) {
	if p.m == nil {
		return nil, false
	}
	return p.m.Get(key)
}

// Delete removes key and reports whether it was present.
func (p *Props) Delete(key string) bool {
	if p.m == nil {
		return false
	}
	_, ok := p.m.Delete(key)
	return ok
}

// Len returns the number of keys.
func (p Props) Len() int {
	if p.m == nil {
		return 0
	}
	return p.m.Len()
}

// Keys returns the keys in insertion order.
func (p Props) Keys() []string {
	keys := make([]string, 0, p.Len())
	if p.m == nil {
		return keys
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Map returns an unordered shallow copy.
func (p Props) Map() map[string]any {
	out := make(map[string]any, p.Len())
	if p.m == nil {
		return out
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out[pair.Key] = pair.Value
	}
	return out
}

// Merge sets every key of other on p, in other's order.
func (p *Props) Merge(other Props) {
	if other.m == nil {
		return
	}
	for pair := other.m.Oldest(); pair != nil; pair = pair.Next() {
		p.Set(pair.Key, pair.Value)
	}
}

// MergeMap sets every key of values on p (sorted key order for new keys).
func (p *Props) MergeMap(values map[string]any) {
	for _, k := range sortedKeys(values) {
		p.Set(k, values[k])
	}
}

// Clone returns a deep copy: nested maps and slices are not shared.
func (p Props) Clone() Props {
	out := Props{}
	if p.m == nil {
		return out
	}
	for pair := p.m.Oldest(); pair != nil; pair = pair.Next() {
		out.Set(pair.Key, deepcopy.Copy(pair.Value))
	}
	return out
}

// MarshalJSON encodes the props as a JSON object preserving key order.
func (p Props) MarshalJSON() ([]byte, error) {
	if p.m == nil {
		return []byte("{}"), nil
	}
	return p.m.MarshalJSON()
}

// UnmarshalJSON decodes a JSON object preserving key order.
func (p *Props) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		p.m = nil
		return nil
	}
	m := orderedmap.New[string, any]()
	if err := m.UnmarshalJSON(data); err != nil {
		return err
	}
	p.m = m
	return nil
}

var _ json.Marshaler = Props{}
