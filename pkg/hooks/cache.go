package hooks

import (
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash/v2"
)

type cacheKey struct {
	tag string
	sum uint64
}

// filterCache is a bounded FIFO of filter results.
type filterCache struct {
	size    int
	entries map[cacheKey]any
	order   []cacheKey
}

func newFilterCache(size int) *filterCache {
	return &filterCache{size: size, entries: make(map[cacheKey]any, size)}
}

// fingerprint hashes the value type and the JSON of value and args.
// Values that cannot be encoded are not cacheable.
func fingerprint(tag string, value any, args []any) (cacheKey, bool) {
	raw, err := json.Marshal(struct {
		Value any   `json:"v"`
		Args  []any `json:"a"`
	}{value, args})
	if err != nil {
		return cacheKey{}, false
	}
	d := xxhash.New()
	_, _ = d.WriteString(fmt.Sprintf("%T\x00", value))
	_, _ = d.Write(raw)
	return cacheKey{tag: tag, sum: d.Sum64()}, true
}

func (c *filterCache) get(k cacheKey) (any, bool) {
	v, ok := c.entries[k]
	return v, ok
}

func (c *filterCache) put(k cacheKey, v any) {
	if _, ok := c.entries[k]; !ok {
		c.order = append(c.order, k)
	}
	c.entries[k] = v
	for len(c.entries) > c.size && len(c.order) > 0 {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
}

func (c *filterCache) invalidate(tag string) {
	kept := c.order[:0]
	for _, k := range c.order {
		if k.tag == tag {
			delete(c.entries, k)
			continue
		}
		kept = append(kept, k)
	}
	c.order = kept
}

func (c *filterCache) len() int { return len(c.entries) }
