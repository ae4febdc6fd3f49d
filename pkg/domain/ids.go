package domain

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// NewID generates a fresh element id.
// It is a variable so tests can install a deterministic generator.
var NewID = func() string {
	return uuid.NewString()
}

var (
	clockMu  sync.Mutex
	lastTick time.Time
)

// now returns a timestamp that never goes backwards across calls.
func now() time.Time {
	clockMu.Lock()
	defer clockMu.Unlock()
	t := time.Now().UTC()
	if !t.After(lastTick) {
		t = lastTick.Add(time.Nanosecond)
	}
	lastTick = t
	return t
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
