package sweep

import (
	"fmt"
	"math"

	"github.com/josephgoksu/causalfuse/internal/graph"
)

// Scores are one trained candidate's held-out metrics.
type Scores struct {
	Validation float64 `yaml:"validation"`
	Test       float64 `yaml:"test"`
}

// Entry is one trained candidate.
type Entry struct {
	Key    string        `yaml:"key"`
	Value  float64       `yaml:"value"`
	Nodes  graph.NodeSet `yaml:"nodes"`
	Scores `yaml:",inline"`
}

// Results holds trained candidates in sweep order, one per key.
type Results struct {
	entries []Entry
	index   map[string]int
}

// NewResults returns an empty Results.
func NewResults() *Results {
	return &Results{index: make(map[string]int)}
}

// Add appends an entry. Keys must be unique.
func (r *Results) Add(e Entry) error {
	if _, ok := r.index[e.Key]; ok {
		return fmt.Errorf("duplicate result key %q", e.Key)
	}
	r.index[e.Key] = len(r.entries)
	r.entries = append(r.entries, e)
	return nil
}

// Len returns the number of entries.
func (r *Results) Len() int {
	if r == nil {
		return 0
	}
	return len(r.entries)
}

// Entries returns a copy of the entries in sweep order.
func (r *Results) Entries() []Entry {
	if r == nil {
		return nil
	}
	return append([]Entry(nil), r.entries...)
}

// Get returns the entry recorded under key.
func (r *Results) Get(key string) (Entry, bool) {
	if r == nil {
		return Entry{}, false
	}
	i, ok := r.index[key]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Select returns the entry with the highest validation score. Ties keep the
// earliest entry in sweep order and NaN scores never win. ok is false when no
// entry has a comparable score.
func (r *Results) Select() (best Entry, ok bool) {
	for _, e := range r.Entries() {
		if math.IsNaN(e.Validation) {
			continue
		}
		if !ok || e.Validation > best.Validation {
			best, ok = e, true
		}
	}
	return best, ok
}

// DedupCache remembers the fingerprints already trained in one sweep.
type DedupCache struct {
	seen map[graph.Fingerprint]string
}

// NewDedupCache returns an empty cache.
func NewDedupCache() *DedupCache {
	return &DedupCache{seen: make(map[graph.Fingerprint]string)}
}

// Contains reports whether fp was added before, and under which key.
func (c *DedupCache) Contains(fp graph.Fingerprint) (string, bool) {
	key, ok := c.seen[fp]
	return key, ok
}

// Add records fp for key. Adding a known fingerprint keeps the first key and
// returns false.
func (c *DedupCache) Add(fp graph.Fingerprint, key string) bool {
	if _, ok := c.seen[fp]; ok {
		return false
	}
	c.seen[fp] = key
	return true
}

// Len returns the number of distinct fingerprints.
func (c *DedupCache) Len() int {
	return len(c.seen)
}
