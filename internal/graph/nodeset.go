package graph

import (
	"sort"
	"strings"
)

// NodeSet is a set of feature identifiers. Order and duplicates are not significant.
type NodeSet []string

// Canonical returns the sorted, de-duplicated form of the set.
func (n NodeSet) Canonical() NodeSet {
	if len(n) == 0 {
		return NodeSet{}
	}
	out := append(NodeSet(nil), n...)
	sort.Strings(out)
	w := 1
	for r := 1; r < len(out); r++ {
		if out[r] != out[w-1] {
			out[w] = out[r]
			w++
		}
	}
	return out[:w]
}

// Features returns the column indices of the set's feature nodes, ascending.
func (n NodeSet) Features() []int {
	idx := make([]int, 0, len(n))
	seen := make(map[int]struct{}, len(n))
	for _, id := range n {
		i, ok := ParseFeature(id)
		if !ok {
			continue
		}
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		idx = append(idx, i)
	}
	sort.Ints(idx)
	return idx
}

// Fingerprint is the canonical encoding of a NodeSet, used only for equality.
type Fingerprint string

// Fingerprint returns the set's canonical encoding.
func (n NodeSet) Fingerprint() Fingerprint {
	return Fingerprint(strings.Join(n.Canonical(), ","))
}

func (f Fingerprint) String() string {
	if f == "" {
		return "{}"
	}
	return "{" + string(f) + "}"
}
