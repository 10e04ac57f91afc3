// Package graph holds the causal structure values exchanged between
// estimators, fusion engines and the materializer.
package graph

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// FeaturePrefix prefixes feature node identifiers ("f0", "f1", ...).
const FeaturePrefix = "f"

// FeatureNode returns the node identifier of feature column i.
func FeatureNode(i int) string {
	return FeaturePrefix + strconv.Itoa(i)
}

// ParseFeature returns the column index of a feature node.
// Label nodes and malformed identifiers return ok=false.
func ParseFeature(id string) (int, bool) {
	if !strings.HasPrefix(id, FeaturePrefix) {
		return 0, false
	}
	i, err := strconv.Atoi(id[len(FeaturePrefix):])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Edge is a directed edge From -> To.
type Edge struct {
	From string
	To   string
}

func (e Edge) String() string {
	return e.From + "->" + e.To
}

// Structure is an immutable directed graph over feature and label nodes.
// Nodes and edges are kept sorted and free of duplicates.
type Structure struct {
	nodes []string
	edges []Edge
}

// New builds a Structure. Edge endpoints are added to the node set.
func New(nodes []string, edges []Edge) *Structure {
	nodeSet := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		nodeSet[n] = struct{}{}
	}
	edgeSet := make(map[Edge]struct{}, len(edges))
	for _, e := range edges {
		edgeSet[e] = struct{}{}
		nodeSet[e.From] = struct{}{}
		nodeSet[e.To] = struct{}{}
	}

	s := &Structure{
		nodes: make([]string, 0, len(nodeSet)),
		edges: make([]Edge, 0, len(edgeSet)),
	}
	for n := range nodeSet {
		s.nodes = append(s.nodes, n)
	}
	for e := range edgeSet {
		s.edges = append(s.edges, e)
	}
	sort.Strings(s.nodes)
	sortEdges(s.edges)
	return s
}

// Empty returns a structure with the given feature count and label nodes and no edges.
func Empty(numFeatures int, labels ...string) *Structure {
	nodes := make([]string, 0, numFeatures+len(labels))
	for i := 0; i < numFeatures; i++ {
		nodes = append(nodes, FeatureNode(i))
	}
	nodes = append(nodes, labels...)
	return New(nodes, nil)
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
}

// Nodes returns a copy of the sorted node list.
func (s *Structure) Nodes() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.nodes...)
}

// Edges returns a copy of the sorted edge list.
func (s *Structure) Edges() []Edge {
	if s == nil {
		return nil
	}
	return append([]Edge(nil), s.edges...)
}

// NumEdges returns the number of edges.
func (s *Structure) NumEdges() int {
	if s == nil {
		return 0
	}
	return len(s.edges)
}

// HasEdge reports whether from -> to is present.
func (s *Structure) HasEdge(from, to string) bool {
	if s == nil {
		return false
	}
	i := sort.Search(len(s.edges), func(i int) bool {
		e := s.edges[i]
		return e.From > from || (e.From == from && e.To >= to)
	})
	return i < len(s.edges) && s.edges[i] == Edge{From: from, To: to}
}

// Neighbors returns the parents and children of node, sorted.
func (s *Structure) Neighbors(node string) []string {
	if s == nil {
		return nil
	}
	seen := make(map[string]struct{})
	for _, e := range s.edges {
		switch node {
		case e.From:
			seen[e.To] = struct{}{}
		case e.To:
			seen[e.From] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether two structures have the same nodes and edges.
func (s *Structure) Equal(o *Structure) bool {
	if s == nil || o == nil {
		return s == o
	}
	if len(s.nodes) != len(o.nodes) || len(s.edges) != len(o.edges) {
		return false
	}
	for i := range s.nodes {
		if s.nodes[i] != o.nodes[i] {
			return false
		}
	}
	for i := range s.edges {
		if s.edges[i] != o.edges[i] {
			return false
		}
	}
	return true
}

func (s *Structure) String() string {
	if s == nil {
		return "<nil>"
	}
	parts := make([]string, len(s.edges))
	for i, e := range s.edges {
		parts[i] = e.String()
	}
	return fmt.Sprintf("nodes=%d edges=[%s]", len(s.nodes), strings.Join(parts, " "))
}

type structureJSON struct {
	Nodes []string    `json:"nodes"`
	Edges [][2]string `json:"edges"`
}

// MarshalJSON encodes the structure as {"nodes": [...], "edges": [[from, to], ...]}.
func (s *Structure) MarshalJSON() ([]byte, error) {
	wire := structureJSON{Nodes: s.Nodes(), Edges: make([][2]string, 0, s.NumEdges())}
	if wire.Nodes == nil {
		wire.Nodes = []string{}
	}
	for _, e := range s.Edges() {
		wire.Edges = append(wire.Edges, [2]string{e.From, e.To})
	}
	return json.Marshal(wire)
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (s *Structure) UnmarshalJSON(data []byte) error {
	var wire structureJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("decode structure: %w", err)
	}
	edges := make([]Edge, 0, len(wire.Edges))
	for _, e := range wire.Edges {
		if e[0] == "" || e[1] == "" {
			return fmt.Errorf("decode structure: edge with empty endpoint %v", e)
		}
		edges = append(edges, Edge{From: e[0], To: e[1]})
	}
	*s = *New(wire.Nodes, edges)
	return nil
}

// PerTask maps a task name to its structure.
type PerTask map[string]*Structure

// Selected returns the feature nodes adjacent to any task's label node.
func (p PerTask) Selected(tasks []string) NodeSet {
	var out NodeSet
	for _, task := range tasks {
		for _, n := range p[task].Neighbors(task) {
			if _, ok := ParseFeature(n); ok {
				out = append(out, n)
			}
		}
	}
	return out.Canonical()
}
