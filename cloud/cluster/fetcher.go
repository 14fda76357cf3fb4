package cluster

import (
	"sort"
	"sync"
)

// Returns a full list of visible nodes.
type Fetcher interface {
	Fetch() ([]Node, error)
}

// Filter reports whether a node belongs to a pool.
type Filter func(Node) bool

// CategoryFilter accepts nodes in any of the given categories, or every node when none are given.
func CategoryFilter(categories ...string) Filter {
	if len(categories) == 0 {
		return func(Node) bool { return true }
	}
	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}
	return func(n Node) bool { return allowed[n.Category()] }
}

// ExcludeFilter rejects the given node ids.
func ExcludeFilter(ids ...NodeId) Filter {
	excluded := make(map[NodeId]bool, len(ids))
	for _, id := range ids {
		excluded[id] = true
	}
	return func(n Node) bool { return !excluded[n.Id()] }
}

// And accepts nodes accepted by every filter.
func And(filters ...Filter) Filter {
	return func(n Node) bool {
		for _, f := range filters {
			if f != nil && !f(n) {
				return false
			}
		}
		return true
	}
}

// FetchFiltered fetches, filters and sorts nodes by id so pool order is stable across fetches.
func FetchFiltered(f Fetcher, filter Filter) ([]Node, error) {
	nodes, err := f.Fetch()
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if filter == nil || filter(n) {
			out = append(out, n)
		}
	}
	sort.Sort(NodeSorter(out))
	return out, nil
}

// MemoryFetcher returns the nodes it was last given. Safe for concurrent use.
type MemoryFetcher struct {
	mu    sync.Mutex
	nodes []Node
}

func NewMemoryFetcher(nodes ...Node) *MemoryFetcher {
	return &MemoryFetcher{nodes: nodes}
}

func (f *MemoryFetcher) Fetch() ([]Node, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Node(nil), f.nodes...), nil
}

// Set replaces the nodes returned by later fetches.
func (f *MemoryFetcher) Set(nodes ...Node) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nodes = nodes
}
