package cluster

import (
	"sort"

	log "github.com/sirupsen/logrus"
)

// State is the last seen set of nodes.
type State struct {
	nodes       map[NodeId]Node
	nopCheckCnt int
}

func NewState(nodes []Node) *State {
	s := &State{nodes: make(map[NodeId]Node)}
	s.SetAndDiff(nodes)
	return s
}

func (s *State) Len() int {
	return len(s.nodes)
}

// SetAndDiff replaces the state and returns the adds, then the removes, each sorted by id.
// A node whose category changed is reported as removed and added again.
func (s *State) SetAndDiff(newState []Node) []NodeUpdate {
	old := s.nodes
	s.nodes = make(map[NodeId]Node, len(newState))

	added := []Node{}
	for _, n := range newState {
		if _, dup := s.nodes[n.Id()]; dup {
			continue
		}
		s.nodes[n.Id()] = n
		prev, exists := old[n.Id()]
		if exists && prev.Category() == n.Category() {
			delete(old, n.Id())
			continue
		}
		added = append(added, n)
	}
	// old now only holds nodes gone or changed in this diff
	removed := []Node{}
	for _, n := range old {
		removed = append(removed, n)
	}
	sort.Sort(NodeSorter(added))
	sort.Sort(NodeSorter(removed))

	updates := []NodeUpdate{}
	for _, n := range removed {
		updates = append(updates, NewRemove(n.Id()))
	}
	for _, n := range added {
		updates = append(updates, NewAdd(n))
	}

	if len(updates) > 0 {
		log.WithFields(
			log.Fields{
				"added":     len(added),
				"removed":   len(removed),
				"nodes":     len(s.nodes),
				"nopChecks": s.nopCheckCnt,
			}).Info("Node set changed")
		s.nopCheckCnt = 0
	} else {
		s.nopCheckCnt++
	}
	return updates
}
