package server

import (
	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
)

type commitKey struct {
	ticket domain.TicketID
	worker cluster.NodeId
}

// commitments records the units of each ticket started on each worker. It may
// go stale while workers finish jobs, pushWork reconciles it with live state.
type commitments map[commitKey]int

func (c commitments) add(ticket domain.TicketID, worker cluster.NodeId, units int) {
	c[commitKey{ticket, worker}] += units
}

// clear drops the entry and reports whether there was one.
func (c commitments) clear(ticket domain.TicketID, worker cluster.NodeId) bool {
	key := commitKey{ticket, worker}
	if _, ok := c[key]; !ok {
		return false
	}
	delete(c, key)
	return true
}

func (c commitments) get(ticket domain.TicketID, worker cluster.NodeId) (int, bool) {
	units, ok := c[commitKey{ticket, worker}]
	return units, ok
}

func (c commitments) total() int {
	sum := 0
	for _, units := range c {
		sum += units
	}
	return sum
}
