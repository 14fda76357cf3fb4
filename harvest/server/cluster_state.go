package server

import (
	"fmt"
	"math"

	"github.com/davecgh/go-spew/spew"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
	"github.com/4rg0n/bitburner-sub000/runner"
)

// The State of a worker in the pool.
type workerState struct {
	node       cluster.Node
	runner     runner.Service
	privileged bool
}

func (w *workerState) String() string {
	return fmt.Sprintf("{node:%s, privileged:%t, capacity:%+v}",
		spew.Sdump(w.node), w.privileged, w.runner.Capacity())
}

// workerPool is the ordered set of workers jobs are packed onto. Part of the
// privileged worker's capacity is reserved for things outside the scheduler.
type workerPool struct {
	workers  []*workerState
	reserved float64
	costs    domain.Costs
}

func newWorkerPool(reserved float64, costs domain.Costs) *workerPool {
	return &workerPool{reserved: reserved, costs: costs}
}

func (p *workerPool) add(node cluster.Node, svc runner.Service, privileged bool) {
	p.workers = append(p.workers, &workerState{node: node, runner: svc, privileged: privileged})
}

func (p *workerPool) nodes() []cluster.Node {
	nodes := make([]cluster.Node, 0, len(p.workers))
	for _, w := range p.workers {
		nodes = append(nodes, w.node)
	}
	return nodes
}

// reservedCapacity only counts when the privileged worker is in the pool.
func (p *workerPool) reservedCapacity() float64 {
	for _, w := range p.workers {
		if w.privileged {
			return p.reserved
		}
	}
	return 0
}

// supportable is how many units of kind still fit on w. On the privileged
// worker the reservation comes off its free capacity first.
func (p *workerPool) supportable(w *workerState, kind domain.JobKind) int {
	if !w.privileged || p.reserved <= 0 {
		return w.runner.MaxUnits(kind)
	}
	free := w.runner.Capacity().Free() - p.reserved
	if free <= 0 {
		return 0
	}
	return int(math.Floor(free/p.costs.Of(kind) + 1e-9))
}

func (p *workerPool) capacity() runner.Capacity {
	total := runner.Capacity{}
	for _, w := range p.workers {
		total = total.Add(w.runner.Capacity())
	}
	return total
}

// load is the fraction of the pool in use, counting the reservation as used.
func (p *workerPool) load() float64 {
	c := p.capacity()
	c.Used += p.reservedCapacity()
	return c.Load()
}
