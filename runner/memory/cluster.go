package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
	"github.com/4rg0n/bitburner-sub000/runner"
)

// Category names used by the simulated cluster.
const (
	HomeCategory      = "home"
	PurchasedCategory = "purchased"
	TargetCategory    = "rooted"
)

// Cluster holds simulated workers and targets. Completed jobs are applied to
// the model of the target they ran against.
type Cluster struct {
	workers map[cluster.NodeId]*Worker
	models  map[cluster.NodeId]*Model
	wf      *cluster.MemoryFetcher
	tf      *cluster.MemoryFetcher
	mu      sync.RWMutex
}

func NewCluster() *Cluster {
	return &Cluster{
		workers: make(map[cluster.NodeId]*Worker),
		models:  make(map[cluster.NodeId]*Model),
		wf:      cluster.NewMemoryFetcher(),
		tf:      cluster.NewMemoryFetcher(),
	}
}

// SimConfig describes a generated cluster.
type SimConfig struct {
	HomeCapacity     float64
	PurchasedWorkers int
	WorkerCapacity   float64
	Targets          int
	TargetMax        float64
	AutoComplete     time.Duration
}

// NewSimCluster builds a home worker, purchased workers and targets of increasing tiers.
func NewSimCluster(c SimConfig, costs domain.Costs) *Cluster {
	sim := NewCluster()
	if c.HomeCapacity > 0 {
		sim.AddWorker(cluster.NewCategoryNode("home", HomeCategory), c.HomeCapacity, costs)
	}
	for i := 0; i < c.PurchasedWorkers; i++ {
		sim.AddWorker(cluster.NewCategoryNode(fmt.Sprintf("pserv-%d", i), PurchasedCategory), c.WorkerCapacity, costs)
	}
	for i := 0; i < c.Targets; i++ {
		attrs := domain.TargetAttributes{
			MaxCapacity:    0,
			ResistanceTier: i%3 + 1,
			ResourceTier:   i/3 + 1,
			Category:       TargetCategory,
		}
		model := NewModel(attrs, c.TargetMax*float64(i+1), float64(i%3+1), DefaultModelParams)
		sim.AddTarget(cluster.NewCategoryNode(fmt.Sprintf("target-%d", i), TargetCategory), model)
	}
	sim.SetAutoComplete(c.AutoComplete)
	return sim
}

func (c *Cluster) AddWorker(node cluster.Node, max float64, costs domain.Costs) *Worker {
	w := NewWorker(node, max, costs)
	w.OnComplete(c.apply)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.workers[node.Id()] = w
	nodes, _ := c.wf.Fetch()
	c.wf.Set(append(nodes, node)...)
	return w
}

// RemoveWorker drops a worker from the pool. Its running jobs are left to finish.
func (c *Cluster) RemoveWorker(id cluster.NodeId) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.workers, id)
	nodes, _ := c.wf.Fetch()
	kept := nodes[:0]
	for _, n := range nodes {
		if n.Id() != id {
			kept = append(kept, n)
		}
	}
	c.wf.Set(kept...)
}

func (c *Cluster) AddTarget(node cluster.Node, model *Model) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[node.Id()] = model
	nodes, _ := c.tf.Fetch()
	c.tf.Set(append(nodes, node)...)
}

func (c *Cluster) SetAutoComplete(d time.Duration) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, w := range c.workers {
		w.SetAutoComplete(d)
	}
}

func (c *Cluster) Worker(id cluster.NodeId) (*Worker, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	w, ok := c.workers[id]
	return w, ok
}

func (c *Cluster) Model(id cluster.NodeId) (*Model, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.models[id]
	return m, ok && m != nil
}

// Workers and Targets enumerate the simulated nodes.
func (c *Cluster) Workers() cluster.Fetcher { return c.wf }
func (c *Cluster) Targets() cluster.Fetcher { return c.tf }

func (c *Cluster) Factory() runner.Factory {
	return func(node cluster.Node) (runner.Service, error) {
		if w, ok := c.Worker(node.Id()); ok {
			return w, nil
		}
		return nil, fmt.Errorf("unknown worker %s", node.Id())
	}
}

// Models returns nil for unknown targets.
func (c *Cluster) Models() domain.ModelFactory {
	return func(node cluster.Node) domain.ResourceModel {
		if m, ok := c.Model(node.Id()); ok {
			return m
		}
		return nil
	}
}

func (c *Cluster) apply(inst domain.Instance, units int) {
	if m, ok := c.Model(inst.Target); ok {
		m.Apply(inst.Kind, units)
	}
}
