// Package runner defines how the scheduler talks to the workers that host
// job processes. Starting a job never blocks on its completion: liveness is
// only observable by polling IsRunning on a later cycle.
package runner

//go:generate mockgen -source=runner.go -package=runner -destination=runner_mock.go

import (
	"context"
	"fmt"
	"math"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
)

type RunId string
type ProcessState int

const (
	// An unambiguous 0-value.
	UNKNOWN ProcessState = iota
	// Started and not yet observed to exit.
	RUNNING

	// States below are end states
	// a process in an end state will not change its state

	// Ran to completion.
	COMPLETE
	// Exited abnormally.
	FAILED
	// Stopped on request.
	ABORTED
)

func (p ProcessState) IsDone() bool {
	return p == COMPLETE || p == FAILED || p == ABORTED
}

func (p ProcessState) String() string {
	switch p {
	case UNKNOWN:
		return "UNKNOWN"
	case RUNNING:
		return "RUNNING"
	case COMPLETE:
		return "COMPLETE"
	case FAILED:
		return "FAILED"
	case ABORTED:
		return "ABORTED"
	default:
		panic(fmt.Sprintf("Unexpected ProcessState %v", int(p)))
	}
}

// ProcessStatus describes one job process hosted by a worker.
type ProcessStatus struct {
	RunId    RunId
	Instance domain.Instance
	Units    int
	State    ProcessState
}

// Capacity of a worker in the same budget the unit costs are expressed in.
type Capacity struct {
	Max  float64
	Used float64
}

func (c Capacity) Free() float64 {
	return math.Max(0, c.Max-c.Used)
}

// Load is the used fraction of Max. A worker without capacity is fully loaded.
func (c Capacity) Load() float64 {
	if c.Max <= 0 {
		return 1
	}
	return math.Min(1, c.Used/c.Max)
}

func (c Capacity) Add(o Capacity) Capacity {
	return Capacity{Max: c.Max + o.Max, Used: c.Used + o.Used}
}

// Service is a worker's job host.
type Service interface {
	// MaxUnits is how many units of kind currently fit in the free capacity.
	MaxUnits(kind domain.JobKind) int

	Capacity() Capacity

	// Start launches units of inst and returns without waiting for the job to finish.
	Start(ctx context.Context, inst domain.Instance, units int) error

	// Stop kills every process of the given kinds against target. An empty tag matches all copies.
	Stop(ctx context.Context, kinds []domain.JobKind, target cluster.NodeId, tag string) error

	// IsRunning reports whether a process matching inst is alive. An empty tag matches all copies.
	IsRunning(inst domain.Instance) bool
}

// Deployer ensures the job programs exist on workers before they are used.
type Deployer interface {
	EnsurePresent(ctx context.Context, workers []cluster.Node) error
}

// Factory makes the Service for a worker.
type Factory func(worker cluster.Node) (Service, error)
