// Package memory simulates workers and targets in process. It backs the
// tests and the "memory" cluster type of the harvester binary.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
	"github.com/4rg0n/bitburner-sub000/runner"
)

// Worker is an in-memory runner.Service. Processes stay RUNNING until they
// are completed with Complete, stopped, or the auto-complete timer fires.
type Worker struct {
	node  cluster.Node
	max   float64
	costs domain.Costs

	programs     map[string]bool
	copyErr      error
	runs         map[runner.RunId]runner.ProcessStatus
	nextRunId    int64
	completed    int
	autoComplete time.Duration
	onComplete   func(domain.Instance, int)
	mu           sync.Mutex
}

func NewWorker(node cluster.Node, max float64, costs domain.Costs) *Worker {
	return &Worker{
		node:     node,
		max:      max,
		costs:    costs,
		programs: make(map[string]bool),
		runs:     make(map[runner.RunId]runner.ProcessStatus),
	}
}

func (w *Worker) Node() cluster.Node {
	return w.node
}

// SetAutoComplete makes every started process complete after d. Zero disables it.
func (w *Worker) SetAutoComplete(d time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.autoComplete = d
}

// OnComplete registers f to be called, outside the worker lock, for every process that completes.
func (w *Worker) OnComplete(f func(inst domain.Instance, units int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onComplete = f
}

func (w *Worker) MaxUnits(kind domain.JobKind) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return int(math.Floor(w.capacity().Free()/w.costs.Of(kind) + 1e-9))
}

func (w *Worker) Capacity() runner.Capacity {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.capacity()
}

func (w *Worker) capacity() runner.Capacity {
	used := 0.0
	for _, st := range w.runs {
		used += float64(st.Units) * w.costs.Of(st.Instance.Kind)
	}
	return runner.Capacity{Max: w.max, Used: used}
}

func (w *Worker) Start(ctx context.Context, inst domain.Instance, units int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if units < 1 {
		return fmt.Errorf("cannot start %s with %d units", inst, units)
	}
	if !w.programs[inst.Kind.Program()] {
		return fmt.Errorf("program %s not present on %s", inst.Kind.Program(), w.node.Id())
	}
	need := float64(units) * w.costs.Of(inst.Kind)
	if free := w.capacity().Free(); need > free+1e-9 {
		return fmt.Errorf("insufficient capacity on %s for %s: need %.2f, free %.2f", w.node.Id(), inst, need, free)
	}

	runId := runner.RunId(fmt.Sprintf("%d", w.nextRunId))
	w.nextRunId++
	w.runs[runId] = runner.RunningStatus(runId, inst, units)
	log.WithFields(
		log.Fields{
			"worker":   w.node.Id(),
			"runID":    runId,
			"instance": inst.String(),
			"units":    units,
		}).Debug("Started process")

	if w.autoComplete > 0 {
		time.AfterFunc(w.autoComplete, func() { w.finish(runId) })
	}
	return nil
}

func (w *Worker) Stop(ctx context.Context, kinds []domain.JobKind, target cluster.NodeId, tag string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, kind := range kinds {
		query := domain.Instance{Kind: kind, Target: target, Tag: tag}
		for id, st := range w.runs {
			if query.Matches(st.Instance) {
				log.WithFields(
					log.Fields{
						"worker": w.node.Id(),
						"status": runner.AbortStatus(st).State,
						"runID":  id,
					}).Debug("Stopped process")
				delete(w.runs, id)
			}
		}
	}
	return nil
}

func (w *Worker) IsRunning(inst domain.Instance) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, st := range w.runs {
		if inst.Matches(st.Instance) {
			return true
		}
	}
	return false
}

// Complete ends every running process matching inst and returns their final statuses.
func (w *Worker) Complete(inst domain.Instance) []runner.ProcessStatus {
	w.mu.Lock()
	var ids []runner.RunId
	for id, st := range w.runs {
		if inst.Matches(st.Instance) {
			ids = append(ids, id)
		}
	}
	w.mu.Unlock()

	var done []runner.ProcessStatus
	for _, id := range ids {
		if st, ok := w.finish(id); ok {
			done = append(done, st)
		}
	}
	return done
}

func (w *Worker) finish(id runner.RunId) (runner.ProcessStatus, bool) {
	w.mu.Lock()
	st, ok := w.runs[id]
	if !ok {
		w.mu.Unlock()
		return st, false
	}
	delete(w.runs, id)
	w.completed++
	cb := w.onComplete
	w.mu.Unlock()

	st = runner.CompletedStatus(st)
	if cb != nil {
		cb(st.Instance, st.Units)
	}
	return st, true
}

// StatusAll returns the running processes ordered by run id.
func (w *Worker) StatusAll() []runner.ProcessStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]runner.ProcessStatus, 0, len(w.runs))
	for _, st := range w.runs {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if len(out[i].RunId) != len(out[j].RunId) {
			return len(out[i].RunId) < len(out[j].RunId)
		}
		return out[i].RunId < out[j].RunId
	})
	return out
}

// Completed counts processes that ran to completion.
func (w *Worker) Completed() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.completed
}

func (w *Worker) HasProgram(name string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.programs[name]
}

// CopyProgram installs a program, failing with the error set by FailCopies if any.
func (w *Worker) CopyProgram(name string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.copyErr != nil {
		return errors.Wrapf(w.copyErr, "copying %s to %s", name, w.node.Id())
	}
	w.programs[name] = true
	return nil
}

func (w *Worker) FailCopies(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.copyErr = err
}

var _ runner.Service = (*Worker)(nil)
