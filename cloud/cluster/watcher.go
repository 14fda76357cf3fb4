package cluster

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
)

// Watcher polls fetchers and publishes the changes to the union of their nodes.
type Watcher struct {
	Ch <-chan []NodeUpdate

	fetchers []Fetcher
	state    *State
	outCh    chan []NodeUpdate
}

// NewWatcher takes the current nodes as the baseline, so only later changes are
// published. Ch is closed once ctx is done.
func NewWatcher(ctx context.Context, interval time.Duration, fetchers ...Fetcher) (*Watcher, error) {
	w := &Watcher{
		fetchers: fetchers,
		outCh:    make(chan []NodeUpdate, 1),
	}
	w.Ch = w.outCh
	nodes, err := w.fetch()
	if err != nil {
		return nil, err
	}
	w.state = NewState(nodes)
	go w.loop(ctx, time.NewTicker(interval))
	return w, nil
}

func (w *Watcher) fetch() ([]Node, error) {
	all := []Node{}
	for _, f := range w.fetchers {
		nodes, err := f.Fetch()
		if err != nil {
			return nil, err
		}
		all = append(all, nodes...)
	}
	return all, nil
}

func (w *Watcher) loop(ctx context.Context, ticker *time.Ticker) {
	defer close(w.outCh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		nodes, err := w.fetch()
		if err != nil {
			// keep the last good state and try again next tick
			log.Warnf("Fetching nodes: %v", err)
			continue
		}
		if updates := w.state.SetAndDiff(nodes); len(updates) > 0 {
			select {
			case w.outCh <- updates:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Drain returns every update published so far without blocking.
func (w *Watcher) Drain() []NodeUpdate {
	var all []NodeUpdate
	for {
		select {
		case updates, ok := <-w.Ch:
			if !ok {
				return all
			}
			all = append(all, updates...)
		default:
			return all
		}
	}
}
