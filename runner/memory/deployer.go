package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/4rg0n/bitburner-sub000/async"
	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/common/stats"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
	"github.com/4rg0n/bitburner-sub000/runner"
)

const copyPollInterval = 5 * time.Millisecond

// Deployer copies the job programs of every kind onto simulated workers,
// one goroutine per missing copy.
type Deployer struct {
	cluster  *Cluster
	programs []string
	stat     stats.StatsReceiver
}

func NewDeployer(c *Cluster, stat stats.StatsReceiver) *Deployer {
	programs := make([]string, 0, len(domain.AllKinds))
	for _, k := range domain.AllKinds {
		programs = append(programs, k.Program())
	}
	return &Deployer{cluster: c, programs: programs, stat: stat}
}

func (d *Deployer) EnsurePresent(ctx context.Context, workers []cluster.Node) error {
	r := async.NewRunner()
	var failures []string
	for _, node := range workers {
		w, ok := d.cluster.Worker(node.Id())
		if !ok {
			failures = append(failures, fmt.Sprintf("unknown worker %s", node.Id()))
			continue
		}
		for _, p := range d.programs {
			if w.HasProgram(p) {
				continue
			}
			worker, program := w, p
			r.RunAsync(
				func() error { return worker.CopyProgram(program) },
				func(err error) {
					if err != nil {
						d.stat.Counter(stats.DeployErrCounter).Inc(1)
						failures = append(failures, err.Error())
						return
					}
					d.stat.Counter(stats.DeployCopiesCounter).Inc(1)
					log.WithFields(
						log.Fields{
							"worker":  worker.Node().Id(),
							"program": program,
						}).Debug("Copied program")
				})
		}
	}
	if err := r.Wait(ctx, copyPollInterval); err != nil {
		return errors.Wrap(err, "waiting for program copies")
	}
	if len(failures) > 0 {
		return fmt.Errorf("deploy failed: %s", strings.Join(failures, "; "))
	}
	return nil
}

var _ runner.Deployer = (*Deployer)(nil)
