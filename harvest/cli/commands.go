package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/4rg0n/bitburner-sub000/async"
	"github.com/4rg0n/bitburner-sub000/cloud/cluster"
	"github.com/4rg0n/bitburner-sub000/common/endpoints"
	harvesterrors "github.com/4rg0n/bitburner-sub000/common/errors"
	"github.com/4rg0n/bitburner-sub000/harvest/config"
	"github.com/4rg0n/bitburner-sub000/harvest/server"
)

const adminPollInterval = 10 * time.Millisecond

// run: init, then loop until interrupted while serving the admin endpoints.
type runCmd struct {
	adminAddr string
	noAdmin   bool
	duration  time.Duration
}

func (c *runCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the scheduler loop until interrupted",
	}
	cmd.Flags().StringVar(&c.adminAddr, "admin_addr", "", "bind address of the admin http server, overrides the config")
	cmd.Flags().BoolVar(&c.noAdmin, "no_admin", false, "don't serve the admin endpoints")
	cmd.Flags().DurationVar(&c.duration, "duration", 0, "stop after this long, 0 runs until interrupted")
	return cmd
}

func (c *runCmd) run(cl *harvestCLI, cmd *cobra.Command, args []string) error {
	s, sim, err := cl.newScheduler()
	if err != nil {
		return err
	}
	rescan, err := cl.configs.Cluster.RescanInterval()
	if err != nil {
		return harvesterrors.NewError(err, harvesterrors.ConfigFailureExitCode)
	}

	ctx, cancel := signalContext()
	defer cancel()
	if c.duration > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.duration)
		defer cancel()
	}

	status := &endpoints.StatusHolder{}
	admin := async.NewRunner()
	var serveErr error
	if !c.noAdmin {
		addr := c.adminAddr
		if addr == "" {
			addr = cl.configs.Admin.AddrOrDefault()
		}
		srv := endpoints.NewAdminServer(addr, cl.configs.Admin.MaxConnsOrDefault(), cl.stat, status)
		admin.RunAsync(func() error {
			err := srv.Serve(ctx)
			if err != nil {
				cancel()
			}
			return err
		}, func(err error) {
			serveErr = err
		})
	}

	if err := s.Init(ctx); err != nil {
		return harvesterrors.NewError(err, harvesterrors.InitFailureExitCode)
	}

	var watcher *cluster.Watcher
	var reinitErr error
	if rescan > 0 {
		if watcher, err = cluster.NewWatcher(ctx, rescan, sim.Workers(), sim.Targets()); err != nil {
			return harvesterrors.NewError(err, harvesterrors.InitFailureExitCode)
		}
	}

	err = s.Loop(ctx, func(r server.Report) {
		// the pools changed, start over with the new node set
		if watcher != nil {
			if updates := watcher.Drain(); len(updates) > 0 {
				log.WithFields(
					log.Fields{
						"session": r.Session,
						"updates": updates,
					}).Info("Node pools changed, reinitializing")
				if err := s.Init(ctx); err != nil {
					// the jobs are stopped and the pools unknown, stepping on is pointless
					log.Errorf("Reinitializing: %v", err)
					reinitErr = err
					cancel()
					return
				}
				r = s.Report()
			}
		}
		status.Set(r)
		log.WithFields(
			log.Fields{
				"session":    r.Session,
				"waiting":    r.Waiting.Total(),
				"initiating": r.Initiating.Total(),
				"scheduled":  r.Scheduled.Total(),
				"load":       r.UsageAvg,
				"boost":      r.Boost,
			}).Debug("Step done")
	})
	cancel()
	if waitErr := admin.Wait(context.Background(), adminPollInterval); waitErr != nil {
		return waitErr
	}
	if serveErr != nil {
		return harvesterrors.NewError(serveErr, harvesterrors.AdminServerFailureExitCode)
	}
	if reinitErr != nil {
		return harvesterrors.NewError(reinitErr, harvesterrors.InitFailureExitCode)
	}
	if err != nil && err != context.Canceled && err != context.DeadlineExceeded {
		return harvesterrors.NewError(err, harvesterrors.StepFailureExitCode)
	}

	// stop whatever the loop left behind
	if err := s.Cleanup(context.Background()); err != nil {
		return harvesterrors.NewError(err, harvesterrors.CleanupFailureExitCode)
	}
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigs:
			log.Infof("Received %v, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigs)
	}()
	return ctx, cancel
}

// step: init, then a fixed number of steps, printing the final report.
type stepCmd struct {
	count int
}

func (c *stepCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Run a fixed number of scheduler steps and print the report",
	}
	cmd.Flags().IntVar(&c.count, "count", 1, "number of steps")
	return cmd
}

func (c *stepCmd) run(cl *harvestCLI, cmd *cobra.Command, args []string) error {
	if c.count < 1 {
		return harvesterrors.NewError(fmt.Errorf("count must be positive, got %d", c.count), harvesterrors.ConfigFailureExitCode)
	}
	s, _, err := cl.newScheduler()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		return harvesterrors.NewError(err, harvesterrors.InitFailureExitCode)
	}
	for i := 0; i < c.count; i++ {
		if err := s.Step(ctx); err != nil {
			return harvesterrors.NewError(errors.Wrapf(err, "step %d", i), harvesterrors.StepFailureExitCode)
		}
	}
	return cl.printJSON(s.Report())
}

// status: init and queue one batch without starting anything.
type statusCmd struct{}

func (c *statusCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the report of a freshly initialized scheduler with its first batch queued",
	}
}

func (c *statusCmd) run(cl *harvestCLI, cmd *cobra.Command, args []string) error {
	s, _, err := cl.newScheduler()
	if err != nil {
		return err
	}
	if err := s.Init(context.Background()); err != nil {
		return harvesterrors.NewError(err, harvesterrors.InitFailureExitCode)
	}
	s.QueueWork()
	return cl.printJSON(s.Report())
}

type cleanupCmd struct{}

func (c *cleanupCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup",
		Short: "Stop every job on every worker",
	}
}

func (c *cleanupCmd) run(cl *harvestCLI, cmd *cobra.Command, args []string) error {
	s, _, err := cl.newScheduler()
	if err != nil {
		return err
	}
	// Init cleans up before rebuilding; the second pass covers the rebuilt pools.
	ctx := context.Background()
	if err := s.Init(ctx); err != nil {
		return harvesterrors.NewError(err, harvesterrors.InitFailureExitCode)
	}
	if err := s.Cleanup(ctx); err != nil {
		return harvesterrors.NewError(err, harvesterrors.CleanupFailureExitCode)
	}
	fmt.Fprintln(cl.out, "cleanup done")
	return nil
}

type deployCmd struct{}

func (c *deployCmd) registerFlags() *cobra.Command {
	return &cobra.Command{
		Use:   "deploy",
		Short: "Copy the job programs to every worker",
	}
}

func (c *deployCmd) run(cl *harvestCLI, cmd *cobra.Command, args []string) error {
	s, _, err := cl.newScheduler()
	if err != nil {
		return err
	}
	if err := s.Init(context.Background()); err != nil {
		return harvesterrors.NewError(err, harvesterrors.DeployFailureExitCode)
	}
	fmt.Fprintln(cl.out, "deploy done")
	return nil
}

// configs: list the named configs, or print the resolved one.
type configsCmd struct {
	show bool
}

func (c *configsCmd) registerFlags() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "configs",
		Short: "List the named configs",
	}
	cmd.Flags().BoolVar(&c.show, "show", false, "print the resolved --config instead")
	return cmd
}

func (c *configsCmd) run(cl *harvestCLI, cmd *cobra.Command, args []string) error {
	if c.show {
		return cl.printJSON(cl.configs)
	}
	names := make([]string, 0, len(config.SchedulerConfigs))
	for name := range config.SchedulerConfigs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(cl.out, name)
	}
	return nil
}
