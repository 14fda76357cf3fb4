// Package cli is the harvester command line: it builds a scheduler from a
// config and drives it.
package cli

import (
	"encoding/json"
	"io"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/4rg0n/bitburner-sub000/common"
	"github.com/4rg0n/bitburner-sub000/common/endpoints"
	harvesterrors "github.com/4rg0n/bitburner-sub000/common/errors"
	harvestlog "github.com/4rg0n/bitburner-sub000/common/log"
	"github.com/4rg0n/bitburner-sub000/common/stats"
	"github.com/4rg0n/bitburner-sub000/harvest/config"
	"github.com/4rg0n/bitburner-sub000/harvest/server"
	"github.com/4rg0n/bitburner-sub000/runner/memory"
)

const statScope = "harvester"

// CLI that drives a harvest scheduler
type CLI interface {
	Exec() error
}

type harvestCLI struct {
	rootCmd *cobra.Command
	out     io.Writer

	// populated by flags
	configSource string
	logLevel     string
	logJSON      bool
	targets      string
	costs        string

	configs *config.JSONConfigs
	stat    stats.StatsReceiver
	cancel  func()
}

func NewCLI(out io.Writer) CLI {
	c := &harvestCLI{out: out}
	c.rootCmd = &cobra.Command{
		Use:                "harvester",
		Short:              "harvester schedules harvest, replenish and suppress jobs across a cluster",
		SilenceUsage:       true,
		PersistentPreRunE:  c.setup,
		PersistentPostRunE: c.close,
	}
	c.rootCmd.PersistentFlags().StringVar(&c.configSource, "config", "default",
		"named config, inline json, or a .json/.yaml file")
	c.rootCmd.PersistentFlags().StringVar(&c.logLevel, "log_level", "info", "<error|warn|info|debug> level and above should be logged")
	c.rootCmd.PersistentFlags().BoolVar(&c.logJSON, "log_json", false, "log as json")
	c.rootCmd.PersistentFlags().StringVar(&c.targets, "target_categories", "",
		"comma separated target categories, overrides the config")
	c.rootCmd.PersistentFlags().StringVar(&c.costs, "costs", "",
		"unit costs by kind, e.g. 'harvest=1.7,backfill=4', overrides the config")

	c.addCmd(&runCmd{})
	c.addCmd(&stepCmd{})
	c.addCmd(&statusCmd{})
	c.addCmd(&cleanupCmd{})
	c.addCmd(&deployCmd{})
	c.addCmd(&configsCmd{})
	return c
}

func (c *harvestCLI) Exec() error {
	return c.rootCmd.Execute()
}

func (c *harvestCLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

func (c *harvestCLI) setup(cmd *cobra.Command, args []string) error {
	if err := harvestlog.Configure(c.logLevel, c.logJSON); err != nil {
		return harvesterrors.NewError(errors.Wrap(err, "configuring logging"), harvesterrors.ConfigFailureExitCode)
	}
	configs, err := config.GetConfigs(c.configSource)
	if err != nil {
		return harvesterrors.NewError(err, harvesterrors.ConfigFailureExitCode)
	}
	if err := c.applyOverrides(configs); err != nil {
		return harvesterrors.NewError(err, harvesterrors.ConfigFailureExitCode)
	}
	c.configs = configs
	c.stat, c.cancel = endpoints.MakeStatsReceiver(statScope)
	return nil
}

func (c *harvestCLI) applyOverrides(configs *config.JSONConfigs) error {
	if categories := common.SplitCommaSep(c.targets); len(categories) > 0 {
		configs.Scheduler.TargetCategories = categories
	}
	for kind, value := range common.SplitCommaSepToMap(c.costs) {
		cost, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid cost for %s", kind)
		}
		if configs.Scheduler.Costs == nil {
			configs.Scheduler.Costs = map[string]float64{}
		}
		configs.Scheduler.Costs[kind] = cost
	}
	return nil
}

// Needs cobra parameters for use from rootCmd
func (c *harvestCLI) close(cmd *cobra.Command, args []string) error {
	if c.cancel != nil {
		c.cancel()
	}
	return nil
}

// newScheduler builds the cluster and a scheduler over it. Nothing is started.
func (c *harvestCLI) newScheduler() (server.Scheduler, *memory.Cluster, error) {
	sc, err := c.configs.Scheduler.CreateSchedulerConfig()
	if err != nil {
		return nil, nil, harvesterrors.NewError(err, harvesterrors.ConfigFailureExitCode)
	}
	sim, err := c.configs.Cluster.Create(sc.Costs)
	if err != nil {
		return nil, nil, harvesterrors.NewError(err, harvesterrors.ConfigFailureExitCode)
	}
	s, err := server.NewStatefulScheduler(
		sim.Workers(),
		sim.Targets(),
		sim.Factory(),
		sim.Models(),
		memory.NewDeployer(sim, c.stat),
		*sc,
		c.stat)
	if err != nil {
		return nil, nil, harvesterrors.NewError(err, harvesterrors.ConfigFailureExitCode)
	}
	return s, sim, nil
}

func (c *harvestCLI) printJSON(v interface{}) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *harvestCLI) addCmd(cmd command) {
	cobraCmd := cmd.registerFlags()
	cobraCmd.RunE = func(innerCmd *cobra.Command, args []string) error {
		return cmd.run(c, innerCmd, args)
	}
	c.rootCmd.AddCommand(cobraCmd)
}

type command interface {
	registerFlags() *cobra.Command
	run(cl *harvestCLI, cmd *cobra.Command, args []string) error
}
