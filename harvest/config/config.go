// Package config reads harvester configurations: named JSON configs, config
// files in JSON or YAML, or inline JSON.
package config

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/4rg0n/bitburner-sub000/common"
	"github.com/4rg0n/bitburner-sub000/harvest/domain"
	"github.com/4rg0n/bitburner-sub000/harvest/server"
	"github.com/4rg0n/bitburner-sub000/runner/memory"
)

// JSONConfigs config structure holding original json configs
type JSONConfigs struct {
	Cluster   ClusterJSONConfig   `json:"Cluster" yaml:"Cluster"`
	Scheduler SchedulerJSONConfig `json:"Scheduler" yaml:"Scheduler"`
	Admin     AdminJSONConfig     `json:"Admin" yaml:"Admin"`
}

func (s JSONConfigs) String() string {
	return fmt.Sprintf("\n%s\n%s\n%s", s.Cluster, s.Scheduler, s.Admin)
}

type ClusterJSONConfig struct {
	Type           string  `json:"Type" yaml:"Type"` // cluster type: memory
	HomeCapacity   float64 `json:"HomeCapacity" yaml:"HomeCapacity"`
	Workers        int     `json:"Workers" yaml:"Workers"`
	WorkerCapacity float64 `json:"WorkerCapacity" yaml:"WorkerCapacity"`
	Targets        int     `json:"Targets" yaml:"Targets"`
	TargetMax      float64 `json:"TargetMax" yaml:"TargetMax"`
	JobDuration    string  `json:"JobDuration" yaml:"JobDuration"` // simulated job run time
	Rescan         string  `json:"Rescan" yaml:"Rescan"`           // node set poll interval, empty disables
}

func (c ClusterJSONConfig) String() string {
	return fmt.Sprintf("ClusterJSONConfig: Type: %s, HomeCapacity: %.1f, Workers: %d, WorkerCapacity: %.1f, Targets: %d, "+
		"TargetMax: %.0f, JobDuration: %s, Rescan: %s",
		c.Type, c.HomeCapacity, c.Workers, c.WorkerCapacity, c.Targets, c.TargetMax, c.JobDuration, c.Rescan)
}

type SchedulerJSONConfig struct {
	Type                 string             `json:"Type" yaml:"Type"` // scheduler type: stateful
	HarvestFraction      float64            `json:"HarvestFraction" yaml:"HarvestFraction"`
	BoostHarvestFraction float64            `json:"BoostHarvestFraction" yaml:"BoostHarvestFraction"`
	WorkerCategories     []string           `json:"WorkerCategories" yaml:"WorkerCategories"`
	TargetCategories     []string           `json:"TargetCategories" yaml:"TargetCategories"`
	MinResourceTier      int                `json:"MinResourceTier" yaml:"MinResourceTier"`
	MaxResourceTier      int                `json:"MaxResourceTier" yaml:"MaxResourceTier"`
	Backfill             bool               `json:"Backfill" yaml:"Backfill"`
	Throttle             bool               `json:"Throttle" yaml:"Throttle"`
	DuplicateInstances   bool               `json:"DuplicateInstances" yaml:"DuplicateInstances"`
	InstanceTag          string             `json:"InstanceTag" yaml:"InstanceTag"`
	PrivilegedWorker     string             `json:"PrivilegedWorker" yaml:"PrivilegedWorker"`
	ReservedCapacity     float64            `json:"ReservedCapacity" yaml:"ReservedCapacity"`
	UsageWindowSize      int                `json:"UsageWindowSize" yaml:"UsageWindowSize"`
	TickRate             string             `json:"TickRate" yaml:"TickRate"`
	StopTimeout          string             `json:"StopTimeout" yaml:"StopTimeout"`
	DeployTimeout        string             `json:"DeployTimeout" yaml:"DeployTimeout"`
	Costs                map[string]float64 `json:"Costs" yaml:"Costs"` // unit cost by kind name
}

func (sc SchedulerJSONConfig) String() string {
	return fmt.Sprintf("SchedulerJSONConfig: Type: %s, HarvestFraction: %.3f, BoostHarvestFraction: %.3f, Backfill: %t, "+
		"Throttle: %t, DuplicateInstances: %t, ReservedCapacity: %.1f, TickRate: %s",
		sc.Type, sc.HarvestFraction, sc.BoostHarvestFraction, sc.Backfill, sc.Throttle, sc.DuplicateInstances,
		sc.ReservedCapacity, sc.TickRate)
}

type AdminJSONConfig struct {
	Type     string `json:"Type" yaml:"Type"` // http
	Addr     string `json:"Addr" yaml:"Addr"`
	MaxConns int    `json:"MaxConns" yaml:"MaxConns"`
}

func (a AdminJSONConfig) String() string {
	return fmt.Sprintf("AdminJSONConfig: Type: %s, Addr: %s, MaxConns: %d", a.Type, a.Addr, a.MaxConns)
}

func GetConfigText(configSelector string) ([]byte, error) {
	configText, ok := SchedulerConfigs[configSelector]
	if !ok {
		keys := make([]string, 0, len(SchedulerConfigs))
		for k := range SchedulerConfigs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("invalid configuration %s, supported values are %v", configSelector, keys)
	}
	return []byte(configText), nil
}

// GetConfigs resolves source as a named config, inline JSON (starting with '{'),
// or a .json/.yaml/.yml file, filling sections without a Type from "default".
func GetConfigs(source string) (*JSONConfigs, error) {
	defaultConfigText, _ := GetConfigText("default")
	defaultConfig := &JSONConfigs{}
	if err := json.Unmarshal(defaultConfigText, defaultConfig); err != nil {
		return nil, errors.Wrap(err, "couldn't parse the default config")
	}

	configs := &JSONConfigs{}
	var err error
	switch {
	case strings.HasPrefix(strings.TrimSpace(source), "{"):
		err = json.Unmarshal([]byte(source), configs)
	case strings.HasSuffix(source, ".json"), strings.HasSuffix(source, ".yaml"), strings.HasSuffix(source, ".yml"):
		err = readConfigFile(source, configs)
	default:
		var text []byte
		if text, err = GetConfigText(source); err == nil {
			err = json.Unmarshal(text, configs)
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't parse config %s", source)
	}

	// use the default values for any sections whose type was not set
	if configs.Cluster.Type == "" {
		log.Infof("using default Cluster config")
		configs.Cluster = defaultConfig.Cluster
	}
	if configs.Scheduler.Type == "" {
		log.Infof("using default Scheduler config")
		configs.Scheduler = defaultConfig.Scheduler
	}
	if configs.Admin.Type == "" {
		log.Infof("using default Admin config")
		configs.Admin = defaultConfig.Admin
	}
	return configs, nil
}

func readConfigFile(path string, configs *JSONConfigs) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, configs)
	default:
		return json.Unmarshal(data, configs)
	}
}

func parseDuration(name, value string, into *time.Duration) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return errors.Wrapf(err, "invalid %s", name)
	}
	*into = d
	return nil
}

func (jc *SchedulerJSONConfig) CreateSchedulerConfig() (*server.SchedulerConfig, error) {
	if jc.Type != "stateful" {
		return nil, fmt.Errorf("unsupported scheduler type %q", jc.Type)
	}
	if jc.HarvestFraction <= 0 || jc.HarvestFraction > 1 {
		return nil, fmt.Errorf("HarvestFraction must be within (0, 1]: %.3f", jc.HarvestFraction)
	}
	if jc.BoostHarvestFraction < 0 || jc.BoostHarvestFraction > 1 {
		return nil, fmt.Errorf("BoostHarvestFraction must be within [0, 1], 0 disables it: %.3f", jc.BoostHarvestFraction)
	}
	if jc.ReservedCapacity < 0 {
		return nil, fmt.Errorf("reserved capacity can't be negative: %.2f", jc.ReservedCapacity)
	}

	serverConfig := &server.SchedulerConfig{
		HarvestFraction:      jc.HarvestFraction,
		BoostHarvestFraction: jc.BoostHarvestFraction,
		WorkerCategories:     jc.WorkerCategories,
		TargetCategories:     jc.TargetCategories,
		MinResourceTier:      jc.MinResourceTier,
		MaxResourceTier:      jc.MaxResourceTier,
		BackfillEnabled:      jc.Backfill,
		ThrottleEnabled:      jc.Throttle,
		DuplicateInstances:   jc.DuplicateInstances,
		InstanceTag:          jc.InstanceTag,
		PrivilegedWorker:     jc.PrivilegedWorker,
		ReservedCapacity:     jc.ReservedCapacity,
		UsageWindowSize:      jc.UsageWindowSize,
	}
	if err := parseDuration("TickRate", jc.TickRate, &serverConfig.TickRate); err != nil {
		return nil, err
	}
	if err := parseDuration("StopTimeout", jc.StopTimeout, &serverConfig.StopTimeout); err != nil {
		return nil, err
	}
	if err := parseDuration("DeployTimeout", jc.DeployTimeout, &serverConfig.DeployTimeout); err != nil {
		return nil, err
	}
	if len(jc.Costs) > 0 {
		serverConfig.Costs = domain.Costs{}
		for name, cost := range jc.Costs {
			kind, err := domain.ParseJobKind(name)
			if err != nil {
				return nil, errors.Wrap(err, "invalid Costs")
			}
			serverConfig.Costs[kind] = cost
		}
	}
	return serverConfig, nil
}

// Create builds the simulated cluster. Only the memory type exists.
func (c *ClusterJSONConfig) Create(costs domain.Costs) (*memory.Cluster, error) {
	if c.Type != "memory" {
		return nil, fmt.Errorf("unsupported cluster type %q", c.Type)
	}
	sim := memory.SimConfig{
		HomeCapacity:     c.HomeCapacity,
		PurchasedWorkers: c.Workers,
		WorkerCapacity:   c.WorkerCapacity,
		Targets:          c.Targets,
		TargetMax:        c.TargetMax,
	}
	if err := parseDuration("JobDuration", c.JobDuration, &sim.AutoComplete); err != nil {
		return nil, err
	}
	if costs == nil {
		costs = domain.DefaultCosts
	}
	return memory.NewSimCluster(sim, costs), nil
}

// RescanInterval is how often the run loop re-fetches the node pools, 0 when disabled.
func (c *ClusterJSONConfig) RescanInterval() (time.Duration, error) {
	var d time.Duration
	err := parseDuration("Rescan", c.Rescan, &d)
	return d, err
}

// AddrOrDefault and MaxConnsOrDefault fill in the admin server defaults.
func (a AdminJSONConfig) AddrOrDefault() string {
	if a.Addr == "" {
		return common.DefaultAdminAddr
	}
	return a.Addr
}

func (a AdminJSONConfig) MaxConnsOrDefault() int {
	if a.MaxConns <= 0 {
		return common.DefaultAdminMaxConns
	}
	return a.MaxConns
}
