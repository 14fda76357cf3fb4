package config

// SchedulerConfigs the map of available configurations.
// Sections whose Type is empty take their values from "default".
var SchedulerConfigs = map[string]string{
	"default":      defaultConfig,
	"local.memory": localMemoryConfig,
}

const defaultConfig = `{
	"Cluster": {
		"Type": "memory",
		"HomeCapacity": 64,
		"Workers": 4,
		"WorkerCapacity": 32,
		"Targets": 6,
		"TargetMax": 1000000,
		"JobDuration": "2s",
		"Rescan": "10s"
	},
	"Scheduler": {
		"Type": "stateful",
		"HarvestFraction": 0.1,
		"Throttle": true,
		"PrivilegedWorker": "home",
		"ReservedCapacity": 8,
		"UsageWindowSize": 20,
		"TickRate": "250ms",
		"StopTimeout": "10s",
		"DeployTimeout": "30s"
	},
	"Admin": {
		"Type": "http",
		"Addr": "localhost:9091",
		"MaxConns": 64
	}
}`

// a quick cycling cluster for trying things out
const localMemoryConfig = `{
	"Cluster": {
		"Type": "memory",
		"HomeCapacity": 32,
		"Workers": 2,
		"WorkerCapacity": 16,
		"Targets": 3,
		"TargetMax": 1000,
		"JobDuration": "200ms"
	},
	"Scheduler": {
		"Type": "stateful",
		"HarvestFraction": 0.1,
		"BoostHarvestFraction": 0.2,
		"Backfill": true,
		"Throttle": true,
		"DuplicateInstances": true,
		"InstanceTag": "local",
		"ReservedCapacity": 4,
		"UsageWindowSize": 10,
		"TickRate": "100ms"
	}
}`
