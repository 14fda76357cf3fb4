package common

import (
	"time"
)

// How often the scheduler loop steps by default.
const DefaultTickRate = 250 * time.Millisecond

// Number of load samples the throttle looks at.
const DefaultUsageWindowSize = 20

// How long cleanup waits for a stopped job to disappear from a worker.
const DefaultStopTimeout = 10 * time.Second

// How long to keep retrying a deploy to the worker pool.
const DefaultDeployTimeout = 30 * time.Second

const DefaultRunnerCacheSize = 4096

const DefaultAdminAddr = "localhost:9091"
const DefaultAdminMaxConns = 64
