// Package log configures the process-wide logrus logger.
package log

import (
	"os"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/4rg0n/bitburner-sub000/common/log/hooks"
)

// LevelEnv overrides the level passed to Configure, mostly for tests.
const LevelEnv = "HARVEST_LOGLEVEL"

var hookOnce sync.Once

// Configure sets the logrus level, adds the context hook once and selects the formatter.
func Configure(level string, json bool) error {
	if env := os.Getenv(LevelEnv); env != "" {
		level = env
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	log.SetLevel(lvl)
	hookOnce.Do(func() { log.AddHook(hooks.NewContextHook()) })
	if json {
		log.SetFormatter(&log.JSONFormatter{})
	}
	return nil
}
