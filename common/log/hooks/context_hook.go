package hooks

import (
	"runtime"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

const modulePrefix = "bitburner-sub000/"

// the hook's own methods, by function name so callers living in this package still count
var hookFuncs = []string{"log/hooks.contextHook.", "log/hooks.(*contextHook)."}

func isHookFunc(function string) bool {
	for _, f := range hookFuncs {
		if strings.Contains(function, f) {
			return true
		}
	}
	return false
}

type contextHook struct{}

// NewContextHook returns a hook that adds the caller's "file:line" to every entry.
func NewContextHook() log.Hook {
	return contextHook{}
}

func (hook contextHook) Levels() []log.Level {
	return log.AllLevels
}

// Fire walks up the stack past logrus frames and records the first caller in our module.
func (hook contextHook) Fire(entry *log.Entry) error {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	frames := runtime.CallersFrames(pcs[:n])
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.Function, "sirupsen/logrus") && !isHookFunc(frame.Function) {
			file := frame.File
			if idx := strings.LastIndex(file, modulePrefix); idx >= 0 {
				file = file[idx+len(modulePrefix):]
			}
			entry.Data["file:line"] = file + ":" + strconv.Itoa(frame.Line)
			return nil
		}
		if !more {
			return nil
		}
	}
}
