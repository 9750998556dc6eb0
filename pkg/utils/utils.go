// Package utils provides the structured logger shared across the
// adapter, domain, and application layers.
package utils

import (
	"flag"
	"strconv"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"
)

// Logger is an alias for logr.Logger, the logger type klog/v2 returns. Every layer
// above the storage adapter takes one of these rather than printing
// directly, so verbosity and output format are controlled in one place.
type Logger = logr.Logger

// NewLogger returns a klog-backed Logger. verbosity sets the klog -v
// level; callers typically map "debug"→2, "info"→1, "warn"/"error"→0.
func NewLogger(name string, verbosity int) Logger {
	var fs flag.FlagSet
	klog.InitFlags(&fs)
	_ = fs.Set("v", strconv.Itoa(verbosity))
	return klog.Background().WithName(name)
}

// LevelForLogLevel maps the tree's "debug"/"info"/"warn"/"error"
// config string to a klog verbosity level.
func LevelForLogLevel(logLevel string) int {
	switch logLevel {
	case "debug":
		return 2
	case "info":
		return 1
	default:
		return 0
	}
}
