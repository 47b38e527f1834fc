package common

import (
	"runtime"
	"time"
)

// Version is a placeholder overridden at build time via -ldflags.
var Version = "0.9.0"

const (
	Name = "divvy"

	Platform = runtime.GOOS

	// filenames
	LogFileName        = "divvy.log"
	DefaultHTTPTimeout = 30 * time.Second
)
