package avestream

import "log"

var pkgLogger Logger = log.Default()

// Logger is the minimal logging interface used by the package. Both
// *log.Logger and *zerolog.Logger satisfy it.
//
// Messages are prefixed with "WARNING: " or "ERROR: " when they are
// more than informational, so adapters can map them to levels.
type Logger interface {
	Printf(format string, v ...any)
}

// Sets the package-wide logger used by pipelines that don't configure their
// own [Options.Logger]. A nil logger discards everything.
func SetLogger(logger Logger) {
	if logger == nil {
		logger = discardLogger{}
	}
	pkgLogger = logger
}

type discardLogger struct{}

func (discardLogger) Printf(string, ...any) {}
