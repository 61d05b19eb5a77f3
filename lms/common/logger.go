package common

import goLog "log"

// Logger receives progress diagnostics from key generation and persistence.
// The package is silent by default; callers opt in with SetLogger.
type Logger interface {
	Logf(format string, a ...interface{})
}

type dummyLogger struct{}

func (*dummyLogger) Logf(format string, a ...interface{}) {}

type stdlibLogger struct{}

func (*stdlibLogger) Logf(format string, a ...interface{}) {
	goLog.Printf(format, a...)
}

var log Logger = &dummyLogger{}

// EnableLogging routes diagnostics to the standard log package.
func EnableLogging() {
	SetLogger(&stdlibLogger{})
}

// SetLogger installs logger as the destination for diagnostics, or
// silences them again if logger is nil.
func SetLogger(logger Logger) {
	if logger == nil {
		log = &dummyLogger{}
		return
	}
	log = logger
}

// Logf emits a diagnostic through the installed Logger.
func Logf(format string, a ...interface{}) {
	log.Logf(format, a...)
}
