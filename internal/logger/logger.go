// Package logger traces the rag pipeline on stderr.
//
// Services open a stage (loading, indexing, retrieval, generation) with
// Stage and report details with Debug. Nothing but Error is printed
// unless --verbose is set.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose reports whether verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// logf writes one prefixed line. Lines without always are dropped unless
// verbose mode is on.
func logf(always bool, prefix, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if always || verbose {
		fmt.Fprintf(output, prefix+format+"\n", args...)
	}
}

// Debug traces a pipeline detail.
func Debug(format string, args ...any) {
	logf(false, "[DEBUG] ", format, args...)
}

// Info reports progress worth seeing in verbose mode.
func Info(format string, args ...any) {
	logf(false, "[INFO] ", format, args...)
}

// Warn reports a recoverable problem, such as a skipped file.
func Warn(format string, args ...any) {
	logf(false, "[WARN] ", format, args...)
}

// Error reports a failure. It is printed even without --verbose.
func Error(format string, args ...any) {
	logf(true, "[ERROR] ", format, args...)
}

// Section prints a stage header.
func Section(name string) {
	logf(false, "\n=== ", "%s ===", name)
}

// Stage prints a stage header and returns a func that logs the stage
// duration, meant to be deferred:
//
//	defer logger.Stage("Indexing")()
func Stage(name string) func() {
	Section(name)
	start := time.Now()
	return func() {
		Debug("%s finished in %s", name, time.Since(start).Round(time.Millisecond))
	}
}
