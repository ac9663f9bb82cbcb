// Package logger provides verbose logging for reportrag.
// When verbose mode is enabled via the --verbose flag, debug messages
// are printed to stderr so users can follow ingestion and retrieval.
// Errors are always printed.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu         sync.RWMutex
	verbose    bool
	timestamps bool
	output     io.Writer = os.Stderr
	now                  = time.Now
)

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes every line with a UTC time. Long-running
// commands such as watch and mcp serve turn this on.
func SetTimestamps(v bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = v
}

// SetOutput sets the output writer. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func logf(level string, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !verbose && !always {
		return
	}
	prefix := ""
	if timestamps {
		prefix = now().UTC().Format("2006-01-02T15:04:05Z ")
	}
	fmt.Fprintf(output, prefix+"["+level+"] "+format+"\n", args...)
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) { logf("DEBUG", false, format, args...) }

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) { logf("INFO", false, format, args...) }

// Warn prints a warning message if verbose mode is enabled.
func Warn(format string, args ...any) { logf("WARN", false, format, args...) }

// Error prints an error message regardless of verbose mode.
func Error(format string, args ...any) { logf("ERROR", true, format, args...) }

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Timed logs how long a stage took when the returned func runs:
//
//	defer logger.Timed("embed chunks")()
func Timed(stage string) func() {
	start := now()
	return func() {
		Debug("%s took %s", stage, now().Sub(start).Round(time.Millisecond))
	}
}
