// Package logger is docflow's process-wide logger.
//
// Debug, Info, Warn and Section print only in verbose mode (--verbose).
// Error always prints. The long-running serve commands turn on timestamps
// so each line can be matched against request logs.
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

// IsVerbose reports whether verbose mode is on.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetTimestamps prefixes each line with an RFC3339 UTC timestamp.
func SetTimestamps(on bool) {
	mu.Lock()
	defer mu.Unlock()
	timestamps = on
}

// SetOutput redirects log output. Defaults to os.Stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

func Debug(format string, args ...any) { logf("DEBUG", false, format, args...) }

func Info(format string, args ...any) { logf("INFO", false, format, args...) }

func Warn(format string, args ...any) { logf("WARN", false, format, args...) }

// Error prints regardless of verbose mode.
func Error(format string, args ...any) { logf("ERROR", true, format, args...) }

// Section prints a "=== name ===" header in verbose mode.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n%s=== %s ===\n", stamp(), name)
	}
}

func logf(level string, always bool, format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if !always && !verbose {
		return
	}
	fmt.Fprintf(output, "%s[%s] %s\n", stamp(), level, fmt.Sprintf(format, args...))
}

// stamp returns the timestamp prefix. Caller holds mu.
func stamp() string {
	if !timestamps {
		return ""
	}
	return now().UTC().Format(time.RFC3339) + " "
}
