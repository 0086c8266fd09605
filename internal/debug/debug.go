package debug

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// DebugOutput logs a trace line if debugging is enabled
func DebugOutput(log *zap.SugaredLogger, enabled bool, format string, args ...interface{}) {
	if enabled && log != nil {
		log.Debug(fmt.Sprintf(format, args...))
	}
}

// DebugTiming measures and logs execution time if debugging is enabled
func DebugTiming(log *zap.SugaredLogger, enabled bool, operation string) func() {
	if !enabled || log == nil {
		return func() {}
	}

	start := time.Now()
	DebugOutput(log, enabled, "Starting: %s", operation)

	return func() {
		DebugOutput(log, enabled, "Completed: %s (took %v)", operation, time.Since(start))
	}
}

// Row formats fixed-width columns the way the match trace lines are printed.
func Row(id, baseName, otherName string, score int) string {
	return fmt.Sprintf("%-5s %-38s %-38s %d", id, baseName, otherName, score)
}
