// Package logging provides logging utilities and types for mullvad-speed.
package logging

import (
	"fmt"
	"io"
	"log"
)

// LogLevel represents logging verbosity
type LogLevel int

// Log level constants from most verbose to least verbose
const (
	LogLevelDebug   LogLevel = iota // Debug level - most verbose
	LogLevelInfo                    // Info level - informational messages
	LogLevelWarning                 // Warning level - warning messages
	LogLevelError                   // Error level - error messages only
)

func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "debug"
	case LogLevelInfo:
		return "info"
	case LogLevelWarning:
		return "warning"
	case LogLevelError:
		return "error"
	default:
		return "error"
	}
}

// ParseLogLevel parses a log level string
func ParseLogLevel(s string) (LogLevel, error) {
	switch s {
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warning":
		return LogLevelWarning, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelError, fmt.Errorf("invalid log level: %s (must be debug, info, warning, or error)", s)
	}
}

// Configure points the standard logger at w. Debug level adds microsecond
// timestamps so per-stage timings can be correlated.
func Configure(w io.Writer, level LogLevel) {
	log.SetOutput(w)
	log.SetPrefix("mullvad-speed: ")
	if level <= LogLevelDebug {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
		return
	}
	log.SetFlags(log.LstdFlags)
}
