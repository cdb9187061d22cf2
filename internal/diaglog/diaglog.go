// Package diaglog provides a rotating diagnostic log for ProntoDB
// invocations. It never writes to stdout/stderr — those are reserved for
// command output and error text — and is tunable entirely through
// environment variables, the same way the daemon's log file was in the
// teacher CLI.
package diaglog

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a rotating log file with a simple printf-style API.
type Logger struct {
	out *lumberjack.Logger
}

// Open creates a rotating diagnostic logger writing to path. Rotation
// parameters are read from environment variables so an operator can tune
// them without a config file:
//
//	PRONTO_DIAG_LOG_MAX_SIZE     megabytes before rotation (default 10)
//	PRONTO_DIAG_LOG_MAX_BACKUPS  rotated files kept (default 3)
//	PRONTO_DIAG_LOG_MAX_AGE      days before a rotated file is pruned (default 7)
//	PRONTO_DIAG_LOG_COMPRESS     gzip rotated files (default true)
func Open(path string) *Logger {
	return &Logger{out: &lumberjack.Logger{
		Filename:   path,
		MaxSize:    getEnvInt("PRONTO_DIAG_LOG_MAX_SIZE", 10),
		MaxBackups: getEnvInt("PRONTO_DIAG_LOG_MAX_BACKUPS", 3),
		MaxAge:     getEnvInt("PRONTO_DIAG_LOG_MAX_AGE", 7),
		Compress:   getEnvBool("PRONTO_DIAG_LOG_COMPRESS", true),
	}}
}

// Printf writes a timestamped line to the rotating log.
func (l *Logger) Printf(format string, args ...interface{}) {
	if l == nil || l.out == nil {
		return
	}
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	_, _ = fmt.Fprintf(l.out, "[%s] %s\n", timestamp, msg)
}

// Close flushes and closes the underlying log file.
func (l *Logger) Close() error {
	if l == nil || l.out == nil {
		return nil
	}
	return l.out.Close()
}

func getEnvInt(key string, defaultValue int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultValue
}
