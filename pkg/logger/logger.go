// Package logger provides the file-backed global logger used across the
// capture and stitch pipeline.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync"
)

var (
	globalLogger *log.Logger
	logFile      *os.File
	verbose      bool
	mu           sync.Mutex
)

// Init initializes the global logger with the specified log file path.
func Init(logPath string) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
	}

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	logFile = f
	globalLogger = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// SetVerbose enables echoing of Info/Warn/Error lines to stderr, for
// interactive CLI runs.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// Close closes the log file.
func Close() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logFile.Close()
		logFile = nil
		globalLogger = nil
	}
}

func emit(level, format string, v ...interface{}) {
	mu.Lock()
	defer mu.Unlock()

	if globalLogger != nil {
		globalLogger.Printf("["+level+"] "+format, v...)
	}
	if verbose && level != "DEBUG" {
		fmt.Fprintf(os.Stderr, "["+level+"] "+format+"\n", v...)
	}
}

// Debug logs a debug message.
func Debug(format string, v ...interface{}) {
	emit("DEBUG", format, v...)
}

// Info logs an info message.
func Info(format string, v ...interface{}) {
	emit("INFO", format, v...)
}

// Warn logs a warning message.
func Warn(format string, v ...interface{}) {
	emit("WARN", format, v...)
}

// Error logs an error message.
func Error(format string, v ...interface{}) {
	emit("ERROR", format, v...)
}

// GetWriter returns the underlying writer for use by drivers.
func GetWriter() io.Writer {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		return logFile
	}
	return io.Discard
}
