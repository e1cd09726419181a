package logging

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Log level constants
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

var levels = []string{LevelDebug, LevelInfo, LevelWarn, LevelError}

var (
	mu           sync.RWMutex
	currentLevel = LevelInfo
	logger       = log.New(io.Discard, "", log.Ldate|log.Ltime|log.Lmicroseconds)
)

// SetLevel sets the global logging level. Unknown names select info.
func SetLevel(level string) {
	level = strings.ToLower(strings.TrimSpace(level))
	if levelIndex(level) < 0 {
		level = LevelInfo
	}
	mu.Lock()
	currentLevel = level
	mu.Unlock()
}

// SetOutput redirects log output. Logging is discarded until it is called,
// since the terminal belongs to the preview.
func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// OpenFile appends log output to path, creating parent directories.
// The returned file must be closed by the caller.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, err
	}
	SetOutput(f)
	return f, nil
}

// DefaultPath is the log file used when none is configured.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "rolf.log")
	}
	return filepath.Join(home, ".local", "share", "rolf", "rolf.log")
}

// Debug logs a debug message
func Debug(format string, args ...interface{}) {
	if shouldLog(LevelDebug) {
		logger.Printf("[DEBUG] "+format, args...)
	}
}

// Info logs an info message
func Info(format string, args ...interface{}) {
	if shouldLog(LevelInfo) {
		logger.Printf("[INFO] "+format, args...)
	}
}

// Warn logs a warning message
func Warn(format string, args ...interface{}) {
	if shouldLog(LevelWarn) {
		logger.Printf("[WARN] "+format, args...)
	}
}

// Error logs an error message
func Error(format string, args ...interface{}) {
	if shouldLog(LevelError) {
		logger.Printf("[ERROR] "+format, args...)
	}
}

func levelIndex(level string) int {
	for i, l := range levels {
		if l == level {
			return i
		}
	}
	return -1
}

func shouldLog(level string) bool {
	mu.RLock()
	cur := currentLevel
	mu.RUnlock()
	return levelIndex(level) >= levelIndex(cur)
}
