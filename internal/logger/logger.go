package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/nabilhasan01/CSE499A/internal/config"
)

// Log levels, lowest first.
const (
	DEBUG = "debug"
	INFO  = "info"
	WARN  = "warn"
	ERROR = "error"
)

var levels = map[string]int{DEBUG: 0, INFO: 1, WARN: 2, ERROR: 3}

var (
	mu        sync.Mutex
	out       = log.New(os.Stdout, "", log.LstdFlags)
	errOut    = log.New(os.Stderr, "", log.LstdFlags)
	threshold = levels[INFO]
	logFile   *os.File
)

// Init configures the global loggers. name tags every line, so the
// three binaries can share one log file.
func Init(name string, cfg config.LoggingConfig) error {
	mu.Lock()
	defer mu.Unlock()

	lvl, ok := levels[strings.ToLower(cfg.LogLevel)]
	if !ok {
		lvl = levels[INFO]
	}
	threshold = lvl

	var stdout, stderr io.Writer = io.Discard, io.Discard
	if cfg.LogToConsole {
		stdout, stderr = os.Stdout, os.Stderr
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file %s: %w", cfg.LogFile, err)
		}
		logFile = f
		stdout = io.MultiWriter(stdout, f)
		stderr = io.MultiWriter(stderr, f)
	}

	prefix := ""
	if name != "" {
		prefix = "[" + name + "] "
	}
	out = log.New(stdout, prefix, log.LstdFlags)
	errOut = log.New(stderr, prefix, log.LstdFlags)

	out.Printf("=== Session started at %s ===", time.Now().Format("2006-01-02 15:04:05"))
	if logFile != nil {
		out.Printf("Log file: %s", logFile.Name())
	}
	out.Printf("Log level: %s", cfg.LogLevel)
	return nil
}

// Close writes the session footer and closes the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()

	out.Printf("=== Session ended at %s ===", time.Now().Format("2006-01-02 15:04:05"))
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// SetOutput redirects all levels to w. Used by tests.
func SetOutput(w io.Writer, level string) {
	mu.Lock()
	defer mu.Unlock()

	out = log.New(w, "", 0)
	errOut = log.New(w, "", 0)
	if lvl, ok := levels[level]; ok {
		threshold = lvl
	}
}

// loggerFor returns the logger for level, or nil when level is below the
// threshold.
func loggerFor(level string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()
	if levels[level] < threshold {
		return nil
	}
	if level == ERROR {
		return errOut
	}
	return out
}

func Debugf(format string, v ...interface{}) {
	if l := loggerFor(DEBUG); l != nil {
		l.Printf("DEBUG: "+format, v...)
	}
}

func Printf(format string, v ...interface{}) {
	if l := loggerFor(INFO); l != nil {
		l.Printf(format, v...)
	}
}

func Println(v ...interface{}) {
	if l := loggerFor(INFO); l != nil {
		l.Println(v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if l := loggerFor(WARN); l != nil {
		l.Printf("WARN: "+format, v...)
	}
}

// Errorf is always logged regardless of level.
func Errorf(format string, v ...interface{}) {
	loggerFor(ERROR).Printf("ERROR: "+format, v...)
}

// Fatalf logs, closes the log file and exits.
func Fatalf(format string, v ...interface{}) {
	loggerFor(ERROR).Printf("FATAL: "+format, v...)
	Close()
	os.Exit(1)
}

// LogResult logs the outcome of one operation.
func LogResult(operation string, success bool, details string) {
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	if details != "" {
		Printf("%s: %s - %s", operation, status, details)
		return
	}
	Printf("%s: %s", operation, status)
}
