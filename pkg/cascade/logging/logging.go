// Package logging provides component loggers for cascade on top of
// charmbracelet/log.
//
// Basic usage:
//
//	cfg := logging.Config{
//	    Level:        "info",
//	    Path:         logging.DefaultLogPath(),
//	    ConsoleLevel: "info",
//	}
//	if err := logging.Init(cfg); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Close()
//
//	logger := logging.Get("extractor")
//	logger.Info("extracted", "archive", "/data/in/movie.part1.rar")
//
// Until Init is called every logger writes to io.Discard.
package logging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/adrg/xdg"
	"github.com/charmbracelet/log"
)

// Level represents a logging level.
type Level int

// Log levels from least to most severe.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) charm() log.Level {
	switch l {
	case LevelDebug:
		return log.DebugLevel
	case LevelWarn:
		return log.WarnLevel
	case LevelError:
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// ErrInvalidLevel is returned when an invalid log level string is provided.
var ErrInvalidLevel = errors.New("invalid log level")

// ParseLevel parses a string into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
}

// Config configures the logging system.
type Config struct {
	// Level is the default file log level (debug, info, warn, error).
	Level string

	// Path is the log file path. Empty disables the log file.
	Path string

	// MaxSize is the size in bytes at which the log file is rolled over.
	// Zero uses DefaultMaxSize.
	MaxSize int64

	// MaxBackups is the number of rolled-over files kept next to Path.
	MaxBackups int

	// Components maps component names to level overrides.
	Components map[string]string

	// ConsoleLevel enables stderr output at the given level. Empty
	// disables console output.
	ConsoleLevel string

	// Console replaces stderr as the console destination. Used by tests.
	Console io.Writer
}

// Logger writes one component's messages to the log file and, when
// enabled, to the console.
type Logger struct {
	file    *log.Logger
	console *log.Logger
}

// Debug logs a debug message.
func (l *Logger) Debug(msg string, args ...any) {
	l.file.Debug(msg, args...)
	if l.console != nil {
		l.console.Debug(msg, args...)
	}
}

// Info logs an info message.
func (l *Logger) Info(msg string, args ...any) {
	l.file.Info(msg, args...)
	if l.console != nil {
		l.console.Info(msg, args...)
	}
}

// Warn logs a warning message.
func (l *Logger) Warn(msg string, args ...any) {
	l.file.Warn(msg, args...)
	if l.console != nil {
		l.console.Warn(msg, args...)
	}
}

// Error logs an error message.
func (l *Logger) Error(msg string, args ...any) {
	l.file.Error(msg, args...)
	if l.console != nil {
		l.console.Error(msg, args...)
	}
}

// With returns a logger that adds args to every message.
func (l *Logger) With(args ...any) *Logger {
	out := &Logger{file: l.file.With(args...)}
	if l.console != nil {
		out.console = l.console.With(args...)
	}
	return out
}

type state struct {
	mu          sync.RWMutex
	initialized bool
	writer      *RollingFile
	level       Level
	components  map[string]Level
	loggers     map[string]*Logger

	console      io.Writer
	consoleLevel Level
}

var global = &state{
	loggers:    make(map[string]*Logger),
	components: make(map[string]Level),
}

// Init configures the logging system. Calling it again replaces the
// previous configuration, including loggers already handed out by Get.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("parsing log level: %w", err)
	}

	components := make(map[string]Level, len(cfg.Components))
	for comp, lvl := range cfg.Components {
		parsed, err := ParseLevel(lvl)
		if err != nil {
			return fmt.Errorf("parsing level for component %s: %w", comp, err)
		}
		components[comp] = parsed
	}

	var (
		console      io.Writer
		consoleLevel Level
	)
	if cfg.ConsoleLevel != "" {
		consoleLevel, err = ParseLevel(cfg.ConsoleLevel)
		if err != nil {
			return fmt.Errorf("parsing console level: %w", err)
		}
		console = cfg.Console
		if console == nil {
			console = os.Stderr
		}
	}

	var writer *RollingFile
	if cfg.Path != "" {
		writer, err = OpenRollingFile(cfg.Path, cfg.MaxSize, cfg.MaxBackups)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if global.writer != nil {
		if err := global.writer.Close(); err != nil {
			return fmt.Errorf("closing previous log file: %w", err)
		}
	}

	global.level = level
	global.components = components
	global.console = console
	global.consoleLevel = consoleLevel
	global.writer = writer
	global.initialized = true

	for component, logger := range global.loggers {
		*logger = *newLogger(component)
	}
	return nil
}

// Get returns the logger for component. Loggers are cached, and a logger
// obtained before Init starts writing once Init is called.
func Get(component string) *Logger {
	global.mu.RLock()
	logger, ok := global.loggers[component]
	global.mu.RUnlock()
	if ok {
		return logger
	}

	global.mu.Lock()
	defer global.mu.Unlock()

	if logger, ok := global.loggers[component]; ok {
		return logger
	}
	logger = newLogger(component)
	global.loggers[component] = logger
	return logger
}

// newLogger must be called with global.mu held.
func newLogger(component string) *Logger {
	level := global.level
	if l, ok := global.components[component]; ok {
		level = l
	}

	var out io.Writer = io.Discard
	if global.initialized && global.writer != nil {
		out = global.writer
	}

	logger := &Logger{
		file: log.NewWithOptions(out, log.Options{
			Level:           level.charm(),
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          component,
		}),
	}

	if global.initialized && global.console != nil {
		consoleLevel := global.consoleLevel
		if l, ok := global.components[component]; ok && l < consoleLevel {
			consoleLevel = l
		}
		logger.console = log.NewWithOptions(global.console, log.Options{
			Level:           consoleLevel.charm(),
			ReportTimestamp: true,
			TimeFormat:      "15:04:05",
			Prefix:          component,
		})
	}

	return logger
}

// Close flushes and closes the log file and silences every logger.
func Close() error {
	global.mu.Lock()
	defer global.mu.Unlock()

	if !global.initialized {
		return nil
	}

	var err error
	if global.writer != nil {
		err = global.writer.Close()
		global.writer = nil
	}

	global.initialized = false
	global.console = nil
	global.components = make(map[string]Level)
	for component, logger := range global.loggers {
		*logger = *newLogger(component)
	}

	if err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}

// DefaultLogPath returns $XDG_STATE_HOME/cascade/cascade.log.
func DefaultLogPath() string {
	return filepath.Join(xdg.StateHome, "cascade", "cascade.log")
}
