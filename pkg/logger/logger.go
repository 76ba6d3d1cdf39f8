// Package logger is the process-wide leveled log sink. Every line goes to
// stdout and to a size-rotated file, so a provisioning run can be audited
// after the fact without any external log shipper.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel orders message severities. Messages below the configured
// minimum are dropped.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR", "FATAL"}

// ParseLogLevel maps a LOG_LEVEL value to its constant. Unrecognized
// values fall back to INFO.
func ParseLogLevel(level string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(level)) {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	case "FATAL":
		return FATAL
	default:
		return INFO
	}
}

// Logger writes [LEVEL]-prefixed lines to one shared writer, filtered by a
// runtime-adjustable minimum level.
type Logger struct {
	sinks [len(levelNames)]*log.Logger

	mu    sync.RWMutex
	level LogLevel
}

var (
	instance *Logger
	once     sync.Once
)

// Init wires the process-wide logger at INFO with default rotation. Only
// the first Init or InitWithConfig call takes effect.
func Init(logPath string) {
	once.Do(func() {
		instance = New(logPath, INFO)
	})
}

// InitWithConfig wires the process-wide logger with an explicit level and
// rotation limits. Only the first Init or InitWithConfig call takes effect.
func InitWithConfig(logPath string, level LogLevel, maxSizeMB, maxBackups, maxAgeDays int, compress bool) {
	once.Do(func() {
		instance = NewWithConfig(logPath, level, maxSizeMB, maxBackups, maxAgeDays, compress)
	})
}

// New creates a logger with the default rotation policy: 10 MB files,
// 3 backups, 28 days retention, older files compressed.
func New(logPath string, level LogLevel) *Logger {
	return NewWithConfig(logPath, level, 10, 3, 28, true)
}

// NewWithConfig creates a logger that duplicates every line to stdout and
// to logPath, rotated by lumberjack at the given limits.
func NewWithConfig(logPath string, level LogLevel, maxSizeMB, maxBackups, maxAgeDays int, compress bool) *Logger {
	if err := os.MkdirAll(filepath.Dir(logPath), 0o755); err != nil {
		log.Fatalf("create log directory: %v", err)
	}

	out := io.MultiWriter(os.Stdout, &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   compress,
	})

	l := &Logger{level: level}
	for lv, name := range levelNames {
		l.sinks[lv] = log.New(out, "["+name+"] ", log.LstdFlags|log.Lshortfile)
	}
	return l
}

// SetLevel changes the minimum level at runtime.
func (l *Logger) SetLevel(level LogLevel) {
	l.mu.Lock()
	l.level = level
	l.mu.Unlock()
}

// GetLevel reports the current minimum level.
func (l *Logger) GetLevel() LogLevel {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.level
}

func (l *Logger) enabled(level LogLevel) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return level >= l.level
}

// write emits through the per-level sink. Calldepth 3 makes Lshortfile
// report the caller of the exported method, not this file.
func (l *Logger) write(level LogLevel, msg string) {
	if l.enabled(level) {
		l.sinks[level].Output(3, msg)
	}
}

func (l *Logger) Debug(v ...interface{}) { l.write(DEBUG, fmt.Sprint(v...)) }
func (l *Logger) Info(v ...interface{})  { l.write(INFO, fmt.Sprint(v...)) }
func (l *Logger) Warn(v ...interface{})  { l.write(WARN, fmt.Sprint(v...)) }
func (l *Logger) Error(v ...interface{}) { l.write(ERROR, fmt.Sprint(v...)) }

func (l *Logger) Debugf(format string, v ...interface{}) { l.write(DEBUG, fmt.Sprintf(format, v...)) }
func (l *Logger) Infof(format string, v ...interface{})  { l.write(INFO, fmt.Sprintf(format, v...)) }
func (l *Logger) Warnf(format string, v ...interface{})  { l.write(WARN, fmt.Sprintf(format, v...)) }
func (l *Logger) Errorf(format string, v ...interface{}) { l.write(ERROR, fmt.Sprintf(format, v...)) }

// Fatal logs at FATAL and terminates the process.
func (l *Logger) Fatal(v ...interface{}) {
	l.write(FATAL, fmt.Sprint(v...))
	os.Exit(1)
}

// Fatalf logs at FATAL and terminates the process.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.write(FATAL, fmt.Sprintf(format, v...))
	os.Exit(1)
}

// The package-level helpers forward to the shared instance and are no-ops
// before Init, so packages may log unconditionally during startup.

func Debug(v ...interface{}) {
	if instance != nil {
		instance.Debug(v...)
	}
}

func Info(v ...interface{}) {
	if instance != nil {
		instance.Info(v...)
	}
}

func Warn(v ...interface{}) {
	if instance != nil {
		instance.Warn(v...)
	}
}

func Error(v ...interface{}) {
	if instance != nil {
		instance.Error(v...)
	}
}

func Debugf(format string, v ...interface{}) {
	if instance != nil {
		instance.Debugf(format, v...)
	}
}

func Infof(format string, v ...interface{}) {
	if instance != nil {
		instance.Infof(format, v...)
	}
}

func Warnf(format string, v ...interface{}) {
	if instance != nil {
		instance.Warnf(format, v...)
	}
}

func Errorf(format string, v ...interface{}) {
	if instance != nil {
		instance.Errorf(format, v...)
	}
}

func Fatal(v ...interface{}) {
	if instance != nil {
		instance.Fatal(v...)
	}
	os.Exit(1)
}

func Fatalf(format string, v ...interface{}) {
	if instance != nil {
		instance.Fatalf(format, v...)
	}
	os.Exit(1)
}

// SetLevel adjusts the shared instance's minimum level.
func SetLevel(level LogLevel) {
	if instance != nil {
		instance.SetLevel(level)
	}
}

// GetLevel reports the shared instance's minimum level, INFO before Init.
func GetLevel() LogLevel {
	if instance != nil {
		return instance.GetLevel()
	}
	return INFO
}
