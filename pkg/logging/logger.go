/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: logger.go
Description: Logging system for protocarve. Wraps logrus with level and format
selection, an optional timestamped log file, and helpers for the events a carving run
produces. Console output goes to stderr because stdout carries rendered schemas.
*/

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kleascm/protocarve/pkg/carve"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warn"
	LogLevelError   LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatJSON   LogFormat = "json"
	LogFormatText   LogFormat = "text"
	LogFormatCustom LogFormat = "custom"
)

// logFilePrefix names every log file written under OutputDir.
const logFilePrefix = "protocarve_"

// LoggerConfig holds the configuration for the logger
type LoggerConfig struct {
	Level     LogLevel  `json:"level"`
	Format    LogFormat `json:"format"`
	OutputDir string    `json:"output_dir"` // empty disables the log file
	MaxFiles  int       `json:"max_files"`
	Timestamp bool      `json:"timestamp"`
	Caller    bool      `json:"caller"`
	Colors    bool      `json:"colors"`
	Compress  bool      `json:"compress"` // gzip pruned-but-kept files

	// Console receives console output. Defaults to stderr.
	Console io.Writer `json:"-"`
}

// DefaultLoggerConfig returns console-only logging at info level.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:     LogLevelInfo,
		Format:    LogFormatCustom,
		MaxFiles:  10,
		Timestamp: true,
		Colors:    false,
	}
}

// Validate checks the LoggerConfig for invalid or missing values.
func (c *LoggerConfig) Validate() error {
	if c.OutputDir != "" && c.MaxFiles <= 0 {
		return fmt.Errorf("max_files must be positive when a log directory is set")
	}
	switch c.Format {
	case LogFormatJSON, LogFormatText, LogFormatCustom:
		// ok
	default:
		return fmt.Errorf("unsupported log format: %s", c.Format)
	}
	switch c.Level {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		// ok
	default:
		return fmt.Errorf("unsupported log level: %s", c.Level)
	}
	return nil
}

// Logger provides logging for a carving run. Entries are written
// synchronously so they interleave correctly with rendered output.
type Logger struct {
	config     *LoggerConfig
	logger     *logrus.Logger
	console    io.Writer
	fileHandle *os.File
	filePath   string
	startTime  time.Time
}

// NewLogger creates a new logger instance
func NewLogger(config *LoggerConfig) (*Logger, error) {
	if config == nil {
		config = DefaultLoggerConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	l := &Logger{
		config:    config,
		logger:    logrus.New(),
		startTime: time.Now(),
	}

	if err := l.setup(); err != nil {
		return nil, fmt.Errorf("failed to setup logger: %w", err)
	}

	return l, nil
}

// setup configures the logger with the given configuration
func (l *Logger) setup() error {
	level, err := logrus.ParseLevel(string(l.config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.logger.SetLevel(level)
	l.logger.SetReportCaller(l.config.Caller)

	if err := l.setFormatter(); err != nil {
		return err
	}

	l.console = l.config.Console
	if l.console == nil {
		l.console = os.Stderr
	}
	l.logger.SetOutput(l.console)

	return l.setupFileOutput()
}

// setFormatter configures the log formatter
func (l *Logger) setFormatter() error {
	switch l.config.Format {
	case LogFormatJSON:
		l.logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				filename := filepath.Base(f.File)
				return "", fmt.Sprintf("%s:%d", filename, f.Line)
			},
		})

	case LogFormatText:
		l.logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   l.config.Timestamp,
			TimestampFormat: time.RFC3339,
			ForceColors:     l.config.Colors,
			DisableColors:   !l.config.Colors,
			CallerPrettyfier: func(f *runtime.Frame) (string, string) {
				filename := filepath.Base(f.File)
				return "", fmt.Sprintf("%s:%d", filename, f.Line)
			},
		})

	case LogFormatCustom:
		l.logger.SetFormatter(&CarveFormatter{
			CustomFormatter: CustomFormatter{
				Timestamp: l.config.Timestamp,
				Caller:    l.config.Caller,
				Colors:    l.config.Colors,
			},
		})

	default:
		return fmt.Errorf("unsupported log format: %s", l.config.Format)
	}

	return nil
}

// setupFileOutput adds a timestamped log file next to the console output
func (l *Logger) setupFileOutput() error {
	if l.config.OutputDir == "" {
		return nil
	}

	if err := os.MkdirAll(l.config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := l.startTime.Format("2006-01-02_15-04-05.000000")
	path := filepath.Join(l.config.OutputDir, logFilePrefix+timestamp+".log")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.fileHandle = file
	l.filePath = path
	l.logger.SetOutput(io.MultiWriter(l.console, file))

	l.logger.WithFields(logrus.Fields{
		"start_time": l.startTime.Format(time.RFC3339),
		"log_file":   path,
		"level":      l.config.Level,
		"format":     l.config.Format,
	}).Debug("Logging initialized")

	return nil
}

// Carving-specific logging methods

// LogRecord logs a recovered record
func (l *Logger) LogRecord(m carve.Match, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["name"] = m.Record.Name
	fields["offset"] = m.Offset
	fields["length"] = m.Length
	fields["source"] = m.Source

	l.logger.WithFields(fields).Info("Record recovered")
}

// LogOutput logs a schema written to its destination
func (l *Logger) LogOutput(name string, destination string, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["name"] = name
	fields["destination"] = destination

	l.logger.WithFields(fields).Debug("Schema written")
}

// LogStats logs the statistics of one scanned input
func (l *Logger) LogStats(input string, stats carve.Stats, duration time.Duration, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["input"] = input
	fields["markers"] = stats.Markers
	fields["signatures"] = stats.Signatures
	fields["records"] = stats.Records
	fields["duplicates"] = stats.Duplicates
	fields["rejected"] = stats.PathRejected + stats.LengthRejected + stats.DecodeFailures + stats.DecompressFailures
	fields["duration"] = duration
	fields["uptime"] = time.Since(l.startTime)

	l.logger.WithFields(fields).Info("Scan statistics")
}

// Close closes the log file and prunes old ones
func (l *Logger) Close() error {
	if l.fileHandle == nil {
		return nil
	}
	l.logger.SetOutput(l.console)
	if err := l.fileHandle.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	l.fileHandle = nil

	manager := NewLogManager(l.config.OutputDir, l.config.MaxFiles, l.config.Compress)
	if err := manager.CleanupOldLogs(l.filePath); err != nil {
		return fmt.Errorf("failed to cleanup log files: %w", err)
	}

	return nil
}

// GetLogger returns the underlying logrus logger
func (l *Logger) GetLogger() *logrus.Logger {
	return l.logger
}

// FilePath returns the log file in use, or "" when logging to the console only.
func (l *Logger) FilePath() string {
	return l.filePath
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Debug(msg)
}

// Info logs an info message
func (l *Logger) Info(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Info(msg)
}

// Warning logs a warning message
func (l *Logger) Warning(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Warn(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, fields map[string]interface{}) {
	l.logger.WithFields(fields).Error(msg)
}
