package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogCategory represents different log categories
type LogCategory string

const (
	CategoryDedup LogCategory = "dedup" // Dedup decisions and sweeps (JSON)
	CategoryError LogCategory = "error" // Application errors (JSON)
)

// Categories lists every category written by MultiLogger
var Categories = []LogCategory{CategoryDedup, CategoryError}

// categoryLogger is a logger bound to one open log file
type categoryLogger struct {
	logger *zap.Logger
	file   *os.File
}

// MultiLogger provides categorized logging with separate daily output files
type MultiLogger struct {
	loggers     map[LogCategory]*categoryLogger
	config      MultiLoggerConfig
	level       zapcore.Level
	mu          sync.RWMutex
	currentDate string // date suffix of the open files
	now         func() time.Time
}

// MultiLoggerConfig contains configuration for multi-output logging
type MultiLoggerConfig struct {
	Level   string // debug, info, warn, error
	LogsDir string // Directory for log files
}

// NewMultiLogger creates a new multi-output logger
func NewMultiLogger(config MultiLoggerConfig) (*MultiLogger, error) {
	if config.LogsDir == "" {
		return nil, fmt.Errorf("logs_dir must be specified")
	}

	if err := os.MkdirAll(config.LogsDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create logs directory: %w", err)
	}

	level, err := zapcore.ParseLevel(config.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	ml := &MultiLogger{
		loggers: make(map[LogCategory]*categoryLogger),
		config:  config,
		level:   level,
		now:     time.Now,
	}

	if err := ml.openLocked(ml.now().Format("20060102")); err != nil {
		return nil, err
	}

	return ml, nil
}

// openLocked opens one file per category for date. Must be called with mu held
// or before the logger is shared.
func (ml *MultiLogger) openLocked(date string) error {
	loggers := make(map[LogCategory]*categoryLogger, len(Categories))
	for _, category := range Categories {
		level := ml.level
		if category == CategoryError {
			level = zapcore.ErrorLevel
		}
		cl, err := ml.createStructuredLogger(category, date, level)
		if err != nil {
			for _, opened := range loggers {
				opened.file.Close()
			}
			return fmt.Errorf("failed to create %s logger: %w", category, err)
		}
		loggers[category] = cl
	}

	for _, old := range ml.loggers {
		old.logger.Sync()
		old.file.Close()
	}
	ml.loggers = loggers
	ml.currentDate = date
	return nil
}

// createStructuredLogger creates a JSON-formatted logger for a category
func (ml *MultiLogger) createStructuredLogger(category LogCategory, date string, level zapcore.Level) (*categoryLogger, error) {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "ts"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.MessageKey = "msg"
	encoderConfig.LevelKey = "level"
	encoderConfig.CallerKey = ""

	encoder := zapcore.NewJSONEncoder(encoderConfig)

	logPath := CategoryLogPath(ml.config.LogsDir, category, date)
	file, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(file), level)
	return &categoryLogger{logger: zap.New(core), file: file}, nil
}

// CategoryLogPath returns the log file path of a category for a yyyymmdd date
func CategoryLogPath(logsDir string, category LogCategory, date string) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s-%s.log", category, date))
}

// GetLogsDir returns the logs directory path
func (ml *MultiLogger) GetLogsDir() string {
	return ml.config.LogsDir
}

// GetLogger returns the structured logger for a specific category, switching
// to a new file when the date has changed
func (ml *MultiLogger) GetLogger(category LogCategory) *zap.Logger {
	date := ml.now().Format("20060102")

	ml.mu.RLock()
	if date == ml.currentDate {
		logger := ml.lookupLocked(category)
		ml.mu.RUnlock()
		return logger
	}
	ml.mu.RUnlock()

	ml.mu.Lock()
	defer ml.mu.Unlock()
	if date != ml.currentDate {
		// Keep writing to the old files if rotation fails
		ml.openLocked(date)
	}
	return ml.lookupLocked(category)
}

func (ml *MultiLogger) lookupLocked(category LogCategory) *zap.Logger {
	if cl, ok := ml.loggers[category]; ok {
		return cl.logger
	}
	return ml.loggers[CategoryError].logger
}

// Dedup returns the dedup event logger (JSON format)
func (ml *MultiLogger) Dedup() *zap.Logger {
	return ml.GetLogger(CategoryDedup)
}

// Error returns the error logger (JSON format)
func (ml *MultiLogger) Error() *zap.Logger {
	return ml.GetLogger(CategoryError)
}

// LogAppError logs an application-level error
func (ml *MultiLogger) LogAppError(msg string, fields ...zap.Field) {
	ml.Error().Error(msg, fields...)
}

// LogDedupEvent logs a dedup lifecycle event with structured data
func (ml *MultiLogger) LogDedupEvent(event string, fields ...zap.Field) {
	ml.Dedup().Info(event, fields...)
}

// Sync flushes all loggers
func (ml *MultiLogger) Sync() error {
	ml.mu.RLock()
	defer ml.mu.RUnlock()

	var lastErr error
	for _, cl := range ml.loggers {
		if err := cl.logger.Sync(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}

// Close flushes all loggers and closes their files
func (ml *MultiLogger) Close() error {
	ml.mu.Lock()
	defer ml.mu.Unlock()

	var lastErr error
	for _, cl := range ml.loggers {
		cl.logger.Sync()
		if err := cl.file.Close(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
