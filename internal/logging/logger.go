package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger  *zap.Logger
	logFile *os.File
	mu      sync.Mutex

	// journal keeps recent entries in memory for the TUI log view and the
	// station's /api/logs endpoint. It is always present but only fed when
	// Options.Journal is set.
	journal = NewJournal(DefaultJournalSize)
)

// LogLevelEnvVar is the environment variable that controls console logging verbosity.
// When unset or empty, console logging is silent.
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "LABELGEN_LOG_LEVEL"

// Options controls which sinks Initialize attaches.
type Options struct {
	// Level is the console level. Empty falls back to LABELGEN_LOG_LEVEL,
	// and when that is empty too the console stays silent.
	Level string

	// FileDir enables the daily JSON-lines file sink (labelgen_YYYYMMDD.log).
	FileDir string

	// FileLevel is the minimum level written to the file sink. Defaults to info.
	FileLevel string

	// Journal feeds the in-memory ring buffer at debug level.
	Journal bool
}

// Initialize creates a console-only logger with the specified level.
// If level is empty, it checks LABELGEN_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	return InitializeWithOptions(Options{Level: level})
}

// InitializeWithOptions builds the global logger from the enabled sinks.
// Calling it again replaces the previous logger and closes any open log file.
func InitializeWithOptions(opts Options) error {
	mu.Lock()
	defer mu.Unlock()

	level := opts.Level
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	var cores []zapcore.Core

	if level != "" {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeCaller = zapcore.ShortCallerEncoder

		// stderr keeps stdout clean for --format json output
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			zap.NewAtomicLevelAt(ParseLevel(level)),
		))
	}

	closeLogFile()
	if opts.FileDir != "" {
		if err := os.MkdirAll(opts.FileDir, 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(LogFilePath(opts.FileDir, time.Now()), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		logFile = f

		fileLevel := opts.FileLevel
		if fileLevel == "" {
			fileLevel = "info"
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(fileEncoderConfig()),
			zapcore.AddSync(f),
			zap.NewAtomicLevelAt(ParseLevel(fileLevel)),
		))
	}

	if opts.Journal {
		cores = append(cores, NewJournalCore(journal, zapcore.DebugLevel))
	}

	if len(cores) == 0 {
		logger = zap.NewNop()
		return nil
	}

	logger = zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return nil
}

// ParseLevel maps a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LogFilePath returns the daily log file for the given day.
func LogFilePath(dir string, day time.Time) string {
	return filepath.Join(dir, "labelgen_"+day.Format("20060102")+".log")
}

func fileEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "time"
	cfg.LevelKey = "level"
	cfg.NameKey = "module"
	cfg.MessageKey = "msg"
	cfg.CallerKey = "caller"
	cfg.StacktraceKey = ""
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeLevel = zapcore.LowercaseLevelEncoder
	return cfg
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	mu.Lock()
	defer mu.Unlock()
	if logger == nil {
		// Fallback to silent logger if not initialized
		logger = zap.NewNop()
	}
	return logger
}

// Named returns a child logger tagged with a module name. The module is what
// journal and file filters match on.
func Named(module string) *zap.Logger {
	return GetLogger().Named(module)
}

// GetJournal returns the process-wide in-memory journal.
func GetJournal() *Journal {
	return journal
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// Fatal logs a fatal message and exits
func Fatal(msg string, fields ...zap.Field) {
	GetLogger().Fatal(msg, fields...)
}

// LogConnection logs a station connection event
func LogConnection(remoteAddr string, event string) {
	Named("server").Info("Connection event",
		zap.String("remote_addr", remoteAddr),
		zap.String("event", event),
	)
}

// LogTLSHandshake logs TLS handshake details
func LogTLSHandshake(remoteAddr string, version uint16, serverName string) {
	Named("server").Info("TLS handshake completed",
		zap.String("remote_addr", remoteAddr),
		zap.String("tls_version", TLSVersionName(version)),
		zap.String("server_name", serverName),
	)
}

// LogHTTPRequest logs a completed HTTP request
func LogHTTPRequest(remoteAddr, method, path string, status int, duration time.Duration) {
	Named("http").Info("HTTP request",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", status),
		zap.Duration("duration", duration),
	)
}

// TLSVersionName returns a readable TLS version.
func TLSVersionName(version uint16) string {
	switch version {
	case 0x0301:
		return "TLS 1.0"
	case 0x0302:
		return "TLS 1.1"
	case 0x0303:
		return "TLS 1.2"
	case 0x0304:
		return "TLS 1.3"
	default:
		return fmt.Sprintf("Unknown (0x%04x)", version)
	}
}

func closeLogFile() {
	if logFile != nil {
		_ = logFile.Sync()
		_ = logFile.Close()
		logFile = nil
	}
}

// Sync flushes any buffered log entries
func Sync() {
	mu.Lock()
	defer mu.Unlock()
	if logger != nil {
		_ = logger.Sync()
	}
}

// Close flushes the logger and releases the log file.
func Close() {
	Sync()
	mu.Lock()
	defer mu.Unlock()
	closeLogFile()
}
