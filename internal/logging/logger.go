// Package logging provides config-driven categorized file-based logging.
// Logs are written to .codebox/logs/ with separate files per category.
// Logging is controlled by debug_mode in the config - when false, no logs
// are written.
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

// Category represents a log category/system.
type Category string

const (
	CategoryBoot     Category = "boot"     // Boot/initialization
	CategorySession  Category = "session"  // Box and session lifecycle
	CategorySandbox  Category = "sandbox"  // Path resolution decisions
	CategoryPools    Category = "pools"    // Pool registration and manifest scans
	CategoryTools    Category = "tools"    // Tool dispatch
	CategoryShell    Category = "shell"    // Shell command execution
	CategoryPatch    Category = "patch"    // Patch parsing and application
	CategoryGate     Category = "gate"     // Command gate verdicts
	CategoryApproval Category = "approval" // Approval state transitions
	CategoryDriver   Category = "driver"   // Interactive driver polling
	CategoryAudit    Category = "audit"    // Audit store operations
)

// Logger wraps a zap sugared logger bound to one category file.
type Logger struct {
	category Category
	sugar    *zap.SugaredLogger
}

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	stateMu    sync.RWMutex
	logsDir    string
	debugMode  bool
	categories map[string]bool
	level      zapcore.Level = zapcore.InfoLevel
)

// Initialize sets up the logging directory. Should be called once at startup
// with the workspace path and the logging section of the config.
func Initialize(workspace string, debug bool, levelName string, enabled map[string]bool) error {
	if workspace == "" {
		return fmt.Errorf("workspace path required")
	}

	stateMu.Lock()
	debugMode = debug
	categories = enabled
	switch levelName {
	case "debug":
		level = zapcore.DebugLevel
	case "warn", "warning":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}
	logsDir = filepath.Join(workspace, ".codebox", "logs")
	stateMu.Unlock()

	// Silent no-op in production mode.
	if !debug {
		return nil
	}

	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	boot := Get(CategoryBoot)
	boot.Info("=== codebox logging initialized ===")
	boot.Info("workspace: %s", workspace)
	boot.Info("logs directory: %s", logsDir)
	return nil
}

// IsDebugMode returns whether debug logging is enabled.
func IsDebugMode() bool {
	stateMu.RLock()
	defer stateMu.RUnlock()
	return debugMode
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	stateMu.RLock()
	defer stateMu.RUnlock()

	if !debugMode {
		return false
	}
	if categories == nil {
		return true // All enabled by default in debug mode.
	}
	enabled, exists := categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode is disabled or the category is off.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) {
		return &Logger{category: category}
	}

	stateMu.RLock()
	dir := logsDir
	lvl := level
	stateMu.RUnlock()
	if dir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date-prefixed file per category for easy rotation.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(dir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(file),
		lvl,
	)
	l := &Logger{
		category: category,
		sugar:    zap.New(core).Sugar().Named(string(category)),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...any) {
	if l.sugar == nil {
		return
	}
	l.sugar.Debugf(format, args...)
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...any) {
	if l.sugar == nil {
		return
	}
	l.sugar.Infof(format, args...)
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...any) {
	if l.sugar == nil {
		return
	}
	l.sugar.Warnf(format, args...)
}

// Error logs an error message.
func (l *Logger) Error(format string, args ...any) {
	if l.sugar == nil {
		return
	}
	l.sugar.Errorf(format, args...)
}

// CloseAll flushes and forgets all open loggers (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.sugar != nil {
			_ = l.sugar.Sync()
		}
	}
	loggers = make(map[Category]*Logger)
}

// Convenience functions. These are no-ops if the category is disabled.

func Boot(format string, args ...any)     { Get(CategoryBoot).Info(format, args...) }
func Session(format string, args ...any)  { Get(CategorySession).Info(format, args...) }
func Sandbox(format string, args ...any)  { Get(CategorySandbox).Info(format, args...) }
func Pools(format string, args ...any)    { Get(CategoryPools).Info(format, args...) }
func Tools(format string, args ...any)    { Get(CategoryTools).Info(format, args...) }
func Shell(format string, args ...any)    { Get(CategoryShell).Info(format, args...) }
func Patch(format string, args ...any)    { Get(CategoryPatch).Info(format, args...) }
func Gate(format string, args ...any)     { Get(CategoryGate).Info(format, args...) }
func Approval(format string, args ...any) { Get(CategoryApproval).Info(format, args...) }
func Driver(format string, args ...any)   { Get(CategoryDriver).Info(format, args...) }
func Audit(format string, args ...any)    { Get(CategoryAudit).Info(format, args...) }

func BootDebug(format string, args ...any)     { Get(CategoryBoot).Debug(format, args...) }
func SessionDebug(format string, args ...any)  { Get(CategorySession).Debug(format, args...) }
func SandboxDebug(format string, args ...any)  { Get(CategorySandbox).Debug(format, args...) }
func PoolsDebug(format string, args ...any)    { Get(CategoryPools).Debug(format, args...) }
func ToolsDebug(format string, args ...any)    { Get(CategoryTools).Debug(format, args...) }
func ShellDebug(format string, args ...any)    { Get(CategoryShell).Debug(format, args...) }
func PatchDebug(format string, args ...any)    { Get(CategoryPatch).Debug(format, args...) }
func GateDebug(format string, args ...any)     { Get(CategoryGate).Debug(format, args...) }
func ApprovalDebug(format string, args ...any) { Get(CategoryApproval).Debug(format, args...) }
func DriverDebug(format string, args ...any)   { Get(CategoryDriver).Debug(format, args...) }

func ToolsWarn(format string, args ...any)  { Get(CategoryTools).Warn(format, args...) }
func ToolsError(format string, args ...any) { Get(CategoryTools).Error(format, args...) }
func PoolsWarn(format string, args ...any)  { Get(CategoryPools).Warn(format, args...) }
func PatchError(format string, args ...any) { Get(CategoryPatch).Error(format, args...) }
func AuditError(format string, args ...any) { Get(CategoryAudit).Error(format, args...) }
