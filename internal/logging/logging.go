package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	slogmulti "github.com/samber/slog-multi"
)

// Setup configures the global slog logger
// If logOutputDir is non-empty, logs are written to both stdout and a timestamped file in that directory
// The returned func closes the log file, if any
func Setup(levelStr string, logOutputDir string) (func() error, error) {
	return SetupWriter(os.Stdout, levelStr, logOutputDir)
}

// SetupWriter is Setup with the console output going to w
func SetupWriter(w io.Writer, levelStr string, logOutputDir string) (func() error, error) {
	level := ParseLevel(levelStr)
	console := tint.NewHandler(w, &tint.Options{Level: level, TimeFormat: time.TimeOnly})

	if logOutputDir == "" {
		slog.SetDefault(slog.New(console))
		return func() error { return nil }, nil
	}

	logFile, err := openLogFile(os.ExpandEnv(logOutputDir), time.Now())
	if err != nil {
		return nil, err
	}

	slog.SetDefault(slog.New(slogmulti.Fanout(
		console,
		slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: level}),
	)))
	fmt.Fprintf(os.Stderr, "Logging to file: %s\n", logFile.Name())

	return logFile.Close, nil
}

// openLogFile creates zipfix_<timestamp>.log under dir
func openLogFile(dir string, now time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log output directory: %w", err)
	}

	name := filepath.Join(dir, "zipfix_"+now.Format("20060102_150405")+".log")
	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}
	return f, nil
}

// ParseLevel converts a string log level to slog.Level
func ParseLevel(levelStr string) slog.Level {
	switch levelStr {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
