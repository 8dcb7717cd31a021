// Package logging wraps zap with the highlight-mode selection the
// teacher's utils/logging/highlight.go exposes (plain/colors/auto),
// generalized from a single process-wide logger to named per-component
// loggers (log.Named("bundle"), log.Named("auth"), ...).
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/crypto/ssh/terminal"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Highlight selects whether console output is colorized.
type Highlight int

const (
	Plain Highlight = iota
	Colors
)

// ToHighlight parses a highlight mode, resolving "auto" against
// whether fd is an interactive terminal.
func ToHighlight(h string, fd uintptr) (Highlight, error) {
	switch strings.ToUpper(h) {
	case "PLAIN":
		return Plain, nil
	case "COLORS":
		return Colors, nil
	case "AUTO":
		if terminal.IsTerminal(int(fd)) {
			return Colors, nil
		}
		return Plain, nil
	default:
		return Plain, fmt.Errorf("unknown highlight mode: %s", h)
	}
}

// Format selects the log encoder. Console is for interactive use,
// JSON for ingestion by a log aggregator.
type Format string

const (
	FormatConsole Format = "console"
	FormatJSON    Format = "json"
)

// Config controls where logs go and how they're rendered.
type Config struct {
	Level     zapcore.Level
	Format    Format
	Highlight Highlight
	Directory string // empty means stderr only
	MaxSizeMB int
	MaxBackups int
	MaxAgeDays int
}

// DefaultConfig mirrors the teacher's logging.DefaultConfig() shape:
// info level, console format, plain highlight, no file output.
func DefaultConfig() Config {
	return Config{
		Level:      zapcore.InfoLevel,
		Format:     FormatConsole,
		Highlight:  Plain,
		MaxSizeMB:  100,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// New builds a root *zap.Logger from cfg. Callers derive subsystem
// loggers from it with Named.
func New(cfg Config) (*zap.Logger, error) {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	if cfg.Highlight == Colors {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	var encoder zapcore.Encoder
	if cfg.Format == FormatJSON {
		encoder = zapcore.NewJSONEncoder(encCfg)
	} else {
		encoder = zapcore.NewConsoleEncoder(encCfg)
	}

	writers := []zapcore.WriteSyncer{zapcore.AddSync(os.Stderr)}
	if cfg.Directory != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.Directory + "/channeld.log",
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
		}))
	}

	core := zapcore.NewCore(encoder, zapcore.NewMultiWriteSyncer(writers...), cfg.Level)
	return zap.New(core), nil
}

// ToLevel parses a zap level by name, matching the teacher's set of
// accepted log-level strings minus "verbo"/"fatal"/"off", which zap
// doesn't distinguish as separate levels.
func ToLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s", s)
	}
}
