package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"taskcollab/internal/config"
)

const (
	logLevelEnvKey  = "TASKCOLLAB_LOG_LEVEL"
	logFormatEnvKey = "TASKCOLLAB_LOG_FORMAT"
)

// levelSource records where the effective log level came from.
type levelSource int

const (
	fromDefault levelSource = iota
	fromConfig
	fromEnv
	fromFlag
)

// configureLoggerForCLI installs the default slog logger. An invalid --log-level
// is an error; invalid env or config levels fall back with a warning.
func configureLoggerForCLI(flagLevel, configLevel string) (string, error) {
	envLevel := os.Getenv(logLevelEnvKey)
	rawLevel, source := selectedLogLevel(flagLevel, envLevel, configLevel)
	jsonLogs := strings.EqualFold(strings.TrimSpace(os.Getenv(logFormatEnvKey)), "json")

	level, err := parseLogLevel(rawLevel)
	if err == nil {
		slog.SetDefault(newLogger(os.Stderr, level, jsonLogs))
		return "", nil
	}

	slog.SetDefault(newLogger(os.Stderr, slog.LevelDebug, jsonLogs))
	switch source {
	case fromFlag:
		return "", fmt.Errorf("invalid --log-level %q", flagLevel)
	case fromEnv:
		return fmt.Sprintf("warning: invalid %s=%q; defaulting to %s", logLevelEnvKey, envLevel, config.DefaultLogLevel), nil
	case fromConfig:
		return fmt.Sprintf("warning: invalid log_level=%q; defaulting to %s", configLevel, config.DefaultLogLevel), nil
	default:
		return "", nil
	}
}

func selectedLogLevel(flagLevel, envLevel, configLevel string) (string, levelSource) {
	for _, candidate := range []struct {
		raw    string
		source levelSource
	}{
		{flagLevel, fromFlag},
		{envLevel, fromEnv},
		{configLevel, fromConfig},
	} {
		if strings.TrimSpace(candidate.raw) != "" {
			return candidate.raw, candidate.source
		}
	}
	return "", fromDefault
}

func parseLogLevel(raw string) (slog.Level, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return slog.LevelDebug, nil
	}
	if strings.EqualFold(value, "warning") {
		value = "warn"
	}
	if numeric, err := strconv.Atoi(value); err == nil {
		return slog.Level(numeric), nil
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(value)); err != nil {
		return slog.LevelDebug, fmt.Errorf("invalid log level %q", raw)
	}
	return level, nil
}

func newLogger(w io.Writer, level slog.Level, jsonLogs bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if jsonLogs {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
