package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	for raw, want := range map[string]slog.Level{
		"":        slog.LevelDebug,
		" info ":  slog.LevelInfo,
		"WARNING": slog.LevelWarn,
		"error":   slog.LevelError,
		"8":       slog.Level(8),
	} {
		got, err := parseLogLevel(raw)
		if err != nil {
			t.Fatalf("parseLogLevel(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("parseLogLevel(%q) = %v, want %v", raw, got, want)
		}
	}
	if _, err := parseLogLevel("chatty"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}

func TestSelectedLogLevelPrecedence(t *testing.T) {
	cases := []struct {
		flag, env, cfg string
		want           levelSource
	}{
		{"error", "info", "warn", fromFlag},
		{"", "info", "warn", fromEnv},
		{"  ", "", "warn", fromConfig},
		{"", "", "", fromDefault},
	}
	for _, c := range cases {
		if _, got := selectedLogLevel(c.flag, c.env, c.cfg); got != c.want {
			t.Fatalf("selectedLogLevel(%q, %q, %q) source = %d, want %d", c.flag, c.env, c.cfg, got, c.want)
		}
	}
}

func TestNewLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	newLogger(&buf, slog.LevelInfo, true).Info("task created", "task_id", "tsk-1")
	newLogger(&buf, slog.LevelInfo, true).Debug("dropped")

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("expected a single json record, got %q: %v", buf.String(), err)
	}
	if record["msg"] != "task created" || record["task_id"] != "tsk-1" {
		t.Fatalf("unexpected record %v", record)
	}
}

func TestConfigureLoggerForCLIFallbacks(t *testing.T) {
	t.Setenv(logFormatEnvKey, "")

	t.Setenv(logLevelEnvKey, "loud")
	if warning, err := configureLoggerForCLI("warn", ""); err != nil || warning != "" {
		t.Fatalf("valid flag should win silently, got warning=%q err=%v", warning, err)
	}
	warning, err := configureLoggerForCLI("", "info")
	if err != nil || !strings.Contains(warning, logLevelEnvKey) {
		t.Fatalf("expected env warning, got warning=%q err=%v", warning, err)
	}

	t.Setenv(logLevelEnvKey, "")
	warning, err = configureLoggerForCLI("", "loud")
	if err != nil || !strings.Contains(warning, "log_level") || !strings.Contains(warning, "defaulting to debug") {
		t.Fatalf("expected config warning, got warning=%q err=%v", warning, err)
	}

	if _, err := configureLoggerForCLI("loud", ""); err == nil {
		t.Fatal("expected an error for an invalid --log-level")
	}
}
