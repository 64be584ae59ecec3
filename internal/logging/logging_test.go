// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNew_ProductionIsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "production", "warn")

	logger.Info("dropped")
	logger.Warn("kept", "order_id", "abc")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "dropped") {
		t.Fatalf("info record should be filtered at warn level: %s", out)
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(out), &rec); err != nil {
		t.Fatalf("expected JSON output, got %q: %v", out, err)
	}
	if rec["order_id"] != "abc" {
		t.Errorf("order_id = %v, want abc", rec["order_id"])
	}
}

func TestNew_DevelopmentIsTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "development", "error")

	logger.Debug("visible")

	if !strings.Contains(buf.String(), "msg=visible") {
		t.Errorf("expected text debug record, got %q", buf.String())
	}
}
