package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestLoggerInit(t *testing.T) {
	if err := Init(); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	if Get() == nil {
		t.Fatal("logger is nil after initialization")
	}
	if err := InitWithWriter(nil); err == nil {
		t.Error("expected error for nil writer")
	}
}

func TestLoggerFields(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().Info(context.Background(), "generated",
		String("run", "abc"),
		Int("events", 12),
		Float64("ratio", 0.5),
		Bool("pog", true),
		Duration("took", 2*time.Second),
		Error(errors.New("boom")),
	)

	out := buf.String()
	for _, want := range []string{"msg=generated", "run=abc", "events=12", "ratio=0.5", "pog=true", "took=2s", "error=boom", "source=logger_test.go:"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("matcher").Info(context.Background(), "hello", String("k", "v"))
	if !strings.Contains(buf.String(), "matcher.k=v") {
		t.Errorf("expected grouped key, got %q", buf.String())
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := InitWithWriter(&buf); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer SetLevelString("info") //nolint:errcheck

	tests := []struct {
		level   string
		wantErr bool
	}{
		{"debug", false},
		{"INFO", false},
		{"warning", false},
		{"error", false},
		{"", false},
		{"verbose", true},
	}
	for _, tt := range tests {
		if err := SetLevelString(tt.level); (err != nil) != tt.wantErr {
			t.Errorf("SetLevelString(%q) error = %v, wantErr %v", tt.level, err, tt.wantErr)
		}
	}

	if err := SetLevelString("error"); err != nil {
		t.Fatal(err)
	}
	Get().Debug(context.Background(), "hidden")
	Get().Error(context.Background(), "shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Errorf("unexpected output %q", buf.String())
	}
}
