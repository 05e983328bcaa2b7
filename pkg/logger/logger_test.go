package logger

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
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
}

func TestLoggerWritesFields(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Named("store").Warn(context.Background(), "corrupt store skipped",
		String("competition", "La Liga"),
		Int("snapshots", 3),
		Error(errors.New("unexpected end of JSON input")),
	)

	out := buf.String()
	for _, want := range []string{"corrupt store skipped", "component=store", "competition=\"La Liga\"", "snapshots=3", "logger_test.go"} {
		if !strings.Contains(out, want) {
			t.Errorf("log line %q does not contain %q", out, want)
		}
	}
}

func TestLoggerJSONWith(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf), WithJSON(true)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	Get().With(String("run_id", "abc")).Info(context.Background(), "aggregation finished", Bool("ok", true))

	out := buf.String()
	if !strings.Contains(out, `"run_id":"abc"`) || !strings.Contains(out, `"ok":true`) {
		t.Errorf("unexpected json log line: %s", out)
	}
}

func TestSetLevelString(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithOutput(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer SetLevel(0)

	if err := SetLevelString("warn"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Get().Info(context.Background(), "hidden")
	if buf.Len() != 0 {
		t.Errorf("info line should be filtered at warn level, got %q", buf.String())
	}

	if err := SetLevelString("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestNop(t *testing.T) {
	l := Nop().Named("aggregate").With(String("k", "v"))
	l.Warn(context.Background(), "discarded")
}
