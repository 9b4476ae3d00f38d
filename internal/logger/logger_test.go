package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestNew_Development(t *testing.T) {
	log, err := New(Options{Development: true})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}

	// Should not panic
	log.Info("test message")
}

func TestNew_Production(t *testing.T) {
	log, err := New(Options{})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if log.Core().Enabled(zap.DebugLevel) {
		t.Error("production logger should not enable debug by default")
	}
}

func TestNew_Level(t *testing.T) {
	log, err := New(Options{Level: "debug"})
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	if !log.Core().Enabled(zap.DebugLevel) {
		t.Error("expected debug level to be enabled")
	}

	if _, err := New(Options{Level: "loud"}); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestMust(t *testing.T) {
	// Should not panic
	log := Must(Options{Development: true})
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}
