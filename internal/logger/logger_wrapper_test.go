package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/midihex/sdk/contracts"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	child := log.With(log.Field().String("session", "abc"))
	child.Info("port found",
		log.Field().String("port", "IAC Bus 1"),
		log.Field().Int("number", 0),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.FilterMessage("port found").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["session"] != "abc" {
		t.Errorf("session field = %v", ctx["session"])
	}
	if ctx["port"] != "IAC Bus 1" {
		t.Errorf("port field = %v", ctx["port"])
	}
	if ctx["error"] != "boom" {
		t.Errorf("error field = %v", ctx["error"])
	}
}

func TestZapLoggerSetLevelAndFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "midihex.log")

	log := NewZapLogger()
	if err := log.SetDestination(contracts.FileLog, path); err != nil {
		t.Fatalf("SetDestination: %v", err)
	}
	log.SetLevel(contracts.WarnLevel)
	log.Info("hidden")
	log.Warn("visible")
	if err := log.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Errorf("info entry written at warn level: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("warn entry missing: %q", out)
	}
}

func TestSetDestinationRequiresPath(t *testing.T) {
	log := NewZapLogger()
	if err := log.SetDestination(contracts.FileLog); err == nil {
		t.Fatal("expected error without a file path")
	}
	if err := log.SetDestination("syslog"); err == nil {
		t.Fatal("expected error for unknown destination")
	}
}

func TestNewFromZapSetLevel(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))

	log.Debug("before")
	log.SetLevel(contracts.WarnLevel)
	log.With(log.Field().String("session", "abc")).Info("filtered child")
	log.Info("filtered")
	log.Warn("kept")
	log.SetLevel(contracts.DebugLevel)
	log.Debug("after")

	var got []string
	for _, e := range logs.All() {
		got = append(got, e.Message)
	}
	want := []string{"before", "kept", "after"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("entries = %v, want %v", got, want)
	}
}

func TestNewFromZapRespectsCoreLevel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewFromZap(zap.New(core))

	log.SetLevel(contracts.DebugLevel)
	log.Debug("below core")
	log.Info("at core")

	if logs.Len() != 1 || logs.All()[0].Message != "at core" {
		t.Errorf("entries = %v", logs.All())
	}
}

type countingStringer struct{ calls *int }

func (c countingStringer) String() string {
	*c.calls++
	return "note on"
}

func TestStringerFieldIsLazy(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromZap(zap.New(core))
	calls := 0

	log.SetLevel(contracts.InfoLevel)
	log.Debug("received", log.Field().Stringer("message", countingStringer{&calls}))
	if calls != 0 {
		t.Fatalf("String called %d times for a filtered entry", calls)
	}

	log.SetLevel(contracts.DebugLevel)
	log.Debug("received", log.Field().Stringer("message", countingStringer{&calls}))
	entries := logs.All()
	if len(entries) != 1 || entries[0].ContextMap()["message"] != "note on" {
		t.Fatalf("entries = %v", entries)
	}
}
