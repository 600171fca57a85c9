package zaplog_test

import (
	"errors"
	"testing"

	phpfile "github.com/goliatone/go-phpfile"
	"github.com/goliatone/go-phpfile/pkg/zaplog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerRecordsFileOperations(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	fsys := phpfile.NewMemoryFileSystem()
	f := phpfile.New("config.php",
		phpfile.WithFileSystem(fsys),
		phpfile.WithLogger(zaplog.New(zap.New(core))),
	)

	if err := f.Set(map[string]any{"debug": true}).Save(); err != nil {
		t.Fatalf("save: %v", err)
	}
	_ = phpfile.New("", phpfile.WithLogger(zaplog.New(zap.New(core)))).Load()

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	saved := entries[0]
	if saved.Level != zapcore.DebugLevel || saved.LoggerName != "phpfile" {
		t.Fatalf("unexpected save entry: %+v", saved)
	}
	fields := saved.ContextMap()
	if fields["op"] != "save" || fields["path"] != "config.php" || fields["engine"] != "literal" {
		t.Fatalf("unexpected save fields: %v", fields)
	}
	if fields["bytes"] != int64(len("<?php\n\nreturn [\n  'debug' => true,\n];")) {
		t.Fatalf("unexpected byte count: %v", fields["bytes"])
	}

	failed := entries[1]
	if failed.Level != zapcore.WarnLevel {
		t.Fatalf("expected warn level for failures, got %s", failed.Level)
	}
	if msg, _ := failed.ContextMap()["error"].(string); msg == "" {
		t.Fatalf("expected error field, got %v", failed.ContextMap())
	}
}

func TestLoggerEvaluationFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := zaplog.New(zap.New(core))

	logger.Log(phpfile.LogEvent{Op: "evaluate", Engine: "expr", Expr: "a > 1", Err: errors.New("boom")})

	entry := logs.All()[0]
	fields := entry.ContextMap()
	if fields["expr"] != "a > 1" || fields["engine"] != "expr" || fields["error"] != "boom" {
		t.Fatalf("unexpected fields: %v", fields)
	}
	if _, ok := fields["path"]; ok {
		t.Fatalf("expected empty path to be omitted")
	}
}

func TestNewWithNilLogger(t *testing.T) {
	zaplog.New(nil).Log(phpfile.LogEvent{Op: "load"})
}
