package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Spok95/teacher-lms-bot/internal/ctxutil"
)

func TestFrom_AddsContextFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	ctx := ctxutil.WithOp(ctxutil.WithChatID(context.Background(), 7), "attendance")
	From(ctx).Info("saved")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("ожидали 1 запись, получили %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["chat_id"] != int64(7) || fields["op"] != "attendance" {
		t.Fatalf("неожиданные поля %v", fields)
	}
}

func TestInit_BadLevelFallsBackToInfo(t *testing.T) {
	l, err := Init("nonsense", "prod")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Closer()
	if l.Level.Level() != zap.InfoLevel {
		t.Fatalf("ожидали info, получили %v", l.Level.Level())
	}
}
