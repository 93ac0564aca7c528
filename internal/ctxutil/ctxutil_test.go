package ctxutil

import (
	"context"
	"testing"
	"time"
)

func TestValues(t *testing.T) {
	ctx := WithOp(WithChatID(context.Background(), 42), "export")
	if id, ok := ChatID(ctx); !ok || id != 42 {
		t.Fatalf("ожидали chatID 42, получили %d %v", id, ok)
	}
	if op, ok := Op(ctx); !ok || op != "export" {
		t.Fatalf("ожидали op export, получили %q %v", op, ok)
	}
	if _, ok := ChatID(context.Background()); ok {
		t.Fatal("в пустом контексте chatID нет")
	}
}

func TestWithDBTimeout(t *testing.T) {
	parent, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	ctx, c2 := WithDBTimeout(parent)
	defer c2()
	dl, _ := ctx.Deadline()
	pdl, _ := parent.Deadline()
	if !dl.Equal(pdl) {
		t.Fatal("короткий дедлайн родителя должен сохраняться")
	}

	ctx, c3 := WithDBTimeout(context.Background())
	defer c3()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > DefaultDBTimeout {
		t.Fatal("ожидали дедлайн не дальше DefaultDBTimeout")
	}

	ctx, c4 := WithTimeout(context.Background(), 0)
	defer c4()
	if _, ok := ctx.Deadline(); ok {
		t.Fatal("d<=0 — без дедлайна")
	}
}
