package requestctx

import (
	"context"
	"testing"
)

func TestLogAttrs(t *testing.T) {
	if attrs := LogAttrs(context.Background()); len(attrs) != 0 {
		t.Fatalf("expected no attrs, got %v", attrs)
	}
	ctx := WithOwnerID(WithRequestID(context.Background(), "req-1"), "worker-1")
	attrs := LogAttrs(ctx)
	if len(attrs) != 4 || attrs[1] != "req-1" || attrs[3] != "worker-1" {
		t.Fatalf("unexpected attrs %v", attrs)
	}
}
