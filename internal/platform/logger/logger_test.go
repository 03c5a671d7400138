package logger

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yungbote/breadlog-backend/internal/platform/ctxutil"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestRedactionAndOwnerHashing(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")
	log, logs := observed()
	owner := uuid.New()

	log.Info("auth", "token", "abc", "jwt_secret", "s3cret", "owner_id", owner.String(), "recipe", "Rye")

	fields := logs.All()[0].ContextMap()
	if fields["token"] != "[REDACTED]" || fields["jwt_secret"] != "[REDACTED]" {
		t.Fatalf("secrets should be redacted: %v", fields)
	}
	hashed, _ := fields["owner_id"].(string)
	if !strings.HasPrefix(hashed, "hash:") || strings.Contains(hashed, owner.String()) {
		t.Fatalf("owner id should be hashed, got=%q", hashed)
	}
	if fields["recipe"] != "Rye" {
		t.Fatalf("plain fields should pass through: %v", fields)
	}
}

func TestCtxAddsTraceAndOwner(t *testing.T) {
	t.Setenv("LOG_REDACTION_ENABLED", "true")
	log, logs := observed()
	ctx := ctxutil.WithTraceData(context.Background(), &ctxutil.TraceData{TraceID: "t-1", RequestID: "r-1"})
	ctx = ctxutil.WithRequestData(ctx, &ctxutil.RequestData{OwnerID: uuid.New()})

	log.Ctx(ctx).Warn("publish failed")

	fields := logs.All()[0].ContextMap()
	if fields["trace_id"] != "t-1" || fields["request_id"] != "r-1" {
		t.Fatalf("trace fields: %v", fields)
	}
	if _, ok := fields["owner_id"]; !ok {
		t.Fatalf("owner id missing: %v", fields)
	}
	if log.Ctx(context.Background()) != log {
		t.Fatalf("empty context should return the same logger")
	}
}
