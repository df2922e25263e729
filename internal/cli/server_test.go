package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"go.uber.org/zap"

	"live-quiz-service/internal/config"
	"live-quiz-service/internal/infra/memory"
	redisstore "live-quiz-service/internal/infra/redis"
	transport "live-quiz-service/internal/transport/http"
)

func TestOpenBackendDefaultsToMemory(t *testing.T) {
	b, err := openBackend(context.Background(), config.Config{}, zap.NewNop())
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.close()
	if b.name != "memory" {
		t.Fatalf("expected memory backend, got %s", b.name)
	}
	if _, ok := b.questions.(*memory.QuestionCache); !ok {
		t.Fatalf("expected in-process question cache, got %T", b.questions)
	}
}

func TestOpenBackendUsesRedisWhenConfigured(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	cfg := config.Config{}
	cfg.Redis.Addr = mr.Addr()
	b, err := openBackend(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("open backend: %v", err)
	}
	defer b.close()
	if b.name != "redis" {
		t.Fatalf("expected redis backend, got %s", b.name)
	}
	if _, ok := b.sessions.(*redisstore.SessionStore); !ok {
		t.Fatalf("expected redis session store, got %T", b.sessions)
	}
}

func TestOpenBackendFailsOnUnreachableRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	addr := mr.Addr()
	mr.Close()

	cfg := config.Config{}
	cfg.Redis.Addr = addr
	if _, err := openBackend(context.Background(), cfg, zap.NewNop()); err == nil {
		t.Fatalf("expected ping failure")
	}
}

func TestTokenCommandMintsVerifiableToken(t *testing.T) {
	t.Setenv("LIVE_AUTH_SECRET", "cli-secret")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "--config", t.TempDir() + "/none.yaml", "--sub", "teacher-1", "--role", "teacher", "--class", "class-1"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}

	caller, err := transport.ParseToken(strings.TrimSpace(out.String()), "cli-secret")
	if err != nil {
		t.Fatalf("parse minted token: %v", err)
	}
	if caller.ID != "teacher-1" || caller.ClassID != "class-1" || string(caller.Role) != "teacher" {
		t.Fatalf("unexpected caller %+v", caller)
	}
}
