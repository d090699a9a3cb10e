package redislock

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/pillars-backend/internal/platform/logger"
)

func TestLockerExcludesSecondHolder(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("set TEST_REDIS_ADDR to run redis lock integration tests")
	}
	l, err := New(logger.Nop(), Options{Addr: addr, Wait: 150 * time.Millisecond, TTL: 2 * time.Second})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer l.Close()

	key := "test:" + uuid.NewString()
	unlock, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	if _, err := l.Lock(context.Background(), key); !errors.Is(err, ErrNotAcquired) {
		t.Fatalf("second Lock: want ErrNotAcquired got=%v", err)
	}
	unlock()
	unlock2, err := l.Lock(context.Background(), key)
	if err != nil {
		t.Fatalf("Lock after release: %v", err)
	}
	unlock2()
}
