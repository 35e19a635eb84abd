package lock

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	xerrors "contracts-service/internal/pkg/errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestMemoryLockerRejectsSecondHolder(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	unlock, err := l.TryLock(ctx, ContractKey("a"))
	if err != nil {
		t.Fatalf("first lock failed: %v", err)
	}
	if _, err := l.TryLock(ctx, ContractKey("a")); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	if u, err := l.TryLock(ctx, ContractKey("b")); err != nil {
		t.Fatalf("other keys must stay free: %v", err)
	} else {
		u()
	}

	unlock()
	unlock()

	again, err := l.TryLock(ctx, ContractKey("a"))
	if err != nil {
		t.Fatalf("lock should be free after unlock: %v", err)
	}
	again()
}

func TestMemoryLockerSingleWinner(t *testing.T) {
	l := NewMemoryLocker()
	var wins int32
	var wg sync.WaitGroup
	start := make(chan struct{})

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := l.TryLock(context.Background(), "contract:x"); err == nil {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	close(start)
	wg.Wait()

	if wins != 1 {
		t.Fatalf("expected exactly one holder, got %d", wins)
	}
}

func TestRedisLocker(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	l := NewRedisLocker(client, 5*time.Second, zap.NewNop())
	ctx := context.Background()
	key := ContractKey("redis-test-" + time.Now().Format("150405.000000"))

	unlock, err := l.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("lock failed: %v", err)
	}
	if _, err := l.TryLock(ctx, key); !errors.Is(err, ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
	unlock()

	again, err := l.TryLock(ctx, key)
	if err != nil {
		t.Fatalf("lock should be free after unlock: %v", err)
	}
	again()
}

func TestAcquireContractMapsToConflict(t *testing.T) {
	l := NewMemoryLocker()
	unlock, err := AcquireContract(context.Background(), l, "client-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer unlock()

	_, err = AcquireContract(context.Background(), l, "client-1")
	if !errors.Is(err, xerrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}
