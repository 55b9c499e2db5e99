package state

import (
	"context"
	"fmt"
	"testing"

	"github.com/aretw0/lobster/pkg/adapters/memory"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		key := fmt.Sprintf("key-%d", i)
		_, _ = mgr.DiffAndStore(ctx, key, i)
		_ = mgr.Delete(ctx, key)
	}

	if lockCount := len(mgr.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}
