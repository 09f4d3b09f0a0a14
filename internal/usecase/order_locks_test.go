package usecase

import (
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOrderLocksMutualExclusion(t *testing.T) {
	locks := NewOrderLocks()
	orderID := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock(orderID)
			defer locks.Unlock(orderID)
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, counter)
}

func TestOrderLocksIndependentOrders(t *testing.T) {
	locks := NewOrderLocks()
	first := uuid.New()
	second := uuid.New()

	locks.Lock(first)

	// Блокировка одного заказа не мешает другому
	done := make(chan struct{})
	go func() {
		locks.Lock(second)
		locks.Unlock(second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("блокировка другого заказа не должна ждать")
	}

	locks.Unlock(first)
}

func TestOrderLocksCleanup(t *testing.T) {
	locks := NewOrderLocks()
	orderID := uuid.New()

	locks.Lock(orderID)
	locks.Unlock(orderID)

	locks.mu.Lock()
	defer locks.mu.Unlock()
	assert.Empty(t, locks.locks, "освобожденные блокировки должны удаляться")
}
