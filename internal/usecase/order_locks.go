package usecase

import (
	"sync"

	"github.com/google/uuid"
)

// OrderLocks обеспечивает последовательную обработку переходов одного заказа.
// Блокировки создаются по требованию и удаляются, когда их никто не держит.
// Один экземпляр разделяется оркестратором и операциями над заказами, чтобы
// отмена не пересекалась с переходами саги.
type OrderLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*orderLock
}

type orderLock struct {
	mu   sync.Mutex
	refs int
}

func NewOrderLocks() *OrderLocks {
	return &OrderLocks{
		locks: make(map[uuid.UUID]*orderLock),
	}
}

// Lock захватывает блокировку заказа, создавая её при необходимости
func (l *OrderLocks) Lock(orderID uuid.UUID) {
	l.mu.Lock()
	lock, ok := l.locks[orderID]
	if !ok {
		lock = &orderLock{}
		l.locks[orderID] = lock
	}
	lock.refs++
	l.mu.Unlock()

	lock.mu.Lock()
}

// Unlock освобождает блокировку заказа и удаляет её, если ожидающих нет
func (l *OrderLocks) Unlock(orderID uuid.UUID) {
	l.mu.Lock()
	lock, ok := l.locks[orderID]
	if !ok {
		l.mu.Unlock()
		return
	}
	lock.refs--
	if lock.refs == 0 {
		delete(l.locks, orderID)
	}
	l.mu.Unlock()

	lock.mu.Unlock()
}
