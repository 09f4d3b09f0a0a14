// Package retry реализует повторное выполнение операций с линейной задержкой.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Policy задаёт параметры повторов: количество попыток и базовую задержку.
// Задержка растёт линейно: Backoff, 2*Backoff, 3*Backoff и т.д.
type Policy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// PermanentError помечает ошибку, при которой повторы бессмысленны
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent оборачивает ошибку, запрещая её повторное выполнение
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent сообщает, помечена ли ошибка как окончательная
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// Do выполняет операцию до успеха, исчерпания попыток, окончательной ошибки
// или отмены контекста
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		if IsPermanent(lastErr) {
			return lastErr
		}

		if i < attempts-1 {
			select {
			case <-time.After(time.Duration(i+1) * p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("операция не удалась после %d попыток: %w", attempts, lastErr)
}
