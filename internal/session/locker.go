// Package session содержит общие примитивы для состояния, привязанного к сессии витрины.
package session

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
)

// DefaultStripes — число мьютексов в Locker по умолчанию.
const DefaultStripes = 256

// Locker сериализует операции одной сессии внутри процесса.
// Разные сессии могут попасть в один stripe; это влияет только на параллелизм.
type Locker struct {
	stripes []sync.Mutex
}

// NewLocker создаёт Locker с заданным числом stripe (минимум 1).
func NewLocker(stripes int) *Locker {
	if stripes <= 0 {
		stripes = DefaultStripes
	}
	return &Locker{stripes: make([]sync.Mutex, stripes)}
}

// Lock захватывает мьютекс сессии и возвращает функцию освобождения.
func (l *Locker) Lock(sessionID string) func() {
	mu := &l.stripes[xxhash.Sum64String(sessionID)%uint64(len(l.stripes))]
	mu.Lock()
	return mu.Unlock
}

// NewID генерирует идентификатор новой сессии.
func NewID() string {
	return uuid.NewString()
}
