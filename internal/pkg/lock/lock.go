// Package lock реализует мьютексы по строковому ключу.
// Используется для сериализации операций допуска по паре (ТС, площадка)
// и переходов статуса требования взвешивания
package lock

import "sync"

// KeyedMutex выдает мьютекс на произвольный строковый ключ.
// Записи освобождаются, как только последний держатель отпускает ключ
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// NewKeyedMutex создает новый KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		entries: make(map[string]*entry),
	}
}

// Lock захватывает мьютекс ключа key и возвращает функцию освобождения
func (km *KeyedMutex) Lock(key string) (unlock func()) {
	km.mu.Lock()
	e, ok := km.entries[key]
	if !ok {
		e = &entry{}
		km.entries[key] = e
	}
	e.refs++
	km.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()

		km.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(km.entries, key)
		}
		km.mu.Unlock()
	}
}
