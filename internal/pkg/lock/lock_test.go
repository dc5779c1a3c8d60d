package lock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"
)

func TestKeyedMutex_SerializesSameKey(t *testing.T) {
	km := NewKeyedMutex()

	counter := 0
	var g errgroup.Group
	for i := 0; i < 100; i++ {
		g.Go(func() error {
			unlock := km.Lock("vehicle:yard")
			defer unlock()
			counter++
			return nil
		})
	}

	assert.NoError(t, g.Wait())
	assert.Equal(t, 100, counter)
}

func TestKeyedMutex_IndependentKeys(t *testing.T) {
	km := NewKeyedMutex()

	unlockA := km.Lock("a")
	// Чужой ключ не должен блокироваться
	unlockB := km.Lock("b")
	unlockB()
	unlockA()

	// Ключ можно захватить повторно после освобождения
	unlock := km.Lock("a")
	unlock()
}

func TestKeyedMutex_CleansUpEntries(t *testing.T) {
	km := NewKeyedMutex()

	unlock := km.Lock("ephemeral")
	unlock()

	km.mu.Lock()
	defer km.mu.Unlock()
	assert.Empty(t, km.entries)
}
