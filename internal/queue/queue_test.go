package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueuePreservesOrder(t *testing.T) {
	q := New[int]()
	for i := 0; i < 1000; i++ {
		require.True(t, q.Push(i))
	}
	q.Close()

	var got []int
	for v := range q.Out() {
		got = append(got, v)
	}
	require.Len(t, got, 1000)
	for i, v := range got {
		assert.Equal(t, i, v)
	}
}

func TestQueuePushAfterClose(t *testing.T) {
	q := New[string]()
	q.Close()
	q.Close()

	assert.False(t, q.Push("late"))
	_, ok := q.Pop(context.Background())
	assert.False(t, ok)
}

func TestQueueMultipleProducers(t *testing.T) {
	q := New[int]()

	var wg sync.WaitGroup
	for p := 0; p < 4; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				q.Push(base + i)
			}
		}(p * 1000)
	}
	wg.Wait()
	q.Close()

	// Each producer's items arrive in the order that producer pushed them.
	last := map[int]int{0: -1, 1000: -1, 2000: -1, 3000: -1}
	count := 0
	for v := range q.Out() {
		base := v / 1000 * 1000
		assert.Greater(t, v-base, last[base])
		last[base] = v - base
		count++
	}
	assert.Equal(t, 400, count)
}

func TestQueuePopHonorsContext(t *testing.T) {
	q := New[int]()
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.Pop(ctx)
	assert.False(t, ok)
}
