package pool_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-pktio/api"
	"github.com/momentics/hioload-pktio/mpsc"
	"github.com/momentics/hioload-pktio/pool"
)

func newPool(t *testing.T, size, count int) *pool.SlotPool {
	t.Helper()
	p, err := pool.NewSlotPool(api.BufferFlags{FrameSize: size, FrameCount: count}, mpsc.Config{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestSlotPool_AllocUntilExhausted(t *testing.T) {
	p := newPool(t, 64, 8)
	seen := make(map[api.Descriptor]bool)
	for i := 0; i < 8; i++ {
		d, frame, ok := p.Alloc()
		require.True(t, ok)
		assert.Len(t, frame, 64)
		assert.False(t, seen[d], "slot %d handed out twice", d)
		seen[d] = true
	}
	_, _, ok := p.Alloc()
	assert.False(t, ok)
	assert.Equal(t, uint64(1), p.Exhausted())
	assert.Equal(t, uint64(8), p.Allocated())
}

func TestSlotPool_LocalReleaseIsReusable(t *testing.T) {
	p := newPool(t, 16, 2)
	a, _, _ := p.Alloc()
	_, _, _ = p.Alloc()
	p.Release(a)

	d, _, ok := p.Alloc()
	require.True(t, ok, "batched local release must be flushed on demand")
	assert.Equal(t, a, d)
}

func TestSlotPool_FramesDoNotOverlap(t *testing.T) {
	p := newPool(t, 4, 3)
	for i := 0; i < 3; i++ {
		d, frame, ok := p.Alloc()
		require.True(t, ok)
		for j := range frame {
			frame[j] = byte(d)
		}
	}
	for d := api.Descriptor(0); d < 3; d++ {
		assert.Equal(t, []byte{byte(d), byte(d), byte(d), byte(d)}, p.Frame(d))
		assert.Equal(t, 4, cap(p.Frame(d)))
	}
}

func TestSlotPool_CrossGoroutineRelease(t *testing.T) {
	const count = 64
	p := newPool(t, 32, count)
	held := make([]api.Descriptor, 0, count)
	for {
		d, _, ok := p.Alloc()
		if !ok {
			break
		}
		held = append(held, d)
	}
	require.Len(t, held, count)

	rel, err := p.Releaser()
	require.NoError(t, err)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for _, d := range held {
			rel.Push(d)
		}
		assert.Equal(t, 0, rel.Flush())
		assert.NoError(t, rel.Close())
	}()
	wg.Wait()

	got := 0
	for {
		if _, _, ok := p.Alloc(); !ok {
			break
		}
		got++
	}
	assert.Equal(t, count, got)
}

func TestSlotPool_RejectsBadFlags(t *testing.T) {
	_, err := pool.NewSlotPool(api.BufferFlags{FrameSize: 0, FrameCount: 4}, mpsc.Config{})
	assert.ErrorIs(t, err, api.ErrInvalidArgument)
}

func TestSlotPool_LargeSlab(t *testing.T) {
	p, err := pool.NewSlotPool(api.BufferFlags{FrameSize: 4096, FrameCount: 1024}, mpsc.Config{})
	require.NoError(t, err)
	defer p.Close()

	d, frame, ok := p.Alloc()
	require.True(t, ok)
	require.Len(t, frame, 4096)
	frame[0], frame[4095] = 0xde, 0xad
	assert.Equal(t, byte(0xad), p.Frame(d)[4095])
	p.Release(d)
}
