package sink_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-ring/api"
	"github.com/momentics/hioload-ring/core/ring"
	"github.com/momentics/hioload-ring/sink"
)

// collector is a handler recording everything delivered to it.
type collector struct {
	mu    sync.Mutex
	items []int
}

func (c *collector) handle(batch []int) error {
	c.mu.Lock()
	c.items = append(c.items, batch...)
	c.mu.Unlock()
	return nil
}

func (c *collector) snapshot() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]int(nil), c.items...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not reached within 5s")
}

func TestSinkDeliversInOrder(t *testing.T) {
	const n = 200
	q := ring.NewShared[int](1024)
	var c collector
	s := sink.New[int](q, c.handle, sink.Options{BatchSize: 8})
	go s.Run()

	for i := 0; i < n; i++ {
		require.NoError(t, s.Post(i))
	}
	waitFor(t, func() bool { return s.Stats().Delivered == n })
	require.NoError(t, s.Close())

	got := c.snapshot()
	require.Len(t, got, n)
	for i, v := range got {
		require.Equalf(t, i, v, "delivery order broken at %d", i)
	}
}

func TestSinkRetriesFailedBatches(t *testing.T) {
	q := ring.NewShared[int](64)
	var fails int32
	var c collector
	handler := func(batch []int) error {
		if atomic.AddInt32(&fails, 1) <= 2 {
			return errors.New("downstream unavailable")
		}
		return c.handle(batch)
	}
	s := sink.New[int](q, handler, sink.Options{BatchSize: 64, MaxRetries: 10})
	go s.Run()

	for i := 0; i < 10; i++ {
		require.NoError(t, s.Post(i))
	}
	waitFor(t, func() bool { return s.Stats().Delivered == 10 })
	require.NoError(t, s.Close())

	st := s.Stats()
	require.NotZero(t, st.Retried, "failed batches must be counted as retried")
	require.Len(t, c.snapshot(), 10)
}

func TestSinkDropsAfterMaxRetries(t *testing.T) {
	q := ring.NewShared[int](64)
	handler := func(batch []int) error { return errors.New("always failing") }
	s := sink.New[int](q, handler, sink.Options{BatchSize: 64, MaxRetries: 2})
	go s.Run()

	require.NoError(t, s.Post(1))
	waitFor(t, func() bool { return s.Stats().Dropped > 0 })
	err := s.Close()
	// whatever was still parked at close time surfaces the handler error
	if err != nil {
		require.EqualError(t, err, "always failing")
	}
	require.Zero(t, s.Stats().Delivered)
}

func TestSinkFlushWithoutRun(t *testing.T) {
	q := ring.NewShared[int](64)
	var c collector
	s := sink.New[int](q, c.handle, sink.Options{BatchSize: 4})

	for i := 0; i < 9; i++ {
		require.NoError(t, s.Post(i))
	}
	res := s.Flush()
	require.NoError(t, res.Err)
	require.True(t, res.Ok())
	require.Equal(t, 9, res.Value)
	require.Len(t, c.snapshot(), 9)
}

func TestSinkPostAfterCloseFails(t *testing.T) {
	q := ring.NewShared[int](8)
	s := sink.New[int](q, func([]int) error { return nil }, sink.Options{})
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.Post(1), api.ErrSinkClosed)
}

func TestSinkDoubleClose(t *testing.T) {
	q := ring.NewShared[int](8)
	s := sink.New[int](q, func([]int) error { return nil }, sink.Options{})
	require.NoError(t, s.Close())

	err := s.Close()
	e, ok := err.(*api.Error)
	require.Truef(t, ok, "second close returned %T, want *api.Error", err)
	require.Equal(t, api.ErrCodeClosed, e.Code)
}

// A Run started after Close must return instead of draining an abandoned
// sink forever.
func TestSinkRunAfterCloseReturns(t *testing.T) {
	q := ring.NewShared[int](8)
	s := sink.New[int](q, func([]int) error { return nil }, sink.Options{})
	require.NoError(t, s.Close())

	returned := make(chan struct{})
	go func() {
		s.Run()
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Run kept going on a closed sink")
	}
}

func TestSinkOverwriteOldestUnderPressure(t *testing.T) {
	// a sink that never runs: the ring applies overwrite-oldest, so the
	// last Cap() posts survive
	q := ring.NewShared[int](16)
	var c collector
	s := sink.New[int](q, c.handle, sink.Options{BatchSize: 16})

	for i := 0; i < 100; i++ {
		require.NoError(t, s.Post(i))
	}
	res := s.Flush()
	require.NoError(t, res.Err)
	require.Equal(t, 16, res.Value)

	got := c.snapshot()
	require.Len(t, got, 16)
	require.Equal(t, 84, got[0], "oldest surviving entry must be post 84")
	require.Equal(t, 99, got[15])
}

func TestSinkConcurrentProducers(t *testing.T) {
	const producers, perProd = 4, 500
	q := ring.NewShared[int](4096)
	var delivered int64
	handler := func(batch []int) error {
		atomic.AddInt64(&delivered, int64(len(batch)))
		return nil
	}
	s := sink.New[int](q, handler, sink.Options{BatchSize: 32})
	go s.Run()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(pid int) {
			defer wg.Done()
			for i := 0; i < perProd; i++ {
				_ = s.Post(pid*perProd + i)
			}
		}(p)
	}
	wg.Wait()

	waitFor(t, func() bool {
		return atomic.LoadInt64(&delivered) == producers*perProd
	})
	require.NoError(t, s.Close())
	require.EqualValues(t, producers*perProd, s.Stats().Posted)
}
