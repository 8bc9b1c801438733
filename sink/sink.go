// File: sink/sink.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Background batch drainer with adaptive backoff and retry queue.

package sink

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eapache/queue"

	"github.com/momentics/hioload-ring/api"
)

// Handler consumes one drained batch. A non-nil error sends the batch to
// the retry queue.
type Handler[T any] func(batch []T) error

// Options configures a Sink.
type Options struct {
	// BatchSize caps how many elements one handler call receives.
	// Defaults to 16.
	BatchSize int
	// MaxRetries bounds handler attempts per batch before the batch is
	// dropped. Defaults to 3.
	MaxRetries int
}

// Stats aggregates sink traffic counters.
type Stats struct {
	Posted    uint64
	Delivered uint64
	Retried   uint64
	Dropped   uint64
	Pending   int
}

type retryBatch[T any] struct {
	items    []T
	attempts int
}

// Sink drains a bounded queue in the background.
type Sink[T any] struct {
	src        api.Queue[T]
	handler    Handler[T]
	batchSize  int
	maxRetries int

	// drainMu serializes handler invocations between the run loop and Flush.
	drainMu sync.Mutex

	// mu guards overflow: eapache's queue has no internal synchronization.
	mu       sync.Mutex
	overflow *queue.Queue

	stopCh    chan struct{}
	running   int32
	stopped   int32
	closed    int32
	backoffNs int64

	posted    atomic.Uint64
	delivered atomic.Uint64
	retried   atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a sink draining src through handler. Call Run (usually in its
// own goroutine) to start draining.
func New[T any](src api.Queue[T], handler Handler[T], opts Options) *Sink[T] {
	if src == nil || handler == nil {
		panic("sink: nil source or handler")
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 16
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 3
	}
	return &Sink[T]{
		src:        src,
		handler:    handler,
		batchSize:  opts.BatchSize,
		maxRetries: opts.MaxRetries,
		overflow:   queue.New(),
		stopCh:     make(chan struct{}),
		backoffNs:  1,
	}
}

// Post pushes v into the source ring on behalf of a producer. Never blocks;
// when the ring is full the oldest entry is evicted. Returns ErrSinkClosed
// after Close.
func (s *Sink[T]) Post(v T) error {
	if atomic.LoadInt32(&s.closed) == 1 {
		return api.ErrSinkClosed
	}
	s.src.PushBack(v)
	s.posted.Add(1)
	return nil
}

// Run is the writer loop: drain a batch, deliver, back off adaptively when
// idle. Returns when Close is called. Only one Run may be active.
func (s *Sink[T]) Run() {
	if !atomic.CompareAndSwapInt32(&s.running, 0, 1) {
		return
	}
	defer atomic.StoreInt32(&s.stopped, 1)
	for {
		select {
		case <-s.stopCh:
			return
		default:
			if s.drainOnce() == 0 {
				s.adaptiveBackoff()
			} else {
				atomic.StoreInt64(&s.backoffNs, 1)
			}
		}
	}
}

// drainOnce retries one overflow batch, then drains and delivers up to
// batchSize fresh elements. Returns the number of elements handed to the
// handler.
func (s *Sink[T]) drainOnce() int {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	processed := s.retryOne()

	batch := make([]T, 0, s.batchSize)
	for len(batch) < s.batchSize {
		v, ok := s.src.PopFront()
		if !ok {
			break
		}
		batch = append(batch, v)
	}
	if len(batch) == 0 {
		return processed
	}
	s.deliver(batch, 0)
	return processed + len(batch)
}

// retryOne re-attempts the oldest parked batch, if any.
func (s *Sink[T]) retryOne() int {
	s.mu.Lock()
	if s.overflow.Length() == 0 {
		s.mu.Unlock()
		return 0
	}
	rb := s.overflow.Remove().(retryBatch[T])
	s.mu.Unlock()

	s.deliver(rb.items, rb.attempts)
	return len(rb.items)
}

func (s *Sink[T]) deliver(items []T, attempts int) {
	if err := s.handler(items); err == nil {
		s.delivered.Add(uint64(len(items)))
		return
	}
	attempts++
	if attempts >= s.maxRetries {
		s.dropped.Add(uint64(len(items)))
		return
	}
	s.retried.Add(uint64(len(items)))
	s.mu.Lock()
	s.overflow.Add(retryBatch[T]{items: items, attempts: attempts})
	s.mu.Unlock()
}

// Flush synchronously drains everything currently pending: parked retry
// batches first, then the source ring. Safe to call while Run is active;
// handler invocations are serialized. The result carries the number of
// elements handed to the handler.
func (s *Sink[T]) Flush() api.Result[int] {
	s.drainMu.Lock()
	defer s.drainMu.Unlock()

	total := 0
	for {
		s.mu.Lock()
		n := s.overflow.Length()
		if n == 0 {
			s.mu.Unlock()
			break
		}
		rb := s.overflow.Remove().(retryBatch[T])
		s.mu.Unlock()
		if err := s.handler(rb.items); err != nil {
			s.dropped.Add(uint64(len(rb.items)))
			return api.Result[int]{Value: total, Err: err}
		}
		s.delivered.Add(uint64(len(rb.items)))
		total += len(rb.items)
	}

	for {
		batch := make([]T, 0, s.batchSize)
		for len(batch) < s.batchSize {
			v, ok := s.src.PopFront()
			if !ok {
				break
			}
			batch = append(batch, v)
		}
		if len(batch) == 0 {
			return api.Result[int]{Value: total}
		}
		if err := s.handler(batch); err != nil {
			s.dropped.Add(uint64(len(batch)))
			return api.Result[int]{Value: total, Err: err}
		}
		s.delivered.Add(uint64(len(batch)))
		total += len(batch)
	}
}

// Close stops the writer loop, waits for it to exit, then flushes whatever
// is still pending. Further Posts fail with ErrSinkClosed.
func (s *Sink[T]) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return api.NewError(api.ErrCodeClosed, "sink: already closed")
	}
	// stopCh closes even when Run never started, so a late Run returns
	// immediately instead of draining an abandoned sink
	close(s.stopCh)
	if atomic.LoadInt32(&s.running) == 1 {
		for atomic.LoadInt32(&s.stopped) == 0 {
			time.Sleep(time.Microsecond)
		}
	}
	return s.Flush().Err
}

// Stats returns traffic counters and the parked batch count.
func (s *Sink[T]) Stats() Stats {
	s.mu.Lock()
	pending := s.overflow.Length()
	s.mu.Unlock()
	return Stats{
		Posted:    s.posted.Load(),
		Delivered: s.delivered.Load(),
		Retried:   s.retried.Load(),
		Dropped:   s.dropped.Load(),
		Pending:   pending,
	}
}

func (s *Sink[T]) adaptiveBackoff() {
	select {
	case <-s.stopCh:
		return
	default:
	}
	backoff := atomic.LoadInt64(&s.backoffNs)
	if backoff < 1000 {
		time.Sleep(time.Microsecond)
	} else {
		runtime.Gosched()
	}
	next := backoff * 2
	if next > 1_000_000 {
		next = 1_000_000
	}
	atomic.StoreInt64(&s.backoffNs, next)
}
