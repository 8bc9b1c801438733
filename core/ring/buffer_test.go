package ring

import (
	"testing"

	"github.com/momentics/hioload-ring/pool"
)

func contents[T any](b *Buffer[T]) []T {
	out := make([]T, 0, b.Len())
	for it := b.Begin(); !it.AtEnd(); it.Next() {
		out = append(out, it.Value())
	}
	return out
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPushReadRoundTrip(t *testing.T) {
	const n = 16
	b := New[int](n)
	for i := 0; i < n; i++ {
		b.PushBack(i)
	}
	if b.Len() != n {
		t.Fatalf("Len = %d, want %d", b.Len(), n)
	}
	if !b.Full() {
		t.Fatal("buffer must be full after capacity pushes")
	}
	got := contents(b)
	for i := 0; i < n; i++ {
		if got[i] != i {
			t.Fatalf("position %d holds %d, push order violated", i, got[i])
		}
	}
}

func TestOverwriteOldest(t *testing.T) {
	b := New[int](3)
	b.PushBack(1)
	b.PushBack(2)
	b.PushBack(3)
	if !b.Full() {
		t.Fatal("expected full buffer")
	}
	b.PushBack(4)
	if got := contents(b); !intsEqual(got, []int{2, 3, 4}) {
		t.Fatalf("after eviction got %v, want [2 3 4]", got)
	}
	if b.Front() == 1 {
		t.Fatal("front must no longer be the evicted element")
	}
	if b.Len() != 3 {
		t.Fatalf("eviction changed size: %d", b.Len())
	}
}

func TestSizeInvariant(t *testing.T) {
	b := New[int](5)
	check := func() {
		t.Helper()
		if b.Len() < 0 || b.Len() > b.Cap() {
			t.Fatalf("size invariant violated: len=%d cap=%d", b.Len(), b.Cap())
		}
		if (b.Len() == b.Cap()) != b.Full() {
			t.Fatalf("full flag inconsistent: len=%d cap=%d full=%v", b.Len(), b.Cap(), b.Full())
		}
	}
	for i := 0; i < 17; i++ {
		b.PushBack(i)
		check()
	}
	for !b.Empty() {
		b.PopFront()
		check()
	}
}

func TestClearIdempotence(t *testing.T) {
	const n = 4
	dirty := New[int](n)
	for i := 0; i < 9; i++ {
		dirty.PushBack(100 + i)
	}
	dirty.Clear()
	if dirty.Len() != 0 || !dirty.Empty() {
		t.Fatalf("clear left len=%d", dirty.Len())
	}

	fresh := New[int](n)
	for i := 0; i < n; i++ {
		dirty.PushBack(i)
		fresh.PushBack(i)
	}
	if dirty.Front() != fresh.Front() || dirty.Back() != fresh.Back() {
		t.Fatalf("cleared buffer diverged: front %d/%d back %d/%d",
			dirty.Front(), fresh.Front(), dirty.Back(), fresh.Back())
	}
	for i := 0; i < n; i++ {
		if dirty.At(i) != fresh.At(i) {
			t.Fatalf("At(%d): cleared %d vs fresh %d", i, dirty.At(i), fresh.At(i))
		}
	}
}

func TestPopFrontPopBack(t *testing.T) {
	b := New[int](4)
	for i := 1; i <= 3; i++ {
		b.PushBack(i)
	}
	if v, ok := b.PopBack(); !ok || v != 3 {
		t.Fatalf("PopBack = (%d,%v), want (3,true)", v, ok)
	}
	if v, ok := b.PopFront(); !ok || v != 1 {
		t.Fatalf("PopFront = (%d,%v), want (1,true)", v, ok)
	}
	if v, ok := b.PopFront(); !ok || v != 2 {
		t.Fatalf("PopFront = (%d,%v), want (2,true)", v, ok)
	}
	if _, ok := b.PopFront(); ok {
		t.Fatal("pop from empty must report false")
	}
	if _, ok := b.PopBack(); ok {
		t.Fatal("pop from empty must report false")
	}
}

func TestPopAcrossWrapBoundary(t *testing.T) {
	b := New[int](3)
	for i := 0; i < 3; i++ {
		b.PushBack(i)
	}
	b.PopFront()
	b.PushBack(3) // write wraps physically
	b.PopFront()
	b.PushBack(4)
	if got := contents(b); !intsEqual(got, []int{2, 3, 4}) {
		t.Fatalf("wrapped contents %v, want [2 3 4]", got)
	}
}

func TestInsertMiddle(t *testing.T) {
	b := New[int](8)
	for _, v := range []int{1, 2, 4} {
		b.PushBack(v)
	}
	b.Insert(2, 3)
	if got := contents(b); !intsEqual(got, []int{1, 2, 3, 4}) {
		t.Fatalf("insert got %v, want [1 2 3 4]", got)
	}
}

func TestInsertAtEndIsPush(t *testing.T) {
	b := New[int](4)
	b.PushBack(1)
	b.Insert(1, 2)
	b.Insert(99, 3) // past-the-end degrades to PushBack
	if got := contents(b); !intsEqual(got, []int{1, 2, 3}) {
		t.Fatalf("got %v, want [1 2 3]", got)
	}
}

func TestInsertFullDropsTail(t *testing.T) {
	b := New[int](3)
	b.PushBack(1)
	b.PushBack(2)
	b.PushBack(3)
	b.Insert(1, 9)
	if got := contents(b); !intsEqual(got, []int{1, 9, 2}) {
		t.Fatalf("full insert got %v, want [1 9 2]", got)
	}
	if b.Len() != 3 {
		t.Fatalf("full insert changed size: %d", b.Len())
	}
}

func TestInsertIntoWrappedWindow(t *testing.T) {
	b := New[int](5)
	for i := 0; i < 5; i++ {
		b.PushBack(i)
	}
	b.PopFront()
	b.PopFront()
	b.PushBack(5) // window now straddles physical index 0
	b.Insert(1, 9)
	if got := contents(b); !intsEqual(got, []int{2, 9, 3, 4, 5}) {
		t.Fatalf("wrapped insert got %v, want [2 9 3 4 5]", got)
	}
}

func TestEraseSingle(t *testing.T) {
	b := New[int](8)
	for i := 1; i <= 4; i++ {
		b.PushBack(i)
	}
	it := b.Erase(1)
	if got := contents(b); !intsEqual(got, []int{1, 3, 4}) {
		t.Fatalf("erase got %v, want [1 3 4]", got)
	}
	if it.Index() != 1 || it.Value() != 3 {
		t.Fatalf("returned iterator at %d value %d, want 1/3", it.Index(), it.Value())
	}
}

func TestEraseLastFastPath(t *testing.T) {
	b := New[int](4)
	for i := 1; i <= 3; i++ {
		b.PushBack(i)
	}
	it := b.Erase(2)
	if got := contents(b); !intsEqual(got, []int{1, 2}) {
		t.Fatalf("suffix erase got %v, want [1 2]", got)
	}
	if !it.AtEnd() {
		t.Fatal("erasing the last element must return End")
	}
}

func TestEraseRangeMiddle(t *testing.T) {
	b := New[int](8)
	for i := 1; i <= 6; i++ {
		b.PushBack(i)
	}
	b.EraseRange(1, 4)
	if got := contents(b); !intsEqual(got, []int{1, 5, 6}) {
		t.Fatalf("range erase got %v, want [1 5 6]", got)
	}
}

func TestEraseToEmpty(t *testing.T) {
	b := New[int](6)
	for i := 0; i < 4; i++ {
		b.PushBack(i)
	}
	b.EraseRange(0, b.Len())
	if !b.Empty() || b.Len() != 0 {
		t.Fatalf("erase-to-empty left len=%d", b.Len())
	}
}

func TestEraseAcrossWrapBoundary(t *testing.T) {
	b := New[int](4)
	for i := 0; i < 4; i++ {
		b.PushBack(i)
	}
	b.PopFront()
	b.PopFront()
	b.PushBack(4)
	b.PushBack(5) // window wraps
	b.EraseRange(1, 3)
	if got := contents(b); !intsEqual(got, []int{2, 5}) {
		t.Fatalf("wrapped erase got %v, want [2 5]", got)
	}
}

func TestAtClamps(t *testing.T) {
	b := New[int](3)
	b.PushBack(10)
	b.PushBack(20)
	b.PushBack(30)
	if got := b.At(99); got != 30 {
		t.Fatalf("At(99) = %d, want clamp to last slot 30", got)
	}
	if got := b.At(-5); got != 10 {
		t.Fatalf("At(-5) = %d, want clamp to first slot 10", got)
	}
}

func TestReserveNoOp(t *testing.T) {
	b := New[int](5)
	for i := 0; i < 3; i++ {
		b.PushBack(i)
	}
	before := contents(b)
	b.Reserve(4)
	if b.Cap() != 5 {
		t.Fatalf("no-op reserve changed capacity to %d", b.Cap())
	}
	if got := contents(b); !intsEqual(got, before) {
		t.Fatalf("no-op reserve changed contents: %v -> %v", before, got)
	}
}

func TestReserveGrowPreservesOrder(t *testing.T) {
	b := New[int](3)
	for i := 0; i < 3; i++ {
		b.PushBack(i)
	}
	b.PopFront()
	b.PushBack(3) // wrap before growing
	b.Reserve(10)
	if b.Cap() != 10 {
		t.Fatalf("Cap = %d, want 10", b.Cap())
	}
	if got := contents(b); !intsEqual(got, []int{1, 2, 3}) {
		t.Fatalf("reserve scrambled contents: %v", got)
	}
	// growth must leave room for more pushes without eviction
	for i := 4; i <= 9; i++ {
		b.PushBack(i)
	}
	if b.Front() != 1 {
		t.Fatalf("unexpected eviction after reserve, front=%d", b.Front())
	}
}

func TestNewRejectsBadCapacity(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for zero capacity")
		}
	}()
	New[int](0)
}

func TestAllocatorPlumbing(t *testing.T) {
	alloc := pool.NewHeap[int]()
	b := NewWithAllocator[int](3, alloc)
	b.PushBack(1)
	b.Reserve(8)
	st := alloc.Stats()
	if st.TotalAlloc != 2 {
		t.Fatalf("expected 2 allocations (construct + reserve), got %d", st.TotalAlloc)
	}
	if st.TotalFree != 1 {
		t.Fatalf("expected reserve to release the old slab, got %d frees", st.TotalFree)
	}
}

func TestEmptyReads(t *testing.T) {
	b := New[string](2)
	if b.Front() != "" || b.Back() != "" {
		t.Fatal("empty front/back must be the zero value")
	}
	if _, ok := b.PopFront(); ok {
		t.Fatal("empty pop must report false")
	}
}
