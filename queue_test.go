package transcode

import (
	"testing"
	"time"
)

func TestQueuePushPop(t *testing.T) {
	q := NewQueue[int](4)
	q.Push(1)
	q.Push(2)
	q.Push(3)

	v, ok := q.Pop()
	if !ok || v != 1 {
		t.Fatalf("Pop() = %d, %v; want 1, true", v, ok)
	}
	if q.Len() != 2 {
		t.Errorf("Len() = %d, want 2", q.Len())
	}
}

func TestQueueFinishDrainsBeforeSignalingEmpty(t *testing.T) {
	q := NewQueue[int](4)
	q.Push(1)
	q.Push(2)
	q.Finish()

	v, ok := q.Pop()
	if !ok || v != 1 {
		t.Fatalf("Pop() = %d, %v; want 1, true", v, ok)
	}
	v, ok = q.Pop()
	if !ok || v != 2 {
		t.Fatalf("Pop() = %d, %v; want 2, true", v, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("Pop() after drain = true, want false")
	}
}

func TestQueueFinishIdempotent(t *testing.T) {
	q := NewQueue[int](1)
	q.Finish()
	q.Finish() // must not panic or deadlock
	if !q.Finished() {
		t.Fatal("Finished() = false after Finish()")
	}
}

func TestQueuePushAfterFinishIsNoop(t *testing.T) {
	q := NewQueue[int](1)
	q.Finish()
	q.Push(42) // must not block forever
	if q.Len() != 0 {
		t.Errorf("Len() = %d after Push post-Finish, want 0", q.Len())
	}
}

func TestQueueBlocksOnFullUntilPop(t *testing.T) {
	q := NewQueue[int](1)
	q.Push(1)

	done := make(chan struct{})
	go func() {
		q.Push(2) // should block until the Pop below
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Push on a full queue returned before a Pop freed space")
	case <-time.After(20 * time.Millisecond):
	}

	q.Pop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Push did not unblock after Pop freed space")
	}
}

func TestQueueBlocksOnEmptyUntilPush(t *testing.T) {
	q := NewQueue[int](4)

	result := make(chan int)
	go func() {
		v, _ := q.Pop()
		result <- v
	}()

	select {
	case <-result:
		t.Fatal("Pop on an empty queue returned before a Push arrived")
	case <-time.After(20 * time.Millisecond):
	}

	q.Push(7)

	select {
	case v := <-result:
		if v != 7 {
			t.Errorf("Pop() = %d, want 7", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Pop did not unblock after Push")
	}
}
