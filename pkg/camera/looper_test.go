package camera

import (
	"sync"
	"testing"
	"time"
)

func TestLooper_RunsInOrder(t *testing.T) {
	l := newTestLooper(t)

	var mu sync.Mutex
	var got []int
	for i := range 100 {
		l.Post(func() {
			mu.Lock()
			got = append(got, i)
			mu.Unlock()
		})
	}
	l.Invoke(func() {})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 100 {
		t.Fatalf("Expected 100 tasks, got %d", len(got))
	}
	for i, v := range got {
		if v != i {
			t.Fatalf("Task %d ran at position %d", v, i)
		}
	}
}

func TestLooper_IsCurrent(t *testing.T) {
	l := newTestLooper(t)

	if l.IsCurrent() {
		t.Error("Test goroutine must not be the looper")
	}
	var onLoop bool
	l.Invoke(func() { onLoop = l.IsCurrent() })
	if !onLoop {
		t.Error("Expected IsCurrent on the looper")
	}
}

func TestLooper_InvokeInlineOnLoop(t *testing.T) {
	l := newTestLooper(t)

	var order []string
	l.Invoke(func() {
		order = append(order, "outer")
		l.Invoke(func() { order = append(order, "inner") })
		order = append(order, "after")
	})
	if len(order) != 3 || order[1] != "inner" {
		t.Errorf("Expected nested invoke to run inline, got %v", order)
	}
}

func TestLooper_CheckOnLoopPanicsElsewhere(t *testing.T) {
	l := newTestLooper(t)

	defer func() {
		if recover() == nil {
			t.Error("Expected panic off the looper")
		}
	}()
	l.CheckOnLoop()
}

func TestLooper_PostDelayed(t *testing.T) {
	l := newTestLooper(t)

	fired := make(chan struct{})
	l.PostDelayed(10*time.Millisecond, func() { close(fired) })
	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("Delayed task never ran")
	}

	cancel := l.PostDelayed(50*time.Millisecond, func() { t.Error("Cancelled task ran") })
	cancel()
	time.Sleep(100 * time.Millisecond)
	l.Invoke(func() {})
}

func TestLooper_QuitDrainsQueue(t *testing.T) {
	l := NewLooper("quit")

	ran := 0
	block := make(chan struct{})
	l.Post(func() { <-block })
	for range 3 {
		l.Post(func() { ran++ })
	}
	l.Quit()
	close(block)

	select {
	case <-l.Done():
	case <-time.After(time.Second):
		t.Fatal("Looper did not exit")
	}
	if ran != 3 {
		t.Errorf("Expected queued tasks to run before exit, got %d", ran)
	}
	if l.Post(func() {}) {
		t.Error("Expected Post to fail after Quit")
	}
	if l.Invoke(func() {}) {
		t.Error("Expected Invoke to fail after Quit")
	}
}
