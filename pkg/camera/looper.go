package camera

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/petermattis/goid"
)

// Looper is a single goroutine that runs posted tasks in FIFO order. Every
// session callback, state transition and frame runs on the session's Looper.
type Looper struct {
	name string

	mu      sync.Mutex
	queue   []func()
	quit    bool
	wake    chan struct{}
	done    chan struct{}
	running atomic.Int64 // goroutine id of the loop, 0 until started
}

// NewLooper starts a looper goroutine.
func NewLooper(name string) *Looper {
	l := &Looper{
		name: name,
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	started := make(chan struct{})
	go l.loop(started)
	<-started
	return l
}

// Name of the looper.
func (l *Looper) Name() string { return l.name }

func (l *Looper) loop(started chan<- struct{}) {
	l.running.Store(goid.Get())
	close(started)
	defer close(l.done)

	for {
		l.mu.Lock()
		for len(l.queue) == 0 && !l.quit {
			l.mu.Unlock()
			<-l.wake
			l.mu.Lock()
		}
		if len(l.queue) == 0 && l.quit {
			l.mu.Unlock()
			return
		}
		task := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		task()
	}
}

// Post enqueues fn. It returns false when the looper has quit and fn will
// never run.
func (l *Looper) Post(fn func()) bool {
	l.mu.Lock()
	if l.quit {
		l.mu.Unlock()
		return false
	}
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
	return true
}

// PostDelayed runs fn on the looper after d. The returned function cancels
// the task if it has not been posted yet.
func (l *Looper) PostDelayed(d time.Duration, fn func()) (cancel func()) {
	t := time.AfterFunc(d, func() { l.Post(fn) })
	return func() { t.Stop() }
}

// Invoke runs fn on the looper and waits for it to return. When called from
// the looper itself fn runs inline. It returns false if the looper has quit.
func (l *Looper) Invoke(fn func()) bool {
	if l.IsCurrent() {
		fn()
		return true
	}
	done := make(chan struct{})
	if !l.Post(func() {
		defer close(done)
		fn()
	}) {
		return false
	}
	<-done
	return true
}

// IsCurrent reports whether the caller runs on the looper goroutine.
func (l *Looper) IsCurrent() bool {
	return goid.Get() == l.running.Load()
}

// CheckOnLoop panics when the caller is not on the looper goroutine.
func (l *Looper) CheckOnLoop() {
	if !l.IsCurrent() {
		panic("camera: wrong thread: expected looper " + l.name)
	}
}

// Quit stops accepting tasks; already queued tasks still run. Quit does not
// wait for the loop to exit, use Done for that.
func (l *Looper) Quit() {
	l.mu.Lock()
	l.quit = true
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Done is closed once the loop goroutine has exited.
func (l *Looper) Done() <-chan struct{} {
	return l.done
}
