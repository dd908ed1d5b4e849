package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Dispatcher schedules closures on the engine goroutine.
type Dispatcher interface {
	// Post queues fn. It reports false when the loop has stopped.
	Post(fn func()) bool

	// AfterFunc posts fn after d. Stopping the returned timer cancels it.
	AfterFunc(d time.Duration, fn func()) *time.Timer
}

// Loop is a cooperative single-goroutine executor.
//
// Post never blocks, so MQTT handlers and timers can hand work over without
// waiting on the engine. Closures run in the order they were posted.
//
// Thread Safety:
//   - Post, AfterFunc and Call are safe for concurrent use.
//   - Closures run only on the goroutine executing Run.
type Loop struct {
	mu      sync.Mutex
	queue   []func()
	stopped bool

	wake chan struct{}
	done chan struct{}

	logger Logger
}

// NewLoop creates a Loop. Nothing runs until Run is called.
func NewLoop() *Loop {
	return &Loop{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger used to report panics in posted closures.
func (l *Loop) SetLogger(logger Logger) {
	l.logger = logger
}

// Post queues fn for execution on the loop.
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	if l.stopped {
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

// AfterFunc posts fn to the loop once d has elapsed.
func (l *Loop) AfterFunc(d time.Duration, fn func()) *time.Timer {
	return time.AfterFunc(d, func() { l.Post(fn) })
}

// Call runs fn on the loop and waits for it to finish.
//
// Returns:
//   - error: ctx.Err() if ctx ends first, ErrLoopStopped if the loop exits
func (l *Loop) Call(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	if !l.Post(func() {
		defer close(finished)
		fn()
	}) {
		return ErrLoopStopped
	}

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-l.done:
		return ErrLoopStopped
	}
}

// Run executes posted closures until ctx is cancelled.
// Closures still queued at that point are dropped.
func (l *Loop) Run(ctx context.Context) error {
	defer func() {
		l.mu.Lock()
		l.stopped = true
		l.queue = nil
		l.mu.Unlock()
		close(l.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
			l.drain(ctx)
		}
	}
}

// Done is closed once Run has returned.
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

func (l *Loop) drain(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		l.mu.Lock()
		if len(l.queue) == 0 {
			l.mu.Unlock()
			return
		}
		fn := l.queue[0]
		l.queue[0] = nil
		l.queue = l.queue[1:]
		l.mu.Unlock()

		l.run(fn)
	}
}

func (l *Loop) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("panic in monitor loop", "panic", fmt.Sprint(r))
		}
	}()
	fn()
}
