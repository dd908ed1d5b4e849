package monitor

import (
	"errors"
	"time"

	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Mode is the router's active update strategy.
type Mode int

// Update strategies.
const (
	ModeIdle Mode = iota // not monitoring
	ModePush             // notifications from the push channel
	ModePoll             // periodic reads by the Poller
)

// String returns the mode name used in logs and the API.
func (m Mode) String() string {
	switch m {
	case ModePush:
		return "push"
	case ModePoll:
		return "poll"
	default:
		return "idle"
	}
}

// Router feeds live register updates into the Store.
//
// Push and poll share one delivery contract, Deliver, so the Store cannot
// tell which produced a value. Push is preferred; the Poller is used only
// while subscribing to the push channel fails. The probe is repeated on
// every Start until a subscription succeeds.
type Router struct {
	loop   Dispatcher
	store  *Store
	push   PushChannel
	poller *Poller
	logger Logger

	unsubscribe func()
	mode        Mode
	base        register.Ref
}

// NewRouter creates an idle Router.
//
// Parameters:
//   - loop: Dispatcher running the engine goroutine
//   - store: Destination of every update
//   - push: Push channel; nil means push is structurally absent
//   - reader: Used by the polling fallback
//   - interval, count: Polling period and block size
func NewRouter(loop Dispatcher, store *Store, push PushChannel, reader WordReader, interval time.Duration, count int) *Router {
	r := &Router{
		loop:   loop,
		store:  store,
		push:   push,
		logger: noopLogger{},
	}
	r.poller = NewPoller(loop, reader, r.Deliver, interval, count)
	return r
}

// SetLogger sets the logger for the router and its poller.
func (r *Router) SetLogger(logger Logger) {
	r.logger = logger
	r.poller.SetLogger(logger)
}

// Poller exposes the polling fallback, mainly so callers can set OnError.
func (r *Router) Poller() *Poller {
	return r.poller
}

// Deliver writes one update into the Store.
//
// values[i] is stored at addr+i. An empty list clears addr to 0.
// Updates are applied in arrival order with no deduplication.
func (r *Router) Deliver(key register.Key, addr register.Address, values []int) {
	start := register.At(key, addr)
	if len(values) == 0 {
		r.store.Set(start, 0)
		return
	}
	for i, v := range values {
		r.store.Set(start.Offset(i), v)
	}
}

// Start begins monitoring from base and returns the mode chosen.
//
// A previous poll loop is always stopped first, so at most one strategy
// is active.
func (r *Router) Start(base register.Ref) Mode {
	r.poller.Stop()
	r.base = base

	if err := r.subscribe(); err == nil {
		r.mode = ModePush
		return r.mode
	} else if !errors.Is(err, ErrChannelUnavailable) {
		r.logger.Warn("push subscription failed", "error", err)
	}

	r.poller.Start(base)
	r.mode = ModePoll
	return r.mode
}

// Stop ends monitoring. It is idempotent.
// The push subscription is kept; the mock stops pushing on stop_monitor.
func (r *Router) Stop() {
	r.poller.Stop()
	r.mode = ModeIdle
}

// Close stops monitoring and drops the push subscription.
func (r *Router) Close() {
	r.Stop()
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
}

// Mode returns the active strategy.
func (r *Router) Mode() Mode {
	return r.mode
}

// Base returns the address monitoring started from.
func (r *Router) Base() register.Ref {
	return r.base
}

func (r *Router) subscribe() error {
	if r.unsubscribe != nil {
		return nil
	}
	if r.push == nil {
		return ErrChannelUnavailable
	}

	unsubscribe, err := r.push.SubscribeUpdates(func(u Update) {
		r.loop.Post(func() { r.Deliver(u.Key, u.Addr, u.Values) })
	})
	if err != nil {
		return err
	}
	r.unsubscribe = unsubscribe
	r.logger.Info("push channel subscribed")
	return nil
}
