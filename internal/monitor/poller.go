package monitor

import (
	"context"
	"time"

	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Polling defaults.
const (
	// DefaultPollInterval is the polling fallback period.
	DefaultPollInterval = 500 * time.Millisecond

	// DefaultBlockSize is how many words a poll or snapshot reads.
	DefaultBlockSize = 30
)

// WordReader reads a block of words from the mock.
type WordReader interface {
	GetWords(ctx context.Context, key register.Key, addr register.Address, count int) ([]int, error)
}

// Poller periodically reads a block of words and delivers them.
//
// It is the fallback used when the push channel is unavailable. Start and
// Stop run on the Loop; reads happen on their own goroutine and results are
// posted back. A result arriving after Stop, or after a restart at a new
// base, is discarded.
type Poller struct {
	loop     Dispatcher
	reader   WordReader
	deliver  func(key register.Key, addr register.Address, values []int)
	interval time.Duration
	count    int
	logger   Logger

	// OnError receives failed reads. It runs on the Loop.
	OnError func(err error)

	generation uint64
	active     bool
	base       register.Ref
	timer      *time.Timer
	busy       bool
	cancel     context.CancelFunc
}

// NewPoller creates a stopped Poller.
//
// Parameters:
//   - loop: Dispatcher running the engine goroutine
//   - reader: Source of words
//   - deliver: Receives every returned block on the Loop
//   - interval: Period between reads; DefaultPollInterval when zero
//   - count: Words per read; DefaultBlockSize when zero
func NewPoller(loop Dispatcher, reader WordReader, deliver func(register.Key, register.Address, []int), interval time.Duration, count int) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if count <= 0 {
		count = DefaultBlockSize
	}
	return &Poller{
		loop:     loop,
		reader:   reader,
		deliver:  deliver,
		interval: interval,
		count:    count,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the poller.
func (p *Poller) SetLogger(logger Logger) {
	p.logger = logger
}

// Start begins polling from base, stopping any previous poll loop first.
func (p *Poller) Start(base register.Ref) {
	p.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	p.generation++
	p.active = true
	p.base = base
	p.cancel = cancel
	p.busy = false
	p.schedule(ctx, p.generation)

	p.logger.Info("polling started", "base", base.String(), "interval", p.interval, "count", p.count)
}

// Stop ends polling. It is safe to call when already stopped.
func (p *Poller) Stop() {
	if !p.active {
		return
	}
	p.active = false
	p.generation++
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.logger.Info("polling stopped", "base", p.base.String())
}

// Active reports whether polling is running.
func (p *Poller) Active() bool {
	return p.active
}

// Base returns the address polling reads from.
func (p *Poller) Base() register.Ref {
	return p.base
}

func (p *Poller) schedule(ctx context.Context, gen uint64) {
	p.timer = p.loop.AfterFunc(p.interval, func() { p.tick(ctx, gen) })
}

func (p *Poller) tick(ctx context.Context, gen uint64) {
	if gen != p.generation || !p.active {
		return
	}
	p.schedule(ctx, gen)

	// A slow mock must not pile up reads.
	if p.busy {
		return
	}
	p.busy = true

	base := p.base
	count := p.count
	go func() {
		values, err := p.reader.GetWords(ctx, base.Key, base.Addr, count)
		p.loop.Post(func() { p.complete(gen, base, values, err) })
	}()
}

func (p *Poller) complete(gen uint64, base register.Ref, values []int, err error) {
	if gen != p.generation || !p.active {
		return
	}
	p.busy = false

	if err != nil {
		if p.OnError != nil {
			p.OnError(&RemoteCallError{Op: "get_words", Err: err})
		}
		return
	}
	if len(values) == 0 {
		return
	}
	p.deliver(base.Key, base.Addr, values)
}
