package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// errBroker is a generic transport failure.
var errBroker = errors.New("broker unreachable")

// fakeRemote simulates the mock's register storage and records calls.
type fakeRemote struct {
	mu    sync.Mutex
	words map[register.Ref]int
	calls []string
	fail  map[string]error

	// getLimit caps how many words GetWords returns; 0 means no cap.
	getLimit int

	// getGate, when set, blocks GetWords until it is closed.
	getGate chan struct{}

	// monitorDelay holds StartMonitor back per target.
	monitorDelay map[string]time.Duration
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		words: make(map[register.Ref]int),
		fail:  make(map[string]error),
	}
}

func (f *fakeRemote) record(op string, args ...any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := op
	if len(args) > 0 {
		call += fmt.Sprintf("%v", args)
	}
	f.calls = append(f.calls, call)
	return f.fail[op]
}

func (f *fakeRemote) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[op] = err
}

func (f *fakeRemote) set(ref register.Ref, v int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.words[ref] = v
}

func (f *fakeRemote) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeRemote) StartServer(_ context.Context, ip string, tcpPort, udpPort, timeoutMs int) error {
	return f.record("start_mock", ip, tcpPort, udpPort, timeoutMs)
}

func (f *fakeRemote) StopServer(context.Context) error {
	return f.record("stop_mock")
}

func (f *fakeRemote) StartMonitor(ctx context.Context, target string, intervalMs int) error {
	f.mu.Lock()
	delay := f.monitorDelay[target]
	f.mu.Unlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.record("start_monitor", target, intervalMs)
}

func (f *fakeRemote) delayMonitor(target string, d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.monitorDelay == nil {
		f.monitorDelay = make(map[string]time.Duration)
	}
	f.monitorDelay[target] = d
}

func (f *fakeRemote) StopMonitor(context.Context) error {
	return f.record("stop_monitor")
}

func (f *fakeRemote) GetWords(ctx context.Context, key register.Key, addr register.Address, count int) ([]int, error) {
	if f.getGate != nil {
		select {
		case <-f.getGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := f.record("get_words", key, addr, count); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getLimit > 0 && count > f.getLimit {
		count = f.getLimit
	}
	out := make([]int, count)
	for i := range out {
		out[i] = f.words[register.At(key, addr).Offset(i)]
	}
	return out, nil
}

func (f *fakeRemote) SetWords(_ context.Context, key register.Key, addr register.Address, words []int) error {
	if err := f.record("set_words", key, addr, words); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, w := range words {
		f.words[register.At(key, addr).Offset(i)] = w
	}
	return nil
}

// fakePush is a controllable push channel.
type fakePush struct {
	mu           sync.Mutex
	updates      func(Update)
	status       func(string)
	unavailable  bool
	subscribeCnt int
}

func (p *fakePush) SubscribeUpdates(handler func(Update)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subscribeCnt++
	if p.unavailable {
		return nil, ErrChannelUnavailable
	}
	p.updates = handler
	return func() {
		p.mu.Lock()
		p.updates = nil
		p.mu.Unlock()
	}, nil
}

func (p *fakePush) SubscribeStatus(handler func(string)) (func(), error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.unavailable {
		return nil, ErrChannelUnavailable
	}
	p.status = handler
	return func() {}, nil
}

func (p *fakePush) setUnavailable(v bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unavailable = v
}

func (p *fakePush) emit(u Update) {
	p.mu.Lock()
	h := p.updates
	p.mu.Unlock()
	if h != nil {
		h(u)
	}
}

func (p *fakePush) emitStatus(s string) {
	p.mu.Lock()
	h := p.status
	p.mu.Unlock()
	if h != nil {
		h(s)
	}
}

// fakePrefs keeps preferences in memory.
type fakePrefs struct {
	mu        sync.Mutex
	format    format.Format
	autoStart bool
	failSave  bool
}

func (p *fakePrefs) DisplayFormat(context.Context) (format.Format, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format, p.format != "", nil
}

func (p *fakePrefs) SetDisplayFormat(_ context.Context, f format.Format) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failSave {
		return errors.New("disk full")
	}
	p.format = f
	return nil
}

func (p *fakePrefs) AutoStart(context.Context) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.autoStart, nil
}

func (p *fakePrefs) SetAutoStart(_ context.Context, enabled bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.autoStart = enabled
	return nil
}

func (p *fakePrefs) saved() (format.Format, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.format, p.autoStart
}

// recordingRenderer keeps the latest row per register. It runs on the loop.
type recordingRenderer struct {
	rows   map[register.Ref]RowView
	counts map[register.Ref]int
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{
		rows:   make(map[register.Ref]RowView),
		counts: make(map[register.Ref]int),
	}
}

func (r *recordingRenderer) Render(row RowView) {
	r.rows[row.Ref] = row
	r.counts[row.Ref]++
}

// fakeSelector fails until a row has been rendered often enough.
type fakeSelector struct {
	missingFor int
	attempts   int
	selected   []register.Ref
}

func (s *fakeSelector) Select(ref register.Ref) error {
	s.attempts++
	if s.attempts <= s.missingFor {
		return ErrRenderTargetMissing
	}
	s.selected = append(s.selected, ref)
	return nil
}

// startLoop runs a Loop until the test ends.
func startLoop(t *testing.T) *Loop {
	t.Helper()
	loop := NewLoop()
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-loop.Done()
	})
	return loop
}

// onLoop runs fn on the loop and fails the test if it cannot.
func onLoop(t *testing.T, loop *Loop, fn func()) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := loop.Call(ctx, fn); err != nil {
		t.Fatalf("loop.Call() error = %v", err)
	}
}

// eventually polls cond on the loop until it holds or two seconds pass.
func eventually(t *testing.T, loop *Loop, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		var ok bool
		onLoop(t, loop, func() { ok = cond() })
		if ok {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
