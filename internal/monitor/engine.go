package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/melsec-monitor/internal/format"
	"github.com/nerrad567/melsec-monitor/internal/register"
)

// Engine defaults.
const (
	defaultMonitorIntervalMs = 500
	defaultSelectRetries     = 6
	defaultSelectRetryDelay  = 60 * time.Millisecond
	defaultCallTimeout       = 10 * time.Second
	defaultAutoStartDelay    = 150 * time.Millisecond

	// settlePollInterval is how often Settle checks for in-flight calls.
	settlePollInterval = 5 * time.Millisecond
)

// Options configures an Engine. Zero values take the defaults.
type Options struct {
	DefaultTarget     string
	BlockSize         int
	PollInterval      time.Duration
	MonitorIntervalMs int
	SelectRetries     int
	SelectRetryDelay  time.Duration
	CallTimeout       time.Duration
	AutoStartDelay    time.Duration
	DiagLogSize       int
	Server            ServerOptions
}

func (o Options) withDefaults() Options {
	if o.DefaultTarget == "" {
		o.DefaultTarget = "D0"
	}
	if o.BlockSize <= 0 {
		o.BlockSize = DefaultBlockSize
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.MonitorIntervalMs <= 0 {
		o.MonitorIntervalMs = defaultMonitorIntervalMs
	}
	if o.SelectRetries <= 0 {
		o.SelectRetries = defaultSelectRetries
	}
	if o.SelectRetryDelay <= 0 {
		o.SelectRetryDelay = defaultSelectRetryDelay
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = defaultCallTimeout
	}
	if o.AutoStartDelay <= 0 {
		o.AutoStartDelay = defaultAutoStartDelay
	}
	if o.Server == (ServerOptions{}) {
		o.Server = DefaultServerOptions()
	}
	return o
}

// DefaultOptions returns the options used by the reference setup.
func DefaultOptions() Options {
	return Options{}.withDefaults()
}

// Deps are the engine's collaborators. Loop and Remote are required.
type Deps struct {
	Loop    *Loop
	Remote  Remote
	Push    PushChannel // nil: always poll
	Prefs   Preferences // nil: nothing persisted
	History History     // nil: no history
	Logger  Logger
}

// State is a snapshot of the engine for front ends.
type State struct {
	Target    register.Ref
	Format    format.Format
	Mode      Mode
	Server    ServerState
	AutoStart bool
	Session   *EditSession
	Known     int
}

// Engine is the register monitor engine.
//
// Thread Safety:
//   - Methods taking a context.Context may be called from any goroutine;
//     they run their work on the Loop.
//   - AddRenderer, SetSelector and Store must be used before Boot.
type Engine struct {
	opts    Options
	loop    *Loop
	remote  Remote
	push    PushChannel
	prefs   Preferences
	history History
	logger  Logger

	diag     *DiagLog
	formats  *FormatSetting
	store    *Store
	router   *Router
	editor   *Editor
	selector Selector

	target       register.Ref
	server       ServerState
	starting     bool
	serverGen    uint64
	autoStart    bool
	inflight     int
	statusCancel func()

	// controlTail is closed when the last queued control command finishes.
	controlTail chan struct{}

	baseCtx context.Context
	cancel  context.CancelFunc
}

// New creates an Engine. Nothing happens until Boot.
func New(opts Options, deps Deps) *Engine {
	opts = opts.withDefaults()

	logger := deps.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	prefs := deps.Prefs
	if prefs == nil {
		prefs = noopPrefs{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		opts:    opts,
		loop:    deps.Loop,
		remote:  deps.Remote,
		push:    deps.Push,
		prefs:   prefs,
		history: deps.History,
		logger:  logger,
		diag:    NewDiagLog(opts.DiagLogSize, logger),
		formats: NewFormatSetting(format.Default),
		target:  register.ParseTargetLenient(opts.DefaultTarget),
		server:  ServerState{StatusText: StatusTextStopped},
		baseCtx: ctx,
		cancel:  cancel,
	}

	e.store = NewStore(e.formats)
	e.router = NewRouter(e.loop, e.store, e.push, e.remote, opts.PollInterval, opts.BlockSize)
	e.router.SetLogger(logger)
	e.router.Poller().OnError = func(err error) {
		e.diag.AddError("fallback get_words failed", err)
	}
	e.editor = NewEditor(e.formats, e.store, e.issueWrite)

	e.formats.Subscribe(func(f format.Format) {
		e.store.RenderAll()
		e.diag.Add("display format changed", "format", f.String())
		e.persist("save display format", func(ctx context.Context) error {
			return e.prefs.SetDisplayFormat(ctx, f)
		})
	})

	if e.history != nil {
		e.store.Watch(e.history.RecordWord)
	}

	return e
}

// AddRenderer registers r to receive row renders.
func (e *Engine) AddRenderer(r Renderer) {
	e.store.AddRenderer(r)
}

// SetSelector sets the row selection target used after start and retarget.
func (e *Engine) SetSelector(s Selector) {
	e.selector = s
}

// Store exposes the word cache to code running on the Loop.
func (e *Engine) Store() *Store {
	return e.store
}

// Loop returns the engine's Loop.
func (e *Engine) Loop() *Loop {
	return e.loop
}

// Diag returns the diagnostic log.
func (e *Engine) Diag() *DiagLog {
	return e.diag
}

// Boot restores persisted settings, subscribes to server status and reads
// the initial snapshot at the default target. The Loop must be running.
//
// When auto-start was saved, the server is started shortly afterwards.
func (e *Engine) Boot(ctx context.Context) error {
	saved, haveFormat, err := e.prefs.DisplayFormat(ctx)
	if err != nil {
		e.logger.Warn("loading display format", "error", err)
	}
	autoStart, err := e.prefs.AutoStart(ctx)
	if err != nil {
		e.logger.Warn("loading auto-start", "error", err)
	}

	return e.loop.Call(ctx, func() {
		if haveFormat && saved.Valid() {
			e.formats.current = saved
		}
		e.autoStart = autoStart

		e.subscribeStatus()
		e.snapshot()

		if autoStart {
			e.loop.AfterFunc(e.opts.AutoStartDelay, e.startServer)
		}
	})
}

// Close stops monitoring and releases subscriptions. In-flight remote calls
// are cancelled.
func (e *Engine) Close(ctx context.Context) error {
	err := e.loop.Call(ctx, func() {
		e.router.Close()
		if e.statusCancel != nil {
			e.statusCancel()
			e.statusCancel = nil
		}
	})
	e.cancel()
	if errors.Is(err, ErrLoopStopped) {
		return nil
	}
	return err
}

// Settle waits until no remote call started by the engine is outstanding.
// Poll reads are not counted.
func (e *Engine) Settle(ctx context.Context) error {
	for {
		var n int
		if err := e.loop.Call(ctx, func() { n = e.inflight }); err != nil {
			return err
		}
		if n == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settlePollInterval):
		}
	}
}

// State returns a snapshot of the engine.
func (e *Engine) State(ctx context.Context) (State, error) {
	var s State
	err := e.loop.Call(ctx, func() {
		s = State{
			Target:    e.target,
			Format:    e.formats.Current(),
			Mode:      e.router.Mode(),
			Server:    e.server,
			AutoStart: e.autoStart,
			Known:     e.store.Len(),
		}
		if sess, ok := e.editor.Session(); ok {
			s.Session = &sess
		}
	})
	return s, err
}

// Row returns the rendered row for ref.
func (e *Engine) Row(ctx context.Context, ref register.Ref) (RowView, error) {
	var row RowView
	err := e.loop.Call(ctx, func() { row = e.store.View(ref) })
	return row, err
}

// SetFormat changes the display format, re-renders every row and saves it.
// An open edit session switches to the same write format.
func (e *Engine) SetFormat(ctx context.Context, f format.Format) error {
	if !f.Valid() {
		return fmt.Errorf("%w: %q", format.ErrUnknownFormat, f)
	}
	return e.loop.Call(ctx, func() { e.formats.Set(f) })
}

// Retarget moves monitoring to the register named by text.
//
// Unparseable input falls back to the letters of text at address 0. Rows
// already shown stay, the new block is seeded with placeholders, and when
// the server is running the mock subscription (or poll loop) moves too.
func (e *Engine) Retarget(ctx context.Context, text string) (register.Ref, error) {
	ref := register.ParseTargetLenient(text)
	err := e.loop.Call(ctx, func() {
		e.target = ref
		e.store.SeedPlaceholders(ref, e.opts.BlockSize)
		e.diag.Add("target changed", "target", ref.String())

		if !e.server.Running {
			return
		}
		e.restartMonitoring()
	})
	return ref, err
}

// ToggleServer starts the mock server when stopped and stops it when running.
func (e *Engine) ToggleServer(ctx context.Context) error {
	return e.loop.Call(ctx, e.toggleServer)
}

// SetAutoStart sets whether the server starts on the next launch.
// The flag is saved on the next successful server start.
func (e *Engine) SetAutoStart(ctx context.Context, enabled bool) error {
	return e.loop.Call(ctx, func() { e.autoStart = enabled })
}

// OpenEdit opens an edit session on ref, discarding any open one.
func (e *Engine) OpenEdit(ctx context.Context, ref register.Ref) (EditSession, error) {
	var sess EditSession
	err := e.loop.Call(ctx, func() { sess = e.editor.Open(ref) })
	return sess, err
}

// SetEditFormat changes the open session's write format and the display format.
func (e *Engine) SetEditFormat(ctx context.Context, f format.Format) error {
	var opErr error
	if err := e.loop.Call(ctx, func() { opErr = e.editor.SetFormat(f) }); err != nil {
		return err
	}
	return opErr
}

// SubmitEdit writes text through the open session.
// On a parse error the session stays open and nothing is written.
func (e *Engine) SubmitEdit(ctx context.Context, text string) (format.Write, error) {
	var (
		w     format.Write
		opErr error
	)
	if err := e.loop.Call(ctx, func() {
		w, opErr = e.editor.Submit(text)
		if opErr != nil {
			e.logger.Debug("edit rejected", "input", text, "error", opErr)
		}
	}); err != nil {
		return format.Write{}, err
	}
	return w, opErr
}

// CancelEdit closes the open session. It reports whether one was open.
func (e *Engine) CancelEdit(ctx context.Context) (bool, error) {
	var open bool
	err := e.loop.Call(ctx, func() { open = e.editor.Cancel() })
	return open, err
}

// WriteWords writes a comma-separated list of words starting at ref.
//
// Tokens are decimal or 0x-prefixed hex, each masked to 16 bits. The cache
// is updated immediately, as for edits.
func (e *Engine) WriteWords(ctx context.Context, ref register.Ref, text string) ([]uint16, error) {
	words, err := format.ParseWords(text)
	if err != nil {
		return nil, err
	}
	err = e.loop.Call(ctx, func() {
		e.issueWrite(format.Write{Start: ref, Words: words}, format.U16)
		for i, w := range words {
			e.store.Set(ref.Offset(i), int(w))
		}
	})
	return words, err
}

// Write encodes text in format f at ref and writes it, without touching the
// edit session or the display format. Validation and the optimistic store
// update match SubmitEdit.
func (e *Engine) Write(ctx context.Context, ref register.Ref, f format.Format, text string) (format.Write, error) {
	w, err := format.PlanWrite(f, ref, text)
	if err != nil {
		return format.Write{}, err
	}
	err = e.loop.Call(ctx, func() {
		e.issueWrite(w, f)
		for i, word := range w.Words {
			e.store.Set(w.Start.Offset(i), int(word))
		}
	})
	return w, err
}

// Rows returns every known row in display order.
func (e *Engine) Rows(ctx context.Context) ([]RowView, error) {
	var rows []RowView
	err := e.loop.Call(ctx, func() {
		refs := e.store.Refs()
		rows = make([]RowView, len(refs))
		for i, ref := range refs {
			rows[i] = e.store.View(ref)
		}
	})
	return rows, err
}

// snapshot reads the block at the target once and seeds what is missing.
func (e *Engine) snapshot() {
	target := e.target
	count := e.opts.BlockSize

	var values []int
	e.async("get_words", func(ctx context.Context) error {
		var err error
		values, err = e.remote.GetWords(ctx, target.Key, target.Addr, count)
		return err
	}, func(err error) {
		if err != nil || len(values) == 0 {
			e.store.SeedPlaceholders(target, count)
			e.diag.Add("initial snapshot empty; seeded placeholders", "target", target.String(), "count", count)
			return
		}

		for i, v := range values {
			e.store.Set(target.Offset(i), v)
		}
		if len(values) < count {
			e.store.SeedPlaceholders(target.Offset(len(values)), count-len(values))
		}
		e.diag.Add("initial snapshot loaded", "target", target.String(), "rows", len(values))
	})
}

// restartMonitoring re-points the mock and the router at the target.
// stop_monitor and start_monitor go out as one control command, so
// successive retargets reach the mock in order.
func (e *Engine) restartMonitoring() {
	target := e.target.String()
	interval := e.opts.MonitorIntervalMs
	e.control("restart_monitor", func(ctx context.Context) error {
		if err := e.remote.StopMonitor(ctx); err != nil {
			e.logger.Warn("stop_monitor failed", "error", err)
		}
		if err := e.remote.StartMonitor(ctx, target, interval); err != nil {
			return &RemoteCallError{Op: "start_monitor", Err: err}
		}
		return nil
	}, func(err error) {
		if err == nil {
			e.diag.Add("start_monitor invoked", "target", target, "interval_ms", interval)
		}
	})

	mode := e.router.Start(e.target)
	e.diag.Add("monitoring moved", "target", target, "mode", mode.String())
	e.selectTarget()
}

// issueWrite sends a planned write to the mock. Failures are logged only.
func (e *Engine) issueWrite(w format.Write, f format.Format) {
	if e.history != nil {
		e.history.RecordWrite(w.Start, f, w.Words)
	}

	words := make([]int, len(w.Words))
	for i, word := range w.Words {
		words[i] = int(word)
	}
	e.async("set_words", func(ctx context.Context) error {
		return e.remote.SetWords(ctx, w.Start.Key, w.Start.Addr, words)
	}, func(err error) {
		if err == nil {
			e.diag.Add("set_words invoked", "start", w.Start.String(), "words", words)
		}
	})
}

// selectTarget selects the target row, retrying while it is not rendered yet.
func (e *Engine) selectTarget() {
	if e.selector == nil {
		return
	}
	target := e.target

	var attempt func(left int)
	attempt = func(left int) {
		err := e.selector.Select(target)
		if errors.Is(err, ErrRenderTargetMissing) && left > 0 {
			e.loop.AfterFunc(e.opts.SelectRetryDelay, func() { attempt(left - 1) })
		}
	}
	attempt(e.opts.SelectRetries)
}

func (e *Engine) subscribeStatus() {
	if e.push == nil || e.statusCancel != nil {
		return
	}
	cancel, err := e.push.SubscribeStatus(func(text string) {
		e.loop.Post(func() { e.handleStatus(text) })
	})
	if err != nil {
		e.diag.AddError("server-status unavailable", err)
		return
	}
	e.statusCancel = cancel
}

// async runs call off the Loop and then done on the Loop.
// Failures are recorded as RemoteCallError in the diagnostic log.
func (e *Engine) async(op string, call func(ctx context.Context) error, done func(err error)) {
	e.dispatch(op, nil, nil, call, done)
}

// control is async for commands that change what the mock is doing
// (start_mock, stop_mock, start_monitor, stop_monitor). Each one waits
// for the previous one to finish, so the mock sees them in issue order.
func (e *Engine) control(op string, call func(ctx context.Context) error, done func(err error)) {
	prev := e.controlTail
	next := make(chan struct{})
	e.controlTail = next
	e.dispatch(op, prev, next, call, done)
}

// dispatch runs call once after is closed (nil: immediately) and closes
// finished (when set) after done has been queued on the Loop.
func (e *Engine) dispatch(op string, after <-chan struct{}, finished chan struct{}, call func(ctx context.Context) error, done func(err error)) {
	e.inflight++
	go func() {
		var err error
		if after != nil {
			select {
			case <-after:
			case <-e.baseCtx.Done():
				err = e.baseCtx.Err()
			}
		}
		if err == nil {
			ctx, cancel := context.WithTimeout(e.baseCtx, e.opts.CallTimeout)
			err = call(ctx)
			cancel()
		}

		if err != nil {
			var rce *RemoteCallError
			if !errors.As(err, &rce) {
				err = &RemoteCallError{Op: op, Err: err}
			}
		}

		e.loop.Post(func() {
			e.inflight--
			if err != nil {
				e.diag.AddError(op+" failed", err)
			}
			if done != nil {
				done(err)
			}
		})
		if finished != nil {
			close(finished)
		}
	}()
}

// persist saves a preference off the Loop. Failures are logged only.
func (e *Engine) persist(what string, save func(ctx context.Context) error) {
	e.inflight++
	go func() {
		ctx, cancel := context.WithTimeout(e.baseCtx, e.opts.CallTimeout)
		err := save(ctx)
		cancel()

		e.loop.Post(func() {
			e.inflight--
			if err != nil {
				e.logger.Warn(what+" failed", "error", err)
			}
		})
	}()
}

// noopPrefs is used when no preference store is configured.
type noopPrefs struct{}

func (noopPrefs) DisplayFormat(context.Context) (format.Format, bool, error) { return "", false, nil }
func (noopPrefs) SetDisplayFormat(context.Context, format.Format) error     { return nil }
func (noopPrefs) AutoStart(context.Context) (bool, error)                   { return false, nil }
func (noopPrefs) SetAutoStart(context.Context, bool) error                  { return nil }
