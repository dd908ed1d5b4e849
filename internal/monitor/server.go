package monitor

import "context"

// Server status labels, as the mock reports them.
const (
	StatusTextRunning = "起動中"   // running
	StatusTextFailed  = "起動失敗" // failed to start
	StatusTextStopped = "停止中"   // stopped
)

// ServerOptions are handed to the mock when starting its listeners.
type ServerOptions struct {
	IP        string
	TCPPort   int
	UDPPort   int
	TimeoutMs int
}

// DefaultServerOptions returns the listener settings used when none are configured.
func DefaultServerOptions() ServerOptions {
	return ServerOptions{
		IP:        "0.0.0.0",
		TCPPort:   5000,
		UDPPort:   5001,
		TimeoutMs: 5000,
	}
}

// ServerState is what the engine knows about the mock's listeners.
type ServerState struct {
	// Running is true between a successful start and the next stop.
	Running bool

	// StatusText is the last status label, from a start/stop or a
	// server-status notification.
	StatusText string
}

// toggleServer starts the server when stopped and stops it when running.
func (e *Engine) toggleServer() {
	if e.server.Running || e.starting {
		e.stopServer()
		return
	}
	e.startServer()
}

// startServer starts the mock's listeners and, once up, monitoring.
//
// On success the auto-start flag is persisted, the block at the target is
// seeded, start_monitor is issued, the router picks push or polling, and
// the target row is selected.
func (e *Engine) startServer() {
	if e.server.Running || e.starting {
		return
	}
	e.starting = true
	e.serverGen++
	gen := e.serverGen
	opts := e.opts.Server

	e.control("start_mock", func(ctx context.Context) error {
		return e.remote.StartServer(ctx, opts.IP, opts.TCPPort, opts.UDPPort, opts.TimeoutMs)
	}, func(err error) {
		if gen != e.serverGen {
			// A stop was issued while starting; it is queued behind this start.
			e.diag.Add("start_mock superseded by stop")
			return
		}
		e.starting = false
		if err != nil {
			e.server = ServerState{StatusText: StatusTextFailed}
			return
		}
		e.diag.Add("start_mock invoked", "ip", opts.IP, "tcp", opts.TCPPort, "udp", opts.UDPPort, "timeout_ms", opts.TimeoutMs)
		e.server = ServerState{Running: true, StatusText: StatusTextRunning}

		autoStart := e.autoStart
		e.persist("save auto-start", func(ctx context.Context) error {
			return e.prefs.SetAutoStart(ctx, autoStart)
		})

		e.store.SeedPlaceholders(e.target, e.opts.BlockSize)
		e.startMonitoring()
		e.selectTarget()
	})
}

// stopServer stops monitoring and the mock's listeners. A start still in
// flight is abandoned: its completion no longer starts monitoring.
func (e *Engine) stopServer() {
	e.serverGen++
	e.starting = false
	e.router.Stop()
	e.server = ServerState{StatusText: StatusTextStopped}

	e.control("stop_monitor", e.remote.StopMonitor, func(err error) {
		if err == nil {
			e.diag.Add("stop_monitor invoked")
		}
	})
	e.control("stop_mock", e.remote.StopServer, nil)
}

// startMonitoring asks the mock to push the target and starts the router.
func (e *Engine) startMonitoring() {
	target := e.target.String()
	interval := e.opts.MonitorIntervalMs
	e.control("start_monitor", func(ctx context.Context) error {
		return e.remote.StartMonitor(ctx, target, interval)
	}, func(err error) {
		if err == nil {
			e.diag.Add("start_monitor invoked", "target", target, "interval_ms", interval)
		}
	})

	mode := e.router.Start(e.target)
	e.diag.Add("monitoring started", "target", target, "mode", mode.String())
}

// handleStatus applies a server-status notification.
func (e *Engine) handleStatus(text string) {
	e.server.StatusText = text
	e.diag.Add("server-status event", "status", text)
	if text == StatusTextRunning {
		e.selectTarget()
	}
}
