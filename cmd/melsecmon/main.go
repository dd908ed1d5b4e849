// melsecmon - MELSEC register monitor
//
// melsecmon watches a block of PLC device registers (D, W, M ...) served by
// a protocol mock, shows them as bits and formatted values, and writes
// edited values back. The mock is reached over MQTT; settings live in
// SQLite; register history optionally goes to InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/melsec-monitor/migrations"

	"github.com/nerrad567/melsec-monitor/internal/api"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/config"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/database"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/influxdb"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/logging"
	"github.com/nerrad567/melsec-monitor/internal/infrastructure/mqtt"
	"github.com/nerrad567/melsec-monitor/internal/mockclient"
	"github.com/nerrad567/melsec-monitor/internal/monitor"
	"github.com/nerrad567/melsec-monitor/internal/settings"
	"github.com/nerrad567/melsec-monitor/internal/tui"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

const defaultConfigPath = "configs/config.yaml"

// shutdownTimeout bounds engine shutdown after the front end exits.
const shutdownTimeout = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the application and blocks until the front end exits or ctx
// is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log, logCloser, err := logging.Open(cfg.Logging, version)
	if err != nil {
		return fmt.Errorf("opening log: %w", err)
	}
	defer logCloser.Close() //nolint:errcheck // nothing left to log to
	log.Info("starting melsecmon",
		"version", version,
		"commit", commit,
		"build_date", date,
		"config", configPath,
	)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	prefs := settings.NewStore(settings.NewSQLiteRepository(db.DB))
	log.Info("settings database ready", "path", db.Path())

	remote, push, closeRemote := connectMock(cfg, log)
	defer closeRemote()

	history, closeHistory := connectHistory(cfg, log)
	defer closeHistory()

	loop := monitor.NewLoop()
	loop.SetLogger(log.With("component", "loop"))
	loopCtx, stopLoop := context.WithCancel(context.Background())
	loopDone := make(chan error, 1)
	go func() { loopDone <- loop.Run(loopCtx) }()
	defer func() {
		stopLoop()
		<-loopDone
	}()

	engine := monitor.New(engineOptions(cfg), monitor.Deps{
		Loop:    loop,
		Remote:  remote,
		Push:    push,
		Prefs:   prefs,
		History: history,
		Logger:  log.With("component", "engine"),
	})

	bridge := tui.NewBridge()
	if cfg.UI.Mode == "tui" {
		engine.AddRenderer(bridge)
		engine.SetSelector(bridge)
	}

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:  cfg.API,
			WS:      cfg.WebSocket,
			Logger:  log.With("component", "api"),
			Engine:  engine,
			Version: version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		engine.AddRenderer(apiServer.Hub())
	}

	if bootErr := engine.Boot(ctx); bootErr != nil {
		return fmt.Errorf("booting engine: %w", bootErr)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if closeErr := engine.Close(closeCtx); closeErr != nil {
			log.Error("error stopping engine", "error", closeErr)
		}
	}()

	if apiServer != nil {
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
	}

	if cfg.UI.Mode != "tui" {
		log.Info("running headless, waiting for shutdown signal")
		<-ctx.Done()
		log.Info("melsecmon stopped")
		return nil
	}

	err = tui.Run(ctx, tui.Options{
		Engine: engine,
		Bridge: bridge,
		Loop:   loop,
		Popups: prefs,
		Target: cfg.Monitor.DefaultTarget,
	})
	log.Info("melsecmon stopped")
	return err
}

// connectMock returns the remote and push channel for the mock. When the
// broker cannot be reached an offline remote is used, so the UI still comes
// up and every call is reported in the diagnostic log.
func connectMock(cfg *config.Config, log *logging.Logger) (monitor.Remote, monitor.PushChannel, func()) {
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		log.Warn("MQTT unavailable, mock calls will fail", "error", err)
		offline := mockclient.Offline{Cause: err}
		return offline, offline, func() {}
	}
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
	mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	client := mockclient.New(mqttClient, mockclient.Options{
		QoS:     mqttClient.QoS(),
		Timeout: cfg.MockRequestTimeout(),
	})
	client.SetLogger(log.With("component", "mockclient"))

	closeAll := func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing mock client", "error", closeErr)
		}
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}

	if startErr := client.Start(); startErr != nil {
		log.Warn("mock responses unavailable, mock calls will fail", "error", startErr)
		offline := mockclient.Offline{Cause: startErr}
		return offline, offline, closeAll
	}
	return client, client, closeAll
}

// connectHistory returns the InfluxDB history sink, or nil when disabled
// or unreachable.
func connectHistory(cfg *config.Config, log *logging.Logger) (monitor.History, func()) {
	client, err := influxdb.Connect(cfg.InfluxDB)
	if errors.Is(err, influxdb.ErrDisabled) {
		log.Info("InfluxDB disabled")
		return nil, func() {}
	}
	if err != nil {
		log.Warn("InfluxDB unavailable, register history disabled", "error", err)
		return nil, func() {}
	}

	client.SetOnError(func(err error) {
		log.Error("InfluxDB write error", "error", err)
	})
	log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)

	return client, func() {
		if closeErr := client.Close(); closeErr != nil {
			log.Error("error closing InfluxDB", "error", closeErr)
		}
	}
}

func engineOptions(cfg *config.Config) monitor.Options {
	return monitor.Options{
		DefaultTarget:     cfg.Monitor.DefaultTarget,
		BlockSize:         cfg.Monitor.BlockSize,
		PollInterval:      cfg.PollInterval(),
		MonitorIntervalMs: cfg.Monitor.MonitorIntervalMs,
		SelectRetries:     cfg.Monitor.SelectRetries,
		SelectRetryDelay:  cfg.SelectRetryDelay(),
		CallTimeout:       cfg.MockRequestTimeout(),
		DiagLogSize:       cfg.Monitor.DiagLogSize,
		Server: monitor.ServerOptions{
			IP:        cfg.Mock.IP,
			TCPPort:   cfg.Mock.TCPPort,
			UDPPort:   cfg.Mock.UDPPort,
			TimeoutMs: cfg.Mock.TimeoutMs,
		},
	}
}

// getConfigPath returns the configuration file path.
// Uses MELSECMON_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MELSECMON_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
