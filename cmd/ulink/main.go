// ulink sends a short payload to nearby receivers by encoding it into the
// destination addresses of IPv4 multicast datagrams.
//
// The service exposes the sender over HTTP, WebSocket and MQTT, and keeps
// a local transmission history. A payload can also be sent straight from
// the command line:
//
//	ulink -text "hello" -null -duration 30s
//	ulink -hex "de:ad:be:ef"
//	ulink -issue-token operator
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/gray-logic-ulink/internal/api"
	"github.com/nerrad567/gray-logic-ulink/internal/bridge"
	"github.com/nerrad567/gray-logic-ulink/internal/history"
	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-ulink/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-ulink/internal/ulink"
	"github.com/nerrad567/gray-logic-ulink/migrations"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

const (
	// defaultConfigPath is used when neither -config nor ULINK_CONFIG is set.
	defaultConfigPath = "configs/config.yaml"

	// shutdownTimeout bounds how long a running transmission may take to
	// finish its cycle after the shutdown signal.
	shutdownTimeout = 5 * time.Second

	// healthCheckTimeout bounds the startup health check.
	healthCheckTimeout = 10 * time.Second

	// defaultTokenTTL is the lifetime of tokens printed by -issue-token.
	defaultTokenTTL = 24 * time.Hour
)

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// cliOptions holds parsed command-line flags.
type cliOptions struct {
	configPath    string
	text          string
	hex           string
	nullTerminate bool
	duration      time.Duration
	issueToken    string
	tokenTTL      time.Duration
}

// hasPayload reports whether a payload was given on the command line.
func (o cliOptions) hasPayload() bool {
	return o.text != "" || o.hex != ""
}

// parseFlags parses args into cliOptions.
func parseFlags(args []string, output io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet("ulink", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configPath, "config", "", "configuration file (default $ULINK_CONFIG or "+defaultConfigPath+")")
	fs.StringVar(&opts.text, "text", "", "start transmitting this text")
	fs.StringVar(&opts.hex, "hex", "", "start transmitting these hex bytes")
	fs.BoolVar(&opts.nullTerminate, "null", false, "append a 0x00 byte to the payload")
	fs.DurationVar(&opts.duration, "duration", 0, "stop and exit after this long (0 runs until signalled)")
	fs.StringVar(&opts.issueToken, "issue-token", "", "print an API token for this subject and exit")
	fs.DurationVar(&opts.tokenTTL, "token-ttl", defaultTokenTTL, "lifetime of the token printed by -issue-token")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}
	if fs.NArg() > 0 {
		return cliOptions{}, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if opts.text != "" && opts.hex != "" {
		return cliOptions{}, fmt.Errorf("-text and -hex are mutually exclusive")
	}
	if opts.duration < 0 {
		return cliOptions{}, fmt.Errorf("-duration must not be negative")
	}
	if opts.duration > 0 && !opts.hasPayload() {
		return cliOptions{}, fmt.Errorf("-duration requires -text or -hex")
	}
	return opts, nil
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - args: Command-line arguments without the program name
//   - stdout: Destination for -issue-token output
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, args []string, stdout io.Writer) error { //nolint:gocognit,gocyclo // Startup sequence: each optional component adds a branch
	opts, err := parseFlags(args, stdout)
	if err != nil {
		return err
	}

	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ulink",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath(opts.configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	if opts.issueToken != "" {
		token, tokenErr := api.IssueToken(cfg.Security.JWT.Secret, opts.issueToken, opts.tokenTTL)
		if tokenErr != nil {
			return fmt.Errorf("issuing token: %w", tokenErr)
		}
		fmt.Fprintln(stdout, token)
		return nil
	}

	var checks []namedCheck

	// Open database (optional)
	var historyRepo history.Repository
	if cfg.Database.Enabled {
		db, dbErr := database.Open(ctx, database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if dbErr != nil {
			return fmt.Errorf("opening database: %w", dbErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		if migrateErr := db.Migrate(ctx, migrations.FS); migrateErr != nil {
			return fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("database migrations complete")

		historyRepo = history.NewSQLiteRepository(db.DB)
		checks = append(checks, namedCheck{name: "database", check: db})
	} else {
		log.Info("transmission history disabled")
	}

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		checks = append(checks, namedCheck{name: "influxdb", check: influxClient})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the controller. Its deferred shutdown runs before the
	// database and InfluxDB closes above, so final events are persisted.
	ctrl := newController(cfg, influxClient, log)
	defer shutdownController(ctrl, log)

	if historyRepo != nil {
		ctrl.OnEvent(history.NewRecorder(historyRepo, log).Handle)
	}
	if influxClient != nil {
		ctrl.OnEvent(transmissionTelemetry(influxClient, cfg.Site.ID))
	}

	// Connect to MQTT broker and start the command bridge (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttBridge, mqttErr := startMQTTBridge(cfg, ctrl, log)
		if mqttErr != nil {
			return mqttErr
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			mqttBridge.Close()
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		checks = append(checks, namedCheck{name: "mqtt", check: mqttClient})
	} else {
		log.Info("MQTT bridge disabled")
	}

	// Start HTTP API (optional)
	if cfg.API.Enabled {
		apiServer, apiErr := api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Security:   cfg.Security,
			Logger:     log,
			Controller: ctrl,
			History:    historyRepo,
			Version:    version,
		})
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := apiServer.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := apiServer.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		checks = append(checks, namedCheck{name: "api", check: apiServer})
	} else {
		log.Info("HTTP API disabled")
	}

	// Verify all connections are healthy
	checkCtx, cancelCheck := context.WithTimeout(ctx, healthCheckTimeout)
	err = healthCheck(checkCtx, checks)
	cancelCheck()
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed", "components", len(checks))

	if opts.hasPayload() {
		payload, parseErr := ulink.ParsePayload(ulink.PayloadInput{
			Text:          opts.text,
			Hex:           opts.hex,
			NullTerminate: opts.nullTerminate,
		})
		if parseErr != nil {
			return fmt.Errorf("parsing payload: %w", parseErr)
		}
		if startErr := ctrl.Start(payload); startErr != nil {
			return fmt.Errorf("starting transmission: %w", startErr)
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	waitForShutdown(ctx, ctrl, opts.duration, log)

	shutdownController(ctrl, log)
	log.Info("ulink stopped")
	return nil
}

// getConfigPath returns the configuration file path: the -config flag,
// then ULINK_CONFIG, then the default.
func getConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if path := os.Getenv("ULINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// newController builds the controller with a multicast dialer and a
// telemetry observer for send failures.
func newController(cfg *config.Config, influxClient *influxdb.Client, log *logging.Logger) *ulink.Controller {
	observer := &failureObserver{site: cfg.Site.ID, log: log}
	if influxClient != nil {
		observer.influx = influxClient
	}

	return ulink.NewController(ulink.ControllerOptions{
		Transmitter: ulink.TransmitterOptions{
			Port:        cfg.Transmitter.Port,
			Interval:    cfg.Transmitter.Interval,
			HeaderPause: cfg.Transmitter.HeaderPause,
			Dial: ulink.DialMulticast(ulink.SocketOptions{
				Interface: cfg.Transmitter.Interface,
				TTL:       cfg.Transmitter.TTL,
				Loopback:  cfg.Transmitter.Loopback,
			}),
			Observer: observer,
		},
		Logger: log,
	})
}

// waitForShutdown blocks until ctx is cancelled, or, with a positive
// duration, until the transmission has run that long and stopped.
func waitForShutdown(ctx context.Context, ctrl *ulink.Controller, duration time.Duration, log *logging.Logger) {
	if duration <= 0 {
		<-ctx.Done()
		log.Info("shutdown signal received, cleaning up")
		return
	}

	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, cleaning up")
	case <-timer.C:
		log.Info("transmission duration elapsed", "duration", duration.String())
		ctrl.Stop()
		select {
		case <-ctrl.Done():
		case <-ctx.Done():
		}
	}
}

// shutdownController stops any running transmission and flushes events.
// It is safe to call more than once.
func shutdownController(ctrl *ulink.Controller, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := ctrl.Shutdown(ctx); err != nil {
		log.Warn("transmission did not stop in time", "error", err)
	}
}

// startMQTTBridge connects to the broker and starts the command bridge.
func startMQTTBridge(cfg *config.Config, ctrl *ulink.Controller, log *logging.Logger) (*mqtt.Client, *bridge.Bridge, error) {
	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix, cfg.Site.ID)

	client, err := mqtt.Connect(cfg.MQTT, topics)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	br, err := bridge.New(bridge.Options{
		MQTT:       client,
		Controller: ctrl,
		Topics:     topics,
		Site:       cfg.Site.ID,
		QoS:        client.QoS(),
		Logger:     log,
	})
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("creating MQTT bridge: %w", err)
	}

	// Retained state may have been cleared while disconnected.
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
		br.PublishState()
	})

	if err := br.Start(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("starting MQTT bridge: %w", err)
	}
	return client, br, nil
}

// healthChecker is implemented by every infrastructure component.
type healthChecker interface {
	HealthCheck(ctx context.Context) error
}

type namedCheck struct {
	name  string
	check healthChecker
}

// healthCheck runs every check concurrently and returns the first failure.
func healthCheck(ctx context.Context, checks []namedCheck) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, c := range checks {
		c := c
		g.Go(func() error {
			if err := c.check.HealthCheck(gctx); err != nil {
				return fmt.Errorf("%s: %w", c.name, err)
			}
			return nil
		})
	}
	return g.Wait()
}
