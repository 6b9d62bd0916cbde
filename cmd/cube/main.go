package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"github.com/vthunder/cube/internal/activity"
	"github.com/vthunder/cube/internal/config"
	"github.com/vthunder/cube/internal/effectors"
	"github.com/vthunder/cube/internal/executive"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/memory"
	"github.com/vthunder/cube/internal/runner"
	"github.com/vthunder/cube/internal/senses"
)

type options struct {
	configPath   string
	dbPath       string
	command      string
	detectImage  string
	locationHint string
	metricsAddr  string
	daemon       bool
	debug        bool
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("[main] %v", err)
	}
}

func run() error {
	var opts options
	flagSet := pflag.NewFlagSet("cube", pflag.ContinueOnError)
	flagSet.StringVar(&opts.configPath, "config", "", "path to cube.yaml")
	flagSet.StringVar(&opts.dbPath, "db", "", "path to the spatial memory database")
	flagSet.StringVar(&opts.command, "command", "", "run one text command, print the result and exit")
	flagSet.StringVar(&opts.detectImage, "detect-image", "", "run object detection on one image and exit")
	flagSet.StringVar(&opts.locationHint, "location-hint", "", "location recorded for detected objects")
	flagSet.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	flagSet.BoolVar(&opts.daemon, "daemon", false, "run without the interactive prompt (Discord only)")
	flagSet.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if args := flagSet.Args(); len(args) > 0 {
		return fmt.Errorf("unexpected argument: %s", args[0])
	}
	if opts.debug {
		logging.SetDebug(true)
	}

	config.LoadDotEnv()
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	if opts.dbPath != "" {
		cfg.DBPath = opts.dbPath
	}
	if opts.metricsAddr != "" {
		cfg.MetricsAddr = opts.metricsAddr
	}
	if opts.locationHint == "" {
		opts.locationHint = cfg.LocationHint
	}

	store, err := memory.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open spatial memory: %w", err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := executive.MustNewMetrics(registry)

	var system executive.SystemSampler
	if s, err := senses.NewSystemSense(); err != nil {
		logging.Warn("main", "system stats unavailable: %v", err)
	} else {
		system = s
	}

	notify := &notifier{}
	exec, err := executive.New(executive.Config{
		Hardware:           effectors.NewMockHardware(),
		Memory:             store,
		Detector:           senses.NewFixtureDetector(),
		System:             system,
		Metrics:            metrics,
		Notify:             notify.Notify,
		Activity:           activity.New(cfg.StatePath),
		IdleTimeout:        cfg.IdleTimeout,
		LaserHold:          cfg.LaserHold,
		DetectionThreshold: cfg.DetectionThreshold,
		LocationHint:       cfg.LocationHint,
		Emotions:           cfg.Emotions,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// One-shot modes run directly, like a script
	if opts.command != "" {
		resp, err := exec.ProcessText(ctx, opts.command)
		printJSON(resp)
		printJSON(exec.Status())
		return err
	}
	if opts.detectImage != "" {
		res, err := exec.DetectAndRemember(ctx, opts.detectImage, opts.locationHint)
		if err != nil {
			return err
		}
		printJSON(res)
		printJSON(exec.Status())
		return nil
	}

	r := runner.New(exec, runner.Options{
		QueueSize:    cfg.QueueSize,
		PollInterval: cfg.PollInterval,
		StopTimeout:  cfg.StopTimeout,
		TickInterval: cfg.TickInterval,
		Metrics:      metrics,
	})
	r.Start()

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = serveMetrics(cfg.MetricsAddr, registry)
	}

	var discord *senses.DiscordSense
	if cfg.Discord.Enabled() {
		discord, err = startDiscord(cfg.Discord, r, notify)
		if err != nil {
			logging.Warn("main", "Discord disabled: %v", err)
		}
	}

	logging.Info("main", "Cube started (db=%s, mode=%s)", cfg.DBPath, exec.Mode())

	if opts.daemon {
		<-ctx.Done()
	} else if err := runREPL(ctx, r, cfg.StatePath); err != nil {
		logging.Warn("main", "prompt: %v", err)
	}

	logging.Info("main", "Shutting down...")
	if discord != nil {
		discord.Stop()
	}
	if !r.Stop() {
		logging.Warn("main", "worker did not stop within %s", cfg.StopTimeout)
	}
	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		metricsServer.Shutdown(shutdownCtx)
	}
	logging.Info("main", "Goodbye!")
	return nil
}

func serveMetrics(addr string, registry *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Warn("metrics", "server stopped: %v", err)
		}
	}()
	logging.Info("metrics", "Serving /metrics on %s", addr)
	return srv
}

func printJSON(v any) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logging.Warn("main", "failed to encode output: %v", err)
		return
	}
	fmt.Println(string(data))
}
