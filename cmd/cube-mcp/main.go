package main

import (
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/vthunder/cube/internal/activity"
	"github.com/vthunder/cube/internal/config"
	"github.com/vthunder/cube/internal/effectors"
	"github.com/vthunder/cube/internal/executive"
	"github.com/vthunder/cube/internal/logging"
	"github.com/vthunder/cube/internal/memory"
	"github.com/vthunder/cube/internal/runner"
	"github.com/vthunder/cube/internal/senses"
)

func main() {
	// Log to stderr so stdout is clean for JSON-RPC
	log.SetOutput(os.Stderr)

	config.LoadDotEnv()
	cfg, err := config.Load(os.Getenv("CUBE_CONFIG"))
	if err != nil {
		log.Fatalf("[cube-mcp] %v", err)
	}

	store, err := memory.Open(cfg.DBDriver, cfg.DBPath)
	if err != nil {
		log.Fatalf("[cube-mcp] failed to open spatial memory: %v", err)
	}
	defer store.Close()

	journal := activity.New(cfg.StatePath)
	metrics := executive.MustNewMetrics(prometheus.NewRegistry())
	exec, err := executive.New(executive.Config{
		Hardware: effectors.NewMockHardware(),
		Memory:   store,
		Detector: senses.NewFixtureDetector(),
		Metrics:  metrics,
		Activity: journal,
		Notify: func(message string) {
			logging.Info("cube-mcp", "%s", message)
		},
		IdleTimeout:        cfg.IdleTimeout,
		LaserHold:          cfg.LaserHold,
		DetectionThreshold: cfg.DetectionThreshold,
		LocationHint:       cfg.LocationHint,
		Emotions:           cfg.Emotions,
	})
	if err != nil {
		log.Fatalf("[cube-mcp] %v", err)
	}

	r := runner.New(exec, runner.Options{
		QueueSize:    cfg.QueueSize,
		PollInterval: cfg.PollInterval,
		StopTimeout:  cfg.StopTimeout,
		TickInterval: cfg.TickInterval,
		Metrics:      metrics,
	})
	r.Start()
	defer r.Stop()

	s := server.NewMCPServer(
		"cube-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
	)
	newTools(exec, r, journal).register(s)

	logging.Info("cube-mcp", "Serving on stdio (db=%s)", cfg.DBPath)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
