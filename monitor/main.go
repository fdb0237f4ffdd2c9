package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/next-exp/caen_monitor/internal/logging"
	monitor "github.com/next-exp/caen_monitor/pkg"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var configuration monitor.Configuration

var (
	logger         logging.Logger
	VerbosityLevel int
)

func init() {
	logger = logging.New(slog.LevelDebug)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	fileIn := flag.String("file", "", "CAEN list file to monitor, overrides file_in")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if *fileIn != "" {
		configuration.FileIn = *fileIn
	}
	if err := validateConfiguration(configuration); err != nil {
		message := fmt.Errorf("Invalid configuration: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	monitor.SetConfiguration(configuration)
	monitor.SetLogger(logger)

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		message := fmt.Sprintf("Reading configuration file: %s", *configFilename)
		logger.Info(message, "main")
		printConfiguration(configuration, logger)
	}

	geometry, err := loadGeometry(configuration)
	if err != nil {
		message := fmt.Errorf("Error loading geometry: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}

	jitter := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(os.Getpid())))
	opts := monitor.ReaderOptionsFromConfig(configuration, geometry, jitter)
	reader, err := monitor.OpenBlockReader(configuration.FileIn, opts)
	if err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
	defer reader.Close()

	display, err := monitor.NewDisplay(configuration.CaenUnits, configuration.Channels)
	if err != nil {
		message := fmt.Errorf("Error creating display: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}

	mon, err := monitor.NewMonitor(configuration, reader, display)
	if err != nil {
		message := fmt.Errorf("Error creating monitor: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if configuration.MetricsAddr != "" {
		go serveMetrics(ctx, configuration.MetricsAddr, display)
	}

	logger.Info(fmt.Sprintf("Monitoring %s", configuration.FileIn), "main")
	start := time.Now()
	if err := mon.Run(ctx); err != nil {
		message := fmt.Errorf("Monitor stopped with error: %w", err)
		logger.Error(message.Error())
	}
	printSummary(display.Snapshot())
	logger.Info(fmt.Sprintf("Total time: %s", time.Since(start).Round(time.Second)), "main")
}

// loadGeometry returns the default pad layout, or the one stored in the
// database for the run when the database is enabled.
func loadGeometry(config monitor.Configuration) (*monitor.Geometry, error) {
	if config.NoDB {
		return monitor.NewGeometry(config.CaenUnits, config.Channels), nil
	}
	dbConn, err := monitor.ConnectToDatabase(config)
	if err != nil {
		return nil, err
	}
	defer dbConn.Close()
	return monitor.LoadGeometry(dbConn, config.RunNumber, config.CaenUnits, config.Channels)
}

func serveMetrics(ctx context.Context, addr string, display *monitor.Display) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(display.Registry(), promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	logger.Info(fmt.Sprintf("Serving metrics on %s", addr), "metrics")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		message := fmt.Errorf("error serving metrics: %w", err)
		logger.Error(message.Error())
	}
}

func printSummary(snap monitor.DisplaySnapshot) {
	for board, blocks := range snap.Blocks {
		median, ok := snap.GainQuantile(board, 0.5)
		if !ok {
			logger.Info(fmt.Sprintf("CAEN %d: %d blocks", board, blocks), "summary")
			continue
		}
		p99, _ := snap.GainQuantile(board, 0.99)
		message := fmt.Sprintf("CAEN %d: %d blocks, combined gain median %.0f, p99 %.0f", board, blocks, median, p99)
		logger.Info(message, "summary")
	}
	if snap.Representative.Valid {
		message := fmt.Sprintf("Last event shown: %d (%d hits above threshold)",
			snap.Representative.TriggerID, len(snap.Representative.Hits))
		logger.Info(message, "summary")
	}
}
