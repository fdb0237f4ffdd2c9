package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/next-exp/caen_monitor/internal/logging"
	monitor "github.com/next-exp/caen_monitor/pkg"
)

var configuration Configuration

var (
	logger         logging.Logger
	VerbosityLevel int
)

func init() {
	logger = logging.New(slog.LevelDebug)
}

func main() {
	configFilename := flag.String("config", "", "Configuration file path")
	fileOut := flag.String("file", "", "List file to write, overrides file_out")
	triggers := flag.Int("triggers", 0, "Number of triggers, overrides triggers")
	flag.Parse()

	var err error
	configuration, err = LoadConfiguration(*configFilename)
	if err != nil {
		message := fmt.Errorf("Error reading configuration file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	if *fileOut != "" {
		configuration.FileOut = *fileOut
	}
	if *triggers > 0 {
		configuration.Triggers = *triggers
	}
	if err := validateConfiguration(configuration); err != nil {
		message := fmt.Errorf("Invalid configuration: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}

	VerbosityLevel = configuration.Verbosity
	if VerbosityLevel > 0 {
		printConfiguration(configuration, logger)
	}

	file, err := os.Create(configuration.FileOut)
	if err != nil {
		message := fmt.Errorf("Error creating file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	defer file.Close()

	model := configuration.model()
	start := time.Now()
	if err := monitor.WriteListHeader(file, configuration.RunNumber, model, start); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobs := make(chan triggerJob, 100)
	results := startWorkers(configuration.NumWorkers, configuration.Seed, model, jobs)
	go sendTriggersToWorkers(ctx, configuration.Triggers, configuration.RateHz, jobs)

	blocksWritten, err := writeWorkerResults(results, file)
	if err != nil {
		message := fmt.Errorf("Error writing list file: %w", err)
		logger.Error(message.Error())
		os.Exit(1)
	}
	message := fmt.Sprintf("Blocks written: %d, total time: %s", blocksWritten, time.Since(start).Round(time.Millisecond))
	logger.Info(message, "main")
}
