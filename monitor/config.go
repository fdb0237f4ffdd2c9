package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/next-exp/caen_monitor/internal/logging"
	monitor "github.com/next-exp/caen_monitor/pkg"
)

// LoadConfiguration reads a JSON configuration on top of the defaults. An
// empty filename returns the defaults.
func LoadConfiguration(filename string) (monitor.Configuration, error) {
	config := monitor.DefaultConfiguration()
	if filename == "" {
		return config, nil
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return config, err
	}
	err = json.Unmarshal(data, &config)
	if err != nil {
		return config, err
	}
	return config, nil
}

func validateConfiguration(config monitor.Configuration) error {
	if config.FileIn == "" {
		return fmt.Errorf("no input file given")
	}
	if config.CaenUnits < 1 || config.Channels < 1 {
		return fmt.Errorf("invalid geometry: %d CAEN units, %d channels", config.CaenUnits, config.Channels)
	}
	if config.Retention < 1 {
		return fmt.Errorf("retention must be positive, got %d", config.Retention)
	}
	if config.IdleIntervalMs < 1 {
		return fmt.Errorf("idle interval must be positive, got %d ms", config.IdleIntervalMs)
	}
	return nil
}

func printConfiguration(config monitor.Configuration, logger logging.Logger) {
	logger.Info(fmt.Sprintf("File in: %s", config.FileIn), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("CAEN units: %d", config.CaenUnits), "config")
	logger.Info(fmt.Sprintf("Channels: %d", config.Channels), "config")
	logger.Info(fmt.Sprintf("Header lines: %d", config.HeaderLines), "config")
	logger.Info(fmt.Sprintf("Idle interval: %d ms", config.IdleIntervalMs), "config")
	logger.Info(fmt.Sprintf("Retention: %d", config.Retention), "config")
	logger.Info(fmt.Sprintf("Search depth: %d", config.SearchDepth), "config")
	logger.Info(fmt.Sprintf("Drop incomplete blocks: %t", config.DropIncompleteBlocks), "config")
	logger.Info(fmt.Sprintf("ADC threshold: %d", config.AdcThreshold), "config")
	logger.Info(fmt.Sprintf("Saturation: %d", config.Saturation), "config")
	logger.Info(fmt.Sprintf("Gain ratio: %.2f", config.GainRatio), "config")
	logger.Info(fmt.Sprintf("Series capacity: %d", config.SeriesCapacity), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	logger.Info(fmt.Sprintf("DB type: %s", config.DBType), "config")
	logger.Info(fmt.Sprintf("Host: %s", config.Host), "config")
	logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	logger.Info(fmt.Sprintf("DB path: %s", config.DBPath), "config")
	logger.Info(fmt.Sprintf("Metrics address: %s", config.MetricsAddr), "config")
}
