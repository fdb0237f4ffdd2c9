package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/next-exp/caen_monitor/internal/logging"
	monitor "github.com/next-exp/caen_monitor/pkg"
)

type Configuration struct {
	FileOut           string  `json:"file_out"`
	RunNumber         int     `json:"run_number"`
	CaenUnits         int     `json:"caen_units"`
	Channels          int     `json:"channels"`
	Triggers          int     `json:"triggers"`
	RateHz            float64 `json:"rate_hz"`
	NumWorkers        int     `json:"num_workers"`
	MissProbability   float64 `json:"miss_probability"`
	SignalProbability float64 `json:"signal_probability"`
	MeanSignal        float64 `json:"mean_signal"`
	Seed              uint64  `json:"seed"`
	Verbosity         int     `json:"verbosity"`
}

func LoadConfiguration(filename string) (Configuration, error) {
	model := monitor.DefaultAcquisitionModel(8, 64)
	config := Configuration{
		CaenUnits:         model.CaenUnits,
		Channels:          model.Channels,
		Triggers:          1000,
		RateHz:            10,
		NumWorkers:        4,
		MissProbability:   model.MissProbability,
		SignalProbability: model.SignalProbability,
		MeanSignal:        model.MeanSignal,
		Seed:              1,
	}
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

func validateConfiguration(config Configuration) error {
	if config.FileOut == "" {
		return fmt.Errorf("no output file given")
	}
	if config.CaenUnits < 1 || config.Channels < 1 {
		return fmt.Errorf("invalid geometry: %d CAEN units, %d channels", config.CaenUnits, config.Channels)
	}
	if config.NumWorkers < 1 {
		return fmt.Errorf("number of workers must be positive, got %d", config.NumWorkers)
	}
	if config.RateHz < 0 {
		return fmt.Errorf("negative trigger rate: %f", config.RateHz)
	}
	return nil
}

// model returns the acquisition model described by config.
func (c Configuration) model() monitor.AcquisitionModel {
	model := monitor.DefaultAcquisitionModel(c.CaenUnits, c.Channels)
	model.MissProbability = c.MissProbability
	model.SignalProbability = c.SignalProbability
	model.MeanSignal = c.MeanSignal
	return model
}

func printConfiguration(config Configuration, logger logging.Logger) {
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Run number: %d", config.RunNumber), "config")
	logger.Info(fmt.Sprintf("CAEN units: %d", config.CaenUnits), "config")
	logger.Info(fmt.Sprintf("Channels: %d", config.Channels), "config")
	logger.Info(fmt.Sprintf("Triggers: %d", config.Triggers), "config")
	logger.Info(fmt.Sprintf("Rate: %.1f Hz", config.RateHz), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Miss probability: %.3f", config.MissProbability), "config")
	logger.Info(fmt.Sprintf("Signal probability: %.3f", config.SignalProbability), "config")
	logger.Info(fmt.Sprintf("Seed: %d", config.Seed), "config")
}
