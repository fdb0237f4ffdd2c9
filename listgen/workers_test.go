package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	monitor "github.com/next-exp/caen_monitor/pkg"
)

func generate(ctx context.Context, t *testing.T, config Configuration) (*bytes.Buffer, int) {
	t.Helper()
	var out bytes.Buffer
	if err := monitor.WriteListHeader(&out, config.RunNumber, config.model(), time.Unix(0, 0)); err != nil {
		t.Fatalf("WriteListHeader: %v", err)
	}
	jobs := make(chan triggerJob)
	results := startWorkers(config.NumWorkers, config.Seed, config.model(), jobs)
	go sendTriggersToWorkers(ctx, config.Triggers, config.RateHz, jobs)
	n, err := writeWorkerResults(results, &out)
	if err != nil {
		t.Fatalf("writeWorkerResults: %v", err)
	}
	return &out, n
}

func TestGeneratedFileIsReadable(t *testing.T) {
	config, _ := LoadConfiguration("")
	config.CaenUnits = 3
	config.Channels = 4
	config.Triggers = 25
	config.RateHz = 0
	config.MissProbability = 0

	out, n := generate(context.Background(), t, config)
	if n != 75 {
		t.Fatalf("wrote %d blocks, want 75", n)
	}

	reader := monitor.NewBlockReader(out, monitor.ReaderOptions{
		HeaderLines:          monitor.DefaultHeaderLines,
		Channels:             config.Channels,
		DropIncompleteBlocks: true,
		Calibration:          monitor.DefaultCalibration(),
	})
	seen := make(map[int]int)
	for {
		block, err := reader.Next()
		if errors.Is(err, monitor.ErrNoDataYet) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		seen[block.TriggerID]++
	}
	if len(seen) != 25 {
		t.Errorf("read %d triggers, want 25", len(seen))
	}
	for trigger, blocks := range seen {
		if blocks != 3 {
			t.Errorf("trigger %d has %d blocks, want 3", trigger, blocks)
		}
	}
}

func TestSendTriggersStopsOnCancel(t *testing.T) {
	config, _ := LoadConfiguration("")
	config.CaenUnits = 1
	config.Channels = 1
	config.RateHz = 1

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, n := generate(ctx, t, config)
	if n != 0 {
		t.Errorf("wrote %d blocks after cancellation", n)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, io.ErrClosedPipe
}

func TestWriteWorkerResultsError(t *testing.T) {
	results := make(chan triggerResult, 1)
	results <- triggerResult{TriggerID: 1, Blocks: []monitor.Block{{
		Board: 0, TriggerID: 1, NHits: 1, Hits: []monitor.Slot{monitor.Present(monitor.Hit{TriggerID: 1})},
	}}}
	close(results)
	if _, err := writeWorkerResults(results, failingWriter{}); !errors.Is(err, io.ErrClosedPipe) {
		t.Errorf("writeWorkerResults = %v, want io.ErrClosedPipe", err)
	}
}

func TestValidateConfiguration(t *testing.T) {
	config, _ := LoadConfiguration("")
	if err := validateConfiguration(config); err == nil {
		t.Error("configuration without output file accepted")
	}
	config.FileOut = "run.txt"
	if err := validateConfiguration(config); err != nil {
		t.Errorf("default configuration rejected: %v", err)
	}
	config.NumWorkers = 0
	if err := validateConfiguration(config); err == nil {
		t.Error("configuration without workers accepted")
	}
}
