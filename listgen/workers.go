package main

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"sync"
	"time"

	monitor "github.com/next-exp/caen_monitor/pkg"
)

type triggerJob struct {
	TriggerID int
	Timestamp float64
}

type triggerResult struct {
	TriggerID int
	Blocks    []monitor.Block
}

// worker generates the blocks of every trigger it receives. Each worker has
// its own random stream so runs with the same seed and one worker are
// reproducible.
func worker(id int, seed uint64, model monitor.AcquisitionModel, jobs <-chan triggerJob, results chan<- triggerResult) {
	rng := rand.New(rand.NewPCG(seed, uint64(id)))
	for job := range jobs {
		if VerbosityLevel > 2 {
			logger.Info(fmt.Sprintf("Worker %d generating trigger %d", id, job.TriggerID), "workers")
		}
		results <- triggerResult{
			TriggerID: job.TriggerID,
			Blocks:    model.Blocks(rng, job.TriggerID, job.Timestamp),
		}
	}
}

// sendTriggersToWorkers emits triggers 1..n at rateHz, or as fast as
// possible when rateHz is 0, until ctx is cancelled.
func sendTriggersToWorkers(ctx context.Context, n int, rateHz float64, jobs chan<- triggerJob) {
	defer close(jobs)

	var tick <-chan time.Time
	if rateHz > 0 {
		ticker := time.NewTicker(time.Duration(float64(time.Second) / rateHz))
		defer ticker.Stop()
		tick = ticker.C
	}

	start := time.Now()
	for trigger := 1; trigger <= n; trigger++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return
		}
		jobs <- triggerJob{TriggerID: trigger, Timestamp: time.Since(start).Seconds()}
	}
}

func startWorkers(numWorkers int, seed uint64, model monitor.AcquisitionModel, jobs <-chan triggerJob) <-chan triggerResult {
	results := make(chan triggerResult, 100)
	var wg sync.WaitGroup
	for w := 1; w <= numWorkers; w++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			worker(id, seed, model, jobs, results)
		}(w)
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	return results
}

// writeWorkerResults appends every block to out as it arrives and returns
// the number of blocks written.
func writeWorkerResults(results <-chan triggerResult, out io.Writer) (int, error) {
	blocksWritten := 0
	for result := range results {
		for _, block := range result.Blocks {
			if err := monitor.WriteBlock(out, block); err != nil {
				return blocksWritten, err
			}
			blocksWritten++
		}
		if VerbosityLevel > 1 {
			message := fmt.Sprintf("Trigger %d written (%d blocks)", result.TriggerID, len(result.Blocks))
			logger.Info(message, "writer")
		}
	}
	return blocksWritten, nil
}
