package monitor

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"
)

// adcMax is the largest reading of a 12 bit channel.
const adcMax = 4095

// AcquisitionModel describes the synthetic readout produced by the list
// generator: every board reads every channel on every trigger unless it
// misses the trigger altogether.
type AcquisitionModel struct {
	CaenUnits int
	Channels  int
	// MissProbability is the chance that a board produces no block for a
	// trigger.
	MissProbability float64
	// SignalProbability is the chance that a channel sees a pulse on top of
	// the pedestal.
	SignalProbability float64
	Pedestal          int
	// MeanSignal is the mean high gain amplitude of a pulse.
	MeanSignal  float64
	Calibration Calibration
}

func DefaultAcquisitionModel(caenUnits int, channels int) AcquisitionModel {
	return AcquisitionModel{
		CaenUnits:         caenUnits,
		Channels:          channels,
		MissProbability:   0.01,
		SignalProbability: 0.3,
		Pedestal:          50,
		MeanSignal:        800,
		Calibration:       DefaultCalibration(),
	}
}

// Blocks returns the blocks of every board that did not miss triggerID.
func (m AcquisitionModel) Blocks(rng *rand.Rand, triggerID int, timestamp float64) []Block {
	blocks := make([]Block, 0, m.CaenUnits)
	for board := 0; board < m.CaenUnits; board++ {
		if rng.Float64() < m.MissProbability {
			continue
		}
		block := Block{Board: board, TriggerID: triggerID, NHits: m.Channels, Hits: make([]Slot, m.Channels)}
		for channel := 0; channel < m.Channels; channel++ {
			block.Hits[channel] = Present(m.hit(rng, board, channel, triggerID, timestamp))
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func (m AcquisitionModel) hit(rng *rand.Rand, board, channel, triggerID int, timestamp float64) Hit {
	amplitude := float64(m.Pedestal + rng.IntN(20))
	if rng.Float64() < m.SignalProbability {
		amplitude += rng.ExpFloat64() * m.MeanSignal
	}
	highGain := min(int(amplitude), adcMax)
	lowGain := min(int(amplitude/m.Calibration.GainRatio), adcMax)
	return Hit{
		Board:     board,
		Channel:   channel,
		LowGain:   lowGain,
		HighGain:  highGain,
		Timestamp: timestamp,
		TriggerID: triggerID,
	}
}

// FormatBlock returns the text lines of block: a summary line carrying the
// first hit, the timestamp, the trigger id and the number of hits, then one
// detail line per remaining hit.
func FormatBlock(block Block) []string {
	hits := make([]Hit, 0, len(block.Hits))
	for _, slot := range block.Hits {
		if hit, ok := slot.Get(); ok {
			hits = append(hits, hit)
		}
	}
	if len(hits) == 0 {
		return nil
	}

	first := hits[0]
	lines := make([]string, 0, len(hits))
	lines = append(lines, fmt.Sprintf("%d %d %d %d %.3f %d %d",
		first.Board, first.Channel, first.LowGain, first.HighGain, first.Timestamp, block.TriggerID, len(hits)))
	for _, hit := range hits[1:] {
		lines = append(lines, fmt.Sprintf("%d\t%d\t%d\t%d", hit.Board, hit.Channel, hit.LowGain, hit.HighGain))
	}
	return lines
}

func WriteBlock(w io.Writer, block Block) error {
	for _, line := range FormatBlock(block) {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("error writing block of trigger %d: %w", block.TriggerID, err)
		}
	}
	return nil
}

// WriteListHeader writes the comment header of a list file. It always has
// DefaultHeaderLines lines.
func WriteListHeader(w io.Writer, runNumber int, model AcquisitionModel, start time.Time) error {
	header := []string{
		"//************************************************",
		"// Synthetic CAEN list file",
		fmt.Sprintf("// Run# = %d", runNumber),
		fmt.Sprintf("// Start Time = %s", start.UTC().Format(time.RFC3339)),
		fmt.Sprintf("// CAEN units = %d", model.CaenUnits),
		fmt.Sprintf("// Channels = %d", model.Channels),
		"// Energy N Channels = 4096",
		"// Board Channel LG HG Timestamp TriggerID NHits",
		"//************************************************",
	}
	for _, line := range header {
		if _, err := io.WriteString(w, line+"\n"); err != nil {
			return fmt.Errorf("error writing header: %w", err)
		}
	}
	return nil
}
