package monitor

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultSaturation = 3800
	DefaultGainRatio  = 9.5
)

const (
	summaryTokens = 7
	detailTokens  = 4
)

// Calibration holds the constants used to rebuild saturated high gain
// readings from the low gain channel.
type Calibration struct {
	Saturation int
	GainRatio  float64
}

func DefaultCalibration() Calibration {
	return Calibration{Saturation: DefaultSaturation, GainRatio: DefaultGainRatio}
}

// JitterSource provides the 0/1 dither added to the low gain before scaling.
// *rand.Rand from math/rand/v2 satisfies it.
type JitterSource interface {
	IntN(n int) int
}

// Hit is the reading of one channel of one board for one trigger.
type Hit struct {
	Board        int
	Channel      int
	LowGain      int
	HighGain     int
	CombinedGain int
	Timestamp    float64
	TriggerID    int
	Position     Position
}

func NewHit(board, channel, lowGain, highGain int, timestamp float64, triggerID int,
	calib Calibration, geometry *Geometry, jitter JitterSource) Hit {
	return Hit{
		Board:        board,
		Channel:      channel,
		LowGain:      lowGain,
		HighGain:     highGain,
		CombinedGain: CombinedGain(lowGain, highGain, calib, jitter),
		Timestamp:    timestamp,
		TriggerID:    triggerID,
		Position:     geometry.Position(board, channel),
	}
}

// CombinedGain returns highGain unless it is saturated, in which case the
// value is rebuilt as (lowGain + jitter) * GainRatio.
func CombinedGain(lowGain int, highGain int, calib Calibration, jitter JitterSource) int {
	if highGain < calib.Saturation {
		return highGain
	}
	dither := 0
	if jitter != nil {
		dither = jitter.IntN(2)
	}
	return int(float64(lowGain+dither) * calib.GainRatio)
}

// hitDecoder turns text lines into hits.
type hitDecoder struct {
	calib    Calibration
	geometry *Geometry
	jitter   JitterSource
	// maxHits bounds the hit count of a summary line, one hit per channel.
	maxHits int
}

// summary is the decoded first line of a block.
type summary struct {
	hit   Hit
	nhits int
}

func (d *hitDecoder) decodeSummary(line string) (summary, error) {
	tokens := strings.Fields(line)
	if len(tokens) != summaryTokens {
		return summary{}, fmt.Errorf("expected %d tokens, found %d", summaryTokens, len(tokens))
	}
	ints, err := parseInts(tokens[:4])
	if err != nil {
		return summary{}, err
	}
	timestamp, err := strconv.ParseFloat(tokens[4], 64)
	if err != nil {
		return summary{}, fmt.Errorf("error parsing timestamp: %w", err)
	}
	tail, err := parseInts(tokens[5:])
	if err != nil {
		return summary{}, err
	}
	triggerID, nhits := tail[0], tail[1]
	if nhits < 1 || (d.maxHits > 0 && nhits > d.maxHits) {
		return summary{}, fmt.Errorf("invalid number of hits: %d", nhits)
	}
	hit := NewHit(ints[0], ints[1], ints[2], ints[3], timestamp, triggerID, d.calib, d.geometry, d.jitter)
	return summary{hit: hit, nhits: nhits}, nil
}

func (d *hitDecoder) decodeDetail(line string, timestamp float64, triggerID int) (Hit, error) {
	tokens := strings.Fields(line)
	if len(tokens) != detailTokens {
		return Hit{}, fmt.Errorf("expected %d tokens, found %d", detailTokens, len(tokens))
	}
	ints, err := parseInts(tokens)
	if err != nil {
		return Hit{}, err
	}
	return NewHit(ints[0], ints[1], ints[2], ints[3], timestamp, triggerID, d.calib, d.geometry, d.jitter), nil
}

func parseInts(tokens []string) ([]int, error) {
	values := make([]int, len(tokens))
	for i, token := range tokens {
		value, err := strconv.Atoi(token)
		if err != nil {
			return nil, fmt.Errorf("error parsing integer: %w", err)
		}
		values[i] = value
	}
	return values, nil
}

// Slot is one position of a sparse hit array: either empty or holding a hit.
type Slot struct {
	hit     Hit
	present bool
}

func Present(hit Hit) Slot {
	return Slot{hit: hit, present: true}
}

func (s Slot) Get() (Hit, bool) {
	return s.hit, s.present
}

func (s Slot) IsEmpty() bool {
	return !s.present
}
