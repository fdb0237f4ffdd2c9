package monitor

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Signal thresholds on the combined gain. Units 5 and 6 have a higher gain
// than the rest.
const (
	defaultSignalThreshold = 70
	highGainUnitsThreshold = 200
)

var highGainUnits = []int{5, 6}

// SignalThreshold returns the minimum combined gain for a hit of board to be
// considered signal.
func SignalThreshold(board int) int {
	if slices.Contains(highGainUnits, board) {
		return highGainUnitsThreshold
	}
	return defaultSignalThreshold
}

// SignalHits returns the hits of event above the threshold of their board.
func SignalHits(event *Event) []Hit {
	hits := make([]Hit, 0)
	for _, hit := range event.PresentHits() {
		if hit.CombinedGain > SignalThreshold(hit.Board) {
			hits = append(hits, hit)
		}
	}
	return hits
}

// Selector looks for a recent complete event with enough signal to show.
type Selector struct {
	builder      *EventBuilder
	adcThreshold int
	depth        int
}

// NewSelector returns a selector rejecting events whose MaxAdc is below
// adcThreshold. At most depth trigger ids are tried per search, 0 means no
// limit.
func NewSelector(builder *EventBuilder, adcThreshold int, depth int) *Selector {
	return &Selector{
		builder:      builder,
		adcThreshold: adcThreshold,
		depth:        depth,
	}
}

// Select walks trigger ids down from start and returns the first complete
// event with MaxAdc at or above the threshold.
func (s *Selector) Select(start int) (*Event, bool) {
	tried := 0
	for candidate := start; candidate >= 0; candidate-- {
		if s.depth > 0 && tried >= s.depth {
			break
		}
		tried++
		event, ok := s.builder.Event(candidate)
		if !ok || !event.IsComplete() || event.MaxAdc < s.adcThreshold {
			continue
		}
		return event, true
	}
	return nil, false
}

// Publish selects an event starting at start and sends its signal hits to
// sink, or tells sink there is none.
func (s *Selector) Publish(start int, sink Sink) (*Event, bool) {
	event, ok := s.Select(start)
	if !ok {
		if configuration.Verbosity > 1 {
			message := fmt.Sprintf("No representative event below trigger %d", start)
			logger.Info(message, "selector")
		}
		sink.OnNoRepresentativeEvent()
		return nil, false
	}
	sink.OnRepresentativeEvent(event.TriggerID, SignalHits(event))
	return event, true
}
