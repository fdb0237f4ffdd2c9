package monitor

import "time"

type SeriesKind int

const (
	EventCountSeries SeriesKind = iota
	MissedFractionSeries
)

func (k SeriesKind) String() string {
	switch k {
	case EventCountSeries:
		return "event_count"
	case MissedFractionSeries:
		return "missed_fraction"
	default:
		return "unknown"
	}
}

// Sink receives what the monitor produces for display.
type Sink interface {
	OnBlockStart(board int)
	OnHit(hit Hit)
	OnTimeSeriesPoint(board int, kind SeriesKind, timestamp time.Time, value float64)
	OnRepresentativeEvent(triggerID int, hits []Hit)
	OnNoRepresentativeEvent()
}

type nopSink struct{}

func (nopSink) OnBlockStart(int)                                      {}
func (nopSink) OnHit(Hit)                                             {}
func (nopSink) OnTimeSeriesPoint(int, SeriesKind, time.Time, float64) {}
func (nopSink) OnRepresentativeEvent(int, []Hit)                      {}
func (nopSink) OnNoRepresentativeEvent()                              {}
