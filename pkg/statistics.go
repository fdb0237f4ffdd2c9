package monitor

import (
	"fmt"
	"time"
)

type Point struct {
	Time  time.Time
	Value float64
}

// series is an append only list of points keeping at most capacity of them.
type series struct {
	points   []Point
	capacity int
}

func (s *series) append(p Point) {
	s.points = append(s.points, p)
	if s.capacity > 0 && len(s.points) > s.capacity {
		s.points = append(s.points[:0:0], s.points[len(s.points)-s.capacity:]...)
	}
}

// Statistics keeps the per-board arrival counters and the two live series
// derived from them.
type Statistics struct {
	caenUnits int
	channels  int

	// BlocksSeen counts the blocks received from each board. One block per
	// board is expected for every trigger.
	BlocksSeen []int
	// HitsSeen counts the hits received from each board.
	HitsSeen []int
	lastHit  [][]Slot
	series   map[SeriesKind][]*series
}

func NewStatistics(caenUnits int, channels int, capacity int) *Statistics {
	s := &Statistics{
		caenUnits:  caenUnits,
		channels:   channels,
		BlocksSeen: make([]int, caenUnits),
		HitsSeen:   make([]int, caenUnits),
		lastHit:    make([][]Slot, caenUnits),
		series:     make(map[SeriesKind][]*series),
	}
	for board := range s.lastHit {
		s.lastHit[board] = make([]Slot, channels)
	}
	for _, kind := range []SeriesKind{EventCountSeries, MissedFractionSeries} {
		perBoard := make([]*series, caenUnits)
		for board := range perBoard {
			perBoard[board] = &series{capacity: capacity}
		}
		s.series[kind] = perBoard
	}
	return s
}

// Record updates the counters and the latest hit of every channel in block.
func (s *Statistics) Record(block Block) {
	if block.Board >= 0 && block.Board < s.caenUnits {
		s.BlocksSeen[block.Board]++
	}
	for _, slot := range block.Hits {
		hit, ok := slot.Get()
		if !ok {
			continue
		}
		if hit.Board < 0 || hit.Board >= s.caenUnits || hit.Channel < 0 || hit.Channel >= s.channels {
			continue
		}
		s.HitsSeen[hit.Board]++
		s.lastHit[hit.Board][hit.Channel] = Present(hit)
	}
}

func (s *Statistics) LastHit(board int, channel int) (Hit, bool) {
	if board < 0 || board >= s.caenUnits || channel < 0 || channel >= s.channels {
		return Hit{}, false
	}
	return s.lastHit[board][channel].Get()
}

// LastTrigger returns the trigger id of the latest channel 0 hit of board,
// used as the progress of that board. It is 0 until channel 0 has been seen.
func (s *Statistics) LastTrigger(board int) int {
	hit, ok := s.LastHit(board, 0)
	if !ok {
		return 0
	}
	return hit.TriggerID
}

func (s *Statistics) MaxTrigger() int {
	maxTrigger := 0
	for board := 0; board < s.caenUnits; board++ {
		if trigger := s.LastTrigger(board); trigger > maxTrigger {
			maxTrigger = trigger
		}
	}
	return maxTrigger
}

// MissedFraction approximates the fraction of triggers lost by board.
func (s *Statistics) MissedFraction(board int, maxTrigger int) float64 {
	return 1 - float64(s.BlocksSeen[board])/float64(maxTrigger)
}

// Tick appends one point per board to the event count series and, once any
// trigger has been seen, to the missed fraction series.
func (s *Statistics) Tick(now time.Time, sink Sink) {
	maxTrigger := s.MaxTrigger()
	for board := 0; board < s.caenUnits; board++ {
		progress := float64(s.LastTrigger(board))
		s.series[EventCountSeries][board].append(Point{Time: now, Value: progress})
		sink.OnTimeSeriesPoint(board, EventCountSeries, now, progress)

		if maxTrigger > 0 {
			missed := s.MissedFraction(board, maxTrigger)
			s.series[MissedFractionSeries][board].append(Point{Time: now, Value: missed})
			sink.OnTimeSeriesPoint(board, MissedFractionSeries, now, missed)
		}
	}
	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Statistics tick: max trigger %d, blocks %v", maxTrigger, s.BlocksSeen)
		logger.Info(message, "statistics")
	}
}

// Series returns a copy of the retained points of one series.
func (s *Statistics) Series(board int, kind SeriesKind) []Point {
	perBoard, ok := s.series[kind]
	if !ok || board < 0 || board >= len(perBoard) {
		return nil
	}
	points := make([]Point, len(perBoard[board].points))
	copy(points, perBoard[board].points)
	return points
}
