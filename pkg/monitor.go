package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type State int

const (
	Running State = iota
	Stopping
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Stopping:
		return "STOPPING"
	case Stopped:
		return "STOPPED"
	default:
		return "UNKNOWN"
	}
}

// Monitor drives the block reader and feeds the event builder, the
// statistics and the sink. It runs in a single goroutine.
type Monitor struct {
	reader   *BlockReader
	builder  *EventBuilder
	stats    *Statistics
	selector *Selector
	sink     Sink
	now      func() time.Time
	idle     time.Duration
	state    State

	BlocksRead   int
	MalformedHit int
	IdleTicks    int
	// Representative is the trigger id of the last event shown, -1 if none.
	Representative int
}

func NewMonitor(config Configuration, reader *BlockReader, sink Sink) (*Monitor, error) {
	builder, err := NewEventBuilder(config.CaenUnits, config.Channels, config.Retention)
	if err != nil {
		return nil, fmt.Errorf("error creating event builder: %w", err)
	}
	depth := config.SearchDepth
	if depth == 0 {
		depth = config.Retention
	}
	if sink == nil {
		sink = nopSink{}
	}
	return &Monitor{
		reader:         reader,
		builder:        builder,
		stats:          NewStatistics(config.CaenUnits, config.Channels, config.SeriesCapacity),
		selector:       NewSelector(builder, config.AdcThreshold, depth),
		sink:           sink,
		now:            time.Now,
		idle:           config.IdleInterval(),
		state:          Stopped,
		Representative: -1,
	}, nil
}

// SetClock replaces the wall clock used to timestamp the series.
func (m *Monitor) SetClock(now func() time.Time) {
	m.now = now
}

func (m *Monitor) Builder() *EventBuilder {
	return m.builder
}

func (m *Monitor) Statistics() *Statistics {
	return m.stats
}

func (m *Monitor) State() State {
	return m.state
}

// Run processes the file until ctx is cancelled. Cancellation is checked
// before every step and interrupts the idle sleep.
func (m *Monitor) Run(ctx context.Context) error {
	m.state = Running
	defer func() {
		m.state = Stopped
		logger.Info(m.Summary(), "monitor")
	}()

	for {
		if ctx.Err() != nil {
			m.state = Stopping
			return nil
		}
		if idle := m.Step(); !idle {
			continue
		}
		if !m.sleep(ctx) {
			m.state = Stopping
			return nil
		}
	}
}

func (m *Monitor) sleep(ctx context.Context) bool {
	timer := time.NewTimer(m.idle)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// Step asks the reader for one block and processes the result. It returns
// true when no data was available and the idle work has been done.
func (m *Monitor) Step() bool {
	block, err := m.reader.Next()
	if err == nil {
		m.foldBlock(block)
		return false
	}

	var malformed *ErrMalformedHit
	switch {
	case errors.Is(err, ErrNoDataYet):
		m.idleTick()
		return true
	case errors.As(err, &malformed):
		m.MalformedHit++
		logger.Error(malformed.Error())
		return false
	default:
		errMessage := fmt.Errorf("error reading block: %w", err)
		logger.Error(errMessage.Error())
		m.idleTick()
		return true
	}
}

func (m *Monitor) foldBlock(block Block) {
	m.BlocksRead++
	if configuration.Verbosity > 1 {
		message := fmt.Sprintf("Block of board %d, trigger %d, %d hits", block.Board, block.TriggerID, block.NHits)
		logger.Info(message, "monitor")
	}
	m.sink.OnBlockStart(block.Board)
	for _, slot := range block.Hits {
		hit, ok := slot.Get()
		if !ok {
			continue
		}
		if err := m.builder.Fold(hit); err != nil {
			errMessage := fmt.Errorf("error folding hit of trigger %d: %w", hit.TriggerID, err)
			logger.Error(errMessage.Error())
			continue
		}
		m.sink.OnHit(hit)
	}
	m.stats.Record(block)
}

func (m *Monitor) idleTick() {
	m.IdleTicks++
	if configuration.Verbosity > 2 {
		logger.Info("No new data, sleeping", "monitor")
	}
	m.stats.Tick(m.now(), m.sink)
	if event, ok := m.selector.Publish(m.stats.LastTrigger(0), m.sink); ok {
		m.Representative = event.TriggerID
	} else {
		m.Representative = -1
	}
}

func (m *Monitor) Summary() string {
	return fmt.Sprintf("Blocks read: %d, malformed lines: %d, events held: %d, events evicted: %d, dropped lines: %d",
		m.BlocksRead, m.MalformedHit, m.builder.Len(), m.builder.Evicted, m.reader.DroppedLines)
}
