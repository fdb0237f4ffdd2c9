package monitor

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/DataDog/sketches-go/ddsketch/mapping"
	"github.com/DataDog/sketches-go/ddsketch/store"
	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Spectra cover the 12 bit range of the digitizers.
const (
	spectrumMin     = 1
	spectrumMax     = 4096
	spectrumSigFigs = 2
	// Relative accuracy of the combined gain quantiles.
	sketchAlpha = 0.01
)

// RepresentativeEvent is the event currently shown, if any.
type RepresentativeEvent struct {
	Valid     bool
	TriggerID int
	Hits      []Hit
}

// Display is a Sink keeping the spectra, the latest series values and the
// representative event in memory. The monitor writes to it and readers on
// other goroutines use Snapshot or the Prometheus registry.
type Display struct {
	mu        sync.RWMutex
	caenUnits int
	channels  int

	lowGain        [][]*hdrhistogram.Histogram
	highGain       [][]*hdrhistogram.Histogram
	combinedGain   []*ddsketch.DDSketch
	blocks         []int
	overflows      int
	latest         map[SeriesKind][]Point
	representative RepresentativeEvent

	registry       *prometheus.Registry
	hitsTotal      *prometheus.CounterVec
	blocksTotal    *prometheus.CounterVec
	eventCount     *prometheus.GaugeVec
	missedFraction *prometheus.GaugeVec
	shownTrigger   prometheus.Gauge
}

func NewDisplay(caenUnits int, channels int) (*Display, error) {
	d := &Display{
		caenUnits:    caenUnits,
		channels:     channels,
		lowGain:      make([][]*hdrhistogram.Histogram, caenUnits),
		highGain:     make([][]*hdrhistogram.Histogram, caenUnits),
		combinedGain: make([]*ddsketch.DDSketch, caenUnits),
		blocks:       make([]int, caenUnits),
		latest:       make(map[SeriesKind][]Point),
		registry:     prometheus.NewRegistry(),
	}
	for board := 0; board < caenUnits; board++ {
		d.lowGain[board] = make([]*hdrhistogram.Histogram, channels)
		d.highGain[board] = make([]*hdrhistogram.Histogram, channels)
		for channel := 0; channel < channels; channel++ {
			d.lowGain[board][channel] = hdrhistogram.New(spectrumMin, spectrumMax, spectrumSigFigs)
			d.highGain[board][channel] = hdrhistogram.New(spectrumMin, spectrumMax, spectrumSigFigs)
		}
		sketch, err := newSketch(sketchAlpha)
		if err != nil {
			return nil, fmt.Errorf("error creating gain sketch: %w", err)
		}
		d.combinedGain[board] = sketch
	}
	for _, kind := range []SeriesKind{EventCountSeries, MissedFractionSeries} {
		d.latest[kind] = make([]Point, caenUnits)
	}

	factory := promauto.With(d.registry)
	d.hitsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caen_monitor",
		Name:      "hits_total",
		Help:      "Hits received per CAEN unit",
	}, []string{"board"})
	d.blocksTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "caen_monitor",
		Name:      "blocks_total",
		Help:      "Blocks received per CAEN unit",
	}, []string{"board"})
	d.eventCount = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "caen_monitor",
		Name:      "event_count",
		Help:      "Latest trigger id seen on channel 0 of each CAEN unit",
	}, []string{"board"})
	d.missedFraction = factory.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "caen_monitor",
		Name:      "missed_fraction",
		Help:      "Fraction of triggers without a block from each CAEN unit",
	}, []string{"board"})
	d.shownTrigger = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "caen_monitor",
		Name:      "representative_trigger",
		Help:      "Trigger id of the event on display, -1 if none",
	})
	d.shownTrigger.Set(-1)
	return d, nil
}

func newSketch(alpha float64) (*ddsketch.DDSketch, error) {
	m, err := mapping.NewLogarithmicMapping(alpha)
	if err != nil {
		return nil, err
	}
	return ddsketch.NewDDSketch(m, store.NewDenseStore(), store.NewDenseStore()), nil
}

func (d *Display) Registry() *prometheus.Registry {
	return d.registry
}

func (d *Display) contains(board int, channel int) bool {
	return board >= 0 && board < d.caenUnits && channel >= 0 && channel < d.channels
}

func (d *Display) OnBlockStart(board int) {
	if board < 0 || board >= d.caenUnits {
		return
	}
	d.mu.Lock()
	d.blocks[board]++
	d.mu.Unlock()
	d.blocksTotal.WithLabelValues(strconv.Itoa(board)).Inc()
}

func (d *Display) OnHit(hit Hit) {
	if !d.contains(hit.Board, hit.Channel) {
		return
	}
	d.mu.Lock()
	if err := d.lowGain[hit.Board][hit.Channel].RecordValue(int64(hit.LowGain)); err != nil {
		d.overflows++
	}
	if err := d.highGain[hit.Board][hit.Channel].RecordValue(int64(hit.HighGain)); err != nil {
		d.overflows++
	}
	if err := d.combinedGain[hit.Board].Add(float64(hit.CombinedGain)); err != nil {
		d.overflows++
	}
	d.mu.Unlock()
	d.hitsTotal.WithLabelValues(strconv.Itoa(hit.Board)).Inc()
}

func (d *Display) OnTimeSeriesPoint(board int, kind SeriesKind, timestamp time.Time, value float64) {
	if board < 0 || board >= d.caenUnits {
		return
	}
	d.mu.Lock()
	if points, ok := d.latest[kind]; ok {
		points[board] = Point{Time: timestamp, Value: value}
	}
	d.mu.Unlock()

	label := strconv.Itoa(board)
	switch kind {
	case EventCountSeries:
		d.eventCount.WithLabelValues(label).Set(value)
	case MissedFractionSeries:
		d.missedFraction.WithLabelValues(label).Set(value)
	}
}

func (d *Display) OnRepresentativeEvent(triggerID int, hits []Hit) {
	shown := make([]Hit, len(hits))
	copy(shown, hits)
	d.mu.Lock()
	d.representative = RepresentativeEvent{Valid: true, TriggerID: triggerID, Hits: shown}
	d.mu.Unlock()
	d.shownTrigger.Set(float64(triggerID))
}

func (d *Display) OnNoRepresentativeEvent() {
	d.mu.Lock()
	d.representative = RepresentativeEvent{}
	d.mu.Unlock()
	d.shownTrigger.Set(-1)
}

// DisplaySnapshot is a deep copy of the display state.
type DisplaySnapshot struct {
	LowGain        [][]*hdrhistogram.Histogram
	HighGain       [][]*hdrhistogram.Histogram
	CombinedGain   []*ddsketch.DDSketch
	Blocks         []int
	Overflows      int
	Latest         map[SeriesKind][]Point
	Representative RepresentativeEvent
}

func (d *Display) Snapshot() DisplaySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snap := DisplaySnapshot{
		LowGain:      make([][]*hdrhistogram.Histogram, d.caenUnits),
		HighGain:     make([][]*hdrhistogram.Histogram, d.caenUnits),
		CombinedGain: make([]*ddsketch.DDSketch, d.caenUnits),
		Blocks:       make([]int, d.caenUnits),
		Overflows:    d.overflows,
		Latest:       make(map[SeriesKind][]Point),
	}
	copy(snap.Blocks, d.blocks)
	for board := 0; board < d.caenUnits; board++ {
		snap.LowGain[board] = make([]*hdrhistogram.Histogram, d.channels)
		snap.HighGain[board] = make([]*hdrhistogram.Histogram, d.channels)
		for channel := 0; channel < d.channels; channel++ {
			snap.LowGain[board][channel] = hdrhistogram.Import(d.lowGain[board][channel].Export())
			snap.HighGain[board][channel] = hdrhistogram.Import(d.highGain[board][channel].Export())
		}
		snap.CombinedGain[board] = d.combinedGain[board].Copy()
	}
	for kind, points := range d.latest {
		snap.Latest[kind] = append([]Point(nil), points...)
	}
	snap.Representative = d.representative
	snap.Representative.Hits = append([]Hit(nil), d.representative.Hits...)
	return snap
}

// GainQuantile returns the q quantile of the combined gain of board.
func (s DisplaySnapshot) GainQuantile(board int, q float64) (float64, bool) {
	if board < 0 || board >= len(s.CombinedGain) {
		return 0, false
	}
	sketch := s.CombinedGain[board]
	if sketch.GetCount() == 0 {
		return 0, false
	}
	v, err := sketch.GetValueAtQuantile(q)
	if err != nil {
		return 0, false
	}
	return v, true
}
