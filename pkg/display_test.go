package monitor

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestDisplayRecordsHits(t *testing.T) {
	display, err := NewDisplay(2, 2)
	if err != nil {
		t.Fatalf("NewDisplay: %v", err)
	}

	display.OnBlockStart(0)
	display.OnHit(Hit{Board: 0, Channel: 1, LowGain: 10, HighGain: 100, CombinedGain: 100})
	display.OnHit(Hit{Board: 0, Channel: 1, LowGain: 20, HighGain: 200, CombinedGain: 200})
	display.OnHit(Hit{Board: 0, Channel: 0, LowGain: 30, HighGain: 100000, CombinedGain: 285})
	display.OnHit(Hit{Board: 4, Channel: 0, HighGain: 100})
	display.OnBlockStart(7)

	snap := display.Snapshot()
	if snap.Blocks[0] != 1 || snap.Blocks[1] != 0 {
		t.Errorf("Blocks = %v", snap.Blocks)
	}
	if n := snap.HighGain[0][1].TotalCount(); n != 2 {
		t.Errorf("high gain spectrum of board 0 channel 1 has %d entries, want 2", n)
	}
	if n := snap.LowGain[0][0].TotalCount(); n != 1 {
		t.Errorf("low gain spectrum of board 0 channel 0 has %d entries, want 1", n)
	}
	if snap.Overflows != 1 {
		t.Errorf("Overflows = %d, want 1", snap.Overflows)
	}

	median, ok := snap.GainQuantile(0, 0.5)
	if !ok || median < 99 || median > 290 {
		t.Errorf("GainQuantile(0, 0.5) = %f, %t", median, ok)
	}
	if _, ok := snap.GainQuantile(1, 0.5); ok {
		t.Error("GainQuantile of a board without hits succeeded")
	}

	if got := testutil.ToFloat64(display.hitsTotal.WithLabelValues("0")); got != 3 {
		t.Errorf("hits_total{board=0} = %f, want 3", got)
	}
	if got := testutil.ToFloat64(display.blocksTotal.WithLabelValues("0")); got != 1 {
		t.Errorf("blocks_total{board=0} = %f, want 1", got)
	}
}

func TestDisplaySnapshotIsIndependent(t *testing.T) {
	display, _ := NewDisplay(1, 1)
	display.OnHit(Hit{HighGain: 100, CombinedGain: 100})
	snap := display.Snapshot()

	display.OnHit(Hit{HighGain: 200, CombinedGain: 200})
	display.OnBlockStart(0)
	if snap.HighGain[0][0].TotalCount() != 1 || snap.Blocks[0] != 0 {
		t.Error("snapshot changed after new hits")
	}
	if snap.CombinedGain[0].GetCount() != 1 {
		t.Errorf("snapshot sketch count = %f, want 1", snap.CombinedGain[0].GetCount())
	}
	if median, ok := snap.GainQuantile(0, 0.5); !ok || median < 99 || median > 101 {
		t.Errorf("snapshot GainQuantile(0, 0.5) = %f, %t, want about 100", median, ok)
	}

	snap.CombinedGain[0].Add(4000)
	if n := display.Snapshot().CombinedGain[0].GetCount(); n != 2 {
		t.Errorf("display sketch count = %f after writing to a snapshot, want 2", n)
	}
}

func TestDisplaySeriesAndRepresentative(t *testing.T) {
	display, _ := NewDisplay(2, 1)
	now := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

	display.OnTimeSeriesPoint(1, EventCountSeries, now, 42)
	display.OnTimeSeriesPoint(1, MissedFractionSeries, now, 0.25)
	display.OnRepresentativeEvent(42, []Hit{{Board: 1, CombinedGain: 300, TriggerID: 42}})

	snap := display.Snapshot()
	if p := snap.Latest[EventCountSeries][1]; p.Value != 42 || !p.Time.Equal(now) {
		t.Errorf("latest event count of board 1 = %+v", p)
	}
	if p := snap.Latest[MissedFractionSeries][1]; p.Value != 0.25 {
		t.Errorf("latest missed fraction of board 1 = %+v", p)
	}
	if !snap.Representative.Valid || snap.Representative.TriggerID != 42 || len(snap.Representative.Hits) != 1 {
		t.Errorf("Representative = %+v", snap.Representative)
	}
	if got := testutil.ToFloat64(display.missedFraction.WithLabelValues("1")); got != 0.25 {
		t.Errorf("missed_fraction{board=1} = %f", got)
	}
	if got := testutil.ToFloat64(display.shownTrigger); got != 42 {
		t.Errorf("representative_trigger = %f, want 42", got)
	}

	display.OnNoRepresentativeEvent()
	if display.Snapshot().Representative.Valid {
		t.Error("representative event still valid")
	}
	if got := testutil.ToFloat64(display.shownTrigger); got != -1 {
		t.Errorf("representative_trigger = %f, want -1", got)
	}
}

func TestDisplayRegistry(t *testing.T) {
	display, _ := NewDisplay(1, 1)
	display.OnBlockStart(0)
	display.OnHit(Hit{HighGain: 10})
	count, err := testutil.GatherAndCount(display.Registry(), "caen_monitor_hits_total", "caen_monitor_blocks_total")
	if err != nil {
		t.Fatalf("GatherAndCount: %v", err)
	}
	if count != 2 {
		t.Errorf("gathered %d series, want 2", count)
	}
}
