package monitor

import (
	"errors"
	"testing"
)

func TestEventBuilderCompleteness(t *testing.T) {
	builder, err := NewEventBuilder(2, 3, 10)
	if err != nil {
		t.Fatalf("NewEventBuilder: %v", err)
	}
	if builder.Capacity() != 6 {
		t.Fatalf("Capacity = %d, want 6", builder.Capacity())
	}

	for board := 0; board < 2; board++ {
		for channel := 0; channel < 3; channel++ {
			if builder.IsComplete(5) {
				t.Fatalf("event complete after %d hits", board*3+channel)
			}
			hit := Hit{Board: board, Channel: channel, HighGain: 100 * (board + channel), TriggerID: 5}
			if err := builder.Fold(hit); err != nil {
				t.Fatalf("Fold: %v", err)
			}
		}
	}
	if !builder.IsComplete(5) {
		t.Fatal("event not complete after folding every channel")
	}

	event, ok := builder.Event(5)
	if !ok {
		t.Fatal("event 5 not found")
	}
	if event.HitsFound != 6 || event.MaxAdc != 300 {
		t.Errorf("HitsFound = %d, MaxAdc = %d, want 6 and 300", event.HitsFound, event.MaxAdc)
	}
	hit, ok := event.Hits[2+3*1].Get()
	if !ok || hit.Board != 1 || hit.Channel != 2 {
		t.Errorf("slot of board 1 channel 2 holds %+v", hit)
	}
	if builder.IsComplete(6) {
		t.Error("unknown trigger reported complete")
	}
}

func TestEventBuilderDuplicateHit(t *testing.T) {
	builder, _ := NewEventBuilder(1, 2, 10)
	first := Hit{Board: 0, Channel: 1, HighGain: 50, CombinedGain: 50, TriggerID: 3}
	second := Hit{Board: 0, Channel: 1, HighGain: 40, CombinedGain: 40, TriggerID: 3}
	builder.Fold(first)
	builder.Fold(second)

	event, _ := builder.Event(3)
	if event.HitsFound != 1 {
		t.Errorf("HitsFound = %d after a duplicate, want 1", event.HitsFound)
	}
	hit, _ := event.Hits[1].Get()
	if hit.CombinedGain != 40 {
		t.Errorf("duplicate did not overwrite: CombinedGain = %d", hit.CombinedGain)
	}
	if event.MaxAdc != 50 {
		t.Errorf("MaxAdc = %d, want 50", event.MaxAdc)
	}
	if len(event.PresentHits()) != 1 {
		t.Errorf("PresentHits = %d hits, want 1", len(event.PresentHits()))
	}
}

func TestEventBuilderRetention(t *testing.T) {
	builder, _ := NewEventBuilder(1, 1, 3)
	for trigger := 0; trigger < 10; trigger++ {
		builder.Fold(Hit{TriggerID: trigger})
	}
	if builder.Len() != 3 {
		t.Errorf("Len = %d, want 3", builder.Len())
	}
	if builder.Evicted != 7 {
		t.Errorf("Evicted = %d, want 7", builder.Evicted)
	}
	for trigger := 0; trigger < 7; trigger++ {
		if _, ok := builder.Event(trigger); ok {
			t.Errorf("old event %d still held", trigger)
		}
	}
	for trigger := 7; trigger < 10; trigger++ {
		if !builder.IsComplete(trigger) {
			t.Errorf("recent event %d missing", trigger)
		}
	}
}

func TestEventBuilderOutOfRange(t *testing.T) {
	builder, _ := NewEventBuilder(2, 4, 10)
	for _, hit := range []Hit{{Board: 2}, {Channel: 4}, {Board: -1}} {
		var rangeErr *ErrHitOutOfRange
		if err := builder.Fold(hit); !errors.As(err, &rangeErr) {
			t.Errorf("Fold(%+v) = %v, want *ErrHitOutOfRange", hit, err)
		}
	}
	if builder.Len() != 0 {
		t.Errorf("rejected hits created %d events", builder.Len())
	}
}

func TestNewEventBuilderInvalid(t *testing.T) {
	if _, err := NewEventBuilder(0, 64, 10); err == nil {
		t.Error("NewEventBuilder with no units succeeded")
	}
	if _, err := NewEventBuilder(8, 64, 0); err == nil {
		t.Error("NewEventBuilder with no retention succeeded")
	}
}
