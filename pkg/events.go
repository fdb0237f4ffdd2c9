package monitor

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Event gathers the hits of every board for one trigger.
type Event struct {
	TriggerID int
	// Hits has caenUnits*channels slots, hit (board, channel) is stored at
	// channel + channels*board.
	Hits      []Slot
	HitsFound int
	MaxAdc    int
}

func newEvent(triggerID int, size int) *Event {
	return &Event{
		TriggerID: triggerID,
		Hits:      make([]Slot, size),
	}
}

func (e *Event) IsComplete() bool {
	return e.HitsFound == len(e.Hits)
}

// PresentHits returns the non empty slots in slot order.
func (e *Event) PresentHits() []Hit {
	hits := make([]Hit, 0, e.HitsFound)
	for _, slot := range e.Hits {
		if hit, ok := slot.Get(); ok {
			hits = append(hits, hit)
		}
	}
	return hits
}

// EventBuilder owns the trigger id -> Event mapping. Old events are evicted
// once more than the retention size are held.
type EventBuilder struct {
	caenUnits int
	channels  int
	events    *lru.Cache[int, *Event]
	Evicted   int
}

func NewEventBuilder(caenUnits int, channels int, retention int) (*EventBuilder, error) {
	if caenUnits < 1 || channels < 1 {
		return nil, fmt.Errorf("invalid geometry: %d units, %d channels", caenUnits, channels)
	}
	b := &EventBuilder{
		caenUnits: caenUnits,
		channels:  channels,
	}
	events, err := lru.NewWithEvict[int, *Event](retention, b.onEvicted)
	if err != nil {
		return nil, fmt.Errorf("error creating event cache: %w", err)
	}
	b.events = events
	return b, nil
}

func (b *EventBuilder) onEvicted(triggerID int, event *Event) {
	b.Evicted++
	if configuration.Verbosity > 2 {
		message := fmt.Sprintf("Evicting event %d with %d hits", triggerID, event.HitsFound)
		logger.Info(message, "events")
	}
}

// Capacity is the number of hits of a complete event.
func (b *EventBuilder) Capacity() int {
	return b.caenUnits * b.channels
}

func (b *EventBuilder) slot(board int, channel int) (int, error) {
	if board < 0 || board >= b.caenUnits || channel < 0 || channel >= b.channels {
		return 0, &ErrHitOutOfRange{Board: board, Channel: channel}
	}
	return channel + b.channels*board, nil
}

// Fold stores hit in the event of its trigger, creating the event if needed.
// A second hit for the same board and channel replaces the first one.
func (b *EventBuilder) Fold(hit Hit) error {
	index, err := b.slot(hit.Board, hit.Channel)
	if err != nil {
		return err
	}
	event, ok := b.events.Get(hit.TriggerID)
	if !ok {
		event = newEvent(hit.TriggerID, b.Capacity())
		b.events.Add(hit.TriggerID, event)
	}
	if event.Hits[index].IsEmpty() {
		event.HitsFound++
	}
	event.Hits[index] = Present(hit)
	if hit.HighGain > event.MaxAdc {
		event.MaxAdc = hit.HighGain
	}
	return nil
}

// Event returns the event of triggerID without changing its retention order.
// The returned event must not be modified.
func (b *EventBuilder) Event(triggerID int) (*Event, bool) {
	return b.events.Peek(triggerID)
}

func (b *EventBuilder) IsComplete(triggerID int) bool {
	event, ok := b.events.Peek(triggerID)
	return ok && event.IsComplete()
}

func (b *EventBuilder) Len() int {
	return b.events.Len()
}
