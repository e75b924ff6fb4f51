package events

import (
	"testing"
	"time"
)

func makeEvent(typ EventType, tick uint64) PlantEvent {
	return PlantEvent{
		ID:        GenerateEventID(),
		Timestamp: time.Now(),
		Type:      typ,
		ActorID:   "TEST",
		Tick:      tick,
	}
}

func TestAppendAndReplay(t *testing.T) {
	el := NewEventLog(nil)

	el.Append(makeEvent(EventTypeStructureBuilt, 1))
	el.Append(makeEvent(EventTypeTimeTick, 1))
	el.Append(makeEvent(EventTypeStructureBuilt, 2))

	history := el.Replay()
	if len(history) != 3 {
		t.Fatalf("Expected 3 events in the replay, got %d", len(history))
	}
	if history[0].Type != EventTypeStructureBuilt || history[2].Tick != 2 {
		t.Error("Expected replay to preserve append order")
	}
}

func TestFilters(t *testing.T) {
	el := NewEventLog(nil)

	el.Append(makeEvent(EventTypeTimeTick, 1))
	el.Append(makeEvent(EventTypeStructureBuilt, 1))
	el.Append(makeEvent(EventTypeTimeTick, 2))
	el.Append(makeEvent(EventTypeRequestRejected, 2))

	if n := len(el.GetByType(EventTypeTimeTick)); n != 2 {
		t.Errorf("Expected 2 TIME_TICK events, got %d", n)
	}
	if n := len(el.GetByTick(2)); n != 2 {
		t.Errorf("Expected 2 events on tick 2, got %d", n)
	}
	if n := len(el.GetByTick(99)); n != 0 {
		t.Errorf("Expected no events on tick 99, got %d", n)
	}
}

func TestSinceCursor(t *testing.T) {
	el := NewEventLog(nil)

	el.Append(makeEvent(EventTypeTimeTick, 1))
	el.Append(makeEvent(EventTypeTimeTick, 2))

	batch, cursor := el.Since(0)
	if len(batch) != 2 || cursor != 2 {
		t.Fatalf("Expected 2 events and cursor 2, got %d and %d", len(batch), cursor)
	}

	batch, cursor = el.Since(cursor)
	if batch != nil || cursor != 2 {
		t.Fatalf("Expected no new events at the cursor, got %d and %d", len(batch), cursor)
	}

	el.Append(makeEvent(EventTypeTimeTick, 3))
	batch, cursor = el.Since(cursor)
	if len(batch) != 1 || cursor != 3 {
		t.Errorf("Expected the one new event, got %d and cursor %d", len(batch), cursor)
	}
}

// capturePersister records write-through appends for assertions.
type capturePersister struct {
	received chan PlantEvent
}

func (p *capturePersister) Append(e PlantEvent) error {
	p.received <- e
	return nil
}

func TestWriteThroughPersister(t *testing.T) {
	p := &capturePersister{received: make(chan PlantEvent, 4)}
	el := NewEventLog(p)

	want := makeEvent(EventTypePlantReset, 0)
	el.Append(want)

	select {
	case got := <-p.received:
		if got.ID != want.ID {
			t.Errorf("Expected persisted event %s, got %s", want.ID, got.ID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the persister to receive the event")
	}
}

func TestGenerateEventIDUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := GenerateEventID()
		if seen[id] {
			t.Fatalf("Duplicate event ID generated: %s", id)
		}
		seen[id] = true
	}
}
