package events

import (
	"encoding/json"
	"testing"
)

func TestEventBus(t *testing.T) {
	bus := NewEventBus()

	var received *Event
	var callCount int

	handler := func(event *Event) error {
		received = event
		callCount++
		return nil
	}

	bus.Subscribe("test_event", handler)

	payload := map[string]string{"foo": "bar"}
	err := bus.PublishJSON("test_event", payload)
	if err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if callCount != 1 {
		t.Errorf("expected 1 call, got %d", callCount)
	}

	if received.Type != "test_event" {
		t.Errorf("expected type test_event, got %s", received.Type)
	}

	var decoded map[string]string
	if err := json.Unmarshal(received.Payload, &decoded); err != nil {
		t.Fatalf("failed to decode payload: %v", err)
	}

	if decoded["foo"] != "bar" {
		t.Errorf("expected foo=bar, got %s", decoded["foo"])
	}
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	bus := NewEventBus()
	var count1, count2 int

	bus.Subscribe("event", func(_ *Event) error { count1++; return nil })
	bus.Subscribe("event", func(_ *Event) error { count2++; return nil })

	bus.Publish(&Event{Type: "event"})

	if count1 != 1 || count2 != 1 {
		t.Errorf("expected both handlers to be called once, got %d and %d", count1, count2)
	}
}

func TestEventBusNoSubscribers(t *testing.T) {
	bus := NewEventBus()
	// Should not panic
	bus.Publish(&Event{Type: "unknown"})
	err := bus.PublishJSON("unknown", nil)
	if err != nil {
		t.Errorf("PublishJSON failed: %v", err)
	}
}

func TestEventBusSubscribeAll(t *testing.T) {
	bus := NewEventBus()
	var types []string

	bus.SubscribeAll(func(e *Event) error { types = append(types, e.Type); return nil })
	bus.Subscribe(EventBookingCreated, func(_ *Event) error { return nil })

	if err := bus.PublishJSON(EventBookingCreated, WorkflowEventPayload{BookingID: 1}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}
	if err := bus.PublishJSON(EventPaymentCompleted, WorkflowEventPayload{BookingID: 1}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if len(types) != 2 || types[0] != EventBookingCreated || types[1] != EventPaymentCompleted {
		t.Errorf("unexpected wildcard deliveries: %v", types)
	}
}

func TestEventDecode(t *testing.T) {
	bus := NewEventBus()
	var decoded WorkflowEventPayload

	bus.Subscribe(EventBookingCreated, func(e *Event) error {
		return e.Decode(&decoded)
	})

	payload := WorkflowEventPayload{AttemptID: "a1", BookingID: 123, Amount: "300.00"}
	if err := bus.PublishJSON(EventBookingCreated, payload); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	if decoded != payload {
		t.Errorf("expected %+v, got %+v", payload, decoded)
	}
}

func TestNilBusPublishJSON(t *testing.T) {
	var bus *EventBus
	if err := bus.PublishJSON(EventBookingCreated, nil); err != nil {
		t.Errorf("nil bus should be a no-op, got %v", err)
	}
}
