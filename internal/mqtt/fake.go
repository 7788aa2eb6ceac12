package mqtt

import (
	"github.com/sweeney/ir-receiver/internal/receiver"
)

// FakePublisher records what would have gone to the broker. Retained
// system payloads are kept per topic the way a broker keeps them, so tests
// can check what a late subscriber would see.
type FakePublisher struct {
	// Events and Payloads hold published key events and their JSON.
	Events   []receiver.KeyEvent
	Payloads [][]byte

	// SystemEvents and SystemPayloads hold published system events.
	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Retained maps topic to the last retained payload.
	Retained map[string][]byte

	// PublishError and PublishSystemError, if set, fail the matching call
	// without recording anything.
	PublishError       error
	PublishSystemError error

	Closed    bool
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{Retained: make(map[string][]byte)}
}

// Publish records the key event.
func (f *FakePublisher) Publish(event receiver.KeyEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	if event.Retained {
		if f.Retained == nil {
			f.Retained = make(map[string][]byte)
		}
		f.Retained[TopicSystem] = payload
	}
	return nil
}

// Keys returns the key names of the recorded events, in order.
func (f *FakePublisher) Keys() []string {
	names := make([]string, len(f.Events))
	for i, ev := range f.Events {
		names[i] = ev.Key.Name
	}
	return names
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected returns Connected.
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears everything recorded and all injected errors.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{Retained: make(map[string][]byte)}
}
