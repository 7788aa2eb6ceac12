package gpio

import "errors"

// FakeReader is a test double that returns scripted FIFO episodes.
type FakeReader struct {
	// Interrupts contains scripted episodes to return.
	// Each call to Read() consumes the next one.
	Interrupts []Interrupt

	// index tracks current position in Interrupts
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// NewFakeReader creates a FakeReader with the given episodes.
func NewFakeReader(interrupts []Interrupt) *FakeReader {
	return &FakeReader{Interrupts: interrupts}
}

// Read returns the next scripted episode.
// If episodes are exhausted, returns empty episodes.
func (f *FakeReader) Read() (Interrupt, error) {
	if f.ReadError != nil {
		return Interrupt{}, f.ReadError
	}

	if f.Interrupts == nil {
		return Interrupt{}, errors.New("no interrupts configured")
	}

	if f.index >= len(f.Interrupts) {
		return Interrupt{}, nil
	}
	it := f.Interrupts[f.index]
	f.index++
	return it, nil
}

// Remaining returns the number of scripted episodes not yet read.
func (f *FakeReader) Remaining() int {
	return len(f.Interrupts) - f.index
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of the script.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}
