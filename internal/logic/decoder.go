package logic

import "time"

// Decoder turns a stream of FIFO samples into pulse/space events.
//
// A Decoder has a single owner. Callers that share one between goroutines
// must serialize each interrupt episode (FeedSample calls followed by
// EndFrame or Overflow) under one lock.
type Decoder struct {
	unit    time.Duration
	allowed ProtocolSet

	state    State
	pulse    bool
	ticks    uint64
	protocol Protocol

	events []Event
	counts Counts
}

// NewDecoder creates a Decoder in the idle state.
func NewDecoder(cfg Config) *Decoder {
	return &Decoder{
		unit:    cfg.Unit,
		allowed: cfg.Allowed,
	}
}

// FeedSample consumes one FIFO sample and returns the events finalized by it,
// if any. Consecutive samples of the same level are summed into one run.
func (d *Decoder) FeedSample(pulse bool, ticks uint8) []Event {
	if d.state == StateIdle {
		d.startRun(pulse, ticks)
		d.state = StateAccumulating
		return nil
	}

	if pulse == d.pulse {
		d.ticks += uint64(ticks)
		return nil
	}

	emitted := d.finalize()
	d.startRun(pulse, ticks)
	return emitted
}

// Feed consumes a FIFO byte. See FeedSample.
func (d *Decoder) Feed(b byte) []Event {
	s := SampleFromByte(b)
	return d.FeedSample(s.Pulse, s.Ticks)
}

// EndFrame flushes the pending run, returns the completed frame and resets
// the decoder for the next one. The hardware never reports a level change
// after the last run, so it is finalized here.
func (d *Decoder) EndFrame() Frame {
	if d.state != StateIdle && d.ticks > 0 {
		d.finalize()
	}

	frame := Frame{
		Protocol: d.protocol,
		Events:   d.events,
	}
	d.counts.Frames++
	d.events = nil
	d.reset()
	return frame
}

// Overflow abandons the current frame after the FIFO dropped samples. The
// pending run is not flushed and no frame is produced. It returns the number
// of already emitted events that were discarded.
func (d *Decoder) Overflow() int {
	n := len(d.events)
	d.counts.Overflows++
	d.counts.Discarded += n
	d.events = nil
	d.reset()
	return n
}

// State returns the decoder's position within the current frame.
func (d *Decoder) State() State {
	return d.state
}

// Protocol returns the protocol classified for the current frame.
func (d *Decoder) Protocol() Protocol {
	return d.protocol
}

// Pending returns the run being accumulated. ok is false when idle.
func (d *Decoder) Pending() (pulse bool, ticks uint64, ok bool) {
	return d.pulse, d.ticks, d.state != StateIdle
}

// Events returns a copy of the events emitted so far in the current frame.
func (d *Decoder) Events() []Event {
	return append([]Event(nil), d.events...)
}

// Unit returns the configured tick duration.
func (d *Decoder) Unit() time.Duration {
	return d.unit
}

// Allowed returns the configured protocol set.
func (d *Decoder) Allowed() ProtocolSet {
	return d.allowed
}

// Counts returns activity counters since construction.
func (d *Decoder) Counts() Counts {
	return d.counts
}

func (d *Decoder) startRun(pulse bool, ticks uint8) {
	d.pulse = pulse
	d.ticks = uint64(ticks)
}

// finalize emits the pending run and returns the emitted events.
func (d *Decoder) finalize() []Event {
	start := len(d.events)
	duration := time.Duration(d.ticks) * d.unit

	switch {
	case d.state == StateAccumulating:
		// First run of the frame: the boot code.
		if withinMargin(duration, NECBootCode, BootCodeMargin) {
			d.protocol = ProtocolNEC
			d.counts.NEC++
		} else {
			d.protocol = ProtocolRC5
			d.counts.RC5++
		}
		d.emit(Event{Pulse: d.pulse, Duration: duration})
		d.state = StateBootCodeClassified

	case d.protocol == ProtocolRC5 && duration > ThresholdLow && duration < ThresholdHigh:
		// The level held through a mid-bit non-transition: two half-bits.
		half := Event{Pulse: d.pulse, Duration: duration / 2}
		d.emit(half, half)

	default:
		d.emit(Event{Pulse: d.pulse, Duration: duration})
	}

	return d.events[start:len(d.events):len(d.events)]
}

func (d *Decoder) emit(events ...Event) {
	d.events = append(d.events, events...)
	d.counts.Events += len(events)
}

func (d *Decoder) reset() {
	d.state = StateIdle
	d.pulse = false
	d.ticks = 0
	d.protocol = ProtocolUnknown
}

func withinMargin(d, target, margin time.Duration) bool {
	diff := d - target
	if diff < 0 {
		diff = -diff
	}
	return diff <= margin
}
