// Package logic contains the pure IR raw pulse decoder.
// This package has NO external dependencies (no GPIO, MQTT, OS, or clocks).
// Samples come in as plain values and decoded events go out as plain values.
package logic

import (
	"fmt"
	"time"
)

// Timing constants shared by the decoder and the protocol decoders.
const (
	RC5Unit = 889000 * time.Nanosecond
	NECUnit = 562500 * time.Nanosecond

	// NECBootCode is the NEC leader mark (9ms).
	NECBootCode = 16 * NECUnit
	// BootCodeMargin is the tolerance applied when matching NECBootCode.
	BootCodeMargin = 2 * NECUnit

	// A run after the boot code whose duration falls strictly between these
	// is two fused RC5 half-bits.
	ThresholdLow  = RC5Unit + RC5Unit/2
	ThresholdHigh = 2*RC5Unit + RC5Unit/2
)

// MaxTicks is the largest clock count one FIFO byte can carry.
const MaxTicks = 0x7f

// Protocol identifies the remote-control framing of one IR frame.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolNEC
	ProtocolRC5
)

func (p Protocol) String() string {
	switch p {
	case ProtocolNEC:
		return "NEC"
	case ProtocolRC5:
		return "RC5"
	}
	return "UNKNOWN"
}

// ProtocolSet is a bit set of protocols a receiver is configured to accept.
type ProtocolSet uint8

const (
	AllowNEC ProtocolSet = 1 << iota
	AllowRC5
)

// Protocol selector values, as written in board configuration.
const (
	SelectNEC       = 0
	SelectRC5       = 1
	SelectRC5AndNEC = 2
)

// ProtocolSetFromSelector converts a board protocol selector (0 = NEC,
// 1 = RC5, 2 = RC5 and NEC) into a ProtocolSet.
func ProtocolSetFromSelector(sel int) (ProtocolSet, error) {
	switch sel {
	case SelectNEC:
		return AllowNEC, nil
	case SelectRC5:
		return AllowRC5, nil
	case SelectRC5AndNEC:
		return AllowNEC | AllowRC5, nil
	}
	return 0, fmt.Errorf("unknown protocol selector %d", sel)
}

// Has reports whether p is in the set.
func (s ProtocolSet) Has(p Protocol) bool {
	switch p {
	case ProtocolNEC:
		return s&AllowNEC != 0
	case ProtocolRC5:
		return s&AllowRC5 != 0
	}
	return false
}

func (s ProtocolSet) String() string {
	switch s {
	case AllowNEC:
		return "NEC"
	case AllowRC5:
		return "RC5"
	case AllowNEC | AllowRC5:
		return "RC5+NEC"
	}
	return "NONE"
}

// State is the decoder's position within a frame.
type State int

const (
	// StateIdle: no run in progress.
	StateIdle State = iota
	// StateAccumulating: the first run of the frame is being accumulated
	// and the protocol is not yet known.
	StateAccumulating
	// StateBootCodeClassified: the boot code has been classified and a
	// later run is being accumulated.
	StateBootCodeClassified
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateAccumulating:
		return "ACCUMULATING"
	case StateBootCodeClassified:
		return "BOOT_CODE_CLASSIFIED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Sample is one hardware FIFO byte: bit 7 is the level, bits 0-6 the number
// of sample clock ticks the level was held.
type Sample struct {
	Pulse bool
	Ticks uint8
}

// SampleFromByte splits a FIFO byte.
func SampleFromByte(b byte) Sample {
	return Sample{Pulse: b>>7 == 1, Ticks: b & MaxTicks}
}

// Byte packs the sample back into FIFO format. Ticks above MaxTicks are
// truncated to 7 bits.
func (s Sample) Byte() byte {
	b := s.Ticks & MaxTicks
	if s.Pulse {
		b |= 0x80
	}
	return b
}

// Event is one decoded pulse (mark) or space.
type Event struct {
	Pulse    bool
	Duration time.Duration
}

func (e Event) String() string {
	if e.Pulse {
		return fmt.Sprintf("pulse %v", e.Duration)
	}
	return fmt.Sprintf("space %v", e.Duration)
}

// Frame is the ordered event sequence of one received transmission.
type Frame struct {
	Protocol Protocol
	Events   []Event
}

// Config holds the decoder's construction parameters.
type Config struct {
	// Unit is the duration of one sample clock tick.
	Unit time.Duration
	// Allowed is carried for the downstream decoders; the raw decoder
	// classifies every frame regardless.
	Allowed ProtocolSet
}

// Counts tracks decoder activity since construction.
type Counts struct {
	Frames    int
	Events    int
	Overflows int
	// Discarded is the number of already emitted events thrown away by
	// overflows.
	Discarded int
	NEC       int
	RC5       int
}
