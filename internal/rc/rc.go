// Package rc decodes completed IR frames into remote-control scancodes.
// It consumes the pulse/space frames produced by internal/logic and applies
// NEC or RC5 bit decoding depending on the frame's classified protocol.
package rc

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/ir-receiver/internal/logic"
)

var (
	// ErrNotAllowed is returned for frames whose protocol is not enabled.
	ErrNotAllowed = errors.New("protocol not allowed")
	// ErrEmptyFrame is returned for frames without events.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrInvalidFrame is returned when event timings do not fit the protocol.
	ErrInvalidFrame = errors.New("invalid frame")
	// ErrChecksum is returned when an NEC command fails its inverse check.
	ErrChecksum = errors.New("command checksum mismatch")
	// ErrNoRepeatTarget is returned for an NEC repeat with no previous key.
	ErrNoRepeatTarget = errors.New("repeat without previous key")
)

// Scancode is one decoded remote-control key code.
type Scancode struct {
	Protocol logic.Protocol
	Address  uint16
	Command  uint8
	// Toggle is the RC5 toggle bit; always false for NEC.
	Toggle bool
	// Repeat is set for NEC repeat codes and for RC5 frames that repeat the
	// previous frame with the same toggle bit (button held).
	Repeat bool
}

// Value packs the scancode the way rc-core keymaps index it:
// address in the upper bits, command in the low byte.
func (s Scancode) Value() uint32 {
	return uint32(s.Address)<<8 | uint32(s.Command)
}

func (s Scancode) String() string {
	return fmt.Sprintf("%s addr=0x%04x cmd=0x%02x", s.Protocol, s.Address, s.Command)
}

// Decoder decodes frames into scancodes. It remembers the previous scancode
// of each protocol to resolve repeats, so it is not safe for concurrent use.
type Decoder struct {
	allowed logic.ProtocolSet
	lastNEC *Scancode
	lastRC5 *Scancode
}

// NewDecoder creates a Decoder accepting the given protocols.
func NewDecoder(allowed logic.ProtocolSet) *Decoder {
	return &Decoder{allowed: allowed}
}

// Decode decodes one frame.
func (d *Decoder) Decode(frame logic.Frame) (Scancode, error) {
	if len(frame.Events) == 0 {
		return Scancode{}, ErrEmptyFrame
	}
	if !d.allowed.Has(frame.Protocol) {
		return Scancode{}, fmt.Errorf("%s frame: %w", frame.Protocol, ErrNotAllowed)
	}

	switch frame.Protocol {
	case logic.ProtocolNEC:
		sc, repeat, err := decodeNEC(frame.Events)
		if err != nil {
			return Scancode{}, fmt.Errorf("nec: %w", err)
		}
		if repeat {
			if d.lastNEC == nil {
				return Scancode{}, fmt.Errorf("nec: %w", ErrNoRepeatTarget)
			}
			sc = *d.lastNEC
			sc.Repeat = true
			return sc, nil
		}
		d.lastNEC = &sc
		return sc, nil

	case logic.ProtocolRC5:
		sc, err := decodeRC5(frame.Events)
		if err != nil {
			return Scancode{}, fmt.Errorf("rc5: %w", err)
		}
		if last := d.lastRC5; last != nil && last.Address == sc.Address &&
			last.Command == sc.Command && last.Toggle == sc.Toggle {
			sc.Repeat = true
		}
		stored := sc
		stored.Repeat = false
		d.lastRC5 = &stored
		return sc, nil
	}

	return Scancode{}, fmt.Errorf("%s frame: %w", frame.Protocol, ErrNotAllowed)
}

// Reset forgets the previous scancodes, so the next repeat has no target.
func (d *Decoder) Reset() {
	d.lastNEC = nil
	d.lastRC5 = nil
}

func eqMargin(d, target, margin time.Duration) bool {
	diff := d - target
	if diff < 0 {
		diff = -diff
	}
	return diff <= margin
}
