package rc

import (
	"fmt"

	"github.com/sweeney/ir-receiver/internal/logic"
)

// RC5 is Manchester coded: each bit is two half-bits of one unit, a one is
// space then mark, a zero is mark then space. A frame is 14 bits: two start
// bits, the toggle bit, 5 address bits and 6 command bits, MSB first.
// A second start bit of zero marks RC5X, where it carries command bit 6.

const (
	rc5Unit     = logic.RC5Unit // 889 us
	rc5Margin   = rc5Unit / 2
	rc5Bits     = 14
	rc5HalfBits = 2 * rc5Bits
)

func decodeRC5(events []logic.Event) (Scancode, error) {
	if !events[0].Pulse {
		return Scancode{}, fmt.Errorf("frame starts with space: %w", ErrInvalidFrame)
	}

	// The first half-bit (space of start bit S1) is indistinguishable from
	// the idle line.
	half := make([]bool, 1, rc5HalfBits)
	for i, e := range events {
		n, ok := rc5Units(e)
		if !ok {
			return Scancode{}, fmt.Errorf("event %d (%v): %w", i, e, ErrInvalidFrame)
		}
		for j := 0; j < n; j++ {
			half = append(half, e.Pulse)
		}
		if len(half) > rc5HalfBits {
			return Scancode{}, fmt.Errorf("more than %d half-bits: %w", rc5HalfBits, ErrInvalidFrame)
		}
	}
	// A trailing zero bit ends in a space that merges into the idle line.
	if len(half) == rc5HalfBits-1 && half[len(half)-1] {
		half = append(half, false)
	}
	if len(half) != rc5HalfBits {
		return Scancode{}, fmt.Errorf("%d half-bits: %w", len(half), ErrInvalidFrame)
	}

	var bits uint16
	for i := 0; i < rc5Bits; i++ {
		first, second := half[2*i], half[2*i+1]
		if first == second {
			return Scancode{}, fmt.Errorf("bit %d has no mid-bit transition: %w", i, ErrInvalidFrame)
		}
		bits <<= 1
		if second {
			bits |= 1
		}
	}

	if bits>>13&1 != 1 {
		return Scancode{}, fmt.Errorf("start bit: %w", ErrInvalidFrame)
	}
	command := uint8(bits & 0x3f)
	if bits>>12&1 == 0 {
		command |= 0x40
	}
	return Scancode{
		Protocol: logic.ProtocolRC5,
		Address:  bits >> 6 & 0x1f,
		Command:  command,
		Toggle:   bits>>11&1 == 1,
	}, nil
}

// rc5Units quantizes an event to a whole number of half-bits.
func rc5Units(e logic.Event) (int, bool) {
	switch {
	case eqMargin(e.Duration, rc5Unit, rc5Margin):
		return 1, true
	case eqMargin(e.Duration, 2*rc5Unit, rc5Margin):
		return 2, true
	}
	return 0, false
}

// RC5Events renders an RC5 frame as the runs seen on the line: adjacent
// half-bits of the same level are merged, and the leading and trailing
// spaces are dropped. Commands above 0x3f are sent as RC5X.
func RC5Events(address uint8, command uint8, toggle bool) []logic.Event {
	bits := uint16(1) << 13
	if command&0x40 == 0 {
		bits |= 1 << 12
	}
	if toggle {
		bits |= 1 << 11
	}
	bits |= uint16(address&0x1f) << 6
	bits |= uint16(command & 0x3f)

	var half []bool
	for i := rc5Bits - 1; i >= 0; i-- {
		one := bits>>i&1 == 1
		half = append(half, !one, one)
	}

	var events []logic.Event
	for i := 1; i < len(half); i++ {
		if n := len(events); n > 0 && events[n-1].Pulse == half[i] {
			events[n-1].Duration += rc5Unit
			continue
		}
		events = append(events, logic.Event{Pulse: half[i], Duration: rc5Unit})
	}
	if !events[len(events)-1].Pulse {
		events = events[:len(events)-1]
	}
	return events
}
