package rc

import (
	"fmt"

	"github.com/sweeney/ir-receiver/internal/logic"
)

// NEC protocol references
// https://www.sbprojects.net/knowledge/ir/nec.php
// https://techdocs.altium.com/display/FPGA/NEC+Infrared+Transmission+Protocol

const (
	necUnit         = logic.NECUnit // 562.5 us
	necLeadMark     = necUnit * 16  // 9 ms
	necLeadSpace    = necUnit * 8   // 4.5 ms
	necRepeatSpace  = necUnit * 4   // 2.25 ms
	necBitMark      = necUnit       // 562.5 us
	necBit0Space    = necUnit       // 562.5 us
	necBit1Space    = necUnit * 3   // 1.687 ms
	necTrailMark    = necUnit       // 562.5 us
	necBits         = 32
	necLeadMargin   = logic.BootCodeMargin
	necHeaderMargin = necUnit
	necBitMargin    = necUnit / 2
)

// decodeNEC decodes a data or repeat frame. repeat is true for a repeat
// code, in which case the scancode is empty.
func decodeNEC(events []logic.Event) (sc Scancode, repeat bool, err error) {
	if len(events) < 3 {
		return Scancode{}, false, fmt.Errorf("%d events: %w", len(events), ErrInvalidFrame)
	}
	lead, gap := events[0], events[1]
	if !lead.Pulse || !eqMargin(lead.Duration, necLeadMark, necLeadMargin) {
		return Scancode{}, false, fmt.Errorf("leader mark %v: %w", lead.Duration, ErrInvalidFrame)
	}
	if gap.Pulse {
		return Scancode{}, false, fmt.Errorf("leader space missing: %w", ErrInvalidFrame)
	}

	if eqMargin(gap.Duration, necRepeatSpace, necBitMargin) {
		trail := events[2]
		if !trail.Pulse || !eqMargin(trail.Duration, necTrailMark, necBitMargin) {
			return Scancode{}, false, fmt.Errorf("repeat trailer %v: %w", trail.Duration, ErrInvalidFrame)
		}
		return Scancode{Protocol: logic.ProtocolNEC}, true, nil
	}
	if !eqMargin(gap.Duration, necLeadSpace, necHeaderMargin) {
		return Scancode{}, false, fmt.Errorf("leader space %v: %w", gap.Duration, ErrInvalidFrame)
	}

	// 32 mark/space bit pairs followed by the trailing mark.
	body := events[2:]
	if len(body) < 2*necBits+1 {
		return Scancode{}, false, fmt.Errorf("%d bit events: %w", len(body), ErrInvalidFrame)
	}

	var data uint32
	for i := 0; i < necBits; i++ {
		mark, space := body[2*i], body[2*i+1]
		if !mark.Pulse || !eqMargin(mark.Duration, necBitMark, necBitMargin) {
			return Scancode{}, false, fmt.Errorf("bit %d mark %v: %w", i, mark.Duration, ErrInvalidFrame)
		}
		switch {
		case space.Pulse:
			return Scancode{}, false, fmt.Errorf("bit %d space missing: %w", i, ErrInvalidFrame)
		case eqMargin(space.Duration, necBit1Space, necBitMargin):
			data |= 1 << i
		case eqMargin(space.Duration, necBit0Space, necBitMargin):
		default:
			return Scancode{}, false, fmt.Errorf("bit %d space %v: %w", i, space.Duration, ErrInvalidFrame)
		}
	}

	trail := body[2*necBits]
	if !trail.Pulse || !eqMargin(trail.Duration, necTrailMark, necBitMargin) {
		return Scancode{}, false, fmt.Errorf("trailer %v: %w", trail.Duration, ErrInvalidFrame)
	}

	valid, address, command := SplitRawNECData(data)
	if !valid {
		return Scancode{}, false, fmt.Errorf("raw 0x%08x: %w", data, ErrChecksum)
	}
	return Scancode{Protocol: logic.ProtocolNEC, Address: address, Command: command}, false, nil
}

// SplitRawNECData breaks a raw NEC code into its address and command,
// validating the command against its inverse.
func SplitRawNECData(data uint32) (valid bool, address uint16, command byte) {
	addrLow := byte(data & 0xff)
	addrHigh := byte((data & 0xff00) >> 8)
	command = byte((data & 0xff0000) >> 16)
	invCmd := byte((data & 0xff000000) >> 24)
	address = MakeNECAddress(addrLow, addrHigh)
	return command == ^invCmd, address, command
}

// MakeRawNECData assembles a raw NEC code from an address and command.
func MakeRawNECData(address uint16, command byte) uint32 {
	addrLow, addrHigh := SplitNECAddress(address)
	return (uint32(^command) << 24) | (uint32(command) << 16) | (uint32(addrHigh) << 8) | uint32(addrLow)
}

// SplitNECAddress splits an NEC address into low and high bytes. 8-bit
// addresses carry their inverse as the high byte.
func SplitNECAddress(address uint16) (addrLow, addrHigh byte) {
	addrLow = byte(address & 0xff)
	addrHigh = byte((address & 0xff00) >> 8)
	if addrHigh == 0 {
		addrHigh = ^addrLow
	}
	return addrLow, addrHigh
}

// MakeNECAddress assembles an NEC address from low and high bytes. A high
// byte equal to the inverse of the low byte denotes an 8-bit address.
func MakeNECAddress(addrLow, addrHigh byte) uint16 {
	if addrHigh == ^addrLow {
		return uint16(addrLow)
	}
	return (uint16(addrHigh) << 8) | uint16(addrLow)
}

// NECEvents renders an NEC data frame as the event sequence a receiver
// produces for it. Used to build test signals and by the replay tooling.
func NECEvents(address uint16, command byte) []logic.Event {
	data := MakeRawNECData(address, command)
	events := make([]logic.Event, 0, 3+2*necBits)
	events = append(events,
		logic.Event{Pulse: true, Duration: necLeadMark},
		logic.Event{Pulse: false, Duration: necLeadSpace},
	)
	for i := 0; i < necBits; i++ {
		space := necBit0Space
		if data&(1<<i) != 0 {
			space = necBit1Space
		}
		events = append(events,
			logic.Event{Pulse: true, Duration: necBitMark},
			logic.Event{Pulse: false, Duration: space},
		)
	}
	return append(events, logic.Event{Pulse: true, Duration: necTrailMark})
}

// NECRepeatEvents renders an NEC repeat code.
func NECRepeatEvents() []logic.Event {
	return []logic.Event{
		{Pulse: true, Duration: necLeadMark},
		{Pulse: false, Duration: necRepeatSpace},
		{Pulse: true, Duration: necTrailMark},
	}
}
