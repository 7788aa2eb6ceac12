package rc

import (
	"fmt"
	"strconv"
	"strings"
)

// KeyPower is the key name reported for configured power key codes.
const KeyPower = "KEY_POWER"

// Key is a scancode resolved through a Keymap.
type Key struct {
	Name  string
	Power bool
}

// Keymap filters scancodes by remote address and names keys.
type Keymap struct {
	// Addresses lists accepted remote addresses. Empty accepts all.
	Addresses []uint16
	// PowerKeys lists command codes that act as the power key.
	PowerKeys []uint8
	// Names maps Scancode.Value() to a key name.
	Names map[uint32]string
}

// Lookup resolves a scancode. ok is false when the address is not accepted.
func (k Keymap) Lookup(sc Scancode) (key Key, ok bool) {
	if !k.accepts(sc.Address) {
		return Key{}, false
	}
	for _, p := range k.PowerKeys {
		if p == sc.Command {
			key.Power = true
			break
		}
	}
	switch name, named := k.Names[sc.Value()]; {
	case named:
		key.Name = name
	case key.Power:
		key.Name = KeyPower
	default:
		key.Name = fmt.Sprintf("KEY_0x%02X", sc.Command)
	}
	return key, true
}

func (k Keymap) accepts(address uint16) bool {
	if len(k.Addresses) == 0 {
		return true
	}
	for _, a := range k.Addresses {
		if a == address {
			return true
		}
	}
	return false
}

// ParseAddresses parses a comma-separated list of address codes, in any
// base strconv accepts (e.g. "0x04,0x7f00").
func ParseAddresses(s string) ([]uint16, error) {
	var out []uint16
	for _, f := range splitList(s) {
		v, err := strconv.ParseUint(f, 0, 16)
		if err != nil {
			return nil, fmt.Errorf("address code %q: %w", f, err)
		}
		out = append(out, uint16(v))
	}
	return out, nil
}

// ParseCommands parses a comma-separated list of 8-bit command codes.
func ParseCommands(s string) ([]uint8, error) {
	var out []uint8
	for _, f := range splitList(s) {
		v, err := strconv.ParseUint(f, 0, 8)
		if err != nil {
			return nil, fmt.Errorf("command code %q: %w", f, err)
		}
		out = append(out, uint8(v))
	}
	return out, nil
}

func splitList(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
