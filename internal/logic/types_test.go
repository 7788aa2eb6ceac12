package logic

import "testing"

func TestSampleFromByte(t *testing.T) {
	tests := []struct {
		b     byte
		pulse bool
		ticks uint8
	}{
		{0x00, false, 0},
		{0x7f, false, 127},
		{0x80, true, 0},
		{0x90, true, 16},
		{0xff, true, 127},
	}

	for _, tt := range tests {
		s := SampleFromByte(tt.b)
		if s.Pulse != tt.pulse || s.Ticks != tt.ticks {
			t.Errorf("0x%02x: got (%v, %d), want (%v, %d)", tt.b, s.Pulse, s.Ticks, tt.pulse, tt.ticks)
		}
		if s.Byte() != tt.b {
			t.Errorf("0x%02x: Byte() = 0x%02x", tt.b, s.Byte())
		}
	}
}

func TestProtocolSetFromSelector(t *testing.T) {
	tests := []struct {
		sel  int
		want ProtocolSet
	}{
		{SelectNEC, AllowNEC},
		{SelectRC5, AllowRC5},
		{SelectRC5AndNEC, AllowNEC | AllowRC5},
	}

	for _, tt := range tests {
		got, err := ProtocolSetFromSelector(tt.sel)
		if err != nil {
			t.Fatalf("selector %d: unexpected error: %v", tt.sel, err)
		}
		if got != tt.want {
			t.Errorf("selector %d: got %s, want %s", tt.sel, got, tt.want)
		}
	}

	if _, err := ProtocolSetFromSelector(3); err == nil {
		t.Error("expected error for selector 3")
	}
}

func TestProtocolSetHas(t *testing.T) {
	both := AllowNEC | AllowRC5
	if !both.Has(ProtocolNEC) || !both.Has(ProtocolRC5) {
		t.Error("combined set should contain NEC and RC5")
	}
	if AllowNEC.Has(ProtocolRC5) {
		t.Error("NEC set should not contain RC5")
	}
	if both.Has(ProtocolUnknown) {
		t.Error("no set contains UNKNOWN")
	}
	if both.String() != "RC5+NEC" {
		t.Errorf("String: got %q", both.String())
	}
}
