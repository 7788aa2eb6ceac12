package gpio

import (
	"bytes"
	"testing"
	"time"

	"github.com/sweeney/ir-receiver/internal/logic"
)

const testUnit = 10 * time.Microsecond

func newTestSampler(capacity int) *Sampler {
	return NewSampler(SamplerConfig{Unit: testUnit, Idle: 5 * time.Millisecond, Capacity: capacity})
}

func TestNewSamplerDefaults(t *testing.T) {
	s := NewSampler(SamplerConfig{})
	cfg := s.Config()
	if cfg.Unit != DefaultUnit {
		t.Errorf("Unit: got %v, want %v", cfg.Unit, DefaultUnit)
	}
	if cfg.Idle != DefaultIdle {
		t.Errorf("Idle: got %v, want %v", cfg.Idle, DefaultIdle)
	}
	if cfg.Capacity != DefaultFIFOSize {
		t.Errorf("Capacity: got %d, want %d", cfg.Capacity, DefaultFIFOSize)
	}
}

func TestSamplerRuns(t *testing.T) {
	s := newTestSampler(64)
	start := time.Second

	s.Edge(Edge{Level: true, Time: start})
	s.Edge(Edge{Level: false, Time: start + 300*time.Microsecond})
	s.Edge(Edge{Level: true, Time: start + 500*time.Microsecond})
	s.Edge(Edge{Level: false, Time: start + 600*time.Microsecond})

	it := s.Drain(start + time.Millisecond)
	want := []byte{0x80 | 30, 20, 0x80 | 10}
	if !bytes.Equal(it.Samples, want) {
		t.Errorf("samples: got % x, want % x", it.Samples, want)
	}
	if it.FrameEnd {
		t.Error("frame should not have ended yet")
	}

	it = s.Drain(start + 600*time.Microsecond + 5*time.Millisecond)
	if len(it.Samples) != 0 {
		t.Errorf("expected no samples, got % x", it.Samples)
	}
	if !it.FrameEnd {
		t.Error("expected frame end after idle")
	}

	// Flags are cleared by Drain.
	it = s.Drain(start + time.Hour)
	if !it.Empty() {
		t.Errorf("expected empty episode, got %+v", it)
	}
}

func TestSamplerRounding(t *testing.T) {
	s := newTestSampler(64)

	s.Edge(Edge{Level: true, Time: 0})
	s.Edge(Edge{Level: false, Time: 104 * time.Microsecond}) // 10.4 ticks
	s.Edge(Edge{Level: true, Time: 159 * time.Microsecond})  // 5.5 ticks
	s.Edge(Edge{Level: false, Time: 161 * time.Microsecond}) // glitch

	it := s.Drain(162 * time.Microsecond)
	want := []byte{0x80 | 10, 6}
	if !bytes.Equal(it.Samples, want) {
		t.Errorf("samples: got % x, want % x", it.Samples, want)
	}
}

func TestSamplerSplitsLongRuns(t *testing.T) {
	s := newTestSampler(64)

	// 300 ticks of mark: 127 + 127 + 46
	s.Edge(Edge{Level: true, Time: 0})
	s.Edge(Edge{Level: false, Time: 3 * time.Millisecond})

	it := s.Drain(3 * time.Millisecond)
	want := []byte{0xff, 0xff, 0x80 | 46}
	if !bytes.Equal(it.Samples, want) {
		t.Errorf("samples: got % x, want % x", it.Samples, want)
	}

	d := logic.NewDecoder(logic.Config{Unit: testUnit})
	for _, b := range it.Samples {
		d.Feed(b)
	}
	frame := d.EndFrame()
	if len(frame.Events) != 1 || frame.Events[0].Duration != 3*time.Millisecond {
		t.Errorf("expected one coalesced 3ms pulse, got %v", frame.Events)
	}
}

func TestSamplerIgnoresLeadingFallingEdge(t *testing.T) {
	s := newTestSampler(64)

	s.Edge(Edge{Level: false, Time: 0})
	s.Edge(Edge{Level: true, Time: 100 * time.Microsecond})
	s.Edge(Edge{Level: false, Time: 200 * time.Microsecond})

	it := s.Drain(200 * time.Microsecond)
	want := []byte{0x80 | 10}
	if !bytes.Equal(it.Samples, want) {
		t.Errorf("samples: got % x, want % x", it.Samples, want)
	}
}

func TestSamplerIgnoresRepeatedLevel(t *testing.T) {
	s := newTestSampler(64)

	s.Edge(Edge{Level: true, Time: 0})
	s.Edge(Edge{Level: true, Time: 50 * time.Microsecond})
	s.Edge(Edge{Level: false, Time: 100 * time.Microsecond})

	it := s.Drain(100 * time.Microsecond)
	want := []byte{0x80 | 10}
	if !bytes.Equal(it.Samples, want) {
		t.Errorf("samples: got % x, want % x", it.Samples, want)
	}
}

func TestSamplerHeldMarkEndsFrame(t *testing.T) {
	s := newTestSampler(64)

	s.Edge(Edge{Level: true, Time: 0})
	it := s.Drain(6 * time.Millisecond)

	if !it.FrameEnd {
		t.Error("expected frame end for held mark")
	}
	var ticks int
	for _, b := range it.Samples {
		smp := logic.SampleFromByte(b)
		if !smp.Pulse {
			t.Errorf("expected only mark samples, got % x", it.Samples)
		}
		ticks += int(smp.Ticks)
	}
	if ticks != 600 {
		t.Errorf("expected 600 ticks, got %d", ticks)
	}
}

func TestSamplerOverflow(t *testing.T) {
	s := newTestSampler(2)

	s.Edge(Edge{Level: true, Time: 0})
	s.Edge(Edge{Level: false, Time: 100 * time.Microsecond})
	s.Edge(Edge{Level: true, Time: 200 * time.Microsecond})
	s.Edge(Edge{Level: false, Time: 300 * time.Microsecond})

	it := s.Drain(300 * time.Microsecond)
	if len(it.Samples) != 2 {
		t.Errorf("expected FIFO to hold 2 samples, got %d", len(it.Samples))
	}
	if !it.Overflow {
		t.Error("expected overflow")
	}

	it = s.Drain(300 * time.Microsecond)
	if it.Overflow {
		t.Error("overflow should be cleared after drain")
	}
}

func TestSamplerNextFrameHeldBack(t *testing.T) {
	s := newTestSampler(64)

	// Frame 1
	s.Edge(Edge{Level: true, Time: 0})
	s.Edge(Edge{Level: false, Time: 100 * time.Microsecond})
	// Frame 2 begins after the idle time, before anyone drained.
	s.Edge(Edge{Level: true, Time: 10 * time.Millisecond})
	s.Edge(Edge{Level: false, Time: 10*time.Millisecond + 200*time.Microsecond})

	it := s.Drain(10*time.Millisecond + 200*time.Microsecond)
	if !bytes.Equal(it.Samples, []byte{0x80 | 10}) {
		t.Errorf("first episode: got % x", it.Samples)
	}
	if !it.FrameEnd {
		t.Error("first episode should end frame 1")
	}

	it = s.Drain(10*time.Millisecond + 300*time.Microsecond)
	if !bytes.Equal(it.Samples, []byte{0x80 | 20}) {
		t.Errorf("second episode: got % x", it.Samples)
	}
	if it.FrameEnd {
		t.Error("frame 2 has not ended")
	}
}

func TestEdgesFromEvents(t *testing.T) {
	events := []logic.Event{
		{Pulse: true, Duration: 9 * time.Millisecond},
		{Pulse: false, Duration: 4500 * time.Microsecond},
		{Pulse: true, Duration: 560 * time.Microsecond},
	}
	edges := EdgesFromEvents(events, time.Second)

	want := []Edge{
		{Level: true, Time: time.Second},
		{Level: false, Time: time.Second + 9*time.Millisecond},
		{Level: true, Time: time.Second + 13500*time.Microsecond},
		{Level: false, Time: time.Second + 14060*time.Microsecond},
	}
	if len(edges) != len(want) {
		t.Fatalf("expected %d edges, got %d", len(want), len(edges))
	}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("edge %d: got %+v, want %+v", i, edges[i], want[i])
		}
	}
}

func TestSamplerQueuesEndedFrames(t *testing.T) {
	s := newTestSampler(64)

	// Two complete frames before anyone drains.
	s.Edge(Edge{Level: true, Time: 0})
	s.Edge(Edge{Level: false, Time: 100 * time.Microsecond})
	s.Edge(Edge{Level: true, Time: 10 * time.Millisecond})
	s.Edge(Edge{Level: false, Time: 10*time.Millisecond + 200*time.Microsecond})

	now := 20 * time.Millisecond
	first := s.Drain(now)
	second := s.Drain(now)
	third := s.Drain(now)

	if !bytes.Equal(first.Samples, []byte{0x80 | 10}) || !first.FrameEnd {
		t.Errorf("first episode: %+v", first)
	}
	if !bytes.Equal(second.Samples, []byte{0x80 | 20}) || !second.FrameEnd {
		t.Errorf("second episode: %+v", second)
	}
	if !third.Empty() {
		t.Errorf("third episode should be empty, got %+v", third)
	}
}

func TestSamplerOverflowStaysWithItsFrame(t *testing.T) {
	s := newTestSampler(2)

	// Frame 1 fits.
	s.Edge(Edge{Level: true, Time: 0})
	s.Edge(Edge{Level: false, Time: 100 * time.Microsecond})
	// Frame 2 overflows: frame 1 still holds one byte.
	s.Edge(Edge{Level: true, Time: 10 * time.Millisecond})
	s.Edge(Edge{Level: false, Time: 10*time.Millisecond + 100*time.Microsecond})
	s.Edge(Edge{Level: true, Time: 10*time.Millisecond + 200*time.Microsecond})
	s.Edge(Edge{Level: false, Time: 10*time.Millisecond + 300*time.Microsecond})

	first := s.Drain(11 * time.Millisecond)
	if first.Overflow || !first.FrameEnd {
		t.Errorf("frame 1 should end cleanly, got %+v", first)
	}

	second := s.Drain(11 * time.Millisecond)
	if !second.Overflow {
		t.Errorf("frame 2 should report overflow, got %+v", second)
	}
}
