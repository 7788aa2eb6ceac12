package gpio

import (
	"time"

	"github.com/sweeney/ir-receiver/internal/logic"
)

// SamplerConfig configures the software FIFO.
type SamplerConfig struct {
	// Unit is the duration of one sample clock tick.
	Unit time.Duration
	// Idle is how long the line must stay quiet to end a frame.
	Idle time.Duration
	// Capacity is the FIFO size in bytes.
	Capacity int
}

// Edge is a logical level change on the IR line. Time is on any monotonic
// base, as long as it is the same for every edge.
type Edge struct {
	Level bool
	Time  time.Duration
}

// Sampler converts line edges into FIFO bytes the way the CIR receive block
// does: each finished run becomes one or more bytes of the run's level, runs
// longer than 127 ticks are split into several bytes, and a quiet line raises
// frame end. The leading idle space of a frame is not sampled.
//
// Not safe for concurrent use; caller must synchronize.
type Sampler struct {
	cfg SamplerConfig

	active bool
	level  bool
	since  time.Duration

	// fifo holds the bytes of the frame in progress; ended frames wait in
	// done until drained, one per Drain.
	fifo     []byte
	overflow bool
	done     []segment
	held     int
}

// segment is a completed frame waiting to be drained.
type segment struct {
	samples  []byte
	overflow bool
}

// NewSampler creates a Sampler. Zero config fields take package defaults.
func NewSampler(cfg SamplerConfig) *Sampler {
	if cfg.Unit <= 0 {
		cfg.Unit = DefaultUnit
	}
	if cfg.Idle <= 0 {
		cfg.Idle = DefaultIdle
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultFIFOSize
	}
	return &Sampler{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Sampler) Config() SamplerConfig {
	return s.cfg
}

// Edge records a level change.
func (s *Sampler) Edge(e Edge) {
	s.checkIdle(e.Time)

	if !s.active {
		// A frame starts with a mark; a falling edge here is the tail of
		// something we missed.
		if !e.Level {
			return
		}
		s.active = true
		s.level = true
		s.since = e.Time
		return
	}

	if e.Level == s.level {
		return
	}
	s.emitRun(s.level, e.Time-s.since)
	s.level = e.Level
	s.since = e.Time
}

// Drain returns the bytes and flags gathered since the last Drain. When
// several frames ended since then, each Drain returns the next one, so a
// frame end is never merged with bytes of the following frame.
func (s *Sampler) Drain(now time.Duration) Interrupt {
	s.checkIdle(now)

	if len(s.done) > 0 {
		seg := s.done[0]
		s.done = s.done[1:]
		s.held -= len(seg.samples)
		return Interrupt{Samples: seg.samples, FrameEnd: true, Overflow: seg.overflow}
	}

	it := Interrupt{Samples: s.fifo, Overflow: s.overflow}
	s.fifo = nil
	s.overflow = false
	return it
}

// checkIdle ends the frame when the line has been quiet for the idle time.
// A mark held that long is emitted before the frame ends.
func (s *Sampler) checkIdle(now time.Duration) {
	if !s.active || now-s.since < s.cfg.Idle {
		return
	}
	if s.level {
		s.emitRun(true, now-s.since)
	}
	s.active = false
	s.level = false
	s.done = append(s.done, segment{samples: s.fifo, overflow: s.overflow})
	s.held += len(s.fifo)
	s.fifo = nil
	s.overflow = false
}

func (s *Sampler) emitRun(level bool, d time.Duration) {
	ticks := (d + s.cfg.Unit/2) / s.cfg.Unit
	for ticks > logic.MaxTicks {
		s.push(logic.Sample{Pulse: level, Ticks: logic.MaxTicks}.Byte())
		ticks -= logic.MaxTicks
	}
	// Runs shorter than half a tick are glitches, dropped as the hardware
	// input filter would.
	if ticks > 0 {
		s.push(logic.Sample{Pulse: level, Ticks: uint8(ticks)}.Byte())
	}
}

func (s *Sampler) push(b byte) {
	// Frames not yet drained still occupy the FIFO.
	if s.held+len(s.fifo) >= s.cfg.Capacity {
		s.overflow = true
		return
	}
	s.fifo = append(s.fifo, b)
}

// EdgesFromEvents renders pulse/space events as the edges that produce them,
// starting at start. The trailing space of the last event is not needed: a
// falling edge closes a final pulse.
func EdgesFromEvents(events []logic.Event, start time.Duration) []Edge {
	edges := make([]Edge, 0, len(events)+1)
	t := start
	for _, e := range events {
		edges = append(edges, Edge{Level: e.Pulse, Time: t})
		t += e.Duration
	}
	if n := len(events); n > 0 && events[n-1].Pulse {
		edges = append(edges, Edge{Level: false, Time: t})
	}
	return edges
}
