//go:build linux

package gpio

import (
	"fmt"
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"golang.org/x/sys/unix"
)

// RealReader samples an IR demodulator on a Linux GPIO character device.
// Edge events arrive on gpiocdev's event goroutine and are fed into the
// software FIFO; Read drains it from the caller's goroutine.
type RealReader struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line

	mu      sync.Mutex
	sampler *Sampler
}

// NewRealReader requests the IR line with edge detection on both edges.
func NewRealReader(cfg Config) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(cfg.Chip, gpiocdev.WithConsumer("ir-receiver"))
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", cfg.Chip, err)
	}

	r := &RealReader{
		chip:    chip,
		sampler: NewSampler(cfg.Sampler),
	}

	// Demodulator outputs are open-collector; pull-up keeps the idle line
	// high.
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(r.handleEvent),
	}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}

	line, err := chip.RequestLine(cfg.Line, opts...)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request IR line %d: %w", cfg.Line, err)
	}
	r.line = line

	return r, nil
}

// handleEvent runs on gpiocdev's event goroutine. Rising edges are logical:
// with ActiveLow set, the start of a mark is reported as rising.
func (r *RealReader) handleEvent(evt gpiocdev.LineEvent) {
	r.mu.Lock()
	r.sampler.Edge(Edge{
		Level: evt.Type == gpiocdev.LineEventRisingEdge,
		Time:  evt.Timestamp,
	})
	r.mu.Unlock()
}

// Read drains the software FIFO.
func (r *RealReader) Read() (Interrupt, error) {
	now, err := monotonicNow()
	if err != nil {
		return Interrupt{}, fmt.Errorf("read clock: %w", err)
	}

	r.mu.Lock()
	it := r.sampler.Drain(now)
	r.mu.Unlock()
	return it, nil
}

// Level returns the current logical level of the IR line.
func (r *RealReader) Level() (bool, error) {
	v, err := r.line.Value()
	if err != nil {
		return false, fmt.Errorf("read IR line: %w", err)
	}
	return v == 1, nil
}

// Close releases GPIO resources.
// Reconfigures the line to a plain input before closing so it is left
// without edge detection for whoever claims it next.
func (r *RealReader) Close() error {
	var errs []error

	if r.line != nil {
		if err := r.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure IR line: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close IR line: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// monotonicNow reads CLOCK_MONOTONIC, the clock gpiocdev timestamps edge
// events with by default.
func monotonicNow() (time.Duration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0, err
	}
	return time.Duration(ts.Nano()), nil
}
