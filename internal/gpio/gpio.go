// Package gpio provides the IR sample FIFO with hardware abstraction.
// The real implementation watches an IR demodulator on a Linux GPIO
// character device and emulates the receive FIFO of a CIR block in software.
// The fake implementation allows testing without hardware.
package gpio

import "time"

// Interrupt is the result of one FIFO service episode. Samples are processed
// first, then Overflow, then FrameEnd.
type Interrupt struct {
	// Samples holds FIFO bytes: bit 7 level, bits 0-6 tick count.
	Samples []byte
	// FrameEnd is set when the line went idle after a frame.
	FrameEnd bool
	// Overflow is set when the FIFO was full and samples were dropped.
	Overflow bool
}

// Empty reports whether the episode carries nothing to process.
func (i Interrupt) Empty() bool {
	return len(i.Samples) == 0 && !i.FrameEnd && !i.Overflow
}

// Reader drains the IR sample FIFO.
type Reader interface {
	// Read returns everything received since the previous Read.
	Read() (Interrupt, error)

	// Close releases GPIO resources.
	Close() error
}

// Defaults for the software FIFO.
const (
	DefaultChip     = "gpiochip0"
	DefaultLine     = 17
	DefaultFIFOSize = 64
	DefaultIdle     = 15 * time.Millisecond
	// DefaultUnit is one tick of a 24MHz clock divided by 512.
	DefaultUnit = 21333 * time.Nanosecond
)

// Config describes the IR receiver line and its software FIFO.
type Config struct {
	Chip string
	Line int
	// ActiveLow is set for demodulators that pull the line low during a mark.
	ActiveLow bool
	Sampler   SamplerConfig
}
