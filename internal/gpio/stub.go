//go:build !linux

package gpio

import (
	"errors"
	"fmt"
)

// ErrUnsupported is returned by every RealReader operation off Linux, where
// there is no GPIO character device to sample.
var ErrUnsupported = errors.New("gpio: IR sampling requires the Linux GPIO character device")

// RealReader is a placeholder so the daemon builds on other platforms.
type RealReader struct{}

func NewRealReader(cfg Config) (*RealReader, error) {
	return nil, fmt.Errorf("%s line %d: %w", cfg.Chip, cfg.Line, ErrUnsupported)
}

func (r *RealReader) Read() (Interrupt, error) { return Interrupt{}, ErrUnsupported }

func (r *RealReader) Level() (bool, error) { return false, ErrUnsupported }

func (r *RealReader) Close() error { return nil }
