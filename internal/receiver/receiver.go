// Package receiver ties the FIFO, the raw pulse decoder and the protocol
// decoders together. One Receiver owns one decoder; every FIFO episode is
// processed under a single lock so the decoder state is never touched from
// two goroutines at once.
package receiver

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sweeney/ir-receiver/internal/gpio"
	"github.com/sweeney/ir-receiver/internal/logic"
	"github.com/sweeney/ir-receiver/internal/rc"
)

// ErrAddressRejected is returned for scancodes from remotes not in the keymap.
var ErrAddressRejected = errors.New("address not accepted")

// EventType distinguishes a fresh key press from a held key.
type EventType string

const (
	EventKeyDown   EventType = "KEY_DOWN"
	EventKeyRepeat EventType = "KEY_REPEAT"
)

// KeyEvent is a decoded key press to be published.
type KeyEvent struct {
	Timestamp time.Time
	Scancode  rc.Scancode
	Key       rc.Key
}

// Type returns the event type.
func (e KeyEvent) Type() EventType {
	if e.Scancode.Repeat {
		return EventKeyRepeat
	}
	return EventKeyDown
}

// Counts tracks receiver activity since startup.
type Counts struct {
	Frames       int
	Keys         int
	Repeats      int
	Overflows    int
	Discarded    int
	DecodeErrors int
	Rejected     int
	NEC          int
	RC5          int
}

// Result is the outcome of one FIFO episode.
type Result struct {
	Keys []KeyEvent
	// Frame is the completed frame, if the episode ended one.
	Frame *logic.Frame
	// Err is the decode error for Frame, if any.
	Err error
	// Overflow reports that the FIFO dropped samples and the partial frame
	// was abandoned; Discarded counts the events thrown away.
	Overflow  bool
	Discarded int
}

// Config configures a Receiver.
type Config struct {
	Decoder logic.Config
	Keymap  rc.Keymap
}

// Receiver decodes FIFO episodes into key events.
type Receiver struct {
	mu      sync.Mutex
	decoder *logic.Decoder
	rc      *rc.Decoder
	keymap  rc.Keymap
	counts  Counts
	lastKey *KeyEvent
}

// New creates a Receiver.
func New(cfg Config) *Receiver {
	return &Receiver{
		decoder: logic.NewDecoder(cfg.Decoder),
		rc:      rc.NewDecoder(cfg.Decoder.Allowed),
		keymap:  cfg.Keymap,
	}
}

// Handle processes one FIFO episode: samples first, then overflow, then
// frame end. An overflow abandons the frame in progress, so a frame end in
// the same episode yields nothing.
func (r *Receiver) Handle(it gpio.Interrupt, now time.Time) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	var res Result

	for _, b := range it.Samples {
		r.decoder.Feed(b)
	}

	if it.Overflow {
		res.Overflow = true
		res.Discarded = r.decoder.Overflow()
		r.counts.Overflows++
		r.counts.Discarded += res.Discarded
	}

	if !it.FrameEnd {
		return res
	}

	frame := r.decoder.EndFrame()
	if len(frame.Events) == 0 {
		return res
	}
	r.counts.Frames++
	res.Frame = &frame

	sc, err := r.rc.Decode(frame)
	if err != nil {
		r.counts.DecodeErrors++
		res.Err = err
		return res
	}

	key, ok := r.keymap.Lookup(sc)
	if !ok {
		r.counts.Rejected++
		res.Err = fmt.Errorf("%s: %w", sc, ErrAddressRejected)
		return res
	}

	switch sc.Protocol {
	case logic.ProtocolNEC:
		r.counts.NEC++
	case logic.ProtocolRC5:
		r.counts.RC5++
	}
	if sc.Repeat {
		r.counts.Repeats++
	} else {
		r.counts.Keys++
	}

	ev := KeyEvent{Timestamp: now, Scancode: sc, Key: key}
	r.lastKey = &ev
	res.Keys = append(res.Keys, ev)
	return res
}

// Counts returns a snapshot of the activity counters.
func (r *Receiver) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts
}

// LastKey returns the most recent key event, or nil before the first.
func (r *Receiver) LastKey() *KeyEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.lastKey == nil {
		return nil
	}
	ev := *r.lastKey
	return &ev
}

// State returns the decoder's position within the current frame.
func (r *Receiver) State() logic.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.decoder.State()
}
