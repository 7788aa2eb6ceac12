package mqtt

import "log"

// bufferedMsg is a serialized MQTT message held for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO of messages published while the broker
// was unreachable. When full, the oldest message is dropped.
// Not safe for concurrent use; caller must synchronize.
type ringBuffer struct {
	buf      []bufferedMsg
	capacity int
	head     int // next write position
	count    int
	dropped  int // messages lost since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{
		buf:      make([]bufferedMsg, capacity),
		capacity: capacity,
	}
}

func (r *ringBuffer) push(msg bufferedMsg) {
	if r.count == r.capacity {
		if r.dropped == 0 {
			log.Printf("mqtt: buffer full (%d messages), dropping oldest", r.capacity)
		}
		r.dropped++
		// head already points at the oldest entry
		r.buf[r.head] = msg
		r.head = (r.head + 1) % r.capacity
		return
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % r.capacity
	r.count++
}

// drainAll empties the buffer, oldest first. A retained message is skipped
// when a later retained message for the same topic follows it: the broker
// would only keep the last one anyway.
func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		return nil
	}
	if r.dropped > 0 {
		log.Printf("mqtt: %d messages dropped while disconnected", r.dropped)
	}

	all := make([]bufferedMsg, r.count)
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		all[i] = r.buf[(start+i)%r.capacity]
	}

	lastRetained := make(map[string]int)
	for i, msg := range all {
		if msg.retained {
			lastRetained[msg.topic] = i
		}
	}
	result := all[:0]
	for i, msg := range all {
		if msg.retained && lastRetained[msg.topic] != i {
			continue
		}
		result = append(result, msg)
	}

	r.count = 0
	r.head = 0
	r.dropped = 0
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
