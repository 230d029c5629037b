package mqtt

import "log"

// backlogCapacity bounds how many messages park while disconnected. At the
// default heartbeat cadence this is days of system events; beats are QoS 0
// and chatty, so the bound matters when -publish-beats is on.
const backlogCapacity = 256

// queuedMsg is a serialized message held for replay after reconnection.
type queuedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// backlog is a bounded FIFO of messages awaiting a broker connection.
// Oldest messages drop first on overflow. Not safe for concurrent use; the
// caller synchronizes.
type backlog struct {
	max     int
	msgs    []queuedMsg
	dropped bool
}

func newBacklog(max int) *backlog {
	return &backlog{max: max}
}

func (b *backlog) add(m queuedMsg) {
	if len(b.msgs) == b.max {
		if !b.dropped {
			log.Printf("mqtt: backlog full (%d messages), dropping oldest", b.max)
			b.dropped = true
		}
		b.msgs = append(b.msgs[:0], b.msgs[1:]...)
	}
	b.msgs = append(b.msgs, m)
}

func (b *backlog) drain() []queuedMsg {
	if len(b.msgs) == 0 {
		return nil
	}
	out := b.msgs
	b.msgs = nil
	b.dropped = false
	return out
}

func (b *backlog) size() int {
	return len(b.msgs)
}
