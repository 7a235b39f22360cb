package events

import "sync"

// Buffer collects events emitted during a call so they can be delivered only
// once the call commits. Dropped buffers never reach subscribers.
type Buffer struct {
	mu      sync.Mutex
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.Lock()
	b.pending = append(b.pending, evt)
	b.mu.Unlock()
}

// Mark returns the current buffer length for use with Truncate.
func (b *Buffer) Mark() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Truncate discards every event buffered after mark.
func (b *Buffer) Truncate(mark int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if mark < 0 {
		mark = 0
	}
	if mark < len(b.pending) {
		for i := mark; i < len(b.pending); i++ {
			b.pending[i] = nil
		}
		b.pending = b.pending[:mark]
	}
}

// Drain returns the buffered events and empties the buffer.
func (b *Buffer) Drain() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.pending
	b.pending = nil
	return out
}

// Flush forwards all buffered events to the supplied emitter in order.
func (b *Buffer) Flush(to Emitter) []Event {
	drained := b.Drain()
	if to == nil {
		return drained
	}
	for _, evt := range drained {
		to.Emit(evt)
	}
	return drained
}

// Recorder is an emitter that retains every event. Useful for tests and for
// subscribers that poll.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit implements the Emitter interface.
func (r *Recorder) Emit(evt Event) {
	if r == nil || evt == nil {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, evt)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// OfType filters the recorded events by type.
func (r *Recorder) OfType(eventType string) []Event {
	var out []Event
	for _, evt := range r.Events() {
		if evt.EventType() == eventType {
			out = append(out, evt)
		}
	}
	return out
}
