package events

import "testing"

type stubEvent string

func (s stubEvent) EventType() string { return string(s) }

func TestBufferTruncateDropsLaterEvents(t *testing.T) {
	buf := &Buffer{}
	buf.Emit(stubEvent("a"))
	mark := buf.Mark()
	buf.Emit(stubEvent("b"))
	buf.Emit(stubEvent("c"))
	buf.Truncate(mark)

	rec := &Recorder{}
	flushed := buf.Flush(rec)
	if len(flushed) != 1 || flushed[0].EventType() != "a" {
		t.Fatalf("unexpected flushed events: %+v", flushed)
	}
	if got := rec.OfType("a"); len(got) != 1 {
		t.Fatalf("expected recorder to receive event a, got %d", len(got))
	}
	if buf.Mark() != 0 {
		t.Fatalf("expected buffer to be empty after flush")
	}
}

func TestBufferIgnoresNilEvents(t *testing.T) {
	buf := &Buffer{}
	buf.Emit(nil)
	if buf.Mark() != 0 {
		t.Fatalf("nil event should not be buffered")
	}
	NoopEmitter{}.Emit(stubEvent("ignored"))
}
