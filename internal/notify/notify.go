// ABOUTME: Fire-and-forget notification sink for user-facing events.
// ABOUTME: Provides a printer sink, a recorder, and a non-blocking async wrapper.
package notify

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389-research/mirrorview/internal/output"
)

// Kind identifies the event.
type Kind string

const (
	KindCopied       Kind = "copied"
	KindBestMirror   Kind = "best_mirror"
	KindTestComplete Kind = "test_complete"
	KindRefreshed    Kind = "refreshed"
	KindFavorite     Kind = "favorite"
	KindError        Kind = "error"
)

// Event is a short message for the user.
type Event struct {
	Kind   Kind
	Title  string
	Detail string
	At     time.Time
}

// Sink receives events. Notify must not block for long.
type Sink interface {
	Notify(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) Notify(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// PrinterSink writes events through an output.Printer.
type PrinterSink struct {
	printer *output.Printer
}

// NewPrinterSink creates a sink that prints events.
func NewPrinterSink(p *output.Printer) *PrinterSink {
	return &PrinterSink{printer: p}
}

func (s *PrinterSink) Notify(e Event) {
	msg := e.Title
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Kind == KindError {
		s.printer.Error("%s", msg)
		return
	}
	s.printer.Success("%s", msg)
}

// Recorder keeps every event in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Async delivers events to a sink on its own goroutine. When the buffer is
// full new events are dropped so callers never block.
type Async struct {
	sink    Sink
	ch      chan Event
	done    chan struct{}
	once    sync.Once
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
}

// NewAsync starts delivering to sink.
func NewAsync(sink Sink, buffer int) *Async {
	if buffer <= 0 {
		buffer = 16
	}
	a := &Async{sink: sink, ch: make(chan Event, buffer), done: make(chan struct{})}
	go a.run()
	return a
}

func (a *Async) run() {
	defer close(a.done)
	for e := range a.ch {
		a.sink.Notify(e)
	}
}

// Notify queues e. It stamps At when unset.
func (a *Async) Notify(e Event) {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	select {
	case a.ch <- e:
	default:
		a.dropped.Add(1)
	}
}

// Dropped returns how many events were discarded.
func (a *Async) Dropped() int {
	return int(a.dropped.Load())
}

// Close stops accepting events and waits for queued ones to be delivered.
func (a *Async) Close() {
	a.once.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()
	})
	<-a.done
}
