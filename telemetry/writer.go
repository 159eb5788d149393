package telemetry

import (
	"log/slog"
	"sync"
)

// AsyncWriter feeds records to a Sink from its own goroutine. Records are
// written in the order they were sent. Write failures are logged and the
// writer keeps draining.
//
// A nil *AsyncWriter accepts and drops every record, so disabled outputs need
// no checks at call sites.
type AsyncWriter[T any] struct {
	name string
	ch   chan T
	sink Sink[T]
	done chan struct{}
	once sync.Once
}

// NewAsyncWriter starts a writer goroutine with a queue of queueSize records.
func NewAsyncWriter[T any](name string, sink Sink[T], queueSize int) *AsyncWriter[T] {
	w := &AsyncWriter[T]{
		name: name,
		ch:   make(chan T, max(queueSize, 1)),
		sink: sink,
		done: make(chan struct{}),
	}
	go w.run()
	return w
}

func (w *AsyncWriter[T]) run() {
	defer close(w.done)

	for rec := range w.ch {
		if err := w.sink.Write(rec); err != nil {
			slog.Error("write failed", "writer", w.name, "error", err)
		}
	}
	if err := w.sink.Close(); err != nil {
		slog.Error("closing sink failed", "writer", w.name, "error", err)
	}
}

// Send queues rec, blocking while the queue is full.
func (w *AsyncWriter[T]) Send(rec T) {
	if w == nil {
		return
	}
	w.ch <- rec
}

// Close stops accepting records, waits for the queue to drain and closes the
// sink. Calling Close more than once is safe.
func (w *AsyncWriter[T]) Close() {
	if w == nil {
		return
	}
	w.once.Do(func() { close(w.ch) })
	<-w.done
}
