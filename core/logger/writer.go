package logger

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"sync"
)

// Sink is a log destination with its own minimum level.
type Sink struct {
	Writer io.Writer
	Level  slog.Leveler
}

type leveledSink struct {
	buf   *bufio.Writer
	level slog.Leveler
}

func (s leveledSink) accepts(level slog.Level) bool {
	if s.level == nil {
		return true
	}
	return level >= s.level.Level()
}

type entry struct {
	level slog.Level
	data  []byte
}

// asyncWriter provides buffered asynchronous writes to one or more leveled sinks.
type asyncWriter struct {
	queue    chan entry
	flushReq chan chan error
	done     chan struct{}
	once     sync.Once
	sinks    []leveledSink
	sinkMu   sync.Mutex
	writeErr error
}

func newAsyncWriter(sinks []Sink, bufSize int) *asyncWriter {
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	out := make([]leveledSink, 0, len(sinks))
	for _, s := range sinks {
		if s.Writer == nil {
			continue
		}
		out = append(out, leveledSink{buf: bufio.NewWriterSize(s.Writer, bufSize), level: s.Level})
	}
	aw := &asyncWriter{
		queue:    make(chan entry, 256),
		flushReq: make(chan chan error),
		done:     make(chan struct{}),
		sinks:    out,
	}
	go aw.loop()
	return aw
}

// minLevel reports the lowest level accepted by any sink.
func (w *asyncWriter) minLevel() slog.Level {
	min := slog.LevelError + 4
	for _, s := range w.sinks {
		if s.level == nil {
			return slog.LevelDebug - 4
		}
		if l := s.level.Level(); l < min {
			min = l
		}
	}
	return min
}

func (w *asyncWriter) loop() {
	for {
		select {
		case e, ok := <-w.queue:
			if !ok {
				w.flushAll()
				close(w.done)
				return
			}
			if len(e.data) == 0 {
				continue
			}
			if err := w.writeAll(e); err != nil {
				w.setErr(err)
			}
		case ack := <-w.flushReq:
			ack <- w.flushAll()
		}
	}
}

// Write enqueues the payload for asynchronous fan-out to every sink accepting level.
func (w *asyncWriter) Write(level slog.Level, p []byte) error {
	if err := w.getErr(); err != nil {
		return err
	}
	if len(p) == 0 {
		return nil
	}
	data := make([]byte, len(p))
	copy(data, p)
	e := entry{level: level, data: data}
	select {
	case w.queue <- e:
		return nil
	default:
		// queue full; fall back to blocking write to preserve logs
		w.queue <- e
		return nil
	}
}

// Flush waits for the writer to flush all buffered content to sinks.
func (w *asyncWriter) Flush() error {
	if err := w.getErr(); err != nil {
		return err
	}
	ack := make(chan error, 1)
	w.flushReq <- ack
	return <-ack
}

// Close drains the queue and reports the first encountered write error.
func (w *asyncWriter) Close() error {
	w.once.Do(func() {
		close(w.queue)
	})
	<-w.done
	return w.getErr()
}

func (w *asyncWriter) writeAll(e entry) error {
	w.sinkMu.Lock()
	defer w.sinkMu.Unlock()
	for _, sink := range w.sinks {
		if !sink.accepts(e.level) {
			continue
		}
		if _, err := sink.buf.Write(e.data); err != nil {
			return err
		}
		if err := sink.buf.Flush(); err != nil {
			return err
		}
	}
	return nil
}

func (w *asyncWriter) flushAll() error {
	w.sinkMu.Lock()
	defer w.sinkMu.Unlock()
	var errs []error
	for _, sink := range w.sinks {
		if err := sink.buf.Flush(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (w *asyncWriter) getErr() error {
	w.sinkMu.Lock()
	defer w.sinkMu.Unlock()
	return w.writeErr
}

func (w *asyncWriter) setErr(err error) {
	if err == nil {
		return
	}
	w.sinkMu.Lock()
	defer w.sinkMu.Unlock()
	if w.writeErr == nil {
		w.writeErr = err
	}
}
