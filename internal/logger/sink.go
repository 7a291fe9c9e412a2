package logger

import (
	"fmt"
	"io"
	"sync"
)

// Stream identifies which pipe of a child process a line came from.
type Stream string

const (
	StreamStdout Stream = "OUT"
	StreamStderr Stream = "ERR"
)

// Sink is a shared, mutex-guarded destination for child-process output.
// Each managed service has two pipe readers writing concurrently through
// one Sink; the lock keeps whole lines intact while allowing interleaving
// across services. Order within a single stream is preserved because each
// reader is sequential.
type Sink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewSink(w io.Writer) *Sink { return &Sink{w: w} }

// Line writes one tagged output line, e.g. "[backend OUT] listening on :6868".
func (s *Sink) Line(service string, stream Stream, line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, _ = fmt.Fprintf(s.w, "[%s %s] %s\n", service, stream, line)
}
