package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/nvandessel/pixelplant/internal/plant"
)

// Sink receives every message the plant says.
type Sink interface {
	Emit(ctx context.Context, out plant.Output) error
}

// WriterSink prints messages to a writer, one per line.
type WriterSink struct {
	mu   sync.Mutex
	w    io.Writer
	json bool
}

// NewWriterSink prints human-readable lines to w, or JSON lines when
// asJSON is set.
func NewWriterSink(w io.Writer, asJSON bool) *WriterSink {
	return &WriterSink{w: w, json: asJSON}
}

// Emit writes out.
func (s *WriterSink) Emit(_ context.Context, out plant.Output) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.json {
		return json.NewEncoder(s.w).Encode(out)
	}
	_, err := fmt.Fprintln(s.w, out.String())
	return err
}

// Recorder collects outputs in memory.
type Recorder struct {
	mu   sync.Mutex
	outs []plant.Output
}

// Emit records out.
func (r *Recorder) Emit(_ context.Context, out plant.Output) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outs = append(r.outs, out)
	return nil
}

// Outputs returns a copy of everything recorded so far.
func (r *Recorder) Outputs() []plant.Output {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]plant.Output(nil), r.outs...)
}
