package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/nvandessel/pixelplant/internal/plant"
)

// ErrInvalidReading marks a reading the source could not decode or that
// failed validation. The runner skips such readings.
var ErrInvalidReading = errors.New("invalid reading")

// Source delivers sensor readings. Next blocks until a reading is available
// or ctx is done, and returns io.EOF once the source is exhausted.
type Source interface {
	Next(ctx context.Context) (plant.Reading, error)
}

type lineResult struct {
	reading plant.Reading
	err     error
}

// JSONLSource reads one JSON reading per line. Blank lines and lines
// starting with # are skipped.
type JSONLSource struct {
	r       io.Reader
	once    sync.Once
	results chan lineResult
	done    chan struct{}
	closed  sync.Once
}

// NewJSONLSource reads readings from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	return &JSONLSource{
		r:       r,
		results: make(chan lineResult),
		done:    make(chan struct{}),
	}
}

// Next returns the next reading.
func (s *JSONLSource) Next(ctx context.Context) (plant.Reading, error) {
	s.once.Do(func() { go s.scan() })

	select {
	case <-ctx.Done():
		return plant.Reading{}, ctx.Err()
	case res, ok := <-s.results:
		if !ok {
			return plant.Reading{}, io.EOF
		}
		return res.reading, res.err
	}
}

// Close stops the reader goroutine once its current read returns.
func (s *JSONLSource) Close() error {
	s.closed.Do(func() { close(s.done) })
	return nil
}

func (s *JSONLSource) scan() {
	defer close(s.results)

	sc := bufio.NewScanner(s.r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		rd, err := ParseReading(line, text)
		if !s.send(lineResult{reading: rd, err: err}) {
			return
		}
	}
	if err := sc.Err(); err != nil {
		s.send(lineResult{err: fmt.Errorf("reading input: %w", err)})
	}
}

func (s *JSONLSource) send(res lineResult) bool {
	select {
	case s.results <- res:
		return true
	case <-s.done:
		return false
	}
}

// ParseReading decodes and validates one JSONL line.
func ParseReading(line int, text string) (plant.Reading, error) {
	var rd plant.Reading
	if err := json.Unmarshal([]byte(text), &rd); err != nil {
		return plant.Reading{}, fmt.Errorf("%w: line %d: %v", ErrInvalidReading, line, err)
	}
	if err := rd.Validate(); err != nil {
		return plant.Reading{}, fmt.Errorf("%w: line %d: %v", ErrInvalidReading, line, err)
	}
	return rd, nil
}

// ChanSource delivers readings sent on a channel. Closing the channel ends
// the source.
type ChanSource <-chan plant.Reading

// Next returns the next reading from the channel.
func (c ChanSource) Next(ctx context.Context) (plant.Reading, error) {
	select {
	case <-ctx.Done():
		return plant.Reading{}, ctx.Err()
	case rd, ok := <-c:
		if !ok {
			return plant.Reading{}, io.EOF
		}
		return rd, nil
	}
}
