// Package trace provides a JSONL event stream for recording scheduler
// runs. Every trial, pass, and time-step is recorded as a structured
// JSON event, making runs auditable and replayable.
package trace

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Event kinds identify the type of trace event.
const (
	KindRunStart  = "run_start"
	KindRunDone   = "run_done"
	KindRunError  = "run_error"
	KindTrialDone = "trial_done"
	KindTimeStep  = "time_step"
	KindWarning   = "warning"
)

// Event represents a single trace record. Each event carries a timestamp,
// a kind tag, and optional scheduling coordinates (trial, pass, time step
// within the trial) along with arbitrary structured data.
type Event struct {
	Timestamp time.Time `json:"ts"`
	Kind      string    `json:"kind"`
	Network   string    `json:"network,omitempty"`
	Trial     int       `json:"trial"`
	TimeStep  int       `json:"time_step"`
	Fired     []string  `json:"fired,omitempty"`
	Data      any       `json:"data,omitempty"`
}

// Emitter writes trace events to a JSONL file. It is safe for concurrent
// use by multiple goroutines. A nil *Emitter is a valid no-op emitter.
type Emitter struct {
	file *os.File
	enc  *json.Encoder
	mu   sync.Mutex
}

// NewEmitter creates a new Emitter that writes JSONL events to the file
// at path. The file is created if it does not exist, or appended to if
// it does.
func NewEmitter(path string) (*Emitter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("trace: open %s: %w", path, err)
	}
	return &Emitter{
		file: f,
		enc:  json.NewEncoder(f),
	}, nil
}

// Emit writes a single event to the JSONL file. It is safe for concurrent
// use. Calling Emit on a nil Emitter is a no-op.
func (e *Emitter) Emit(evt Event) error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.enc.Encode(evt); err != nil {
		return fmt.Errorf("trace: encode event: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file. Calling Close on a nil
// Emitter is a no-op.
func (e *Emitter) Close() error {
	if e == nil {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.file.Close(); err != nil {
		return fmt.Errorf("trace: close: %w", err)
	}
	return nil
}
