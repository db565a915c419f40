package runner

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// TraceEvent is one JSONL line in the run log (SPEC_FULL §4.Q):
// independent of the human-facing transcript, so a supervising
// process can tail progress without parsing printed text.
type TraceEvent struct {
	Timestamp  time.Time `json:"timestamp"`
	StepIndex  int       `json:"step_index"`
	Cause      string    `json:"cause"`
	Ran        bool      `json:"ran"`
	DurationMs int64     `json:"duration_ms"`
	Protocol   string    `json:"protocol"`
	Error      string    `json:"error,omitempty"`
}

// TraceWriter appends TraceEvents to a JSONL file, flushing and
// syncing at each boundary so a crash mid-run loses at most the
// in-flight line. Grounded on pkg/runtime/trace.go's TraceWriter.
type TraceWriter struct {
	file   *os.File
	writer *bufio.Writer
	enc    *json.Encoder
}

// NewTraceWriter opens (creating if needed) the trace file at path.
func NewTraceWriter(path string) (*TraceWriter, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open trace file: %w", err)
	}
	w := bufio.NewWriter(f)
	return &TraceWriter{file: f, writer: w, enc: json.NewEncoder(w)}, nil
}

// Write appends one event and fsyncs before returning.
func (tw *TraceWriter) Write(event TraceEvent) error {
	if err := tw.enc.Encode(event); err != nil {
		return fmt.Errorf("encode trace event: %w", err)
	}
	if err := tw.writer.Flush(); err != nil {
		return fmt.Errorf("flush trace: %w", err)
	}
	return tw.file.Sync()
}

// Close flushes and closes the trace file.
func (tw *TraceWriter) Close() error {
	if err := tw.writer.Flush(); err != nil {
		return err
	}
	return tw.file.Close()
}
