package safety

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// ErrNilWriter is returned by AuditLogger.Log when the logger was constructed
// with a nil writer.
var ErrNilWriter = errors.New("audit logger: writer is nil")

// AuditEntry captures a single telemetry tool invocation for the audit log.
type AuditEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Tool      string         `json:"tool"`
	Project   string         `json:"project,omitempty"`
	Params    map[string]any `json:"params"`
	Outcome   string         `json:"outcome"`
	Duration  time.Duration  `json:"duration_ns"`
}

// AuditLogger writes AuditEntry records as newline-delimited JSON to an
// io.Writer. It is safe for concurrent use.
type AuditLogger struct {
	mu sync.Mutex
	w  io.Writer
}

// NewAuditLogger returns an AuditLogger that writes to w. If w is nil the
// returned logger is also nil; callers must check for nil before use.
func NewAuditLogger(w io.Writer) *AuditLogger {
	if w == nil {
		return nil
	}
	return &AuditLogger{w: w}
}

// OpenAuditLog opens (or creates) the append-only audit file at path and
// returns a logger writing to it together with the file to close.
func OpenAuditLog(path string) (*AuditLogger, io.Closer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open audit log %q: %w", path, err)
	}
	return NewAuditLogger(f), f, nil
}

// Log serialises entry as a single JSON line and writes it to the underlying
// writer. Log is safe for concurrent use.
func (l *AuditLogger) Log(entry AuditEntry) error {
	if l == nil || l.w == nil {
		return ErrNilWriter
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	data = append(data, '\n')

	l.mu.Lock()
	_, err = l.w.Write(data)
	l.mu.Unlock()

	return err
}
