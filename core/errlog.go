package core

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrLogName is the file parse errors are appended to, inside the shard
// directory of the language being ingested.
const ErrLogName = "_err.log"

// ErrorLog is a shared append-only log for per-line parse failures. All
// workers write through one instance; the mutex keeps entries whole.
type ErrorLog struct {
	mu sync.Mutex
	f  *os.File
}

// OpenErrorLog opens (or creates) the error log inside dir.
func OpenErrorLog(dir string) (*ErrorLog, error) {
	f, err := os.OpenFile(filepath.Join(dir, ErrLogName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &ErrorLog{f: f}, nil
}

// Record appends one offending raw line together with its error.
func (l *ErrorLog) Record(line string, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = l.f.WriteString(strings.TrimRight(line, "\n") + " || Error: " + err.Error() + "\n")
}

// Close releases the underlying file.
func (l *ErrorLog) Close() error {
	return l.f.Close()
}
