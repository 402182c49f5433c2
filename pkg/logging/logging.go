package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"
)

// Transcript mirrors every automation step of a fanout run into a flat file.
// Selector drift on the target sites is diagnosed from these transcripts, so
// lines carry a timestamp, the caller location, and the raw step text.
type Transcript struct {
	mu     sync.Mutex
	logger *log.Logger
	file   *os.File
}

// Open appends to (or creates) the transcript file at path. A nil *Transcript
// is a valid no-op sink, so callers can hold one unconditionally.
func Open(path string) (*Transcript, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript file %s: %w", path, err)
	}

	tr := &Transcript{
		logger: log.New(file, "", 0),
		file:   file,
	}

	tr.Record("transcript opened: %s", path)
	return tr, nil
}

// Record formats and writes one transcript line with timestamp and caller.
func (tr *Transcript) Record(format string, v ...any) {
	if tr == nil {
		return
	}

	_, file, line, ok := runtime.Caller(1)
	callerInfo := ""
	if ok {
		callerInfo = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}

	msg := fmt.Sprintf(format, v...)
	timestamp := time.Now().Format("2006-01-02 15:04:05.000000")

	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.logger.Printf("%s [%s] %s", timestamp, callerInfo, msg)
}

// Step records a per-service automation step, the dominant line shape in a
// transcript.
func (tr *Transcript) Step(service, action string, v ...any) {
	if tr == nil {
		return
	}
	tr.Record("[%s] %s", service, fmt.Sprintf(action, v...))
}

// Close flushes and closes the underlying file.
func (tr *Transcript) Close() {
	if tr == nil || tr.file == nil {
		return
	}
	tr.Record("closing transcript")
	tr.file.Close()
}
