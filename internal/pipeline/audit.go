package pipeline

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// AuditLog is the append-only CSV record of every rejected row. A run
// that cannot write its audit trail is incomplete, so every failure here
// is fatal to the run.
type AuditLog struct {
	path string
	file *os.File
	w    *csv.Writer
}

func NewAuditLog(path string) *AuditLog {
	return &AuditLog{path: path}
}

// Path returns the audit destination.
func (l *AuditLog) Path() string {
	return l.path
}

// Reset truncates the audit destination to a header-only file. Called at
// the start of every load run so re-runs produce a fresh log rather than
// an accumulation.
func (l *AuditLog) Reset() error {
	if l.file != nil {
		l.file.Close()
	}

	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("failed to open audit log %s: %w", l.path, err)
	}
	l.file = f
	l.w = csv.NewWriter(f)

	if err := l.w.Write([]string{"trip_id", "reason", "value"}); err != nil {
		return fmt.Errorf("failed to write audit header: %w", err)
	}
	l.w.Flush()
	return l.w.Error()
}

// Append durably records one batch of rejections. The writer is flushed
// per batch so the batch is not considered complete until its rejections
// are on disk.
func (l *AuditLog) Append(rejections []Rejection) error {
	if l.w == nil {
		return fmt.Errorf("audit log %s not reset before append", l.path)
	}

	for _, rej := range rejections {
		row := []string{strconv.FormatInt(rej.TripID, 10), string(rej.Reason), rej.Value}
		if err := l.w.Write(row); err != nil {
			return fmt.Errorf("failed to write audit entry for trip %d: %w", rej.TripID, err)
		}
	}

	l.w.Flush()
	if err := l.w.Error(); err != nil {
		return fmt.Errorf("failed to flush audit log: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (l *AuditLog) Close() error {
	if l.w != nil {
		l.w.Flush()
	}
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		l.w = nil
		return err
	}
	return nil
}
