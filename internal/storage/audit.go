package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/codeready-toolchain/hearth/internal/domain"
)

// AuditLog is the append-only JSON-lines event record kept alongside the
// database for audit purposes only — the database, not this file, is the
// source of truth the rest of the system reads from.
type AuditLog struct {
	mu   sync.Mutex
	file *os.File
}

func NewAuditLog(path string) (*AuditLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &AuditLog{file: f}, nil
}

type auditRecord struct {
	Tick      int    `json:"tick"`
	Type      string `json:"type"`
	Timestamp string `json:"timestamp"`
	Event     any    `json:"event"`
}

// AppendBatch writes every event from one tick as consecutive JSON lines,
// flushing once per batch rather than per line.
func (a *AuditLog) AppendBatch(events []domain.DomainEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, ev := range events {
		rec := auditRecord{
			Tick:      ev.EventTick(),
			Type:      ev.EventType(),
			Timestamp: ev.EventTimestamp().Format("2006-01-02T15:04:05.000000Z07:00"),
			Event:     ev,
		}
		line, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("marshal audit record: %w", err)
		}
		line = append(line, '\n')
		if _, err := a.file.Write(line); err != nil {
			return fmt.Errorf("write audit record: %w", err)
		}
	}
	return a.file.Sync()
}

func (a *AuditLog) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}
