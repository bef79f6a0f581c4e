package memory

import (
	"context"
	"sort"
	"sync"

	"vibequiz/internal/domain"
)

// Ledger is an in-memory creation ledger.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]domain.CreationRecord
}

func NewLedger() *Ledger {
	return &Ledger{records: make(map[string]domain.CreationRecord)}
}

// Save inserts or replaces a record by id.
func (l *Ledger) Save(_ context.Context, record domain.CreationRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if existing, ok := l.records[record.ID]; ok && record.CreatedAt.IsZero() {
		record.CreatedAt = existing.CreatedAt
	}
	l.records[record.ID] = record
	return nil
}

func (l *Ledger) Get(_ context.Context, id string) (domain.CreationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[id]
	if !ok {
		return domain.CreationRecord{}, domain.ErrRecordNotFound
	}
	return record, nil
}

// Orphans lists records whose escrow never confirmed, oldest first.
func (l *Ledger) Orphans(context.Context) ([]domain.CreationRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.CreationRecord, 0)
	for _, record := range l.records {
		if record.Status != domain.CreationEscrowed {
			out = append(out, record)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
