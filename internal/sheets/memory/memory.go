package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Mirror keeps rows in memory, in the order they were first written.
type Mirror struct {
	mu   sync.Mutex
	rows [][]any
	idx  map[string]int
}

var _ ports.TransactionMirror = (*Mirror)(nil)

func New() *Mirror {
	return &Mirror{idx: make(map[string]int)}
}

func (m *Mirror) Upsert(_ context.Context, t core.Transaction) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row := ports.Row(t)
	if i, ok := m.idx[t.ID]; ok {
		m.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	m.rows = append(m.rows, row)
	m.idx[t.ID] = len(m.rows) - 1
	return fmt.Sprintf("mem:%d", len(m.rows)), nil
}

func (m *Mirror) Remove(_ context.Context, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.idx[transactionID]; ok {
		m.rows[i] = nil
		delete(m.idx, transactionID)
	}
	return nil
}

// Row returns the mirrored row of a transaction.
func (m *Mirror) Row(transactionID string) ([]any, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.idx[transactionID]
	if !ok {
		return nil, false
	}
	return append([]any(nil), m.rows[i]...), true
}

// Len counts live rows.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.idx)
}
