package sheet

import (
	"context"
	"slices"
	"sync"
)

// MemoryTable keeps rows in process memory.
type MemoryTable struct {
	mu   sync.Mutex
	rows []Row
}

// NewMemory returns a table seeded with rows.
func NewMemory(rows ...Row) *MemoryTable {
	return &MemoryTable{rows: slices.Clone(rows)}
}

func (t *MemoryTable) ReadAll(ctx context.Context) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.rows), nil
}

func (t *MemoryTable) Append(ctx context.Context, row Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rows = append(t.rows, row)
	return nil
}

func (t *MemoryTable) Close() error {
	return nil
}
