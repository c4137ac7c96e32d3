package sheets

import (
	"context"
	"fmt"
	"sync"

	"shootmap/models"
)

// CallCounts tallies backend round trips made against a MemoryTable.
type CallCounts struct {
	Reads   int
	Writes  int
	Batches int
	Appends int
}

// MemoryTable is an in-process Table used for local runs and tests. Every call
// is applied under one lock, so a BatchWrite is all-or-nothing.
type MemoryTable struct {
	mu     sync.Mutex
	sheets map[string][][]any
	calls  CallCounts
	fail   error
}

func NewMemoryTable() *MemoryTable {
	return &MemoryTable{sheets: make(map[string][][]any)}
}

// Seed replaces the content of sheet, header row included.
func (m *MemoryTable) Seed(sheet string, rows [][]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	m.sheets[sheet] = cp
}

// Rows returns a copy of the raw content of sheet, header row included.
func (m *MemoryTable) Rows(sheet string) [][]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	src := m.sheets[sheet]
	cp := make([][]any, len(src))
	for i, r := range src {
		cp[i] = append([]any(nil), r...)
	}
	return cp
}

// SetFailure makes every subsequent call fail with err wrapped as
// ErrBackendUnavailable. Pass nil to recover.
func (m *MemoryTable) SetFailure(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

func (m *MemoryTable) Calls() CallCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MemoryTable) ReadRange(ctx context.Context, sheet, rng string) ([][]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Reads++
	if err := m.check(ctx, "read", sheet, rng); err != nil {
		return nil, err
	}
	r, err := ParseRange(rng)
	if err != nil {
		return nil, err
	}

	rows := m.sheets[sheet]
	last := r.EndRow
	if last == 0 || last > len(rows) {
		last = len(rows)
	}

	var out [][]any
	for sheetRow := r.StartRow; sheetRow <= last; sheetRow++ {
		src := rows[sheetRow-1]
		var cells []any
		for c := r.StartCol; c <= r.EndCol && c < len(src); c++ {
			cells = append(cells, src[c])
		}
		out = append(out, trimCells(cells))
	}
	for len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *MemoryTable) WriteRange(ctx context.Context, sheet, rng string, values [][]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Writes++
	if err := m.check(ctx, "write", sheet, rng); err != nil {
		return err
	}
	return m.put(sheet, rng, values)
}

func (m *MemoryTable) BatchWrite(ctx context.Context, writes []RangeWrite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Batches++
	if err := m.check(ctx, "batch write", "", fmt.Sprintf("%d ranges", len(writes))); err != nil {
		return err
	}
	for _, w := range writes {
		if _, err := ParseRange(w.Range); err != nil {
			return err
		}
	}
	for _, w := range writes {
		if err := m.put(w.Sheet, w.Range, w.Values); err != nil {
			return err
		}
	}
	return nil
}

func (m *MemoryTable) AppendRow(ctx context.Context, sheet string, values []any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls.Appends++
	if err := m.check(ctx, "append", sheet, "A1"); err != nil {
		return err
	}
	rows := m.sheets[sheet]
	last := len(rows)
	for last > 0 && len(trimCells(rows[last-1])) == 0 {
		last--
	}
	return m.put(sheet, Cell(0, last+1), [][]any{values})
}

func (m *MemoryTable) check(ctx context.Context, op, sheet, rng string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s %s: %w", models.ErrBackendUnavailable, op, A1(sheet, rng), err)
	}
	if m.fail != nil {
		return fmt.Errorf("%w: %s %s: %w", models.ErrBackendUnavailable, op, A1(sheet, rng), m.fail)
	}
	return nil
}

func (m *MemoryTable) put(sheet, rng string, values [][]any) error {
	r, err := ParseRange(rng)
	if err != nil {
		return err
	}
	rows := m.sheets[sheet]
	for i, vals := range values {
		sheetRow := r.StartRow + i
		for len(rows) < sheetRow {
			rows = append(rows, nil)
		}
		row := rows[sheetRow-1]
		for j, v := range vals {
			col := r.StartCol + j
			for len(row) <= col {
				row = append(row, "")
			}
			row[col] = v
		}
		rows[sheetRow-1] = row
	}
	m.sheets[sheet] = rows
	return nil
}

func trimCells(cells []any) []any {
	n := len(cells)
	for n > 0 && isBlank(cells[n-1]) {
		n--
	}
	if n == 0 {
		return []any{}
	}
	return append([]any(nil), cells[:n]...)
}

func isBlank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
