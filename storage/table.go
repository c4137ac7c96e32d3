package storage

import (
	"context"
	"errors"
	"fmt"
	"log"

	"shootmap/codec"
	"shootmap/identity"
	"shootmap/models"
	"shootmap/sheets"
)

// firstDataRow is the first sheet row below the header.
const firstDataRow = 2

// Invalidator is notified after every successful mutation so cached bulk
// views can be dropped.
type Invalidator interface {
	InvalidateAll()
}

// sheetTable holds the row mechanics shared by every entity store. Row
// numbers are resolved by scanning the identifier column on every call and
// never cached: rows can be inserted, sorted or removed by hand in the sheet.
type sheetTable[T any] struct {
	client sheets.Table
	sheet  string
	width  int
	decode func([]any) (T, error)
	idOf   func(T) string
	inval  Invalidator
}

func (t *sheetTable[T]) dataRange() string {
	return sheets.OpenRows(0, t.width-1, firstDataRow)
}

// listAll reads every data row in one call. Blank rows are skipped silently,
// malformed rows are logged and skipped so one bad row cannot break the
// bulk view.
func (t *sheetTable[T]) listAll(ctx context.Context) ([]T, error) {
	rows, err := t.client.ReadRange(ctx, t.sheet, t.dataRange())
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", t.sheet, err)
	}

	out := make([]T, 0, len(rows))
	seen := make(map[string]int, len(rows))
	skipped := 0
	for i, row := range rows {
		if codec.IsBlank(row) {
			continue
		}
		v, err := t.decode(row)
		if err != nil {
			log.Printf("Warning: %v", t.annotate(err, i+firstDataRow))
			skipped++
			continue
		}
		id := t.idOf(v)
		if first, dup := seen[id]; dup {
			log.Printf("Warning: %s id %s appears on rows %d and %d", t.sheet, id, first, i+firstDataRow)
		} else {
			seen[id] = i + firstDataRow
		}
		out = append(out, v)
	}
	if skipped > 0 {
		log.Printf("%s: loaded %d rows, skipped %d malformed", t.sheet, len(out), skipped)
	}
	return out, nil
}

// ids returns the identifier column in row order.
func (t *sheetTable[T]) ids(ctx context.Context) ([]string, error) {
	rows, err := t.client.ReadRange(ctx, t.sheet, sheets.OpenRows(0, 0, firstDataRow))
	if err != nil {
		return nil, fmt.Errorf("scan %s ids: %w", t.sheet, err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		if len(row) > 0 {
			ids[i] = identity.Normalize(codec.Text(row[0]))
		}
	}
	return ids, nil
}

// resolveRow maps an identifier to its current sheet row by linear scan.
// With duplicate identifiers the first row wins.
func (t *sheetTable[T]) resolveRow(ctx context.Context, id string) (int, error) {
	id = identity.Normalize(id)
	if id == "" {
		return 0, fmt.Errorf("%w: empty %s id", models.ErrEntityNotFound, t.sheet)
	}
	ids, err := t.ids(ctx)
	if err != nil {
		return 0, err
	}
	for i, candidate := range ids {
		if candidate == id {
			return i + firstDataRow, nil
		}
	}
	return 0, fmt.Errorf("%w: %s %s", models.ErrEntityNotFound, t.sheet, id)
}

// locate resolves id and reads its raw row.
func (t *sheetTable[T]) locate(ctx context.Context, id string) (int, []any, error) {
	rowNum, err := t.resolveRow(ctx, id)
	if err != nil {
		return 0, nil, err
	}
	rows, err := t.client.ReadRange(ctx, t.sheet, sheets.RowSpan(0, t.width-1, rowNum))
	if err != nil {
		return 0, nil, fmt.Errorf("read %s row %d: %w", t.sheet, rowNum, err)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return 0, nil, fmt.Errorf("%w: %s %s vanished from row %d", models.ErrEntityNotFound, t.sheet, id, rowNum)
	}
	// The sheet may have been edited between the scan and the read.
	if got := identity.Normalize(codec.Text(rows[0][0])); got != identity.Normalize(id) {
		log.Printf("Warning: %s row %d moved (expected id %s, found %s)", t.sheet, rowNum, id, got)
		return 0, nil, fmt.Errorf("%w: %s %s moved during lookup", models.ErrEntityNotFound, t.sheet, id)
	}
	return rowNum, rows[0], nil
}

// get returns nil, nil when id does not resolve.
func (t *sheetTable[T]) get(ctx context.Context, id string) (*T, error) {
	rowNum, raw, err := t.locate(ctx, id)
	if errors.Is(err, models.ErrEntityNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	v, err := t.decode(raw)
	if err != nil {
		return nil, t.annotate(err, rowNum)
	}
	return &v, nil
}

// update merges a patch into the current row and writes only the touched
// columns in a single round trip. Concurrent updates to the same cells are
// last-writer-wins.
func (t *sheetTable[T]) update(ctx context.Context, id string, merge func([]any) ([]any, []int)) (*T, error) {
	rowNum, raw, err := t.locate(ctx, id)
	if err != nil {
		return nil, err
	}

	merged, changed := merge(raw)
	if len(changed) > 0 {
		if err := t.writeColumns(ctx, rowNum, merged, changed); err != nil {
			return nil, err
		}
		t.invalidate()
	}

	v, err := t.decode(merged)
	if err != nil {
		log.Printf("Warning: %v", t.annotate(err, rowNum))
	}
	return &v, nil
}

func (t *sheetTable[T]) writeColumns(ctx context.Context, rowNum int, row []any, cols []int) error {
	runs := contiguousRuns(cols)
	if len(runs) == 1 {
		first, last := runs[0][0], runs[0][1]
		rng := sheets.RowSpan(first, last, rowNum)
		if err := t.client.WriteRange(ctx, t.sheet, rng, [][]any{row[first : last+1]}); err != nil {
			return fmt.Errorf("update %s row %d: %w", t.sheet, rowNum, err)
		}
		return nil
	}

	writes := make([]sheets.RangeWrite, 0, len(runs))
	for _, r := range runs {
		writes = append(writes, sheets.RangeWrite{
			Sheet:  t.sheet,
			Range:  sheets.RowSpan(r[0], r[1], rowNum),
			Values: [][]any{row[r[0] : r[1]+1]},
		})
	}
	if err := t.client.BatchWrite(ctx, writes); err != nil {
		return fmt.Errorf("update %s row %d: %w", t.sheet, rowNum, err)
	}
	return nil
}

func (t *sheetTable[T]) append(ctx context.Context, row []any) error {
	if err := t.client.AppendRow(ctx, t.sheet, row); err != nil {
		return fmt.Errorf("append %s: %w", t.sheet, err)
	}
	t.invalidate()
	return nil
}

func (t *sheetTable[T]) invalidate() {
	if t.inval != nil {
		t.inval.InvalidateAll()
	}
}

func (t *sheetTable[T]) annotate(err error, rowNum int) error {
	var mr *models.MalformedRowError
	if errors.As(err, &mr) {
		mr.Sheet = t.sheet
		mr.Row = rowNum
	}
	return err
}

// contiguousRuns groups ascending, de-duplicated columns into [first, last] spans.
func contiguousRuns(cols []int) [][2]int {
	var runs [][2]int
	for _, c := range cols {
		if n := len(runs); n > 0 && c <= runs[n-1][1]+1 {
			if c > runs[n-1][1] {
				runs[n-1][1] = c
			}
			continue
		}
		runs = append(runs, [2]int{c, c})
	}
	return runs
}
