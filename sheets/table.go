// Package sheets wraps the range-oriented operations of the remote spreadsheet
// store. It carries no business logic and never retries.
package sheets

import "context"

// Table is the remote table client consumed by the entity stores.
type Table interface {
	// ReadRange returns the cells of rng on sheet, row-major. Trailing empty
	// rows and cells are omitted, as the backend does.
	ReadRange(ctx context.Context, sheet, rng string) ([][]any, error)
	// WriteRange overwrites exactly the addressed cells.
	WriteRange(ctx context.Context, sheet, rng string, values [][]any) error
	// BatchWrite applies several disjoint range writes in one round trip.
	BatchWrite(ctx context.Context, writes []RangeWrite) error
	// AppendRow adds one row after the last used row of sheet.
	AppendRow(ctx context.Context, sheet string, values []any) error
}

type RangeWrite struct {
	Sheet  string
	Range  string
	Values [][]any
}
