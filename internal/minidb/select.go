package minidb

import (
	"context"
	"errors"
)

var ErrNoMoreRows = errors.New("no more rows")

type StatementResult struct {
	Columns []Column
	Rows    func(ctx context.Context) (Row, error)
}

// Select returns a full ascending scan of the table. Rows are pulled one
// at a time through the result's Rows func which terminates with
// ErrNoMoreRows; calling Select again starts a fresh scan.
func (t *Table) Select(ctx context.Context) (StatementResult, error) {
	if t.closed {
		return StatementResult{}, ErrTableClosed
	}

	aCursor, err := t.SeekFirst(ctx)
	if err != nil {
		return StatementResult{}, err
	}

	aResult := StatementResult{
		Columns: TableColumns,
		Rows: func(ctx context.Context) (Row, error) {
			if aCursor.EndOfTable {
				return Row{}, ErrNoMoreRows
			}
			aRow, err := aCursor.Value(ctx)
			if err != nil {
				return Row{}, err
			}
			if err := aCursor.Advance(ctx); err != nil {
				return Row{}, err
			}
			return aRow, nil
		},
	}

	return aResult, nil
}
