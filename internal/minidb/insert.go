package minidb

import (
	"context"
	"errors"
	"fmt"
)

var ErrDuplicateKey = errors.New("duplicate key")

// Insert adds a row to the table. The row is validated before any descent
// so a rejected insert never touches a page.
func (t *Table) Insert(ctx context.Context, aRow Row) error {
	if t.closed {
		return ErrTableClosed
	}
	if err := aRow.Validate(); err != nil {
		return err
	}

	aCursor, err := t.Seek(ctx, aRow.Key())
	if err != nil {
		return t.latchClosed(err)
	}

	aPage, err := t.pager.GetPage(ctx, aCursor.PageIdx)
	if err != nil {
		return t.latchClosed(fmt.Errorf("insert: %w", err))
	}

	// Must be leaf node
	if aPage.LeafNode == nil {
		return fmt.Errorf("trying to insert into non leaf node")
	}

	if aCursor.CellIdx < aPage.LeafNode.Header.Cells {
		if aPage.LeafNode.Cells[aCursor.CellIdx].Key == aRow.Key() {
			return fmt.Errorf("%w: %d", ErrDuplicateKey, aRow.ID)
		}
	}

	t.logger.Sugar().With(
		"page_index", int(aCursor.PageIdx),
		"cell_index", int(aCursor.CellIdx),
		"id", int(aRow.ID),
	).Debug("inserting row")

	if err := aCursor.LeafNodeInsert(ctx, aRow.Key(), &aRow); err != nil {
		return t.latchClosed(err)
	}
	return nil
}
