package minidb

import (
	"context"
	"fmt"
)

// Cursor is a position within the tree, used both to locate an insertion
// point and to drive ascending iteration. It borrows the table, it does
// not own any pages.
type Cursor struct {
	Table      *Table
	PageIdx    PageIndex
	CellIdx    uint32
	EndOfTable bool
}

func (c *Cursor) LeafNodeInsert(ctx context.Context, key uint32, aRow *Row) error {
	aPage, err := c.Table.pager.GetPage(ctx, c.PageIdx)
	if err != nil {
		return fmt.Errorf("get page: %w", err)
	}
	if aPage.LeafNode == nil {
		return fmt.Errorf("error inserting row to a non leaf node, key %d", key)
	}

	if aPage.LeafNode.Header.Cells >= LeafNodeMaxCells {
		// Split leaf node
		if err := c.LeafNodeSplitInsert(ctx, key, aRow); err != nil {
			return fmt.Errorf("leaf node split insert: %w", err)
		}
		return nil
	}

	if c.CellIdx < aPage.LeafNode.Header.Cells {
		// Need make room for new cell
		for i := aPage.LeafNode.Header.Cells; i > c.CellIdx; i-- {
			aPage.LeafNode.Cells[i] = aPage.LeafNode.Cells[i-1]
		}
	}

	if err := saveToCell(&aPage.LeafNode.Cells[c.CellIdx], key, aRow); err != nil {
		return err
	}
	aPage.LeafNode.Header.Cells += 1

	return nil
}

// Create a new node and move half the cells over.
// Insert the new value in one of the two nodes.
// Update parent or create a new parent.
func (c *Cursor) LeafNodeSplitInsert(ctx context.Context, key uint32, aRow *Row) error {
	aPager := c.Table.pager

	aSplitPage, err := aPager.GetPage(ctx, c.PageIdx)
	if err != nil {
		return fmt.Errorf("get page: %w", err)
	}

	originalMaxKey, err := c.Table.GetMaxKey(ctx, aSplitPage)
	if err != nil {
		return fmt.Errorf("get original max key: %w", err)
	}
	// Append new page at the end
	newPageIdx := PageIndex(aPager.TotalPages())
	aNewPage, err := aPager.GetPage(ctx, newPageIdx)
	if err != nil {
		return fmt.Errorf("get new page: %w", err)
	}

	c.Table.logger.Sugar().With(
		"key", int(key),
		"old_max_key", int(originalMaxKey),
		"new_page_index", int(newPageIdx),
	).Debug("leaf node split insert")

	aNewPage.LeafNode = NewLeafNode()
	aNewPage.LeafNode.Header.Parent = aSplitPage.LeafNode.Header.Parent

	aNewPage.LeafNode.Header.NextLeaf = aSplitPage.LeafNode.Header.NextLeaf
	aSplitPage.LeafNode.Header.NextLeaf = newPageIdx

	// All existing keys plus new key should should be divided
	// evenly between old (left) and new (right) nodes.
	// Starting from the right, move each key to correct position.
	var (
		leafNodeMaxCells = aSplitPage.LeafNode.Header.Cells
		rightSplitCount  = (leafNodeMaxCells + 1) / 2
		leftSplitCount   = leafNodeMaxCells + 1 - rightSplitCount
	)
	for i := leafNodeMaxCells; ; i-- {
		if i+1 == 0 {
			break
		}
		var (
			destPage *Page
			isLeft   = i < leftSplitCount
		)

		if !isLeft {
			destPage = aNewPage // right
		} else {
			destPage = aSplitPage // left
		}
		cellIdx := i % leftSplitCount
		destCell := &destPage.LeafNode.Cells[cellIdx]

		if i == c.CellIdx {
			if err := saveToCell(destCell, key, aRow); err != nil {
				return err
			}
		} else if i > c.CellIdx {
			*destCell = aSplitPage.LeafNode.Cells[i-1]
		} else {
			*destCell = aSplitPage.LeafNode.Cells[i]
		}
	}

	// Update cell count on both leaf nodes
	aSplitPage.LeafNode.Header.Cells = leftSplitCount
	aNewPage.LeafNode.Header.Cells = rightSplitCount

	if aSplitPage.LeafNode.Header.IsRoot {
		_, err := c.Table.CreateNewRoot(ctx, newPageIdx)
		return err
	}

	parentPageIdx := aSplitPage.LeafNode.Header.Parent
	aParentPage, err := aPager.GetPage(ctx, parentPageIdx)
	if err != nil {
		return fmt.Errorf("get parent page: %w", err)
	}

	// If we won't need to split the internal node,
	// update parent to reflect new max key
	oldChildIdx := aParentPage.InternalNode.IndexOfChild(originalMaxKey)
	if oldChildIdx < aParentPage.InternalNode.Header.KeysNum {
		oldPageNewMaxKey, err := c.Table.GetMaxKey(ctx, aSplitPage)
		if err != nil {
			return fmt.Errorf("get old page max key: %w", err)
		}
		aParentPage.InternalNode.ICells[oldChildIdx].Key = oldPageNewMaxKey
	}

	return c.Table.InternalNodeInsert(ctx, parentPageIdx, newPageIdx)
}

// Value reads the row at the cursor position. Callers must check
// EndOfTable first.
func (c *Cursor) Value(ctx context.Context) (Row, error) {
	aPage, err := c.Table.pager.GetPage(ctx, c.PageIdx)
	if err != nil {
		return Row{}, fmt.Errorf("cursor value: %w", err)
	}

	var aRow Row
	if err := UnmarshalRow(aPage.LeafNode.Cells[c.CellIdx].Value, &aRow); err != nil {
		return Row{}, err
	}

	return aRow, nil
}

// Advance moves the cursor one cell forward. When the current leaf is
// exhausted the successor leaf is found by walking up the parent chain
// until an ancestor has a child to the right of the path we came from,
// then descending to that child's leftmost leaf. Past the root's
// rightmost subtree EndOfTable is set.
func (c *Cursor) Advance(ctx context.Context) error {
	aPage, err := c.Table.pager.GetPage(ctx, c.PageIdx)
	if err != nil {
		return fmt.Errorf("cursor advance: %w", err)
	}

	c.CellIdx += 1
	if c.CellIdx < aPage.LeafNode.Header.Cells {
		return nil
	}

	for {
		if aPage.isRoot() {
			c.EndOfTable = true
			return nil
		}

		aParentPage, err := c.Table.pager.GetPage(ctx, aPage.parent())
		if err != nil {
			return fmt.Errorf("cursor advance: %w", err)
		}

		childIdx, err := aParentPage.InternalNode.IndexOfPage(aPage.Index)
		if err != nil {
			return fmt.Errorf("cursor advance: %w", err)
		}
		if childIdx < aParentPage.InternalNode.Header.KeysNum {
			// A child to the right of us exists, its leftmost leaf
			// holds the successor key
			nextChildIdx, err := aParentPage.InternalNode.Child(childIdx + 1)
			if err != nil {
				return fmt.Errorf("cursor advance: %w", err)
			}
			return c.descendLeftmost(ctx, nextChildIdx)
		}

		// We came from the rightmost child, keep climbing
		aPage = aParentPage
	}
}

func (c *Cursor) descendLeftmost(ctx context.Context, pageIdx PageIndex) error {
	aPage, err := c.Table.pager.GetPage(ctx, pageIdx)
	if err != nil {
		return fmt.Errorf("descend leftmost: %w", err)
	}
	for aPage.LeafNode == nil {
		pageIdx, err = aPage.InternalNode.Child(0)
		if err != nil {
			return fmt.Errorf("descend leftmost: %w", err)
		}
		aPage, err = c.Table.pager.GetPage(ctx, pageIdx)
		if err != nil {
			return fmt.Errorf("descend leftmost: %w", err)
		}
	}

	c.PageIdx = pageIdx
	c.CellIdx = 0
	c.EndOfTable = aPage.LeafNode.Header.Cells == 0

	return nil
}

func saveToCell(cell *Cell, key uint32, aRow *Row) error {
	rowBuf, err := aRow.Marshal()
	if err != nil {
		return fmt.Errorf("save to cell: %w", err)
	}

	// Assign rather than copy in place, cells can share buffers after
	// shift and split moves
	cell.Key = key
	cell.Value = rowBuf

	return nil
}
