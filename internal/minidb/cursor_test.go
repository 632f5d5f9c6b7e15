package minidb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursor_Advance_SingleLeaf(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
	)

	for i := 1; i <= 3; i++ {
		aRow := gen.Row()
		aRow.ID = int32(i)
		require.NoError(t, aTable.Insert(ctx, aRow))
	}

	aCursor, err := aTable.SeekFirst(ctx)
	require.NoError(t, err)

	keys := make([]uint32, 0, 3)
	for !aCursor.EndOfTable {
		aRow, err := aCursor.Value(ctx)
		require.NoError(t, err)
		keys = append(keys, aRow.Key())
		require.NoError(t, aCursor.Advance(ctx))
	}

	assert.Equal(t, []uint32{1, 2, 3}, keys)
}

func TestCursor_Advance_AcrossLeaves(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
	)

	numRows := int(LeafNodeMaxCells) + 1
	for i := 1; i <= numRows; i++ {
		aRow := gen.Row()
		aRow.ID = int32(i)
		require.NoError(t, aTable.Insert(ctx, aRow))
	}

	aCursor, err := aTable.SeekFirst(ctx)
	require.NoError(t, err)

	keys := make([]uint32, 0, numRows)
	for !aCursor.EndOfTable {
		aRow, err := aCursor.Value(ctx)
		require.NoError(t, err)
		keys = append(keys, aRow.Key())
		require.NoError(t, aCursor.Advance(ctx))
	}

	require.Len(t, keys, numRows)
	for i, key := range keys {
		assert.Equal(t, uint32(i+1), key)
	}
}

// The parent chain walk and the next leaf pointers are two independent
// encodings of the same leaf order, they have to agree after any
// sequence of splits.
func TestCursor_Advance_AgreesWithNextLeafChain(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
		rows   = gen.Rows(120)
	)
	aTable.maxICells = 3

	insertRows(ctx, t, aTable, rows)

	// Collect the leaf page sequence the cursor visits
	aCursor, err := aTable.SeekFirst(ctx)
	require.NoError(t, err)

	cursorLeaves := []PageIndex{aCursor.PageIdx}
	for !aCursor.EndOfTable {
		prevPageIdx := aCursor.PageIdx
		require.NoError(t, aCursor.Advance(ctx))
		if aCursor.PageIdx != prevPageIdx && !aCursor.EndOfTable {
			cursorLeaves = append(cursorLeaves, aCursor.PageIdx)
		}
	}

	// Collect the leaf page sequence by following next leaf pointers
	chainLeaves := make([]PageIndex, 0, len(cursorLeaves))
	pageIdx := cursorLeaves[0]
	for {
		chainLeaves = append(chainLeaves, pageIdx)
		aPage, err := aPager.GetPage(ctx, pageIdx)
		require.NoError(t, err)
		require.NotNil(t, aPage.LeafNode)
		if aPage.LeafNode.Header.NextLeaf == 0 {
			break
		}
		pageIdx = aPage.LeafNode.Header.NextLeaf
	}

	assert.Equal(t, chainLeaves, cursorLeaves)
}

func TestTable_SeekFirst_EmptyTable(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
	)

	aCursor, err := aTable.SeekFirst(ctx)
	require.NoError(t, err)
	assert.True(t, aCursor.EndOfTable)
}

func TestTable_Seek_FindsInsertPosition(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
	)

	for _, id := range []int32{10, 20, 30} {
		aRow := gen.Row()
		aRow.ID = id
		require.NoError(t, aTable.Insert(ctx, aRow))
	}

	// Existing key
	aCursor, err := aTable.Seek(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), aCursor.CellIdx)

	// Between keys
	aCursor, err = aTable.Seek(ctx, 25)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), aCursor.CellIdx)

	// Past all keys
	aCursor, err = aTable.Seek(ctx, 99)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), aCursor.CellIdx)
}
