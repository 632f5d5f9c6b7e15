package minidb

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Select_EmptyTable(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
	)

	aResult, err := aTable.Select(ctx)
	require.NoError(t, err)
	assert.Equal(t, TableColumns, aResult.Columns)

	_, err = aResult.Rows(ctx)
	assert.ErrorIs(t, err, ErrNoMoreRows)
}

func TestTable_Select_ReturnsRowsInKeyOrder(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
		rows   = gen.Rows(75)
	)

	insertRows(ctx, t, aTable, rows)

	assert.Equal(t, sortRowsByID(rows), selectAllRows(ctx, t, aTable))
}

func TestTable_Select_FreshScanEachCall(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
		rows   = gen.Rows(5)
	)

	insertRows(ctx, t, aTable, rows)

	first := selectAllRows(ctx, t, aTable)
	second := selectAllRows(ctx, t, aTable)
	assert.Equal(t, first, second)
}

func TestTable_CloseFlushesAllPages(t *testing.T) {
	t.Parallel()

	tempFile, err := os.CreateTemp("", "testdb")
	require.NoError(t, err)
	defer os.Remove(tempFile.Name())
	defer tempFile.Close()

	aPager, err := NewPager(tempFile)
	require.NoError(t, err)

	var (
		ctx    = context.Background()
		aTable = NewTable(testLogger, "users", aPager, 0)
		rows   = gen.Rows(40)
	)
	insertRows(ctx, t, aTable, rows)
	require.NoError(t, aTable.Close(ctx))

	// Every allocated page must be on disk as a full page
	fileInfo, err := tempFile.Stat()
	require.NoError(t, err)
	assert.Equal(t, int64(aPager.TotalPages())*PageSize, fileInfo.Size())
}

func TestTable_ClosedTableRejectsOperations(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aPager = newTestPager(t)
		aTable = NewTable(testLogger, "users", aPager, 0)
	)

	require.NoError(t, aTable.Insert(ctx, gen.Row()))
	require.NoError(t, aTable.Close(ctx))

	err := aTable.Insert(ctx, gen.Row())
	assert.ErrorIs(t, err, ErrTableClosed)

	_, err = aTable.Select(ctx)
	assert.ErrorIs(t, err, ErrTableClosed)

	// Closing twice is a no-op
	assert.NoError(t, aTable.Close(ctx))
}
