package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RichardKnop/minidb/internal/minidb"
	"github.com/RichardKnop/minidb/internal/minidb/minidbtest"
)

var gen = minidbtest.NewDataGen(uint64(time.Now().Unix()))

func newTestTable(t *testing.T) *minidb.Table {
	t.Helper()

	tempFile, err := os.CreateTemp("", "testdb")
	require.NoError(t, err)
	t.Cleanup(func() {
		tempFile.Close()
		os.Remove(tempFile.Name())
	})

	aPager, err := minidb.NewPager(tempFile)
	require.NoError(t, err)

	return minidb.NewTable(zap.NewNop(), defaultTableName, aPager, 0)
}

func TestParseInsert(t *testing.T) {
	t.Parallel()

	aRow, err := parseInsert([]string{"insert", "42", "alice", "alice@example.com"})
	require.NoError(t, err)
	assert.Equal(t, minidb.Row{ID: 42, Username: "alice", Email: "alice@example.com"}, aRow)

	_, err = parseInsert([]string{"insert", "42", "alice"})
	assert.Error(t, err)

	_, err = parseInsert([]string{"insert", "foo", "alice", "alice@example.com"})
	assert.Error(t, err)
}

func TestExecuteStatement_InsertAndSelect(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aTable = newTestTable(t)
		rows   = gen.Rows(3)
	)

	for _, aRow := range rows {
		var out bytes.Buffer
		input := fmt.Sprintf("insert %d %s %s", aRow.ID, aRow.Username, aRow.Email)
		executeStatement(ctx, &out, aTable, input)
		assert.Equal(t, "Rows affected: 1\n", out.String())
	}

	var out bytes.Buffer
	executeStatement(ctx, &out, aTable, "select")
	for _, aRow := range rows {
		assert.Contains(t, out.String(), aRow.Username)
		assert.Contains(t, out.String(), aRow.Email)
	}
}

func TestExecuteStatement_InsertErrors(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aTable = newTestTable(t)
	)

	var out bytes.Buffer
	executeStatement(ctx, &out, aTable, "insert -1 alice alice@example.com")
	assert.Contains(t, out.String(), "id must not be negative")

	out.Reset()
	executeStatement(ctx, &out, aTable, "insert 1 alice alice@example.com")
	assert.Equal(t, "Rows affected: 1\n", out.String())

	out.Reset()
	executeStatement(ctx, &out, aTable, "insert 1 bob bob@example.com")
	assert.Contains(t, out.String(), "duplicate key")

	out.Reset()
	executeStatement(ctx, &out, aTable, "update users set id = 1")
	assert.Contains(t, out.String(), "Unrecognized statement")
}

func TestDoMeta(t *testing.T) {
	t.Parallel()

	var (
		ctx    = context.Background()
		aTable = newTestTable(t)
	)

	var out bytes.Buffer
	assert.Equal(t, Constants, doMeta(ctx, &out, aTable, ".constants"))
	assert.Contains(t, out.String(), "PageSize: 4096")
	assert.Contains(t, out.String(), "RowSize: 293")
	assert.Contains(t, out.String(), "LeafNodeMaxCells: 13")

	out.Reset()
	assert.Equal(t, Btree, doMeta(ctx, &out, aTable, ".btree"))
	assert.Contains(t, out.String(), "leaf node, page: 0")

	out.Reset()
	assert.Equal(t, Exit, doMeta(ctx, &out, aTable, ".exit"))

	out.Reset()
	assert.Equal(t, Unknown, doMeta(ctx, &out, aTable, ".foobar"))
	assert.Contains(t, out.String(), "Unrecognized meta command")
}
