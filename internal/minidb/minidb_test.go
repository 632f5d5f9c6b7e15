package minidb

import (
	"context"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RichardKnop/minidb/internal/pkg/logging"
)

var (
	gen = newDataGen(uint64(time.Now().Unix()))

	testLogger *zap.Logger
)

func init() {
	logConf := logging.DefaultConfig()

	level := os.Getenv("LOG_LEVEL")
	if level == "" {
		level = "debug"
	}

	l, err := logging.ParseLevel(level)
	if err != nil {
		panic(err)
	}
	logConf.Level = zap.NewAtomicLevelAt(l)

	testLogger, err = logConf.Build()
	if err != nil {
		panic(err)
	}
}

type dataGen struct {
	*gofakeit.Faker
}

func newDataGen(seed uint64) *dataGen {
	g := dataGen{
		Faker: gofakeit.New(seed),
	}

	return &g
}

func (g *dataGen) Row() Row {
	aRow := Row{
		ID:       int32(g.IntRange(0, 1<<31-2)),
		Username: g.Username(),
		Email:    g.Email(),
	}
	if len(aRow.Username) > UsernameSize {
		aRow.Username = aRow.Username[:UsernameSize]
	}
	if len(aRow.Email) > EmailSize {
		aRow.Email = aRow.Email[:EmailSize]
	}
	return aRow
}

func (g *dataGen) Rows(number int) []Row {
	// Make sure all rows will have unique ID, this is important in some tests
	idMap := map[int32]struct{}{}
	rows := make([]Row, 0, number)
	for range number {
		aRow := g.Row()
		_, ok := idMap[aRow.ID]
		for ok {
			aRow = g.Row()
			_, ok = idMap[aRow.ID]
		}
		rows = append(rows, aRow)
		idMap[aRow.ID] = struct{}{}
	}
	return rows
}

func newTestPager(t *testing.T) *Pager {
	t.Helper()

	tempFile, err := os.CreateTemp("", "testdb")
	require.NoError(t, err)
	t.Cleanup(func() {
		tempFile.Close()
		os.Remove(tempFile.Name())
	})

	aPager, err := NewPager(tempFile)
	require.NoError(t, err)

	return aPager
}

func insertRows(ctx context.Context, t *testing.T, aTable *Table, rows []Row) {
	t.Helper()
	for _, aRow := range rows {
		require.NoError(t, aTable.Insert(ctx, aRow))
	}
}

func selectAllRows(ctx context.Context, t *testing.T, aTable *Table) []Row {
	t.Helper()

	aResult, err := aTable.Select(ctx)
	require.NoError(t, err)

	rows := make([]Row, 0)
	aRow, err := aResult.Rows(ctx)
	for ; err == nil; aRow, err = aResult.Rows(ctx) {
		rows = append(rows, aRow)
	}
	require.ErrorIs(t, err, ErrNoMoreRows)

	return rows
}

func sortRowsByID(rows []Row) []Row {
	sorted := make([]Row, len(rows))
	copy(sorted, rows)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ID < sorted[j].ID
	})
	return sorted
}

// checkTree walks the whole tree from the root and asserts structural
// invariants, keys sorted within every node, separator keys equal to the
// max key of the corresponding subtree and parent pointers consistent.
func checkTree(ctx context.Context, t *testing.T, aTable *Table) {
	t.Helper()

	rootPage, err := aTable.pager.GetPage(ctx, aTable.RootPageIdx)
	require.NoError(t, err)
	require.True(t, rootPage.isRoot())

	checkSubtree(ctx, t, aTable, aTable.RootPageIdx)
}

func checkSubtree(ctx context.Context, t *testing.T, aTable *Table, pageIdx PageIndex) uint32 {
	t.Helper()

	aPage, err := aTable.pager.GetPage(ctx, pageIdx)
	require.NoError(t, err)

	if aPage.LeafNode != nil {
		keys := aPage.LeafNode.Keys()
		require.True(t, sort.SliceIsSorted(keys, func(i, j int) bool {
			return keys[i] < keys[j]
		}), "leaf page %d keys not sorted: %v", pageIdx, keys)
		require.NotEmpty(t, keys, "leaf page %d is empty", pageIdx)
		return keys[len(keys)-1]
	}

	require.NotNil(t, aPage.InternalNode)
	aNode := aPage.InternalNode

	keys := aNode.Keys()
	require.True(t, sort.SliceIsSorted(keys, func(i, j int) bool {
		return keys[i] < keys[j]
	}), "internal page %d keys not sorted: %v", pageIdx, keys)
	require.NotEqual(t, RIGHT_CHILD_NOT_SET, aNode.Header.RightChild,
		"internal page %d has no right child", pageIdx)

	for i := uint32(0); i < aNode.Header.KeysNum; i++ {
		childIdx := aNode.ICells[i].Child
		childPage, err := aTable.pager.GetPage(ctx, childIdx)
		require.NoError(t, err)
		assert.Equal(t, pageIdx, childPage.parent(),
			"child page %d does not point back at parent %d", childIdx, pageIdx)

		maxKey := checkSubtree(ctx, t, aTable, childIdx)
		assert.Equal(t, aNode.ICells[i].Key, maxKey,
			"internal page %d separator %d does not match child max key", pageIdx, i)
	}

	rightPage, err := aTable.pager.GetPage(ctx, aNode.Header.RightChild)
	require.NoError(t, err)
	assert.Equal(t, pageIdx, rightPage.parent())

	return checkSubtree(ctx, t, aTable, aNode.Header.RightChild)
}

func TestLayoutConstants(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4096, PageSize)
	assert.Equal(t, 293, RowSize)
	assert.Equal(t, 6, CommonHeaderSize)
	assert.Equal(t, 14, LeafHeaderSize)
	assert.Equal(t, 297, LeafCellSize)
	assert.Equal(t, 4082, LeafSpaceForCells)
	assert.Equal(t, 13, LeafNodeMaxCells)
	assert.Equal(t, 14, InternalHeaderSize)
	assert.Equal(t, 510, InternalNodeMaxCells)
}
