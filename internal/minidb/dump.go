package minidb

import (
	"context"
	"fmt"
)

// TreeNode is a structural description of one node, used by clients
// rendering the tree as text.
type TreeNode struct {
	PageIdx  PageIndex
	Internal bool
	Parent   PageIndex
	Keys     []uint32
	Cells    uint32
	Children []*TreeNode
}

// DumpTree walks the whole tree top down and returns its structure.
func (t *Table) DumpTree(ctx context.Context) (*TreeNode, error) {
	if t.closed {
		return nil, ErrTableClosed
	}
	return t.dumpPage(ctx, t.RootPageIdx)
}

func (t *Table) dumpPage(ctx context.Context, pageIdx PageIndex) (*TreeNode, error) {
	aPage, err := t.pager.GetPage(ctx, pageIdx)
	if err != nil {
		return nil, fmt.Errorf("dump tree: %w", err)
	}

	if aPage.LeafNode != nil {
		return &TreeNode{
			PageIdx: pageIdx,
			Parent:  aPage.LeafNode.Header.Parent,
			Keys:    aPage.LeafNode.Keys(),
			Cells:   aPage.LeafNode.Header.Cells,
		}, nil
	}

	aNode := &TreeNode{
		PageIdx:  pageIdx,
		Internal: true,
		Parent:   aPage.InternalNode.Header.Parent,
		Keys:     aPage.InternalNode.Keys(),
		Cells:    aPage.InternalNode.Header.KeysNum,
	}
	for _, childPageIdx := range aPage.InternalNode.Children() {
		child, err := t.dumpPage(ctx, childPageIdx)
		if err != nil {
			return nil, err
		}
		aNode.Children = append(aNode.Children, child)
	}

	return aNode, nil
}
