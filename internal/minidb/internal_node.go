package minidb

import (
	"fmt"
	"math"
)

// An internal node with a right child of RIGHT_CHILD_NOT_SET is empty.
const RIGHT_CHILD_NOT_SET = PageIndex(math.MaxUint32)

type InternalNodeHeader struct {
	Header
	KeysNum    uint32
	RightChild PageIndex
}

func (h *InternalNodeHeader) Size() uint64 {
	return h.Header.Size() + 8
}

func (h *InternalNodeHeader) Marshal(buf []byte) ([]byte, error) {
	size := h.Size()
	if uint64(cap(buf)) >= size {
		buf = buf[:size]
	} else {
		buf = make([]byte, size)
	}

	i := uint64(0)

	hbuf, err := h.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	marshalUint32(buf, h.KeysNum, i)
	i += 4
	marshalUint32(buf, uint32(h.RightChild), i)

	return buf[:size], nil
}

func (h *InternalNodeHeader) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := h.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	h.KeysNum = unmarshalUint32(buf, i)
	i += 4
	h.RightChild = PageIndex(unmarshalUint32(buf, i))

	return h.Size(), nil
}

type ICell struct {
	Child PageIndex
	Key   uint32
}

func (c *ICell) Size() uint64 {
	return ICellSize
}

func (c *ICell) Marshal(buf []byte) ([]byte, error) {
	size := c.Size()
	if uint64(cap(buf)) >= size {
		buf = buf[:size]
	} else {
		buf = make([]byte, size)
	}

	marshalUint32(buf, uint32(c.Child), 0)
	marshalUint32(buf, c.Key, 4)

	return buf[:size], nil
}

func (c *ICell) Unmarshal(buf []byte) (uint64, error) {
	c.Child = PageIndex(unmarshalUint32(buf, 0))
	c.Key = unmarshalUint32(buf, 4)

	return c.Size(), nil
}

type InternalNode struct {
	Header InternalNodeHeader
	ICells [InternalNodeMaxCells]ICell
}

func NewInternalNode() *InternalNode {
	aNode := InternalNode{
		Header: InternalNodeHeader{
			Header: Header{
				IsInternal: true,
			},
			RightChild: RIGHT_CHILD_NOT_SET,
		},
	}
	return &aNode
}

func (n *InternalNode) Size() uint64 {
	size := n.Header.Size()
	for idx := range n.ICells {
		size += n.ICells[idx].Size()
	}
	return size
}

func (n *InternalNode) Marshal(buf []byte) ([]byte, error) {
	size := n.Size()
	if uint64(cap(buf)) >= size {
		buf = buf[:size]
	} else {
		buf = make([]byte, size)
	}

	i := uint64(0)

	hbuf, err := n.Header.Marshal(buf[i:])
	if err != nil {
		return nil, err
	}
	i += uint64(len(hbuf))

	for idx := range n.ICells {
		icbuf, err := n.ICells[idx].Marshal(buf[i:])
		if err != nil {
			return nil, err
		}
		i += uint64(len(icbuf))
	}

	return buf[:i], nil
}

func (n *InternalNode) Unmarshal(buf []byte) (uint64, error) {
	i := uint64(0)

	hi, err := n.Header.Unmarshal(buf[i:])
	if err != nil {
		return 0, err
	}
	i += hi

	for idx := range n.ICells {
		ci, err := n.ICells[idx].Unmarshal(buf[i:])
		if err != nil {
			return 0, err
		}
		i += ci
	}

	return i, nil
}

// IndexOfChild returns the index of the child which should contain the given
// key. For example, if node has 2 keys, this could return 0 for the leftmost
// child, 1 for the middle child or 2 for the rightmost child.
// The returned value is not a page index!
func (n *InternalNode) IndexOfChild(key uint32) uint32 {
	// Binary search
	var (
		minIdx = uint32(0)
		maxIdx = n.Header.KeysNum
	)
	for minIdx != maxIdx {
		idx := (minIdx + maxIdx) / 2
		rightKey := n.ICells[idx].Key
		if rightKey >= key {
			maxIdx = idx
		} else {
			minIdx = idx + 1
		}
	}

	return minIdx
}

// IndexOfPage returns index of the child which points at the page
func (n *InternalNode) IndexOfPage(pageIdx PageIndex) (uint32, error) {
	for idx := uint32(0); idx < n.Header.KeysNum; idx++ {
		if n.ICells[idx].Child == pageIdx {
			return idx, nil
		}
	}
	if n.Header.RightChild == pageIdx {
		return n.Header.KeysNum, nil
	}
	return 0, fmt.Errorf("pageIdx %d not found", pageIdx)
}

// Child returns a page index of nth child of the node marked by its index
// (0 for the leftmost child, index equal to number of keys means the
// rightmost child).
func (n *InternalNode) Child(childIdx uint32) (PageIndex, error) {
	keysNum := n.Header.KeysNum
	if childIdx > keysNum {
		return 0, fmt.Errorf("childIdx %d out of keysNum %d", childIdx, keysNum)
	}

	if childIdx == keysNum {
		return n.Header.RightChild, nil
	}

	return n.ICells[childIdx].Child, nil
}

func (n *InternalNode) SetChild(childIdx uint32, pageIdx PageIndex) error {
	keysNum := n.Header.KeysNum
	if childIdx > keysNum {
		return fmt.Errorf("childIdx %d out of keysNum %d", childIdx, keysNum)
	}

	if childIdx == keysNum {
		n.Header.RightChild = pageIdx
		return nil
	}

	n.ICells[childIdx].Child = pageIdx
	return nil
}

func (n *InternalNode) RemoveLastCell() {
	idx := n.Header.KeysNum - 1
	n.Header.RightChild = n.ICells[idx].Child
	n.ICells[idx] = ICell{}
	n.Header.KeysNum -= 1
}

func (n *InternalNode) Keys() []uint32 {
	keys := make([]uint32, 0, n.Header.KeysNum)
	for idx := range n.Header.KeysNum {
		keys = append(keys, n.ICells[idx].Key)
	}
	return keys
}

func (n *InternalNode) Children() []PageIndex {
	children := make([]PageIndex, 0, n.Header.KeysNum+1)
	for idx := range n.Header.KeysNum {
		children = append(children, n.ICells[idx].Child)
	}
	if n.Header.RightChild != RIGHT_CHILD_NOT_SET {
		children = append(children, n.Header.RightChild)
	}
	return children
}
