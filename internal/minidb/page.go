package minidb

type Page struct {
	Index        PageIndex
	InternalNode *InternalNode
	LeafNode     *LeafNode
}

func (p *Page) isRoot() bool {
	if p.LeafNode != nil {
		return p.LeafNode.Header.IsRoot
	}
	return p.InternalNode.Header.IsRoot
}

func (p *Page) parent() PageIndex {
	if p.LeafNode != nil {
		return p.LeafNode.Header.Parent
	}
	return p.InternalNode.Header.Parent
}

func (p *Page) setParent(parentIdx PageIndex) {
	if p.LeafNode != nil {
		p.LeafNode.Header.Parent = parentIdx
	} else if p.InternalNode != nil {
		p.InternalNode.Header.Parent = parentIdx
	}
}
