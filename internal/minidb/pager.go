package minidb

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrCorruptFile = errors.New("corrupt database file")
	ErrIO          = errors.New("i/o failure")
)

type DBFile interface {
	io.ReadSeeker
	io.ReaderAt
	io.WriterAt
}

type Pager struct {
	totalPages uint32 // total number of pages

	pages []*Page

	file     DBFile
	fileSize int64
}

// NewPager opens the database file and derives the current page count
func NewPager(file DBFile) (*Pager, error) {
	aPager := &Pager{
		file:  file,
		pages: make([]*Page, 0, 100),
	}

	fileSize, err := aPager.file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, err
	}
	aPager.fileSize = fileSize

	// Basic check to verify file size is a multiple of page size (4096B)
	if fileSize%PageSize != 0 {
		return nil, fmt.Errorf("%w: file size %d is not divisible by page size", ErrCorruptFile, fileSize)
	}

	aPager.totalPages = uint32(fileSize / PageSize)

	return aPager, nil
}

func (p *Pager) TotalPages() uint32 {
	return p.totalPages
}

// GetPage returns the cached page if resident, otherwise loads it from the
// file. Requesting the index right past the current page count allocates a
// fresh zeroed leaf page, page numbers never skip.
func (p *Pager) GetPage(ctx context.Context, pageIdx PageIndex) (*Page, error) {
	if len(p.pages) > int(pageIdx) && p.pages[pageIdx] != nil {
		return p.pages[pageIdx], nil
	}

	if uint32(pageIdx) > p.totalPages {
		return nil, fmt.Errorf("cannot skip index when getting page, index: %d, number of pages: %d", pageIdx, p.totalPages)
	}

	// Requesting a new page
	if uint32(pageIdx) == p.totalPages {
		leaf := NewLeafNode()
		if pageIdx == 0 {
			// Empty database, page 0 starts out as a root leaf
			leaf.Header.IsRoot = true
		}
		// After reopening a persisted file only pages touched by descent
		// are resident, the slice can be shorter than the page count
		for len(p.pages) < int(pageIdx) {
			p.pages = append(p.pages, nil)
		}
		p.pages = append(p.pages, &Page{Index: pageIdx, LeafNode: leaf})
		p.totalPages = uint32(pageIdx) + 1
		return p.pages[pageIdx], nil
	}

	// Page should exist, load it from the file
	buf := make([]byte, PageSize)
	offset := int64(pageIdx) * PageSize
	if _, err := p.file.ReadAt(buf, offset); err != nil {
		return nil, fmt.Errorf("%w: read page %d: %s", ErrIO, pageIdx, err)
	}

	if len(p.pages) < int(pageIdx)+1 {
		// Extend pages slice
		for i := len(p.pages); i < int(pageIdx)+1; i++ {
			p.pages = append(p.pages, nil)
		}
	}

	// First byte is the page type flag
	if buf[0] == PageTypeLeaf {
		leaf := NewLeafNode()
		if _, err := leaf.Unmarshal(buf); err != nil {
			return nil, err
		}
		p.pages[pageIdx] = &Page{Index: pageIdx, LeafNode: leaf}
	} else {
		internal := NewInternalNode()
		if _, err := internal.Unmarshal(buf); err != nil {
			return nil, err
		}
		p.pages[pageIdx] = &Page{Index: pageIdx, InternalNode: internal}
	}

	return p.pages[pageIdx], nil
}

// Flush writes the full page back to its file offset. Pages that were
// never materialized are skipped.
func (p *Pager) Flush(ctx context.Context, pageIdx PageIndex) error {
	if int(pageIdx) >= len(p.pages) || p.pages[pageIdx] == nil {
		return nil
	}

	aPage := p.pages[pageIdx]

	buf := make([]byte, PageSize)
	if aPage.LeafNode != nil {
		if _, err := aPage.LeafNode.Marshal(buf); err != nil {
			return err
		}
	} else if aPage.InternalNode != nil {
		if _, err := aPage.InternalNode.Marshal(buf); err != nil {
			return err
		}
	} else {
		return fmt.Errorf("error flushing, page %d is neither internal nor leaf node", pageIdx)
	}

	if _, err := p.file.WriteAt(buf, int64(pageIdx)*PageSize); err != nil {
		return fmt.Errorf("%w: write page %d: %s", ErrIO, pageIdx, err)
	}

	return nil
}
