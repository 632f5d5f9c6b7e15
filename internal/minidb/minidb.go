package minidb

const (
	PageSize = 4096 // 4 kilobytes

	// Row layout:
	// id        4B
	// username 33B (32 bytes + terminating zero)
	// email   256B (255 bytes + terminating zero)
	UsernameSize = 32
	EmailSize    = 255
	RowSize      = 4 + UsernameSize + 1 + EmailSize + 1 // 293

	// Node layout:
	// Common header: type byte + root flag + parent page, 6 bytes.
	// Leaf header: common header + cell count + next leaf, 14 bytes.
	// Leaf cell: 4 byte key + row, 297 bytes.
	// (4096 - 14) / 297 = 13
	CommonHeaderSize  = 6
	LeafHeaderSize    = CommonHeaderSize + 8
	LeafCellSize      = 4 + RowSize
	LeafSpaceForCells = PageSize - LeafHeaderSize
	LeafNodeMaxCells  = LeafSpaceForCells / LeafCellSize

	// Internal header: common header + key count + right child, 14 bytes.
	// ICell: 4 byte child page + 4 byte key.
	// (4096 - 14) / 8 = 510
	InternalHeaderSize   = CommonHeaderSize + 8
	ICellSize            = 8
	InternalNodeMaxCells = (PageSize - InternalHeaderSize) / ICellSize
)

type PageIndex uint32

type Column struct {
	Name string
	Size uint32
}

// TableColumns describes the fixed row schema, used by clients
// rendering scan results.
var TableColumns = []Column{
	{Name: "id", Size: 4},
	{Name: "username", Size: UsernameSize},
	{Name: "email", Size: EmailSize},
}
