package minidb

import (
	"bytes"
	"errors"
	"fmt"
)

var (
	ErrNegativeID  = errors.New("id must not be negative")
	ErrRowTooLarge = errors.New("row too large")
)

type Row struct {
	ID       int32
	Username string
	Email    string
}

// Validate checks the row against the fixed schema. It is called before
// any tree descent so a rejected row never mutates a page.
func (r Row) Validate() error {
	if r.ID < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeID, r.ID)
	}
	if len(r.Username) > UsernameSize {
		return fmt.Errorf("%w: username exceeds %d bytes", ErrRowTooLarge, UsernameSize)
	}
	if len(r.Email) > EmailSize {
		return fmt.Errorf("%w: email exceeds %d bytes", ErrRowTooLarge, EmailSize)
	}
	return nil
}

// Key returns the row ID as a tree key. Only valid after Validate,
// negative IDs do not map to keys.
func (r Row) Key() uint32 {
	return uint32(r.ID)
}

func (r Row) Marshal() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	buf := make([]byte, RowSize)
	marshalUint32(buf, uint32(r.ID), 0)
	copy(buf[4:], r.Username)
	copy(buf[4+UsernameSize+1:], r.Email)

	return buf, nil
}

func UnmarshalRow(buf []byte, aRow *Row) error {
	if len(buf) < RowSize {
		return fmt.Errorf("buffer of %d bytes too short for row", len(buf))
	}

	aRow.ID = int32(unmarshalUint32(buf, 0))
	aRow.Username = unmarshalString(buf, 4, UsernameSize+1)
	aRow.Email = unmarshalString(buf, 4+UsernameSize+1, EmailSize+1)

	return nil
}

func unmarshalString(buf []byte, offset, size uint64) string {
	field := buf[offset : offset+size]
	if end := bytes.IndexByte(field, 0); end >= 0 {
		field = field[:end]
	}
	return string(field)
}

func marshalUint32(buf []byte, n uint32, i uint64) {
	buf[i+0] = byte(n >> 0)
	buf[i+1] = byte(n >> 8)
	buf[i+2] = byte(n >> 16)
	buf[i+3] = byte(n >> 24)
}

func unmarshalUint32(buf []byte, i uint64) uint32 {
	return 0 |
		(uint32(buf[i+0]) << 0) |
		(uint32(buf[i+1]) << 8) |
		(uint32(buf[i+2]) << 16) |
		(uint32(buf[i+3]) << 24)
}
