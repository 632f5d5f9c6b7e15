package util

import (
	"fmt"
	"io"
	"strings"

	"github.com/RichardKnop/minidb/internal/minidb"
)

const (
	truncatedStringEnd = " ..."
	maxLength          = 40
)

func PrintTableHeader(w io.Writer, columns []minidb.Column) {
	columnSize, tableWidth := computeTableSize(columns)

	// add top horizontal border
	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))

	for i, aColumn := range columns {
		// pad with columnSize[i] spaces on the right rather than the left
		// (left-justify the field), an asterisk * in the format specifies
		// that the padding size should be given as an argument
		fmt.Fprintf(w, "| %-*s ", columnSize[i], aColumn.Name)
		// new line after last cell in a row
		if i == len(columns)-1 {
			fmt.Fprintf(w, "|\n")
		}
	}

	// add horizontal border bellow the header row
	fmt.Fprintf(w, "+%s+\n", strings.Repeat("-", tableWidth-2))
}

func PrintTableRow(w io.Writer, columns []minidb.Column, aRow minidb.Row) {
	columnSize, _ := computeTableSize(columns)

	values := []any{aRow.ID, aRow.Username, aRow.Email}
	for i, aValue := range values {
		aStringValue := fmt.Sprint(aValue)
		r := []rune(aStringValue)
		if len(r) >= maxLength-len(truncatedStringEnd) {
			aStringValue = string(r[0:maxLength-len(truncatedStringEnd)]) + truncatedStringEnd
		}
		fmt.Fprintf(w, "| %-*s ", columnSize[i], aStringValue)
	}
	fmt.Fprintf(w, "|\n")
}

func computeTableSize(columns []minidb.Column) ([]int, int) {
	var (
		columnSize = make([]int, len(columns))
		tableWidth = 1
	)
	for i, aColumn := range columns {
		size := int(aColumn.Size)
		if size > maxLength {
			size = maxLength
		}
		if size < len(aColumn.Name) {
			size = len(aColumn.Name)
		}
		columnSize[i] = size
		// cell width plus "| " and trailing " "
		tableWidth += size + 3
	}
	return columnSize, tableWidth
}
