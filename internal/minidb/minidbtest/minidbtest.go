package minidbtest

import (
	"math"

	"github.com/brianvoe/gofakeit/v7"

	"github.com/RichardKnop/minidb/internal/minidb"
)

type DataGen struct {
	*gofakeit.Faker
}

func NewDataGen(seed uint64) *DataGen {
	g := DataGen{
		Faker: gofakeit.New(seed),
	}

	return &g
}

func (g *DataGen) Row() minidb.Row {
	username := g.Username()
	if len(username) > minidb.UsernameSize {
		username = username[:minidb.UsernameSize]
	}
	email := g.Email()
	if len(email) > minidb.EmailSize {
		email = email[:minidb.EmailSize]
	}
	return minidb.Row{
		ID:       int32(g.IntRange(0, math.MaxInt32-1)),
		Username: username,
		Email:    email,
	}
}

// Rows generates rows with unique IDs, this is important in most tests
func (g *DataGen) Rows(number int) []minidb.Row {
	idMap := map[int32]struct{}{}
	rows := make([]minidb.Row, 0, number)
	for i := 0; i < number; i++ {
		aRow := g.Row()
		_, ok := idMap[aRow.ID]
		for ok {
			aRow = g.Row()
			_, ok = idMap[aRow.ID]
		}
		idMap[aRow.ID] = struct{}{}
		rows = append(rows, aRow)
	}
	return rows
}
