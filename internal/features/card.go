package features

import (
	"fmt"
	"strings"
)

const (
	cardSize    = 5
	columnRange = 15
)

// Card is a 5x5 bingo card indexed [row][column]. Column c holds numbers
// from c*15+1 to c*15+15. The centre cell is free and holds 0.
type Card [cardSize][cardSize]int

// DrawCard fills a card using perm, which must behave like rand.Perm.
func DrawCard(perm func(n int) []int) Card {
	var c Card
	for col := 0; col < cardSize; col++ {
		picks := perm(columnRange)[:cardSize]
		for row, p := range picks {
			c[row][col] = col*columnRange + p + 1
		}
	}
	c[cardSize/2][cardSize/2] = 0
	return c
}

// String renders the card with a BINGO header.
func (c Card) String() string {
	var b strings.Builder
	b.WriteString(" B   I   N   G   O\n")
	for _, row := range c {
		cells := make([]string, 0, cardSize)
		for _, n := range row {
			if n == 0 {
				cells = append(cells, " ★")
				continue
			}
			cells = append(cells, fmt.Sprintf("%2d", n))
		}
		b.WriteString(strings.Join(cells, "  "))
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
