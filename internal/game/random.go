package game

import (
	"fmt"
	"math/rand"
)

// GenerateRandomBoard places the fleet on shuffled cells, trying both directions per cell.
func GenerateRandomBoard() (*Board, error) {
	pepper, err := NewPepper()
	if err != nil {
		return nil, err
	}
	return RandomBoard(rand.New(rand.NewSource(rand.Int63())), pepper)
}

func RandomBoard(rng *rand.Rand, pepper [PepperSize]byte) (*Board, error) {
	cells := make([]Position, 0, BoardSize*BoardSize)
	for x := uint32(0); x < BoardSize; x++ {
		for y := uint32(0); y < BoardSize; y++ {
			cells = append(cells, Pos(x, y))
		}
	}
	rng.Shuffle(len(cells), func(i, j int) { cells[i], cells[j] = cells[j], cells[i] })

	b := NewBoard(pepper)
next:
	for _, class := range Classes() {
		for _, p := range cells {
			for _, dir := range [2]Direction{Horizontal, Vertical} {
				if b.AddShip(NewShip(class, p, dir)) == nil {
					continue next
				}
			}
		}
		return nil, fmt.Errorf("failed to place %s", class)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}
