package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"

	"battleship-p2p/internal/game"
)

const (
	water = "."
	miss  = "o"
	hit   = "X"
)

func header() []string {
	row := []string{""}
	for x := 0; x < game.BoardSize; x++ {
		row = append(row, strconv.Itoa(x))
	}
	return row
}

func grid(cell func(p game.Position) string) (string, error) {
	data := pterm.TableData{header()}
	for y := uint32(0); y < game.BoardSize; y++ {
		row := []string{strconv.Itoa(int(y))}
		for x := uint32(0); x < game.BoardSize; x++ {
			row = append(row, cell(game.Pos(x, y)))
		}
		data = append(data, row)
	}
	return pterm.DefaultTable.WithHasHeader().WithSeparator(" ").WithData(data).Srender()
}

// RenderOwn draws our board with ships and the opponent's shots on it.
func RenderOwn(b *game.Board, incoming *Tracker) (string, error) {
	return grid(func(p game.Position) string {
		ship, _, onShip := b.ShipAt(p)
		switch incoming.Cell(p) {
		case HitMark:
			return pterm.Red(hit)
		case MissMark:
			return pterm.Cyan(miss)
		}
		if onShip {
			return ship.Class.Symbol()
		}
		return pterm.Gray(water)
	})
}

// RenderTarget draws what we know about the opponent board.
func RenderTarget(t *Tracker) (string, error) {
	return grid(func(p game.Position) string {
		switch t.Cell(p) {
		case HitMark:
			return pterm.Red(hit)
		case MissMark:
			return pterm.Cyan(miss)
		}
		return pterm.Gray(water)
	})
}

// Summary is a one-line account of a tracker, e.g. "12 shots, 5 hits, sunk: Destroyer; 4 ships left".
func Summary(t *Tracker) string {
	sunk := "none"
	if s := t.Sunk(); len(s) > 0 {
		names := make([]string, len(s))
		for i, c := range s {
			names[i] = c.String()
		}
		sunk = strings.Join(names, ", ")
	}
	return fmt.Sprintf("%d shots, %d hits, sunk: %s; %d ships left", t.Shots(), t.Hits(), sunk, t.ShipsRemaining())
}
