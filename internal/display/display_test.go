package display

import (
	"strings"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship-p2p/internal/game"
)

func init() { pterm.DisableStyling() }

func TestTrackerCounts(t *testing.T) {
	tr := NewTracker()
	tr.Record(game.Pos(0, 0), game.Miss())
	tr.Record(game.Pos(1, 1), game.Hit())
	tr.Record(game.Pos(1, 1), game.Hit())
	tr.Record(game.Pos(1, 2), game.Sunk(game.Destroyer))

	assert.Equal(t, 3, tr.Shots())
	assert.Equal(t, 2, tr.Hits())
	assert.Equal(t, []game.ShipClass{game.Destroyer}, tr.Sunk())
	assert.Equal(t, game.NumShips-1, tr.ShipsRemaining())
	assert.Equal(t, MissMark, tr.Cell(game.Pos(0, 0)))
	assert.Equal(t, HitMark, tr.Cell(game.Pos(1, 2)))
	assert.Equal(t, Unknown, tr.Cell(game.Pos(9, 9)))
	assert.True(t, tr.Fired(game.Pos(1, 1)))
	assert.Equal(t, []game.Position{game.Pos(0, 0), game.Pos(1, 1), game.Pos(1, 2)}, tr.History())
}

func TestTrackerAllSunk(t *testing.T) {
	tr := NewTracker()
	for i, c := range game.Classes() {
		tr.Record(game.Pos(uint32(i), 0), game.Sunk(c))
	}
	assert.Zero(t, tr.ShipsRemaining())
	assert.Contains(t, Summary(tr), "0 ships left")
}

func TestRender(t *testing.T) {
	b := game.NewBoard([game.PepperSize]byte{})
	require.NoError(t, b.AddShip(game.NewShip(game.Carrier, game.Pos(0, 0), game.Horizontal)))
	in := NewTracker()
	in.Record(game.Pos(0, 0), game.Hit())
	in.Record(game.Pos(5, 5), game.Miss())

	own, err := RenderOwn(b, in)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimRight(own, "\n"), "\n")
	require.Len(t, lines, game.BoardSize+1)
	assert.Contains(t, lines[1], "X")
	assert.Contains(t, lines[1], "A")
	assert.Contains(t, lines[6], "o")

	target, err := RenderTarget(in)
	require.NoError(t, err)
	assert.NotContains(t, target, "A")
	assert.Contains(t, target, "X")
}
