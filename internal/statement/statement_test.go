package statement

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
)

func board() *game.Board {
	return &game.Board{
		Ships: []game.Ship{
			game.NewShip(game.Carrier, game.Pos(2, 3), game.Vertical),
			game.NewShip(game.Battleship, game.Pos(3, 1), game.Horizontal),
			game.NewShip(game.Cruiser, game.Pos(4, 7), game.Vertical),
			game.NewShip(game.Submarine, game.Pos(7, 5), game.Horizontal),
			game.NewShip(game.Destroyer, game.Pos(7, 7), game.Horizontal),
		},
		Pepper: [game.PepperSize]byte{9},
	}
}

func TestEvaluateInit(t *testing.T) {
	b := board()
	claims, err := EvaluateInit(b)
	require.NoError(t, err)
	assert.Equal(t, commitment.Commit(b), claims.Digest)

	b.Ships[4].Pos = game.Pos(2, 4)
	_, err = EvaluateInit(b)
	assert.ErrorIs(t, err, ErrUnsatisfied)
}

func TestEvaluateInitRejectsPreHitBoards(t *testing.T) {
	b := board()
	b.ApplyShot(game.Pos(2, 3))
	_, err := EvaluateInit(b)
	assert.ErrorIs(t, err, ErrUnsatisfied)
}

func TestEvaluateRoundLeavesWitnessUntouched(t *testing.T) {
	b := board()
	before := commitment.Commit(b)

	claims, err := EvaluateRound(b, game.Pos(2, 3))
	require.NoError(t, err)
	assert.Equal(t, before, commitment.Commit(b))
	assert.Equal(t, before, claims.OldDigest)
	assert.Equal(t, game.Hit(), claims.Hit)
	assert.Equal(t, game.Pos(2, 3), claims.Shot)

	b.ApplyShot(game.Pos(2, 3))
	assert.Equal(t, commitment.Commit(b), claims.NewDigest)
}

func TestEvaluateRoundChainsDigests(t *testing.T) {
	b := board()
	prev := commitment.Commit(b)
	for y := uint32(3); y <= 7; y++ {
		claims, err := EvaluateRound(b, game.Pos(2, y))
		require.NoError(t, err)
		assert.Equal(t, prev, claims.OldDigest)
		assert.NotEqual(t, claims.OldDigest, claims.NewDigest)
		b.ApplyShot(game.Pos(2, y))
		prev = claims.NewDigest
		if y == 7 {
			assert.Equal(t, game.Sunk(game.Carrier), claims.Hit)
		}
	}
}

func TestEvaluateRoundMissKeepsDigest(t *testing.T) {
	claims, err := EvaluateRound(board(), game.Pos(0, 0))
	require.NoError(t, err)
	assert.Equal(t, game.Miss(), claims.Hit)
	assert.Equal(t, claims.OldDigest, claims.NewDigest)
}

func TestEvaluateRoundRejectsMalformedWitness(t *testing.T) {
	b := board()
	b.Ships = b.Ships[:3]
	_, err := EvaluateRound(b, game.Pos(0, 0))
	assert.ErrorIs(t, err, ErrUnsatisfied)

	b = board()
	b.Ships[4].HitMask = 0b100
	_, err = EvaluateRound(b, game.Pos(0, 0))
	assert.ErrorIs(t, err, ErrUnsatisfied)

	_, err = EvaluateRound(board(), game.Pos(10, 0))
	assert.ErrorIs(t, err, ErrUnsatisfied)
}

func TestRoundClaimsBytesDistinguishFields(t *testing.T) {
	c, err := EvaluateRound(board(), game.Pos(7, 7))
	require.NoError(t, err)
	other := c
	other.Hit = game.Miss()
	assert.NotEqual(t, c.Bytes(), other.Bytes())
	other = c
	other.Shot = game.Pos(7, 8)
	assert.NotEqual(t, c.Bytes(), other.Bytes())
}
