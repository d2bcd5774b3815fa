package zktest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
	"battleship-p2p/internal/zk"
)

func board() *game.Board {
	return &game.Board{
		Ships: []game.Ship{
			game.NewShip(game.Carrier, game.Pos(0, 0), game.Horizontal),
			game.NewShip(game.Battleship, game.Pos(0, 2), game.Horizontal),
			game.NewShip(game.Cruiser, game.Pos(0, 4), game.Horizontal),
			game.NewShip(game.Submarine, game.Pos(0, 6), game.Horizontal),
			game.NewShip(game.Destroyer, game.Pos(0, 8), game.Horizontal),
		},
	}
}

func TestOracleRoundTrip(t *testing.T) {
	ctx := context.Background()
	a, b := New("k"), New("k")
	require.Equal(t, a.KeyID(), b.KeyID())

	ic, proof, err := a.ProveInit(ctx, board())
	require.NoError(t, err)
	assert.NoError(t, b.VerifyInit(ic, proof))

	rc, rproof, err := a.ProveRound(ctx, board(), game.Pos(1, 0))
	require.NoError(t, err)
	assert.NoError(t, b.VerifyRound(rc, rproof))
	assert.Equal(t, int64(2), a.Proofs.Load())

	forged := rc
	forged.Hit = game.Miss()
	assert.ErrorIs(t, b.VerifyRound(forged, rproof), zk.ErrVerify)
	assert.ErrorIs(t, b.VerifyInit(ic, rproof), zk.ErrVerify)
}

func TestOracleKeysDiffer(t *testing.T) {
	a, b := New("a"), New("b")
	assert.NotEqual(t, a.KeyID(), b.KeyID())
	ic, proof, err := a.ProveInit(context.Background(), board())
	require.NoError(t, err)
	assert.ErrorIs(t, b.VerifyInit(ic, proof), zk.ErrVerify)
}

func TestOracleRefusesUnsatisfiedStatements(t *testing.T) {
	bad := board()
	bad.Ships[1].Pos = game.Pos(0, 0)
	_, _, err := New("k").ProveInit(context.Background(), bad)
	assert.ErrorIs(t, err, zk.ErrProver)
	assert.ErrorIs(t, err, statement.ErrUnsatisfied)

	_, _, err = New("k").ProveRound(context.Background(), board(), game.Pos(11, 0))
	assert.ErrorIs(t, err, statement.ErrUnsatisfied)
}

func TestFailing(t *testing.T) {
	f := Failing{New("k")}
	_, _, err := f.ProveRound(context.Background(), board(), game.Pos(0, 0))
	assert.ErrorIs(t, err, zk.ErrProver)
}
