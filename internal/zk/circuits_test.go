package zk

import (
	"context"
	"testing"

	"github.com/consensys/gnark/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
)

func testBoard() *game.Board {
	return &game.Board{
		Ships: []game.Ship{
			game.NewShip(game.Carrier, game.Pos(2, 3), game.Vertical),
			game.NewShip(game.Battleship, game.Pos(3, 1), game.Horizontal),
			game.NewShip(game.Cruiser, game.Pos(4, 7), game.Vertical),
			game.NewShip(game.Submarine, game.Pos(7, 5), game.Horizontal),
			game.NewShip(game.Destroyer, game.Pos(7, 7), game.Horizontal),
		},
		Pepper: [game.PepperSize]byte{0xde, 0xad, 0xbe, 0xef},
	}
}

func initSolved(t *testing.T, b *game.Board) error {
	t.Helper()
	assign, err := InitAssignment(b, statement.InitClaims{Digest: commitment.Commit(b)})
	require.NoError(t, err)
	return test.IsSolved(&InitCircuit{}, assign, curve.ScalarField())
}

func TestInitCircuitAcceptsValidBoard(t *testing.T) {
	assert.NoError(t, initSolved(t, testBoard()))
}

func TestInitCircuitRejectsInvalidBoards(t *testing.T) {
	cases := map[string]func(b *game.Board){
		"overlap":         func(b *game.Board) { b.Ships[4].Pos = game.Pos(1, 4) },
		"off board":       func(b *game.Board) { b.Ships[0].Pos = game.Pos(2, 6) },
		"anchor off":      func(b *game.Board) { b.Ships[4].Pos = game.Pos(10, 0) },
		"duplicate class": func(b *game.Board) { b.Ships[3].Class = game.Cruiser },
		"unknown class":   func(b *game.Board) { b.Ships[3].Class = 7 },
		"pre-hit":         func(b *game.Board) { b.Ships[1].HitMask = 1 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := testBoard()
			mutate(b)
			assert.Error(t, initSolved(t, b))
		})
	}
}

func TestInitCircuitRejectsWrongDigest(t *testing.T) {
	b := testBoard()
	other := testBoard()
	other.Pepper[0] ^= 1
	assign, err := InitAssignment(b, statement.InitClaims{Digest: commitment.Commit(other)})
	require.NoError(t, err)
	assert.Error(t, test.IsSolved(&InitCircuit{}, assign, curve.ScalarField()))
}

func roundSolved(t *testing.T, b *game.Board, claims statement.RoundClaims) error {
	t.Helper()
	assign, err := RoundAssignment(b, claims)
	require.NoError(t, err)
	return test.IsSolved(&RoundCircuit{}, assign, curve.ScalarField())
}

func TestRoundCircuitMatchesApplyShot(t *testing.T) {
	b := testBoard()
	shots := []game.Position{
		game.Pos(0, 0), // miss
		game.Pos(7, 7), // destroyer hit
		game.Pos(7, 7), // repeat
		game.Pos(8, 7), // destroyer sunk
		game.Pos(2, 3),
	}
	for _, shot := range shots {
		claims, err := statement.EvaluateRound(b, shot)
		require.NoError(t, err)
		assert.NoError(t, roundSolved(t, b, claims), "shot %s", shot)
		b.ApplyShot(shot)
	}
}

func TestRoundCircuitRejectsFalseClaims(t *testing.T) {
	b := testBoard()
	claims, err := statement.EvaluateRound(b, game.Pos(7, 7))
	require.NoError(t, err)
	require.Equal(t, game.Hit(), claims.Hit)

	lie := claims
	lie.Hit = game.Miss()
	assert.Error(t, roundSolved(t, b, lie))

	lie = claims
	lie.NewDigest = claims.OldDigest
	assert.Error(t, roundSolved(t, b, lie))

	lie = claims
	lie.Shot = game.Pos(0, 0)
	assert.Error(t, roundSolved(t, b, lie))

	stale := b.Clone()
	stale.Pepper[1] ^= 0xff
	assert.Error(t, roundSolved(t, stale, claims))
}

func TestRoundCircuitSunkCode(t *testing.T) {
	b := testBoard()
	b.Ships[4].HitMask = 0b01
	claims, err := statement.EvaluateRound(b, game.Pos(8, 7))
	require.NoError(t, err)
	require.Equal(t, game.Sunk(game.Destroyer), claims.Hit)
	assert.NoError(t, roundSolved(t, b, claims))

	lie := claims
	lie.Hit = game.Sunk(game.Carrier)
	assert.Error(t, roundSolved(t, b, lie))
	lie.Hit = game.Hit()
	assert.Error(t, roundSolved(t, b, lie))
}

func TestGroth16RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	dir := t.TempDir()
	require.NoError(t, EnsureKeys(dir, zerolog.Nop()))
	e, err := Load(dir, zerolog.Nop())
	require.NoError(t, err)

	ctx := context.Background()
	b := testBoard()
	ic, proof, err := e.ProveInit(ctx, b)
	require.NoError(t, err)
	require.NoError(t, e.VerifyInit(ic, proof))

	rc, rproof, err := e.ProveRound(ctx, b, game.Pos(2, 4))
	require.NoError(t, err)
	assert.Equal(t, ic.Digest, rc.OldDigest)
	require.NoError(t, e.VerifyRound(rc, rproof))

	forged := rc
	forged.Hit = game.Miss()
	assert.ErrorIs(t, e.VerifyRound(forged, rproof), ErrVerify)
	assert.ErrorIs(t, e.VerifyInit(ic, rproof), ErrVerify)

	v, err := LoadVerifier(dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, e.KeyID(), v.KeyID())
	require.NoError(t, v.VerifyRound(rc, rproof))
	_, _, err = v.ProveInit(ctx, b)
	assert.ErrorIs(t, err, ErrNotInitialized)

	bad := testBoard()
	bad.Ships[4].Pos = game.Pos(2, 4)
	_, _, err = e.ProveInit(ctx, bad)
	assert.ErrorIs(t, err, ErrProver)
	assert.ErrorIs(t, err, statement.ErrUnsatisfied)
}

func TestRunProverHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	block := make(chan struct{})
	defer close(block)
	_, err := runProver(ctx, func() ([]byte, error) {
		<-block
		return nil, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestKeyIDText(t *testing.T) {
	var id KeyID
	id[0], id[31] = 0xab, 0x01
	txt, err := id.MarshalText()
	require.NoError(t, err)
	var back KeyID
	require.NoError(t, back.UnmarshalText(txt))
	assert.Equal(t, id, back)
	assert.Error(t, back.UnmarshalText([]byte("abc")))
}
