package app

import (
	"context"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"battleship-p2p/internal/codec"
	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
	"battleship-p2p/internal/zk"
	"battleship-p2p/internal/zk/zktest"
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
		Pepper: [game.PepperSize]byte{1, 2, 3},
	}
}

func service() *Service {
	o := zktest.New("shared")
	return New(o, o, zerolog.Nop())
}

func TestCommitAndVerifyInit(t *testing.T) {
	s := service()
	res, err := s.Commit(context.Background(), board())
	require.NoError(t, err)
	assert.Equal(t, commitment.Commit(board()), res.Digest)
	assert.NoError(t, s.VerifyInit(res.Digest, res.Envelope))

	err = s.VerifyInit(commitment.Digest{1}, res.Envelope)
	assert.ErrorIs(t, err, ErrCommitmentMismatch)
	assert.ErrorIs(t, err, ErrVerification)

	other := New(zktest.New("other"), zktest.New("other"), zerolog.Nop())
	assert.ErrorIs(t, other.VerifyInit(res.Digest, res.Envelope), ErrBadProof)
	assert.ErrorIs(t, s.VerifyInit(res.Digest, []byte("junk")), ErrBadProof)
}

func TestCommitRejectsInvalidBoard(t *testing.T) {
	b := board()
	b.Ships[4].Pos = game.Pos(2, 4)
	_, err := service().Commit(context.Background(), b)
	assert.ErrorIs(t, err, game.ErrOverlap)
}

func TestShootAdvancesBoardAndVerifies(t *testing.T) {
	s := service()
	b := board()
	old := commitment.Commit(b)

	res, err := s.Shoot(context.Background(), b, game.Pos(2, 3))
	require.NoError(t, err)
	assert.Equal(t, game.Hit(), res.Hit)
	assert.Equal(t, commitment.Commit(b), res.NewDigest)
	assert.NotEqual(t, old, res.NewDigest)

	claims, err := s.VerifyRound(old, game.Pos(2, 3), codec.ShotResult{
		Position: game.Pos(2, 3), HitType: res.Hit, Proof: res.Envelope,
	})
	require.NoError(t, err)
	assert.Equal(t, res.NewDigest, claims.NewDigest)
}

func TestShootLeavesBoardOnProverFailure(t *testing.T) {
	s := New(zktest.Failing{Engine: zktest.New("k")}, zktest.New("k"), zerolog.Nop())
	b := board()
	before := commitment.Commit(b)
	_, err := s.Shoot(context.Background(), b, game.Pos(2, 3))
	assert.ErrorIs(t, err, zk.ErrProver)
	assert.Equal(t, before, commitment.Commit(b))
}

func TestShootCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := board()
	_, err := service().Shoot(ctx, b, game.Pos(2, 3))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, b.Ships[0].HitMask)
}

func TestVerifyRoundChecks(t *testing.T) {
	s := service()
	b := board()
	old := commitment.Commit(b)
	res, err := s.Shoot(context.Background(), b, game.Pos(7, 7))
	require.NoError(t, err)
	good := codec.ShotResult{Position: game.Pos(7, 7), HitType: res.Hit, Proof: res.Envelope}

	cases := []struct {
		name      string
		expected  commitment.Digest
		requested game.Position
		mutate    func(r *codec.ShotResult)
		want      error
	}{
		{"message position", old, game.Pos(7, 7), func(r *codec.ShotResult) { r.Position = game.Pos(0, 0) }, ErrShotMismatch},
		{"proof for other shot", old, game.Pos(8, 7), func(r *codec.ShotResult) { r.Position = game.Pos(8, 7) }, ErrShotMismatch},
		{"stale", commitment.Digest{9}, game.Pos(7, 7), func(*codec.ShotResult) {}, ErrStaleState},
		{"hit", old, game.Pos(7, 7), func(r *codec.ShotResult) { r.HitType = game.Miss() }, ErrHitMismatch},
		{"garbage", old, game.Pos(7, 7), func(r *codec.ShotResult) { r.Proof = []byte{0} }, ErrBadProof},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := good
			tc.mutate(&r)
			_, err := s.VerifyRound(tc.expected, tc.requested, r)
			assert.ErrorIs(t, err, tc.want)
			assert.ErrorIs(t, err, ErrVerification)
		})
	}
}

func TestVerifyRoundForgedClaims(t *testing.T) {
	s := service()
	b := board()
	old := commitment.Commit(b)
	claims, proof, err := zktest.New("shared").ProveRound(context.Background(), b, game.Pos(7, 7))
	require.NoError(t, err)

	claims.Hit = game.Miss()
	env, err := codec.NewRoundEnvelope(claims, proof).Encode()
	require.NoError(t, err)
	_, err = s.VerifyRound(old, game.Pos(7, 7), codec.ShotResult{Position: game.Pos(7, 7), HitType: game.Miss(), Proof: env})
	assert.ErrorIs(t, err, ErrBadProof)

	// an init envelope cannot stand in for a round proof
	initEnv, err := codec.NewInitEnvelope(statement.InitClaims{Digest: old}, proof).Encode()
	require.NoError(t, err)
	_, err = s.VerifyRound(old, game.Pos(7, 7), codec.ShotResult{Position: game.Pos(7, 7), HitType: game.Hit(), Proof: initEnv})
	assert.ErrorIs(t, err, ErrBadProof)
}

func TestVerifyRoundStaleRegardlessOfProof(t *testing.T) {
	s := service()
	b := board()
	_, err := s.Shoot(context.Background(), b, game.Pos(2, 3))
	require.NoError(t, err)

	// opponent answers the second shot with a valid proof over its initial board
	held := commitment.Commit(b)
	replay, err := s.Shoot(context.Background(), board(), game.Pos(2, 4))
	require.NoError(t, err)
	_, err = s.VerifyRound(held, game.Pos(2, 4), codec.ShotResult{Position: game.Pos(2, 4), HitType: replay.Hit, Proof: replay.Envelope})
	assert.ErrorIs(t, err, ErrStaleState)
}

// rewriteClaim replaces one claim field of an encoded envelope and keeps its proof.
func rewriteClaim(t *testing.T, env []byte, section, field uint64, v any) []byte {
	t.Helper()
	var m map[uint64]any
	require.NoError(t, cbor.Unmarshal(env, &m))
	claims, ok := m[section].(map[any]any)
	require.True(t, ok)
	claims[field] = v
	out, err := cbor.Marshal(m)
	require.NoError(t, err)
	return out
}

func plusModulus(d commitment.Digest) []byte {
	return new(big.Int).Add(d.BigInt(), fr.Modulus()).FillBytes(make([]byte, commitment.DigestSize))
}

func TestVerifyRoundRejectsAliasedNewDigest(t *testing.T) {
	s := service()
	b := board()
	old := commitment.Commit(b)
	res, err := s.Shoot(context.Background(), b, game.Pos(2, 3))
	require.NoError(t, err)

	env := rewriteClaim(t, res.Envelope, 3, 2, plusModulus(res.NewDigest))
	_, err = s.VerifyRound(old, game.Pos(2, 3), codec.ShotResult{Position: game.Pos(2, 3), HitType: res.Hit, Proof: env})
	assert.ErrorIs(t, err, ErrBadProof)
	assert.ErrorIs(t, err, codec.ErrMalformed)

	// untouched envelope still verifies and advances to the canonical digest
	claims, err := s.VerifyRound(old, game.Pos(2, 3), codec.ShotResult{Position: game.Pos(2, 3), HitType: res.Hit, Proof: res.Envelope})
	require.NoError(t, err)
	assert.Equal(t, commitment.Commit(b), claims.NewDigest)
}

func TestVerifyInitRejectsAliasedDigest(t *testing.T) {
	s := service()
	res, err := s.Commit(context.Background(), board())
	require.NoError(t, err)

	env := rewriteClaim(t, res.Envelope, 2, 1, plusModulus(res.Digest))
	err = s.VerifyInit(res.Digest, env)
	assert.ErrorIs(t, err, ErrBadProof)
	assert.ErrorIs(t, err, commitment.ErrNonCanonical)
}
