// Package zktest provides a fast keyed stand-in for the Groth16 engine.
//
// An Oracle "proves" by evaluating the statement natively and tagging the claims with an
// HMAC under its key. Two oracles built from the same key accept each other's proofs; a proof
// whose claims were altered after the fact does not verify. It is only sound between parties
// that already trust each other, which is what tests need.
package zktest

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"fmt"
	"sync/atomic"

	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
	"battleship-p2p/internal/zk"
)

var errBadTag = errors.New("tag mismatch")

type Oracle struct {
	key []byte

	// Proofs counts successful Prove calls.
	Proofs atomic.Int64
}

var _ zk.Engine = (*Oracle)(nil)

func New(key string) *Oracle { return &Oracle{key: []byte(key)} }

func (o *Oracle) tag(kind statement.Kind, claims []byte) []byte {
	m := hmac.New(sha256.New, o.key)
	m.Write([]byte{byte(kind)})
	m.Write(claims)
	return m.Sum(nil)
}

func (o *Oracle) KeyID() zk.KeyID {
	return zk.KeyID(sha256.Sum256(o.key))
}

func (o *Oracle) ProveInit(ctx context.Context, b *game.Board) (statement.InitClaims, []byte, error) {
	if err := ctx.Err(); err != nil {
		return statement.InitClaims{}, nil, err
	}
	claims, err := statement.EvaluateInit(b)
	if err != nil {
		return statement.InitClaims{}, nil, fmt.Errorf("%w: %w", zk.ErrProver, err)
	}
	o.Proofs.Add(1)
	return claims, o.tag(statement.KindInit, claims.Bytes()), nil
}

func (o *Oracle) ProveRound(ctx context.Context, b *game.Board, shot game.Position) (statement.RoundClaims, []byte, error) {
	if err := ctx.Err(); err != nil {
		return statement.RoundClaims{}, nil, err
	}
	claims, err := statement.EvaluateRound(b, shot)
	if err != nil {
		return statement.RoundClaims{}, nil, fmt.Errorf("%w: %w", zk.ErrProver, err)
	}
	o.Proofs.Add(1)
	return claims, o.tag(statement.KindRound, claims.Bytes()), nil
}

func (o *Oracle) VerifyInit(claims statement.InitClaims, proof []byte) error {
	if !hmac.Equal(proof, o.tag(statement.KindInit, claims.Bytes())) {
		return fmt.Errorf("%w: %w", zk.ErrVerify, errBadTag)
	}
	return nil
}

func (o *Oracle) VerifyRound(claims statement.RoundClaims, proof []byte) error {
	if !hmac.Equal(proof, o.tag(statement.KindRound, claims.Bytes())) {
		return fmt.Errorf("%w: %w", zk.ErrVerify, errBadTag)
	}
	return nil
}

// Failing wraps an engine and makes every Prove call fail.
type Failing struct {
	zk.Engine
}

func (f Failing) ProveInit(context.Context, *game.Board) (statement.InitClaims, []byte, error) {
	return statement.InitClaims{}, nil, fmt.Errorf("%w: disabled", zk.ErrProver)
}

func (f Failing) ProveRound(context.Context, *game.Board, game.Position) (statement.RoundClaims, []byte, error) {
	return statement.RoundClaims{}, nil, fmt.Errorf("%w: disabled", zk.ErrProver)
}
