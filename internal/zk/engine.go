// Package zk holds the proving engine contract and its gnark Groth16 implementation.
package zk

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"

	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
)

var (
	// ErrProver means no proof could be produced, typically because the witness fails the statement.
	ErrProver = errors.New("proof generation failed")

	// ErrVerify means the proof does not verify against the claims and verifying key.
	ErrVerify = errors.New("proof verification failed")

	ErrKeysMissing    = errors.New("proving keys missing")
	ErrNotInitialized = errors.New("engine not initialized for proving")
)

func wrapProverError(kind statement.Kind, err error) error {
	return fmt.Errorf("%w: statement=%s: %w", ErrProver, kind, err)
}

func wrapVerifyError(kind statement.Kind, err error) error {
	return fmt.Errorf("%w: statement=%s: %w", ErrVerify, kind, err)
}

// Prover turns a private board into public claims plus opaque proof bytes.
type Prover interface {
	ProveInit(ctx context.Context, b *game.Board) (statement.InitClaims, []byte, error)
	// ProveRound proves shot against the pre-shot board b; b is not modified.
	ProveRound(ctx context.Context, b *game.Board, shot game.Position) (statement.RoundClaims, []byte, error)
}

// Verifier checks proofs against the fixed verifying keys.
type Verifier interface {
	VerifyInit(claims statement.InitClaims, proof []byte) error
	VerifyRound(claims statement.RoundClaims, proof []byte) error
	// KeyID fingerprints the verifying keys; peers with different IDs cannot check each other.
	KeyID() KeyID
}

type Engine interface {
	Prover
	Verifier
}

type KeyID [32]byte

func (k KeyID) String() string { return hex.EncodeToString(k[:]) }

func (k KeyID) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

func (k *KeyID) UnmarshalText(b []byte) error {
	if len(b) != 2*len(k) {
		return fmt.Errorf("key id must be %d hex digits", 2*len(k))
	}
	_, err := hex.Decode(k[:], b)
	return err
}

// runProver executes fn on a worker goroutine so the caller can stop waiting on ctx.
func runProver(ctx context.Context, fn func() ([]byte, error)) ([]byte, error) {
	type result struct {
		proof []byte
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		p, err := fn()
		ch <- result{p, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.proof, r.err
	}
}
