// Package statement defines the two relations the proving engine attests to, and evaluates
// them natively so provers and tests agree on the expected public outputs.
package statement

import (
	"encoding/binary"
	"errors"
	"fmt"

	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
)

// ErrUnsatisfied means the witness does not satisfy the statement; no proof may exist for it.
var ErrUnsatisfied = errors.New("statement not satisfied")

type Kind uint8

const (
	KindInit Kind = iota + 1
	KindRound
)

func (k Kind) String() string {
	switch k {
	case KindInit:
		return "init"
	case KindRound:
		return "round"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// InitClaims is the public output of the init statement.
type InitClaims struct {
	Digest commitment.Digest `json:"digest"`
}

// RoundClaims are the public inputs and outputs of the round statement.
type RoundClaims struct {
	OldDigest commitment.Digest `json:"old_digest"`
	NewDigest commitment.Digest `json:"new_digest"`
	Shot      game.Position     `json:"shot"`
	Hit       game.HitType      `json:"hit"`
}

// Bytes is a fixed-width encoding of the claims: old || new || x || y || hit code.
func (c RoundClaims) Bytes() []byte {
	out := make([]byte, 0, 2*commitment.DigestSize+4+4+8)
	out = append(out, c.OldDigest[:]...)
	out = append(out, c.NewDigest[:]...)
	out = binary.BigEndian.AppendUint32(out, c.Shot.X)
	out = binary.BigEndian.AppendUint32(out, c.Shot.Y)
	out = binary.BigEndian.AppendUint64(out, c.Hit.Code())
	return out
}

func (c InitClaims) Bytes() []byte { return append([]byte(nil), c.Digest[:]...) }

// EvaluateInit checks the board invariants and returns the digest the proof must expose.
func EvaluateInit(b *game.Board) (InitClaims, error) {
	if err := b.Validate(); err != nil {
		return InitClaims{}, fmt.Errorf("%w: %v", ErrUnsatisfied, err)
	}
	for _, s := range b.Ships {
		if s.HitMask != 0 {
			return InitClaims{}, fmt.Errorf("%w: %s already carries hits", ErrUnsatisfied, s.Class)
		}
	}
	return InitClaims{Digest: commitment.Commit(b)}, nil
}

// EvaluateRound applies shot to a copy of b and reports the transition.
func EvaluateRound(b *game.Board, shot game.Position) (RoundClaims, error) {
	if len(b.Ships) != game.NumShips {
		return RoundClaims{}, fmt.Errorf("%w: board has %d ships, want %d", ErrUnsatisfied, len(b.Ships), game.NumShips)
	}
	for _, s := range b.Ships {
		if !s.Class.Valid() || s.HitMask>>s.Class.Span() != 0 {
			return RoundClaims{}, fmt.Errorf("%w: malformed ship record", ErrUnsatisfied)
		}
	}
	if !shot.InBounds() {
		return RoundClaims{}, fmt.Errorf("%w: shot %s out of bounds", ErrUnsatisfied, shot)
	}
	next := b.Clone()
	old := commitment.Commit(b)
	hit := next.ApplyShot(shot)
	return RoundClaims{
		OldDigest: old,
		NewDigest: commitment.Commit(next),
		Shot:      shot,
		Hit:       hit,
	}, nil
}
