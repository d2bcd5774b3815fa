// Package commitment binds a board's full current state to a 32-byte digest.
//
// The canonical encoding is a sequence of 32-byte big-endian BN254 field elements:
//
//	len(ships)
//	class, x, y, dir, hit_mask   (once per ship, stored order)
//	pepper                       (big-endian 128-bit integer)
//
// The digest is MiMC over that sequence, the same hash the circuits in internal/zk recompute.
package commitment

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	bnmimc "github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"

	"battleship-p2p/internal/game"
)

const (
	DigestSize  = 32
	ElementSize = 32
)

type Digest [DigestSize]byte

// ErrNonCanonical marks a digest at or above the BN254 scalar field modulus.
var ErrNonCanonical = errors.New("digest is not a canonical field element")

func (d Digest) String() string { return fmt.Sprintf("0x%x", d[:]) }

func (d Digest) IsZero() bool { return d == Digest{} }

func (d Digest) Equal(o Digest) bool { return d == o }

// BigInt returns the digest as the field element the circuits expose publicly.
func (d Digest) BigInt() *big.Int { return new(big.Int).SetBytes(d[:]) }

// CheckCanonical rejects digests that are not the reduced form of a field element.
func (d Digest) CheckCanonical() error {
	var e fr.Element
	if err := e.SetBytesCanonical(d[:]); err != nil {
		return fmt.Errorf("%w: %v", ErrNonCanonical, err)
	}
	return nil
}

func (d Digest) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Digest) UnmarshalText(b []byte) error {
	v, err := ParseDigest(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// ParseDigest accepts 64 hex digits with or without a 0x prefix.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if len(s) != 2*DigestSize {
		return d, fmt.Errorf("digest must be %d hex digits, got %d", 2*DigestSize, len(s))
	}
	if _, err := hex.Decode(d[:], []byte(s)); err != nil {
		return d, fmt.Errorf("invalid digest hex: %w", err)
	}
	return d, d.CheckCanonical()
}

// DigestFromBigInt converts a field element back into digest form.
func DigestFromBigInt(x *big.Int) (Digest, error) {
	var d Digest
	if x == nil || x.Sign() < 0 || x.BitLen() > 8*DigestSize {
		return d, fmt.Errorf("value does not fit a digest")
	}
	x.FillBytes(d[:])
	return d, d.CheckCanonical()
}

func feBytes(x *big.Int) []byte {
	out := make([]byte, ElementSize)
	return x.FillBytes(out)
}

// Elements lists the field elements hashed for b, in canonical order.
func Elements(b *game.Board) []*big.Int {
	out := make([]*big.Int, 0, 1+5*len(b.Ships)+1)
	out = append(out, big.NewInt(int64(len(b.Ships))))
	for _, s := range b.Ships {
		out = append(out,
			new(big.Int).SetUint64(uint64(s.Class)),
			new(big.Int).SetUint64(uint64(s.Pos.X)),
			new(big.Int).SetUint64(uint64(s.Pos.Y)),
			new(big.Int).SetUint64(uint64(s.Dir)),
			new(big.Int).SetUint64(uint64(s.HitMask)),
		)
	}
	out = append(out, PepperElement(b.Pepper))
	return out
}

func PepperElement(p [game.PepperSize]byte) *big.Int { return new(big.Int).SetBytes(p[:]) }

// Encode returns the canonical byte form of b.
func Encode(b *game.Board) []byte {
	var buf bytes.Buffer
	for _, e := range Elements(b) {
		buf.Write(feBytes(e))
	}
	return buf.Bytes()
}

// Commit hashes the canonical encoding of b.
func Commit(b *game.Board) Digest {
	h := bnmimc.NewMiMC()
	h.Write(Encode(b))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}
