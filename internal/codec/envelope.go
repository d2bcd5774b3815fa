package codec

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
)

// MaxProofSize bounds the opaque proof inside an envelope.
const MaxProofSize = 64 << 10

var ErrMalformed = errors.New("malformed envelope")

// Envelope is a proof plus the public claims it attests to.
type Envelope struct {
	Kind  statement.Kind
	Init  *statement.InitClaims
	Round *statement.RoundClaims
	Proof []byte
}

func NewInitEnvelope(claims statement.InitClaims, proof []byte) Envelope {
	return Envelope{Kind: statement.KindInit, Init: &claims, Proof: proof}
}

func NewRoundEnvelope(claims statement.RoundClaims, proof []byte) Envelope {
	return Envelope{Kind: statement.KindRound, Round: &claims, Proof: proof}
}

type wireInit struct {
	Digest []byte `cbor:"1,keyasint"`
}

type wireRound struct {
	Old []byte `cbor:"1,keyasint"`
	New []byte `cbor:"2,keyasint"`
	X   uint32 `cbor:"3,keyasint"`
	Y   uint32 `cbor:"4,keyasint"`
	Hit uint64 `cbor:"5,keyasint"`
}

type wireEnvelope struct {
	Kind  uint8      `cbor:"1,keyasint"`
	Init  *wireInit  `cbor:"2,keyasint,omitempty"`
	Round *wireRound `cbor:"3,keyasint,omitempty"`
	Proof []byte     `cbor:"4,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	decMode, err = cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
		MaxNestedLevels:   4,
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

func (e Envelope) validate() error {
	switch e.Kind {
	case statement.KindInit:
		if e.Init == nil || e.Round != nil {
			return fmt.Errorf("%w: init envelope needs init claims only", ErrMalformed)
		}
	case statement.KindRound:
		if e.Round == nil || e.Init != nil {
			return fmt.Errorf("%w: round envelope needs round claims only", ErrMalformed)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrMalformed, e.Kind)
	}
	for _, d := range e.digests() {
		if err := d.CheckCanonical(); err != nil {
			return fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	}
	if len(e.Proof) == 0 {
		return fmt.Errorf("%w: empty proof", ErrMalformed)
	}
	if len(e.Proof) > MaxProofSize {
		return fmt.Errorf("%w: proof of %d bytes", ErrMalformed, len(e.Proof))
	}
	return nil
}

func (e Envelope) digests() []commitment.Digest {
	if e.Init != nil {
		return []commitment.Digest{e.Init.Digest}
	}
	return []commitment.Digest{e.Round.OldDigest, e.Round.NewDigest}
}

// Encode serializes the envelope as deterministic CBOR.
func (e Envelope) Encode() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	w := wireEnvelope{Kind: uint8(e.Kind), Proof: e.Proof}
	if e.Init != nil {
		w.Init = &wireInit{Digest: e.Init.Digest[:]}
	}
	if r := e.Round; r != nil {
		w.Round = &wireRound{
			Old: r.OldDigest[:],
			New: r.NewDigest[:],
			X:   r.Shot.X,
			Y:   r.Shot.Y,
			Hit: r.Hit.Code(),
		}
	}
	return encMode.Marshal(w)
}

func digest(b []byte) (commitment.Digest, error) {
	var d commitment.Digest
	if len(b) != len(d) {
		return d, fmt.Errorf("%w: digest of %d bytes", ErrMalformed, len(b))
	}
	copy(d[:], b)
	if err := d.CheckCanonical(); err != nil {
		return d, fmt.Errorf("%w: %w", ErrMalformed, err)
	}
	return d, nil
}

// DecodeEnvelope parses and checks an encoded envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	var w wireEnvelope
	if err := decMode.Unmarshal(data, &w); err != nil {
		return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	e := Envelope{Kind: statement.Kind(w.Kind), Proof: w.Proof}
	if w.Init != nil {
		d, err := digest(w.Init.Digest)
		if err != nil {
			return Envelope{}, err
		}
		e.Init = &statement.InitClaims{Digest: d}
	}
	if w.Round != nil {
		old, err := digest(w.Round.Old)
		if err != nil {
			return Envelope{}, err
		}
		next, err := digest(w.Round.New)
		if err != nil {
			return Envelope{}, err
		}
		hit, err := game.HitTypeFromCode(w.Round.Hit)
		if err != nil {
			return Envelope{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		e.Round = &statement.RoundClaims{
			OldDigest: old,
			NewDigest: next,
			Shot:      game.Pos(w.Round.X, w.Round.Y),
			Hit:       hit,
		}
	}
	if err := e.validate(); err != nil {
		return Envelope{}, err
	}
	return e, nil
}
