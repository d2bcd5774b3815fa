package zk

import (
	"fmt"

	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
)

func shipAssignments(b *game.Board) ([game.NumShips]ShipWitness, error) {
	var out [game.NumShips]ShipWitness
	if len(b.Ships) != game.NumShips {
		return out, fmt.Errorf("board has %d ships, want %d", len(b.Ships), game.NumShips)
	}
	for i, s := range b.Ships {
		out[i] = ShipWitness{
			Class: uint64(s.Class),
			X:     uint64(s.Pos.X),
			Y:     uint64(s.Pos.Y),
			Dir:   uint64(s.Dir),
			Mask:  uint64(s.HitMask),
		}
	}
	return out, nil
}

// InitAssignment is the full witness for the init statement.
func InitAssignment(b *game.Board, claims statement.InitClaims) (*InitCircuit, error) {
	ships, err := shipAssignments(b)
	if err != nil {
		return nil, err
	}
	return &InitCircuit{
		Ships:  ships,
		Pepper: commitment.PepperElement(b.Pepper),
		Digest: claims.Digest.BigInt(),
	}, nil
}

// RoundAssignment is the full witness for the round statement; b is the pre-shot board.
func RoundAssignment(b *game.Board, claims statement.RoundClaims) (*RoundCircuit, error) {
	ships, err := shipAssignments(b)
	if err != nil {
		return nil, err
	}
	a := roundPublic(claims)
	a.Ships = ships
	a.Pepper = commitment.PepperElement(b.Pepper)
	return a, nil
}

func initPublic(claims statement.InitClaims) *InitCircuit {
	return &InitCircuit{Digest: claims.Digest.BigInt()}
}

func roundPublic(claims statement.RoundClaims) *RoundCircuit {
	return &RoundCircuit{
		OldDigest: claims.OldDigest.BigInt(),
		NewDigest: claims.NewDigest.BigInt(),
		ShotX:     uint64(claims.Shot.X),
		ShotY:     uint64(claims.Shot.Y),
		Result:    claims.Hit.Code(),
	}
}
