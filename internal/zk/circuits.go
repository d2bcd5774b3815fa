package zk

import (
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/hash/mimc"

	"battleship-p2p/internal/game"
)

const (
	maxSpan  = 5
	lastCell = game.BoardSize - 1
)

// ShipWitness is one ship record as the circuits see it.
type ShipWitness struct {
	Class frontend.Variable
	X     frontend.Variable
	Y     frontend.Variable
	Dir   frontend.Variable // 0 horizontal, 1 vertical
	Mask  frontend.Variable
}

// InitCircuit proves a hidden board satisfies the placement rules and hashes to Digest.
type InitCircuit struct {
	Ships  [game.NumShips]ShipWitness `gnark:",secret"`
	Pepper frontend.Variable          `gnark:",secret"`

	Digest frontend.Variable `gnark:",public"`
}

// RoundCircuit proves OldDigest -> NewDigest is one application of the shot, with outcome Result.
type RoundCircuit struct {
	Ships  [game.NumShips]ShipWitness `gnark:",secret"`
	Pepper frontend.Variable          `gnark:",secret"`

	OldDigest frontend.Variable `gnark:",public"`
	NewDigest frontend.Variable `gnark:",public"`
	ShotX     frontend.Variable `gnark:",public"`
	ShotY     frontend.Variable `gnark:",public"`
	Result    frontend.Variable `gnark:",public"` // game.HitType.Code()
}

type classInfo struct {
	onehot   [game.NumShips]frontend.Variable
	span     frontend.Variable
	sunkMask frontend.Variable
	inSpan   [maxSpan]frontend.Variable // inSpan[k] = 1 iff cell k belongs to the ship
}

// decodeClass constrains Class to the catalog and Dir to {0,1}.
func decodeClass(api frontend.API, s ShipWitness) classInfo {
	var ci classInfo
	total := frontend.Variable(0)
	span := frontend.Variable(0)
	sunk := frontend.Variable(0)
	for c, class := range game.Classes() {
		ci.onehot[c] = api.IsZero(api.Sub(s.Class, c))
		total = api.Add(total, ci.onehot[c])
		span = api.Add(span, api.Mul(ci.onehot[c], int(class.Span())))
		sunk = api.Add(sunk, api.Mul(ci.onehot[c], int(class.SunkMask())))
	}
	api.AssertIsEqual(total, 1)
	api.AssertIsBoolean(s.Dir)
	ci.span = span
	ci.sunkMask = sunk

	for k := 0; k < maxSpan; k++ {
		acc := frontend.Variable(0)
		for c, class := range game.Classes() {
			if int(class.Span()) > k {
				acc = api.Add(acc, ci.onehot[c])
			}
		}
		ci.inSpan[k] = acc
	}
	return ci
}

// cell returns the k-th cell along the ship.
func cell(api frontend.API, s ShipWitness, k int) (frontend.Variable, frontend.Variable) {
	if k == 0 {
		return s.X, s.Y
	}
	x := api.Add(s.X, api.Mul(k, api.Sub(1, s.Dir)))
	y := api.Add(s.Y, api.Mul(k, s.Dir))
	return x, y
}

func sameCell(api frontend.API, x1, y1, x2, y2 frontend.Variable) frontend.Variable {
	return api.Mul(api.IsZero(api.Sub(x1, x2)), api.IsZero(api.Sub(y1, y2)))
}

// boardDigest mirrors commitment.Commit with masks taken from the masks argument.
func boardDigest(api frontend.API, ships [game.NumShips]ShipWitness, masks [game.NumShips]frontend.Variable, pepper frontend.Variable) (frontend.Variable, error) {
	h, err := mimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	h.Reset()
	h.Write(game.NumShips)
	for i, s := range ships {
		h.Write(s.Class, s.X, s.Y, s.Dir, masks[i])
	}
	h.Write(pepper)
	return h.Sum(), nil
}

func currentMasks(ships [game.NumShips]ShipWitness) [game.NumShips]frontend.Variable {
	var out [game.NumShips]frontend.Variable
	for i, s := range ships {
		out[i] = s.Mask
	}
	return out
}

func (c *InitCircuit) Define(api frontend.API) error {
	var info [game.NumShips]classInfo
	for i, s := range c.Ships {
		info[i] = decodeClass(api, s)
		api.AssertIsEqual(s.Mask, 0)

		// anchor and last cell on the board
		api.AssertIsLessOrEqual(s.X, lastCell)
		api.AssertIsLessOrEqual(s.Y, lastCell)
		length := api.Sub(info[i].span, 1)
		api.AssertIsLessOrEqual(api.Add(s.X, api.Mul(length, api.Sub(1, s.Dir))), lastCell)
		api.AssertIsLessOrEqual(api.Add(s.Y, api.Mul(length, s.Dir)), lastCell)
	}

	// one ship per class
	for cls := range game.Classes() {
		count := frontend.Variable(0)
		for i := range c.Ships {
			count = api.Add(count, info[i].onehot[cls])
		}
		api.AssertIsEqual(count, 1)
	}

	// no shared cells
	for i := 0; i < game.NumShips; i++ {
		for j := i + 1; j < game.NumShips; j++ {
			for k := 0; k < maxSpan; k++ {
				xi, yi := cell(api, c.Ships[i], k)
				for l := 0; l < maxSpan; l++ {
					xj, yj := cell(api, c.Ships[j], l)
					clash := api.Mul(sameCell(api, xi, yi, xj, yj), info[i].inSpan[k], info[j].inSpan[l])
					api.AssertIsEqual(clash, 0)
				}
			}
		}
	}

	d, err := boardDigest(api, c.Ships, currentMasks(c.Ships), c.Pepper)
	if err != nil {
		return err
	}
	api.AssertIsEqual(d, c.Digest)
	return nil
}

func (c *RoundCircuit) Define(api frontend.API) error {
	old, err := boardDigest(api, c.Ships, currentMasks(c.Ships), c.Pepper)
	if err != nil {
		return err
	}
	api.AssertIsEqual(old, c.OldDigest)

	found := frontend.Variable(0)
	result := frontend.Variable(0)
	var masks [game.NumShips]frontend.Variable
	for i, s := range c.Ships {
		info := decodeClass(api, s)
		bits := api.ToBinary(s.Mask, maxSpan)

		var match [maxSpan]frontend.Variable
		covers := frontend.Variable(0)
		for k := 0; k < maxSpan; k++ {
			x, y := cell(api, s, k)
			match[k] = api.Mul(info.inSpan[k], sameCell(api, x, y, c.ShotX, c.ShotY))
			covers = api.Add(covers, match[k])
		}

		// only the first covering ship in stored order takes the shot
		take := api.Mul(covers, api.Sub(1, found))
		found = api.Add(found, take)

		next := make([]frontend.Variable, maxSpan)
		for k := range next {
			set := api.Mul(take, match[k])
			next[k] = api.Sub(api.Add(bits[k], set), api.Mul(bits[k], set))
		}
		masks[i] = api.FromBinary(next...)

		sunk := api.Mul(take, api.IsZero(api.Sub(masks[i], info.sunkMask)))
		result = api.Add(result, take, api.Mul(sunk, api.Add(s.Class, 1)))
	}
	api.AssertIsEqual(result, c.Result)

	nd, err := boardDigest(api, c.Ships, masks, c.Pepper)
	if err != nil {
		return err
	}
	api.AssertIsEqual(nd, c.NewDigest)
	return nil
}
