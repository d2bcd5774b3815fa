// Package display keeps the verified shot history and renders boards for the terminal.
package display

import (
	"sort"

	"battleship-p2p/internal/game"
)

type Mark uint8

const (
	Unknown Mark = iota
	MissMark
	HitMark
)

// Tracker records verified outcomes of shots at one board.
type Tracker struct {
	shots map[game.Position]game.HitType
	order []game.Position
	hits  int
	sunk  map[game.ShipClass]bool
}

func NewTracker() *Tracker {
	return &Tracker{
		shots: make(map[game.Position]game.HitType),
		sunk:  make(map[game.ShipClass]bool),
	}
}

// Record stores the outcome of a shot. Repeats keep the first entry in the history
// but still register a sink.
func (t *Tracker) Record(pos game.Position, hit game.HitType) {
	prev, seen := t.shots[pos]
	if !seen {
		t.order = append(t.order, pos)
	}
	if hit.IsHit() && (!seen || prev.IsMiss()) {
		t.hits++
	}
	if !seen || prev.IsMiss() || hit.Kind == game.KindSunk {
		t.shots[pos] = hit
	}
	if hit.Kind == game.KindSunk {
		t.sunk[hit.Class] = true
	}
}

func (t *Tracker) Shot(pos game.Position) (game.HitType, bool) {
	h, ok := t.shots[pos]
	return h, ok
}

func (t *Tracker) Fired(pos game.Position) bool {
	_, ok := t.shots[pos]
	return ok
}

func (t *Tracker) Cell(pos game.Position) Mark {
	h, ok := t.shots[pos]
	switch {
	case !ok:
		return Unknown
	case h.IsHit():
		return HitMark
	}
	return MissMark
}

func (t *Tracker) Shots() int { return len(t.order) }
func (t *Tracker) Hits() int  { return t.hits }

// History returns shot positions in the order they were first fired.
func (t *Tracker) History() []game.Position {
	return append([]game.Position(nil), t.order...)
}

// Sunk lists sunk classes in catalog order.
func (t *Tracker) Sunk() []game.ShipClass {
	out := make([]game.ShipClass, 0, len(t.sunk))
	for c := range t.sunk {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (t *Tracker) ShipsRemaining() int { return game.NumShips - len(t.sunk) }
