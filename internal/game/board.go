package game

import (
	"crypto/rand"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	BoardSize  = 10
	NumShips   = 5
	PepperSize = 16
)

var (
	ErrInvalidBoard   = errors.New("invalid board")
	ErrOutOfBounds    = fmt.Errorf("%w: ship out of bounds", ErrInvalidBoard)
	ErrDuplicateClass = fmt.Errorf("%w: duplicate ship class", ErrInvalidBoard)
	ErrMissingClass   = fmt.Errorf("%w: missing ship class", ErrInvalidBoard)
	ErrOverlap        = fmt.Errorf("%w: ships overlap", ErrInvalidBoard)
	ErrUnknownClass   = fmt.Errorf("%w: unknown ship class", ErrInvalidBoard)
)

// Position is a board cell. X is the column, Y the row.
type Position struct {
	X uint32 `json:"x"`
	Y uint32 `json:"y"`
}

func Pos(x, y uint32) Position { return Position{X: x, Y: y} }

func (p Position) InBounds() bool { return p.X < BoardSize && p.Y < BoardSize }

// Step moves dist cells along dir.
func (p Position) Step(dir Direction, dist uint32) Position {
	if dir == Vertical {
		return Position{X: p.X, Y: p.Y + dist}
	}
	return Position{X: p.X + dist, Y: p.Y}
}

func (p Position) String() string { return fmt.Sprintf("(%d, %d)", p.X, p.Y) }

// ParsePosition accepts "x,y" with optional spaces.
func ParsePosition(s string) (Position, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Position{}, fmt.Errorf("invalid position %q: use x,y", s)
	}
	x, err := strconv.ParseUint(strings.TrimSpace(parts[0]), 10, 32)
	if err != nil || x >= BoardSize {
		return Position{}, fmt.Errorf("x must be between 0 and %d", BoardSize-1)
	}
	y, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 32)
	if err != nil || y >= BoardSize {
		return Position{}, fmt.Errorf("y must be between 0 and %d", BoardSize-1)
	}
	return Pos(uint32(x), uint32(y)), nil
}

type Direction uint8

const (
	Horizontal Direction = iota
	Vertical
)

func (d Direction) String() string {
	if d == Vertical {
		return "vertical"
	}
	return "horizontal"
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "h", "horizontal":
		return Horizontal, nil
	case "v", "vertical":
		return Vertical, nil
	}
	return 0, fmt.Errorf("invalid direction %q: use h or v", s)
}

// ShipClass values double as the class index in the commitment encoding.
type ShipClass uint8

const (
	Carrier ShipClass = iota
	Battleship
	Cruiser
	Submarine
	Destroyer
)

var classes = [NumShips]ShipClass{Carrier, Battleship, Cruiser, Submarine, Destroyer}

var classNames = [NumShips]string{"Carrier", "Battleship", "Cruiser", "Submarine", "Destroyer"}

var spans = [NumShips]uint32{5, 4, 3, 3, 2}

// Classes returns the fixed catalog in index order.
func Classes() []ShipClass { return classes[:] }

func (c ShipClass) Valid() bool { return int(c) < NumShips }

func (c ShipClass) Span() uint32 {
	if !c.Valid() {
		return 0
	}
	return spans[c]
}

// SunkMask is the all-ones hit mask for the class.
func (c ShipClass) SunkMask() uint8 { return uint8(1)<<c.Span() - 1 }

func (c ShipClass) String() string {
	if !c.Valid() {
		return fmt.Sprintf("ShipClass(%d)", uint8(c))
	}
	return classNames[c]
}

// Symbol is the single-letter marker used on rendered boards.
func (c ShipClass) Symbol() string {
	switch c {
	case Carrier:
		return "A"
	case Battleship:
		return "B"
	case Cruiser:
		return "C"
	case Submarine:
		return "S"
	case Destroyer:
		return "D"
	}
	return "?"
}

func (c ShipClass) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, ErrUnknownClass
	}
	return []byte(c.String()), nil
}

func (c *ShipClass) UnmarshalText(b []byte) error {
	v, err := ParseShipClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func ParseShipClass(s string) (ShipClass, error) {
	for i, n := range classNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return ShipClass(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

type Ship struct {
	Class   ShipClass `json:"class"`
	Pos     Position  `json:"pos"`
	Dir     Direction `json:"dir"`
	HitMask uint8     `json:"hit_mask"`
}

func NewShip(class ShipClass, pos Position, dir Direction) Ship {
	return Ship{Class: class, Pos: pos, Dir: dir}
}

// Points lists the occupied cells, index i matching hit-mask bit i.
func (s Ship) Points() []Position {
	n := s.Class.Span()
	out := make([]Position, n)
	for i := uint32(0); i < n; i++ {
		out[i] = s.Pos.Step(s.Dir, i)
	}
	return out
}

func (s Ship) InBounds() bool {
	span := s.Class.Span()
	if span == 0 {
		return false
	}
	return s.Pos.InBounds() && s.Pos.Step(s.Dir, span-1).InBounds()
}

func (s Ship) Intersects(o Ship) bool {
	for _, p := range s.Points() {
		for _, q := range o.Points() {
			if p == q {
				return true
			}
		}
	}
	return false
}

func (s Ship) Sunk() bool { return s.Class.Valid() && s.HitMask == s.Class.SunkMask() }

func (s *Ship) applyShot(shot Position) (HitType, bool) {
	for i, p := range s.Points() {
		if p != shot {
			continue
		}
		s.HitMask |= 1 << uint(i)
		if s.Sunk() {
			return Sunk(s.Class), true
		}
		return Hit(), true
	}
	return Miss(), false
}

// Board is the committed game state: ships in stored order plus the pepper.
type Board struct {
	Ships  []Ship           `json:"ships"`
	Pepper [PepperSize]byte `json:"pepper"`
}

func NewBoard(pepper [PepperSize]byte) *Board {
	return &Board{Ships: make([]Ship, 0, NumShips), Pepper: pepper}
}

// NewPepper draws a fresh salt from crypto/rand.
func NewPepper() ([PepperSize]byte, error) {
	var p [PepperSize]byte
	if _, err := rand.Read(p[:]); err != nil {
		return p, fmt.Errorf("generate pepper: %w", err)
	}
	return p, nil
}

func (b *Board) Clone() *Board {
	cp := &Board{Ships: make([]Ship, len(b.Ships)), Pepper: b.Pepper}
	copy(cp.Ships, b.Ships)
	return cp
}

// AddShip appends ship if it keeps the board consistent; the board is untouched on error.
func (b *Board) AddShip(ship Ship) error {
	if !ship.Class.Valid() {
		return ErrUnknownClass
	}
	if !ship.InBounds() {
		return fmt.Errorf("%w: %s at %s", ErrOutOfBounds, ship.Class, ship.Pos)
	}
	for _, s := range b.Ships {
		if s.Class == ship.Class {
			return fmt.Errorf("%w: %s", ErrDuplicateClass, ship.Class)
		}
		if s.Intersects(ship) {
			return fmt.Errorf("%w: %s and %s", ErrOverlap, s.Class, ship.Class)
		}
	}
	b.Ships = append(b.Ships, ship)
	return nil
}

func (b *Board) Check() bool { return b.Validate() == nil }

// Validate reports the first broken invariant.
func (b *Board) Validate() error {
	for _, s := range b.Ships {
		if !s.Class.Valid() {
			return ErrUnknownClass
		}
		if !s.InBounds() {
			return fmt.Errorf("%w: %s at %s", ErrOutOfBounds, s.Class, s.Pos)
		}
	}

	var seen [NumShips]bool
	for _, s := range b.Ships {
		if seen[s.Class] {
			return fmt.Errorf("%w: %s", ErrDuplicateClass, s.Class)
		}
		seen[s.Class] = true
	}
	for c, ok := range seen {
		if !ok {
			return fmt.Errorf("%w: %s", ErrMissingClass, ShipClass(c))
		}
	}

	for i := range b.Ships {
		for j := i + 1; j < len(b.Ships); j++ {
			if b.Ships[i].Intersects(b.Ships[j]) {
				return fmt.Errorf("%w: %s and %s", ErrOverlap, b.Ships[i].Class, b.Ships[j].Class)
			}
		}
	}
	return nil
}

// ApplyShot marks the first ship in stored order that covers pos.
func (b *Board) ApplyShot(pos Position) HitType {
	for i := range b.Ships {
		if hit, ok := b.Ships[i].applyShot(pos); ok {
			return hit
		}
	}
	return Miss()
}

func (b *Board) AllSunk() bool {
	if len(b.Ships) == 0 {
		return false
	}
	for _, s := range b.Ships {
		if !s.Sunk() {
			return false
		}
	}
	return true
}

// ShipAt returns the ship covering pos and the cell index along it.
func (b *Board) ShipAt(pos Position) (Ship, int, bool) {
	for _, s := range b.Ships {
		for i, p := range s.Points() {
			if p == pos {
				return s, i, true
			}
		}
	}
	return Ship{}, 0, false
}
