package game

import (
	"encoding/json"
	"fmt"
)

type HitKind uint8

const (
	KindMiss HitKind = iota
	KindHit
	KindSunk
)

// HitType is the public outcome of a shot. Class is meaningful only for KindSunk.
type HitType struct {
	Kind  HitKind
	Class ShipClass
}

func Miss() HitType                    { return HitType{Kind: KindMiss} }
func Hit() HitType                     { return HitType{Kind: KindHit} }
func Sunk(class ShipClass) HitType     { return HitType{Kind: KindSunk, Class: class} }
func (h HitType) IsMiss() bool         { return h.Kind == KindMiss }
func (h HitType) IsHit() bool          { return h.Kind == KindHit || h.Kind == KindSunk }
func (h HitType) Equal(o HitType) bool { return h.Code() == o.Code() }

// Code is the circuit encoding: miss=0, hit=1, sunk(c)=2+c.
func (h HitType) Code() uint64 {
	switch h.Kind {
	case KindHit:
		return 1
	case KindSunk:
		return 2 + uint64(h.Class)
	}
	return 0
}

func HitTypeFromCode(code uint64) (HitType, error) {
	switch {
	case code == 0:
		return Miss(), nil
	case code == 1:
		return Hit(), nil
	case code-2 < NumShips:
		return Sunk(ShipClass(code - 2)), nil
	}
	return HitType{}, fmt.Errorf("invalid hit code %d", code)
}

func (h HitType) String() string {
	switch h.Kind {
	case KindHit:
		return "Hit"
	case KindSunk:
		return fmt.Sprintf("Sunk(%s)", h.Class)
	}
	return "Miss"
}

type hitJSON struct {
	Kind  string     `json:"kind"`
	Class *ShipClass `json:"class,omitempty"`
}

func (h HitType) MarshalJSON() ([]byte, error) {
	switch h.Kind {
	case KindMiss:
		return json.Marshal(hitJSON{Kind: "miss"})
	case KindHit:
		return json.Marshal(hitJSON{Kind: "hit"})
	case KindSunk:
		c := h.Class
		if !c.Valid() {
			return nil, ErrUnknownClass
		}
		return json.Marshal(hitJSON{Kind: "sunk", Class: &c})
	}
	return nil, fmt.Errorf("invalid hit kind %d", h.Kind)
}

func (h *HitType) UnmarshalJSON(b []byte) error {
	var v hitJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.Kind {
	case "miss":
		*h = Miss()
	case "hit":
		*h = Hit()
	case "sunk":
		if v.Class == nil {
			return fmt.Errorf("sunk hit type without class")
		}
		*h = Sunk(*v.Class)
	default:
		return fmt.Errorf("invalid hit kind %q", v.Kind)
	}
	return nil
}
