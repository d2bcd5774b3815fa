// Package protocol runs one game between two peers over a message connection:
// commitment handshake, alternating shots, verification of every result, and game end.
package protocol

import (
	"errors"
	"fmt"

	"battleship-p2p/internal/game"
)

var (
	ErrProtocol          = errors.New("protocol error")
	ErrUnexpectedMessage = fmt.Errorf("%w: unexpected message", ErrProtocol)
	ErrInvalidShot       = fmt.Errorf("%w: invalid shot", ErrProtocol)
	ErrRemote            = fmt.Errorf("%w: remote error", ErrProtocol)
	ErrKeyMismatch       = fmt.Errorf("%w: verifying key mismatch", ErrProtocol)
	ErrPrematureGameOver = fmt.Errorf("%w: premature game over", ErrProtocol)

	ErrTransport      = errors.New("transport error")
	ErrDisconnected   = fmt.Errorf("%w: disconnected", ErrTransport)
	ErrMalformedFrame = fmt.Errorf("%w: malformed frame", ErrTransport)
	ErrFrameTooLarge  = fmt.Errorf("%w: frame too large", ErrTransport)
)

type State int

const (
	StateInit State = iota
	StateHandshakeSent
	StateHandshakeComplete
	StateMyTurn
	StateMyExtraShot
	StateOpponentTurn
	StateOpponentExtraShot
	StateGameOver
	StateAborted
)

var stateNames = [...]string{
	StateInit:              "init",
	StateHandshakeSent:     "handshake_sent",
	StateHandshakeComplete: "handshake_complete",
	StateMyTurn:            "my_turn",
	StateMyExtraShot:       "my_extra_shot",
	StateOpponentTurn:      "opponent_turn",
	StateOpponentExtraShot: "opponent_extra_shot",
	StateGameOver:          "game_over",
	StateAborted:           "aborted",
}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Shooting reports whether we fire next in s.
func (s State) Shooting() bool { return s == StateMyTurn || s == StateMyExtraShot }

// Defending reports whether the opponent fires next in s.
func (s State) Defending() bool { return s == StateOpponentTurn || s == StateOpponentExtraShot }

func (s State) Terminal() bool { return s == StateGameOver || s == StateAborted }

// NextState applies the turn rule: a hit keeps the turn with the shooter, a miss passes it.
// States outside play are returned unchanged.
func NextState(s State, hit game.HitType) State {
	switch {
	case s.Shooting() && hit.IsHit():
		return StateMyExtraShot
	case s.Shooting():
		return StateOpponentTurn
	case s.Defending() && hit.IsHit():
		return StateOpponentExtraShot
	case s.Defending():
		return StateMyTurn
	}
	return s
}

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeWin
	OutcomeLoss
)

func (o Outcome) String() string {
	switch o {
	case OutcomeWin:
		return "win"
	case OutcomeLoss:
		return "loss"
	}
	return "none"
}

func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// Role decides who fires first: the host does.
type Role int

const (
	RoleHost Role = iota
	RoleGuest
)

func (r Role) String() string {
	if r == RoleHost {
		return "host"
	}
	return "guest"
}
