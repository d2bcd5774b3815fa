package codec

import (
	"errors"
	"fmt"

	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/zk"
)

var ErrInvalidMessage = errors.New("invalid message")

type MessageType string

const (
	TypeBoardReady MessageType = "board_ready"
	TypeTakeShot   MessageType = "take_shot"
	TypeShotResult MessageType = "shot_result"
	TypeGameOver   MessageType = "game_over"
	TypeError      MessageType = "error"
)

// BoardReady announces the sender's commitment together with its init proof envelope.
type BoardReady struct {
	Commitment commitment.Digest `json:"commitment"`
	Name       string            `json:"name,omitempty"`
	Proof      []byte            `json:"proof"` // encoded Envelope
	KeyID      zk.KeyID          `json:"key_id"`
}

type TakeShot struct {
	Position game.Position `json:"position"`
}

type ShotResult struct {
	Position game.Position `json:"position"`
	HitType  game.HitType  `json:"hit_type"`
	Proof    []byte        `json:"proof"` // encoded Envelope
}

type GameOver struct {
	Winner string `json:"winner"`
}

type ErrorMsg struct {
	Message string `json:"message"`
}

// Message is the wire union; exactly the payload named by Type is set.
type Message struct {
	Type       MessageType `json:"type"`
	BoardReady *BoardReady `json:"board_ready,omitempty"`
	TakeShot   *TakeShot   `json:"take_shot,omitempty"`
	ShotResult *ShotResult `json:"shot_result,omitempty"`
	GameOver   *GameOver   `json:"game_over,omitempty"`
	Error      *ErrorMsg   `json:"error,omitempty"`
}

func NewBoardReady(br BoardReady) Message { return Message{Type: TypeBoardReady, BoardReady: &br} }

func NewTakeShot(pos game.Position) Message {
	return Message{Type: TypeTakeShot, TakeShot: &TakeShot{Position: pos}}
}

func NewShotResult(pos game.Position, hit game.HitType, proof []byte) Message {
	return Message{Type: TypeShotResult, ShotResult: &ShotResult{Position: pos, HitType: hit, Proof: proof}}
}

func NewGameOver(winner string) Message {
	return Message{Type: TypeGameOver, GameOver: &GameOver{Winner: winner}}
}

func NewError(msg string) Message {
	return Message{Type: TypeError, Error: &ErrorMsg{Message: msg}}
}

func (m Message) payloads() int {
	n := 0
	for _, set := range []bool{m.BoardReady != nil, m.TakeShot != nil, m.ShotResult != nil, m.GameOver != nil, m.Error != nil} {
		if set {
			n++
		}
	}
	return n
}

// Validate checks that the payload matches Type and nothing else is attached.
func (m Message) Validate() error {
	var ok bool
	switch m.Type {
	case TypeBoardReady:
		ok = m.BoardReady != nil && len(m.BoardReady.Proof) > 0
	case TypeTakeShot:
		ok = m.TakeShot != nil
	case TypeShotResult:
		ok = m.ShotResult != nil && len(m.ShotResult.Proof) > 0
	case TypeGameOver:
		ok = m.GameOver != nil
	case TypeError:
		ok = m.Error != nil
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, m.Type)
	}
	if !ok || m.payloads() != 1 {
		return fmt.Errorf("%w: bad payload for %s", ErrInvalidMessage, m.Type)
	}
	return nil
}

func (m Message) String() string {
	switch m.Type {
	case TypeTakeShot:
		if m.TakeShot != nil {
			return fmt.Sprintf("take_shot%s", m.TakeShot.Position)
		}
	case TypeShotResult:
		if m.ShotResult != nil {
			return fmt.Sprintf("shot_result%s=%s", m.ShotResult.Position, m.ShotResult.HitType)
		}
	case TypeError:
		if m.Error != nil {
			return fmt.Sprintf("error(%q)", m.Error.Message)
		}
	}
	return string(m.Type)
}
