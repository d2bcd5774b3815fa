package protocol

import (
	"context"
	"errors"
	"math/rand"
	"sync"

	"battleship-p2p/internal/display"
	"battleship-p2p/internal/game"
)

// Targeter picks the next shot. target holds verified results so far and must not be retained.
type Targeter interface {
	NextShot(ctx context.Context, target *display.Tracker) (game.Position, error)
}

type EventKind int

const (
	EventHandshake EventKind = iota + 1
	EventShotResult
	EventIncomingShot
	EventGameOver
)

// Event reports a step of the session after it has been verified and applied.
type Event struct {
	Kind     EventKind
	State    State
	Opponent string
	Position game.Position
	Hit      game.HitType
	Outcome  Outcome

	// Own and Target are owned by the session; read them only inside Observe.
	Board  *game.Board
	Own    *display.Tracker
	Target *display.Tracker
}

type Observer interface {
	Observe(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

var ErrNoTargets = errors.New("every cell already fired at")

// RandomTargeter fires at random cells it has not tried before.
type RandomTargeter struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomTargeter(seed int64) *RandomTargeter {
	return &RandomTargeter{rng: rand.New(rand.NewSource(seed))}
}

func (r *RandomTargeter) NextShot(ctx context.Context, target *display.Tracker) (game.Position, error) {
	if err := ctx.Err(); err != nil {
		return game.Position{}, err
	}
	open := make([]game.Position, 0, game.BoardSize*game.BoardSize)
	for y := uint32(0); y < game.BoardSize; y++ {
		for x := uint32(0); x < game.BoardSize; x++ {
			if p := game.Pos(x, y); !target.Fired(p) {
				open = append(open, p)
			}
		}
	}
	if len(open) == 0 {
		return game.Position{}, ErrNoTargets
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return open[r.rng.Intn(len(open))], nil
}
