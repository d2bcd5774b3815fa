package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"battleship-p2p/internal/app"
	"battleship-p2p/internal/codec"
	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/display"
	"battleship-p2p/internal/game"
)

type Config struct {
	Name     string
	Role     Role
	Board    *game.Board
	Service  *app.Service
	Targeter Targeter
	Observer Observer // optional
	Log      zerolog.Logger
}

// Session is one game from our side. All protocol steps run on the goroutine that
// calls Run; Status may be called from anywhere.
type Session struct {
	id       uuid.UUID
	name     string
	role     Role
	board    *game.Board
	svc      *app.Service
	targeter Targeter
	observer Observer
	log      zerolog.Logger
	started  time.Time

	mu       sync.RWMutex
	conn     Conn
	state    State
	own      commitment.Digest
	opp      commitment.Digest
	oppName  string
	incoming *display.Tracker // opponent shots at our board
	target   *display.Tracker // our shots at the opponent board
	outcome  Outcome
	err      error
}

func NewSession(cfg Config) (*Session, error) {
	if cfg.Board == nil || cfg.Service == nil || cfg.Targeter == nil {
		return nil, errors.New("session needs a board, a service and a targeter")
	}
	if err := cfg.Board.Validate(); err != nil {
		return nil, err
	}
	id := uuid.New()
	return &Session{
		id:       id,
		name:     cfg.Name,
		role:     cfg.Role,
		board:    cfg.Board,
		svc:      cfg.Service,
		targeter: cfg.Targeter,
		observer: cfg.Observer,
		log:      cfg.Log.With().Str("session", id.String()).Str("role", cfg.Role.String()).Logger(),
		started:  time.Now(),
		state:    StateInit,
		incoming: display.NewTracker(),
		target:   display.NewTracker(),
	}, nil
}

func (s *Session) ID() uuid.UUID { return s.id }

// Run plays a full game on conn and closes it on return. Cancelling ctx closes the
// connection, which unblocks any pending receive.
func (s *Session) Run(ctx context.Context, conn Conn) (Outcome, error) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	err := s.handshake(ctx)
	if err == nil {
		err = s.play(ctx)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ErrTransport) {
			err = ctxErr
		}
		return OutcomeNone, s.abort(err)
	}
	s.log.Info().Stringer("outcome", s.Outcome()).Msg("game finished")
	return s.Outcome(), nil
}

// abort records err, tells the peer why, and ends the session.
func (s *Session) abort(err error) error {
	s.mu.Lock()
	s.state = StateAborted
	s.err = err
	s.mu.Unlock()
	s.log.Error().Err(err).Msg("session aborted")
	if !errors.Is(err, ErrRemote) && !errors.Is(err, ErrTransport) {
		if sendErr := s.conn.Send(codec.NewError(err.Error())); sendErr != nil {
			s.log.Debug().Err(sendErr).Msg("could not report error to peer")
		}
	}
	return err
}

func (s *Session) setState(st State) {
	s.mu.Lock()
	prev := s.state
	s.state = st
	s.mu.Unlock()
	if prev != st {
		s.log.Debug().Stringer("from", prev).Stringer("to", st).Msg("state")
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Outcome() Outcome {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.outcome
}

func (s *Session) emit(e Event) {
	if s.observer == nil {
		return
	}
	e.State = s.State()
	e.Opponent = s.oppName
	e.Board = s.board
	e.Own = s.incoming
	e.Target = s.target
	s.observer.Observe(e)
}

// remoteOrUnexpected classifies a message that has no place in the current state.
func remoteOrUnexpected(msg codec.Message, st State) error {
	if msg.Type == codec.TypeError {
		return fmt.Errorf("%w: %s", ErrRemote, msg.Error.Message)
	}
	return fmt.Errorf("%w: %s in state %s", ErrUnexpectedMessage, msg.Type, st)
}

// handshake commits our board, sends it with its proof, and verifies the opponent's.
func (s *Session) handshake(ctx context.Context) error {
	res, err := s.svc.Commit(ctx, s.board)
	if err != nil {
		return fmt.Errorf("commit board: %w", err)
	}
	s.mu.Lock()
	s.own = res.Digest
	s.mu.Unlock()

	err = s.conn.Send(codec.NewBoardReady(codec.BoardReady{
		Commitment: res.Digest,
		Name:       s.name,
		Proof:      res.Envelope,
		KeyID:      s.svc.KeyID(),
	}))
	if err != nil {
		return err
	}
	s.setState(StateHandshakeSent)

	msg, err := s.conn.Receive()
	if err != nil {
		return err
	}
	if msg.Type != codec.TypeBoardReady {
		return remoteOrUnexpected(msg, StateHandshakeSent)
	}
	br := msg.BoardReady
	if br.KeyID != s.svc.KeyID() {
		return fmt.Errorf("%w: ours %s, theirs %s", ErrKeyMismatch, s.svc.KeyID(), br.KeyID)
	}
	if err := s.svc.VerifyInit(br.Commitment, br.Proof); err != nil {
		return err
	}

	s.mu.Lock()
	s.opp = br.Commitment
	s.oppName = br.Name
	s.state = StateHandshakeComplete
	s.mu.Unlock()
	s.log.Info().Str("opponent", br.Name).Stringer("commitment", br.Commitment).Msg("opponent board verified")

	if s.role == RoleHost {
		s.setState(StateMyTurn)
	} else {
		s.setState(StateOpponentTurn)
	}
	s.emit(Event{Kind: EventHandshake})
	return nil
}

// play alternates shots until the game ends or an error occurs.
func (s *Session) play(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		st := s.State()
		var err error
		switch {
		case st.Shooting():
			err = s.shoot(ctx, st)
		case st.Defending():
			err = s.defend(ctx, st)
		case st == StateGameOver:
			return nil
		default:
			return fmt.Errorf("%w: cannot play in state %s", ErrProtocol, st)
		}
		if err != nil {
			return err
		}
	}
}

func (s *Session) finish(o Outcome) {
	s.mu.Lock()
	s.outcome = o
	s.state = StateGameOver
	s.mu.Unlock()
	s.emit(Event{Kind: EventGameOver, Outcome: o})
}

// gameOverReceived accepts a GameOver only when our own fleet is gone.
func (s *Session) gameOverReceived(msg codec.Message) error {
	if !s.board.AllSunk() {
		return fmt.Errorf("%w: %s claims victory", ErrPrematureGameOver, msg.GameOver.Winner)
	}
	s.finish(OutcomeLoss)
	return nil
}

func (s *Session) shoot(ctx context.Context, st State) error {
	pos, err := s.targeter.NextShot(ctx, s.target)
	if err != nil {
		return fmt.Errorf("choose shot: %w", err)
	}
	if !pos.InBounds() {
		return fmt.Errorf("%w: targeter chose %s", ErrInvalidShot, pos)
	}
	if err := s.conn.Send(codec.NewTakeShot(pos)); err != nil {
		return err
	}

	msg, err := s.conn.Receive()
	if err != nil {
		return err
	}
	switch msg.Type {
	case codec.TypeShotResult:
	case codec.TypeGameOver:
		return s.gameOverReceived(msg)
	default:
		return remoteOrUnexpected(msg, st)
	}

	s.mu.RLock()
	held := s.opp
	s.mu.RUnlock()
	claims, err := s.svc.VerifyRound(held, pos, *msg.ShotResult)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.opp = claims.NewDigest
	s.target.Record(pos, claims.Hit)
	s.state = NextState(st, claims.Hit)
	remaining := s.target.ShipsRemaining()
	s.mu.Unlock()
	s.log.Info().Stringer("shot", pos).Stringer("hit", claims.Hit).Int("ships_left", remaining).Msg("shot verified")
	s.emit(Event{Kind: EventShotResult, Position: pos, Hit: claims.Hit})

	if remaining == 0 {
		if err := s.conn.Send(codec.NewGameOver(s.name)); err != nil {
			s.log.Warn().Err(err).Msg("could not announce game over")
		}
		s.finish(OutcomeWin)
	}
	return nil
}

func (s *Session) defend(ctx context.Context, st State) error {
	msg, err := s.conn.Receive()
	if err != nil {
		return err
	}
	switch msg.Type {
	case codec.TypeTakeShot:
	case codec.TypeGameOver:
		return s.gameOverReceived(msg)
	default:
		return remoteOrUnexpected(msg, st)
	}

	pos := msg.TakeShot.Position
	if !pos.InBounds() {
		return fmt.Errorf("%w: %s", ErrInvalidShot, pos)
	}
	res, err := s.svc.Shoot(ctx, s.board, pos)
	if err != nil {
		return fmt.Errorf("answer shot %s: %w", pos, err)
	}
	if err := s.conn.Send(codec.NewShotResult(pos, res.Hit, res.Envelope)); err != nil {
		return err
	}

	s.mu.Lock()
	s.own = res.NewDigest
	s.incoming.Record(pos, res.Hit)
	s.state = NextState(st, res.Hit)
	s.mu.Unlock()
	s.log.Info().Stringer("shot", pos).Stringer("hit", res.Hit).Msg("incoming shot answered")
	s.emit(Event{Kind: EventIncomingShot, Position: pos, Hit: res.Hit})

	if s.board.AllSunk() {
		s.finish(OutcomeLoss)
	}
	return nil
}

// Status is a point-in-time view of the session for the HTTP API.
type Status struct {
	ID                 uuid.UUID         `json:"id"`
	Name               string            `json:"name"`
	Role               string            `json:"role"`
	Opponent           string            `json:"opponent,omitempty"`
	State              State             `json:"state"`
	OwnCommitment      commitment.Digest `json:"own_commitment"`
	OpponentCommitment commitment.Digest `json:"opponent_commitment"`
	ShotsFired         int               `json:"shots_fired"`
	HitsDealt          int               `json:"hits_dealt"`
	ShotsTaken         int               `json:"shots_taken"`
	HitsTaken          int               `json:"hits_taken"`
	OpponentShipsLeft  int               `json:"opponent_ships_left"`
	OwnShipsLeft       int               `json:"own_ships_left"`
	Outcome            Outcome           `json:"outcome"`
	Error              string            `json:"error,omitempty"`
	StartedAt          int64             `json:"started_at"`
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := Status{
		ID:                 s.id,
		Name:               s.name,
		Role:               s.role.String(),
		Opponent:           s.oppName,
		State:              s.state,
		OwnCommitment:      s.own,
		OpponentCommitment: s.opp,
		ShotsFired:         s.target.Shots(),
		HitsDealt:          s.target.Hits(),
		ShotsTaken:         s.incoming.Shots(),
		HitsTaken:          s.incoming.Hits(),
		OpponentShipsLeft:  s.target.ShipsRemaining(),
		OwnShipsLeft:       s.incoming.ShipsRemaining(),
		Outcome:            s.outcome,
		StartedAt:          s.started.UnixMilli(),
	}
	if s.err != nil {
		st.Error = s.err.Error()
	}
	return st
}
