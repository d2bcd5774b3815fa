package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"battleship-p2p/internal/codec"
	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
	"battleship-p2p/internal/zk"
)

var (
	// ErrVerification is the root of every rejection of an opponent's claim.
	ErrVerification = errors.New("verification failed")

	ErrBadProof           = fmt.Errorf("%w: bad proof", ErrVerification)
	ErrStaleState         = fmt.Errorf("%w: stale state", ErrVerification)
	ErrShotMismatch       = fmt.Errorf("%w: shot mismatch", ErrVerification)
	ErrHitMismatch        = fmt.Errorf("%w: hit mismatch", ErrVerification)
	ErrCommitmentMismatch = fmt.Errorf("%w: commitment mismatch", ErrVerification)

	// ErrDiverged means the local board disagrees with the claims just proven for it.
	ErrDiverged = errors.New("board diverged from proven transition")
)

// Service binds the board model to a proving engine.
type Service struct {
	prover   zk.Prover
	verifier zk.Verifier
	log      zerolog.Logger
}

func New(p zk.Prover, v zk.Verifier, log zerolog.Logger) *Service {
	return &Service{prover: p, verifier: v, log: log.With().Str("component", "app").Logger()}
}

func (s *Service) KeyID() zk.KeyID { return s.verifier.KeyID() }

type CommitResult struct {
	Digest   commitment.Digest
	Envelope []byte
}

// Commit validates b and proves it is a legal starting board.
func (s *Service) Commit(ctx context.Context, b *game.Board) (*CommitResult, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	claims, proof, err := s.prover.ProveInit(ctx, b)
	if err != nil {
		return nil, err
	}
	env, err := codec.NewInitEnvelope(claims, proof).Encode()
	if err != nil {
		return nil, err
	}
	s.log.Debug().Stringer("digest", claims.Digest).Int("proof_bytes", len(proof)).Msg("board committed")
	return &CommitResult{Digest: claims.Digest, Envelope: env}, nil
}

type ShootResult struct {
	Hit       game.HitType
	NewDigest commitment.Digest
	Envelope  []byte
}

// Shoot answers an incoming shot. The proof is built on a snapshot; b is only
// mutated once proving succeeded.
func (s *Service) Shoot(ctx context.Context, b *game.Board, shot game.Position) (*ShootResult, error) {
	claims, proof, err := s.prover.ProveRound(ctx, b.Clone(), shot)
	if err != nil {
		return nil, err
	}
	env, err := codec.NewRoundEnvelope(claims, proof).Encode()
	if err != nil {
		return nil, err
	}

	hit := b.ApplyShot(shot)
	if !hit.Equal(claims.Hit) {
		return nil, fmt.Errorf("%w: applied %s, proved %s", ErrDiverged, hit, claims.Hit)
	}
	if d := commitment.Commit(b); d != claims.NewDigest {
		return nil, fmt.Errorf("%w: digest %s, proved %s", ErrDiverged, d, claims.NewDigest)
	}
	s.log.Debug().Stringer("shot", shot).Stringer("hit", hit).Stringer("digest", claims.NewDigest).Msg("shot answered")
	return &ShootResult{Hit: hit, NewDigest: claims.NewDigest, Envelope: env}, nil
}

// VerifyInit checks an opponent's board proof against the commitment it announced.
func (s *Service) VerifyInit(announced commitment.Digest, envelope []byte) error {
	env, err := codec.DecodeEnvelope(envelope)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBadProof, err)
	}
	if env.Kind != statement.KindInit {
		return fmt.Errorf("%w: expected init envelope, got %s", ErrBadProof, env.Kind)
	}
	if env.Init.Digest != announced {
		return fmt.Errorf("%w: announced %s, proof for %s", ErrCommitmentMismatch, announced, env.Init.Digest)
	}
	if err := s.verifier.VerifyInit(*env.Init, env.Proof); err != nil {
		return fmt.Errorf("%w: %w", ErrBadProof, err)
	}
	return nil
}

// VerifyRound checks a shot result against the requested shot and the opponent
// commitment we currently hold. The public claims are compared before the proof
// is checked. On success the caller must advance its copy of the opponent
// commitment to the returned NewDigest.
func (s *Service) VerifyRound(expectedOld commitment.Digest, requested game.Position, res codec.ShotResult) (statement.RoundClaims, error) {
	env, err := codec.DecodeEnvelope(res.Proof)
	if err != nil {
		return statement.RoundClaims{}, fmt.Errorf("%w: %w", ErrBadProof, err)
	}
	if env.Kind != statement.KindRound {
		return statement.RoundClaims{}, fmt.Errorf("%w: expected round envelope, got %s", ErrBadProof, env.Kind)
	}
	claims := *env.Round

	switch {
	case res.Position != requested:
		return claims, fmt.Errorf("%w: requested %s, answered %s", ErrShotMismatch, requested, res.Position)
	case claims.Shot != requested:
		return claims, fmt.Errorf("%w: requested %s, proof for %s", ErrShotMismatch, requested, claims.Shot)
	case claims.OldDigest != expectedOld:
		return claims, fmt.Errorf("%w: holding %s, proof starts at %s", ErrStaleState, expectedOld, claims.OldDigest)
	case !claims.Hit.Equal(res.HitType):
		return claims, fmt.Errorf("%w: message says %s, proof says %s", ErrHitMismatch, res.HitType, claims.Hit)
	}
	if err := s.verifier.VerifyRound(claims, env.Proof); err != nil {
		return claims, fmt.Errorf("%w: %w", ErrBadProof, err)
	}
	s.log.Debug().Stringer("shot", requested).Stringer("hit", claims.Hit).Stringer("digest", claims.NewDigest).Msg("shot result verified")
	return claims, nil
}
