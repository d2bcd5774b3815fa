package zk

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/blake2b"

	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
)

var curve = ecc.BN254

type circuitKeys struct {
	name string
	new  func() frontend.Circuit
}

var keySets = []circuitKeys{
	{name: "init", new: func() frontend.Circuit { return &InitCircuit{} }},
	{name: "round", new: func() frontend.Circuit { return &RoundCircuit{} }},
}

func pkPath(dir, name string) string { return filepath.Join(dir, name+".pk") }
func vkPath(dir, name string) string { return filepath.Join(dir, name+".vk") }

// EnsureKeys makes sure proving/verifying keys for both statements exist in dir.
// Keys that are missing or unreadable are regenerated. Peers must share the same files.
func EnsureKeys(dir string, log zerolog.Logger) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for _, ks := range keySets {
		// If both key files exist AND can be parsed, reuse them; else regenerate.
		if vk, pk, err := readKeys(vkPath(dir, ks.name), pkPath(dir, ks.name)); err == nil && vk != nil && pk != nil {
			continue
		}
		log.Info().Str("circuit", ks.name).Str("dir", dir).Msg("running groth16 setup")

		cs, err := compile(ks.new())
		if err != nil {
			return fmt.Errorf("compile %s circuit: %w", ks.name, err)
		}
		pk, vk, err := groth16.Setup(cs)
		if err != nil {
			return fmt.Errorf("setup %s circuit: %w", ks.name, err)
		}
		if err := writeKey(vkPath(dir, ks.name), vk); err != nil {
			return err
		}
		if err := writeKey(pkPath(dir, ks.name), pk); err != nil {
			return err
		}
	}
	return nil
}

func compile(c frontend.Circuit) (constraint.ConstraintSystem, error) {
	return frontend.Compile(curve.ScalarField(), r1cs.NewBuilder, c)
}

// Groth16Engine proves and verifies both statements with keys loaded from disk.
type Groth16Engine struct {
	initCS, roundCS constraint.ConstraintSystem
	initPK, roundPK groth16.ProvingKey
	initVK, roundVK groth16.VerifyingKey
	keyID           KeyID
	log             zerolog.Logger
}

// Load compiles both circuits and reads all four key files from dir.
func Load(dir string, log zerolog.Logger) (*Groth16Engine, error) {
	e, err := LoadVerifier(dir, log)
	if err != nil {
		return nil, err
	}
	if e.initPK, err = readPK(pkPath(dir, "init")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysMissing, err)
	}
	if e.roundPK, err = readPK(pkPath(dir, "round")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysMissing, err)
	}
	if e.initCS, err = compile(&InitCircuit{}); err != nil {
		return nil, fmt.Errorf("compile init circuit: %w", err)
	}
	if e.roundCS, err = compile(&RoundCircuit{}); err != nil {
		return nil, fmt.Errorf("compile round circuit: %w", err)
	}
	e.log.Debug().
		Int("init_constraints", e.initCS.GetNbConstraints()).
		Int("round_constraints", e.roundCS.GetNbConstraints()).
		Msg("circuits compiled")
	return e, nil
}

// LoadVerifier reads only the verifying keys; the result cannot prove.
func LoadVerifier(dir string, log zerolog.Logger) (*Groth16Engine, error) {
	e := &Groth16Engine{log: log.With().Str("component", "zk").Logger()}
	var err error
	if e.initVK, err = readVK(vkPath(dir, "init")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysMissing, err)
	}
	if e.roundVK, err = readVK(vkPath(dir, "round")); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeysMissing, err)
	}
	if e.keyID, err = fingerprint(e.initVK, e.roundVK); err != nil {
		return nil, err
	}
	return e, nil
}

func fingerprint(vks ...groth16.VerifyingKey) (KeyID, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return KeyID{}, err
	}
	for _, vk := range vks {
		if _, err := vk.WriteTo(h); err != nil {
			return KeyID{}, err
		}
	}
	var id KeyID
	copy(id[:], h.Sum(nil))
	return id, nil
}

func (e *Groth16Engine) KeyID() KeyID { return e.keyID }

func (e *Groth16Engine) ProveInit(ctx context.Context, b *game.Board) (statement.InitClaims, []byte, error) {
	if e.initPK == nil || e.initCS == nil {
		return statement.InitClaims{}, nil, ErrNotInitialized
	}
	claims, err := statement.EvaluateInit(b)
	if err != nil {
		return statement.InitClaims{}, nil, wrapProverError(statement.KindInit, err)
	}
	assign, err := InitAssignment(b, claims)
	if err != nil {
		return statement.InitClaims{}, nil, wrapProverError(statement.KindInit, err)
	}
	proof, err := runProver(ctx, func() ([]byte, error) { return e.prove(e.initCS, e.initPK, assign) })
	if err != nil {
		return statement.InitClaims{}, nil, wrapProverError(statement.KindInit, err)
	}
	return claims, proof, nil
}

func (e *Groth16Engine) ProveRound(ctx context.Context, b *game.Board, shot game.Position) (statement.RoundClaims, []byte, error) {
	if e.roundPK == nil || e.roundCS == nil {
		return statement.RoundClaims{}, nil, ErrNotInitialized
	}
	claims, err := statement.EvaluateRound(b, shot)
	if err != nil {
		return statement.RoundClaims{}, nil, wrapProverError(statement.KindRound, err)
	}
	assign, err := RoundAssignment(b, claims)
	if err != nil {
		return statement.RoundClaims{}, nil, wrapProverError(statement.KindRound, err)
	}
	proof, err := runProver(ctx, func() ([]byte, error) { return e.prove(e.roundCS, e.roundPK, assign) })
	if err != nil {
		return statement.RoundClaims{}, nil, wrapProverError(statement.KindRound, err)
	}
	return claims, proof, nil
}

func (e *Groth16Engine) prove(cs constraint.ConstraintSystem, pk groth16.ProvingKey, assign frontend.Circuit) ([]byte, error) {
	fullWit, err := frontend.NewWitness(assign, curve.ScalarField())
	if err != nil {
		return nil, err
	}
	proof, err := groth16.Prove(cs, pk, fullWit)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if _, err := proof.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *Groth16Engine) VerifyInit(claims statement.InitClaims, proof []byte) error {
	if err := verify(e.initVK, initPublic(claims), proof); err != nil {
		return wrapVerifyError(statement.KindInit, err)
	}
	return nil
}

func (e *Groth16Engine) VerifyRound(claims statement.RoundClaims, proof []byte) error {
	if err := verify(e.roundVK, roundPublic(claims), proof); err != nil {
		return wrapVerifyError(statement.KindRound, err)
	}
	return nil
}

// verify builds a public-only witness from the claims and checks proof against vk.
func verify(vk groth16.VerifyingKey, public frontend.Circuit, proofBin []byte) error {
	if vk == nil {
		return errors.New("verifying key not loaded")
	}
	if len(proofBin) == 0 {
		return errors.New("empty proof")
	}
	pubWit, err := frontend.NewWitness(public, curve.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return err
	}
	pr := groth16.NewProof(curve)
	if _, err := pr.ReadFrom(bytes.NewReader(proofBin)); err != nil {
		return fmt.Errorf("decode proof: %w", err)
	}
	return groth16.Verify(pr, vk, pubWit)
}

// --- key IO helpers using io.WriterTo / io.ReaderFrom ---

func writeKey(path string, key io.WriterTo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = key.WriteTo(f)
	return err
}

func readVK(path string) (groth16.VerifyingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	vk := groth16.NewVerifyingKey(curve)
	_, err = vk.ReadFrom(f)
	return vk, err
}

func readPK(path string) (groth16.ProvingKey, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	pk := groth16.NewProvingKey(curve)
	_, err = pk.ReadFrom(f)
	return pk, err
}

func readKeys(vkPath, pkPath string) (groth16.VerifyingKey, groth16.ProvingKey, error) {
	vk, err := readVK(vkPath)
	if err != nil {
		return nil, nil, err
	}
	pk, err := readPK(pkPath)
	if err != nil {
		return nil, nil, err
	}
	return vk, pk, nil
}
