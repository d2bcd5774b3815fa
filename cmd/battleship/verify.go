package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"battleship-p2p/internal/app"
	"battleship-p2p/internal/codec"
	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/statement"
	"battleship-p2p/internal/zk"
)

var verifyFlags struct {
	envelope string
	digest   string
	x, y     int
}

// verifyCmd applies the same checks a player runs during a game, against files.
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check a proof envelope against a commitment",
	Long: `For a board proof, --digest is the announced commitment. For a shot proof,
--digest is the commitment held before the shot and --x/--y name the shot that
was requested. Only the verifying keys are needed.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verifyFlags.digest == "" {
			return fmt.Errorf("--digest required")
		}
		digest, err := commitment.ParseDigest(verifyFlags.digest)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(verifyFlags.envelope)
		if err != nil {
			return err
		}
		env, err := codec.DecodeEnvelope(data)
		if err != nil {
			return err
		}
		v, err := zk.LoadVerifier(opts.KeysDir, logger)
		if err != nil {
			return err
		}
		// verification never touches the prover
		svc := app.New(nil, v, logger)
		out := cmd.OutOrStdout()

		if env.Kind == statement.KindInit {
			if err := svc.VerifyInit(digest, data); err != nil {
				return err
			}
			fmt.Fprintln(out, "✓ valid board for", digest)
			return nil
		}

		if verifyFlags.x < 0 || verifyFlags.x >= game.BoardSize || verifyFlags.y < 0 || verifyFlags.y >= game.BoardSize {
			return fmt.Errorf("--x/--y out of range")
		}
		shot := game.Pos(uint32(verifyFlags.x), uint32(verifyFlags.y))
		claims, err := svc.VerifyRound(digest, shot, codec.ShotResult{
			Position: shot,
			HitType:  env.Round.Hit,
			Proof:    data,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ shot %s: %s\n", shot, claims.Hit)
		fmt.Fprintln(out, "new commitment:", claims.NewDigest)
		return nil
	},
}

func init() {
	f := verifyCmd.Flags()
	f.StringVar(&verifyFlags.envelope, "proof", "proof.cbor", "proof envelope file")
	f.StringVar(&verifyFlags.digest, "digest", "", "commitment the proof must start from, 0x-prefixed hex")
	f.IntVar(&verifyFlags.x, "x", -1, "requested column [0..9]")
	f.IntVar(&verifyFlags.y, "y", -1, "requested row [0..9]")
}
