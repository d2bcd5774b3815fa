package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"battleship-p2p/internal/app"
	"battleship-p2p/internal/commitment"
	"battleship-p2p/internal/display"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/zk"
)

var boardOut string

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Write a random legal board to a file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := game.GenerateRandomBoard()
		if err != nil {
			return err
		}
		if err := saveJSON(boardOut, b); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if s, err := display.RenderOwn(b, display.NewTracker()); err == nil {
			fmt.Fprint(out, s)
		}
		fmt.Fprintln(out, "commitment:", commitment.Commit(b))
		fmt.Fprintln(out, "✓ wrote", boardOut)
		return nil
	},
}

var shootFlags struct {
	board string
	out   string
	x, y  uint32
}

// shootCmd answers one shot offline and stores the envelope so it can be checked with verify.
var shootCmd = &cobra.Command{
	Use:   "shoot",
	Short: "Prove the answer to a shot at a board file",
	Long: `Proves the result of a shot against the board in --board, writes the proof
envelope to --out and saves the board with the shot applied, so consecutive
calls chain from one commitment to the next.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shot := game.Pos(shootFlags.x, shootFlags.y)
		if !shot.InBounds() {
			return fmt.Errorf("shot %s is off the board", shot)
		}
		b, err := loadBoardFile(shootFlags.board)
		if err != nil {
			return err
		}
		eng, err := zk.Load(opts.KeysDir, logger)
		if err != nil {
			return err
		}
		old := commitment.Commit(b)
		res, err := app.New(eng, eng, logger).Shoot(cmd.Context(), b, shot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(shootFlags.out, res.Envelope, 0o644); err != nil {
			return err
		}
		if err := saveJSON(shootFlags.board, b); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "shot %s: %s\n", shot, res.Hit)
		fmt.Fprintln(out, "old commitment:", old)
		fmt.Fprintln(out, "new commitment:", res.NewDigest)
		fmt.Fprintf(out, "✓ wrote %s (%d bytes), updated %s\n", shootFlags.out, len(res.Envelope), shootFlags.board)
		return nil
	},
}

func init() {
	boardCmd.Flags().StringVar(&boardOut, "out", "board.json", "output board file")

	f := shootCmd.Flags()
	f.StringVar(&shootFlags.board, "board", "board.json", "board file, rewritten with the shot applied")
	f.StringVar(&shootFlags.out, "out", "proof.cbor", "proof envelope output")
	f.Uint32Var(&shootFlags.x, "x", 0, "column [0..9]")
	f.Uint32Var(&shootFlags.y, "y", 0, "row [0..9]")
}
