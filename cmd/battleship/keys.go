package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"battleship-p2p/internal/zk"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Generate missing proving and verifying keys",
	Long: `Compiles both circuits and runs the Groth16 setup for any key file missing from
the keys directory. Existing readable keys are kept. Give the resulting directory
to your opponent; games only start when both sides hold identical keys.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := zk.EnsureKeys(opts.KeysDir, logger); err != nil {
			return err
		}
		v, err := zk.LoadVerifier(opts.KeysDir, logger)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ keys in %s (key id %s)\n", opts.KeysDir, v.KeyID())
		return nil
	},
}
