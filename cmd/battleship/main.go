package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"battleship-p2p/internal/config"
	"battleship-p2p/internal/logging"
)

type globalFlags struct {
	ConfigPath string
	KeysDir    string
	LogLevel   string
	LogFile    string
	Name       string
}

var (
	flags     globalFlags
	opts      *config.Options
	logger    = zerolog.Nop()
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "battleship",
	Short: "Peer-to-peer Battleship where every answer is backed by a zero-knowledge proof",
	Long: `Two players commit to their fleets and answer each shot with a Groth16 proof,
so neither side can lie about hits or move ships without being caught.

Both players need the same key files: run "battleship keys" once and share the
keys directory with your opponent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if opts, err = config.Load(flags.ConfigPath); err != nil {
			return err
		}
		fl := cmd.Flags()
		if fl.Changed("keys") {
			opts.KeysDir = flags.KeysDir
		}
		if fl.Changed("log-level") {
			opts.Log.Level = flags.LogLevel
		}
		if fl.Changed("log-file") {
			opts.Log.FilePath = flags.LogFile
		}
		if fl.Changed("name") {
			opts.Name = flags.Name
		}
		if err := opts.Validate(); err != nil {
			return err
		}
		logger, logCloser, err = logging.New(opts.Log, os.Stderr)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// gnark must not write into the file closed below
		logging.Silence()
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flags.ConfigPath, "config", "", "JSON config file (defaults apply when empty)")
	pf.StringVar(&flags.KeysDir, "keys", "./keys", "proving/verifying keys directory")
	pf.StringVar(&flags.LogLevel, "log-level", "info", "debug, info, warn or error")
	pf.StringVar(&flags.LogFile, "log-file", "", "also write JSON logs to this rotated file")
	pf.StringVar(&flags.Name, "name", "player", "name announced to the opponent")

	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(shootCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(hostCmd)
	rootCmd.AddCommand(joinCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}
