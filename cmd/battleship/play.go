package main

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"battleship-p2p/internal/app"
	"battleship-p2p/internal/config"
	"battleship-p2p/internal/console"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/protocol"
	"battleship-p2p/internal/server"
	"battleship-p2p/internal/zk"
)

type playFlags struct {
	board     string
	auto      bool
	transport string
	listen    string
	http      string
	addr      string
}

var hostFlags, joinFlags playFlags

var hostCmd = &cobra.Command{
	Use:   "host",
	Short: "Wait for an opponent and fire first",
	Long: `Listens for one opponent. With --transport tcp the game runs over plain TCP on
--listen; with --transport ws the opponent connects to /v1/play on the HTTP
address. The status API and page are served on --http in both modes.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyPlayFlags(cmd, &hostFlags)
		return runHost(cmd.Context())
	},
}

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Connect to a hosting opponent",
	Long: `Dials the host. --addr is host:port for TCP or a ws:// URL ending in /v1/play
for WebSocket.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyPlayFlags(cmd, &joinFlags)
		if joinFlags.addr == "" {
			return fmt.Errorf("--addr required")
		}
		return runJoin(cmd.Context(), joinFlags.addr)
	},
}

func init() {
	for _, c := range []struct {
		cmd *cobra.Command
		f   *playFlags
	}{{hostCmd, &hostFlags}, {joinCmd, &joinFlags}} {
		fs := c.cmd.Flags()
		fs.StringVar(&c.f.board, "board", "", "board file; placed interactively when empty")
		fs.BoolVar(&c.f.auto, "auto", false, "random board and random shots, no prompts")
	}
	hostCmd.Flags().StringVar(&hostFlags.transport, "transport", config.TransportTCP, "tcp or ws")
	hostCmd.Flags().StringVar(&hostFlags.listen, "listen", ":7878", "tcp game address")
	hostCmd.Flags().StringVar(&hostFlags.http, "http", ":8080", "status API and ws address; empty disables in tcp mode")
	joinCmd.Flags().StringVar(&joinFlags.addr, "addr", "", "host:port or ws://host:port/v1/play")
}

// applyPlayFlags lets explicitly set flags win over the config file.
func applyPlayFlags(cmd *cobra.Command, f *playFlags) {
	fl := cmd.Flags()
	if fl.Changed("board") {
		opts.BoardFile = f.board
	}
	if fl.Changed("auto") {
		opts.Auto = f.auto
	}
	if fl.Changed("transport") {
		opts.Transport = f.transport
	}
	if fl.Changed("listen") {
		opts.Listen = f.listen
	}
	if fl.Changed("http") {
		opts.HTTPAddr = f.http
	}
}

func newSession(ctx context.Context, role protocol.Role) (*protocol.Session, error) {
	eng, err := zk.Load(opts.KeysDir, logger)
	if err != nil {
		return nil, err
	}
	con := console.New(os.Stdin, os.Stdout)

	var b *game.Board
	switch {
	case opts.BoardFile != "":
		b, err = loadBoardFile(opts.BoardFile)
	case opts.Auto:
		b, err = game.GenerateRandomBoard()
	default:
		var pepper [game.PepperSize]byte
		if pepper, err = game.NewPepper(); err == nil {
			b, err = con.PlaceBoard(ctx, pepper)
		}
	}
	if err != nil {
		return nil, err
	}

	var targeter protocol.Targeter = con
	if opts.Auto {
		targeter = protocol.NewRandomTargeter(rand.Int63())
	}
	return protocol.NewSession(protocol.Config{
		Name:     opts.Name,
		Role:     role,
		Board:    b,
		Service:  app.New(eng, eng, logger),
		Targeter: targeter,
		Observer: con,
		Log:      logger,
	})
}

func runHost(ctx context.Context) error {
	// flags may have changed what the config file validated
	if err := opts.Validate(); err != nil {
		return err
	}
	sess, err := newSession(ctx, protocol.RoleHost)
	if err != nil {
		return err
	}

	var srv *server.Server
	var httpLn net.Listener
	if opts.HTTPAddr != "" || opts.Transport == config.TransportWS {
		srv = server.New(opts.MaxFrame, logger)
		srv.Attach(sess)
		if httpLn, err = net.Listen("tcp", opts.HTTPAddr); err != nil {
			return err
		}
		logger.Info().Str("addr", httpLn.Addr().String()).Msg("status API listening")
	}

	g, gctx := errgroup.WithContext(ctx)
	// the HTTP server lives as long as the game
	gameCtx, gameDone := context.WithCancel(gctx)
	if srv != nil {
		g.Go(func() error { return srv.Serve(gameCtx, httpLn) })
	}
	g.Go(func() error {
		defer gameDone()
		conn, err := acceptPeer(gameCtx, srv)
		if err != nil {
			return err
		}
		_, err = sess.Run(gameCtx, conn)
		return err
	})
	return g.Wait()
}

func acceptPeer(ctx context.Context, srv *server.Server) (protocol.Conn, error) {
	if opts.Transport == config.TransportWS {
		logger.Info().Str("addr", opts.HTTPAddr).Msg("waiting for opponent on /v1/play")
		return srv.Accept(ctx)
	}
	ln, err := net.Listen("tcp", opts.Listen)
	if err != nil {
		return nil, err
	}
	defer ln.Close()
	logger.Info().Str("addr", ln.Addr().String()).Msg("waiting for opponent")
	return protocol.Accept(ctx, ln, opts.MaxFrame)
}

func runJoin(ctx context.Context, addr string) error {
	sess, err := newSession(ctx, protocol.RoleGuest)
	if err != nil {
		return err
	}
	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var conn protocol.Conn
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		conn, err = protocol.DialWS(dialCtx, addr, opts.MaxFrame)
	} else {
		conn, err = protocol.Dial(dialCtx, addr, opts.MaxFrame)
	}
	if err != nil {
		return err
	}
	_, err = sess.Run(ctx, conn)
	return err
}
