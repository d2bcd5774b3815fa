package main

import (
	"context"
	"errors"
	"fmt"

	"battleship-p2p/internal/app"
	"battleship-p2p/internal/config"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/protocol"
	"battleship-p2p/internal/zk"
)

// describe turns err into the one line shown to the player.
func describe(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "interrupted"
	case errors.Is(err, zk.ErrKeysMissing):
		return fmt.Sprintf("%v (run \"battleship keys\" and share the directory with your opponent)", err)
	case errors.Is(err, protocol.ErrKeyMismatch):
		return "opponent uses different proving keys; both players need the same keys directory"
	case errors.Is(err, app.ErrVerification):
		return fmt.Sprintf("opponent's proof rejected: %v", err)
	case errors.Is(err, protocol.ErrRemote):
		return fmt.Sprintf("opponent aborted the game: %v", err)
	case errors.Is(err, protocol.ErrProtocol):
		return fmt.Sprintf("opponent broke the protocol: %v", err)
	case errors.Is(err, protocol.ErrTransport):
		return fmt.Sprintf("connection problem: %v", err)
	case errors.Is(err, game.ErrInvalidBoard):
		return fmt.Sprintf("invalid board: %v", err)
	case errors.Is(err, zk.ErrProver):
		return fmt.Sprintf("could not prove our answer: %v", err)
	case errors.Is(err, config.ErrInvalidConfig):
		return err.Error()
	}
	return err.Error()
}
