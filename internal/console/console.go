// Package console drives a game from a terminal: fleet placement, shot entry and event output.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"battleship-p2p/internal/display"
	"battleship-p2p/internal/game"
	"battleship-p2p/internal/protocol"
)

// Console reads answers line by line from in and writes prompts to out.
type Console struct {
	in  *bufio.Scanner
	out io.Writer
}

var (
	_ protocol.Targeter = (*Console)(nil)
	_ protocol.Observer = (*Console)(nil)
)

func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: bufio.NewScanner(in), out: out}
}

func (c *Console) ask(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(c.out, prompt)
	if !c.in.Scan() {
		if err := c.in.Err(); err != nil {
			return "", err
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimSpace(c.in.Text()), nil
}

func (c *Console) warn(format string, args ...any) {
	fmt.Fprint(c.out, pterm.Warning.Sprintfln(format, args...))
}

// PlaceBoard asks for every ship in catalog order. Answering "random" at any
// position prompt places the whole fleet randomly.
func (c *Console) PlaceBoard(ctx context.Context, pepper [game.PepperSize]byte) (*game.Board, error) {
	fmt.Fprintln(c.out, "Place your fleet. Positions are x,y with 0,0 top left; type 'random' for a random layout.")
	b := game.NewBoard(pepper)
	for _, class := range game.Classes() {
		for {
			answer, err := c.ask(ctx, fmt.Sprintf("%s (%d cells) position x,y: ", class, class.Span()))
			if err != nil {
				return nil, err
			}
			if strings.EqualFold(answer, "random") {
				return game.RandomBoard(rand.New(rand.NewSource(time.Now().UnixNano())), pepper)
			}
			pos, err := game.ParsePosition(answer)
			if err != nil {
				c.warn("%v", err)
				continue
			}
			answer, err = c.ask(ctx, "direction (h/v): ")
			if err != nil {
				return nil, err
			}
			dir, err := game.ParseDirection(answer)
			if err != nil {
				c.warn("%v", err)
				continue
			}
			if err := b.AddShip(game.NewShip(class, pos, dir)); err != nil {
				c.warn("%v", err)
				continue
			}
			break
		}
		c.printBoard(b, display.NewTracker())
	}
	return b, nil
}

func (c *Console) printBoard(b *game.Board, incoming *display.Tracker) {
	s, err := display.RenderOwn(b, incoming)
	if err != nil {
		c.warn("render board: %v", err)
		return
	}
	fmt.Fprint(c.out, s)
}

func (c *Console) printTarget(t *display.Tracker) {
	s, err := display.RenderTarget(t)
	if err != nil {
		c.warn("render board: %v", err)
		return
	}
	fmt.Fprint(c.out, s)
}

// NextShot prompts until the player names a cell on the board not fired at yet.
func (c *Console) NextShot(ctx context.Context, target *display.Tracker) (game.Position, error) {
	c.printTarget(target)
	for {
		answer, err := c.ask(ctx, "fire at x,y: ")
		if err != nil {
			return game.Position{}, err
		}
		pos, err := game.ParsePosition(answer)
		switch {
		case err != nil:
			c.warn("%v", err)
		case target.Fired(pos):
			c.warn("already fired at %s", pos)
		default:
			return pos, nil
		}
	}
}

func (c *Console) Observe(e protocol.Event) {
	switch e.Kind {
	case protocol.EventHandshake:
		fmt.Fprint(c.out, pterm.Success.Sprintfln("opponent %q joined, board proof verified", e.Opponent))
		if e.State.Shooting() {
			fmt.Fprintln(c.out, "You fire first.")
		} else {
			fmt.Fprintln(c.out, "Opponent fires first.")
		}
	case protocol.EventShotResult:
		fmt.Fprint(c.out, pterm.Info.Sprintfln("your shot at %s: %s (proof verified)", e.Position, e.Hit))
		fmt.Fprintln(c.out, display.Summary(e.Target))
	case protocol.EventIncomingShot:
		fmt.Fprint(c.out, pterm.Info.Sprintfln("opponent fired at %s: %s", e.Position, e.Hit))
		c.printBoard(e.Board, e.Own)
	case protocol.EventGameOver:
		if e.Outcome == protocol.OutcomeWin {
			fmt.Fprint(c.out, pterm.Success.Sprintln("You won!"))
		} else {
			fmt.Fprint(c.out, pterm.Error.Sprintln("You lost."))
		}
	}
}
