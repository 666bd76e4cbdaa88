// Package commands implements the single-byte command protocol used on serial consoles and stdin
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/calvinmclean/pedaldose"
	"github.com/calvinmclean/pedaldose/controller"
)

// Controller is the part of the actuation controller reachable from a console
type Controller interface {
	SubmitGoalText(context.Context, string) error
	PressPedal(context.Context, pedaldose.PedalKind) error
	Stop(context.Context) error
	Snapshot() controller.Snapshot
}

var _ Controller = &controller.Controller{}

type Command struct {
	Flag byte
	// ReadLine reads input up to the next newline instead of InputSize bytes
	ReadLine    bool
	InputSize   uint
	Run         func(context.Context, Controller, []byte, io.Writer) error
	Description string
}

func pedalCommand(kind pedaldose.PedalKind) *Command {
	return &Command{
		Flag: kind.Flag(),
		Run: func(ctx context.Context, c Controller, _ []byte, w io.Writer) error {
			err := c.PressPedal(ctx, kind)
			if err != nil {
				return err
			}
			s := c.Snapshot()
			fmt.Fprintf(w, "%s +%d: %d/%d\n", kind, kind.Increment(), s.Accumulated, s.Goal)
			return nil
		},
		Description: fmt.Sprintf("Press the %s pedal (+%d).", kind, kind.Increment()),
	}
}

var (
	GoalCommand = &Command{
		Flag:     'G',
		ReadLine: true,
		Run: func(ctx context.Context, c Controller, input []byte, w io.Writer) error {
			err := c.SubmitGoalText(ctx, string(input))
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "goal set: %d\n", c.Snapshot().Goal)
			return nil
		},
		Description: "Set the goal and start a session. Input: a positive number, then newline.",
	}
	StrongCommand = pedalCommand(pedaldose.PedalStrong)
	MediumCommand = pedalCommand(pedaldose.PedalMedium)
	WeakCommand   = pedalCommand(pedaldose.PedalWeak)
	StopCommand   = &Command{
		Flag: 'X',
		Run: func(ctx context.Context, c Controller, _ []byte, w io.Writer) error {
			err := c.Stop(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(w, "stopped")
			return nil
		},
		Description: "Stop the session and return to goal entry.",
	}
	DebugCommand = &Command{
		Flag: 'D',
		Run: func(_ context.Context, c Controller, _ []byte, w io.Writer) error {
			fmt.Fprintln(w, Describe(c.Snapshot()))
			return nil
		},
		Description: "Print the current state.",
	}
	HelpCommand = &Command{
		Flag:        'H',
		Description: "Show all available commands and their descriptions.",
	}
)

// HelpCommand.Run is assigned in init because it refers to All, which refers to HelpCommand
func init() {
	HelpCommand.Run = func(_ context.Context, _ Controller, _ []byte, w io.Writer) error {
		fmt.Fprintln(w, "Available Commands:")
		for _, cmd := range All() {
			fmt.Fprintf(w, "%c: %s\n", cmd.Flag, cmd.Description)
		}
		return nil
	}
}

// All returns every command in help order
func All() []*Command {
	return []*Command{
		GoalCommand,
		StrongCommand,
		MediumCommand,
		WeakCommand,
		StopCommand,
		DebugCommand,
		HelpCommand,
	}
}

// Describe formats a snapshot on one line
func Describe(s controller.Snapshot) string {
	d := fmt.Sprintf("state=%s value=%d goal=%d progress=%s", s.State, s.Accumulated, s.Goal, s.Progress)
	if s.AlarmVisible {
		d += " COMPLETE"
	}
	if s.Busy {
		d += " busy"
	}
	if s.Notice != "" {
		d += " notice=" + s.Notice
	}
	return d
}

// Run reads commands from r until EOF or ctx is done. Unknown bytes are skipped and command
// errors are written to w, so a bad command never ends the session
func Run(ctx context.Context, r io.ByteReader, c Controller, w io.Writer) error {
	if w == nil {
		w = io.Discard
	}

	cmdMap := map[byte]*Command{}
	for _, cmd := range All() {
		cmdMap[cmd.Flag] = cmd
		// accept lowercase flags typed on a terminal
		if cmd.Flag >= 'A' && cmd.Flag <= 'Z' {
			cmdMap[cmd.Flag+'a'-'A'] = cmd
		}
	}

	for {
		if ctx.Err() != nil {
			return nil
		}

		cmdIn, err := r.ReadByte()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading command: %w", err)
		}

		cmd, ok := cmdMap[cmdIn]
		if !ok {
			continue
		}

		in, err := readInput(r, cmd)
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("error reading input: %w", err)
		}

		runErr := cmd.Run(ctx, c, in, w)
		if runErr != nil {
			fmt.Fprintln(w, "error:", runErr.Error())
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func readInput(r io.ByteReader, cmd *Command) ([]byte, error) {
	if cmd.ReadLine {
		var in []byte
		for {
			b, err := r.ReadByte()
			if err != nil {
				return in, err
			}
			if b == '\n' || b == '\r' {
				return in, nil
			}
			in = append(in, b)
		}
	}

	in := make([]byte, cmd.InputSize)
	for i := range in {
		b, err := r.ReadByte()
		if err != nil {
			return in[:i], err
		}
		in[i] = b
	}
	return in, nil
}
