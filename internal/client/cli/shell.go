package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// lineReader is the part of *readline.Instance the shell uses.
type lineReader interface {
	Readline() (string, error)
	Close() error
}

var newLineReader = func(historyFile string) (lineReader, error) {
	return readline.NewEx(&readline.Config{
		Prompt:          "ediary> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
}

func (c *cli) shellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Run commands interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rl, err := newLineReader(c.cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("start shell: %w", err)
			}
			defer rl.Close()

			fmt.Fprintln(cmd.OutOrStdout(), "Type 'help' for commands, 'exit' to leave.")
			return c.runShell(cmd.Context(), rl, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

// runShell executes one command per line until exit or end of input. Command errors are
// printed and the loop continues.
func (c *cli) runShell(ctx context.Context, rl lineReader, in io.Reader, out io.Writer) error {
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintln(out, err)
			continue
		}
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "exit", "quit":
			return nil
		case "shell":
			fmt.Fprintln(out, "Already in the shell.")
			continue
		}

		root := c.root()
		root.SetArgs(args)
		root.SetIn(in)
		root.SetOut(out)
		root.SetErr(out)
		if err := root.ExecuteContext(ctx); err != nil {
			fmt.Fprintln(out, Message(err))
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// splitArgs splits a shell line on spaces, keeping single- or double-quoted runs together.
func splitArgs(line string) ([]string, error) {
	var (
		args  []string
		cur   strings.Builder
		quote rune
		inArg bool
	)
	for _, r := range line {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inArg = true
		case r == ' ' || r == '\t':
			if inArg {
				args = append(args, cur.String())
				cur.Reset()
				inArg = false
			}
		default:
			cur.WriteRune(r)
			inArg = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if inArg {
		args = append(args, cur.String())
	}
	return args, nil
}
