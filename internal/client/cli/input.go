package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/AnshRaj112/ediary-backend/internal/client/session"
	"github.com/AnshRaj112/ediary-backend/internal/diary"
)

// readPassword is swapped out in tests.
var readPassword = term.ReadPassword

// reader returns one buffered reader per input stream so consecutive prompts do not
// lose buffered input.
func (c *cli) reader(cmd *cobra.Command) *bufio.Reader {
	src := cmd.InOrStdin()
	if c.in == nil || c.inSrc != src {
		c.in, c.inSrc = bufio.NewReader(src), src
	}
	return c.in
}

// promptLine prints prompt and reads one trimmed line from the command's input.
func (c *cli) promptLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), prompt+": ")
	line, err := c.reader(cmd).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// promptMultiline reads lines until an empty one and joins them.
func (c *cli) promptMultiline(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprintln(cmd.OutOrStdout(), prompt+" (finish with an empty line):")
	r := c.reader(cmd)
	var lines []string
	for {
		line, err := r.ReadString('\n')
		line = strings.TrimRight(line, "\r\n")
		if line != "" {
			lines = append(lines, line)
		}
		if line == "" || err != nil {
			break
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// promptPassword reads a password without echo when stdin is a terminal.
func (c *cli) promptPassword(cmd *cobra.Command, prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if cmd.InOrStdin() != os.Stdin || !term.IsTerminal(fd) {
		return c.promptLine(cmd, prompt)
	}
	fmt.Fprint(cmd.OutOrStdout(), prompt+": ")
	pw, err := readPassword(fd)
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	return string(pw), nil
}

// Message turns an error into the line shown to the user.
func Message(err error) string {
	var (
		ve *diary.ValidationError
		ce *diary.ConflictError
		te *session.TransitionError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &ce):
		return ce.Message
	case errors.Is(err, diary.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, diary.ErrAuthRequired):
		return "You need to sign in first. Run 'ediary login'."
	case errors.Is(err, diary.ErrNotFound):
		return "Entry not found."
	case errors.Is(err, diary.ErrNetwork):
		return "Cannot reach the diary server. Check your connection and try again."
	case errors.As(err, &te):
		if te.State == session.StateAuthenticated {
			return "You are already signed in. Run 'ediary logout' first."
		}
		return "You are not signed in."
	default:
		return err.Error()
	}
}
