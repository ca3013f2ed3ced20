package util

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ErrNoTerminal is returned when a prompt needs an interactive terminal.
var ErrNoTerminal = errors.New("stdin is not a terminal")

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}

// PromptPassword asks for a secret on in without echoing it.
func PromptPassword(in *os.File, out io.Writer, prompt string) (string, error) {
	if !IsTerminal(in) {
		return "", ErrNoTerminal
	}
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return "", err
	}
	b, err := term.ReadPassword(int(in.Fd()))
	_, _ = fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

// WaitForEnter keeps a console window open until the user presses enter.
// It does nothing unless the process was started from a GUI.
func WaitForEnter(in io.Reader, out io.Writer) {
	if !IsRunFromGUI() {
		return
	}
	_, _ = fmt.Fprint(out, "Press enter to exit...")
	_, _ = bufio.NewReader(in).ReadString('\n')
}
