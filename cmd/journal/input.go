package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"journal-go/internal/app"
	"journal-go/internal/journal"

	"golang.org/x/term"
)

var errWrongPassword = errors.New("wrong password")

// stdin is shared so that piped passwords and line input read from one buffer.
var stdin = bufio.NewReader(os.Stdin)

// readPassword prompts on stderr and reads a password without echo. When
// stdin is not a terminal a single line is read instead, so passwords can
// be piped in.
func readPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := readLine()
		fmt.Fprintln(os.Stderr)
		return line, err
	}

	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// readNewPassword asks twice and requires both answers to match.
func readNewPassword(prompt string) (string, error) {
	first, err := readPassword(prompt)
	if err != nil {
		return "", err
	}
	if first == "" {
		return "", errors.New("password must not be empty")
	}
	second, err := readPassword("Repeat password: ")
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passwords do not match")
	}
	return first, nil
}

func readLine() (string, error) {
	line, err := stdin.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// readMultiline reads stdin until an empty line or EOF.
func readMultiline(prompt string) (string, error) {
	fmt.Fprintln(os.Stderr, prompt+" (finish with an empty line)")
	var lines []string
	for {
		line, err := readLine()
		if err != nil || line == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func confirm(prompt, want string) (bool, error) {
	fmt.Fprint(os.Stderr, prompt)
	answer, err := readLine()
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(answer) == want, nil
}

// unlock prompts for the journal password and logs in.
func unlock(ctx context.Context, a *app.JournalApp) error {
	if a.State() == journal.StateLockedNoSetup {
		return errors.New("no password set up, run 'journal setup' first")
	}

	password, err := readPassword("Password: ")
	if err != nil {
		return err
	}
	ok, err := a.Login(ctx, password)
	if err != nil {
		return fmt.Errorf("logging in: %w", err)
	}
	if !ok {
		return errWrongPassword
	}
	return nil
}
