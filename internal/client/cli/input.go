package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// GetSimpleText prints a prompt to w and reads a single line of input from
// reader. The trailing newline is trimmed. If EOF occurs after some input
// was read, the partial line is returned.
func GetSimpleText(reader *bufio.Reader, prompt string, w io.Writer) (string, error) {
	if _, err := fmt.Fprint(w, prompt+"\n> "); err != nil {
		return "", err
	}
	line, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(line) > 0 {
			return strings.TrimSpace(line), nil
		}
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// GetPassword prints a password prompt to w and reads a password from the
// user's terminal without echo.
func GetPassword(w io.Writer) ([]byte, error) {
	if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
		return nil, err
	}
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(w)
	if err != nil {
		return nil, err
	}
	return pw, nil
}

// GetChoice prompts until the user enters one of the allowed values, or
// returns the current value unchanged on empty input when current is not
// empty.
func GetChoice(reader *bufio.Reader, prompt string, allowed []string, current string, w io.Writer) (string, error) {
	full := fmt.Sprintf("%s %v", prompt, allowed)
	if current != "" {
		full += fmt.Sprintf(" (current: %s, Enter to keep)", current)
	}
	for {
		v, err := GetSimpleText(reader, full, w)
		if err != nil {
			return "", err
		}
		if v == "" && current != "" {
			return current, nil
		}
		for _, a := range allowed {
			if strings.EqualFold(v, a) {
				return a, nil
			}
		}
		if _, err := fmt.Fprintf(w, "Must be one of %v\n", allowed); err != nil {
			return "", err
		}
	}
}
