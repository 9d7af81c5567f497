package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// prompter reads answers from stdin. Secrets are read without echo when
// stdin is a terminal.
type prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func newPrompter() *prompter {
	return &prompter{reader: bufio.NewReader(os.Stdin), out: os.Stdout}
}

// line prompts until a non-empty answer is given.
func (p *prompter) line(label string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", label)
		line, err := p.reader.ReadString('\n')
		if err != nil && line == "" {
			return "", err
		}
		if v := strings.TrimSpace(line); v != "" {
			return v, nil
		}
		fmt.Fprintf(p.out, "%s cannot be empty.\n", label)
	}
}

// optional prompts once and accepts an empty answer.
func (p *prompter) optional(label string) (string, error) {
	fmt.Fprintf(p.out, "%s (optional): ", label)
	line, err := p.reader.ReadString('\n')
	if err != nil && line == "" && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// secret prompts with masked input, falling back to a plain read when
// stdin is not a terminal.
func (p *prompter) secret(label string) (string, error) {
	for {
		fmt.Fprintf(p.out, "%s: ", label)
		var value string
		if term.IsTerminal(int(os.Stdin.Fd())) {
			b, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Fprintln(p.out)
			if err != nil {
				return "", err
			}
			value = strings.TrimSpace(string(b))
		} else {
			line, err := p.reader.ReadString('\n')
			if err != nil && line == "" {
				return "", err
			}
			value = strings.TrimSpace(line)
		}
		if value != "" {
			return value, nil
		}
		fmt.Fprintf(p.out, "%s cannot be empty.\n", label)
	}
}
