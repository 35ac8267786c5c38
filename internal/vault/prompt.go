package vault

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"golang.org/x/term"

	"github.com/xkilldash9x/listpilot/api/schemas"
)

// Prompter asks the operator for credentials. Passwords are read without echo when
// in is a terminal.
type Prompter struct {
	in     *os.File
	out    io.Writer
	reader *bufio.Reader
}

// NewPrompter reads from in and writes prompts to out.
func NewPrompter(in *os.File, out io.Writer) *Prompter {
	return &Prompter{in: in, out: out, reader: bufio.NewReader(in)}
}

// Line prompts for one line of visible input.
func (p *Prompter) Line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	line, err := p.reader.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return Sanitize(line), nil
}

// Sanitize drops non-printable runes and surrounding space from operator input.
func Sanitize(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) {
			return r
		}
		return -1
	}, s))
}

// Secret prompts for input without echo.
func (p *Prompter) Secret(label string) (string, error) {
	fd := int(p.in.Fd())
	if !term.IsTerminal(fd) {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(raw)), nil
}

// Credentials prompts for a username and password for platform.
func (p *Prompter) Credentials(platform string) (schemas.Credentials, error) {
	user, err := p.Line(fmt.Sprintf("%s username/email: ", platform))
	if err != nil {
		return schemas.Credentials{}, err
	}
	pass, err := p.Secret(fmt.Sprintf("%s password: ", platform))
	if err != nil {
		return schemas.Credentials{}, err
	}
	if user == "" || pass == "" {
		return schemas.Credentials{}, fmt.Errorf("username and password are required for %s", platform)
	}
	return schemas.Credentials{Username: user, Password: pass}, nil
}

// Ensure returns stored credentials for platform, prompting and saving them when
// none exist yet.
func Ensure(v *Vault, platform string, p *Prompter) (schemas.Credentials, error) {
	creds, err := v.Get(platform)
	if err == nil {
		return creds, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return schemas.Credentials{}, err
	}
	creds, err = p.Credentials(platform)
	if err != nil {
		return schemas.Credentials{}, err
	}
	if err := v.Save(platform, creds); err != nil {
		return schemas.Credentials{}, err
	}
	return creds, nil
}
