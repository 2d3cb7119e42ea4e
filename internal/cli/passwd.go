package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/runnerr0/guestbook/internal/auth"
	"github.com/runnerr0/guestbook/internal/config"
)

// Execute implements the go-flags Commander interface for PasswdCommand.
func (c *PasswdCommand) Execute(args []string) error {
	var in io.Reader = os.Stdin
	if c.stdin != nil {
		in = c.stdin
	}

	fmt.Fprint(os.Stderr, "New admin password: ")
	scanner := bufio.NewScanner(in)
	if !scanner.Scan() {
		return fmt.Errorf("aborted: no input received")
	}
	password := strings.TrimRight(scanner.Text(), "\r\n")
	fmt.Fprintln(os.Stderr)

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	if c.globals != nil && c.globals.JSON {
		return printJSON(map[string]string{"password_hash": hash})
	}
	fmt.Println(hash)
	fmt.Fprintf(os.Stderr, "Set admin.password_hash in the config file or %s to this value.\n", config.EnvAdminHash)
	return nil
}
