package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"golang.org/x/oauth2"

	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/service"
)

func init() {
	Register(&LoginCmd{})
	Register(&LogoutCmd{})
}

// LoginCmd stores a bearer token for backends that require one.
type LoginCmd struct {
	token string
}

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Store a backend access token" }
func (c *LoginCmd) Usage() string      { return "astroctl login [--token <token> | <token|->]" }
func (c *LoginCmd) NeedsBackend() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.token, "token", "", "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	raw := c.token
	switch {
	case raw != "" && len(args) > 0:
		fmt.Fprintln(errOut, "error: give the token as --token or an argument, not both")
		return exitcode.UserError
	case raw == "" && len(args) == 1:
		raw = args[0]
	case len(args) > 1:
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}

	if raw == "-" {
		data, err := io.ReadAll(Stdin)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		raw = string(data)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		fmt.Fprintln(errOut, "error: token required")
		return exitcode.UserError
	}

	if err := cfg.EnsureDir(); err != nil {
		fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
		return exitcode.ConfigError
	}
	if err := cfg.SaveToken(&oauth2.Token{AccessToken: raw, TokenType: "Bearer"}); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.ConfigError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// LogoutCmd removes the stored token.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "Remove the stored access token" }
func (c *LogoutCmd) Usage() string      { return "astroctl logout" }
func (c *LogoutCmd) NeedsBackend() bool { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !cfg.HasToken() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.ConfigError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
