package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/output"
	"astroctl/internal/service"
	"astroctl/internal/session"
)

func init() {
	Register(&StatusCmd{})
	Register(&ResetCmd{})
}

// StatusCmd prints the persisted session without contacting the backend.
type StatusCmd struct{}

func (c *StatusCmd) Name() string       { return "status" }
func (c *StatusCmd) Aliases() []string  { return []string{"st"} }
func (c *StatusCmd) Synopsis() string   { return "Show the current session" }
func (c *StatusCmd) Usage() string      { return "astroctl status" }
func (c *StatusCmd) NeedsBackend() bool { return false }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	st, err := session.Load(cfg.SessionPath())
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.ConfigError
	}
	if st.SessionID == "" {
		st = session.State{Threshold: session.DefaultThreshold, Phase: session.PhaseEmpty}
	}
	output.FormatStatus(out, st)
	return exitcode.Success
}

// ResetCmd forgets the persisted session. The backend task is left to expire.
type ResetCmd struct{}

func (c *ResetCmd) Name() string       { return "reset" }
func (c *ResetCmd) Aliases() []string  { return nil }
func (c *ResetCmd) Synopsis() string   { return "Forget the current session" }
func (c *ResetCmd) Usage() string      { return "astroctl reset" }
func (c *ResetCmd) NeedsBackend() bool { return false }

func (c *ResetCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ResetCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if err := session.Remove(cfg.SessionPath()); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove session: %v\n", err)
		return exitcode.ConfigError
	}
	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
