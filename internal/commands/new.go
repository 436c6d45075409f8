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
	Register(&NewCmd{})
}

// NewCmd allocates a fresh task without an image. Used for blueprint-only
// solves.
type NewCmd struct{}

func (c *NewCmd) Name() string       { return "new" }
func (c *NewCmd) Aliases() []string  { return nil }
func (c *NewCmd) Synopsis() string   { return "Start a new session with a fresh task" }
func (c *NewCmd) Usage() string      { return "astroctl new" }
func (c *NewCmd) NeedsBackend() bool { return true }

func (c *NewCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *NewCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	return withSession(cfg, svc, errOut, func(s *session.Session) int {
		s.Reset()
		id, err := s.EnsureTask(ctx)
		if err != nil {
			return reportError(errOut, err)
		}
		output.FormatTask(out, id)
		return exitcode.Success
	})
}
