package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/service"
)

func init() {
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string       { return "help" }
func (c *HelpCmd) Aliases() []string  { return nil }
func (c *HelpCmd) Synopsis() string   { return "Print usage" }
func (c *HelpCmd) Usage() string      { return "astroctl help" }
func (c *HelpCmd) NeedsBackend() bool { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  astroctl                                         Show the current session
  astroctl upload [common flags] [--out <dir>] <image>
  astroctl new [common flags]
  astroctl threshold [common flags] [--out <dir>] [set <value> | up | down]
  astroctl click [common flags] [--right] [--out <dir>] (<X,Y> | --display <WxH> --at <X,Y>)
  astroctl preview-blueprint [common flags] [--watch] [--out <dir>] <file|->
  astroctl solve [common flags] [--fresh] [--elevator] [--miners-timelimit <s>]
                 [--saturation-timelimit <s>] [--fluid] [--remove-incomplete]
                 [--blueprint <file>] [--out <dir>]
  astroctl result [common flags] [--fluid] [--remove-incomplete]
                  [--blueprint <file>] [--out <dir>]
  astroctl stats [common flags] [--qr] [--watch] [--interval <d>] [--metrics-addr <addr>]
  astroctl qr [common flags] [--version <1-40>] [--level L|M|Q|H] [--smallest]
              [--blueprint [--type building|platform]] [--out <dir>] [<text>|-]
  astroctl brush [--fluid]
  astroctl status
  astroctl reset
  astroctl login [common flags] [--token <token> | <token|->]
  astroctl logout [common flags]
  astroctl help
  astroctl version

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr

Tasks expire on the server 10 minutes after they are created.
`
