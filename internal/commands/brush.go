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
	Register(&BrushCmd{})
}

// BrushCmd prints the bundled brush blueprint for copying into the game.
type BrushCmd struct {
	fluid bool
}

func (c *BrushCmd) Name() string       { return "brush" }
func (c *BrushCmd) Aliases() []string  { return nil }
func (c *BrushCmd) Synopsis() string   { return "Print the brush blueprint" }
func (c *BrushCmd) Usage() string      { return "astroctl brush [--fluid]" }
func (c *BrushCmd) NeedsBackend() bool { return false }

func (c *BrushCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.fluid, "fluid", false, "")
}

func (c *BrushCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	fmt.Fprintln(out, brushFor(c.fluid))
	return exitcode.Success
}
