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
	Register(&ThresholdCmd{})
}

// ThresholdCmd adjusts the calibration threshold and refreshes the preview.
type ThresholdCmd struct {
	outDir string
}

// SetOutDir sets the preview output directory (for testing).
func (c *ThresholdCmd) SetOutDir(dir string) {
	c.outDir = dir
}

func (c *ThresholdCmd) Name() string       { return "threshold" }
func (c *ThresholdCmd) Aliases() []string  { return []string{"th"} }
func (c *ThresholdCmd) Synopsis() string   { return "Show, set, or step the threshold" }
func (c *ThresholdCmd) Usage() string      { return "astroctl threshold [--out <dir>] [set <value> | up | down]" }
func (c *ThresholdCmd) NeedsBackend() bool { return true }

func (c *ThresholdCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.outDir, "out", "", "")
	fs.StringVar(&c.outDir, "o", "", "")
}

func (c *ThresholdCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	var action func(s *session.Session) (service.Preview, error)

	switch {
	case len(args) == 0:
		action = func(s *session.Session) (service.Preview, error) { return s.Refresh(ctx) }
	case args[0] == "up" && len(args) == 1:
		action = func(s *session.Session) (service.Preview, error) {
			return s.StepThreshold(ctx, session.ThresholdStep)
		}
	case args[0] == "down" && len(args) == 1:
		action = func(s *session.Session) (service.Preview, error) {
			return s.StepThreshold(ctx, -session.ThresholdStep)
		}
	case args[0] == "set":
		if len(args) != 2 {
			fmt.Fprintln(errOut, "error: threshold value required")
			return exitcode.UserError
		}
		// Unparseable input falls back to the default threshold.
		v, err := session.ParseThreshold(args[1])
		if err != nil {
			logger(cfg).Debug("Threshold input reset to default", "input", args[1])
		}
		action = func(s *session.Session) (service.Preview, error) { return s.UpdateThreshold(ctx, v) }
	default:
		fmt.Fprintf(errOut, "error: invalid threshold action: %s\n", args[0])
		return exitcode.UserError
	}

	return withSession(cfg, svc, errOut, func(s *session.Session) int {
		preview, err := action(s)
		if err != nil {
			return reportError(errOut, err)
		}
		return showPreview(s, preview, c.outDir, cfg, out, errOut)
	})
}

// showPreview prints the bound threshold and writes any returned images.
func showPreview(s *session.Session, p service.Preview, outDir string, cfg *config.Config, out, errOut io.Writer) int {
	st := s.State()
	output.FormatThreshold(out, st.Threshold, st.Confirmed)

	if outDir == "" {
		return exitcode.Success
	}
	path, err := writeImage(outDir, "preview.png", p.Image)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	coords, err := writeImage(outDir, "coordinates.png", p.Coordinates)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		output.FormatWritten(out, "preview", path)
		output.FormatWritten(out, "coordinates", coords)
	}
	return exitcode.Success
}
