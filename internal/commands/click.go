package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"astroctl/internal/canvas"
	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/service"
	"astroctl/internal/session"
)

func init() {
	Register(&ClickCmd{})
}

// ClickCmd submits one annotation. The point is either in image pixels or,
// with --display, in the coordinates of a scaled view of the preview.
type ClickCmd struct {
	right   bool
	display string
	at      string
	outDir  string
}

// SetDisplay sets the display size and point (for testing).
func (c *ClickCmd) SetDisplay(size, at string) {
	c.display = size
	c.at = at
}

// SetRight selects a suppressing annotation (for testing).
func (c *ClickCmd) SetRight(right bool) {
	c.right = right
}

func (c *ClickCmd) Name() string      { return "click" }
func (c *ClickCmd) Aliases() []string { return nil }
func (c *ClickCmd) Synopsis() string  { return "Annotate a point and refresh the preview" }
func (c *ClickCmd) Usage() string {
	return "astroctl click [--right] [--out <dir>] (--display <WxH> --at <X,Y> | <X,Y>)"
}
func (c *ClickCmd) NeedsBackend() bool { return true }

func (c *ClickCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.right, "right", false, "")
	fs.StringVar(&c.display, "display", "", "")
	fs.StringVar(&c.at, "at", "", "")
	fs.StringVar(&c.outDir, "out", "", "")
	fs.StringVar(&c.outDir, "o", "", "")
}

func (c *ClickCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	button := canvas.Primary
	if c.right {
		button = canvas.Secondary
	}

	return withSession(cfg, svc, errOut, func(s *session.Session) int {
		a, code := c.annotation(s.State(), button, args, errOut)
		if code != exitcode.Success {
			return code
		}
		preview, err := s.Annotate(ctx, a)
		if err != nil {
			return reportError(errOut, err)
		}
		return showPreview(s, preview, c.outDir, cfg, out, errOut)
	})
}

func (c *ClickCmd) annotation(st session.State, button canvas.Button, args []string, errOut io.Writer) (service.Annotation, int) {
	if c.display == "" {
		if c.at != "" {
			fmt.Fprintln(errOut, "error: --at requires --display")
			return service.Annotation{}, exitcode.UserError
		}
		if len(args) != 1 {
			fmt.Fprintln(errOut, "error: point required")
			return service.Annotation{}, exitcode.UserError
		}
		x, y, err := ParsePixel(args[0])
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return service.Annotation{}, exitcode.UserError
		}
		return service.Annotation{X: x, Y: y, Reinforcing: button == canvas.Primary}, exitcode.Success
	}

	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return service.Annotation{}, exitcode.UserError
	}
	w, h, err := ParseSize(c.display)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return service.Annotation{}, exitcode.UserError
	}
	x, y, err := ParsePoint(c.at)
	if err != nil {
		fmt.Fprintf(errOut, "error: --at: %v\n", err)
		return service.Annotation{}, exitcode.UserError
	}
	if st.PreviewWidth <= 0 || st.PreviewHeight <= 0 {
		fmt.Fprintln(errOut, "error: preview size unknown (run: astroctl threshold)")
		return service.Annotation{}, exitcode.UserError
	}

	view := canvas.Static{
		Rect:   canvas.Rect{Width: w, Height: h},
		Width:  st.PreviewWidth,
		Height: st.PreviewHeight,
	}
	a, ok := canvas.Annotate(canvas.Pointer{ClientX: x, ClientY: y, Button: button}, view)
	if !ok {
		fmt.Fprintf(errOut, "error: cannot map point %s\n", c.at)
		return service.Annotation{}, exitcode.UserError
	}
	return a, exitcode.Success
}
