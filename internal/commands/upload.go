package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/output"
	"astroctl/internal/service"
	"astroctl/internal/session"
)

func init() {
	Register(&UploadCmd{})
}

// UploadCmd uploads a source image and starts a new session for it.
type UploadCmd struct {
	outDir string
}

// SetOutDir sets the preview output directory (for testing).
func (c *UploadCmd) SetOutDir(dir string) {
	c.outDir = dir
}

func (c *UploadCmd) Name() string       { return "upload" }
func (c *UploadCmd) Aliases() []string  { return []string{"add"} }
func (c *UploadCmd) Synopsis() string   { return "Upload an image and start a new session" }
func (c *UploadCmd) Usage() string      { return "astroctl upload [--out <dir>] <image>" }
func (c *UploadCmd) NeedsBackend() bool { return true }

func (c *UploadCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.outDir, "out", "", "")
	fs.StringVar(&c.outDir, "o", "", "")
}

func (c *UploadCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) == 0 || strings.TrimSpace(args[0]) == "" {
		fmt.Fprintln(errOut, "error: image path required")
		return exitcode.UserError
	}
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	path := args[0]

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	defer f.Close()

	return withSession(cfg, svc, errOut, func(s *session.Session) int {
		id, err := s.Upload(ctx, path, f)
		if err != nil {
			return reportError(errOut, err)
		}
		output.FormatTask(out, id)

		// The first refresh renders the preview at the default threshold.
		preview, err := s.Refresh(ctx)
		if err != nil {
			return reportError(errOut, err)
		}
		return showPreview(s, preview, c.outDir, cfg, out, errOut)
	})
}
