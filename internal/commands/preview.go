package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/output"
	"astroctl/internal/service"
	"astroctl/internal/watch"
)

// Stdin is read when a file argument is "-".
var Stdin io.Reader = os.Stdin

func init() {
	Register(&PreviewBlueprintCmd{})
}

// PreviewBlueprintCmd renders the simple-coordinates preview of a miner
// blueprint. With --watch it re-renders whenever the file changes.
type PreviewBlueprintCmd struct {
	watch  bool
	outDir string
}

// SetOutDir sets the output directory (for testing).
func (c *PreviewBlueprintCmd) SetOutDir(dir string) {
	c.outDir = dir
}

func (c *PreviewBlueprintCmd) Name() string      { return "preview-blueprint" }
func (c *PreviewBlueprintCmd) Aliases() []string { return []string{"pb"} }
func (c *PreviewBlueprintCmd) Synopsis() string {
	return "Render the coordinates preview of a miner blueprint"
}
func (c *PreviewBlueprintCmd) Usage() string {
	return "astroctl preview-blueprint [--watch] [--out <dir>] <file|->"
}
func (c *PreviewBlueprintCmd) NeedsBackend() bool { return true }

func (c *PreviewBlueprintCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.watch, "watch", false, "")
	fs.BoolVar(&c.watch, "w", false, "")
	fs.StringVar(&c.outDir, "out", ".", "")
	fs.StringVar(&c.outDir, "o", ".", "")
}

func (c *PreviewBlueprintCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintln(errOut, "error: blueprint file required")
		return exitcode.UserError
	}
	path := args[0]

	if !c.watch {
		data, err := readInput(path)
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.UserError
		}
		return c.render(ctx, cfg, svc, data, out, errOut)
	}

	if path == "-" {
		fmt.Fprintln(errOut, "error: --watch needs a file")
		return exitcode.UserError
	}
	w, err := watch.New(path, watch.DefaultDebounce, logger(cfg))
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		fmt.Fprintf(errOut, "watching %s\n", path)
	}
	err = w.Run(ctx, func(ctx context.Context, content []byte) {
		// Errors are reported and watching continues.
		c.render(ctx, cfg, svc, content, out, errOut)
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	return exitcode.Success
}

func (c *PreviewBlueprintCmd) render(ctx context.Context, cfg *config.Config, svc service.Service, data []byte, out, errOut io.Writer) int {
	bp := strings.TrimSpace(string(data))
	if bp == "" {
		fmt.Fprintln(errOut, "error: blueprint is empty")
		return exitcode.UserError
	}

	img, err := svc.CoordinatesPreview(ctx, bp)
	if err != nil {
		return reportError(errOut, err)
	}
	path, err := writeImage(c.outDir, "coordinates.png", &img)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if w, h, err := img.Size(); err == nil && !cfg.Quiet {
		fmt.Fprintf(out, "%s (%dx%d)\n", path, w, h)
	} else {
		output.FormatWritten(out, "coordinates", path)
	}
	return exitcode.Success
}

// readInput reads a file, or Stdin for "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(Stdin)
	}
	return os.ReadFile(filepath.Clean(path))
}
