package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/output"
	"astroctl/internal/service"
)

// DefaultQRText is encoded when no text is given.
const DefaultQRText = "astroctl"

// MaxQRVersion is the largest QR symbol version.
const MaxQRVersion = 40

func init() {
	Register(&QRCmd{})
}

// QRCmd encodes text as a QR code image or blueprint on the backend.
type QRCmd struct {
	version       int
	level         string
	smallest      bool
	blueprint     bool
	blueprintType string
	outDir        string
}

// SetOptions sets QR options (for testing).
func (c *QRCmd) SetOptions(outDir string, version int, level string, smallest bool) {
	c.outDir = outDir
	c.version = version
	c.level = level
	c.smallest = smallest
}

// SetBlueprint switches to blueprint output of the given type (for testing).
func (c *QRCmd) SetBlueprint(blueprintType string) {
	c.blueprint = true
	c.blueprintType = blueprintType
}

func (c *QRCmd) Name() string      { return "qr" }
func (c *QRCmd) Aliases() []string { return nil }
func (c *QRCmd) Synopsis() string  { return "Encode text as a QR code image or blueprint" }
func (c *QRCmd) Usage() string {
	return "astroctl qr [--version <1-40>] [--level L|M|Q|H] [--smallest] [--blueprint [--type building|platform]] [--out <dir>] [<text>|-]"
}
func (c *QRCmd) NeedsBackend() bool { return true }

func (c *QRCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.version, "version", 1, "")
	fs.StringVar(&c.level, "level", service.QRLevelL, "")
	fs.BoolVar(&c.smallest, "smallest", false, "")
	fs.BoolVar(&c.blueprint, "blueprint", false, "")
	fs.BoolVar(&c.blueprint, "b", false, "")
	fs.StringVar(&c.blueprintType, "type", service.QRBuildings, "")
	fs.StringVar(&c.outDir, "out", ".", "")
	fs.StringVar(&c.outDir, "o", ".", "")
}

func (c *QRCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 1 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[1])
		return exitcode.UserError
	}
	text := ""
	if len(args) == 1 {
		text = args[0]
		if text == "-" {
			data, err := readInput(text)
			if err != nil {
				fmt.Fprintf(errOut, "error: %v\n", err)
				return exitcode.UserError
			}
			text = strings.TrimRight(string(data), "\r\n")
		}
	}
	if text == "" {
		text = DefaultQRText
	}

	req, err := c.request(text)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	logger(cfg).Debug("Generating QR code", "version", req.Version, "level", req.ErrorCorrection, "blueprint", c.blueprint)

	if c.blueprint {
		bp, err := svc.QRBlueprint(ctx, req)
		if err != nil {
			return reportError(errOut, err)
		}
		output.FormatBlueprint(out, bp)
		return exitcode.Success
	}

	code, err := svc.QRImage(ctx, req)
	if err != nil {
		return reportError(errOut, err)
	}
	if c.outDir == "" {
		c.outDir = "."
	}
	path, err := writeImage(c.outDir, "qr.png", &code.Image)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		output.FormatWritten(out, "qr", path)
		output.FormatQRVersion(out, code.VersionUsed)
	}
	return exitcode.Success
}

// request validates the flags. --smallest overrides version and level.
func (c *QRCmd) request(text string) (service.QRRequest, error) {
	req := service.QRRequest{
		Text:            text,
		Version:         c.version,
		ErrorCorrection: strings.ToUpper(strings.TrimSpace(c.level)),
	}
	if c.smallest {
		req.Version = 1
		req.ErrorCorrection = service.QRLevelL
	}
	if req.Version < 1 || req.Version > MaxQRVersion {
		return req, fmt.Errorf("version must be between 1 and %d, got %d", MaxQRVersion, req.Version)
	}
	switch req.ErrorCorrection {
	case service.QRLevelL, service.QRLevelM, service.QRLevelQ, service.QRLevelH:
	default:
		return req, fmt.Errorf("invalid error correction level %q (want L, M, Q or H)", c.level)
	}
	if c.blueprint {
		switch c.blueprintType {
		case service.QRBuildings, service.QRPlatforms:
			req.BlueprintType = c.blueprintType
		default:
			return req, fmt.Errorf("invalid blueprint type %q (want %s or %s)", c.blueprintType, service.QRBuildings, service.QRPlatforms)
		}
	}
	return req, nil
}
