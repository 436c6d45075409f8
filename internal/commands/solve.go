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
	"astroctl/internal/result"
	"astroctl/internal/service"
	"astroctl/internal/session"
	"astroctl/internal/stream"
)

// DefaultTimeLimit is the default for both solve time limits, in seconds.
const DefaultTimeLimit = 60.0

func init() {
	Register(&SolveCmd{})
	Register(&ResultCmd{})
}

// resultFlags are shared by solve and result.
type resultFlags struct {
	fluid            bool
	removeIncomplete bool
	blueprintPath    string
	outDir           string
}

func (f *resultFlags) register(fs *flag.FlagSet) {
	fs.BoolVar(&f.fluid, "fluid", false, "")
	fs.BoolVar(&f.removeIncomplete, "remove-incomplete", false, "")
	fs.StringVar(&f.blueprintPath, "blueprint", "", "")
	fs.StringVar(&f.blueprintPath, "b", "", "")
	fs.StringVar(&f.outDir, "out", ".", "")
	fs.StringVar(&f.outDir, "o", ".", "")
}

// minerBlueprint returns the blueprint from --blueprint, or the bundled
// default for the mode.
func (f *resultFlags) minerBlueprint() (string, error) {
	if f.blueprintPath == "" {
		return defaultMiner(f.fluid), nil
	}
	data, err := readInput(f.blueprintPath)
	if err != nil {
		return "", err
	}
	bp := strings.TrimSpace(string(data))
	if bp == "" {
		return "", errors.New("miner blueprint is empty")
	}
	return bp, nil
}

func (f *resultFlags) request(taskID, miner string) result.Request {
	return result.Request{
		TaskID:           taskID,
		RemoveIncomplete: f.removeIncomplete,
		SolveForFluid:    f.fluid,
		MinerBlueprint:   miner,
	}
}

// SolveCmd runs the solver for the session's task and streams its log.
// On completion the solution image and blueprint are retrieved.
type SolveCmd struct {
	resultFlags
	elevator        bool
	fresh           bool
	minersLimit     float64
	saturationLimit float64
}

// SetOptions sets solve options (for testing).
func (c *SolveCmd) SetOptions(outDir string, elevator bool, minersLimit, saturationLimit float64) {
	c.outDir = outDir
	c.elevator = elevator
	c.minersLimit = minersLimit
	c.saturationLimit = saturationLimit
}

// SetFresh makes the solve allocate a new task (for testing).
func (c *SolveCmd) SetFresh(fresh bool) {
	c.fresh = fresh
}

// SetBlueprint sets the miner blueprint file (for testing).
func (c *SolveCmd) SetBlueprint(path string) {
	c.blueprintPath = path
}

func (c *SolveCmd) Name() string      { return "solve" }
func (c *SolveCmd) Aliases() []string { return []string{"run"} }
func (c *SolveCmd) Synopsis() string  { return "Run the solver and fetch the result" }
func (c *SolveCmd) Usage() string {
	return "astroctl solve [--fresh] [--elevator] [--miners-timelimit <s>] [--saturation-timelimit <s>] [--fluid] [--remove-incomplete] [--blueprint <file>] [--out <dir>]"
}
func (c *SolveCmd) NeedsBackend() bool { return true }

func (c *SolveCmd) RegisterFlags(fs *flag.FlagSet) {
	c.resultFlags.register(fs)
	fs.BoolVar(&c.elevator, "elevator", false, "")
	fs.BoolVar(&c.fresh, "fresh", false, "")
	fs.Float64Var(&c.minersLimit, "miners-timelimit", DefaultTimeLimit, "")
	fs.Float64Var(&c.saturationLimit, "saturation-timelimit", DefaultTimeLimit, "")
}

func (c *SolveCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	miner, err := c.minerBlueprint()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	params := service.SolveParams{
		WithElevator:        c.elevator,
		MinersTimeLimit:     session.ClampTimeLimit(c.minersLimit, session.TimeLimitMax),
		SaturationTimeLimit: session.ClampTimeLimit(c.saturationLimit, session.TimeLimitMax),
		MinerBlueprint:      miner,
	}
	log := logger(cfg)

	return withSession(cfg, svc, errOut, func(s *session.Session) int {
		if c.fresh {
			// The server accumulates asteroid locations per task.
			if _, err := s.Reallocate(ctx); err != nil {
				return reportError(errOut, err)
			}
		}
		if _, err := s.EnsureTask(ctx); err != nil {
			return reportError(errOut, err)
		}
		if err := cfg.EnsureDir(); err != nil {
			fmt.Fprintf(errOut, "error: create config directory: %v\n", err)
			return exitcode.ConfigError
		}
		taskID, err := s.BeginSolve()
		if err != nil {
			return reportError(errOut, err)
		}
		// Other processes see the stream through session.json.
		if err := saveSession(cfg, s); err != nil {
			s.EndSolve(false)
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.ConfigError
		}

		var outcome *result.Outcome
		retriever := result.NewRetriever(svc, log)
		consumer := stream.NewConsumer(svc, log,
			stream.WithLineHandler(func(line string) { output.FormatStreamLine(out, line) }),
			stream.WithCompletion(func(ctx context.Context) {
				o := retriever.Retrieve(ctx, c.request(taskID, miner))
				outcome = &o
			}),
		)

		err = consumer.Run(ctx, taskID, params)
		if err != nil {
			s.NoteFailure(err)
			s.EndSolve(false)
			if service.IsExpired(err) || errors.Is(err, context.Canceled) {
				return reportError(errOut, err)
			}
			fmt.Fprintf(errOut, "error: solve stream failed: %v\n", err)
			return exitcode.BackendError
		}
		s.EndSolve(true)
		return writeOutcome(s, *outcome, c.outDir, cfg, out, errOut)
	})
}

// ResultCmd re-fetches the solution of the session's task.
type ResultCmd struct {
	resultFlags
}

// SetOutDir sets the output directory (for testing).
func (c *ResultCmd) SetOutDir(dir string) {
	c.outDir = dir
}

func (c *ResultCmd) Name() string      { return "result" }
func (c *ResultCmd) Aliases() []string { return nil }
func (c *ResultCmd) Synopsis() string  { return "Fetch the solution image and blueprint" }
func (c *ResultCmd) Usage() string {
	return "astroctl result [--fluid] [--remove-incomplete] [--blueprint <file>] [--out <dir>]"
}
func (c *ResultCmd) NeedsBackend() bool { return true }

func (c *ResultCmd) RegisterFlags(fs *flag.FlagSet) {
	c.resultFlags.register(fs)
}

func (c *ResultCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	miner, err := c.minerBlueprint()
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	return withSession(cfg, svc, errOut, func(s *session.Session) int {
		taskID, err := s.RequireTask()
		if err != nil {
			return reportError(errOut, err)
		}
		o := result.NewRetriever(svc, logger(cfg)).Retrieve(ctx, c.request(taskID, miner))
		return writeOutcome(s, o, c.outDir, cfg, out, errOut)
	})
}

// writeOutcome saves whatever parts of o succeeded and reports the rest.
func writeOutcome(s *session.Session, o result.Outcome, outDir string, cfg *config.Config, out, errOut io.Writer) int {
	if o.ImageErr != nil {
		s.NoteFailure(o.ImageErr)
		return reportError(errOut, o.ImageErr)
	}
	if outDir == "" {
		outDir = "."
	}

	imagePath, err := writeImage(outDir, "solution.png", &o.Image)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		output.FormatWritten(out, "solution", imagePath)
	}

	if o.BlueprintErr != nil {
		s.NoteFailure(o.BlueprintErr)
		return reportError(errOut, o.BlueprintErr)
	}
	bpPath := filepath.Join(outDir, "blueprint.txt")
	if err := os.WriteFile(bpPath, []byte(o.Blueprint+"\n"), 0644); err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if !cfg.Quiet {
		output.FormatWritten(out, "blueprint", bpPath)
	}
	output.FormatBlueprint(out, o.Blueprint)
	return exitcode.Success
}
