package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"astroctl/internal/config"
	"astroctl/internal/exitcode"
	"astroctl/internal/service"
	"astroctl/internal/stats"
)

const metricsShutdownTimeout = 5 * time.Second

func init() {
	Register(&StatsCmd{})
}

// StatsCmd prints the backend's counters, once or on an interval.
type StatsCmd struct {
	qr          bool
	watch       bool
	interval    time.Duration
	metricsAddr string
}

// SetWatch enables polling with the given interval (for testing).
func (c *StatsCmd) SetWatch(interval time.Duration) {
	c.watch = true
	c.interval = interval
}

// SetQR selects the QR counters (for testing).
func (c *StatsCmd) SetQR(qr bool) {
	c.qr = qr
}

func (c *StatsCmd) Name() string      { return "stats" }
func (c *StatsCmd) Aliases() []string { return nil }
func (c *StatsCmd) Synopsis() string  { return "Show backend usage counters" }
func (c *StatsCmd) Usage() string {
	return "astroctl stats [--qr] [--watch] [--interval <duration>] [--metrics-addr <addr>]"
}
func (c *StatsCmd) NeedsBackend() bool { return true }

func (c *StatsCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.qr, "qr", false, "")
	fs.BoolVar(&c.watch, "watch", false, "")
	fs.BoolVar(&c.watch, "w", false, "")
	fs.DurationVar(&c.interval, "interval", 0, "")
	fs.StringVar(&c.metricsAddr, "metrics-addr", "", "")
}

func (c *StatsCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}
	if c.metricsAddr != "" && !c.watch {
		fmt.Fprintln(errOut, "error: --metrics-addr requires --watch")
		return exitcode.UserError
	}

	kind := service.StatsSolver
	if c.qr {
		kind = service.StatsQR
	}
	printer := stats.NewWriterPublisher(out)

	if !c.watch {
		poller := stats.NewPoller(svc, kind, 0, logger(cfg), printer)
		if err := poller.PollOnce(ctx); err != nil {
			return reportError(errOut, err)
		}
		return exitcode.Success
	}

	interval := c.interval
	if interval <= 0 {
		interval = cfg.StatsInterval
	}
	printer.Timestamp = true
	publishers := []stats.Publisher{printer}

	if c.metricsAddr != "" {
		gauges := stats.NewGaugePublisher(kind)
		publishers = append(publishers, gauges)

		stop, err := serveMetrics(c.metricsAddr, gauges.Handler())
		if err != nil {
			fmt.Fprintf(errOut, "error: metrics listener: %v\n", err)
			return exitcode.UserError
		}
		defer stop()
		if !cfg.Quiet {
			fmt.Fprintf(errOut, "serving metrics on %s/metrics\n", c.metricsAddr)
		}
	}

	poller := stats.NewPoller(svc, kind, interval, logger(cfg), publishers...)
	if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return reportError(errOut, err)
	}
	return exitcode.Success
}

// serveMetrics starts an HTTP server exposing h at /metrics and returns a
// function that shuts it down.
func serveMetrics(addr string, h http.Handler) (func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", h)
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go server.Serve(listener)

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		server.Shutdown(ctx)
	}, nil
}
