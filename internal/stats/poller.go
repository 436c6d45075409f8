// Package stats polls the backend's aggregate counters and republishes them.
package stats

import (
	"context"
	"log/slog"
	"time"

	"astroctl/internal/service"
)

// Publisher receives every successful poll.
type Publisher interface {
	Publish(stats service.Stats)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(service.Stats)

// Publish implements Publisher.
func (f PublisherFunc) Publish(s service.Stats) { f(s) }

// Poller fetches one counter set on a fixed interval. It runs independently
// of any task.
type Poller struct {
	svc        service.Service
	kind       service.StatsKind
	interval   time.Duration
	publishers []Publisher
	logger     *slog.Logger
}

// NewPoller creates a poller. A non-positive interval means one poll per Run.
func NewPoller(svc service.Service, kind service.StatsKind, interval time.Duration, logger *slog.Logger, publishers ...Publisher) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Poller{
		svc:        svc,
		kind:       kind,
		interval:   interval,
		publishers: publishers,
		logger:     logger,
	}
}

// PollOnce fetches the counters and publishes them.
func (p *Poller) PollOnce(ctx context.Context) error {
	s, err := p.svc.Stats(ctx, p.kind)
	if err != nil {
		return err
	}
	for _, pub := range p.publishers {
		pub.Publish(s)
	}
	return nil
}

// Run polls immediately and then on every tick until ctx is done.
// Failed polls are logged and skipped.
func (p *Poller) Run(ctx context.Context) error {
	p.poll(ctx)
	if p.interval <= 0 {
		return nil
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	if err := p.PollOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		p.logger.Warn("Stats poll failed", "kind", p.kind, "error", err)
	}
}
