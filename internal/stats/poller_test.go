package stats_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroctl/internal/service"
	"astroctl/internal/stats"
	fakes "astroctl/internal/testutil"
)

func solverStats(total float64) service.Stats {
	return service.Stats{Fields: []service.StatField{
		{Name: "tasks_ran_in_total", Value: "42", Number: total, Numeric: true},
		{Name: "tasks_ran_today", Value: "3", Number: 3, Numeric: true},
		{Name: "current_running_tasks_num", Value: "1", Number: 1, Numeric: true},
	}}
}

func TestPollOncePublishesVerbatim(t *testing.T) {
	fake := fakes.NewFakeService()
	fake.SolverStats = solverStats(42)

	var buf bytes.Buffer
	p := stats.NewPoller(fake, service.StatsSolver, 0, nil, stats.NewWriterPublisher(&buf))

	require.NoError(t, p.PollOnce(context.Background()))
	assert.Equal(t, "tasks_ran_in_total: 42\ntasks_ran_today: 3\ncurrent_running_tasks_num: 1\n", buf.String())
}

func TestGaugePublisher(t *testing.T) {
	g := stats.NewGaugePublisher(service.StatsSolver)
	s := solverStats(42)
	s.Fields = append(s.Fields, service.StatField{Name: "note", Value: "n/a"})

	g.Publish(s)

	assert.Equal(t, 42.0, testutil.ToFloat64(g.Gauge("tasks_ran_in_total")))
	assert.Equal(t, 1.0, testutil.ToFloat64(g.Gauge("current_running_tasks_num")))

	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `astroctl_backend_stat{field="tasks_ran_today",kind="solver"} 3`)
	assert.NotContains(t, string(body), `field="note"`)
}

func TestRunSkipsFailedPolls(t *testing.T) {
	fake := fakes.NewFakeService()
	fake.StatsErr = errors.New("backend down")

	var published atomic.Int32
	p := stats.NewPoller(fake, service.StatsSolver, 10*time.Millisecond, nil,
		stats.PublisherFunc(func(service.Stats) { published.Add(1) }))

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	err := p.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, published.Load())
}

func TestRunPollsImmediatelyAndOnTick(t *testing.T) {
	fake := fakes.NewFakeService()
	fake.SolverStats = solverStats(1)

	var published atomic.Int32
	p := stats.NewPoller(fake, service.StatsSolver, 10*time.Millisecond, nil,
		stats.PublisherFunc(func(service.Stats) { published.Add(1) }))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return published.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRunSingleShot(t *testing.T) {
	fake := fakes.NewFakeService()
	fake.QRStats = service.Stats{Fields: []service.StatField{{Name: "qr_codes_ran_today", Value: "5", Number: 5, Numeric: true}}}

	var buf bytes.Buffer
	p := stats.NewPoller(fake, service.StatsQR, 0, nil, stats.NewWriterPublisher(&buf))

	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, "qr_codes_ran_today: 5\n", buf.String())
}
