package stream_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"astroctl/internal/service"
	"astroctl/internal/stream"
	"astroctl/internal/testutil"
)

func fakeWithTask(lines []string, streamErr error) *testutil.FakeService {
	fake := testutil.NewFakeService()
	fake.AddTask("t1")
	fake.StreamLines = lines
	fake.StreamErr = streamErr
	return fake
}

func TestConsumerStopsAtSentinel(t *testing.T) {
	fake := fakeWithTask([]string{"a", "b", "DONE", "extra"}, nil)
	var completions int
	var seen []string

	c := stream.NewConsumer(fake, nil,
		stream.WithLineHandler(func(l string) { seen = append(seen, l) }),
		stream.WithCompletion(func(context.Context) { completions++ }),
	)

	err := c.Run(context.Background(), "t1", service.SolveParams{})
	require.NoError(t, err)

	assert.Equal(t, stream.Done, c.State())
	assert.Equal(t, []string{"a", "b", "DONE"}, c.Lines())
	assert.Equal(t, c.Lines(), seen)
	assert.Equal(t, 1, completions)

	streams := fake.Streams()
	require.Len(t, streams, 1)
	assert.Equal(t, 3, streams[0].Reads(), "lines after the sentinel must not be read")
	assert.True(t, streams[0].Closed())
}

func TestConsumerTransportFailure(t *testing.T) {
	fake := fakeWithTask([]string{"starting", "step1"}, errors.New("connection reset"))
	completed := false

	c := stream.NewConsumer(fake, nil,
		stream.WithCompletion(func(context.Context) { completed = true }))

	err := c.Run(context.Background(), "t1", service.SolveParams{})

	var terr *service.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, stream.Failed, c.State())
	assert.Equal(t, []string{"starting", "step1", stream.DiagnosticLine}, c.Lines())
	assert.False(t, completed)
	assert.True(t, fake.Streams()[0].Closed())
	assert.Len(t, fake.Streams(), 1, "a failed stream is never reopened")
}

func TestConsumerEOFWithoutSentinelFails(t *testing.T) {
	fake := fakeWithTask([]string{"starting"}, nil)
	c := stream.NewConsumer(fake, nil)

	err := c.Run(context.Background(), "t1", service.SolveParams{})

	var terr *service.TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, stream.Failed, c.State())
	assert.Equal(t, []string{"starting", stream.DiagnosticLine}, c.Lines())
}

func TestConsumerOpenFailure(t *testing.T) {
	fake := fakeWithTask(nil, nil)
	c := stream.NewConsumer(fake, nil)

	err := c.Run(context.Background(), "missing", service.SolveParams{})

	assert.True(t, service.IsExpired(err))
	assert.Equal(t, stream.Failed, c.State())
	assert.Equal(t, []string{stream.DiagnosticLine}, c.Lines())
}

func TestConsumerSingleUse(t *testing.T) {
	fake := fakeWithTask([]string{"DONE"}, nil)
	c := stream.NewConsumer(fake, nil)

	require.NoError(t, c.Run(context.Background(), "t1", service.SolveParams{}))
	assert.ErrorIs(t, c.Run(context.Background(), "t1", service.SolveParams{}), stream.ErrStarted)
}

func TestConsumerCloseOutsideOpenIsNoop(t *testing.T) {
	fake := fakeWithTask([]string{"x", "DONE"}, nil)
	c := stream.NewConsumer(fake, nil)

	c.Close()
	c.Close()
	assert.Equal(t, stream.Idle, c.State())

	require.NoError(t, c.Run(context.Background(), "t1", service.SolveParams{}))
	lines := c.Lines()

	c.Close()
	c.Close()
	assert.Equal(t, stream.Done, c.State())
	assert.Equal(t, lines, c.Lines())
}

// blockingReader delivers lines from a channel and blocks until closed.
type blockingReader struct {
	lines     chan string
	closeOnce sync.Once
	closed    chan struct{}
}

func newBlockingReader() *blockingReader {
	return &blockingReader{lines: make(chan string, 8), closed: make(chan struct{})}
}

func (r *blockingReader) Next() (string, error) {
	select {
	case l := <-r.lines:
		return l, nil
	case <-r.closed:
		return "", errors.New("use of closed connection")
	}
}

func (r *blockingReader) Close() error {
	r.closeOnce.Do(func() { close(r.closed) })
	return nil
}

type blockingService struct {
	*testutil.FakeService
	reader *blockingReader
}

func (s *blockingService) OpenSolveStream(ctx context.Context, taskID string, params service.SolveParams) (service.LineReader, error) {
	return s.reader, nil
}

func TestConsumerCloseWhileOpen(t *testing.T) {
	svc := &blockingService{FakeService: testutil.NewFakeService(), reader: newBlockingReader()}
	svc.reader.lines <- "starting"

	completed := false
	c := stream.NewConsumer(svc, nil,
		stream.WithCompletion(func(context.Context) { completed = true }))

	errc := make(chan error, 1)
	go func() { errc <- c.Run(context.Background(), "t1", service.SolveParams{}) }()

	require.Eventually(t, func() bool { return len(c.Lines()) == 1 }, time.Second, 5*time.Millisecond)
	c.Close()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, stream.ErrClosed)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Close")
	}

	assert.Equal(t, stream.Closed, c.State())
	assert.Equal(t, []string{"starting"}, c.Lines())
	assert.False(t, completed)

	c.Close()
	assert.Equal(t, stream.Closed, c.State())
}

func TestConsumerContextCancel(t *testing.T) {
	svc := &blockingService{FakeService: testutil.NewFakeService(), reader: newBlockingReader()}
	ctx, cancel := context.WithCancel(context.Background())

	c := stream.NewConsumer(svc, nil)
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx, "t1", service.SolveParams{}) }()

	require.Eventually(t, func() bool { return c.State() == stream.Open }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, stream.Closed, c.State())
	assert.Empty(t, c.Lines())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "open", stream.Open.String())
	assert.True(t, stream.Failed.Terminal())
	assert.False(t, stream.Open.Terminal())
}
