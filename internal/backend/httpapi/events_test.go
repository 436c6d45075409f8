package httpapi

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *eventReader) ([]string, error) {
	t.Helper()
	var out []string
	for {
		line, err := r.Next()
		if err != nil {
			return out, err
		}
		out = append(out, line)
	}
}

func TestEventReaderFraming(t *testing.T) {
	body := ": keep-alive\n" +
		"data: starting\n\n" +
		"event: log\nid: 7\ndata: step 1\n\n" +
		"data:no space\r\n\r\n" +
		"data: first\ndata: second\n\n" +
		"\n\n" +
		"data: DONE\n\n"

	r := newEventReader(io.NopCloser(strings.NewReader(body)))
	lines, err := readAll(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"starting", "step 1", "no space", "first\nsecond", "DONE"}, lines)
}

func TestEventReaderEmptyData(t *testing.T) {
	r := newEventReader(io.NopCloser(strings.NewReader("data: \n\ndata: x\n\n")))
	lines, err := readAll(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"", "x"}, lines)
}

func TestEventReaderUnterminatedFinalEvent(t *testing.T) {
	r := newEventReader(io.NopCloser(strings.NewReader("data: a\n\ndata: tail")))
	lines, err := readAll(t, r)

	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a", "tail"}, lines)
}

type failingBody struct {
	data   io.Reader
	err    error
	closed int
}

func (b *failingBody) Read(p []byte) (int, error) {
	n, err := b.data.Read(p)
	if errors.Is(err, io.EOF) {
		return n, b.err
	}
	return n, err
}

func (b *failingBody) Close() error {
	b.closed++
	return nil
}

func TestEventReaderTransportError(t *testing.T) {
	boom := errors.New("connection reset")
	body := &failingBody{data: strings.NewReader("data: one\n\n"), err: boom}
	r := newEventReader(body)

	lines, err := readAll(t, r)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"one"}, lines)
}

func TestEventReaderCloseIdempotent(t *testing.T) {
	body := &failingBody{data: strings.NewReader("data: one\n\n"), err: io.EOF}
	r := newEventReader(body)

	require.NoError(t, r.Close())
	require.NoError(t, r.Close())
	assert.Equal(t, 1, body.closed)

	_, err := r.Next()
	assert.Error(t, err)
}
