// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"astroctl/internal/artifact"
	"astroctl/internal/service"
)

// ErrInjected is a generic failure for error-injection fields.
var ErrInjected = errors.New("injected failure")

// FakeService is an in-memory implementation of service.Service for testing.
// Tasks live only in the fake; ExpireTask makes the next scoped call fail
// the way the backend does after its retention window.
type FakeService struct {
	mu      sync.Mutex
	nextID  int
	tasks   map[string]*FakeTask
	streams []*SliceLineReader
	qr      []service.QRRequest

	// ServerThreshold, when set, replaces the threshold echoed by UpdatePreview.
	ServerThreshold func(sent float64) float64

	// PreviewImage is returned as the preview artifact. Defaults to a 64x32 PNG.
	PreviewImage artifact.Image

	// StreamLines are yielded by every opened solve stream.
	StreamLines []string
	// StreamErr, when set, is returned after StreamLines are exhausted.
	StreamErr error

	SolutionImage artifact.Image
	Blueprint     string
	SolverStats   service.Stats
	QRStats       service.Stats

	// QRCodeImage is returned by QRImage. Defaults to a 21x21 PNG.
	QRCodeImage artifact.Image

	// QRVersionUsed, when set, replaces the requested version in QRImage.
	QRVersionUsed   int
	QRBlueprintText string

	// Error injection for testing
	AllocateErr     error
	UploadErr       error
	ClickErr        error
	PreviewErr      error
	CoordinatesErr  error
	OpenStreamErr   error
	SolverResultErr error
	BlueprintErr    error
	StatsErr        error
	QRImageErr      error
	QRBlueprintErr  error
}

// FakeTask records what the fake saw for one task.
type FakeTask struct {
	ID          string
	Filename    string
	Upload      []byte
	Clicks      []service.Annotation
	Thresholds  []float64
	SolveParams []service.SolveParams
	Expired     bool
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{
		tasks:         make(map[string]*FakeTask),
		PreviewImage:    PNG(64, 32),
		SolutionImage:   PNG(8, 8),
		Blueprint:       "0eNqVkM0KgzAQhF9F5hz8aVPp5hmPgzBQb8A=",
		StreamLines:     []string{"starting", "DONE"},
		QRCodeImage:     PNG(21, 21),
		QRBlueprintText: "SHAPEZ2-3-qr$",
	}
}

// AddTask registers a task the fake will recognize.
func (f *FakeService) AddTask(id string) *FakeTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := &FakeTask{ID: id}
	f.tasks[id] = t
	return t
}

// Task returns the recorded task, or nil.
func (f *FakeService) Task(id string) *FakeTask {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tasks[id]
}

// ExpireTask makes every later call scoped to id fail as expired.
func (f *FakeService) ExpireTask(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.tasks[id]; ok {
		t.Expired = true
	}
}

// Streams returns every stream opened so far.
func (f *FakeService) Streams() []*SliceLineReader {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*SliceLineReader, len(f.streams))
	copy(out, f.streams)
	return out
}

func (f *FakeService) newTaskLocked() *FakeTask {
	f.nextID++
	t := &FakeTask{ID: fmt.Sprintf("task-%d", f.nextID)}
	f.tasks[t.ID] = t
	return t
}

func (f *FakeService) lookupLocked(id string) (*FakeTask, error) {
	t, ok := f.tasks[id]
	if !ok || t.Expired {
		return nil, &service.ExpiredTaskError{TaskID: id, Body: `{"error":"Task not found"}`}
	}
	return t, nil
}

// AllocateTask implements service.Service.
func (f *FakeService) AllocateTask(ctx context.Context) (string, error) {
	if f.AllocateErr != nil {
		return "", f.AllocateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.newTaskLocked().ID, nil
}

// UploadImage implements service.Service.
func (f *FakeService) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	if f.UploadErr != nil {
		return "", f.UploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.newTaskLocked()
	t.Filename = filename
	t.Upload = data
	return t.ID, nil
}

// SendClick implements service.Service.
func (f *FakeService) SendClick(ctx context.Context, taskID string, a service.Annotation) error {
	if f.ClickErr != nil {
		return f.ClickErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookupLocked(taskID)
	if err != nil {
		return err
	}
	t.Clicks = append(t.Clicks, a)
	return nil
}

// UpdatePreview implements service.Service.
func (f *FakeService) UpdatePreview(ctx context.Context, taskID string, threshold float64) (service.Preview, error) {
	if f.PreviewErr != nil {
		return service.Preview{}, f.PreviewErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookupLocked(taskID)
	if err != nil {
		return service.Preview{}, err
	}
	t.Thresholds = append(t.Thresholds, threshold)

	echoed := threshold
	if f.ServerThreshold != nil {
		echoed = f.ServerThreshold(threshold)
	}
	img := f.PreviewImage
	coords := f.PreviewImage
	return service.Preview{Threshold: &echoed, Image: &img, Coordinates: &coords}, nil
}

// CoordinatesPreview implements service.Service.
func (f *FakeService) CoordinatesPreview(ctx context.Context, blueprint string) (artifact.Image, error) {
	if f.CoordinatesErr != nil {
		return artifact.Image{}, f.CoordinatesErr
	}
	return f.PreviewImage, nil
}

// OpenSolveStream implements service.Service.
func (f *FakeService) OpenSolveStream(ctx context.Context, taskID string, params service.SolveParams) (service.LineReader, error) {
	if f.OpenStreamErr != nil {
		return nil, f.OpenStreamErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, err := f.lookupLocked(taskID)
	if err != nil {
		return nil, err
	}
	t.SolveParams = append(t.SolveParams, params)
	r := NewSliceLineReader(f.StreamLines, f.StreamErr)
	f.streams = append(f.streams, r)
	return r, nil
}

// SolverResult implements service.Service.
func (f *FakeService) SolverResult(ctx context.Context, taskID string, removeIncomplete bool) (artifact.Image, error) {
	if f.SolverResultErr != nil {
		return artifact.Image{}, f.SolverResultErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lookupLocked(taskID); err != nil {
		return artifact.Image{}, err
	}
	return f.SolutionImage, nil
}

// GenerateBlueprint implements service.Service.
func (f *FakeService) GenerateBlueprint(ctx context.Context, req service.BlueprintRequest) (string, error) {
	if f.BlueprintErr != nil {
		return "", f.BlueprintErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, err := f.lookupLocked(req.TaskID); err != nil {
		return "", err
	}
	return f.Blueprint, nil
}

// Stats implements service.Service.
func (f *FakeService) Stats(ctx context.Context, kind service.StatsKind) (service.Stats, error) {
	if f.StatsErr != nil {
		return service.Stats{}, f.StatsErr
	}
	if kind == service.StatsQR {
		return f.QRStats, nil
	}
	return f.SolverStats, nil
}

// QRRequests returns every QR request seen so far.
func (f *FakeService) QRRequests() []service.QRRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]service.QRRequest(nil), f.qr...)
}

// QRImage implements service.Service.
func (f *FakeService) QRImage(ctx context.Context, req service.QRRequest) (service.QRCode, error) {
	if f.QRImageErr != nil {
		return service.QRCode{}, f.QRImageErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qr = append(f.qr, req)
	version := req.Version
	if f.QRVersionUsed > 0 {
		version = f.QRVersionUsed
	}
	return service.QRCode{Image: f.QRCodeImage, VersionUsed: version}, nil
}

// QRBlueprint implements service.Service.
func (f *FakeService) QRBlueprint(ctx context.Context, req service.QRRequest) (string, error) {
	if f.QRBlueprintErr != nil {
		return "", f.QRBlueprintErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.qr = append(f.qr, req)
	return f.QRBlueprintText, nil
}

// SliceLineReader is a service.LineReader over a fixed slice of payloads.
type SliceLineReader struct {
	mu     sync.Mutex
	lines  []string
	err    error
	pos    int
	closed bool
}

// NewSliceLineReader yields lines in order, then err (or io.EOF when nil).
func NewSliceLineReader(lines []string, err error) *SliceLineReader {
	return &SliceLineReader{lines: append([]string(nil), lines...), err: err}
}

// Next implements service.LineReader.
func (r *SliceLineReader) Next() (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return "", errors.New("read on closed stream")
	}
	if r.pos < len(r.lines) {
		line := r.lines[r.pos]
		r.pos++
		return line, nil
	}
	if r.err != nil {
		return "", r.err
	}
	return "", io.EOF
}

// Close implements service.LineReader.
func (r *SliceLineReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Reads returns how many payloads were consumed.
func (r *SliceLineReader) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pos
}

// Closed reports whether Close was called.
func (r *SliceLineReader) Closed() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closed
}
