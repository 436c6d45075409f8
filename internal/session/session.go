// Package session owns the server-assigned task and its calibration threshold.
//
// A Session mediates every request scoped to one task. Operations on a
// Session are serialized: a refinement round-trip holds the session until the
// server's threshold has been bound, so two concurrent refinements cannot
// interleave their request and resync.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"astroctl/internal/service"
)

const (
	// DefaultThreshold is used for new sessions and for invalid input.
	DefaultThreshold = 0.4

	// ThresholdStep is the increment applied by StepThreshold.
	ThresholdStep = 0.05

	// MinThreshold and MaxThreshold bound the threshold.
	MinThreshold = 0.0
	MaxThreshold = 1.0

	// TimeLimitMax bounds both solve time limits, in seconds.
	TimeLimitMax = 300.0
)

// Phase is the lifecycle position of the session's task.
type Phase string

const (
	PhaseEmpty    Phase = "empty"
	PhaseUploaded Phase = "uploaded"
	PhaseRefining Phase = "refining"
	PhaseSolving  Phase = "solving"
	PhaseSolved   Phase = "solved"

	// PhaseError is entered when the server reports the task as unknown.
	// Only Reset, Upload, or a fresh allocation leave it.
	PhaseError Phase = "error"
)

// State is the persistent part of a session.
type State struct {
	SessionID string    `json:"session_id"`
	TaskID    string    `json:"task_id,omitempty"`
	Threshold float64   `json:"threshold"`
	Phase     Phase     `json:"phase"`
	UpdatedAt time.Time `json:"updated_at"`

	// Confirmed is true once the server has echoed the current threshold.
	Confirmed bool `json:"confirmed"`

	// PreviewWidth and PreviewHeight are the intrinsic size of the last
	// preview, used to map display coordinates into image space.
	PreviewWidth  int `json:"preview_width,omitempty"`
	PreviewHeight int `json:"preview_height,omitempty"`
}

// Session is one client-side task session.
type Session struct {
	mu         sync.Mutex
	svc        service.Service
	state      State
	streamOpen bool
	lockPath   string
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures a Session.
type Option func(*Session)

// WithStreamLock makes the stream slot visible to every process using path.
// BeginSolve creates the file and EndSolve removes it.
func WithStreamLock(path string) Option {
	return func(s *Session) {
		s.lockPath = path
	}
}

// New creates an empty session.
func New(svc service.Service, logger *slog.Logger, opts ...Option) *Session {
	s := newSession(svc, logger, opts)
	s.resetLocked()
	return s
}

// Restore recreates a session from persisted state.
// A Solving phase is kept only while a live process holds the stream lock
// for the task. Otherwise the stream died with its process and the session
// is restored as Refining.
func Restore(svc service.Service, st State, logger *slog.Logger, opts ...Option) *Session {
	s := newSession(svc, logger, opts)
	if st.SessionID == "" {
		// Nothing was persisted yet
		s.resetLocked()
		return s
	}
	if st.Phase == "" {
		st.Phase = PhaseEmpty
	}
	if st.Phase == PhaseSolving && (s.lockPath == "" || !lockHeld(s.lockPath, st.TaskID)) {
		st.Phase = PhaseRefining
	}
	st.Threshold = clampThreshold(st.Threshold)
	s.state = st
	return s
}

func newSession(svc service.Service, logger *slog.Logger, opts []Option) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Session{svc: svc, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// TaskID returns the current task ID, or "" if none is held.
func (s *Session) TaskID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TaskID
}

// Threshold returns the current threshold.
func (s *Session) Threshold() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Threshold
}

// Reset discards the task and starts a new client session.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *Session) resetLocked() {
	s.state = State{
		SessionID: uuid.NewString(),
		Threshold: DefaultThreshold,
		Phase:     PhaseEmpty,
		UpdatedAt: s.now(),
	}
	s.releaseStreamLocked()
}

// RequireTask returns the task ID for a scoped operation.
func (s *Session) RequireTask() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requireTaskLocked()
}

func (s *Session) requireTaskLocked() (string, error) {
	if s.state.TaskID == "" {
		return "", service.ErrNoTask
	}
	if s.state.Phase == PhaseError {
		return "", &service.ExpiredTaskError{TaskID: s.state.TaskID}
	}
	return s.state.TaskID, nil
}

// EnsureTask returns the held task ID, allocating one if none is held.
// A session whose task expired is reset before allocating.
func (s *Session) EnsureTask(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.TaskID != "" && s.state.Phase != PhaseError {
		return s.state.TaskID, nil
	}
	return s.allocateLocked(ctx)
}

// Reallocate replaces the held task with a freshly allocated one. The
// session is left untouched when the allocation fails or a stream is open.
func (s *Session) Reallocate(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.streamOpen || s.state.Phase == PhaseSolving {
		return "", service.ErrStreamActive
	}
	return s.allocateLocked(ctx)
}

func (s *Session) allocateLocked(ctx context.Context) (string, error) {
	id, err := s.svc.AllocateTask(ctx)
	if err != nil {
		return "", fmt.Errorf("allocate task: %w", err)
	}
	s.resetLocked()
	s.bindTaskLocked(id)
	s.logger.Debug("Task allocated", "task_id", id, "session_id", s.state.SessionID)
	return id, nil
}

// Upload sends a source image and starts a new session for the returned task.
// The session is left untouched when the upload fails.
func (s *Session) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.svc.UploadImage(ctx, filename, r)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	s.resetLocked()
	s.bindTaskLocked(id)
	s.logger.Debug("Image uploaded", "task_id", id, "file", filename, "session_id", s.state.SessionID)
	return id, nil
}

func (s *Session) bindTaskLocked(id string) {
	s.state.TaskID = id
	s.state.Phase = PhaseUploaded
	s.state.UpdatedAt = s.now()
}

// SetPreviewSize records the intrinsic size of the current preview.
func (s *Session) SetPreviewSize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.PreviewWidth = width
	s.state.PreviewHeight = height
}

// SetThreshold sets a provisional threshold. Non-finite input resets to the
// default; the result is clamped to [0,1]. Returns the value now held.
func (s *Session) SetThreshold(v float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setThresholdLocked(v)
}

// SetThresholdInput parses user text the same way SetThreshold treats numbers.
func (s *Session) SetThresholdInput(text string) float64 {
	v, err := ParseThreshold(text)
	if err != nil {
		s.logger.Debug("Threshold input reset to default", "error", err)
	}
	return s.SetThreshold(v)
}

func (s *Session) setThresholdLocked(v float64) float64 {
	s.state.Threshold = clampThreshold(v)
	s.state.Confirmed = false
	s.state.UpdatedAt = s.now()
	return s.state.Threshold
}

// BindServerThreshold overwrites the threshold with the value the server
// returned. This is the only authoritative write.
func (s *Session) BindServerThreshold(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bindServerThresholdLocked(v)
}

func (s *Session) bindServerThresholdLocked(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		s.logger.Warn("Ignoring non-finite server threshold")
		return
	}
	s.state.Threshold = v
	s.state.Confirmed = true
	s.state.UpdatedAt = s.now()
}

// ParseThreshold parses threshold text. Invalid input yields the default
// together with a ValidationError that callers are expected to swallow.
func ParseThreshold(text string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return DefaultThreshold, &service.ValidationError{Field: "threshold", Input: text}
	}
	return v, nil
}

// ClampTimeLimit clamps a solve time limit to [0,max]. NaN becomes 0.
func ClampTimeLimit(v, max float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}

func clampThreshold(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		v = DefaultThreshold
	}
	return math.Max(MinThreshold, math.Min(MaxThreshold, v))
}
