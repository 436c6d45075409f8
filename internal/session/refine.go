package session

import (
	"context"
	"fmt"

	"astroctl/internal/service"
)

// Annotate submits one annotation and then refreshes the preview so the
// server-side threshold it produced is bound before returning.
func (s *Session) Annotate(ctx context.Context, a service.Annotation) (service.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskID, err := s.requireTaskLocked()
	if err != nil {
		return service.Preview{}, err
	}

	s.logger.Debug("Sending annotation",
		"task_id", taskID, "x", a.X, "y", a.Y, "reinforcing", a.Reinforcing)

	if err := s.svc.SendClick(ctx, taskID, a); err != nil {
		s.noteFailureLocked(err)
		return service.Preview{}, fmt.Errorf("send annotation: %w", err)
	}
	return s.refreshLocked(ctx)
}

// Refresh sends the current threshold and binds the server's answer.
// On failure the threshold keeps the value it had before the call.
func (s *Session) Refresh(ctx context.Context) (service.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireTaskLocked(); err != nil {
		return service.Preview{}, err
	}
	return s.refreshLocked(ctx)
}

// UpdateThreshold sets a provisional threshold and refreshes with it.
// If the refresh fails the threshold reverts to its value before the call.
func (s *Session) UpdateThreshold(ctx context.Context, v float64) (service.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireTaskLocked(); err != nil {
		return service.Preview{}, err
	}
	return s.provisionalRefreshLocked(ctx, v)
}

// StepThreshold applies delta to the threshold, clamps it, and refreshes the
// preview with the new value. Failure reverts like UpdateThreshold.
func (s *Session) StepThreshold(ctx context.Context, delta float64) (service.Preview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.requireTaskLocked(); err != nil {
		return service.Preview{}, err
	}
	return s.provisionalRefreshLocked(ctx, s.state.Threshold+delta)
}

func (s *Session) provisionalRefreshLocked(ctx context.Context, v float64) (service.Preview, error) {
	prev, prevConfirmed := s.state.Threshold, s.state.Confirmed
	s.setThresholdLocked(v)

	preview, err := s.refreshLocked(ctx)
	if err != nil {
		s.state.Threshold, s.state.Confirmed = prev, prevConfirmed
		return service.Preview{}, err
	}
	return preview, nil
}

func (s *Session) refreshLocked(ctx context.Context) (service.Preview, error) {
	taskID := s.state.TaskID

	preview, err := s.svc.UpdatePreview(ctx, taskID, s.state.Threshold)
	if err != nil {
		s.noteFailureLocked(err)
		return service.Preview{}, fmt.Errorf("update preview: %w", err)
	}

	if preview.Threshold != nil {
		s.bindServerThresholdLocked(*preview.Threshold)
	}
	if preview.Image != nil {
		if w, h, err := preview.Image.Size(); err == nil {
			s.state.PreviewWidth, s.state.PreviewHeight = w, h
		} else {
			s.logger.Debug("Preview size unreadable", "error", err)
		}
	}
	if s.state.Phase == PhaseUploaded || s.state.Phase == PhaseSolved {
		s.state.Phase = PhaseRefining
	}
	s.state.UpdatedAt = s.now()
	return preview, nil
}

// noteFailureLocked moves the session to PhaseError when the server no
// longer knows the task. Other failures leave the session as it was.
func (s *Session) noteFailureLocked(err error) {
	if service.IsExpired(err) {
		s.logger.Warn("Task expired on server", "task_id", s.state.TaskID)
		s.state.Phase = PhaseError
		s.state.UpdatedAt = s.now()
	}
}

// NoteFailure records the outcome of a scoped call made outside the
// session, such as result retrieval.
func (s *Session) NoteFailure(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.noteFailureLocked(err)
}

// BeginSolve claims the session's single stream slot.
// Returns service.ErrStreamActive while a previous stream is still open,
// in this process or, with WithStreamLock, in any other.
func (s *Session) BeginSolve() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	taskID, err := s.requireTaskLocked()
	if err != nil {
		return "", err
	}
	if s.streamOpen {
		return "", service.ErrStreamActive
	}
	if s.lockPath != "" {
		if err := acquireLock(s.lockPath, taskID, s.now()); err != nil {
			return "", err
		}
	}
	s.streamOpen = true
	s.state.Phase = PhaseSolving
	s.state.UpdatedAt = s.now()
	return taskID, nil
}

// EndSolve releases the stream slot. A stream that did not complete leaves
// the task usable, so the session returns to Refining.
func (s *Session) EndSolve(solved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.releaseStreamLocked()
	if s.state.Phase != PhaseSolving {
		return
	}
	if solved {
		s.state.Phase = PhaseSolved
	} else {
		s.state.Phase = PhaseRefining
	}
	s.state.UpdatedAt = s.now()
}

func (s *Session) releaseStreamLocked() {
	if s.streamOpen && s.lockPath != "" {
		if err := releaseLock(s.lockPath); err != nil {
			s.logger.Warn("Stream lock not released", "path", s.lockPath, "error", err)
		}
	}
	s.streamOpen = false
}
