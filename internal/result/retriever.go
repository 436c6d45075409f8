// Package result fetches the artifacts of a finished solve.
package result

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"astroctl/internal/artifact"
	"astroctl/internal/service"
)

// Request selects what to fetch for a solved task.
type Request struct {
	TaskID           string
	RemoveIncomplete bool
	SolveForFluid    bool
	MinerBlueprint   string
}

// Outcome holds both artifacts. Each part fails independently: a blueprint
// error never discards an image that was already obtained.
type Outcome struct {
	Image    artifact.Image
	ImageErr error

	Blueprint    string
	BlueprintErr error
}

// Err joins both errors, or returns nil if both parts succeeded.
func (o Outcome) Err() error {
	return errors.Join(o.ImageErr, o.BlueprintErr)
}

// Retriever fetches solve results. It never retries.
type Retriever struct {
	svc    service.Service
	logger *slog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(svc service.Service, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &Retriever{svc: svc, logger: logger}
}

// Fetch returns the rendered solution image.
func (r *Retriever) Fetch(ctx context.Context, taskID string, removeIncomplete bool) (artifact.Image, error) {
	img, err := r.svc.SolverResult(ctx, taskID, removeIncomplete)
	if err != nil {
		return artifact.Image{}, fmt.Errorf("fetch solution image: %w", err)
	}
	return img, nil
}

// Blueprint returns the generated blueprint text.
func (r *Retriever) Blueprint(ctx context.Context, req Request) (string, error) {
	bp, err := r.svc.GenerateBlueprint(ctx, service.BlueprintRequest{
		TaskID:           req.TaskID,
		MinerBlueprint:   req.MinerBlueprint,
		SolveForFluid:    req.SolveForFluid,
		RemoveIncomplete: req.RemoveIncomplete,
	})
	if err != nil {
		return "", fmt.Errorf("generate blueprint: %w", err)
	}
	return bp, nil
}

// Retrieve fetches the image and, once it succeeds, the blueprint.
func (r *Retriever) Retrieve(ctx context.Context, req Request) Outcome {
	var out Outcome

	out.Image, out.ImageErr = r.Fetch(ctx, req.TaskID, req.RemoveIncomplete)
	if out.ImageErr != nil {
		r.logger.Debug("Solution image failed; blueprint skipped", "task_id", req.TaskID, "error", out.ImageErr)
		return out
	}

	out.Blueprint, out.BlueprintErr = r.Blueprint(ctx, req)
	if out.BlueprintErr != nil {
		r.logger.Debug("Blueprint failed", "task_id", req.TaskID, "error", out.BlueprintErr)
	}
	return out
}
