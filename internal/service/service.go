// Package service defines the backend-agnostic interface for solver operations.
package service

import (
	"context"
	"io"

	"astroctl/internal/artifact"
)

// Service defines the interface for solving backend operations.
// Every backend call goes through this interface.
// Commands never build HTTP requests directly.
type Service interface {
	// AllocateTask asks the backend for a fresh task ID.
	AllocateTask(ctx context.Context) (string, error)

	// UploadImage uploads a source image and returns the task ID assigned to it.
	UploadImage(ctx context.Context, filename string, r io.Reader) (string, error)

	// SendClick submits one annotation for the task.
	SendClick(ctx context.Context, taskID string, a Annotation) error

	// UpdatePreview submits the threshold and returns the refreshed preview.
	// The returned threshold is authoritative.
	UpdatePreview(ctx context.Context, taskID string, threshold float64) (Preview, error)

	// CoordinatesPreview renders the simple-coordinates image for a miner blueprint.
	CoordinatesPreview(ctx context.Context, blueprint string) (artifact.Image, error)

	// OpenSolveStream starts a solve and returns its log stream.
	// The caller owns the reader and must close it.
	OpenSolveStream(ctx context.Context, taskID string, params SolveParams) (LineReader, error)

	// SolverResult fetches the rendered solution image.
	SolverResult(ctx context.Context, taskID string, removeIncomplete bool) (artifact.Image, error)

	// GenerateBlueprint asks the backend to encode the solution as a blueprint.
	GenerateBlueprint(ctx context.Context, req BlueprintRequest) (string, error)

	// Stats fetches the aggregate counters. Not scoped to any task.
	Stats(ctx context.Context, kind StatsKind) (Stats, error)

	// QRImage renders text as a QR code. Not scoped to any task.
	QRImage(ctx context.Context, req QRRequest) (QRCode, error)

	// QRBlueprint encodes text as a QR code blueprint.
	QRBlueprint(ctx context.Context, req QRRequest) (string, error)
}

// LineReader yields the payloads of a solve stream in arrival order.
type LineReader interface {
	// Next blocks until the next message arrives.
	// Returns io.EOF when the server ends the stream.
	Next() (string, error)

	// Close releases the connection. Safe to call more than once and from
	// another goroutine; a blocked Next returns an error afterwards.
	Close() error
}
