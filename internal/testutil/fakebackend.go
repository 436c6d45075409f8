package testutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"astroctl/internal/service"
)

// FakeBackend serves the solving backend's HTTP API from a FakeService.
// Requests are decoded the way the real server decodes them, so client
// tests see both directions of the wire format.
type FakeBackend struct {
	*httptest.Server

	Service *FakeService

	// StructuredErrors adds error_code to task-not-found bodies.
	StructuredErrors bool

	mu       sync.Mutex
	requests []*http.Request
}

// NewFakeBackend starts a server. Call Close when done.
func NewFakeBackend(svc *FakeService) *FakeBackend {
	b := &FakeBackend{Service: svc}

	r := chi.NewRouter()
	r.Use(b.record)
	r.Get("/get_task_id/", b.handleTaskID)
	r.Post("/add_task/", b.handleAddTask)
	r.Post("/send_clicks/", b.handleSendClicks)
	r.Post("/update_preview/", b.handleUpdatePreview)
	r.Post("/get_simple_coordinates_preview/", b.handleCoordinates)
	r.Get("/run_solver_and_stream", b.handleSolveStream)
	r.Post("/get_solver_results", b.handleSolverResult)
	r.Post("/generate_blueprint/", b.handleBlueprint)
	r.Get("/get_stats/", b.handleStats(service.StatsSolver))
	r.Get("/get_qr_stats/", b.handleStats(service.StatsQR))
	r.Post("/generate_qr_code_image/", b.handleQRImage)
	r.Post("/generate_qr_code_blueprint/", b.handleQRBlueprint)

	b.Server = httptest.NewServer(r)
	return b
}

// Requests returns every request received so far.
func (b *FakeBackend) Requests() []*http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*http.Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// LastRequest returns the most recent request, or nil.
func (b *FakeBackend) LastRequest() *http.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.requests) == 0 {
		return nil
	}
	return b.requests[len(b.requests)-1]
}

func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Clone(r.Context()))
		b.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (b *FakeBackend) handleTaskID(w http.ResponseWriter, r *http.Request) {
	id, err := b.Service.AllocateTask(r.Context())
	if err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task_id": id})
}

func (b *FakeBackend) handleAddTask(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "file.filename not found"})
		return
	}
	defer file.Close()

	id, err := b.Service.UploadImage(r.Context(), header.Filename, file)
	if err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task_id": id})
}

func (b *FakeBackend) handleSendClicks(w http.ResponseWriter, r *http.Request) {
	x, errX := strconv.Atoi(r.FormValue("x"))
	y, errY := strconv.Atoi(r.FormValue("y"))
	left, errL := strconv.ParseBool(r.FormValue("left"))
	if err := errors.Join(errX, errY, errL); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}
	a := service.Annotation{X: x, Y: y, Reinforcing: left}
	if err := b.Service.SendClick(r.Context(), r.FormValue("task_id"), a); err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (b *FakeBackend) handleUpdatePreview(w http.ResponseWriter, r *http.Request) {
	threshold, err := strconv.ParseFloat(r.FormValue("threshold"), 64)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}
	p, err := b.Service.UpdatePreview(r.Context(), r.FormValue("task_id"), threshold)
	if err != nil {
		b.writeError(w, err)
		return
	}
	body := map[string]any{}
	if p.Threshold != nil {
		body["current_threshold"] = *p.Threshold
	}
	if p.Image != nil {
		body["preview_image"] = p.Image.Base64
	}
	if p.Coordinates != nil {
		body["simple_coordinate_image"] = p.Coordinates.Base64
	}
	writeJSON(w, http.StatusOK, body)
}

func (b *FakeBackend) handleCoordinates(w http.ResponseWriter, r *http.Request) {
	img, err := b.Service.CoordinatesPreview(r.Context(), r.FormValue("input_blueprint"))
	if err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"simple_coordinates_image": img.Base64})
}

func (b *FakeBackend) handleSolveStream(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	withElevator, _ := strconv.ParseBool(q.Get("with_elevator_bool"))
	miners, _ := strconv.ParseFloat(q.Get("miners_timelimit"), 64)
	saturation, _ := strconv.ParseFloat(q.Get("saturation_timelimit"), 64)

	lr, err := b.Service.OpenSolveStream(r.Context(), q.Get("task_id"), service.SolveParams{
		WithElevator:        withElevator,
		MinersTimeLimit:     miners,
		SaturationTimeLimit: saturation,
		MinerBlueprint:      q.Get("input_miner_blueprint"),
	})
	if err != nil {
		b.writeError(w, err)
		return
	}
	defer lr.Close()

	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)

	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			// Drop the connection mid-stream.
			panic(http.ErrAbortHandler)
		}
		fmt.Fprintf(w, "data: %s\n\n", line)
		if flusher != nil {
			flusher.Flush()
		}
	}
}

func (b *FakeBackend) handleSolverResult(w http.ResponseWriter, r *http.Request) {
	remove, _ := strconv.ParseBool(r.FormValue("remove_non_saturated_miners"))
	taskID := r.FormValue("task_id")
	img, err := b.Service.SolverResult(r.Context(), taskID, remove)
	if err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task_id": taskID, "solution_image": img.Base64})
}

func (b *FakeBackend) handleBlueprint(w http.ResponseWriter, r *http.Request) {
	fluid, _ := strconv.ParseBool(r.FormValue("solve_for_fluid"))
	remove, _ := strconv.ParseBool(r.FormValue("remove_non_saturated_miners"))
	bp, err := b.Service.GenerateBlueprint(r.Context(), service.BlueprintRequest{
		TaskID:           r.FormValue("task_id"),
		MinerBlueprint:   r.FormValue("miner_blueprint"),
		SolveForFluid:    fluid,
		RemoveIncomplete: remove,
	})
	if err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blueprint": bp})
}

func (b *FakeBackend) handleStats(kind service.StatsKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := b.Service.Stats(r.Context(), kind)
		if err != nil {
			b.writeError(w, err)
			return
		}
		// Written by hand to keep payload order.
		parts := make([]string, 0, len(stats.Fields))
		for _, f := range stats.Fields {
			v := strconv.Quote(f.Value)
			if f.Numeric {
				v = f.Value
			}
			parts = append(parts, strconv.Quote(f.Name)+":"+v)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, "{%s}", strings.Join(parts, ","))
	}
}

func qrRequest(r *http.Request) (service.QRRequest, error) {
	version, err := strconv.Atoi(r.FormValue("version"))
	if err != nil {
		return service.QRRequest{}, err
	}
	return service.QRRequest{
		Text:            r.FormValue("input_text"),
		Version:         version,
		ErrorCorrection: r.FormValue("error_correction_level"),
		BlueprintType:   r.FormValue("blueprint_type"),
	}, nil
}

func (b *FakeBackend) handleQRImage(w http.ResponseWriter, r *http.Request) {
	req, err := qrRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}
	code, err := b.Service.QRImage(r.Context(), req)
	if err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"qr_code_image": code.Image.Base64, "version_used": code.VersionUsed})
}

func (b *FakeBackend) handleQRBlueprint(w http.ResponseWriter, r *http.Request) {
	req, err := qrRequest(r)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"error": err.Error()})
		return
	}
	bp, err := b.Service.QRBlueprint(r.Context(), req)
	if err != nil {
		b.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blueprint": bp})
}

func (b *FakeBackend) writeError(w http.ResponseWriter, err error) {
	var expired *service.ExpiredTaskError
	var serr *service.ServerError
	switch {
	case errors.As(err, &expired):
		body := map[string]any{"error": "Task not found"}
		if b.StructuredErrors {
			body = map[string]any{"error": "unknown task", "error_code": "task_not_found"}
		}
		writeJSON(w, http.StatusNotFound, body)
	case errors.As(err, &serr):
		w.WriteHeader(serr.StatusCode)
		io.WriteString(w, serr.Body)
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
