// Package httpapi implements the service.Service interface against the
// solving backend's HTTP API.
package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"

	"astroctl/internal/artifact"
	"astroctl/internal/config"
	"astroctl/internal/service"
)

// Endpoint paths. The trailing slashes are significant to the backend.
const (
	pathTaskID       = "/get_task_id/"
	pathAddTask      = "/add_task/"
	pathSendClicks   = "/send_clicks/"
	pathUpdate       = "/update_preview/"
	pathCoordinates  = "/get_simple_coordinates_preview/"
	pathSolveStream  = "/run_solver_and_stream"
	pathSolverResult = "/get_solver_results"
	pathBlueprint    = "/generate_blueprint/"
	pathStats        = "/get_stats/"
	pathQRStats      = "/get_qr_stats/"
	pathQRImage      = "/generate_qr_code_image/"
	pathQRBlueprint  = "/generate_qr_code_blueprint/"
)

// ExpiredErrorCode is the structured error_code the backend sends for
// unknown task IDs.
const ExpiredErrorCode = "task_not_found"

// expiredMessage is matched in error bodies that carry no error_code.
const expiredMessage = "Task not found"

// EmptyBlueprint is sent in place of a blank miner blueprint.
const EmptyBlueprint = "empty"

// Client implements service.Service over HTTP.
type Client struct {
	base      *url.URL
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

var _ service.Service = (*Client)(nil)

// New creates a client from configuration. When a bearer token is
// configured, every request carries it.
func New(ctx context.Context, cfg *config.Config) (*Client, error) {
	token, err := cfg.LoadToken()
	if err != nil {
		return nil, err
	}

	httpClient := &http.Client{}
	if token != nil {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	}

	c, err := NewWithHTTPClient(cfg.BaseURL, httpClient, cfg.Logger)
	if err != nil {
		return nil, err
	}
	c.userAgent = cfg.UserAgent
	return c, nil
}

// NewWithHTTPClient creates a client with a custom HTTP client (for testing).
func NewWithHTTPClient(baseURL string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{base: u, http: httpClient, logger: logger}, nil
}

// AllocateTask asks the backend for a fresh task ID.
func (c *Client) AllocateTask(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathTaskID, nil, nil)
	if err != nil {
		return "", err
	}
	body, err := c.doJSON(req, "allocate task", "")
	if err != nil {
		return "", err
	}
	return requireString(body, "task_id", "allocate task")
}

// UploadImage sends the image as the multipart field "file".
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("read %s: %w", filename, err)
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, pathAddTask, nil, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	body, err := c.doJSON(req, "upload image", "")
	if err != nil {
		return "", err
	}
	return requireString(body, "task_id", "upload image")
}

// SendClick submits one annotation.
func (c *Client) SendClick(ctx context.Context, taskID string, a service.Annotation) error {
	form := url.Values{
		"task_id": {taskID},
		"x":       {strconv.Itoa(a.X)},
		"y":       {strconv.Itoa(a.Y)},
		"left":    {strconv.FormatBool(a.Reinforcing)},
	}
	resp, err := c.postForm(ctx, pathSendClicks, form, "send click", taskID)
	if err != nil {
		return err
	}
	// The response carries nothing the client needs.
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// UpdatePreview submits the threshold and returns the refreshed preview.
func (c *Client) UpdatePreview(ctx context.Context, taskID string, threshold float64) (service.Preview, error) {
	form := url.Values{
		"task_id":   {taskID},
		"threshold": {strconv.FormatFloat(threshold, 'f', -1, 64)},
	}
	body, err := c.postFormJSON(ctx, pathUpdate, form, "update preview", taskID)
	if err != nil {
		return service.Preview{}, err
	}

	var p service.Preview
	if v := body.Get("current_threshold"); v.Exists() && v.Type == gjson.Number {
		f := v.Float()
		p.Threshold = &f
	}
	p.Image = optionalImage(body, "preview_image")
	p.Coordinates = optionalImage(body, "simple_coordinate_image")
	return p, nil
}

// CoordinatesPreview renders the simple-coordinates image for a blueprint.
func (c *Client) CoordinatesPreview(ctx context.Context, blueprint string) (artifact.Image, error) {
	form := url.Values{"input_blueprint": {blueprint}}
	body, err := c.postFormJSON(ctx, pathCoordinates, form, "coordinates preview", "")
	if err != nil {
		return artifact.Image{}, err
	}
	return requireImage(body, "simple_coordinates_image", "coordinates preview")
}

// OpenSolveStream starts the solve and returns its event stream.
// The request has no deadline of its own; cancel ctx or Close the reader.
func (c *Client) OpenSolveStream(ctx context.Context, taskID string, params service.SolveParams) (service.LineReader, error) {
	q := url.Values{
		"task_id":               {taskID},
		"with_elevator_bool":    {strconv.FormatBool(params.WithElevator)},
		"miners_timelimit":      {formatSeconds(params.MinersTimeLimit)},
		"saturation_timelimit":  {formatSeconds(params.SaturationTimeLimit)},
		"input_miner_blueprint": {params.MinerBlueprint},
	}
	req, err := c.newRequest(ctx, http.MethodGet, pathSolveStream, q, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.do(req, "open solve stream", taskID)
	if err != nil {
		return nil, err
	}
	return newEventReader(resp.Body), nil
}

// SolverResult fetches the rendered solution image.
func (c *Client) SolverResult(ctx context.Context, taskID string, removeIncomplete bool) (artifact.Image, error) {
	form := url.Values{
		"task_id":                     {taskID},
		"remove_non_saturated_miners": {strconv.FormatBool(removeIncomplete)},
	}
	body, err := c.postFormJSON(ctx, pathSolverResult, form, "fetch solution", taskID)
	if err != nil {
		return artifact.Image{}, err
	}
	return requireImage(body, "solution_image", "fetch solution")
}

// GenerateBlueprint asks the backend to encode the solution.
// A blank miner blueprint is sent as EmptyBlueprint.
func (c *Client) GenerateBlueprint(ctx context.Context, req service.BlueprintRequest) (string, error) {
	miner := req.MinerBlueprint
	if strings.TrimSpace(miner) == "" {
		miner = EmptyBlueprint
	}
	form := url.Values{
		"task_id":                     {req.TaskID},
		"miner_blueprint":             {miner},
		"solve_for_fluid":             {strconv.FormatBool(req.SolveForFluid)},
		"remove_non_saturated_miners": {strconv.FormatBool(req.RemoveIncomplete)},
	}
	body, err := c.postFormJSON(ctx, pathBlueprint, form, "generate blueprint", req.TaskID)
	if err != nil {
		return "", err
	}
	return requireString(body, "blueprint", "generate blueprint")
}

// Stats fetches the counters in payload order.
func (c *Client) Stats(ctx context.Context, kind service.StatsKind) (service.Stats, error) {
	path := pathStats
	if kind == service.StatsQR {
		path = pathQRStats
	}
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return service.Stats{}, err
	}
	body, err := c.doJSON(req, "fetch stats", "")
	if err != nil {
		return service.Stats{}, err
	}
	if !body.IsObject() {
		return service.Stats{}, malformed("fetch stats", "expected an object")
	}

	var stats service.Stats
	body.ForEach(func(key, value gjson.Result) bool {
		f := service.StatField{Name: key.String(), Value: value.String()}
		if value.Type == gjson.Number {
			f.Number = value.Float()
			f.Numeric = true
		}
		stats.Fields = append(stats.Fields, f)
		return true
	})
	return stats, nil
}

// QRImage renders text as a QR code. VersionUsed falls back to the
// requested version when the backend does not report one.
func (c *Client) QRImage(ctx context.Context, req service.QRRequest) (service.QRCode, error) {
	body, err := c.postFormJSON(ctx, pathQRImage, qrForm(req), "generate QR code", "")
	if err != nil {
		return service.QRCode{}, err
	}
	img, err := requireImage(body, "qr_code_image", "generate QR code")
	if err != nil {
		return service.QRCode{}, err
	}
	code := service.QRCode{Image: img, VersionUsed: req.Version}
	if v := body.Get("version_used"); v.Exists() && (v.Type == gjson.Number || v.Type == gjson.String) {
		if n := int(v.Int()); n > 0 {
			code.VersionUsed = n
		}
	}
	return code, nil
}

// QRBlueprint encodes text as a QR code blueprint.
func (c *Client) QRBlueprint(ctx context.Context, req service.QRRequest) (string, error) {
	form := qrForm(req)
	form.Set("blueprint_type", req.BlueprintType)
	body, err := c.postFormJSON(ctx, pathQRBlueprint, form, "generate QR blueprint", "")
	if err != nil {
		return "", err
	}
	return requireString(body, "blueprint", "generate QR blueprint")
}

func qrForm(req service.QRRequest) url.Values {
	return url.Values{
		"input_text":             {req.Text},
		"version":                {strconv.Itoa(req.Version)},
		"error_correction_level": {req.ErrorCorrection},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, q url.Values, body io.Reader) (*http.Request, error) {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	if q != nil {
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return req, nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, op, taskID string) (*http.Response, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, op, taskID)
}

func (c *Client) postFormJSON(ctx context.Context, path string, form url.Values, op, taskID string) (gjson.Result, error) {
	req, err := c.newRequest(ctx, http.MethodPost, path, nil, strings.NewReader(form.Encode()))
	if err != nil {
		return gjson.Result{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.doJSON(req, op, taskID)
}

// do sends req and returns the response for a 2xx status. The caller
// closes the body.
func (c *Client) do(req *http.Request, op, taskID string) (*http.Response, error) {
	c.logger.Debug("Backend request",
		"op", op, "method", req.Method, "path", req.URL.Path,
		"request_id", req.Header.Get("X-Request-ID"))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &service.TransportError{Op: op, Err: err}
	}
	if err := googleapi.CheckResponse(resp); err != nil {
		resp.Body.Close()
		c.logger.Debug("Backend error", "op", op, "error", err)
		return nil, classify(err, taskID)
	}
	return resp, nil
}

func (c *Client) doJSON(req *http.Request, op, taskID string) (gjson.Result, error) {
	req.Header.Set("Accept", "application/json")
	resp, err := c.do(req, op, taskID)
	if err != nil {
		return gjson.Result{}, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, &service.TransportError{Op: op, Err: err}
	}
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, malformed(op, "invalid JSON")
	}
	return gjson.ParseBytes(data), nil
}

// classify maps a non-2xx response to the service error taxonomy.
func classify(err error, taskID string) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	if isExpiredBody(gerr.Body) {
		return &service.ExpiredTaskError{TaskID: taskID, Body: gerr.Body}
	}
	return &service.ServerError{StatusCode: gerr.Code, Body: gerr.Body}
}

func isExpiredBody(body string) bool {
	if gjson.Valid(body) && gjson.Get(body, "error_code").String() == ExpiredErrorCode {
		return true
	}
	return strings.Contains(body, expiredMessage)
}

func requireString(body gjson.Result, field, op string) (string, error) {
	v := body.Get(field)
	if v.Type != gjson.String || v.String() == "" {
		return "", malformed(op, "missing "+field)
	}
	return v.String(), nil
}

func requireImage(body gjson.Result, field, op string) (artifact.Image, error) {
	img := optionalImage(body, field)
	if img == nil {
		return artifact.Image{}, malformed(op, "missing "+field)
	}
	return *img, nil
}

func optionalImage(body gjson.Result, field string) *artifact.Image {
	v := body.Get(field)
	if v.Type != gjson.String || v.String() == "" {
		return nil
	}
	img := artifact.FromBase64(v.String())
	return &img
}

func malformed(op, detail string) error {
	return &service.ServerError{StatusCode: http.StatusOK, Body: fmt.Sprintf("%s: malformed response: %s", op, detail)}
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
