package plantapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/pkg/models"
)

// Sentinel errors for PlantIQ function failures.
var (
	ErrUnreachable   = errors.New("plantiq api unreachable")
	ErrFunctionError = errors.New("plantiq function error")
	ErrTimeout       = errors.New("plantiq api timeout")
)

const (
	analysisPath = "/functions/v1/plant-ai-analysis"
	identifyPath = "/functions/v1/identify-plant"
	healthPath   = "/api/v1/health"
)

// Client is the interface for calling the PlantIQ AI functions over HTTP.
type Client interface {
	RequestAnalysis(ctx context.Context, req models.AnalysisRequest) (json.RawMessage, error)
	Identify(ctx context.Context, req models.IdentifyRequest) (*models.IdentifyResponse, error)
	Ready(ctx context.Context) error
}

// HTTPClient implements Client using the function endpoints.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a new PlantIQ HTTP client. apiKey is optional and is
// sent as a bearer token when set.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// RequestAnalysis posts req to the analysis function and returns its result payload.
func (c *HTTPClient) RequestAnalysis(ctx context.Context, req models.AnalysisRequest) (json.RawMessage, error) {
	var resp models.AnalysisResponse
	if err := c.post(ctx, analysisPath, req, &resp); err != nil {
		return nil, err
	}
	if r := bytes.TrimSpace(resp.Result); len(r) == 0 || bytes.Equal(r, []byte("null")) {
		return nil, fmt.Errorf("%w: response has no result", ErrFunctionError)
	}
	return resp.Result, nil
}

// Identify posts an image to the identification function.
func (c *HTTPClient) Identify(ctx context.Context, req models.IdentifyRequest) (*models.IdentifyResponse, error) {
	var resp models.IdentifyResponse
	if err := c.post(ctx, identifyPath, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *HTTPClient) Ready(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+healthPath, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: plantiq not ready (status %d)", ErrUnreachable, resp.StatusCode)
	}
	return nil
}

func (c *HTTPClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	c.setHeaders(httpReq)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return classifyError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	var fnErr functionError
	_ = json.Unmarshal(raw, &fnErr)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ai.ErrRateLimited, fnErr.Error)
	case resp.StatusCode == http.StatusPaymentRequired:
		return fmt.Errorf("%w: %s", ai.ErrPaymentRequired, fnErr.Error)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d: %s", ErrFunctionError, resp.StatusCode, fnErr.Error)
	case fnErr.Error != "":
		if strings.Contains(fnErr.Error, "Rate limit") || strings.Contains(fnErr.Error, "429") {
			return fmt.Errorf("%w: %s", ai.ErrRateLimited, fnErr.Error)
		}
		return fmt.Errorf("%w: %s", ErrFunctionError, fnErr.Error)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *HTTPClient) setHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// functionError is the failure body of both functions.
type functionError struct {
	Error string `json:"error"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
