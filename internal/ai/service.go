package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/Ishwarya142/plantiq/internal/cache"
	"github.com/Ishwarya142/plantiq/internal/metrics"
	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/Ishwarya142/plantiq/pkg/prompt"
)

// IdentifyCacheTTL is how long a successful identification is reused for the same image.
const IdentifyCacheTTL = 24 * time.Hour

// DefaultTemperature is the sampling temperature used for plant analyses.
const DefaultTemperature float32 = 0.7

const identifyParseError = "Could not parse plant identification"

// AnalysisService turns plant snapshots and photos into model prompts and
// parses the replies.
type AnalysisService struct {
	provider    models.AIProvider
	cache       cache.Cache
	metrics     *metrics.Metrics
	prompts     prompt.Builder
	temperature float32
	timeout     time.Duration
	now         func() time.Time
}

// ServiceOption configures an AnalysisService.
type ServiceOption func(*AnalysisService)

// WithCache enables reuse of identification results through the shared cache.
func WithCache(c cache.Cache) ServiceOption {
	return func(s *AnalysisService) { s.cache = c }
}

func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *AnalysisService) { s.metrics = m }
}

// WithTemperature overrides DefaultTemperature for analyses.
func WithTemperature(t float32) ServiceOption {
	return func(s *AnalysisService) { s.temperature = t }
}

// NewAnalysisService creates a new AnalysisService. A non-positive timeout
// disables the per-call deadline.
func NewAnalysisService(provider models.AIProvider, timeout time.Duration, opts ...ServiceOption) *AnalysisService {
	s := &AnalysisService{
		provider:    provider,
		temperature: DefaultTemperature,
		timeout:     timeout,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Analyze runs one plant analysis. A reply that is not JSON is not an error:
// the result is then an UnparseableResult carrying the raw text.
func (s *AnalysisService) Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error) {
	if !req.Type.Valid() {
		return nil, fmt.Errorf("unknown analysis type %q", req.Type)
	}
	user, err := s.prompts.Build(req.Type, req.PlantData, req.WeatherForecast)
	if err != nil {
		return nil, err
	}

	slog.Info("processing analysis request", "type", req.Type, "plant", req.PlantData.Name)

	temp := s.temperature
	content, err := s.complete(ctx, string(req.Type), models.CompletionRequest{
		System:      prompt.SystemPrompt,
		User:        user,
		Temperature: &temp,
	})
	if err != nil {
		return nil, err
	}

	result, err := ExtractJSON(content)
	if err != nil {
		slog.Warn("failed to parse AI response", "type", req.Type, "error", err)
		result, _ = json.Marshal(models.UnparseableResult{Raw: content, Unparseable: true})
	}

	return &models.AnalysisResponse{
		Type:      req.Type,
		Result:    result,
		Timestamp: s.now().UTC(),
	}, nil
}

// RequestAnalysis returns only the result payload of Analyze.
func (s *AnalysisService) RequestAnalysis(ctx context.Context, req models.AnalysisRequest) (json.RawMessage, error) {
	resp, err := s.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Result, nil
}

// Identify asks the model to identify the plant in an image. A reply that is
// not JSON yields an unidentified record with the raw text instead of an error.
func (s *AnalysisService) Identify(ctx context.Context, req models.IdentifyRequest) (*models.IdentifyResponse, error) {
	image := strings.TrimSpace(req.ImageBase64)
	if image == "" {
		return nil, ErrNoImage
	}

	sum := sha256.Sum256([]byte(image))
	key := cache.IdentifyKey(hex.EncodeToString(sum[:]))
	if s.cache != nil {
		if cached, found, err := s.cache.Get(ctx, key); err == nil && found {
			slog.Debug("using cached identification", "key", key)
			return &models.IdentifyResponse{Result: cached, Timestamp: s.now().UTC()}, nil
		}
	}

	slog.Info("identifying plant from uploaded image")

	content, err := s.complete(ctx, "identify", models.CompletionRequest{
		System:   prompt.IdentifySystemPrompt,
		User:     prompt.IdentifyUserPrompt,
		ImageURL: image,
	})
	if err != nil {
		return nil, err
	}

	result, err := ExtractJSON(content)
	if err != nil {
		slog.Warn("failed to parse identification response", "error", err)
		result, _ = json.Marshal(models.PlantIdentification{
			Identified: false,
			Error:      identifyParseError,
			Raw:        content,
		})
	} else if s.cache != nil {
		_ = s.cache.Set(ctx, key, result, IdentifyCacheTTL)
	}

	return &models.IdentifyResponse{Result: result, Timestamp: s.now().UTC()}, nil
}

// complete calls the provider under the configured deadline and records the outcome.
func (s *AnalysisService) complete(ctx context.Context, operation string, req models.CompletionRequest) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	content, err := s.provider.Complete(ctx, req)
	elapsed := time.Since(start)

	if err != nil && !errors.Is(err, ErrInferenceTimeout) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %v", ErrInferenceTimeout, err)
	}
	s.metrics.ObserveAICall(operation, outcome(err), elapsed)
	if err != nil {
		return "", err
	}
	return content, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, ErrRateLimited):
		return metrics.OutcomeRateLimited
	case errors.Is(err, ErrPaymentRequired):
		return metrics.OutcomePayment
	case errors.Is(err, ErrInferenceTimeout):
		return metrics.OutcomeTimeout
	default:
		return metrics.OutcomeError
	}
}
