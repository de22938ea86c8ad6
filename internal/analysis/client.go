package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/internal/cache"
	"github.com/Ishwarya142/plantiq/internal/metrics"
	"github.com/Ishwarya142/plantiq/internal/queue"
	"github.com/Ishwarya142/plantiq/pkg/models"
)

// Remote performs one analysis against the analysis endpoint.
type Remote interface {
	RequestAnalysis(ctx context.Context, req models.AnalysisRequest) (json.RawMessage, error)
}

// Client coordinates the analysis cache, the in-flight set and the request
// queue in front of a Remote. Analyze never returns an error: failures resolve
// to a nil result, reported through the Notifier and LastError.
type Client struct {
	remote   Remote
	cache    *cache.MemoryCache
	pending  *queue.PendingSet
	queue    *queue.RequestQueue
	notifier Notifier
	metrics  *metrics.Metrics

	outstanding atomic.Int64

	mu      sync.Mutex
	lastErr string
}

// Option configures a Client.
type Option func(*Client)

// WithCache replaces the default five minute cache.
func WithCache(c *cache.MemoryCache) Option {
	return func(cl *Client) { cl.cache = c }
}

// WithQueue replaces the default queue. The Client takes ownership and closes it.
func WithQueue(q *queue.RequestQueue) Option {
	return func(cl *Client) { cl.queue = q }
}

func WithNotifier(n Notifier) Option {
	return func(cl *Client) { cl.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(cl *Client) { cl.metrics = m }
}

// NewClient creates a Client for remote.
func NewClient(remote Remote, opts ...Option) *Client {
	c := &Client{
		remote:   remote,
		pending:  queue.NewPendingSet(),
		notifier: LogNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.cache == nil {
		c.cache = cache.NewMemoryCache(cache.DefaultAnalysisTTL)
	}
	if c.queue == nil {
		c.queue = queue.New(queue.DefaultDelay)
	}
	return c
}

// Analyze returns the analysis of kind for plant, from cache when fresh.
//
// It returns nil when an identical request is already in flight, when the
// remote fails, or when ctx is done before the queued job completes.
// In the last case the job still runs and populates the cache.
func (c *Client) Analyze(ctx context.Context, kind models.AnalysisKind, plant models.PlantData, forecast []models.WeatherForecast) json.RawMessage {
	result, _ := c.Request(ctx, kind, plant, forecast)
	return result
}

// Request is Analyze plus the hard failure of this call, if it ran one.
// Duplicates, soft failures and a done ctx yield a nil result and a nil error.
func (c *Client) Request(ctx context.Context, kind models.AnalysisKind, plant models.PlantData, forecast []models.WeatherForecast) (json.RawMessage, error) {
	key := cache.AnalysisKey(kind, plant)

	if cached, ok := c.cache.Get(key); ok {
		c.metrics.CacheLookup(true)
		slog.Debug("using cached analysis", "type", kind, "plant", plant.Name)
		return cached, nil
	}
	c.metrics.CacheLookup(false)

	release, ok := c.pending.TryAcquire(key)
	if !ok {
		c.metrics.Duplicate()
		slog.Debug("analysis already pending", "type", kind, "plant", plant.Name)
		return nil, nil
	}
	// A job for key may have finished between the lookup and the acquire.
	if cached, ok := c.cache.Get(key); ok {
		release()
		return cached, nil
	}

	c.outstanding.Add(1)
	c.setError("")

	req := models.AnalysisRequest{Type: kind, PlantData: plant, WeatherForecast: forecast}
	done := make(chan outcome, 1)

	err := c.queue.Enqueue(func(qctx context.Context) {
		var out outcome
		func() {
			defer c.outstanding.Add(-1)
			defer release()
			out.result, out.err = c.execute(qctx, key, req)
		}()
		done <- out
	})
	if err != nil {
		release()
		c.outstanding.Add(-1)
		c.fail(err)
		return nil, err
	}

	select {
	case out := <-done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, nil
	}
}

var errEmptyResult = errors.New("analysis returned an empty result")

type outcome struct {
	result json.RawMessage
	err    error
}

// execute runs on the queue worker. Only hard failures return an error.
func (c *Client) execute(ctx context.Context, key string, req models.AnalysisRequest) (json.RawMessage, error) {
	slog.Info("requesting analysis", "type", req.Type, "plant", req.PlantData.Name)

	result, err := c.remote.RequestAnalysis(ctx, req)
	if err == nil && isEmpty(result) {
		err = errEmptyResult
	}
	switch {
	case err == nil:
		if isUnparseable(result) {
			slog.Warn("analysis reply was not JSON", "type", req.Type, "plant", req.PlantData.Name)
			return result, nil
		}
		c.cache.Put(key, result)
		slog.Info("analysis complete", "type", req.Type, "plant", req.PlantData.Name)
		return result, nil
	case isRateLimited(err):
		slog.Info("rate limited, using fallback data", "type", req.Type)
		c.notifier.Notify(Notice{Level: LevelInfo, Message: MsgBusy})
		return nil, nil
	case isPaymentRequired(err):
		slog.Warn("ai credits exhausted", "type", req.Type)
		c.notifier.Notify(Notice{Level: LevelWarning, Message: MsgCreditsLow})
		return nil, nil
	default:
		c.fail(err)
		return nil, err
	}
}

func (c *Client) fail(err error) {
	msg := err.Error()
	if msg == "" {
		msg = "Analysis failed"
	}
	slog.Error("plant AI error", "error", err)
	c.setError(msg)
	c.notifier.Notify(Notice{Level: LevelError, Message: "AI Analysis Error: " + msg})
}

// Loading reports whether any analysis started by this client is outstanding.
func (c *Client) Loading() bool {
	return c.outstanding.Load() > 0
}

// LastError returns the message of the most recent hard failure, or "" once
// a new analysis has started.
func (c *Client) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// QueueLen returns the number of analyses waiting for the queue worker.
func (c *Client) QueueLen() int {
	return c.queue.Len()
}

// Close stops the request queue. Queued analyses still resolve.
func (c *Client) Close(ctx context.Context) error {
	return c.queue.Close(ctx)
}

func (c *Client) setError(msg string) {
	c.mu.Lock()
	c.lastErr = msg
	c.mu.Unlock()
}

func isRateLimited(err error) bool {
	if errors.Is(err, ai.ErrRateLimited) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "Rate limit") || strings.Contains(msg, "429")
}

func isPaymentRequired(err error) bool {
	if errors.Is(err, ai.ErrPaymentRequired) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "402") || strings.Contains(msg, "credits")
}

func isUnparseable(result json.RawMessage) bool {
	var marker struct {
		Unparseable bool `json:"unparseable"`
	}
	return json.Unmarshal(result, &marker) == nil && marker.Unparseable
}

// isEmpty reports a missing or JSON null result.
func isEmpty(result json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(result))
	return trimmed == "" || trimmed == "null"
}
