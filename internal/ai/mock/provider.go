package mock

import (
	"context"
	"sync"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/pkg/models"
)

// Canned replies returned by NewMockProvider.
const (
	AnalysisReply = "```json\n" +
		`{"insight":"Water more","impact":"10%","basedOn":["soil"],"confidence":70}` +
		"\n```"
	IdentifyReply = `{"identified":true,"name":"Boston Fern","species":"Nephrolepis exaltata","confidence":92,` +
		`"description":"A lush fern with arching fronds.",` +
		`"careInfo":{"light":"bright indirect","water":"keep soil moist","humidity":"high","temperature":"18-24°C"},` +
		`"healthTips":["Mist regularly","Avoid direct sun"],"suggestedHealthScore":80}`
)

// MockProvider satisfies models.AIProvider for testing.
type MockProvider struct {
	Name_        string
	Model_       string
	CompleteFunc func(ctx context.Context, req models.CompletionRequest) (string, error)

	mu    sync.Mutex
	calls []models.CompletionRequest
}

func (m *MockProvider) Name() string { return m.Name_ }

func (m *MockProvider) Model() string { return m.Model_ }

func (m *MockProvider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, req)
	}
	return "", nil
}

// Calls returns a copy of every request the provider has received.
func (m *MockProvider) Calls() []models.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallCount returns the number of Complete calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// NewMockProvider returns a MockProvider with sensible default responses:
// an identification record for image requests and a fenced daily insight otherwise.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock",
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, req models.CompletionRequest) (string, error) {
			if req.ImageURL != "" {
				return IdentifyReply, nil
			}
			return AnalysisReply, nil
		},
	}
}

// NewReplyProvider returns a MockProvider that always replies with text.
func NewReplyProvider(text string) *MockProvider {
	return &MockProvider{
		Name_:  "mock-reply",
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return text, nil
		},
	}
}

// NewFailingProvider returns a MockProvider that always returns the given error.
func NewFailingProvider(err error) *MockProvider {
	return &MockProvider{
		Name_:  "mock-failing",
		Model_: "mock-v1",
		CompleteFunc: func(_ context.Context, _ models.CompletionRequest) (string, error) {
			return "", err
		},
	}
}

// NewTimeoutProvider returns a MockProvider that blocks until context is cancelled.
func NewTimeoutProvider() *MockProvider {
	return &MockProvider{
		Name_:  "mock-timeout",
		Model_: "mock-v1",
		CompleteFunc: func(ctx context.Context, _ models.CompletionRequest) (string, error) {
			<-ctx.Done()
			return "", ai.ErrInferenceTimeout
		},
	}
}

var _ models.AIProvider = (*MockProvider)(nil)
