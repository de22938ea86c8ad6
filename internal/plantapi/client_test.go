package plantapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/pkg/models"
)

// --- helpers ---

func functionServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	return NewHTTPClient(baseURL, "", 5*time.Second)
}

func sampleRequest() models.AnalysisRequest {
	return models.AnalysisRequest{
		Type: models.KindDailyInsight,
		PlantData: models.PlantData{
			Name:        "Fern",
			HealthScore: 60,
			Environment: models.Environment{Temperature: 20, Humidity: 50, Light: 40},
		},
	}
}

// --- RequestAnalysis tests ---

func TestRequestAnalysis_ValidResponse(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/plant-ai-analysis" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type: %s", ct)
		}

		var req models.AnalysisRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Type != models.KindDailyInsight || req.PlantData.Name != "Fern" {
			t.Errorf("unexpected request: %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"type":"daily-insight","result":{"insight":"Water more","confidence":70},"timestamp":"2024-06-01T00:00:00Z"}`))
	})

	result, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var insight models.DailyInsight
	if err := json.Unmarshal(result, &insight); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if insight.Insight != "Water more" {
		t.Errorf("expected insight 'Water more', got %q", insight.Insight)
	}
}

func TestRequestAnalysis_SendsBearerKey(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer anon-key" {
			t.Errorf("unexpected authorization header: %q", got)
		}
		w.Write([]byte(`{"type":"daily-insight","result":{}}`))
	})

	c := NewHTTPClient(ts.URL+"/", "anon-key", 5*time.Second)
	if _, err := c.RequestAnalysis(context.Background(), sampleRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestAnalysis_RateLimited(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"Rate limit exceeded. Please try again later."}`))
	})

	_, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ai.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got: %v", err)
	}
}

func TestRequestAnalysis_PaymentRequired(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":"AI credits exhausted. Please add more credits."}`))
	})

	_, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ai.ErrPaymentRequired) {
		t.Errorf("expected ErrPaymentRequired, got: %v", err)
	}
}

func TestRequestAnalysis_ErrorInOKBody(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"Rate limit exceeded"}`))
	})

	_, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ai.ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got: %v", err)
	}
}

func TestRequestAnalysis_ServerError(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"AI gateway error: 503"}`))
	})

	_, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ErrFunctionError) {
		t.Errorf("expected ErrFunctionError, got: %v", err)
	}
	if ai.IsSoft(err) {
		t.Errorf("server error must not be soft: %v", err)
	}
}

func TestRequestAnalysis_MissingResult(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"daily-insight"}`))
	})

	_, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ErrFunctionError) {
		t.Errorf("expected ErrFunctionError, got: %v", err)
	}
}

func TestRequestAnalysis_NullResult(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"type":"daily-insight","result":null}`))
	})

	_, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ErrFunctionError) {
		t.Errorf("expected ErrFunctionError, got: %v", err)
	}
}

func TestRequestAnalysis_MalformedJSON(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	})

	_, err := newTestClient(t, ts.URL).RequestAnalysis(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRequestAnalysis_Unreachable(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:1")
	_, err := c.RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got: %v", err)
	}
}

func TestRequestAnalysis_Timeout(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	c := NewHTTPClient(ts.URL, "", 50*time.Millisecond)
	_, err := c.RequestAnalysis(context.Background(), sampleRequest())
	if !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got: %v", err)
	}
}

// --- Identify tests ---

func TestIdentify_ValidResponse(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/functions/v1/identify-plant" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		var req models.IdentifyRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.ImageBase64 != "data:image/png;base64,AAAA" {
			t.Errorf("unexpected image: %q", req.ImageBase64)
		}
		w.Write([]byte(`{"result":{"identified":true,"name":"Boston Fern"},"timestamp":"2024-06-01T00:00:00Z"}`))
	})

	resp, err := newTestClient(t, ts.URL).Identify(context.Background(), models.IdentifyRequest{ImageBase64: "data:image/png;base64,AAAA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var id models.PlantIdentification
	if err := json.Unmarshal(resp.Result, &id); err != nil {
		t.Fatalf("decoding result: %v", err)
	}
	if !id.Identified || id.Name != "Boston Fern" {
		t.Errorf("unexpected identification: %+v", id)
	}
	if resp.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}
}

func TestIdentify_NoImage(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"No image provided"}`))
	})

	_, err := newTestClient(t, ts.URL).Identify(context.Background(), models.IdentifyRequest{})
	if !errors.Is(err, ErrFunctionError) {
		t.Errorf("expected ErrFunctionError, got: %v", err)
	}
}

// --- Ready tests ---

func TestReady_OK(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/health" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	})

	if err := newTestClient(t, ts.URL).Ready(context.Background()); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestReady_NotReady(t *testing.T) {
	ts := functionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	err := newTestClient(t, ts.URL).Ready(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got: %v", err)
	}
}

// --- classifyError tests ---

func TestClassifyError(t *testing.T) {
	if err := classifyError(context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Errorf("expected ErrTimeout, got: %v", err)
	}
	if err := classifyError(errors.New("connection refused")); !errors.Is(err, ErrUnreachable) {
		t.Errorf("expected ErrUnreachable, got: %v", err)
	}
}
