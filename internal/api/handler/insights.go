package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/Ishwarya142/plantiq/internal/analysis"
	"github.com/Ishwarya142/plantiq/internal/api/response"
	"github.com/Ishwarya142/plantiq/internal/store"
	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/go-chi/chi/v5"
)

// Analyst is the analysis client as seen by the insights handler.
type Analyst interface {
	Request(ctx context.Context, kind models.AnalysisKind, plant models.PlantData, forecast []models.WeatherForecast) (json.RawMessage, error)
}

type insightRequest struct {
	WeatherForecast []models.WeatherForecast `json:"weather_forecast" validate:"max=16"`
}

type insightResponse struct {
	Kind   models.AnalysisKind `json:"kind"`
	Result json.RawMessage     `json:"result"`
	Error  string              `json:"error,omitempty"`
}

// NewInsightHandler returns the handler for
// POST /api/v1/plants/{plantID}/insights/{kind}.
//
// A nil result is not an error: the analysis may be in flight for another
// caller, rate limited, or failed. Error is set only when this request ran
// the analysis and it failed.
func NewInsightHandler(s store.Store, analyst Analyst) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind, err := models.ParseAnalysisKind(chi.URLParam(r, "kind"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_ANALYSIS_TYPE", err.Error(), nil)
			return
		}

		plant, ok := loadPlant(w, r, s)
		if !ok {
			return
		}

		var req insightRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if err := validate.Struct(req); err != nil {
			response.Validation(w, "Invalid forecast", validationDetails(err))
			return
		}

		result, runErr := analyst.Request(r.Context(), kind, plant.Snapshot(), req.WeatherForecast)

		resp := insightResponse{Kind: kind, Result: result}
		if runErr != nil {
			resp.Error = runErr.Error()
		}

		if kind == models.KindCareRecommendation {
			if care := analysis.Decode[models.CareRecommendations](result); care != nil && care.OverallAssessment != "" {
				if err := s.SetPlantCareTips(r.Context(), plant.ID, plant.UserID, care.OverallAssessment); err != nil {
					slog.Warn("storing care tips failed", "plant_id", plant.ID, "error", err)
				}
			}
		}

		response.JSON(w, resp)
	}
}
