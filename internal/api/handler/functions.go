package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/Ishwarya142/plantiq/internal/ai"
	"github.com/Ishwarya142/plantiq/internal/api/response"
	"github.com/Ishwarya142/plantiq/internal/objectstore"
	"github.com/Ishwarya142/plantiq/pkg/models"
)

// User-facing messages of the function endpoints.
const (
	msgRateLimited      = "Rate limit exceeded. Please try again later."
	msgPaymentRequired  = "AI credits exhausted. Please add more credits."
	msgIdentifyPayment  = "AI credits exhausted."
	msgNoImage          = "No image provided"
	msgInvalidJSON      = "Invalid JSON body"
	msgBodyTooLarge     = "Request body too large"

	// maxFunctionBodySize fits a base64 data URL of the largest accepted
	// photo plus the JSON around it.
	maxFunctionBodySize = (objectstore.MaxImageBytes+2)/3*4 + 1<<20
)

// Analyzer runs analyses and identifications against the model.
type Analyzer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResponse, error)
	Identify(ctx context.Context, req models.IdentifyRequest) (*models.IdentifyResponse, error)
}

// NewPlantAIAnalysisHandler returns the handler for POST /functions/v1/plant-ai-analysis.
func NewPlantAIAnalysisHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.AnalysisRequest
		if !decodeFunctionBody(w, r, &req) {
			return
		}
		if err := validate.Struct(req); err != nil {
			response.FunctionError(w, http.StatusBadRequest, firstValidationMessage(err))
			return
		}

		resp, err := svc.Analyze(r.Context(), req)
		if err != nil {
			slog.Error("plant analysis failed", "type", req.Type, "error", err)
			switch {
			case errors.Is(err, ai.ErrRateLimited):
				response.FunctionError(w, http.StatusTooManyRequests, msgRateLimited)
			case errors.Is(err, ai.ErrPaymentRequired):
				response.FunctionError(w, http.StatusPaymentRequired, msgPaymentRequired)
			default:
				response.FunctionError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		response.Raw(w, http.StatusOK, resp)
	}
}

// NewIdentifyPlantHandler returns the handler for POST /functions/v1/identify-plant.
func NewIdentifyPlantHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req models.IdentifyRequest
		if !decodeFunctionBody(w, r, &req) {
			return
		}

		resp, err := svc.Identify(r.Context(), req)
		if err != nil {
			switch {
			case errors.Is(err, ai.ErrNoImage):
				response.FunctionError(w, http.StatusBadRequest, msgNoImage)
			case errors.Is(err, ai.ErrRateLimited):
				response.FunctionError(w, http.StatusTooManyRequests, msgRateLimited)
			case errors.Is(err, ai.ErrPaymentRequired):
				response.FunctionError(w, http.StatusPaymentRequired, msgIdentifyPayment)
			default:
				slog.Error("plant identification failed", "error", err)
				response.FunctionError(w, http.StatusInternalServerError, err.Error())
			}
			return
		}

		response.Raw(w, http.StatusOK, resp)
	}
}

// decodeFunctionBody decodes a size-limited JSON body into v and writes the
// error response itself when it cannot.
func decodeFunctionBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFunctionBodySize)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.FunctionError(w, http.StatusRequestEntityTooLarge, msgBodyTooLarge)
		return false
	}
	response.FunctionError(w, http.StatusBadRequest, msgInvalidJSON)
	return false
}
