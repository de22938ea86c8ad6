package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	mw "github.com/Ishwarya142/plantiq/internal/api/middleware"
	"github.com/Ishwarya142/plantiq/internal/api/response"
	"github.com/Ishwarya142/plantiq/internal/objectstore"
	"github.com/Ishwarya142/plantiq/internal/store"
	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Defaults applied to fields omitted on creation.
const (
	defaultHealthScore  = 75
	defaultTemperature  = 22
	defaultHumidity     = 50
	defaultLight        = 60
	defaultSoilMoisture = 50
)

// plantInput is the body of plant create and update requests. Nil fields are
// left unchanged on update and defaulted on create.
type plantInput struct {
	Name           *string    `json:"name"            validate:"omitempty,min=1,max=200"`
	Species        *string    `json:"species"         validate:"omitempty,max=200"`
	HealthScore    *int       `json:"health_score"    validate:"omitempty,min=0,max=100"`
	Trend          *string    `json:"trend"           validate:"omitempty,oneof=up down stable"`
	IsOutdoor      *bool      `json:"is_outdoor"`
	Temperature    *float64   `json:"temperature"     validate:"omitempty,min=-50,max=70"`
	Humidity       *float64   `json:"humidity"        validate:"omitempty,min=0,max=100"`
	Light          *float64   `json:"light"           validate:"omitempty,min=0,max=100"`
	SoilMoisture   *float64   `json:"soil_moisture"   validate:"omitempty,min=0,max=100"`
	LastWatered    *time.Time `json:"last_watered"`
	LastFertilized *time.Time `json:"last_fertilized"`
	Notes          *string    `json:"notes"           validate:"omitempty,max=2000"`
	AICareTips     *string    `json:"ai_care_tips"    validate:"omitempty,max=4000"`
}

func (in plantInput) apply(p *models.Plant) {
	if in.Name != nil {
		p.Name = strings.TrimSpace(*in.Name)
	}
	if in.Species != nil {
		p.Species = nonEmpty(*in.Species)
	}
	if in.HealthScore != nil {
		p.HealthScore = *in.HealthScore
	}
	if in.Trend != nil {
		p.Trend = *in.Trend
	}
	if in.IsOutdoor != nil {
		p.IsOutdoor = *in.IsOutdoor
	}
	if in.Temperature != nil {
		p.Temperature = *in.Temperature
	}
	if in.Humidity != nil {
		p.Humidity = *in.Humidity
	}
	if in.Light != nil {
		p.Light = *in.Light
	}
	if in.SoilMoisture != nil {
		p.SoilMoisture = *in.SoilMoisture
	}
	if in.LastWatered != nil {
		p.LastWatered = in.LastWatered
	}
	if in.LastFertilized != nil {
		p.LastFertilized = in.LastFertilized
	}
	if in.Notes != nil {
		p.Notes = nonEmpty(*in.Notes)
	}
	if in.AICareTips != nil {
		p.AICareTips = nonEmpty(*in.AICareTips)
	}
}

func nonEmpty(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Plants serves the plant collection of the authenticated user.
type Plants struct {
	store  store.Store
	images objectstore.ImageStore
}

func NewPlants(s store.Store, images objectstore.ImageStore) *Plants {
	return &Plants{store: s, images: images}
}

// List handles GET /api/v1/plants.
func (h *Plants) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return
	}

	filter := store.PlantFilter{UserID: userID, Page: 1, Limit: 20}
	q := r.URL.Query()
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > store.MaxPage {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be between 1 and 1000000", nil)
			return
		}
		filter.Page = n
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be between 1 and 100", nil)
			return
		}
		filter.Limit = n
	}
	if v := q.Get("outdoor"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "outdoor must be a boolean", nil)
			return
		}
		filter.IsOutdoor = &b
	}

	plants, total, err := h.store.ListPlants(r.Context(), filter)
	if err != nil {
		slog.Error("list plants failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list plants", nil)
		return
	}
	if plants == nil {
		plants = []*models.Plant{}
	}

	response.Collection(w, plants, response.PaginationMeta{
		Page:    filter.Page,
		Limit:   filter.Limit,
		Total:   total,
		HasNext: filter.Page*filter.Limit < total,
	})
}

// Create handles POST /api/v1/plants.
func (h *Plants) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return
	}

	var in plantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		response.Validation(w, "Invalid plant", map[string][]string{"name": {"is required"}})
		return
	}
	if err := validate.Struct(in); err != nil {
		response.Validation(w, "Invalid plant", validationDetails(err))
		return
	}

	now := time.Now().UTC()
	plant := &models.Plant{
		ID:           uuid.New(),
		UserID:       userID,
		HealthScore:  defaultHealthScore,
		Trend:        models.TrendStable,
		Temperature:  defaultTemperature,
		Humidity:     defaultHumidity,
		Light:        defaultLight,
		SoilMoisture: defaultSoilMoisture,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	in.apply(plant)

	if err := h.store.CreatePlant(r.Context(), plant); err != nil {
		slog.Error("create plant failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create plant", nil)
		return
	}

	response.Created(w, plant)
}

// Get handles GET /api/v1/plants/{plantID}.
func (h *Plants) Get(w http.ResponseWriter, r *http.Request) {
	plant, ok := loadPlant(w, r, h.store)
	if !ok {
		return
	}
	response.JSON(w, plant)
}

// Update handles PATCH /api/v1/plants/{plantID}.
func (h *Plants) Update(w http.ResponseWriter, r *http.Request) {
	plant, ok := loadPlant(w, r, h.store)
	if !ok {
		return
	}

	var in plantInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	if err := validate.Struct(in); err != nil {
		response.Validation(w, "Invalid plant", validationDetails(err))
		return
	}
	in.apply(plant)
	if plant.Name == "" {
		response.Validation(w, "Invalid plant", map[string][]string{"name": {"is required"}})
		return
	}

	if err := h.store.UpdatePlant(r.Context(), plant); err != nil {
		writeStoreError(w, err, "Failed to update plant")
		return
	}

	plant.UpdatedAt = time.Now().UTC()
	response.JSON(w, plant)
}

// Delete handles DELETE /api/v1/plants/{plantID}.
func (h *Plants) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return
	}
	plantID, err := uuid.Parse(chi.URLParam(r, "plantID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PLANT_ID", "Invalid plant ID format", nil)
		return
	}

	if err := h.store.DeletePlant(r.Context(), plantID, userID); err != nil {
		writeStoreError(w, err, "Failed to delete plant")
		return
	}
	response.NoContent(w)
}

// UploadImage handles PUT /api/v1/plants/{plantID}/image. The body is the
// raw image; Content-Type selects the extension.
func (h *Plants) UploadImage(w http.ResponseWriter, r *http.Request) {
	plant, ok := loadPlant(w, r, h.store)
	if !ok {
		return
	}

	contentType := r.Header.Get("Content-Type")
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = contentType[:i]
	}

	url, err := h.images.PutImage(r.Context(), plant.ID, contentType, r.Body)
	if err != nil {
		switch {
		case errors.Is(err, objectstore.ErrUnsupportedImage):
			response.Error(w, http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE",
				"Image must be JPEG, PNG, WebP or GIF", nil)
		case errors.Is(err, objectstore.ErrTooLarge):
			response.Error(w, http.StatusRequestEntityTooLarge, "IMAGE_TOO_LARGE",
				"Image exceeds 10 MiB", nil)
		default:
			slog.Error("image upload failed", "plant_id", plant.ID, "error", err)
			response.Error(w, http.StatusBadGateway, "UPLOAD_FAILED", "Failed to store image", nil)
		}
		return
	}

	if err := h.store.SetPlantImage(r.Context(), plant.ID, plant.UserID, url); err != nil {
		writeStoreError(w, err, "Failed to update plant")
		return
	}
	plant.ImageURL = &url
	response.JSON(w, plant)
}

// loadPlant resolves {plantID} for the authenticated user, writing the error
// response itself when it returns false.
func loadPlant(w http.ResponseWriter, r *http.Request, s store.Store) (*models.Plant, bool) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return nil, false
	}
	plantID, err := uuid.Parse(chi.URLParam(r, "plantID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_PLANT_ID", "Invalid plant ID format", nil)
		return nil, false
	}

	plant, err := s.GetPlant(r.Context(), plantID, userID)
	if err != nil {
		writeStoreError(w, err, "Failed to load plant")
		return nil, false
	}
	return plant, true
}

func writeStoreError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, store.ErrNotFound) {
		response.Error(w, http.StatusNotFound, "PLANT_NOT_FOUND", "Plant not found", nil)
		return
	}
	slog.Error(strings.ToLower(message), "error", err)
	response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", message, nil)
}
