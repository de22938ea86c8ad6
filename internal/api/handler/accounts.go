package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	mw "github.com/Ishwarya142/plantiq/internal/api/middleware"
	"github.com/Ishwarya142/plantiq/internal/api/response"
	"github.com/Ishwarya142/plantiq/internal/store"
	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var defaultScopes = []string{"read", "write"}

// Accounts serves registration, the current user and API key management.
type Accounts struct {
	store store.Store
	// cost is the bcrypt cost; tests lower it.
	cost int
}

func NewAccounts(s store.Store) *Accounts {
	return &Accounts{store: s, cost: bcrypt.DefaultCost}
}

type registerRequest struct {
	Email       string `json:"email"        validate:"required,email,max=320"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
}

type createKeyRequest struct {
	Name   string   `json:"name"   validate:"required,max=100"`
	Scopes []string `json:"scopes" validate:"omitempty,dive,oneof=read write"`
}

type keyCreated struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"`
	KeyPrefix string    `json:"key_prefix"`
	Scopes    []string  `json:"scopes"`
	CreatedAt time.Time `json:"created_at"`
}

// Register handles POST /api/v1/auth/register. The raw key is only ever
// returned here.
func (h *Accounts) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if err := validate.Struct(req); err != nil {
		response.Validation(w, "Invalid registration", validationDetails(err))
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:          uuid.New(),
		Email:       req.Email,
		DisplayName: req.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	key, raw, err := h.newKey(user.ID, "default", defaultScopes, now)
	if err != nil {
		slog.Error("api key generation failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", nil)
		return
	}

	if err := h.store.CreateUserWithKey(r.Context(), user, key); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "EMAIL_TAKEN", "An account with this email already exists", nil)
			return
		}
		slog.Error("register failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create account", nil)
		return
	}

	slog.Info("user registered", "user_id", user.ID)
	response.Created(w, map[string]any{
		"user":    user,
		"api_key": created(key, raw),
	})
}

// Me handles GET /api/v1/me.
func (h *Accounts) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return
	}

	user, err := h.store.GetUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "USER_NOT_FOUND", "User not found", nil)
			return
		}
		slog.Error("get user failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load user", nil)
		return
	}
	response.JSON(w, user)
}

// CreateKey handles POST /api/v1/keys.
func (h *Accounts) CreateKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return
	}

	var req createKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := validate.Struct(req); err != nil {
		response.Validation(w, "Invalid key", validationDetails(err))
		return
	}
	scopes := req.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}

	key, raw, err := h.newKey(userID, req.Name, scopes, time.Now().UTC())
	if err != nil {
		slog.Error("api key generation failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create key", nil)
		return
	}

	if err := h.store.CreateAPIKey(r.Context(), key); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			response.Error(w, http.StatusConflict, "DUPLICATE_KEY", "API key with this name already exists", nil)
			return
		}
		slog.Error("create api key failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create key", nil)
		return
	}

	response.Created(w, created(key, raw))
}

// ListKeys handles GET /api/v1/keys. Hashes never leave the server.
func (h *Accounts) ListKeys(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return
	}

	keys, err := h.store.ListAPIKeys(r.Context(), userID)
	if err != nil {
		slog.Error("list api keys failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list keys", nil)
		return
	}
	if keys == nil {
		keys = []*models.APIKey{}
	}
	response.JSON(w, keys)
}

// RevokeKey handles DELETE /api/v1/keys/{keyID}.
func (h *Accounts) RevokeKey(w http.ResponseWriter, r *http.Request) {
	userID, ok := mw.GetUserID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing user", nil)
		return
	}
	keyID, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_KEY_ID", "Invalid key ID", nil)
		return
	}

	if err := h.store.RevokeAPIKey(r.Context(), keyID, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "KEY_NOT_FOUND", "API key not found", nil)
			return
		}
		slog.Error("revoke api key failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to revoke key", nil)
		return
	}
	response.NoContent(w)
}

func (h *Accounts) newKey(userID uuid.UUID, name string, scopes []string, now time.Time) (*models.APIKey, string, error) {
	raw, err := generateRawKey()
	if err != nil {
		return nil, "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), h.cost)
	if err != nil {
		return nil, "", fmt.Errorf("hash api key: %w", err)
	}
	return &models.APIKey{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:mw.KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}, raw, nil
}

func generateRawKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return mw.KeyScheme + hex.EncodeToString(b), nil
}

func created(key *models.APIKey, raw string) keyCreated {
	return keyCreated{
		ID:        key.ID,
		Name:      key.Name,
		Key:       raw,
		KeyPrefix: key.KeyPrefix,
		Scopes:    key.Scopes,
		CreatedAt: key.CreatedAt,
	}
}
