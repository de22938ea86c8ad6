package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	mw "github.com/Ishwarya142/plantiq/internal/api/middleware"
	"github.com/Ishwarya142/plantiq/internal/store"
	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// --- in-memory store ---

type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	keys    []*models.APIKey
	plants  map[uuid.UUID]*models.Plant
	tips    map[uuid.UUID]string
	failAll error
}

func newMemStore() *memStore {
	return &memStore{
		users:  make(map[uuid.UUID]*models.User),
		plants: make(map[uuid.UUID]*models.Plant),
		tips:   make(map[uuid.UUID]string),
	}
}

func (s *memStore) Ping(_ context.Context) error { return s.failAll }

func (s *memStore) CreateUserWithKey(_ context.Context, user *models.User, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	for _, u := range s.users {
		if u.Email == user.Email {
			return store.ErrDuplicateKey
		}
	}
	s.users[user.ID] = user
	s.keys = append(s.keys, key)
	return nil
}

func (s *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (s *memStore) GetAPIKeyByPrefix(_ context.Context, prefix string) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.KeyPrefix == prefix {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *memStore) UpdateAPIKeyLastUsed(_ context.Context, _ uuid.UUID) error { return nil }

func (s *memStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range s.keys {
		if k.UserID == key.UserID && k.Name == key.Name {
			return store.ErrDuplicateKey
		}
	}
	s.keys = append(s.keys, key)
	return nil
}

func (s *memStore) ListAPIKeys(_ context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (s *memStore) RevokeAPIKey(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, k := range s.keys {
		if k.ID == id && k.UserID == userID {
			s.keys = append(s.keys[:i], s.keys[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *memStore) CreatePlant(_ context.Context, plant *models.Plant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return s.failAll
	}
	cp := *plant
	s.plants[plant.ID] = &cp
	return nil
}

func (s *memStore) ListPlants(_ context.Context, f store.PlantFilter) ([]*models.Plant, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, 0, s.failAll
	}
	var out []*models.Plant
	for _, p := range s.plants {
		if p.UserID != f.UserID {
			continue
		}
		if f.IsOutdoor != nil && p.IsOutdoor != *f.IsOutdoor {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (s *memStore) GetPlant(_ context.Context, id uuid.UUID, userID uuid.UUID) (*models.Plant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failAll != nil {
		return nil, s.failAll
	}
	p, ok := s.plants[id]
	if !ok || p.UserID != userID {
		return nil, store.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) UpdatePlant(_ context.Context, plant *models.Plant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[plant.ID]
	if !ok || p.UserID != plant.UserID {
		return store.ErrNotFound
	}
	cp := *plant
	cp.ImageURL = p.ImageURL
	s.plants[plant.ID] = &cp
	return nil
}

func (s *memStore) DeletePlant(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.plants, id)
	return nil
}

func (s *memStore) SetPlantImage(_ context.Context, id uuid.UUID, userID uuid.UUID, imageURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	p.ImageURL = &imageURL
	return nil
}

func (s *memStore) SetPlantCareTips(_ context.Context, id uuid.UUID, userID uuid.UUID, tips string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.plants[id]
	if !ok || p.UserID != userID {
		return store.ErrNotFound
	}
	p.AICareTips = &tips
	s.tips[id] = tips
	return nil
}

var _ store.Store = (*memStore)(nil)

// seedPlant stores a plant with the creation defaults for userID.
func (s *memStore) seedPlant(userID uuid.UUID, name string) *models.Plant {
	p := &models.Plant{
		ID:           uuid.New(),
		UserID:       userID,
		Name:         name,
		HealthScore:  defaultHealthScore,
		Trend:        models.TrendStable,
		Temperature:  defaultTemperature,
		Humidity:     defaultHumidity,
		Light:        defaultLight,
		SoilMoisture: defaultSoilMoisture,
	}
	s.mu.Lock()
	s.plants[p.ID] = p
	s.mu.Unlock()
	return p
}

// --- helpers ---

var errBoom = errors.New("boom")

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	if v == nil {
		return http.NoBody
	}
	if s, ok := v.(string); ok {
		return bytes.NewBufferString(s)
	}
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(b)
}

// userRequest builds a request as it looks after authentication, with chi
// URL params already resolved.
func userRequest(t *testing.T, method, path string, body any, userID uuid.UUID, params map[string]string) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, path, jsonBody(t, body))
	r.Header.Set("Content-Type", "application/json")

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx := context.WithValue(r.Context(), chi.RouteCtxKey, rctx)
	ctx = mw.SetUserID(ctx, userID)
	return r.WithContext(ctx)
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), rec.Body.String())
	return env.Error.Code
}

func functionErrorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body), rec.Body.String())
	return body.Error
}
