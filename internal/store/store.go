package store

import (
	"context"
	"errors"

	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
// Plant operations are always scoped to the owning user.
type Store interface {
	Ping(ctx context.Context) error

	CreateUserWithKey(ctx context.Context, user *models.User, key *models.APIKey) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error)
	UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
	ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error)
	RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error

	CreatePlant(ctx context.Context, plant *models.Plant) error
	ListPlants(ctx context.Context, filter PlantFilter) ([]*models.Plant, int, error)
	GetPlant(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Plant, error)
	UpdatePlant(ctx context.Context, plant *models.Plant) error
	DeletePlant(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
	SetPlantImage(ctx context.Context, id uuid.UUID, userID uuid.UUID, imageURL string) error
	SetPlantCareTips(ctx context.Context, id uuid.UUID, userID uuid.UUID, tips string) error
}

// MaxPage bounds PlantFilter.Page so the row offset cannot overflow.
const MaxPage = 1_000_000

type PlantFilter struct {
	UserID    uuid.UUID
	IsOutdoor *bool
	Page      int
	Limit     int
}
