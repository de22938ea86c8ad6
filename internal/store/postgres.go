package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Ishwarya142/plantiq/pkg/models"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

// CreateUserWithKey inserts a user and its first API key in one transaction.
func (s *PostgresStore) CreateUserWithKey(ctx context.Context, user *models.User, key *models.APIKey) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, display_name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.DisplayName, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}

	if err := insertAPIKey(ctx, tx, key); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, display_name, created_at, updated_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// --- API Keys ---

const apiKeyColumns = `id, user_id, name, key_hash, key_prefix, scopes, last_used_at, deleted_at, created_at, updated_at`

func (s *PostgresStore) GetAPIKeyByPrefix(ctx context.Context, prefix string) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys WHERE key_prefix = $1 AND deleted_at IS NULL`, prefix)
	if err != nil {
		return nil, fmt.Errorf("get api key by prefix: %w", err)
	}
	return collectAPIKeys(rows)
}

func (s *PostgresStore) UpdateAPIKeyLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET last_used_at = NOW(), updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("update api key last used: %w", err)
	}
	return nil
}

func (s *PostgresStore) CreateAPIKey(ctx context.Context, key *models.APIKey) error {
	return insertAPIKey(ctx, s.pool, key)
}

func (s *PostgresStore) ListAPIKeys(ctx context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+apiKeyColumns+` FROM api_keys
		 WHERE user_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return collectAPIKeys(rows)
}

func (s *PostgresStore) RevokeAPIKey(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE api_keys SET deleted_at = NOW(), updated_at = NOW()
		 WHERE id = $1 AND user_id = $2 AND deleted_at IS NULL`, id, userID)
	if err != nil {
		return fmt.Errorf("revoke api key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// execer is satisfied by both the pool and a transaction.
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func insertAPIKey(ctx context.Context, db execer, key *models.APIKey) error {
	_, err := db.Exec(ctx,
		`INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix, scopes, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix, key.Scopes, key.CreatedAt, key.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create api key: %w", err)
	}
	return nil
}

func collectAPIKeys(rows pgx.Rows) ([]*models.APIKey, error) {
	defer rows.Close()

	var keys []*models.APIKey
	for rows.Next() {
		var k models.APIKey
		if err := rows.Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.KeyPrefix, &k.Scopes,
			&k.LastUsedAt, &k.DeletedAt, &k.CreatedAt, &k.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan api key: %w", err)
		}
		keys = append(keys, &k)
	}
	return keys, rows.Err()
}

// --- Plants ---

const plantColumns = `id, user_id, name, species, image_url, health_score, trend, is_outdoor,
	temperature, humidity, light, soil_moisture, last_watered, last_fertilized, notes, ai_care_tips,
	created_at, updated_at`

func scanPlant(row pgx.Row) (*models.Plant, error) {
	var p models.Plant
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Species, &p.ImageURL, &p.HealthScore, &p.Trend, &p.IsOutdoor,
		&p.Temperature, &p.Humidity, &p.Light, &p.SoilMoisture, &p.LastWatered, &p.LastFertilized, &p.Notes, &p.AICareTips,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) CreatePlant(ctx context.Context, p *models.Plant) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO plants (`+plantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		p.ID, p.UserID, p.Name, p.Species, p.ImageURL, p.HealthScore, p.Trend, p.IsOutdoor,
		p.Temperature, p.Humidity, p.Light, p.SoilMoisture, p.LastWatered, p.LastFertilized, p.Notes, p.AICareTips,
		p.CreatedAt, p.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create plant: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListPlants(ctx context.Context, filter PlantFilter) ([]*models.Plant, int, error) {
	conditions := []string{"user_id = $1"}
	args := []any{filter.UserID}
	argIdx := 2

	if filter.IsOutdoor != nil {
		conditions = append(conditions, fmt.Sprintf("is_outdoor = $%d", argIdx))
		args = append(args, *filter.IsOutdoor)
		argIdx++
	}

	where := strings.Join(conditions, " AND ")

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM plants WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count plants: %w", err)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	page := min(max(filter.Page, 1), MaxPage)
	offset := (page - 1) * limit

	dataQuery := fmt.Sprintf(
		`SELECT %s FROM plants WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		plantColumns, where, argIdx, argIdx+1)
	args = append(args, limit, offset)

	rows, err := s.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list plants: %w", err)
	}
	defer rows.Close()

	var plants []*models.Plant
	for rows.Next() {
		p, err := scanPlant(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan plant: %w", err)
		}
		plants = append(plants, p)
	}
	return plants, total, rows.Err()
}

func (s *PostgresStore) GetPlant(ctx context.Context, id uuid.UUID, userID uuid.UUID) (*models.Plant, error) {
	p, err := scanPlant(s.pool.QueryRow(ctx,
		`SELECT `+plantColumns+` FROM plants WHERE id = $1 AND user_id = $2`, id, userID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plant: %w", err)
	}
	return p, nil
}

// UpdatePlant overwrites the editable fields of a plant owned by p.UserID.
// The image URL is managed by SetPlantImage.
func (s *PostgresStore) UpdatePlant(ctx context.Context, p *models.Plant) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE plants SET name = $3, species = $4, health_score = $5, trend = $6, is_outdoor = $7,
		   temperature = $8, humidity = $9, light = $10, soil_moisture = $11,
		   last_watered = $12, last_fertilized = $13, notes = $14, ai_care_tips = $15, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		p.ID, p.UserID, p.Name, p.Species, p.HealthScore, p.Trend, p.IsOutdoor,
		p.Temperature, p.Humidity, p.Light, p.SoilMoisture,
		p.LastWatered, p.LastFertilized, p.Notes, p.AICareTips)
	if err != nil {
		return fmt.Errorf("update plant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) DeletePlant(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM plants WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete plant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) SetPlantImage(ctx context.Context, id uuid.UUID, userID uuid.UUID, imageURL string) error {
	return s.setPlantColumn(ctx, "image_url", id, userID, imageURL)
}

func (s *PostgresStore) SetPlantCareTips(ctx context.Context, id uuid.UUID, userID uuid.UUID, tips string) error {
	return s.setPlantColumn(ctx, "ai_care_tips", id, userID, tips)
}

// setPlantColumn updates a single text column. column is never user input.
func (s *PostgresStore) setPlantColumn(ctx context.Context, column string, id, userID uuid.UUID, value string) error {
	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf(`UPDATE plants SET %s = $3, updated_at = NOW() WHERE id = $1 AND user_id = $2`, column),
		id, userID, value)
	if err != nil {
		return fmt.Errorf("set plant %s: %w", column, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// Compile-time check that PostgresStore implements Store.
var _ Store = (*PostgresStore)(nil)
