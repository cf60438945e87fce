package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	intdb "travelbackend/internal/db"
	"travelbackend/internal/domain"
	"travelbackend/internal/domain/models"
)

type TripRepository struct {
	DB intdb.DBTX
}

func (r TripRepository) Create(ctx context.Context, t *models.Trip) error {
	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.DB.ExecContext(ctx, `INSERT INTO trips (owner_id, title, created_at) VALUES (?, ?, ?)`,
		t.OwnerID, strings.TrimSpace(t.Title), now.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read trip id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	return nil
}

func (r TripRepository) GetByID(ctx context.Context, id int64) (models.Trip, error) {
	var (
		t       models.Trip
		created int64
	)
	err := r.DB.QueryRowContext(ctx, `SELECT id, owner_id, title, created_at FROM trips WHERE id=? LIMIT 1`, id).
		Scan(&t.ID, &t.OwnerID, &t.Title, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
		}
		return models.Trip{}, fmt.Errorf("failed to get trip: %w", err)
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	return t, nil
}

type UserRepository struct {
	DB intdb.DBTX
}

func (r UserRepository) Create(ctx context.Context, u *models.User) error {
	res, err := r.DB.ExecContext(ctx, `INSERT INTO users (username, created_at) VALUES (?, ?)`,
		strings.TrimSpace(u.Username), time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	return nil
}

func (r UserRepository) GetByID(ctx context.Context, id int64) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx, `SELECT id, username FROM users WHERE id=? LIMIT 1`, id).Scan(&u.ID, &u.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, domain.NotFoundError{Resource: "user", Err: err}
		}
		return models.User{}, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// GetByIDs loads every id or fails with NotFound naming the first missing one.
// The result is ordered by id.
func (r UserRepository) GetByIDs(ctx context.Context, ids []int64) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, username FROM users WHERE id IN (`+strings.Join(placeholders, ",")+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]models.User, len(ids))
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		found[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate users: %w", err)
	}

	out := make([]models.User, 0, len(ids))
	for _, id := range ids {
		u, ok := found[id]
		if !ok {
			return nil, domain.NotFoundError{Resource: fmt.Sprintf("user %d", id)}
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
