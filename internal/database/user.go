package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"sociallogin/internal/model"

	"github.com/google/uuid"
)

// UserStore persists users keyed by their social identity.
type UserStore interface {
	FindUserByProvider(ctx context.Context, provider, socialID string) (*model.User, error)
	FindUserByID(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	UpsertUser(ctx context.Context, user *model.User) (*model.User, bool, error)
}

type SQLUserStore struct {
	db *DB
}

func NewUserStore(db *DB) *SQLUserStore {
	return &SQLUserStore{db: db}
}

const userColumns = "id, provider, social_id, name, email, created_at, updated_at"

func scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(&user.ID, &user.Provider, &user.SocialID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *SQLUserStore) FindUserByProvider(ctx context.Context, provider, socialID string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.rebind("SELECT "+userColumns+" FROM users WHERE provider = ? AND social_id = ?"),
		provider, socialID)

	user, err := scanUser(row)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("find user by provider: %w", err)
	}
	return user, err
}

func (s *SQLUserStore) FindUserByID(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.rebind("SELECT "+userColumns+" FROM users WHERE id = ?"), id)

	user, err := scanUser(row)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return user, err
}

// CreateUser inserts user with a fresh id. A second row for the same
// (provider, social_id) fails with model.ErrConflict.
func (s *SQLUserStore) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	created := *user
	created.ID = uuid.New().String()
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt

	_, err := s.db.ExecContext(ctx,
		s.db.rebind("INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?)"),
		created.ID, created.Provider, created.SocialID, created.Name, created.Email, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("create user %s/%s: %w", user.Provider, user.SocialID, model.ErrConflict)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return &created, nil
}

// UpsertUser resolves the user for (user.Provider, user.SocialID), inserting
// it when absent. Existing rows are returned unchanged. The boolean reports
// whether this call created the row.
func (s *SQLUserStore) UpsertUser(ctx context.Context, user *model.User) (*model.User, bool, error) {
	existing, err := s.FindUserByProvider(ctx, user.Provider, user.SocialID)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return nil, false, err
	}

	created, err := s.CreateUser(ctx, user)
	if err == nil {
		return created, true, nil
	}
	if !errors.Is(err, model.ErrConflict) {
		return nil, false, err
	}

	// A concurrent login for the same identity inserted first.
	existing, err = s.FindUserByProvider(ctx, user.Provider, user.SocialID)
	if err != nil {
		return nil, false, fmt.Errorf("reload user after conflict: %w", err)
	}
	return existing, false, nil
}

var _ UserStore = (*SQLUserStore)(nil)
