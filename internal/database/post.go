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

// PostStore persists posts. Every operation is scoped to the owning user;
// posts of other users behave as if they did not exist.
type PostStore interface {
	ListPosts(ctx context.Context, userID string) ([]*model.Post, error)
	GetPost(ctx context.Context, userID, postID string) (*model.Post, error)
	CreatePost(ctx context.Context, post *model.Post) (*model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) (*model.Post, error)
	DeletePost(ctx context.Context, userID, postID string) error
}

type SQLPostStore struct {
	db *DB
}

func NewPostStore(db *DB) *SQLPostStore {
	return &SQLPostStore{db: db}
}

const postColumns = "id, user_id, title, content, created_at, updated_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*model.Post, error) {
	post := &model.Post{}
	if err := row.Scan(&post.ID, &post.UserID, &post.Title, &post.Content, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *SQLPostStore) ListPosts(ctx context.Context, userID string) ([]*model.Post, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.rebind("SELECT "+postColumns+" FROM posts WHERE user_id = ? ORDER BY created_at DESC, id"), userID)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	posts := []*model.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *SQLPostStore) GetPost(ctx context.Context, userID, postID string) (*model.Post, error) {
	row := s.db.QueryRowContext(ctx,
		s.db.rebind("SELECT "+postColumns+" FROM posts WHERE id = ? AND user_id = ?"), postID, userID)

	post, err := scanPost(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, nil
}

func (s *SQLPostStore) CreatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	created := *post
	created.ID = uuid.New().String()
	created.CreatedAt = time.Now().UTC()
	created.UpdatedAt = created.CreatedAt

	_, err := s.db.ExecContext(ctx,
		s.db.rebind("INSERT INTO posts ("+postColumns+") VALUES (?, ?, ?, ?, ?, ?)"),
		created.ID, created.UserID, created.Title, created.Content, created.CreatedAt, created.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &created, nil
}

// UpdatePost replaces title and content of an owned post.
func (s *SQLPostStore) UpdatePost(ctx context.Context, post *model.Post) (*model.Post, error) {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		s.db.rebind("UPDATE posts SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?"),
		post.Title, post.Content, now, post.ID, post.UserID)
	if err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return s.GetPost(ctx, post.UserID, post.ID)
}

func (s *SQLPostStore) DeletePost(ctx context.Context, userID, postID string) error {
	res, err := s.db.ExecContext(ctx,
		s.db.rebind("DELETE FROM posts WHERE id = ? AND user_id = ?"), postID, userID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

var _ PostStore = (*SQLPostStore)(nil)
