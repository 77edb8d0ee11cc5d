package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"heritage-platform/internal/models"
)

const blogColumns = `b.id, b.title, b.content, b.image, b.author_id,
	u.name AS author_name, b.tags, b.created_at, b.updated_at`

// ListBlogs returns all entries, newest first, with the author's name
// joined in.
func (s *Store) ListBlogs(ctx context.Context) ([]models.Blog, error) {
	blogs := []models.Blog{}
	query := `SELECT ` + blogColumns + `
	          FROM blogs b
	          JOIN users u ON u.id = b.author_id
	          ORDER BY b.created_at DESC`

	if err := s.db.SelectContext(ctx, &blogs, query); err != nil {
		return nil, fmt.Errorf("listing blogs: %w", err)
	}

	return blogs, nil
}

func (s *Store) GetBlog(ctx context.Context, id int64) (models.Blog, error) {
	var blog models.Blog
	query := `SELECT ` + blogColumns + `
	          FROM blogs b
	          JOIN users u ON u.id = b.author_id
	          WHERE b.id = $1`

	err := s.db.GetContext(ctx, &blog, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Blog{}, ErrNotFound
		}
		return models.Blog{}, fmt.Errorf("getting blog %d: %w", id, err)
	}

	return blog, nil
}

// CreateBlog inserts a new entry and returns it with server-assigned
// fields and author name populated.
func (s *Store) CreateBlog(ctx context.Context, blog models.Blog) (models.Blog, error) {
	var id int64
	query := `INSERT INTO blogs (title, content, image, author_id, tags)
	          VALUES ($1, $2, $3, $4, $5)
	          RETURNING id`

	err := s.db.GetContext(ctx, &id, query, blog.Title, blog.Content, blog.Image, blog.AuthorID, blog.Tags)
	if err != nil {
		return models.Blog{}, fmt.Errorf("creating blog: %w", err)
	}

	return s.GetBlog(ctx, id)
}

// UpdateBlog replaces the editable fields and refreshes updated_at.
func (s *Store) UpdateBlog(ctx context.Context, id int64, title, content, image string, tags models.Tags) (models.Blog, error) {
	query := `UPDATE blogs
	          SET title = $1, content = $2, image = $3, tags = $4, updated_at = now()
	          WHERE id = $5`

	res, err := s.db.ExecContext(ctx, query, title, content, image, tags, id)
	if err != nil {
		return models.Blog{}, fmt.Errorf("updating blog %d: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return models.Blog{}, ErrNotFound
	}

	return s.GetBlog(ctx, id)
}

func (s *Store) DeleteBlog(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting blog %d: %w", id, err)
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
