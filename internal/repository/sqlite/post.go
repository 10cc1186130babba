package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
)

// compile-time check that *DB implements repository.PostRepository
var _ repository.PostRepository = (*DB)(nil)

const postColumns = `id, title, content, user_id, created_at`

// CreatePost inserts a new post and fills in the store-assigned ID and
// CreatedAt. The foreign key on user_id guarantees the owner exists.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	post.CreatedAt = time.Now()

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (title, content, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		post.Title,
		post.Content,
		post.UserID,
		post.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting post: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("sqlite: reading new post id: %w", err)
	}
	post.ID = id

	return nil
}

// GetPostByID retrieves a single post. Returns apperror.ErrNotFound if it
// doesn't exist.
func (db *DB) GetPostByID(ctx context.Context, id int64) (*model.Post, error) {
	var p model.Post

	err := db.conn.QueryRowContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE id = ?`,
		id,
	).Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %d: %w", id, err)
	}

	return &p, nil
}

// ListPosts returns posts newest-first, with limit/offset pagination.
// The id tiebreak keeps the order stable when timestamps collide.
func (db *DB) ListPosts(ctx context.Context, opts repository.ListOptions) ([]model.Post, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()

	return scanPosts(rows, limit)
}

// ListPostsByUser returns one user's posts, newest-first.
func (db *DB) ListPostsByUser(ctx context.Context, userID int64, opts repository.ListOptions) ([]model.Post, error) {
	limit, offset := clampListOptions(opts)

	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts for user %d: %w", userID, err)
	}
	defer rows.Close()

	return scanPosts(rows, limit)
}

// UpdateOwned updates a post's title and content, but only if ownerID owns
// it. The ownership predicate lives in the WHERE clause, so the check and
// the write are one atomic statement — no other request can change ownership
// between a separate read and this write.
//
// When zero rows are affected the statement tells us nothing about why, so
// we classify with a follow-up read: no such post → ErrNotFound, post owned
// by someone else → ErrForbidden. The classification read happens after the
// (no-op) mutation, so it can only ever affect the error message, never
// which data gets written.
func (db *DB) UpdateOwned(ctx context.Context, post *model.Post, ownerID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET title = ?, content = ?
		 WHERE id = ? AND user_id = ?`,
		post.Title,
		post.Content,
		post.ID,
		ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %d: %w", post.ID, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return db.classifyOwnedMiss(ctx, post.ID)
	}

	return nil
}

// DeleteOwned deletes a post, but only if ownerID owns it. Same atomic
// WHERE-clause contract as UpdateOwned.
func (db *DB) DeleteOwned(ctx context.Context, id, ownerID int64) error {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM posts WHERE id = ? AND user_id = ?`,
		id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return db.classifyOwnedMiss(ctx, id)
	}

	return nil
}

// classifyOwnedMiss decides why an owned mutation matched zero rows:
// the post is gone (ErrNotFound) or it belongs to another user (ErrForbidden).
func (db *DB) classifyOwnedMiss(ctx context.Context, id int64) error {
	var owner int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT user_id FROM posts WHERE id = ?`, id,
	).Scan(&owner)
	if err == sql.ErrNoRows {
		return apperror.NotFound("post", id)
	}
	if err != nil {
		return fmt.Errorf("sqlite: classifying post %d: %w", id, err)
	}
	return apperror.Forbidden(fmt.Sprintf("post %d belongs to another user", id))
}

func clampListOptions(opts repository.ListOptions) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func scanPosts(rows *sql.Rows, capacity int) ([]model.Post, error) {
	posts := make([]model.Post, 0, capacity)
	for rows.Next() {
		var p model.Post
		if err := rows.Scan(&p.ID, &p.Title, &p.Content, &p.UserID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}
