package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
)

const (
	MaxTitleLength   = 200
	MaxContentLength = 100_000 // ~100KB
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// PostService holds the business rules for posts, including the ownership
// gate: every mutating operation passes through here exactly once, and
// nowhere else decides who may edit or delete a post.
type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

// NewPostService creates a PostService.
func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{
		posts:  posts,
		logger: logger,
	}
}

// Create validates and saves a new post owned by requesterID.
// Anonymous callers (requesterID <= 0) are rejected before any store access.
func (s *PostService) Create(ctx context.Context, requesterID int64, title, content string) (*model.Post, error) {
	if requesterID <= 0 {
		return nil, apperror.Unauthorized("you must be logged in to create a post")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxTitleLength))
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxContentLength))
	}

	post := &model.Post{
		Title:   title,
		Content: content,
		UserID:  requesterID,
	}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.Int64("userID", requesterID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.Int64("postID", post.ID),
		slog.Int64("userID", post.UserID),
	)

	return post, nil
}

// Get retrieves a single post. Reads are public — no identity required.
func (s *PostService) Get(ctx context.Context, id int64) (*model.Post, error) {
	if id <= 0 {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}
	return s.posts.GetPostByID(ctx, id)
}

// List returns the global listing, newest-created first.
func (s *PostService) List(ctx context.Context, limit, offset int) ([]model.Post, error) {
	posts, err := s.posts.ListPosts(ctx, clampedOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// ListByAuthor returns one user's posts, newest first. Backs the dashboard.
func (s *PostService) ListByAuthor(ctx context.Context, userID int64, limit, offset int) ([]model.Post, error) {
	if userID <= 0 {
		return nil, apperror.ValidationFailed("userId", "user ID is required")
	}
	posts, err := s.posts.ListPostsByUser(ctx, userID, clampedOptions(limit, offset))
	if err != nil {
		s.logger.Error("failed to list posts by author",
			slog.Int64("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing posts for user %d: %w", userID, err)
	}
	return posts, nil
}

// Update changes a post's title and content — the ownership gate for edits.
//
// Outcomes, in order of precedence:
//   - ErrUnauthorized: anonymous requester, checked before any store lookup
//   - ErrValidation:   bad title/content
//   - ErrNotFound:     no post with that ID
//   - ErrForbidden:    the post belongs to a different user
//
// The repository's UpdateOwned carries the ownership predicate inside the
// UPDATE itself, so there is no window between "check owner" and "write"
// where another request could interleave.
func (s *PostService) Update(ctx context.Context, requesterID, postID int64, title, content string) (*model.Post, error) {
	if requesterID <= 0 {
		return nil, apperror.Unauthorized("you must be logged in to edit a post")
	}
	if postID <= 0 {
		return nil, apperror.ValidationFailed("id", "post ID is required")
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "post title is required")
	}
	if len(title) > MaxTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("post title must be %d characters or less", MaxTitleLength))
	}
	if len(content) > MaxContentLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("post content must be %d characters or less", MaxContentLength))
	}

	post := &model.Post{
		ID:      postID,
		Title:   title,
		Content: content,
		UserID:  requesterID,
	}
	if err := s.posts.UpdateOwned(ctx, post, requesterID); err != nil {
		// NotFound and Forbidden pass through as-is.
		return nil, err
	}

	s.logger.Info("post updated",
		slog.Int64("postID", postID),
		slog.Int64("userID", requesterID),
	)

	// The store only wrote title/content; fetch the canonical record so the
	// caller gets the original CreatedAt.
	return s.posts.GetPostByID(ctx, postID)
}

// Delete removes a post — the ownership gate for deletion. Same outcome set
// as Update. Deleting an already-deleted post returns ErrNotFound.
func (s *PostService) Delete(ctx context.Context, requesterID, postID int64) error {
	if requesterID <= 0 {
		return apperror.Unauthorized("you must be logged in to delete a post")
	}
	if postID <= 0 {
		return apperror.ValidationFailed("id", "post ID is required")
	}

	if err := s.posts.DeleteOwned(ctx, postID, requesterID); err != nil {
		return err
	}

	s.logger.Info("post deleted",
		slog.Int64("postID", postID),
		slog.Int64("userID", requesterID),
	)
	return nil
}

func clampedOptions(limit, offset int) repository.ListOptions {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return repository.ListOptions{Limit: limit, Offset: offset}
}
