// Package repository declares the storage interfaces the service layer
// depends on. Concrete implementations live in subpackages (sqlite).
package repository

import (
	"context"

	"github.com/sakif/miniblog/internal/model"
)

type ListOptions struct {
	Limit  int
	Offset int
}

// UserRepository persists account credentials.
//
// CreateUser must return apperror.ErrConflict (wrapped) when the username is
// already taken, with no partial state committed. Raw driver errors must not
// escape — the service layer only understands the apperror taxonomy.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, id int64) (*model.User, error)
}

// PostRepository persists posts.
//
// The store is pure mechanism: it performs no policy decisions of its own.
// UpdateOwned and DeleteOwned take the owner ID so the ownership predicate
// is part of the mutation itself (WHERE id = ? AND user_id = ?) — the check
// and the write cannot be interleaved by another request. They return
// apperror.ErrNotFound if the post does not exist and apperror.ErrForbidden
// if it exists but belongs to someone else. The single policy enforcement
// point that calls them is service.PostService.
type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id int64) (*model.Post, error)
	ListPosts(ctx context.Context, opts ListOptions) ([]model.Post, error)
	ListPostsByUser(ctx context.Context, userID int64, opts ListOptions) ([]model.Post, error)
	UpdateOwned(ctx context.Context, post *model.Post, ownerID int64) error
	DeleteOwned(ctx context.Context, id, ownerID int64) error
}
