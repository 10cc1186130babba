package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/sakif/miniblog/internal/apperror"
	"github.com/sakif/miniblog/internal/model"
	"github.com/sakif/miniblog/internal/repository"
)

// =========================================================================
// FAKE POST REPOSITORY
// =========================================================================

// fakePostRepo is an in-memory repository.PostRepository. It counts store
// calls so tests can assert the gate rejects anonymous requesters before
// touching the store at all.
type fakePostRepo struct {
	posts  map[int64]*model.Post
	nextID int64
	calls  int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{
		posts:  make(map[int64]*model.Post),
		nextID: 1,
	}
}

func (f *fakePostRepo) CreatePost(_ context.Context, post *model.Post) error {
	f.calls++
	post.ID = f.nextID
	f.nextID++
	post.CreatedAt = time.Now()
	stored := *post
	f.posts[post.ID] = &stored
	return nil
}

func (f *fakePostRepo) GetPostByID(_ context.Context, id int64) (*model.Post, error) {
	f.calls++
	p, ok := f.posts[id]
	if !ok {
		return nil, apperror.NotFound("post", id)
	}
	result := *p
	return &result, nil
}

func (f *fakePostRepo) ListPosts(_ context.Context, opts repository.ListOptions) ([]model.Post, error) {
	f.calls++
	result := make([]model.Post, 0, len(f.posts))
	// Newest first: IDs are monotonic, so walk them downward.
	for id := f.nextID - 1; id >= 1; id-- {
		if p, ok := f.posts[id]; ok {
			result = append(result, *p)
		}
	}
	return paginate(result, opts), nil
}

func (f *fakePostRepo) ListPostsByUser(_ context.Context, userID int64, opts repository.ListOptions) ([]model.Post, error) {
	f.calls++
	result := make([]model.Post, 0, len(f.posts))
	for id := f.nextID - 1; id >= 1; id-- {
		if p, ok := f.posts[id]; ok && p.UserID == userID {
			result = append(result, *p)
		}
	}
	return paginate(result, opts), nil
}

func (f *fakePostRepo) UpdateOwned(_ context.Context, post *model.Post, ownerID int64) error {
	f.calls++
	existing, ok := f.posts[post.ID]
	if !ok {
		return apperror.NotFound("post", post.ID)
	}
	if existing.UserID != ownerID {
		return apperror.Forbidden(fmt.Sprintf("post %d belongs to another user", post.ID))
	}
	existing.Title = post.Title
	existing.Content = post.Content
	return nil
}

func (f *fakePostRepo) DeleteOwned(_ context.Context, id, ownerID int64) error {
	f.calls++
	existing, ok := f.posts[id]
	if !ok {
		return apperror.NotFound("post", id)
	}
	if existing.UserID != ownerID {
		return apperror.Forbidden(fmt.Sprintf("post %d belongs to another user", id))
	}
	delete(f.posts, id)
	return nil
}

func paginate(posts []model.Post, opts repository.ListOptions) []model.Post {
	if opts.Offset >= len(posts) {
		return []model.Post{}
	}
	posts = posts[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(posts) {
		posts = posts[:opts.Limit]
	}
	return posts
}

func newTestPostService(t *testing.T) (*PostService, *fakePostRepo) {
	t.Helper()
	repo := newFakePostRepo()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	return NewPostService(repo, logger), repo
}

const (
	aliceID int64 = 1
	bobID   int64 = 2
)

// =========================================================================
// Create TESTS
// =========================================================================

func TestPostCreate(t *testing.T) {
	svc, _ := newTestPostService(t)

	post, err := svc.Create(context.Background(), aliceID, "My Title", "My content")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if post.ID == 0 {
		t.Error("Create() should return a post with a store-assigned ID")
	}
	if post.UserID != aliceID {
		t.Errorf("post.UserID = %d, want requester %d", post.UserID, aliceID)
	}
}

func TestPostCreate_Anonymous(t *testing.T) {
	svc, repo := newTestPostService(t)

	_, err := svc.Create(context.Background(), 0, "Title", "Content")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Create() error = %v, want ErrUnauthorized", err)
	}
	if repo.calls != 0 {
		t.Error("anonymous create must be rejected before any store access")
	}
}

func TestPostCreate_Validation(t *testing.T) {
	svc, _ := newTestPostService(t)

	cases := []struct {
		name    string
		title   string
		content string
	}{
		{"empty title", "", "content"},
		{"whitespace title", "   ", "content"},
		{"title too long", strings.Repeat("a", MaxTitleLength+1), "content"},
		{"content too long", "title", strings.Repeat("a", MaxContentLength+1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), aliceID, tc.title, tc.content)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestPostCreate_TrimsTitle(t *testing.T) {
	svc, _ := newTestPostService(t)

	post, err := svc.Create(context.Background(), aliceID, "  Padded  ", "c")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if post.Title != "Padded" {
		t.Errorf("Title = %q, want trimmed %q", post.Title, "Padded")
	}
}

// =========================================================================
// OWNERSHIP GATE TESTS (Update)
// =========================================================================

func TestPostUpdate_ByOwner(t *testing.T) {
	svc, _ := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "before", "old")

	updated, err := svc.Update(context.Background(), aliceID, created.ID, "after", "new")
	if err != nil {
		t.Fatalf("Update() by owner error = %v", err)
	}
	if updated.Title != "after" || updated.Content != "new" {
		t.Errorf("Update() result = %+v, want new title/content", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Error("Update() must not change CreatedAt")
	}
}

func TestPostUpdate_ByNonOwner(t *testing.T) {
	svc, repo := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "alice's", "content")

	_, err := svc.Update(context.Background(), bobID, created.ID, "bob's now", "taken")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Update() by non-owner error = %v, want ErrForbidden", err)
	}

	// The stored post must be untouched.
	if repo.posts[created.ID].Title != "alice's" {
		t.Error("non-owner update modified the post")
	}
}

func TestPostUpdate_Anonymous(t *testing.T) {
	svc, repo := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "t", "c")
	callsBefore := repo.calls

	_, err := svc.Update(context.Background(), 0, created.ID, "x", "y")
	if !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Update() anonymous error = %v, want ErrUnauthorized", err)
	}
	if repo.calls != callsBefore {
		t.Error("anonymous update must be rejected before any store access")
	}
}

func TestPostUpdate_MissingPost(t *testing.T) {
	svc, _ := newTestPostService(t)

	_, err := svc.Update(context.Background(), aliceID, 404, "t", "c")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Update() of missing post error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// OWNERSHIP GATE TESTS (Delete)
// =========================================================================

func TestPostDelete_ByOwner(t *testing.T) {
	svc, _ := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "doomed", "c")

	if err := svc.Delete(context.Background(), aliceID, created.ID); err != nil {
		t.Fatalf("Delete() by owner error = %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Error("post still readable after owner delete")
	}
}

func TestPostDelete_ByNonOwner(t *testing.T) {
	svc, _ := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "alice's", "c")

	if err := svc.Delete(context.Background(), bobID, created.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Fatalf("Delete() by non-owner error = %v, want ErrForbidden", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); err != nil {
		t.Error("post should survive a non-owner delete")
	}
}

func TestPostDelete_Anonymous(t *testing.T) {
	svc, repo := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "t", "c")
	callsBefore := repo.calls

	if err := svc.Delete(context.Background(), 0, created.ID); !errors.Is(err, apperror.ErrUnauthorized) {
		t.Fatalf("Delete() anonymous error = %v, want ErrUnauthorized", err)
	}
	if repo.calls != callsBefore {
		t.Error("anonymous delete must be rejected before any store access")
	}
}

func TestPostDelete_AlreadyDeleted(t *testing.T) {
	svc, _ := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "doomed", "c")

	if err := svc.Delete(context.Background(), aliceID, created.ID); err != nil {
		t.Fatalf("first Delete() error = %v", err)
	}
	if err := svc.Delete(context.Background(), aliceID, created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestPostDelete_MissingPostRegardlessOfRequester(t *testing.T) {
	svc, _ := newTestPostService(t)

	for _, requester := range []int64{aliceID, bobID} {
		if err := svc.Delete(context.Background(), requester, 404); !errors.Is(err, apperror.ErrNotFound) {
			t.Errorf("Delete(requester=%d, 404) error = %v, want ErrNotFound", requester, err)
		}
	}
}

// =========================================================================
// READ TESTS
// =========================================================================

func TestPostList_NewestFirst(t *testing.T) {
	svc, _ := newTestPostService(t)

	p1, _ := svc.Create(context.Background(), aliceID, "first", "c")
	p2, _ := svc.Create(context.Background(), bobID, "second", "c")

	posts, err := svc.List(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(posts) != 2 {
		t.Fatalf("List() returned %d posts, want 2", len(posts))
	}
	if posts[0].ID != p2.ID || posts[1].ID != p1.ID {
		t.Error("List() should return newest-created first")
	}
}

func TestPostListByAuthor(t *testing.T) {
	svc, _ := newTestPostService(t)

	svc.Create(context.Background(), aliceID, "a1", "c")
	svc.Create(context.Background(), bobID, "b1", "c")

	posts, err := svc.ListByAuthor(context.Background(), aliceID, 0, 0)
	if err != nil {
		t.Fatalf("ListByAuthor() error = %v", err)
	}
	if len(posts) != 1 || posts[0].Title != "a1" {
		t.Errorf("ListByAuthor() = %+v, want only alice's post", posts)
	}
}

func TestPostGet_Public(t *testing.T) {
	svc, _ := newTestPostService(t)

	created, _ := svc.Create(context.Background(), aliceID, "public", "anyone can read")

	// Reads take no requester identity at all — they are public by design.
	got, err := svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Title != "public" {
		t.Errorf("Get() title = %q, want %q", got.Title, "public")
	}
}
