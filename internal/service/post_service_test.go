package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"virtuefeed/internal/models"
	"virtuefeed/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultRules = PostRules{MaxContentLength: 2000}

func TestPostService_CreatePost_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		rules   PostRules
		in      CreatePostInput
		message string
	}{
		{"blank content", defaultRules, CreatePostInput{AuthorID: "u1", Content: "   "}, "content is required"},
		{"too long", defaultRules, CreatePostInput{AuthorID: "u1", Content: strings.Repeat("x", 2001)}, "content too long (max 2000 chars)"},
		{"image required", PostRules{MaxContentLength: 2000, ImageRequired: true}, CreatePostInput{AuthorID: "u1", Content: "hi"}, "imageUrl is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := NewPostService(noopPostRepo(), nil, tt.rules)
			_, err := svc.CreatePost(context.Background(), tt.in)
			assertValidationError(t, err, tt.message)
		})
	}
}

func TestPostService_CreatePost_TrimsAndRewrites(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	var stored *models.Post
	repo.createFn = func(_ context.Context, p *models.Post) error {
		p.ID = "p1"
		stored = p
		return nil
	}
	repo.getByIDFn = func(_ context.Context, id, viewer string) (*models.Post, error) {
		assert.Equal(t, "u1", viewer)
		return stored, nil
	}

	svc := NewPostService(repo, nil, defaultRules)
	post, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: "u1", Content: "  hello  ", ImageURL: " /uploads/a.png "})
	require.NoError(t, err)
	assert.Equal(t, "hello", post.Content)
	assert.Equal(t, "/uploads/a.png", post.ImageURL)
	assert.Equal(t, "u1", post.AuthorID)
}

func TestPostService_CreatePost_RewriterFallback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rewriter ContentRewriter
		want     string
	}{
		{"rewritten", rewriterFunc(func(_ context.Context, s string) (string, error) { return "kind " + s, nil }), "kind rude"},
		{"error keeps text", rewriterFunc(func(_ context.Context, _ string) (string, error) { return "", errors.New("down") }), "rude"},
		{"blank keeps text", rewriterFunc(func(_ context.Context, _ string) (string, error) { return "  ", nil }), "rude"},
		{"overlong keeps text", rewriterFunc(func(_ context.Context, _ string) (string, error) { return strings.Repeat("y", 11), nil }), "rude"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := noopPostRepo()
			var content string
			repo.createFn = func(_ context.Context, p *models.Post) error {
				content = p.Content
				return nil
			}
			svc := NewPostService(repo, tt.rewriter, PostRules{MaxContentLength: 10})
			_, err := svc.CreatePost(context.Background(), CreatePostInput{AuthorID: "u1", Content: " rude "})
			require.NoError(t, err)
			assert.Equal(t, tt.want, content)
		})
	}
}

func TestPostService_ListPosts_Paging(t *testing.T) {
	t.Parallel()

	repo := noopPostRepo()
	var requested repository.CursorPage
	var viewers []string
	repo.listFn = func(_ context.Context, page repository.CursorPage, viewer string) ([]*models.Post, error) {
		requested = page
		viewers = append(viewers, viewer)
		return []*models.Post{{ID: "c"}, {ID: "b"}, {ID: "a"}}, nil
	}

	svc := NewPostService(repo, nil, defaultRules)
	page, err := svc.ListPosts(context.Background(), ListPostsInput{Cursor: "d", Limit: 2, ViewerID: "viewer"})
	require.NoError(t, err)

	assert.Equal(t, repository.CursorPage{Cursor: "d", Limit: 2}, requested)
	assert.Len(t, page.Items, 2)
	assert.True(t, page.PageInfo.HasNextPage)
	require.NotNil(t, page.PageInfo.NextCursor)
	assert.Equal(t, "b", *page.PageInfo.NextCursor)

	_, err = svc.ListPosts(context.Background(), ListPostsInput{Limit: 500})
	require.NoError(t, err)
	assert.Equal(t, MaxPostLimit, requested.Limit)

	_, err = svc.ListPosts(context.Background(), ListPostsInput{})
	require.NoError(t, err)
	assert.Equal(t, DefaultPostLimit, requested.Limit)

	assert.Equal(t, []string{"viewer", "", ""}, viewers)
}

func TestPostService_UpdatePost(t *testing.T) {
	t.Parallel()

	content := func(s string) *string { return &s }

	tests := []struct {
		name    string
		in      UpdatePostInput
		found   bool
		code    string
		message string
	}{
		{"missing post", UpdatePostInput{UserID: "author", PostID: "x", Content: content("hi")}, false, models.CodeNotFound, "Post not found"},
		{"not the author", UpdatePostInput{UserID: "intruder", PostID: "p1", Content: content("hi")}, true, models.CodeForbidden, "Forbidden"},
		{"nothing to update", UpdatePostInput{UserID: "author", PostID: "p1"}, true, models.CodeValidation, "No valid fields to update"},
		{"blank content", UpdatePostInput{UserID: "author", PostID: "p1", Content: content(" ")}, true, models.CodeValidation, "content cannot be empty"},
		{"blank image", UpdatePostInput{UserID: "author", PostID: "p1", ImageURL: content(" ")}, true, models.CodeValidation, "imageUrl cannot be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			repo := noopPostRepo()
			if !tt.found {
				repo.getByIDFn = func(_ context.Context, _, _ string) (*models.Post, error) {
					return nil, models.NewNotFoundError("Post")
				}
			}
			repo.updateFn = func(_ context.Context, _ *models.Post) error {
				t.Fatal("update must not run")
				return nil
			}

			svc := NewPostService(repo, nil, defaultRules)
			_, err := svc.UpdatePost(context.Background(), tt.in)
			appErr := assertAppError(t, err, tt.code)
			assert.Equal(t, tt.message, appErr.Message)
		})
	}

	t.Run("owner updates content", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		var saved *models.Post
		repo.updateFn = func(_ context.Context, p *models.Post) error {
			saved = p
			return nil
		}

		svc := NewPostService(repo, nil, defaultRules)
		_, err := svc.UpdatePost(context.Background(), UpdatePostInput{UserID: "author", PostID: "p1", Content: content("  new  ")})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "new", saved.Content)
	})
}

func TestPostService_DeletePost(t *testing.T) {
	t.Parallel()

	t.Run("non-author is forbidden", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		repo.deleteFn = func(_ context.Context, _ string) error {
			t.Fatal("delete must not run")
			return nil
		}
		err := NewPostService(repo, nil, defaultRules).DeletePost(context.Background(), DeletePostInput{UserID: "intruder", PostID: "p1"})
		assertAppError(t, err, models.CodeForbidden)
	})

	t.Run("author deletes", func(t *testing.T) {
		t.Parallel()
		repo := noopPostRepo()
		var deleted string
		repo.deleteFn = func(_ context.Context, id string) error {
			deleted = id
			return nil
		}
		err := NewPostService(repo, nil, defaultRules).DeletePost(context.Background(), DeletePostInput{UserID: "author", PostID: "p1"})
		require.NoError(t, err)
		assert.Equal(t, "p1", deleted)
	})
}
