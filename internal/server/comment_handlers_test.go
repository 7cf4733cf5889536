package server

import (
	"net/http"
	"strings"
	"testing"

	"virtuefeed/internal/models"
	"virtuefeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComments(t *testing.T) {
	env := newTestServer(t)
	author := testutil.CreateUser(t, env.db, "author")
	commenter := testutil.CreateUser(t, env.db, "commenter")
	post := testutil.CreatePost(t, env.db, author, "a post")

	authorToken := sessionToken(t, author.ExternalID, "")
	commenterToken := sessionToken(t, commenter.ExternalID, "")
	commentsPath := "/api/posts/" + post.ID + "/comments"

	t.Run("2000 characters is accepted", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPost, commentsPath, commenterToken, map[string]string{"content": strings.Repeat("é", 2000)})
		require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
		view := decode[models.CommentView](t, raw)
		assert.True(t, view.IsAuthor)
		assert.Equal(t, commenter.ID, view.Author.ID)
	})

	t.Run("2001 characters is rejected", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPost, commentsPath, commenterToken, map[string]string{"content": strings.Repeat("a", 2001)})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "content too long (max 2000 chars)", decode[messageBody](t, raw).Message)
	})

	t.Run("missing content", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPost, commentsPath, commenterToken, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "content is required", decode[messageBody](t, raw).Message)
	})

	t.Run("missing post", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPost, "/api/posts/nope/comments", commenterToken, map[string]string{"content": "hi"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Post not found", decode[messageBody](t, raw).Message)
	})

	t.Run("list marks the viewer's comments", func(t *testing.T) {
		testutil.CreateComment(t, env.db, post, author, "by the author")

		resp, raw := env.do(t, http.MethodGet, commentsPath, authorToken, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Page[models.CommentView]](t, raw)
		require.Len(t, page.Items, 2)
		assert.False(t, page.PageInfo.HasNextPage)
		for _, c := range page.Items {
			assert.Equal(t, c.AuthorID == author.ID, c.IsAuthor)
		}

		resp, raw = env.do(t, http.MethodGet, "/api/posts/"+post.ID, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, int64(2), decode[models.PostView](t, raw).Count.Comments)
	})

	t.Run("list on a missing post", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodGet, "/api/posts/nope/comments", "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCommentOwnership(t *testing.T) {
	env := newTestServer(t)
	author := testutil.CreateUser(t, env.db, "author")
	testutil.CreateUser(t, env.db, "other")
	post := testutil.CreatePost(t, env.db, author, "a post")
	comment := testutil.CreateComment(t, env.db, post, author, "first")

	authorToken := sessionToken(t, author.ExternalID, "")
	otherToken := sessionToken(t, "ext_other", "")
	path := "/api/comments/" + comment.ID

	resp, _ := env.do(t, http.MethodPatch, path, otherToken, map[string]string{"content": "mine now"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, raw := env.do(t, http.MethodPatch, path, authorToken, map[string]string{"content": "  "})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "content cannot be empty", decode[messageBody](t, raw).Message)

	resp, raw = env.do(t, http.MethodPatch, path, authorToken, map[string]string{"content": " second "})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	assert.Equal(t, "second", decode[models.CommentView](t, raw).Content)

	resp, _ = env.do(t, http.MethodDelete, path, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = env.do(t, http.MethodDelete, path, authorToken, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, raw = env.do(t, http.MethodDelete, path, authorToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "Comment not found", decode[messageBody](t, raw).Message)
}
