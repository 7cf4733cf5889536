package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"virtuefeed/internal/database"
	"virtuefeed/internal/models"
	"virtuefeed/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type messageBody struct {
	Message string `json:"message"`
}

func TestPostReactionFlow(t *testing.T) {
	env := newTestServer(t)
	token := sessionToken(t, "user_alice", "alice@example.com")

	resp, raw := env.do(t, http.MethodPost, "/api/posts", token, map[string]string{"content": "  hello  "})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	created := decode[models.PostView](t, raw)
	assert.Equal(t, "hello", created.Content)
	assert.Equal(t, "alice", created.Author.Username)

	resp, raw = env.do(t, http.MethodGet, "/api/posts/"+created.ID, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail := decode[models.PostView](t, raw)
	assert.Equal(t, int64(0), detail.Count.Comments)
	assert.Equal(t, int64(0), detail.Count.Reactions)
	assert.False(t, detail.LikedByCurrentUser)

	type toggle struct {
		PostID        string `json:"postId"`
		Reacted       bool   `json:"reacted"`
		ReactionCount int64  `json:"reactionCount"`
	}

	resp, raw = env.do(t, http.MethodPost, "/api/posts/"+created.ID+"/reactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
	first := decode[toggle](t, raw)
	assert.Equal(t, created.ID, first.PostID)
	assert.True(t, first.Reacted)
	assert.Equal(t, int64(1), first.ReactionCount)

	resp, raw = env.do(t, http.MethodGet, "/api/posts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	detail = decode[models.PostView](t, raw)
	assert.True(t, detail.LikedByCurrentUser)
	assert.Equal(t, int64(1), detail.Count.Reactions)

	resp, raw = env.do(t, http.MethodDelete, "/api/posts/"+created.ID+"/reactions", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[toggle](t, raw)
	assert.False(t, second.Reacted)
	assert.Equal(t, int64(0), second.ReactionCount)
}

func TestCreatePost_Validation(t *testing.T) {
	env := newTestServer(t)
	token := sessionToken(t, "user_alice", "alice@example.com")

	tests := []struct {
		name    string
		token   string
		body    any
		status  int
		message string
	}{
		{"no token", "", map[string]string{"content": "hi"}, http.StatusUnauthorized, "Unauthorized"},
		{"blank content", token, map[string]string{"content": "   "}, http.StatusBadRequest, "content is required"},
		{"too long", token, map[string]string{"content": strings.Repeat("a", 2001)}, http.StatusBadRequest, "content too long (max 2000 chars)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, raw := env.do(t, http.MethodPost, "/api/posts", tt.token, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.message, decode[messageBody](t, raw).Message)
		})
	}
}

func TestCreatePost_UnprovisionedIdentity(t *testing.T) {
	env := newTestServer(t)

	resp, raw := env.do(t, http.MethodPost, "/api/posts", sessionToken(t, "user_ghost", ""), map[string]string{"content": "hi"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "User not found. Call /users/sync first.", decode[messageBody](t, raw).Message)
}

func TestPostOwnership(t *testing.T) {
	env := newTestServer(t)
	author := testutil.CreateUser(t, env.db, "author")
	testutil.CreateUser(t, env.db, "other")
	post := testutil.CreatePost(t, env.db, author, "original")

	authorToken := sessionToken(t, author.ExternalID, "")
	otherToken := sessionToken(t, "ext_other", "")

	t.Run("non-author cannot update", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPatch, "/api/posts/"+post.ID, otherToken, map[string]string{"content": "hijack"})
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		assert.Equal(t, "Forbidden", decode[messageBody](t, raw).Message)
	})

	t.Run("non-author cannot delete", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/api/posts/"+post.ID, otherToken, nil)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("missing post", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPatch, "/api/posts/doesnotexist", authorToken, map[string]string{"content": "x"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Post not found", decode[messageBody](t, raw).Message)
	})

	t.Run("empty patch", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPatch, "/api/posts/"+post.ID, authorToken, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "No valid fields to update", decode[messageBody](t, raw).Message)
	})

	t.Run("author updates", func(t *testing.T) {
		resp, raw := env.do(t, http.MethodPatch, "/api/posts/"+post.ID, authorToken, map[string]string{"content": " edited "})
		require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
		assert.Equal(t, "edited", decode[models.PostView](t, raw).Content)
	})

	t.Run("author deletes", func(t *testing.T) {
		resp, _ := env.do(t, http.MethodDelete, "/api/posts/"+post.ID, authorToken, nil)
		assert.Equal(t, http.StatusNoContent, resp.StatusCode)

		resp, _ = env.do(t, http.MethodGet, "/api/posts/"+post.ID, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestListPosts_CursorChain(t *testing.T) {
	env := newTestServer(t)
	author := testutil.CreateUser(t, env.db, "author")
	for i := 0; i < 5; i++ {
		testutil.CreatePost(t, env.db, author, "post")
	}

	seen := map[string]bool{}
	path := "/api/posts?limit=2"
	pages := 0
	for {
		resp, raw := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Page[models.PostView]](t, raw)
		pages++

		for _, p := range page.Items {
			assert.False(t, seen[p.ID], "post %s returned twice", p.ID)
			seen[p.ID] = true
		}
		if !page.PageInfo.HasNextPage {
			assert.Nil(t, page.PageInfo.NextCursor)
			break
		}
		require.NotNil(t, page.PageInfo.NextCursor)
		path = "/api/posts?limit=2&cursor=" + *page.PageInfo.NextCursor
	}

	assert.Len(t, seen, 5)
	assert.Equal(t, 3, pages)
}

func TestListPosts_NewPostsStayOutOfLaterPages(t *testing.T) {
	env := newTestServer(t)
	author := testutil.CreateUser(t, env.db, "author")
	var original []string
	for i := 0; i < 4; i++ {
		original = append(original, testutil.CreatePost(t, env.db, author, "post").ID)
	}

	var seen []string
	path := "/api/posts?limit=2"
	for {
		resp, raw := env.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		page := decode[models.Page[models.PostView]](t, raw)
		for _, p := range page.Items {
			seen = append(seen, p.ID)
		}
		if !page.PageInfo.HasNextPage {
			break
		}
		testutil.CreatePost(t, env.db, author, "late arrival")
		path = "/api/posts?limit=2&cursor=" + *page.PageInfo.NextCursor
	}

	assert.Equal(t, []string{original[3], original[2], original[1], original[0]}, seen)
}

func TestListPosts_OneOverLimitTakesTwoPages(t *testing.T) {
	env := newTestServer(t)
	author := testutil.CreateUser(t, env.db, "author")
	var ids []string
	for i := 0; i < 3; i++ {
		ids = append(ids, testutil.CreatePost(t, env.db, author, "post").ID)
	}

	resp, raw := env.do(t, http.MethodGet, "/api/posts?limit=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decode[models.Page[models.PostView]](t, raw)
	require.Len(t, first.Items, 2)
	assert.True(t, first.PageInfo.HasNextPage)
	require.NotNil(t, first.PageInfo.NextCursor)
	assert.Equal(t, ids[1], *first.PageInfo.NextCursor)

	resp, raw = env.do(t, http.MethodGet, "/api/posts?limit=2&cursor="+*first.PageInfo.NextCursor, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decode[models.Page[models.PostView]](t, raw)
	require.Len(t, second.Items, 1)
	assert.Equal(t, ids[0], second.Items[0].ID)
	assert.False(t, second.PageInfo.HasNextPage)
	assert.Nil(t, second.PageInfo.NextCursor)
}

func TestCreatePost_LaggingReplica(t *testing.T) {
	env := newTestServer(t)
	database.ReadDB = testutil.NewSQLiteDB(t)
	t.Cleanup(func() { database.ReadDB = nil })
	token := sessionToken(t, "user_alice", "alice@example.com")

	resp, raw := env.do(t, http.MethodPost, "/api/posts", token, map[string]string{"content": "fresh"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	created := decode[models.PostView](t, raw)
	assert.Equal(t, "fresh", created.Content)

	resp, raw = env.do(t, http.MethodPost, "/api/posts/"+created.ID+"/comments", token, map[string]string{"content": "first"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))

	resp, raw = env.do(t, http.MethodGet, "/api/posts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(raw))
}

func TestListPosts_LimitClamp(t *testing.T) {
	env := newTestServer(t)
	author := testutil.CreateUser(t, env.db, "author")
	for i := 0; i < 3; i++ {
		testutil.CreatePost(t, env.db, author, "post")
	}

	resp, raw := env.do(t, http.MethodGet, "/api/posts?limit=0", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page := decode[models.Page[models.PostView]](t, raw)
	assert.Len(t, page.Items, 1)
	assert.True(t, page.PageInfo.HasNextPage)

	resp, raw = env.do(t, http.MethodGet, "/api/posts?limit=abc", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	page = decode[models.Page[models.PostView]](t, raw)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.PageInfo.HasNextPage)
}

func TestCreatePost_Multipart(t *testing.T) {
	env := newTestServer(t)
	token := sessionToken(t, "user_alice", "alice@example.com")

	body, contentType := imageForm(t, testutil.PNGBytes(t, 4, 4), "image/png", map[string]string{"content": "with picture"})
	req := httptest.NewRequest(http.MethodPost, "/api/posts", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, raw := env.send(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(raw))
	post := decode[models.PostView](t, raw)
	assert.Equal(t, "with picture", post.Content)
	assert.True(t, strings.HasPrefix(post.ImageURL, "/uploads/"), post.ImageURL)
	assert.True(t, strings.HasSuffix(post.ImageURL, ".png"), post.ImageURL)
}
