package seed

import (
	"strings"
	"testing"
	"time"

	"virtuefeed/internal/models"
)

func TestBuildPost_TimestampsAndImages(t *testing.T) {
	opts := Options{DryRun: true, MaxDays: 30, ImageRatio: 1}
	f := NewFactory(nil, opts)
	author := &models.User{ID: "author"}

	for i := 0; i < 50; i++ {
		p := f.BuildPost(author)
		if p.AuthorID != "author" {
			t.Fatalf("unexpected author: %s", p.AuthorID)
		}
		if strings.TrimSpace(p.Content) == "" {
			t.Fatalf("expected content")
		}
		if time.Since(p.CreatedAt) > (time.Duration(opts.MaxDays)+1)*24*time.Hour {
			t.Fatalf("created_at too old: %v", p.CreatedAt)
		}
		if !strings.HasPrefix(p.ImageURL, "https://picsum.photos/") {
			t.Fatalf("unexpected image url: %s", p.ImageURL)
		}
	}
}

func TestBuildUser_Overrides(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})

	u := f.BuildUser(func(u *models.User) { u.Username = "fixed" })
	if u.Username != "fixed" {
		t.Fatalf("override not applied: %s", u.Username)
	}
	if !strings.HasPrefix(u.ExternalID, "seed_") {
		t.Fatalf("unexpected external id: %s", u.ExternalID)
	}
	if !strings.HasSuffix(u.Email, "@example.com") {
		t.Fatalf("unexpected email: %s", u.Email)
	}
}

func TestDryRun_AssignsIDsWithoutDB(t *testing.T) {
	f := NewFactory(nil, Options{DryRun: true})

	u, err := f.CreateUser()
	if err != nil || u.ID == "" {
		t.Fatalf("dry-run user: id=%q err=%v", u.ID, err)
	}
	posts := []*models.Post{f.BuildPost(u), f.BuildPost(u)}
	if err := f.CreatePostsBatch(posts); err != nil {
		t.Fatalf("dry-run batch: %v", err)
	}
	for _, p := range posts {
		if p.ID == "" {
			t.Fatalf("expected dry-run post id")
		}
	}
	c, err := f.CreateComment(u, posts[0])
	if err != nil || c.ID == "" {
		t.Fatalf("dry-run comment: err=%v", err)
	}
	if c.CreatedAt.Before(posts[0].CreatedAt) {
		t.Fatalf("comment predates its post")
	}
}
