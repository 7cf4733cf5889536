// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"log"
	"math/rand"
	"strings"
	"time"

	"virtuefeed/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/rs/xid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	// #nosec G404: acceptable for seeding
	rnd *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A nil db
// is only valid with DryRun.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rnd:  rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // Weak random number generator is fine for seeding
	}
}

// BuildUser constructs a user with a synthetic provider id. It is not persisted.
func (f *Factory) BuildUser(overrides ...func(*models.User)) *models.User {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	handle := strings.ToLower(fmt.Sprintf("%s.%s%d", first, last, gofakeit.Number(10, 999)))

	user := &models.User{
		ExternalID: "seed_" + xid.New().String(),
		Email:      handle + "@example.com",
		Username:   handle,
	}
	if f.rnd.Float32() < 0.5 {
		user.AvatarURL = fmt.Sprintf("https://i.pravatar.cc/150?u=%s", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(user)
	}
	return user
}

// CreateUser constructs and persists a sample user.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	user := f.BuildUser(overrides...)
	if f.opts.DryRun {
		user.ID = xid.New().String()
		log.Printf("[dry-run] CreateUser: %s <%s>", user.Username, user.Email)
		return user, nil
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// BuildPost constructs a post by author with a created_at spread over the
// last MaxDays days. Roughly ImageRatio of posts carry an image.
func (f *Factory) BuildPost(author *models.User, overrides ...func(*models.Post)) *models.Post {
	post := &models.Post{
		AuthorID:  author.ID,
		Content:   gofakeit.Paragraph(1, f.rnd.Intn(3)+1, 12, " "),
		CreatedAt: f.pastTime(),
	}
	post.UpdatedAt = post.CreatedAt
	if f.rnd.Float64() < f.opts.imageRatio() {
		post.ImageURL = fmt.Sprintf("https://picsum.photos/seed/%s/800/800", gofakeit.UUID())
	}

	for _, override := range overrides {
		override(post)
	}
	return post
}

// CreatePostsBatch persists posts in chunks of BatchSize.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	if f.opts.DryRun {
		for _, p := range posts {
			p.ID = xid.New().String()
		}
		log.Printf("[dry-run] CreatePostsBatch: %d posts (no DB write)", len(posts))
		return nil
	}
	return f.db.CreateInBatches(posts, f.opts.batchSize()).Error
}

// CreateComment constructs and persists a comment by author on post, dated after the post.
func (f *Factory) CreateComment(author *models.User, post *models.Post, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		PostID:    post.ID,
		AuthorID:  author.ID,
		Content:   gofakeit.Sentence(f.rnd.Intn(14) + 4),
		CreatedAt: f.after(post.CreatedAt),
	}
	comment.UpdatedAt = comment.CreatedAt

	for _, override := range overrides {
		override(comment)
	}

	if f.opts.DryRun {
		comment.ID = xid.New().String()
		return comment, nil
	}
	if err := f.db.Create(comment).Error; err != nil {
		return nil, err
	}
	return comment, nil
}

// CreateReaction stores user's reaction on post. Repeats are ignored.
func (f *Factory) CreateReaction(user *models.User, post *models.Post) error {
	if f.opts.DryRun {
		return nil
	}
	reaction := &models.Reaction{
		PostID:     post.ID,
		UserID:     user.ID,
		StoredType: models.ReactionUp,
		CreatedAt:  f.after(post.CreatedAt),
	}
	return f.db.Clauses(clause.OnConflict{DoNothing: true}).Create(reaction).Error
}

func (f *Factory) pastTime() time.Time {
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	back := time.Duration(f.rnd.Intn(maxDays))*24*time.Hour +
		time.Duration(f.rnd.Intn(24))*time.Hour +
		time.Duration(f.rnd.Intn(60))*time.Minute
	return time.Now().UTC().Add(-back)
}

// after returns a moment between t and now.
func (f *Factory) after(t time.Time) time.Time {
	span := time.Since(t)
	if span <= 0 {
		return t
	}
	return t.Add(time.Duration(f.rnd.Int63n(int64(span))))
}
