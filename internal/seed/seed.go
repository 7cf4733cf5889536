package seed

import (
	"fmt"
	"log"

	"virtuefeed/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	DryRun     bool
	MaxDays    int
	BatchSize  int
	ImageRatio float64
}

func (o Options) batchSize() int {
	if o.BatchSize <= 0 {
		return 100
	}
	return o.BatchSize
}

func (o Options) imageRatio() float64 {
	if o.ImageRatio <= 0 {
		return 0.4
	}
	return o.ImageRatio
}

// Seeder populates a database with a synthetic feed.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder binds a seeder to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// Result counts what a run created.
type Result struct {
	Users     int
	Posts     int
	Comments  int
	Reactions int
}

// ClearAll removes every feed row. Children go first so foreign keys hold
// on databases without cascades.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&models.Reaction{}, &models.Comment{}, &models.Post{}, &models.User{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SeedUsers creates n users.
func (s *Seeder) SeedUsers(n int) ([]*models.User, error) {
	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := s.factory.CreateUser()
		if err != nil {
			return nil, fmt.Errorf("create user %d: %w", i, err)
		}
		users = append(users, user)
		if i > 0 && i%100 == 0 {
			log.Printf("Created %d users...", i)
		}
	}
	return users, nil
}

// SeedEngagement creates posts by random authors, then comments and reactions
// from random users. reactionRatio is the chance that any user reacted to a post.
func (s *Seeder) SeedEngagement(users []*models.User, numPosts, commentsPerPost int, reactionRatio float64) (Result, error) {
	res := Result{Users: len(users)}
	if len(users) == 0 || numPosts == 0 {
		return res, nil
	}

	rnd := s.factory.rnd
	posts := make([]*models.Post, 0, numPosts)
	for i := 0; i < numPosts; i++ {
		posts = append(posts, s.factory.BuildPost(users[rnd.Intn(len(users))]))
	}
	if err := s.factory.CreatePostsBatch(posts); err != nil {
		return res, fmt.Errorf("create posts: %w", err)
	}
	res.Posts = len(posts)

	for _, post := range posts {
		if commentsPerPost > 0 {
			for i := rnd.Intn(commentsPerPost + 1); i > 0; i-- {
				if _, err := s.factory.CreateComment(users[rnd.Intn(len(users))], post); err != nil {
					return res, fmt.Errorf("create comment: %w", err)
				}
				res.Comments++
			}
		}
		for _, u := range users {
			if rnd.Float64() >= reactionRatio {
				continue
			}
			if err := s.factory.CreateReaction(u, post); err != nil {
				return res, fmt.Errorf("create reaction: %w", err)
			}
			res.Reactions++
		}
	}
	return res, nil
}

// Run seeds numUsers users and their engagement.
func (s *Seeder) Run(numUsers, numPosts, commentsPerPost int, reactionRatio float64) (Result, error) {
	log.Printf("🌱 Starting database seeding with %d users and %d posts...", numUsers, numPosts)

	users, err := s.SeedUsers(numUsers)
	if err != nil {
		return Result{}, err
	}
	log.Printf("✓ %d users created", len(users))

	res, err := s.SeedEngagement(users, numPosts, commentsPerPost, reactionRatio)
	if err != nil {
		return res, err
	}
	log.Printf("✓ %d posts, %d comments, %d reactions created", res.Posts, res.Comments, res.Reactions)
	return res, nil
}

// ApplyPreset seeds the dataset described by p.
func (s *Seeder) ApplyPreset(p Preset) (Result, error) {
	if err := p.validate(); err != nil {
		return Result{}, fmt.Errorf("preset %q: %w", p.Name, err)
	}
	if p.MaxDays > 0 {
		s.factory.opts.MaxDays = p.MaxDays
	}
	if p.ImageRatio > 0 {
		s.factory.opts.ImageRatio = p.ImageRatio
	}
	return s.Run(p.Users, p.Posts, p.CommentsPerPost, p.ReactionRatio)
}
