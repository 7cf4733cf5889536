package job

import (
	"context"
	"log/slog"
	"time"

	"virtuefeed/internal/middleware"
	"virtuefeed/internal/observability"
	"virtuefeed/internal/storage"
)

// ImageReferences reports which image URLs are still used by posts.
type ImageReferences interface {
	ReferencedImageURLs(ctx context.Context, urls []string) (map[string]bool, error)
}

// UploadCleanupJob deletes stored images that no post references once they
// are older than ttl. Fresh uploads are kept so a client can still attach them.
type UploadCleanupJob struct {
	store   storage.ImageStore
	refs    ImageReferences
	ttl     time.Duration
	timeout time.Duration
	now     func() time.Time
}

func NewUploadCleanupJob(store storage.ImageStore, refs ImageReferences, ttl time.Duration) *UploadCleanupJob {
	return &UploadCleanupJob{store: store, refs: refs, ttl: ttl, timeout: 5 * time.Minute, now: time.Now}
}

// Run implements cron.Job.
func (j *UploadCleanupJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	removed, err := j.Sweep(ctx)
	if err != nil {
		middleware.Logger.Error("upload cleanup failed", slog.String("error", err.Error()))
		return
	}
	if removed > 0 {
		middleware.Logger.Info("upload cleanup finished", slog.Int("removed", removed))
	}
}

// Sweep performs one cleanup pass and returns how many objects were removed.
func (j *UploadCleanupJob) Sweep(ctx context.Context) (int, error) {
	objects, err := j.store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := j.now().Add(-j.ttl)
	var candidates []storage.Object
	urls := make([]string, 0, len(objects))
	for _, obj := range objects {
		if obj.ModTime.Before(cutoff) {
			candidates = append(candidates, obj)
			urls = append(urls, obj.URL)
		}
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	referenced, err := j.refs.ReferencedImageURLs(ctx, urls)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, obj := range candidates {
		if referenced[obj.URL] {
			continue
		}
		if err := j.store.Delete(ctx, obj.Key); err != nil {
			middleware.Logger.Warn("failed to delete orphan upload", slog.String("key", obj.Key), slog.String("error", err.Error()))
			continue
		}
		removed++
		observability.OrphanUploadsRemoved.Inc()
	}
	return removed, nil
}
