package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// CursorPage selects rows that sort strictly after the Cursor row in
// (created_at DESC, id DESC) order. List methods return up to Limit+1 rows so
// callers can tell whether another page follows.
type CursorPage struct {
	Cursor string
	Limit  int
}

type keysetAnchor struct {
	ID        string
	CreatedAt time.Time
}

// findAnchor resolves the cursor row inside scope. A cursor that does not
// resolve yields (nil, nil) and the caller returns an empty page.
func findAnchor(scope *gorm.DB, table, cursor string) (*keysetAnchor, error) {
	var anchor keysetAnchor
	err := scope.Table(table).
		Select(table+".id", table+".created_at").
		Where(table+".id = ?", cursor).
		Take(&anchor).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &anchor, nil
}

// afterAnchor applies the keyset predicate and the stable ordering.
func afterAnchor(db *gorm.DB, table string, anchor *keysetAnchor) *gorm.DB {
	if anchor != nil {
		db = db.Where(
			fmt.Sprintf("(%[1]s.created_at < ? OR (%[1]s.created_at = ? AND %[1]s.id < ?))", table),
			anchor.CreatedAt, anchor.CreatedAt, anchor.ID,
		)
	}
	return db.Order(table + ".created_at DESC").Order(table + ".id DESC")
}
