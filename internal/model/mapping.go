// Package model defines the shapes shared by slug-filler, write-svc, and
// redirect-svc.
package model

import "time"

// Mapping is a single slug -> URL record as persisted by the store.
//
// FirstChar is derived from Slug and is never set independently by callers;
// the store layer computes it on insert, overwriting any value the caller
// left in the field. The schema in internal/store/migrations has no trigger
// or check of its own, so a row written outside the store layer is not
// corrected by the database.
type Mapping struct {
	Slug      string    `db:"slug"`
	URL       string    `db:"url"`
	Owner     *string   `db:"owner"`
	CreatedAt time.Time `db:"created_at"`
	FirstChar string    `db:"first_char"`
}

// FirstCharOf returns the partition key for a slug.
func FirstCharOf(slug string) string {
	if slug == "" {
		return ""
	}
	return slug[:1]
}
