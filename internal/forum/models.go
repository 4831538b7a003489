package forum

import (
	"time"

	"github.com/uptrace/bun"
)

// Thread is a top-level forum discussion.
type Thread struct {
	bun.BaseModel `bun:"table:threads,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Title     string    `bun:"title,notnull" json:"title"`
	Body      string    `bun:"body,notnull" json:"body"`
	Category  string    `bun:"category" json:"category"`
	Author    string    `bun:"author" json:"author"`
	CreatedAt time.Time `bun:"created_at" json:"createdAt"`
}

// Post is a reply within a thread. Posts are deleted with their thread
// (ON DELETE CASCADE in the schema).
type Post struct {
	bun.BaseModel `bun:"table:posts,alias:p"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	ThreadID  int64     `bun:"thread_id,notnull" json:"threadId"`
	Author    string    `bun:"author" json:"author"`
	Body      string    `bun:"body,notnull" json:"body"`
	CreatedAt time.Time `bun:"created_at" json:"createdAt"`
}

// Save marks a thread as saved-for-later by a user (display name).
type Save struct {
	bun.BaseModel `bun:"table:saves,alias:s"`

	User     string `bun:"user,pk" json:"user"`
	ThreadID int64  `bun:"thread_id,pk" json:"threadId"`
}

// Filters narrows a thread query. Zero values mean "no filter"; the category
// sentinel "All" is treated the same as empty. Limit defaults to 100.
type Filters struct {
	Search   string
	Category string
	Author   string
	SavedBy  string
	Limit    int
}
