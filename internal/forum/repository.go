// Package forum is the discussion-forum data layer: thread/post/save CRUD
// and filtered queries over Postgres.
package forum

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"elearn-platform/internal/domain"
	"github.com/uptrace/bun"
)

type Repository struct {
	db *bun.DB
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db}
}

// CreateThread inserts a new thread and returns its ID.
func (r *Repository) CreateThread(ctx context.Context, title, body, category, author string) (int64, error) {
	thread := &Thread{
		Title:     title,
		Body:      body,
		Category:  category,
		Author:    author,
		CreatedAt: time.Now(),
	}
	if _, err := r.db.NewInsert().Model(thread).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("create thread: %w", err)
	}
	return thread.ID, nil
}

// AddPost appends a reply to a thread.
func (r *Repository) AddPost(ctx context.Context, threadID int64, body, author string) (int64, error) {
	exists, err := r.db.NewSelect().Model((*Thread)(nil)).Where("t.id = ?", threadID).Exists(ctx)
	if err != nil {
		return 0, fmt.Errorf("add post: %w", err)
	}
	if !exists {
		return 0, domain.ErrThreadNotFound
	}
	post := &Post{
		ThreadID:  threadID,
		Author:    author,
		Body:      body,
		CreatedAt: time.Now(),
	}
	if _, err := r.db.NewInsert().Model(post).Returning("id").Exec(ctx); err != nil {
		return 0, fmt.Errorf("add post: %w", err)
	}
	return post.ID, nil
}

func (r *Repository) GetThread(ctx context.Context, id int64) (Thread, error) {
	var thread Thread
	err := r.db.NewSelect().Model(&thread).Where("t.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Thread{}, domain.ErrThreadNotFound
	}
	if err != nil {
		return Thread{}, fmt.Errorf("get thread: %w", err)
	}
	return thread, nil
}

// ListPosts returns a thread's posts oldest first.
func (r *Repository) ListPosts(ctx context.Context, threadID int64) ([]Post, error) {
	posts := make([]Post, 0)
	err := r.db.NewSelect().Model(&posts).
		Where("p.thread_id = ?", threadID).
		OrderExpr("p.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (r *Repository) PostCount(ctx context.Context, threadID int64) (int, error) {
	count, err := r.db.NewSelect().Model((*Post)(nil)).Where("p.thread_id = ?", threadID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("post count: %w", err)
	}
	return count, nil
}

func (r *Repository) IsSaved(ctx context.Context, user string, threadID int64) (bool, error) {
	if user == "" {
		return false, nil
	}
	exists, err := r.db.NewSelect().Model((*Save)(nil)).
		Where(`s."user" = ?`, user).
		Where("s.thread_id = ?", threadID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("is saved: %w", err)
	}
	return exists, nil
}

// ToggleSave flips a thread's saved state for a user and returns the new state.
func (r *Repository) ToggleSave(ctx context.Context, user string, threadID int64) (bool, error) {
	saved, err := r.IsSaved(ctx, user, threadID)
	if err != nil {
		return false, err
	}
	if saved {
		_, err = r.db.NewDelete().Model((*Save)(nil)).
			Where(`s."user" = ?`, user).
			Where("s.thread_id = ?", threadID).
			Exec(ctx)
		if err != nil {
			return false, fmt.Errorf("unsave: %w", err)
		}
		return false, nil
	}
	_, err = r.db.NewInsert().Model(&Save{User: user, ThreadID: threadID}).Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("save: %w", err)
	}
	return true, nil
}

// DeleteThread removes a thread; its posts and saves go with it via the
// schema's cascade.
func (r *Repository) DeleteThread(ctx context.Context, id int64) error {
	res, err := r.db.NewDelete().Model((*Thread)(nil)).Where("t.id = ?", id).Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete thread: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrThreadNotFound
	}
	return nil
}

// QueryThreads lists threads newest first, optionally narrowed by a
// title/body search, category, author, or saved-by user.
func (r *Repository) QueryThreads(ctx context.Context, f Filters) ([]Thread, error) {
	threads := make([]Thread, 0)
	q := r.db.NewSelect().Model(&threads)

	if f.SavedBy != "" {
		q = q.Join(`JOIN saves AS s ON s.thread_id = t.id AND s."user" = ?`, f.SavedBy)
	}
	if f.Search != "" {
		pattern := "%" + f.Search + "%"
		q = q.Where("(t.title ILIKE ? OR t.body ILIKE ?)", pattern, pattern)
	}
	if f.Category != "" && f.Category != "All" {
		q = q.Where("t.category = ?", f.Category)
	}
	if f.Author != "" {
		q = q.Where("t.author = ?", f.Author)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if err := q.OrderExpr("t.id DESC").Limit(limit).Scan(ctx); err != nil {
		return nil, fmt.Errorf("query threads: %w", err)
	}
	return threads, nil
}
