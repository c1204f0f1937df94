package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrAlreadyLiked is returned when a user likes a post twice.
	ErrAlreadyLiked = errors.New("post already liked")
	// ErrNotLiked is returned when unliking a post the user never liked.
	ErrNotLiked = errors.New("post has not been liked")
)

// Like records one user's like. Newest likes come first.
type Like struct {
	ID   string `json:"_id"`
	User string `json:"user"`
}

// Comment is a sub-record of a post, owned by its author. Name and avatar
// are snapshots taken at write time and never track later profile edits.
type Comment struct {
	ID        string    `json:"_id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	CreatedAt time.Time `json:"date"`
}

// Post is owned by a user; Name and Avatar are write-time snapshots of the
// author, same as comment snapshots.
type Post struct {
	ID        string    `json:"_id"`
	User      string    `json:"user"`
	Text      string    `json:"text"`
	Name      string    `json:"name"`
	Avatar    string    `json:"avatar"`
	Likes     []Like    `json:"likes"`
	Comments  []Comment `json:"comments"`
	CreatedAt time.Time `json:"date"`
}

// PostRepository defines persistence operations for posts. Like, unlike and
// comment operations mutate the jsonb arrays in one statement each, so the
// duplicate-like and never-liked checks cannot race with a concurrent
// mutation of the same post.
type PostRepository interface {
	Create(ctx context.Context, p *Post) error
	List(ctx context.Context) ([]Post, error)
	FindByID(ctx context.Context, id string) (*Post, error)
	Delete(ctx context.Context, id string) error
	AddLike(ctx context.Context, postID, userID string) ([]Like, error)
	RemoveLike(ctx context.Context, postID, userID string) ([]Like, error)
	AddComment(ctx context.Context, postID string, comment Comment) ([]Comment, error)
	RemoveComment(ctx context.Context, postID, commentID string) ([]Comment, error)
}

// PgPostRepository implements PostRepository using pgxpool.
type PgPostRepository struct {
	db *pgxpool.Pool
}

func NewPgPostRepository(db *pgxpool.Pool) *PgPostRepository {
	return &PgPostRepository{db: db}
}

const postColumns = `id, user_id, text, name, avatar, likes, comments, created_at`

func scanPost(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(&p.ID, &p.User, &p.Text, &p.Name, &p.Avatar, &p.Likes, &p.Comments, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Likes == nil {
		p.Likes = []Like{}
	}
	if p.Comments == nil {
		p.Comments = []Comment{}
	}
	return &p, nil
}

func (r *PgPostRepository) Create(ctx context.Context, p *Post) error {
	const q = `INSERT INTO posts (id, user_id, text, name, avatar) VALUES ($1,$2,$3,$4,$5) RETURNING created_at`
	if err := r.db.QueryRow(ctx, q, p.ID, p.User, p.Text, p.Name, p.Avatar).Scan(&p.CreatedAt); err != nil {
		return err
	}
	p.Likes = []Like{}
	p.Comments = []Comment{}
	return nil
}

func (r *PgPostRepository) List(ctx context.Context) ([]Post, error) {
	const q = `SELECT ` + postColumns + ` FROM posts ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgPostRepository) FindByID(ctx context.Context, id string) (*Post, error) {
	const q = `SELECT ` + postColumns + ` FROM posts WHERE id=$1`
	return scanPost(r.db.QueryRow(ctx, q, id))
}

func (r *PgPostRepository) Delete(ctx context.Context, id string) error {
	const q = `DELETE FROM posts WHERE id=$1`
	_, err := r.db.Exec(ctx, q, id)
	return err
}

// AddLike prepends the like unless the user already liked the post. The
// duplicate check and the prepend are one statement.
func (r *PgPostRepository) AddLike(ctx context.Context, postID, userID string) ([]Like, error) {
	elem, err := json.Marshal([]Like{{ID: NewDocID(), User: userID}})
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE posts SET likes = $2::jsonb || likes
WHERE id=$1 AND NOT EXISTS (
	SELECT 1 FROM jsonb_array_elements(likes) l WHERE l->>'user' = $3)
RETURNING likes`
	var likes []Like
	err = r.db.QueryRow(ctx, q, postID, elem, userID).Scan(&likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.likeConflict(ctx, postID, ErrAlreadyLiked)
	}
	if err != nil {
		return nil, err
	}
	return likes, nil
}

// RemoveLike drops the user's like; unliking a never-liked post is an error.
func (r *PgPostRepository) RemoveLike(ctx context.Context, postID, userID string) ([]Like, error) {
	const q = `
UPDATE posts SET likes = (
	SELECT coalesce(jsonb_agg(l), '[]'::jsonb)
	FROM jsonb_array_elements(likes) l WHERE l->>'user' <> $2)
WHERE id=$1 AND EXISTS (
	SELECT 1 FROM jsonb_array_elements(likes) l WHERE l->>'user' = $2)
RETURNING likes`
	var likes []Like
	err := r.db.QueryRow(ctx, q, postID, userID).Scan(&likes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.likeConflict(ctx, postID, ErrNotLiked)
	}
	if err != nil {
		return nil, err
	}
	if likes == nil {
		likes = []Like{}
	}
	return likes, nil
}

// likeConflict tells a missing post apart from a like-state conflict after a
// conditional update matched no row.
func (r *PgPostRepository) likeConflict(ctx context.Context, postID string, conflict error) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id=$1)`, postID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return conflict
}

func (r *PgPostRepository) AddComment(ctx context.Context, postID string, comment Comment) ([]Comment, error) {
	elem, err := json.Marshal([]Comment{comment})
	if err != nil {
		return nil, err
	}
	const q = `UPDATE posts SET comments = $2::jsonb || comments WHERE id=$1 RETURNING comments`
	var comments []Comment
	err = r.db.QueryRow(ctx, q, postID, elem).Scan(&comments)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *PgPostRepository) RemoveComment(ctx context.Context, postID, commentID string) ([]Comment, error) {
	const q = `
UPDATE posts SET comments = (
	SELECT coalesce(jsonb_agg(e), '[]'::jsonb)
	FROM jsonb_array_elements(comments) e WHERE e->>'_id' <> $2)
WHERE id=$1
RETURNING comments`
	var comments []Comment
	err := r.db.QueryRow(ctx, q, postID, commentID).Scan(&comments)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []Comment{}
	}
	return comments, nil
}
