package core

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ProfileOwner is the owner projection embedded in profile responses,
// mirroring the populated user reference existing clients read.
type ProfileOwner struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Experience is a work-history entry. From/To stay strings: the store keeps
// whatever the client submitted, it never computes with them.
type Experience struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location,omitempty"`
	From        string `json:"from"`
	To          string `json:"to,omitempty"`
	Current     bool   `json:"current"`
	Description string `json:"description,omitempty"`
}

// Education is a schooling entry.
type Education struct {
	ID           string `json:"_id"`
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldofstudy"`
	From         string `json:"from"`
	To           string `json:"to,omitempty"`
	Current      bool   `json:"current"`
	Description  string `json:"description,omitempty"`
}

// SocialLinks holds optional social network URLs.
type SocialLinks struct {
	Youtube   string `json:"youtube,omitempty"`
	Twitter   string `json:"twitter,omitempty"`
	Facebook  string `json:"facebook,omitempty"`
	Linkedin  string `json:"linkedin,omitempty"`
	Instagram string `json:"instagram,omitempty"`
}

// Profile is the one-to-one extension of a user. Experience and education
// are newest-first.
type Profile struct {
	User           ProfileOwner `json:"user"`
	Company        string       `json:"company,omitempty"`
	Website        string       `json:"website,omitempty"`
	Location       string       `json:"location,omitempty"`
	Status         string       `json:"status"`
	Skills         []string     `json:"skills"`
	Bio            string       `json:"bio,omitempty"`
	GithubUsername string       `json:"githubusername,omitempty"`
	Experience     []Experience `json:"experience"`
	Education      []Education  `json:"education"`
	Social         SocialLinks  `json:"social"`
	CreatedAt      time.Time    `json:"date"`
}

// ProfileFields carries the mutable scalar portion of a profile for create
// and update operations.
type ProfileFields struct {
	Company        string
	Website        string
	Location       string
	Status         string
	Skills         []string
	Bio            string
	GithubUsername string
	Social         SocialLinks
}

// ProfileRepository defines persistence operations for profiles. Every
// mutation is keyed by the owning user id, so a caller can only ever touch
// its own profile row.
type ProfileRepository interface {
	FindByUser(ctx context.Context, userID string) (*Profile, error)
	List(ctx context.Context) ([]Profile, error)
	Create(ctx context.Context, userID string, fields ProfileFields) (*Profile, error)
	Update(ctx context.Context, userID string, fields ProfileFields) (*Profile, error)
	DeleteByUser(ctx context.Context, userID string) error
	AddExperience(ctx context.Context, userID string, exp Experience) (*Profile, error)
	UpdateExperience(ctx context.Context, userID, expID string, exp Experience) (*Profile, error)
	RemoveExperience(ctx context.Context, userID, expID string) (*Profile, error)
	AddEducation(ctx context.Context, userID string, edu Education) (*Profile, error)
	UpdateEducation(ctx context.Context, userID, eduID string, edu Education) (*Profile, error)
	RemoveEducation(ctx context.Context, userID, eduID string) (*Profile, error)
}

// PgProfileRepository implements ProfileRepository using pgxpool. Experience,
// education and social live in jsonb columns; every array mutation is a
// single UPDATE so concurrent edits serialize on the row instead of racing
// through read-modify-write.
type PgProfileRepository struct {
	db *pgxpool.Pool
}

func NewPgProfileRepository(db *pgxpool.Pool) *PgProfileRepository {
	return &PgProfileRepository{db: db}
}

const profileColumns = `
p.user_id, u.name, u.avatar, p.company, p.website, p.location, p.status,
p.skills, p.bio, p.githubusername, p.experience, p.education, p.social, p.created_at`

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	err := row.Scan(&p.User.ID, &p.User.Name, &p.User.Avatar, &p.Company, &p.Website,
		&p.Location, &p.Status, &p.Skills, &p.Bio, &p.GithubUsername,
		&p.Experience, &p.Education, &p.Social, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if p.Skills == nil {
		p.Skills = []string{}
	}
	if p.Experience == nil {
		p.Experience = []Experience{}
	}
	if p.Education == nil {
		p.Education = []Education{}
	}
	return &p, nil
}

func (r *PgProfileRepository) FindByUser(ctx context.Context, userID string) (*Profile, error) {
	const q = `SELECT` + profileColumns + `
FROM profiles p JOIN users u ON u.id = p.user_id
WHERE p.user_id=$1`
	return scanProfile(r.db.QueryRow(ctx, q, userID))
}

func (r *PgProfileRepository) List(ctx context.Context) ([]Profile, error) {
	const q = `SELECT` + profileColumns + `
FROM profiles p JOIN users u ON u.id = p.user_id
ORDER BY p.created_at DESC`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Profile{}
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *PgProfileRepository) Create(ctx context.Context, userID string, f ProfileFields) (*Profile, error) {
	const q = `
INSERT INTO profiles (user_id, company, website, location, status, skills, bio, githubusername, social)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`
	_, err := r.db.Exec(ctx, q, userID, f.Company, f.Website, f.Location, f.Status, f.Skills, f.Bio, f.GithubUsername, f.Social)
	if err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

func (r *PgProfileRepository) Update(ctx context.Context, userID string, f ProfileFields) (*Profile, error) {
	const q = `
UPDATE profiles
SET company=$2, website=$3, location=$4, status=$5, skills=$6, bio=$7, githubusername=$8, social=$9
WHERE user_id=$1`
	tag, err := r.db.Exec(ctx, q, userID, f.Company, f.Website, f.Location, f.Status, f.Skills, f.Bio, f.GithubUsername, f.Social)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.FindByUser(ctx, userID)
}

func (r *PgProfileRepository) DeleteByUser(ctx context.Context, userID string) error {
	const q = `DELETE FROM profiles WHERE user_id=$1`
	_, err := r.db.Exec(ctx, q, userID)
	return err
}

// prependElement builds a one-element jsonb array for `arr || column`
// prepends, keeping sub-record order newest-first.
func prependElement(v any) ([]byte, error) {
	return json.Marshal([]any{v})
}

func (r *PgProfileRepository) AddExperience(ctx context.Context, userID string, exp Experience) (*Profile, error) {
	elem, err := prependElement(exp)
	if err != nil {
		return nil, err
	}
	const q = `UPDATE profiles SET experience = $2::jsonb || experience WHERE user_id=$1`
	return r.mutate(ctx, userID, q, elem)
}

func (r *PgProfileRepository) UpdateExperience(ctx context.Context, userID, expID string, exp Experience) (*Profile, error) {
	elem, err := json.Marshal(exp)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE profiles SET experience = (
	SELECT coalesce(jsonb_agg(CASE WHEN e->>'_id' = $2 THEN $3::jsonb ELSE e END), '[]'::jsonb)
	FROM jsonb_array_elements(experience) e)
WHERE user_id=$1`
	return r.mutate(ctx, userID, q, expID, elem)
}

func (r *PgProfileRepository) RemoveExperience(ctx context.Context, userID, expID string) (*Profile, error) {
	const q = `
UPDATE profiles SET experience = (
	SELECT coalesce(jsonb_agg(e), '[]'::jsonb)
	FROM jsonb_array_elements(experience) e WHERE e->>'_id' <> $2)
WHERE user_id=$1`
	return r.mutate(ctx, userID, q, expID)
}

func (r *PgProfileRepository) AddEducation(ctx context.Context, userID string, edu Education) (*Profile, error) {
	elem, err := prependElement(edu)
	if err != nil {
		return nil, err
	}
	const q = `UPDATE profiles SET education = $2::jsonb || education WHERE user_id=$1`
	return r.mutate(ctx, userID, q, elem)
}

func (r *PgProfileRepository) UpdateEducation(ctx context.Context, userID, eduID string, edu Education) (*Profile, error) {
	elem, err := json.Marshal(edu)
	if err != nil {
		return nil, err
	}
	const q = `
UPDATE profiles SET education = (
	SELECT coalesce(jsonb_agg(CASE WHEN e->>'_id' = $2 THEN $3::jsonb ELSE e END), '[]'::jsonb)
	FROM jsonb_array_elements(education) e)
WHERE user_id=$1`
	return r.mutate(ctx, userID, q, eduID, elem)
}

func (r *PgProfileRepository) RemoveEducation(ctx context.Context, userID, eduID string) (*Profile, error) {
	const q = `
UPDATE profiles SET education = (
	SELECT coalesce(jsonb_agg(e), '[]'::jsonb)
	FROM jsonb_array_elements(education) e WHERE e->>'_id' <> $2)
WHERE user_id=$1`
	return r.mutate(ctx, userID, q, eduID)
}

func (r *PgProfileRepository) mutate(ctx context.Context, userID, q string, args ...any) (*Profile, error) {
	tag, err := r.db.Exec(ctx, q, append([]any{userID}, args...)...)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.FindByUser(ctx, userID)
}
