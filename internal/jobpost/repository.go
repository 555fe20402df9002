package jobpost

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
)

const jobPostColumns = `id, title, description, company, location, job_type, salary, contact_email, skills, application_deadline, is_active, slug, created_at, updated_at`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanJobPost(row scanner) (*JobPost, error) {
	post := &JobPost{}
	var (
		salary   sql.NullFloat64
		skills   pq.StringArray
		deadline pq.NullTime
	)
	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Description,
		&post.Company,
		&post.Location,
		&post.JobType,
		&salary,
		&post.ContactEmail,
		&skills,
		&deadline,
		&post.IsActive,
		&post.Slug,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if salary.Valid {
		post.Salary = &salary.Float64
	}
	if len(skills) > 0 {
		post.Skills = []string(skills)
	}
	if deadline.Valid {
		d := time.Date(deadline.Time.Year(), deadline.Time.Month(), deadline.Time.Day(), 0, 0, 0, 0, time.UTC)
		post.ApplicationDeadline = &d
	}
	return post, nil
}

func (r *Repository) SaveJobPost(ctx context.Context, post *JobPost) error {
	var salary interface{}
	if post.Salary != nil {
		salary = *post.Salary
	}
	var skills interface{}
	if len(post.Skills) > 0 {
		skills = pq.StringArray(post.Skills)
	}
	var deadline interface{}
	if post.ApplicationDeadline != nil {
		deadline = post.ApplicationDeadline.Format(DeadlineLayout)
	}
	res := r.db.QueryRowContext(
		ctx,
		`INSERT INTO job_post (title, description, company, location, job_type, salary, contact_email, skills, application_deadline, is_active, slug, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		post.Title,
		post.Description,
		post.Company,
		post.Location,
		post.JobType,
		salary,
		post.ContactEmail,
		skills,
		deadline,
		post.IsActive,
		post.Slug,
		post.CreatedAt,
		post.UpdatedAt,
	)
	return res.Scan(&post.ID)
}

func (r *Repository) JobPostByID(ctx context.Context, id int) (*JobPost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobPostColumns+` FROM job_post WHERE id = $1`, id)
	post, err := scanJobPost(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrJobPostNotFound, "job post %d", id)
	}
	if err != nil {
		return nil, err
	}
	return post, nil
}

// FirstJobPost returns the oldest job post.
func (r *Repository) FirstJobPost(ctx context.Context) (*JobPost, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+jobPostColumns+` FROM job_post ORDER BY id ASC LIMIT 1`)
	post, err := scanJobPost(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobPostNotFound
	}
	return post, err
}

// JobPosts returns the requested page of job posts and the total count.
func (r *Repository) JobPosts(ctx context.Context, page, perPage int) ([]*JobPost, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM job_post`).Scan(&total); err != nil {
		return nil, 0, err
	}
	posts, err := r.query(ctx, `SELECT `+jobPostColumns+` FROM job_post ORDER BY id ASC LIMIT $1 OFFSET $2`, perPage, (page-1)*perPage)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// ActiveJobPosts returns the most recent job posts still accepting
// applications.
func (r *Repository) ActiveJobPosts(ctx context.Context, limit int) ([]*JobPost, error) {
	return r.query(
		ctx,
		`SELECT `+jobPostColumns+` FROM job_post
		WHERE is_active = TRUE AND (application_deadline IS NULL OR application_deadline > $2::date)
		ORDER BY created_at DESC LIMIT $1`,
		limit,
		deadlineCutoff(time.Now()),
	)
}

// deadlineCutoff is the latest deadline that no longer accepts applications
// at now. A deadline closes at the start of its day in UTC.
func deadlineCutoff(now time.Time) string {
	return now.UTC().Format(DeadlineLayout)
}

func (r *Repository) Summaries(ctx context.Context) ([]Summary, error) {
	summaries := []Summary{}
	rows, err := r.db.QueryContext(ctx, `SELECT id, title, company, location FROM job_post ORDER BY title ASC`)
	if err != nil {
		return summaries, err
	}
	defer rows.Close()
	for rows.Next() {
		var s Summary
		if err := rows.Scan(&s.ID, &s.Title, &s.Company, &s.Location); err != nil {
			return summaries, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

func (r *Repository) query(ctx context.Context, stmt string, args ...interface{}) ([]*JobPost, error) {
	posts := []*JobPost{}
	rows, err := r.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return posts, err
	}
	defer rows.Close()
	for rows.Next() {
		post, err := scanJobPost(rows)
		if err != nil {
			return posts, err
		}
		posts = append(posts, post)
	}
	err = rows.Err()
	if err != nil {
		return posts, err
	}
	return posts, nil
}
