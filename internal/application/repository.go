package application

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const applicationColumns = `a.id, a.job_post_id, a.full_name, a.phone_number, a.email, a.work_experience, a.status, a.created_at, a.updated_at, j.title, j.company, j.location`

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db}
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanApplication(row scanner) (*Application, error) {
	app := &Application{}
	var email sql.NullString
	err := row.Scan(
		&app.ID,
		&app.JobPostID,
		&app.FullName,
		&app.PhoneNumber,
		&email,
		&app.WorkExperience,
		&app.Status,
		&app.CreatedAt,
		&app.UpdatedAt,
		&app.JobPost.Title,
		&app.JobPost.Company,
		&app.JobPost.Location,
	)
	if err != nil {
		return nil, err
	}
	app.Email = email.String
	app.JobPost.ID = app.JobPostID
	return app, nil
}

func (r *Repository) CreateApplication(ctx context.Context, app *Application) error {
	var email interface{}
	if app.Email != "" {
		email = app.Email
	}
	res := r.db.QueryRowContext(
		ctx,
		`INSERT INTO job_application (job_post_id, full_name, phone_number, email, work_experience, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		app.JobPostID,
		app.FullName,
		app.PhoneNumber,
		email,
		app.WorkExperience,
		app.Status,
		app.CreatedAt,
		app.UpdatedAt,
	)
	return res.Scan(&app.ID)
}

func (r *Repository) ApplicationByID(ctx context.Context, id int) (*Application, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT `+applicationColumns+` FROM job_application a JOIN job_post j ON j.id = a.job_post_id WHERE a.id = $1`,
		id,
	)
	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, errors.Wrapf(ErrApplicationNotFound, "application %d", id)
	}
	if err != nil {
		return nil, err
	}
	return app, nil
}

// UpdateApplicationStatus sets the status unless the application already
// reached a terminal status in the meantime.
func (r *Repository) UpdateApplicationStatus(ctx context.Context, id int, status Status, updatedAt time.Time) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE job_application SET status = $1, updated_at = $2 WHERE id = $3 AND status NOT IN ($4, $5)`,
		status,
		updatedAt,
		id,
		StatusAccepted,
		StatusFailed,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.Wrapf(ErrTransitionNotAllowed, "application %d", id)
	}
	return nil
}

// DeleteApplication is only used by operator tooling.
func (r *Repository) DeleteApplication(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM job_application WHERE id = $1`, id)
	return err
}

func filterClause(f Filter) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("a.status = $%d", len(args)))
	}
	if f.JobPostID != 0 {
		args = append(args, f.JobPostID)
		conds = append(conds, fmt.Sprintf("a.job_post_id = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Applications returns the requested page of applications, newest first,
// and the total number of applications matching the filter.
func (r *Repository) Applications(ctx context.Context, f Filter) ([]*Application, int, error) {
	apps := []*Application{}
	where, args := filterClause(f)
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM job_application a`+where, args...).Scan(&total); err != nil {
		return apps, 0, err
	}
	args = append(args, f.PerPage, (f.Page-1)*f.PerPage)
	rows, err := r.db.QueryContext(
		ctx,
		fmt.Sprintf(
			`SELECT %s FROM job_application a JOIN job_post j ON j.id = a.job_post_id%s ORDER BY a.created_at DESC, a.id DESC LIMIT $%d OFFSET $%d`,
			applicationColumns, where, len(args)-1, len(args),
		),
		args...,
	)
	if err != nil {
		return apps, 0, err
	}
	defer rows.Close()
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return apps, 0, err
		}
		apps = append(apps, app)
	}
	err = rows.Err()
	if err != nil {
		return apps, 0, err
	}
	return apps, total, nil
}

func (r *Repository) Statistics(ctx context.Context, jobPostID int) (Statistics, error) {
	stats := Statistics{ByStatus: map[Status]int{}}
	where, args := filterClause(Filter{JobPostID: jobPostID})
	rows, err := r.db.QueryContext(ctx, `SELECT a.status, count(*) FROM job_application a`+where+` GROUP BY a.status`, args...)
	if err != nil {
		return stats, err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return stats, err
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	return stats, rows.Err()
}
