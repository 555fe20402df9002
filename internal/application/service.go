package application

import (
	"context"
	"time"

	"github.com/hiringboard/job-board/internal/email"
	"github.com/hiringboard/job-board/internal/jobpost"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	DefaultPerPage = 15
	MaxPerPage     = 100
)

type JobPostFinder interface {
	JobPostByID(ctx context.Context, id int) (*jobpost.JobPost, error)
}

type Store interface {
	CreateApplication(ctx context.Context, app *Application) error
	ApplicationByID(ctx context.Context, id int) (*Application, error)
	UpdateApplicationStatus(ctx context.Context, id int, status Status, updatedAt time.Time) error
	Applications(ctx context.Context, f Filter) ([]*Application, int, error)
	Statistics(ctx context.Context, jobPostID int) (Statistics, error)
}

type Notifier interface {
	NotifyApplicationSubmitted(ctx context.Context, c email.Confirmation) email.Outcome
}

// Service runs the application lifecycle: eligibility, persistence,
// confirmation and status changes.
type Service struct {
	jobPosts JobPostFinder
	store    Store
	notifier Notifier
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(jobPosts JobPostFinder, store Store, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		jobPosts: jobPosts,
		store:    store,
		notifier: notifier,
		log:      log,
		now:      time.Now,
	}
}

// Submit creates an application in the applied status and sends the
// applicant a confirmation. A missing job post yields ErrJobPostNotFound,
// a closed one the eligibility rejection unchanged. The confirmation
// outcome never changes the result.
func (s *Service) Submit(ctx context.Context, rq SubmitRq) (*Application, error) {
	post, err := s.jobPosts.JobPostByID(ctx, rq.JobPostID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	if err := post.AcceptingApplications(now); err != nil {
		return nil, err
	}
	rq.Normalize()
	app := &Application{
		JobPostID:      post.ID,
		FullName:       rq.FullName,
		PhoneNumber:    rq.PhoneNumber,
		Email:          rq.Email,
		WorkExperience: rq.WorkExperience,
		Status:         StatusApplied,
		CreatedAt:      now,
		UpdatedAt:      now,
		JobPost:        post.Summary(),
	}
	if err := s.store.CreateApplication(ctx, app); err != nil {
		return nil, errors.Wrap(err, "unable to save job application")
	}
	outcome := s.notifier.NotifyApplicationSubmitted(ctx, email.Confirmation{
		ApplicationID: app.ID,
		To:            app.Email,
		ApplicantName: app.FullName,
		JobTitle:      post.Title,
		Company:       post.Company,
		SubmittedAt:   app.CreatedAt,
	})
	s.log.Info().
		Int("application_id", app.ID).
		Int("job_post_id", app.JobPostID).
		Str("confirmation", outcome.String()).
		Msg("job application submitted")
	return app, nil
}

// UpdateStatus moves an application to proposed. Applications in a
// terminal status are left untouched and ErrTransitionNotAllowed is
// returned.
func (s *Service) UpdateStatus(ctx context.Context, id int, proposed Status) (*Application, error) {
	if !proposed.IsValid() {
		return nil, errors.Wrapf(ErrInvalidStatus, "unknown status %q", proposed)
	}
	app, err := s.store.ApplicationByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(app.Status, proposed) {
		return nil, errors.Wrapf(ErrTransitionNotAllowed, "application %d is %s", id, app.Status)
	}
	if err := s.store.UpdateApplicationStatus(ctx, id, proposed, s.now()); err != nil {
		return nil, err
	}
	s.log.Info().
		Int("application_id", id).
		Str("from", string(app.Status)).
		Str("to", string(proposed)).
		Msg("job application status updated")
	return s.store.ApplicationByID(ctx, id)
}

func (s *Service) Get(ctx context.Context, id int) (*Application, error) {
	return s.store.ApplicationByID(ctx, id)
}

// List returns a page of applications and the number of matches. Zero
// page and per page fall back to the first page of DefaultPerPage.
func (s *Service) List(ctx context.Context, f Filter) ([]*Application, int, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = DefaultPerPage
	}
	if f.PerPage > MaxPerPage {
		f.PerPage = MaxPerPage
	}
	if f.Status != "" && !f.Status.IsValid() {
		return nil, 0, errors.Wrapf(ErrInvalidStatus, "unknown status %q", f.Status)
	}
	return s.store.Applications(ctx, f)
}

// Statistics counts applications per status, every status included. A
// zero jobPostID counts across all job posts.
func (s *Service) Statistics(ctx context.Context, jobPostID int) (Statistics, error) {
	stats, err := s.store.Statistics(ctx, jobPostID)
	if err != nil {
		return stats, err
	}
	if stats.ByStatus == nil {
		stats.ByStatus = map[Status]int{}
	}
	for _, st := range statuses {
		if _, ok := stats.ByStatus[st]; !ok {
			stats.ByStatus[st] = 0
		}
	}
	return stats, nil
}
