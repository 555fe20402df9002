package jobpost

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"github.com/pkg/errors"
)

const DeadlineLayout = "2006-01-02"

var ErrJobPostNotFound = errors.New("job post not found")

type JobPost struct {
	ID                  int
	Title               string
	Description         string
	Company             string
	Location            string
	JobType             string
	Salary              *float64
	ContactEmail        string
	Skills              []string
	ApplicationDeadline *time.Time
	IsActive            bool
	Slug                string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// Summary is the part of a job post that travels with its applications.
type Summary struct {
	ID       int
	Title    string
	Company  string
	Location string
}

// JobPostRq is the body of POST /job-posts.
type JobPostRq struct {
	Title               string      `json:"title" validate:"required,max=255"`
	Description         string      `json:"description" validate:"required"`
	Company             string      `json:"company" validate:"required,max=255"`
	Location            string      `json:"location" validate:"required,max=255"`
	JobType             string      `json:"job_type" validate:"required,max=50"`
	Salary              *float64    `json:"salary" validate:"omitempty,min=0"`
	ContactEmail        string      `json:"contact_email" validate:"required,email,max=255"`
	Skills              SkillsInput `json:"skills" validate:"omitempty,dive,max=100"`
	ApplicationDeadline string      `json:"application_deadline" validate:"omitempty,datetime=2006-01-02,notpast"`
	IsActive            *bool       `json:"is_active"`
}

// Normalize trims the text fields before validation.
func (rq *JobPostRq) Normalize() {
	rq.Title = strings.TrimSpace(rq.Title)
	rq.Description = strings.TrimSpace(rq.Description)
	rq.Company = strings.TrimSpace(rq.Company)
	rq.Location = strings.TrimSpace(rq.Location)
	rq.JobType = strings.TrimSpace(rq.JobType)
	rq.ContactEmail = strings.TrimSpace(rq.ContactEmail)
	rq.ApplicationDeadline = strings.TrimSpace(rq.ApplicationDeadline)
}

// SkillsInput accepts either a JSON array of strings or a single comma
// separated string.
type SkillsInput []string

func (s *SkillsInput) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil, string, []interface{}:
		*s = SkillsInput(NormalizeSkills(v))
		return nil
	default:
		return errors.New("skills must be a string or a list of strings")
	}
}

// NewJobPost builds the job post to persist from a validated request.
func NewJobPost(rq JobPostRq, now time.Time) (*JobPost, error) {
	post := &JobPost{
		Title:        bluemonday.StrictPolicy().Sanitize(rq.Title),
		Description:  rq.Description,
		Company:      bluemonday.StrictPolicy().Sanitize(rq.Company),
		Location:     bluemonday.StrictPolicy().Sanitize(rq.Location),
		JobType:      rq.JobType,
		Salary:       rq.Salary,
		ContactEmail: rq.ContactEmail,
		Skills:       NormalizeSkills([]string(rq.Skills)),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if rq.IsActive != nil {
		post.IsActive = *rq.IsActive
	}
	if rq.ApplicationDeadline != "" {
		deadline, err := time.Parse(DeadlineLayout, rq.ApplicationDeadline)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid application deadline %q", rq.ApplicationDeadline)
		}
		post.ApplicationDeadline = &deadline
	}
	post.Slug = slug.Make(fmt.Sprintf("%s %s %d", post.Title, post.Company, now.Unix()))
	return post, nil
}

func (p *JobPost) Summary() Summary {
	return Summary{ID: p.ID, Title: p.Title, Company: p.Company, Location: p.Location}
}

// AcceptingApplications reports whether the post takes new applications at now.
func (p *JobPost) AcceptingApplications(now time.Time) error {
	return CheckEligibility(p.IsActive, p.ApplicationDeadline, now)
}

type Resource struct {
	ID                  int      `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Company             string   `json:"company"`
	Location            string   `json:"location"`
	JobType             string   `json:"job_type"`
	Salary              string   `json:"salary,omitempty"`
	ContactEmail        string   `json:"contact_email"`
	Skills              []string `json:"skills,omitempty"`
	ApplicationDeadline string   `json:"application_deadline,omitempty"`
	IsActive            bool     `json:"is_active"`
	Slug                string   `json:"slug"`
	CreatedAt           string   `json:"created_at"`
	UpdatedAt           string   `json:"updated_at"`
}

const TimestampLayout = "2006-01-02 15:04:05"

func (p *JobPost) Resource() Resource {
	res := Resource{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Company:      p.Company,
		Location:     p.Location,
		JobType:      p.JobType,
		ContactEmail: p.ContactEmail,
		Skills:       p.Skills,
		IsActive:     p.IsActive,
		Slug:         p.Slug,
		CreatedAt:    p.CreatedAt.Format(TimestampLayout),
		UpdatedAt:    p.UpdatedAt.Format(TimestampLayout),
	}
	if p.Salary != nil {
		res.Salary = fmt.Sprintf("%.2f", *p.Salary)
	}
	if p.ApplicationDeadline != nil {
		res.ApplicationDeadline = p.ApplicationDeadline.Format(DeadlineLayout)
	}
	return res
}
