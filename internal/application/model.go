package application

import (
	"strings"
	"time"

	"github.com/hiringboard/job-board/internal/jobpost"
	"github.com/pkg/errors"
)

var ErrApplicationNotFound = errors.New("job application not found")

type Application struct {
	ID             int
	JobPostID      int
	FullName       string
	PhoneNumber    string
	Email          string // empty when the applicant left no address
	WorkExperience string
	Status         Status
	CreatedAt      time.Time
	UpdatedAt      time.Time

	JobPost jobpost.Summary
}

// SubmitRq is the body of POST /job-applications.
type SubmitRq struct {
	JobPostID      int    `json:"job_post_id" validate:"required,min=1"`
	FullName       string `json:"full_name" validate:"required,max=255"`
	PhoneNumber    string `json:"phone_number" validate:"required,phone,max=20"`
	Email          string `json:"email" validate:"omitempty,email,max=255"`
	WorkExperience string `json:"work_experience" validate:"required,max=1000"`
}

// Normalize trims every text field so blank input fails the required
// rules and a blank email counts as absent.
func (rq *SubmitRq) Normalize() {
	rq.FullName = strings.TrimSpace(rq.FullName)
	rq.PhoneNumber = strings.TrimSpace(rq.PhoneNumber)
	rq.Email = strings.TrimSpace(rq.Email)
	rq.WorkExperience = strings.TrimSpace(rq.WorkExperience)
}

// StatusRq is the body of PATCH /job-applications/{id}/status.
type StatusRq struct {
	Status string `json:"status" validate:"required,oneof=applied screening interview offer accepted failed"`
}

type Filter struct {
	Page      int
	PerPage   int
	Status    Status
	JobPostID int
}

type Statistics struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"by_status"`
}

type Resource struct {
	ID             int    `json:"id"`
	JobPostID      int    `json:"job_post_id"`
	JobTitle       string `json:"job_title,omitempty"`
	Company        string `json:"company,omitempty"`
	FullName       string `json:"full_name"`
	PhoneNumber    string `json:"phone_number"`
	Email          string `json:"email,omitempty"`
	WorkExperience string `json:"work_experience"`
	Status         Status `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func (a *Application) Resource() Resource {
	return Resource{
		ID:             a.ID,
		JobPostID:      a.JobPostID,
		JobTitle:       a.JobPost.Title,
		Company:        a.JobPost.Company,
		FullName:       a.FullName,
		PhoneNumber:    a.PhoneNumber,
		Email:          a.Email,
		WorkExperience: a.WorkExperience,
		Status:         a.Status,
		CreatedAt:      a.CreatedAt.Format(jobpost.TimestampLayout),
		UpdatedAt:      a.UpdatedAt.Format(jobpost.TimestampLayout),
	}
}
