package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/hiringboard/job-board/internal/application"
	"github.com/hiringboard/job-board/internal/jobpost"
	"github.com/hiringboard/job-board/internal/server"
	"github.com/hiringboard/job-board/internal/validation"
	"github.com/pkg/errors"
)

const maxBodyBytes = 1 << 20

// envelope is the shape of every JSON API response.
type envelope struct {
	Success bool              `json:"success"`
	Data    interface{}       `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
	Meta    *pageMeta         `json:"meta,omitempty"`
}

type pageMeta struct {
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
	Total       int `json:"total"`
	LastPage    int `json:"last_page"`
}

func newPageMeta(page, perPage, total int) *pageMeta {
	last := (total + perPage - 1) / perPage
	if last < 1 {
		last = 1
	}
	return &pageMeta{CurrentPage: page, PerPage: perPage, Total: total, LastPage: last}
}

type JobPostStore interface {
	SaveJobPost(ctx context.Context, post *jobpost.JobPost) error
	JobPostByID(ctx context.Context, id int) (*jobpost.JobPost, error)
	JobPosts(ctx context.Context, page, perPage int) ([]*jobpost.JobPost, int, error)
	ActiveJobPosts(ctx context.Context, limit int) ([]*jobpost.JobPost, error)
	Summaries(ctx context.Context) ([]jobpost.Summary, error)
}

type ApplicationService interface {
	Submit(ctx context.Context, rq application.SubmitRq) (*application.Application, error)
	UpdateStatus(ctx context.Context, id int, proposed application.Status) (*application.Application, error)
	Get(ctx context.Context, id int) (*application.Application, error)
	List(ctx context.Context, f application.Filter) ([]*application.Application, int, error)
	Statistics(ctx context.Context, jobPostID int) (application.Statistics, error)
}

func validationFailed(svr server.Server, w http.ResponseWriter, errs map[string]string) {
	svr.JSON(w, http.StatusUnprocessableEntity, envelope{
		Message: "The given data was invalid.",
		Errors:  errs,
	})
}

// decodeBody reads a JSON request body into dst. It reports false after
// writing the error response.
func decodeBody(svr server.Server, w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		validationFailed(svr, w, map[string]string{"body": fmt.Sprintf("The request body is not valid JSON: %v", err)})
		return false
	}
	return true
}

// validRequest validates rq and reports false after writing a 422.
func validRequest(svr server.Server, w http.ResponseWriter, v *validation.Validator, rq interface{}) bool {
	errs, err := v.Struct(rq)
	if err != nil {
		svr.Log(err, "unable to validate request")
		svr.JSON(w, http.StatusInternalServerError, envelope{Message: "Unable to validate request", Error: err.Error()})
		return false
	}
	if len(errs) > 0 {
		validationFailed(svr, w, errs)
		return false
	}
	return true
}

// queryInt parses an optional positive integer query parameter against
// tag. Failures are added to errs.
func queryInt(v *validation.Validator, r *http.Request, name string, fallback int, tag string, errs map[string]string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		errs[name] = fmt.Sprintf("The %s must be an integer.", name)
		return fallback
	}
	if msg := v.Var(name, n, tag); msg != "" {
		errs[name] = msg
		return fallback
	}
	return n
}

// respondError maps domain errors to status codes. Anything unexpected is
// logged and reported as a 500 with fallback as message.
func respondError(svr server.Server, w http.ResponseWriter, err error, fallback string) {
	if jobpost.IsRejection(err) {
		svr.JSON(w, http.StatusUnprocessableEntity, envelope{Message: errors.Cause(err).Error()})
		return
	}
	switch errors.Cause(err) {
	case jobpost.ErrJobPostNotFound:
		svr.JSON(w, http.StatusNotFound, envelope{Message: "Job post not found", Error: err.Error()})
	case application.ErrApplicationNotFound:
		svr.JSON(w, http.StatusNotFound, envelope{Message: "Job application not found", Error: err.Error()})
	case application.ErrTransitionNotAllowed:
		svr.JSON(w, http.StatusUnprocessableEntity, envelope{Message: "This application has reached a final status and can no longer be updated", Error: err.Error()})
	case application.ErrInvalidStatus:
		validationFailed(svr, w, map[string]string{"status": "The selected status is invalid"})
	default:
		svr.Log(err, fallback)
		svr.JSON(w, http.StatusInternalServerError, envelope{Message: fallback, Error: err.Error()})
	}
}

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid id %q", mux.Vars(r)["id"])
	}
	return id, nil
}

func CreateJobPostHandler(svr server.Server, v *validation.Validator, repo JobPostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rq jobpost.JobPostRq
		if !decodeBody(svr, w, r, &rq) {
			return
		}
		rq.Normalize()
		if !validRequest(svr, w, v, rq) {
			return
		}
		post, err := jobpost.NewJobPost(rq, time.Now())
		if err != nil {
			validationFailed(svr, w, map[string]string{"application_deadline": "The application deadline is not a valid date"})
			return
		}
		if err := repo.SaveJobPost(r.Context(), post); err != nil {
			respondError(svr, w, err, "Failed to create job post")
			return
		}
		svr.CacheDelete(server.CacheKeyRSSFeed)
		svr.CacheDelete(server.CacheKeySitemap)
		svr.JSON(w, http.StatusCreated, envelope{
			Success: true,
			Data:    post.Resource(),
			Message: "Job post created successfully",
		})
	}
}

func JobPostsHandler(svr server.Server, v *validation.Validator, repo JobPostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errs := map[string]string{}
		page := queryInt(v, r, "page", 1, "min=1", errs)
		perPage := queryInt(v, r, "per_page", svr.GetConfig().JobPostsPerPage, "min=1,max=100", errs)
		if len(errs) > 0 {
			validationFailed(svr, w, errs)
			return
		}
		posts, total, err := repo.JobPosts(r.Context(), page, perPage)
		if err != nil {
			respondError(svr, w, err, "Failed to retrieve job posts")
			return
		}
		data := make([]jobpost.Resource, 0, len(posts))
		for _, p := range posts {
			data = append(data, p.Resource())
		}
		svr.JSON(w, http.StatusOK, envelope{
			Success: true,
			Data:    data,
			Meta:    newPageMeta(page, perPage, total),
		})
	}
}

// JobPostHandler serves a single job post. Job posts do not change once
// created so the encoded response is cached.
func JobPostHandler(svr server.Server, repo JobPostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			svr.JSON(w, http.StatusNotFound, envelope{Message: "Job post not found", Error: err.Error()})
			return
		}
		cacheKey := server.CacheKeyJobPostPrefix + strconv.Itoa(id)
		if cached, ok := svr.CacheGet(cacheKey); ok {
			svr.JSONBytes(w, http.StatusOK, cached)
			return
		}
		post, err := repo.JobPostByID(r.Context(), id)
		if err != nil {
			respondError(svr, w, err, "Failed to retrieve job post")
			return
		}
		body, err := json.Marshal(envelope{Success: true, Data: post.Resource()})
		if err != nil {
			respondError(svr, w, err, "Failed to retrieve job post")
			return
		}
		if err := svr.CacheSet(cacheKey, body); err != nil {
			svr.Log(err, fmt.Sprintf("unable to cache job post %d", id))
		}
		svr.JSONBytes(w, http.StatusOK, body)
	}
}

func SubmitApplicationHandler(svr server.Server, v *validation.Validator, svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var rq application.SubmitRq
		if !decodeBody(svr, w, r, &rq) {
			return
		}
		rq.Normalize()
		if !validRequest(svr, w, v, rq) {
			return
		}
		app, err := svc.Submit(r.Context(), rq)
		if err != nil {
			respondError(svr, w, err, "Failed to submit job application")
			return
		}
		svr.JSON(w, http.StatusCreated, envelope{
			Success: true,
			Data:    app.Resource(),
			Message: "Your job application has been submitted successfully",
		})
	}
}

func ApplicationsHandler(svr server.Server, v *validation.Validator, svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errs := map[string]string{}
		f := application.Filter{
			Page:      queryInt(v, r, "page", 1, "min=1", errs),
			PerPage:   queryInt(v, r, "per_page", application.DefaultPerPage, "min=1,max=100", errs),
			JobPostID: queryInt(v, r, "job_post_id", 0, "min=1", errs),
		}
		if raw := r.URL.Query().Get("status"); raw != "" {
			st, err := application.ParseStatus(raw)
			if err != nil {
				errs["status"] = "The selected status is invalid"
			}
			f.Status = st
		}
		if len(errs) > 0 {
			validationFailed(svr, w, errs)
			return
		}
		apps, total, err := svc.List(r.Context(), f)
		if err != nil {
			respondError(svr, w, err, "Failed to retrieve job applications")
			return
		}
		data := make([]application.Resource, 0, len(apps))
		for _, a := range apps {
			data = append(data, a.Resource())
		}
		svr.JSON(w, http.StatusOK, envelope{
			Success: true,
			Data:    data,
			Meta:    newPageMeta(f.Page, f.PerPage, total),
		})
	}
}

func ApplicationHandler(svr server.Server, svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			svr.JSON(w, http.StatusNotFound, envelope{Message: "Job application not found", Error: err.Error()})
			return
		}
		app, err := svc.Get(r.Context(), id)
		if err != nil {
			respondError(svr, w, err, "Failed to retrieve job application")
			return
		}
		svr.JSON(w, http.StatusOK, envelope{Success: true, Data: app.Resource()})
	}
}

func UpdateApplicationStatusHandler(svr server.Server, v *validation.Validator, svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			svr.JSON(w, http.StatusNotFound, envelope{Message: "Job application not found", Error: err.Error()})
			return
		}
		var rq application.StatusRq
		if !decodeBody(svr, w, r, &rq) {
			return
		}
		if !validRequest(svr, w, v, rq) {
			return
		}
		app, err := svc.UpdateStatus(r.Context(), id, application.Status(rq.Status))
		if err != nil {
			respondError(svr, w, err, "Failed to update job application status")
			return
		}
		svr.JSON(w, http.StatusOK, envelope{
			Success: true,
			Data:    app.Resource(),
			Message: "Application status updated successfully",
		})
	}
}

func ApplicationStatisticsHandler(svr server.Server, v *validation.Validator, svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		errs := map[string]string{}
		jobPostID := queryInt(v, r, "job_post_id", 0, "min=1", errs)
		if len(errs) > 0 {
			validationFailed(svr, w, errs)
			return
		}
		stats, err := svc.Statistics(r.Context(), jobPostID)
		if err != nil {
			respondError(svr, w, err, "Failed to retrieve job application statistics")
			return
		}
		svr.JSON(w, http.StatusOK, envelope{Success: true, Data: stats})
	}
}
