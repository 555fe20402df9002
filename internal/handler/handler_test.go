package handler

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/hiringboard/job-board/internal/application"
	"github.com/hiringboard/job-board/internal/config"
	"github.com/hiringboard/job-board/internal/email"
	"github.com/hiringboard/job-board/internal/jobpost"
	"github.com/hiringboard/job-board/internal/server"
	"github.com/hiringboard/job-board/internal/template"
	"github.com/hiringboard/job-board/internal/validation"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memJobPosts struct {
	mu    sync.Mutex
	posts map[int]*jobpost.JobPost
	next  int
}

func (m *memJobPosts) SaveJobPost(_ context.Context, p *jobpost.JobPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	p.ID = m.next
	m.posts[p.ID] = p
	return nil
}

func (m *memJobPosts) JobPostByID(_ context.Context, id int) (*jobpost.JobPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, errors.Wrapf(jobpost.ErrJobPostNotFound, "job post %d", id)
	}
	return p, nil
}

func (m *memJobPosts) sorted() []*jobpost.JobPost {
	out := []*jobpost.JobPost{}
	for _, p := range m.posts {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memJobPosts) JobPosts(_ context.Context, page, perPage int) ([]*jobpost.JobPost, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	all := m.sorted()
	start := (page - 1) * perPage
	if start > len(all) {
		start = len(all)
	}
	end := start + perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], len(all), nil
}

func (m *memJobPosts) ActiveJobPosts(_ context.Context, limit int) ([]*jobpost.JobPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*jobpost.JobPost{}
	for _, p := range m.sorted() {
		if p.IsActive && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memJobPosts) Summaries(_ context.Context) ([]jobpost.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []jobpost.Summary{}
	for _, p := range m.sorted() {
		out = append(out, p.Summary())
	}
	return out, nil
}

type memApplications struct {
	mu    sync.Mutex
	posts *memJobPosts
	apps  map[int]*application.Application
	next  int
}

func (m *memApplications) CreateApplication(_ context.Context, app *application.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	app.ID = m.next
	cp := *app
	m.apps[app.ID] = &cp
	return nil
}

func (m *memApplications) ApplicationByID(ctx context.Context, id int) (*application.Application, error) {
	m.mu.Lock()
	app, ok := m.apps[id]
	m.mu.Unlock()
	if !ok {
		return nil, errors.Wrapf(application.ErrApplicationNotFound, "job application %d", id)
	}
	cp := *app
	if p, err := m.posts.JobPostByID(ctx, app.JobPostID); err == nil {
		cp.JobPost = p.Summary()
	}
	return &cp, nil
}

func (m *memApplications) UpdateApplicationStatus(_ context.Context, id int, status application.Status, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	app, ok := m.apps[id]
	if !ok {
		return application.ErrApplicationNotFound
	}
	if app.Status.IsTerminal() {
		return application.ErrTransitionNotAllowed
	}
	app.Status = status
	app.UpdatedAt = updatedAt
	return nil
}

func (m *memApplications) Applications(ctx context.Context, f application.Filter) ([]*application.Application, int, error) {
	m.mu.Lock()
	ids := []int{}
	for id, a := range m.apps {
		if f.Status != "" && a.Status != f.Status {
			continue
		}
		if f.JobPostID != 0 && a.JobPostID != f.JobPostID {
			continue
		}
		ids = append(ids, id)
	}
	m.mu.Unlock()
	sort.Sort(sort.Reverse(sort.IntSlice(ids)))
	total := len(ids)
	start := (f.Page - 1) * f.PerPage
	if start > total {
		start = total
	}
	end := start + f.PerPage
	if end > total {
		end = total
	}
	out := []*application.Application{}
	for _, id := range ids[start:end] {
		app, _ := m.ApplicationByID(ctx, id)
		out = append(out, app)
	}
	return out, total, nil
}

func (m *memApplications) Statistics(_ context.Context, jobPostID int) (application.Statistics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := application.Statistics{ByStatus: map[application.Status]int{}}
	for _, a := range m.apps {
		if jobPostID != 0 && a.JobPostID != jobPostID {
			continue
		}
		stats.ByStatus[a.Status]++
		stats.Total++
	}
	return stats, nil
}

type testEnv struct {
	handler  http.Handler
	posts    *memJobPosts
	apps     *memApplications
	mailbox  *email.MemoryMailbox
	notifier *email.Notifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	cfg := config.Config{
		Env:                 "dev",
		SiteName:            "Hiring Board",
		SiteHost:            "jobs.test",
		URLProtocol:         "https://",
		NoReplyEmail:        "no-reply@jobs.test",
		JobPostsPerPage:     15,
		ApplicationsPerPage: 10,
	}
	log := zerolog.New(ioutil.Discard)
	svr := server.NewServer(
		cfg,
		mux.NewRouter(),
		template.NewTemplate(),
		sessions.NewCookieStore([]byte("0123456789abcdef0123456789abcdef")),
		log,
	)
	posts := &memJobPosts{posts: map[int]*jobpost.JobPost{}}
	apps := &memApplications{posts: posts, apps: map[int]*application.Application{}}
	mailbox := email.NewMemoryMailbox()
	notifier := email.NewNotifier(nil, mailbox, email.NotifierOptions{MockMode: true}, log)
	svc := application.NewService(posts, apps, notifier, log)
	RegisterRoutes(svr, validation.New(), posts, svc)

	future := time.Now().UTC().AddDate(0, 1, 0).Truncate(24 * time.Hour)
	salary := 60000.0
	now := time.Now()
	posts.SaveJobPost(context.Background(), &jobpost.JobPost{
		Title: "Software Engineer", Description: "Write **Go**", Company: "Tech Corp", Location: "Remote",
		JobType: "Full-time", Salary: &salary, ContactEmail: "jobs@tech.test", Skills: []string{"Go", "SQL"},
		ApplicationDeadline: &future, IsActive: true, Slug: "software-engineer-tech-corp", CreatedAt: now, UpdatedAt: now,
	})
	posts.SaveJobPost(context.Background(), &jobpost.JobPost{
		Title: "Designer", Description: "Design", Company: "Closed Inc", Location: "Berlin",
		JobType: "Contract", ContactEmail: "jobs@closed.test", IsActive: false, Slug: "designer-closed-inc",
		CreatedAt: now, UpdatedAt: now,
	})
	return &testEnv{handler: svr.Handler(), posts: posts, apps: apps, mailbox: mailbox, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	out := map[string]interface{}{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

const submitBody = `{"job_post_id": 1, "full_name": "John Doe", "phone_number": "+1 (555) 123-4567", "email": "john@example.com", "work_experience": "5 years of Go"}`

func TestSubmitApplication(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, http.MethodPost, "/job-applications", submitBody)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, true, out["success"])
	assert.Equal(t, "Your job application has been submitted successfully", out["message"])
	data := out["data"].(map[string]interface{})
	assert.Equal(t, "applied", data["status"])
	assert.Equal(t, "Software Engineer", data["job_title"])
	assert.Equal(t, "Tech Corp", data["company"])

	records, err := env.mailbox.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "john@example.com", records[0].To)
	assert.Equal(t, "John Doe", records[0].ApplicantName)
	assert.Equal(t, "Software Engineer", records[0].JobTitle)
	assert.Equal(t, "Tech Corp", records[0].Company)
	assert.Equal(t, email.RecordTypeApplicationConfirmation, records[0].Type)
}

func TestSubmitApplication_WithoutEmail(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, http.MethodPost, "/job-applications", `{"job_post_id": 1, "full_name": "Jane", "phone_number": "555 0100", "work_experience": "none"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, hasEmail := out["data"].(map[string]interface{})["email"]
	assert.False(t, hasEmail)

	records, _ := env.mailbox.All(context.Background())
	assert.Empty(t, records)
	assert.Len(t, env.apps.apps, 1)
}

func TestSubmitApplication_BlankEmailIsAbsent(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, http.MethodPost, "/job-applications", strings.Replace(submitBody, `"john@example.com"`, `"   "`, 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	_, hasEmail := out["data"].(map[string]interface{})["email"]
	assert.False(t, hasEmail)

	records, _ := env.mailbox.All(context.Background())
	assert.Empty(t, records)
	require.Len(t, env.apps.apps, 1)
	assert.Empty(t, env.apps.apps[1].Email)
}

func TestSubmitApplication_BlankRequiredFields(t *testing.T) {
	tests := []struct {
		field string
		value string
	}{
		{"full_name", `"John Doe"`},
		{"phone_number", `"+1 (555) 123-4567"`},
		{"work_experience", `"5 years of Go"`},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			env := newTestEnv(t)
			body := strings.Replace(submitBody, `"`+tt.field+`": `+tt.value, `"`+tt.field+`": "   "`, 1)
			require.NotEqual(t, submitBody, body)

			rec, out := env.do(t, http.MethodPost, "/job-applications", body)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			errs := out["errors"].(map[string]interface{})
			assert.Contains(t, errs, tt.field)
			assert.Empty(t, env.apps.apps)
		})
	}
}

func TestSubmitApplication_TrimsFields(t *testing.T) {
	env := newTestEnv(t)

	body := `{"job_post_id": 1, "full_name": "  Jane Roe ", "phone_number": " 555 0100 ", "email": " jane@example.com ", "work_experience": " Go "}`
	rec, _ := env.do(t, http.MethodPost, "/job-applications", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	app := env.apps.apps[1]
	assert.Equal(t, "Jane Roe", app.FullName)
	assert.Equal(t, "555 0100", app.PhoneNumber)
	assert.Equal(t, "jane@example.com", app.Email)
	assert.Equal(t, "Go", app.WorkExperience)
}

func TestSubmitApplication_Rejected(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, http.MethodPost, "/job-applications", strings.Replace(submitBody, `"job_post_id": 1`, `"job_post_id": 2`, 1))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, "This job post is no longer accepting applications", out["message"])
	assert.Empty(t, env.apps.apps)

	rec, out = env.do(t, http.MethodPost, "/job-applications", strings.Replace(submitBody, `"job_post_id": 1`, `"job_post_id": 99`, 1))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job post not found", out["message"])

	rec, out = env.do(t, http.MethodPost, "/job-applications", strings.Replace(submitBody, "+1 (555) 123-4567", "call me", 1))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := out["errors"].(map[string]interface{})
	assert.Contains(t, errs, "phone_number")

	rec, _ = env.do(t, http.MethodPost, "/job-applications", `{"job_post_id": `)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	assert.Empty(t, env.apps.apps)
	records, _ := env.mailbox.All(context.Background())
	assert.Empty(t, records)
}

func TestUpdateApplicationStatus(t *testing.T) {
	env := newTestEnv(t)
	rec, _ := env.do(t, http.MethodPost, "/job-applications", submitBody)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, out := env.do(t, http.MethodPatch, "/job-applications/1/status", `{"status": "interview"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "interview", out["data"].(map[string]interface{})["status"])

	rec, _ = env.do(t, http.MethodPatch, "/job-applications/1/status", `{"status": "hired"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, _ = env.do(t, http.MethodPatch, "/job-applications/1/status", `{"status": "failed"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, out = env.do(t, http.MethodPatch, "/job-applications/1/status", `{"status": "screening"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, false, out["success"])
	assert.Equal(t, application.StatusFailed, env.apps.apps[1].Status)

	rec, _ = env.do(t, http.MethodPatch, "/job-applications/42/status", `{"status": "offer"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListApplications(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 3; i++ {
		rec, _ := env.do(t, http.MethodPost, "/job-applications", submitBody)
		require.Equal(t, http.StatusCreated, rec.Code)
	}
	env.do(t, http.MethodPatch, "/job-applications/2/status", `{"status": "offer"}`)

	rec, out := env.do(t, http.MethodGet, "/job-applications?per_page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, out["data"], 2)
	meta := out["meta"].(map[string]interface{})
	assert.Equal(t, float64(3), meta["total"])
	assert.Equal(t, float64(2), meta["last_page"])
	assert.Equal(t, float64(1), meta["current_page"])

	rec, out = env.do(t, http.MethodGet, "/job-applications?status=offer&job_post_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := out["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, float64(2), data[0].(map[string]interface{})["id"])

	rec, out = env.do(t, http.MethodGet, "/job-applications?per_page=101&status=hired&page=x", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := out["errors"].(map[string]interface{})
	assert.Contains(t, errs, "per_page")
	assert.Contains(t, errs, "status")
	assert.Contains(t, errs, "page")

	rec, out = env.do(t, http.MethodGet, "/job-applications/3", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Software Engineer", out["data"].(map[string]interface{})["job_title"])

	rec, out = env.do(t, http.MethodGet, "/job-applications/404", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job application not found", out["message"])
}

func TestApplicationStatistics(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/job-applications", submitBody)
	env.do(t, http.MethodPost, "/job-applications", submitBody)
	env.do(t, http.MethodPatch, "/job-applications/1/status", `{"status": "accepted"}`)

	rec, out := env.do(t, http.MethodGet, "/job-applications/statistics?job_post_id=1", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := out["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])
	byStatus := data["by_status"].(map[string]interface{})
	assert.Equal(t, float64(1), byStatus["applied"])
	assert.Equal(t, float64(1), byStatus["accepted"])
	assert.Equal(t, float64(0), byStatus["interview"])
}

func TestCreateJobPost(t *testing.T) {
	env := newTestEnv(t)
	deadline := time.Now().UTC().AddDate(0, 2, 0).Format(jobpost.DeadlineLayout)
	body := `{"title": "Backend Engineer", "description": "Build APIs", "company": "Acme", "location": "Remote",
		"job_type": "Full-time", "salary": 75000, "contact_email": "jobs@acme.test", "skills": "Go, SQL, Go, ",
		"application_deadline": "` + deadline + `"}`

	rec, out := env.do(t, http.MethodPost, "/job-posts", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	data := out["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["id"])
	assert.Equal(t, []interface{}{"Go", "SQL"}, data["skills"])
	assert.Equal(t, "75000.00", data["salary"])
	assert.Equal(t, deadline, data["application_deadline"])
	assert.Equal(t, true, data["is_active"])

	rec, out = env.do(t, http.MethodPost, "/job-posts", `{"title": "   ", "contact_email": "nope", "application_deadline": "2001-01-01"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	errs := out["errors"].(map[string]interface{})
	assert.Equal(t, "The job title is required", errs["title"])
	assert.Equal(t, "Please provide a valid email address", errs["contact_email"])
	assert.Equal(t, "The application deadline must be today or a future date", errs["application_deadline"])
}

func TestJobPosts(t *testing.T) {
	env := newTestEnv(t)

	rec, out := env.do(t, http.MethodGet, "/job-posts?per_page=1&page=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := out["data"].([]interface{})
	require.Len(t, data, 1)
	assert.Equal(t, "Designer", data[0].(map[string]interface{})["title"])
	assert.Equal(t, float64(2), out["meta"].(map[string]interface{})["last_page"])

	rec, _ = env.do(t, http.MethodGet, "/job-posts?per_page=0", "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec, out = env.do(t, http.MethodGet, "/job-posts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Software Engineer", out["data"].(map[string]interface{})["title"])

	// served from the cache once fetched
	delete(env.posts.posts, 1)
	rec, out = env.do(t, http.MethodGet, "/job-posts/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Software Engineer", out["data"].(map[string]interface{})["title"])

	rec, out = env.do(t, http.MethodGet, "/job-posts/77", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Job post not found", out["message"])
}

func TestAdminPages(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/job-applications", submitBody)

	rec, _ := env.do(t, http.MethodGet, "/?status=applied", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "John Doe")
	assert.Contains(t, rec.Body.String(), "Software Engineer")

	rec, _ = env.do(t, http.MethodGet, "/applications/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Application #1")
	assert.Contains(t, rec.Body.String(), "<p>5 years of Go</p>")

	form := url.Values{"status": {"interview"}}
	req := httptest.NewRequest(http.MethodPost, "/applications/1/status", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/applications/1", rec.Header().Get("Location"))
	assert.Equal(t, application.StatusInterview, env.apps.apps[1].Status)

	req = httptest.NewRequest(http.MethodGet, "/applications/1", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Application status updated successfully.")

	rec, _ = env.do(t, http.MethodGet, "/applications/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFeeds(t *testing.T) {
	env := newTestEnv(t)
	today := time.Now().UTC().Truncate(24 * time.Hour)
	now := time.Now()
	env.posts.SaveJobPost(context.Background(), &jobpost.JobPost{
		Title: "Closing Today", Description: "Last call", Company: "Late Ltd", Location: "Lisbon",
		JobType: "Full-time", ContactEmail: "jobs@late.test", ApplicationDeadline: &today, IsActive: true,
		Slug: "closing-today-late-ltd", CreatedAt: now, UpdatedAt: now,
	})

	rec, _ := env.do(t, http.MethodGet, "/job-posts/feed.rss", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Software Engineer with Tech Corp - Remote")
	assert.NotContains(t, rec.Body.String(), "Designer")
	assert.NotContains(t, rec.Body.String(), "Closing Today")

	rec, _ = env.do(t, http.MethodGet, "/sitemap.xml", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "https://jobs.test/job-posts/1")
	assert.NotContains(t, rec.Body.String(), "https://jobs.test/job-posts/2")
	assert.NotContains(t, rec.Body.String(), "https://jobs.test/job-posts/3")
}
