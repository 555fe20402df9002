package handler

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hiringboard/job-board/internal/application"
	"github.com/hiringboard/job-board/internal/server"
	"github.com/pkg/errors"
)

// ApplicationsPageHandler renders the admin list of applications, newest
// first, filtered by job post and status. Unknown filter values are
// ignored.
func ApplicationsPageHandler(svr server.Server, svc ApplicationService, repo JobPostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := application.Filter{Page: 1, PerPage: svr.GetConfig().ApplicationsPerPage}
		if p, err := strconv.Atoi(q.Get("page")); err == nil && p > 0 {
			f.Page = p
		}
		if id, err := strconv.Atoi(q.Get("job_post_id")); err == nil && id > 0 {
			f.JobPostID = id
		}
		if st, err := application.ParseStatus(q.Get("status")); err == nil {
			f.Status = st
		}
		apps, total, err := svc.List(r.Context(), f)
		if err != nil {
			svr.Log(err, "unable to list job applications")
			svr.TEXT(w, http.StatusInternalServerError, "unable to list job applications")
			return
		}
		jobPosts, err := repo.Summaries(r.Context())
		if err != nil {
			svr.Log(err, "unable to list job posts")
		}
		meta := newPageMeta(f.Page, f.PerPage, total)
		flash, flashErr := svr.Flashes(w, r)
		svr.Render(w, http.StatusOK, "applications.html", map[string]interface{}{
			"Title":        "Job Applications",
			"Applications": apps,
			"JobPosts":     jobPosts,
			"Statuses":     application.Statuses(),
			"JobPostID":    f.JobPostID,
			"Status":       f.Status,
			"Total":        total,
			"CurrentPage":  meta.CurrentPage,
			"LastPage":     meta.LastPage,
			"PrevURL":      pageURL(q, meta.CurrentPage-1),
			"NextURL":      pageURL(q, meta.CurrentPage+1),
			"Flash":        flash,
			"FlashError":   flashErr,
		})
	}
}

// pageURL keeps the current filters when moving to another page.
func pageURL(q url.Values, page int) string {
	next := url.Values{}
	for k, v := range q {
		next[k] = v
	}
	next.Set("page", strconv.Itoa(page))
	return "/?" + next.Encode()
}

func ApplicationPageHandler(svr server.Server, svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			svr.TEXT(w, http.StatusNotFound, "job application not found")
			return
		}
		app, err := svc.Get(r.Context(), id)
		if errors.Cause(err) == application.ErrApplicationNotFound {
			svr.TEXT(w, http.StatusNotFound, "job application not found")
			return
		}
		if err != nil {
			svr.Log(err, fmt.Sprintf("unable to retrieve job application %d", id))
			svr.TEXT(w, http.StatusInternalServerError, "unable to retrieve job application")
			return
		}
		flash, flashErr := svr.Flashes(w, r)
		svr.Render(w, http.StatusOK, "application.html", map[string]interface{}{
			"Title":       fmt.Sprintf("Application #%d", app.ID),
			"Application": app,
			"Statuses":    application.Statuses(),
			"Final":       app.Status.IsTerminal(),
			"Flash":       flash,
			"FlashError":  flashErr,
		})
	}
}

// UpdateApplicationStatusPageHandler handles the admin status form and
// redirects back to the application page with a flash message.
func UpdateApplicationStatusPageHandler(svr server.Server, svc ApplicationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			svr.TEXT(w, http.StatusNotFound, "job application not found")
			return
		}
		dst := fmt.Sprintf("/applications/%d", id)
		if err := r.ParseForm(); err != nil {
			svr.Flash(w, r, "Unable to read the submitted form.", true)
			svr.Redirect(w, r, http.StatusSeeOther, dst)
			return
		}
		status, err := application.ParseStatus(r.PostForm.Get("status"))
		if err != nil {
			svr.Flash(w, r, "The selected status is invalid.", true)
			svr.Redirect(w, r, http.StatusSeeOther, dst)
			return
		}
		_, err = svc.UpdateStatus(r.Context(), id, status)
		switch errors.Cause(err) {
		case nil:
			svr.Flash(w, r, "Application status updated successfully.", false)
		case application.ErrApplicationNotFound:
			svr.TEXT(w, http.StatusNotFound, "job application not found")
			return
		case application.ErrTransitionNotAllowed:
			svr.Flash(w, r, "This application has reached a final status and can no longer be updated.", true)
		default:
			svr.Log(err, fmt.Sprintf("unable to update status of job application %d", id))
			svr.Flash(w, r, "Unable to update the application status.", true)
		}
		svr.Redirect(w, r, http.StatusSeeOther, dst)
	}
}
