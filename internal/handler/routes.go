package handler

import (
	"github.com/hiringboard/job-board/internal/server"
	"github.com/hiringboard/job-board/internal/validation"
)

func RegisterRoutes(svr server.Server, v *validation.Validator, jobPosts JobPostStore, applications ApplicationService) {
	//
	// JSON API
	//

	// job posts
	svr.RegisterRoute("/job-posts", CreateJobPostHandler(svr, v, jobPosts), []string{"POST"})
	svr.RegisterRoute("/job-posts", JobPostsHandler(svr, v, jobPosts), []string{"GET"})
	svr.RegisterRoute("/job-posts/feed.rss", JobPostsRSSHandler(svr, jobPosts), []string{"GET"})
	svr.RegisterRoute("/job-posts/{id:[0-9]+}", JobPostHandler(svr, jobPosts), []string{"GET"})

	// job applications
	svr.RegisterRoute("/job-applications", SubmitApplicationHandler(svr, v, applications), []string{"POST"})
	svr.RegisterRoute("/job-applications", ApplicationsHandler(svr, v, applications), []string{"GET"})
	svr.RegisterRoute("/job-applications/statistics", ApplicationStatisticsHandler(svr, v, applications), []string{"GET"})
	svr.RegisterRoute("/job-applications/{id:[0-9]+}", ApplicationHandler(svr, applications), []string{"GET"})
	svr.RegisterRoute("/job-applications/{id:[0-9]+}/status", UpdateApplicationStatusHandler(svr, v, applications), []string{"PATCH"})

	//
	// admin pages
	//

	svr.RegisterRoute("/", ApplicationsPageHandler(svr, applications, jobPosts), []string{"GET"})
	svr.RegisterRoute("/applications/{id:[0-9]+}", ApplicationPageHandler(svr, applications), []string{"GET"})
	svr.RegisterRoute("/applications/{id:[0-9]+}/status", UpdateApplicationStatusPageHandler(svr, applications), []string{"POST"})

	svr.RegisterRoute("/sitemap.xml", SitemapHandler(svr, jobPosts), []string{"GET"})
}
