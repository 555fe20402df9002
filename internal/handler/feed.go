package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"
	"github.com/hiringboard/job-board/internal/jobpost"
	"github.com/hiringboard/job-board/internal/server"
	"github.com/snabb/sitemap"
)

const feedSize = 20

func JobPostsRSSHandler(svr server.Server, repo JobPostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, ok := svr.CacheGet(server.CacheKeyRSSFeed); ok {
			svr.XML(w, http.StatusOK, cached)
			return
		}
		jobPosts, err := repo.ActiveJobPosts(r.Context(), feedSize)
		if err != nil {
			svr.Log(err, "unable to retrieve job posts for RSS feed")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		cfg := svr.GetConfig()
		now := time.Now()
		feed := &feeds.Feed{
			Title:       cfg.SiteName + " Jobs",
			Link:        &feeds.Link{Href: cfg.SiteURL("/")},
			Description: cfg.SiteName + " Jobs",
			Author:      &feeds.Author{Name: cfg.SiteName, Email: cfg.NoReplyEmail},
			Created:     now,
		}
		for _, p := range jobPosts {
			if p.AcceptingApplications(now) != nil {
				continue
			}
			feed.Items = append(feed.Items, &feeds.Item{
				Id:          p.Slug,
				Title:       fmt.Sprintf("%s with %s - %s", p.Title, p.Company, p.Location),
				Link:        &feeds.Link{Href: cfg.SiteURL(fmt.Sprintf("/job-posts/%d", p.ID))},
				Description: string(svr.MarkdownToHTML(feedDescription(p))),
				Author:      &feeds.Author{Name: p.Company, Email: p.ContactEmail},
				Created:     p.CreatedAt,
			})
		}
		rssFeed, err := feed.ToRss()
		if err != nil {
			svr.Log(err, "unable to convert rss feed to xml")
			svr.XML(w, http.StatusInternalServerError, []byte{})
			return
		}
		if err := svr.CacheSet(server.CacheKeyRSSFeed, []byte(rssFeed)); err != nil {
			svr.Log(err, "unable to cache rss feed")
		}
		svr.XML(w, http.StatusOK, []byte(rssFeed))
	}
}

func feedDescription(p *jobpost.JobPost) string {
	var b strings.Builder
	b.WriteString(p.Description)
	b.WriteString("\n\n**Job Type:** " + p.JobType)
	if p.Salary != nil {
		b.WriteString(fmt.Sprintf("\n\n**Salary:** %.2f", *p.Salary))
	}
	if len(p.Skills) > 0 {
		b.WriteString("\n\n**Skills:** " + strings.Join(p.Skills, ", "))
	}
	if p.ApplicationDeadline != nil {
		b.WriteString("\n\n**Apply by:** " + p.ApplicationDeadline.Format(jobpost.DeadlineLayout))
	}
	return b.String()
}

func SitemapHandler(svr server.Server, repo JobPostStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cached, ok := svr.CacheGet(server.CacheKeySitemap); ok {
			svr.XML(w, http.StatusOK, cached)
			return
		}
		jobPosts, err := repo.ActiveJobPosts(r.Context(), 50000)
		if err != nil {
			svr.Log(err, "unable to retrieve job posts for sitemap")
			svr.TEXT(w, http.StatusInternalServerError, "unable to fetch sitemap")
			return
		}
		cfg := svr.GetConfig()
		now := time.Now()
		sitemapFile := sitemap.New()
		for _, p := range jobPosts {
			if p.AcceptingApplications(now) != nil {
				continue
			}
			lastMod := p.UpdatedAt
			sitemapFile.Add(&sitemap.URL{
				Loc:        cfg.SiteURL(fmt.Sprintf("/job-posts/%d", p.ID)),
				LastMod:    &lastMod,
				ChangeFreq: sitemap.ChangeFreq("weekly"),
			})
		}
		buf := new(bytes.Buffer)
		if _, err := sitemapFile.WriteTo(buf); err != nil {
			svr.Log(err, "sitemapFile.WriteTo")
			svr.TEXT(w, http.StatusInternalServerError, "unable to save sitemap file")
			return
		}
		if err := svr.CacheSet(server.CacheKeySitemap, buf.Bytes()); err != nil {
			svr.Log(err, "unable to cache sitemap")
		}
		svr.XML(w, http.StatusOK, buf.Bytes())
	}
}
