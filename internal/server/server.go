package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	stdtemplate "html/template"

	"github.com/allegro/bigcache/v3"
	"github.com/getsentry/raven-go"
	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/hiringboard/job-board/internal/config"
	"github.com/hiringboard/job-board/internal/middleware"
	"github.com/hiringboard/job-board/internal/template"
	"github.com/rs/zerolog"
)

const (
	CacheKeyJobPostPrefix = "jobPost:"
	CacheKeySitemap       = "sitemap"
	CacheKeyRSSFeed       = "rssFeed"

	sessionName = "__hb"
	flashKey    = "flash"
	flashErrKey = "flash_error"
)

type Server struct {
	cfg          config.Config
	router       *mux.Router
	tmpl         *template.Template
	SessionStore *sessions.CookieStore
	bigCache     *bigcache.BigCache
	log          zerolog.Logger
}

func NewServer(
	cfg config.Config,
	r *mux.Router,
	t *template.Template,
	sessionStore *sessions.CookieStore,
	log zerolog.Logger,
) Server {
	if cfg.SentryDSN != "" {
		raven.SetDSN(cfg.SentryDSN)
	}

	cacheCfg := bigcache.DefaultConfig(10 * time.Minute)
	cacheCfg.Verbose = false
	bigCache, err := bigcache.NewBigCache(cacheCfg)
	svr := Server{
		cfg:          cfg,
		router:       r,
		tmpl:         t,
		SessionStore: sessionStore,
		bigCache:     bigCache,
		log:          log,
	}
	if err != nil {
		svr.Log(err, "unable to initialise big cache")
	}

	return svr
}

func (s Server) RegisterRoute(path string, handler func(w http.ResponseWriter, r *http.Request), methods []string) {
	s.router.HandleFunc(path, handler).Methods(methods...)
}

func (s Server) MarkdownToHTML(str string) stdtemplate.HTML {
	return s.tmpl.MarkdownToHTML(str)
}

func (s Server) GetConfig() config.Config {
	return s.cfg
}

func (s Server) Logger() zerolog.Logger {
	return s.log
}

func (s Server) Render(w http.ResponseWriter, status int, htmlView string, data interface{}) error {
	dataMap := make(map[string]interface{}, 0)
	if data != nil {
		dataMap = data.(map[string]interface{})
	}
	dataMap["SiteName"] = s.cfg.SiteName
	dataMap["SiteHost"] = s.cfg.SiteHost

	return s.tmpl.Render(w, status, htmlView, dataMap)
}

func (s Server) XML(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(status)
	w.Write(data)
}

func (s Server) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// JSONBytes writes an already encoded JSON payload.
func (s Server) JSONBytes(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func (s Server) TEXT(w http.ResponseWriter, status int, text string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(status)
	w.Write([]byte(text))
}

func (s Server) Log(err error, msg string) {
	if s.cfg.SentryDSN != "" {
		raven.CaptureErrorAndWait(err, map[string]string{"ctx": msg})
	}
	s.log.Error().Err(err).Msg(msg)
}

func (s Server) Redirect(w http.ResponseWriter, r *http.Request, status int, dst string) {
	http.Redirect(w, r, dst, status)
}

// Flash stores a one-off message shown on the next rendered page.
func (s Server) Flash(w http.ResponseWriter, r *http.Request, msg string, isError bool) {
	sess, err := s.SessionStore.Get(r, sessionName)
	if err != nil {
		s.Log(err, "unable to read session")
	}
	key := flashKey
	if isError {
		key = flashErrKey
	}
	sess.AddFlash(msg, key)
	if err := sess.Save(r, w); err != nil {
		s.Log(err, "unable to save session")
	}
}

// Flashes pops the pending success and error messages.
func (s Server) Flashes(w http.ResponseWriter, r *http.Request) (string, string) {
	sess, err := s.SessionStore.Get(r, sessionName)
	if err != nil {
		return "", ""
	}
	first := func(vals []interface{}) string {
		if len(vals) == 0 {
			return ""
		}
		msg, _ := vals[0].(string)
		return msg
	}
	msg := first(sess.Flashes(flashKey))
	errMsg := first(sess.Flashes(flashErrKey))
	if msg != "" || errMsg != "" {
		if err := sess.Save(r, w); err != nil {
			s.Log(err, "unable to save session")
		}
	}
	return msg, errMsg
}

func (s Server) Handler() http.Handler {
	return middleware.HTTPSMiddleware(
		middleware.LoggingMiddleware(middleware.HeadersMiddleware(s.router, s.cfg.Env), s.log),
		s.cfg.Env,
	)
}

func (s Server) Run() error {
	addr := fmt.Sprintf(":%s", s.cfg.Port)
	if s.cfg.Env == "dev" {
		s.log.Info().Msgf("local env http://localhost:%s", s.cfg.Port)
		addr = fmt.Sprintf("localhost:%s", s.cfg.Port)
	}
	return http.ListenAndServe(addr, s.Handler())
}

func (s Server) CacheGet(key string) ([]byte, bool) {
	if s.bigCache == nil {
		return []byte{}, false
	}
	out, err := s.bigCache.Get(key)
	if err != nil {
		return []byte{}, false
	}
	return out, true
}

func (s Server) CacheSet(key string, val []byte) error {
	if s.bigCache == nil {
		return nil
	}
	return s.bigCache.Set(key, val)
}

func (s Server) CacheDelete(key string) error {
	if s.bigCache == nil {
		return nil
	}
	err := s.bigCache.Delete(key)
	if err == bigcache.ErrEntryNotFound {
		return nil
	}
	return err
}
