package template

import (
	"embed"
	"net/http"
	"strings"
	"time"

	stdtemplate "html/template"

	humanize "github.com/dustin/go-humanize"
	"github.com/microcosm-cc/bluemonday"
	blackfriday "gopkg.in/russross/blackfriday.v2"
)

//go:embed views/*.html
var views embed.FS

type Template struct {
	templates *stdtemplate.Template
	policy    *bluemonday.Policy
}

func NewTemplate() *Template {
	t := &Template{policy: bluemonday.UGCPolicy()}
	funcMap := stdtemplate.FuncMap{
		"add": func(a, b int) int {
			return a + b
		},
		"sub": func(a, b int) int {
			return a - b
		},
		"humantime": humanize.Time,
		"humannumber": func(n int) string {
			return humanize.Comma(int64(n))
		},
		"longdate": func(t time.Time) string {
			return t.Format("January 02, 2006 03:04 PM")
		},
		"stringTitle": func(s string) string {
			if s == "" {
				return s
			}
			return strings.ToUpper(s[:1]) + s[1:]
		},
		"markdown": t.MarkdownToHTML,
	}
	t.templates = stdtemplate.Must(stdtemplate.New("stdtmpl").Funcs(funcMap).ParseFS(views, "views/*.html"))
	return t
}

func (t *Template) Render(w http.ResponseWriter, status int, name string, data interface{}) error {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return t.templates.ExecuteTemplate(w, name, data)
}

// MarkdownToHTML renders user supplied markdown and strips anything unsafe.
func (t *Template) MarkdownToHTML(s string) stdtemplate.HTML {
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.Safelink |
			blackfriday.NofollowLinks |
			blackfriday.NoreferrerLinks |
			blackfriday.HrefTargetBlank,
	})
	out := blackfriday.Run([]byte(s), blackfriday.WithRenderer(renderer))
	return stdtemplate.HTML(t.policy.SanitizeBytes(out))
}
