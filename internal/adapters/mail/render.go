package mail

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	texttemplate "text/template"

	"ghdigest/internal/core/digest"
	perr "ghdigest/internal/platform/errors"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Locals are the values a digest template sees. Event lines and NotificationsText
// hold markup that was escaped when it was rendered
type Locals struct {
	Events            []digest.Line `json:"events"`
	Username          string        `json:"username"`
	UnsubscribeURL    string        `json:"unsubscribe_url"`
	NotificationsText string        `json:"notifications_text"`
	SiteURL           string        `json:"site_url"`
}

// Renderer executes the embedded html and text templates by name
type Renderer struct {
	html map[string]*htmltemplate.Template
	text map[string]*texttemplate.Template
}

// NewRenderer parses every embedded template; name is the file stem
func NewRenderer() (*Renderer, error) {
	return newRenderer(templatesFS)
}

func newRenderer(fsys fs.FS) (*Renderer, error) {
	r := &Renderer{html: map[string]*htmltemplate.Template{}, text: map[string]*texttemplate.Template{}}
	htmlFuncs := htmltemplate.FuncMap{"safe": func(s string) htmltemplate.HTML { return htmltemplate.HTML(s) }}
	textFuncs := texttemplate.FuncMap{"plain": digest.PlainText}

	entries, err := fs.Glob(fsys, "templates/*.tmpl")
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "list templates")
	}
	for _, path := range entries {
		b, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, perr.Wrap(err, perr.ErrorCodeConfig, "read template")
		}
		base := strings.TrimSuffix(strings.TrimPrefix(path, "templates/"), ".tmpl")
		switch {
		case strings.HasSuffix(base, ".html"):
			name := strings.TrimSuffix(base, ".html")
			t, err := htmltemplate.New(name).Funcs(htmlFuncs).Parse(string(b))
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "parse template %s", path)
			}
			r.html[name] = t
		case strings.HasSuffix(base, ".txt"):
			name := strings.TrimSuffix(base, ".txt")
			t, err := texttemplate.New(name).Funcs(textFuncs).Parse(string(b))
			if err != nil {
				return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "parse template %s", path)
			}
			r.text[name] = t
		}
	}
	return r, nil
}

// Render executes template name. The html part is skipped unless contentType is "html";
// an unknown name is a Config error
func (r *Renderer) Render(name, contentType string, locals Locals) (html, text string, err error) {
	tt, ok := r.text[name]
	if !ok {
		return "", "", perr.Configf("mail: unknown template %q", name)
	}
	var buf bytes.Buffer
	if err := tt.Execute(&buf, locals); err != nil {
		return "", "", perr.Wrapf(err, perr.ErrorCodeConfig, "render %s text", name)
	}
	text = buf.String()

	if contentType != "html" {
		return "", text, nil
	}
	ht, ok := r.html[name]
	if !ok {
		return "", "", perr.Configf("mail: template %q has no html part", name)
	}
	buf.Reset()
	if err := ht.Execute(&buf, locals); err != nil {
		return "", "", perr.Wrapf(err, perr.ErrorCodeConfig, "render %s html", name)
	}
	return buf.String(), text, nil
}

// MustRenderer is NewRenderer for wiring code; the templates are embedded, so a failure is a build defect
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}
