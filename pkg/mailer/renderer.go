package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"strings"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Rendered is the output of a single template render.
type Rendered struct {
	Metadata map[string]any
	Subject  string
	HTML     string
	Text     string
}

type parsed struct {
	meta    map[string]any
	subject *texttemplate.Template
	body    *texttemplate.Template
}

// Renderer loads templates and layouts from an fs.FS and caches them.
type Renderer struct {
	fsys      fs.FS
	md        goldmark.Markdown
	templates map[string]*parsed
	layouts   map[string]*template.Template
	layoutDir string
	mu        sync.RWMutex
}

// NewRenderer reads templates from the root of fsys and layouts from
// layoutDir within it.
func NewRenderer(fsys fs.FS, layoutDir string) *Renderer {
	if layoutDir == "" {
		layoutDir = "layouts"
	}
	return &Renderer{
		fsys:      fsys,
		md:        goldmark.New(goldmark.WithExtensions(extension.Table, extension.Linkify)),
		templates: make(map[string]*parsed),
		layouts:   make(map[string]*template.Template),
		layoutDir: layoutDir,
	}
}

// Render executes the template called name for locale and wraps it in layout.
func (r *Renderer) Render(layout, locale, name string, data any) (*Rendered, error) {
	t, err := r.template(locale, name)
	if err != nil {
		return nil, err
	}

	var md bytes.Buffer
	if err := t.body.Execute(&md, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	var subject bytes.Buffer
	if t.subject != nil {
		if err := t.subject.Execute(&subject, data); err != nil {
			return nil, fmt.Errorf("%w: %s subject: %v", ErrRenderFailed, name, err)
		}
	}

	var body bytes.Buffer
	if err := r.md.Convert(md.Bytes(), &body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}

	lt, err := r.layout(layout)
	if err != nil {
		return nil, err
	}

	var html bytes.Buffer
	if err := lt.Execute(&html, map[string]any{
		"Content":  template.HTML(body.String()), //nolint:gosec // goldmark output of our own templates
		"Subject":  subject.String(),
		"Metadata": t.meta,
		"Locale":   locale,
	}); err != nil {
		return nil, fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, layout, err)
	}

	return &Rendered{
		Metadata: t.meta,
		Subject:  strings.TrimSpace(subject.String()),
		HTML:     html.String(),
		Text:     md.String(),
	}, nil
}

// candidates lists lookup paths from most to least specific:
// fr-be/name, fr/name, name.
func candidates(locale, name string) []string {
	var out []string
	locale = strings.ToLower(locale)
	for locale != "" {
		out = append(out, path.Join(locale, name))
		i := strings.LastIndexAny(locale, "-_")
		if i < 0 {
			break
		}
		locale = locale[:i]
	}
	return append(out, name)
}

func (r *Renderer) template(locale, name string) (*parsed, error) {
	for _, p := range candidates(locale, name) {
		t, err := r.load(p)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return t, err
	}
	return nil, fmt.Errorf("%w: %s (%s)", ErrTemplateNotFound, name, locale)
}

func (r *Renderer) load(p string) (*parsed, error) {
	r.mu.RLock()
	t, ok := r.templates[p]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	content, err := fs.ReadFile(r.fsys, p)
	if err != nil {
		return nil, err
	}
	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}

	t = &parsed{meta: meta}
	if t.body, err = texttemplate.New(p).Parse(string(body)); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, p, err)
	}
	if s, ok := meta["Subject"].(string); ok {
		if t.subject, err = texttemplate.New(p + ":subject").Parse(s); err != nil {
			return nil, fmt.Errorf("%w: %s subject: %v", ErrRenderFailed, p, err)
		}
	}

	r.mu.Lock()
	r.templates[p] = t
	r.mu.Unlock()
	return t, nil
}

func (r *Renderer) layout(name string) (*template.Template, error) {
	r.mu.RLock()
	lt, ok := r.layouts[name]
	r.mu.RUnlock()
	if ok {
		return lt, nil
	}

	content, err := fs.ReadFile(r.fsys, path.Join(r.layoutDir, name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLayoutNotFound, name, err)
	}
	lt, err = template.New(name).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %v", ErrRenderFailed, name, err)
	}

	r.mu.Lock()
	r.layouts[name] = lt
	r.mu.Unlock()
	return lt, nil
}
