// Package views renders the pages of the service as templ components.
//
// Components wrap embedded html/template files, so markup is escaped by
// the template engine and handlers only deal in templ.Component.
package views

import (
	"context"
	"embed"
	"html/template"
	"io"
	"io/fs"

	"github.com/a-h/templ"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed locales
var localeFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Locales returns the translation catalogue as <lang>/<namespace>.yaml.
func Locales() fs.FS {
	sub, err := fs.Sub(localeFS, "locales")
	if err != nil {
		panic(err)
	}
	return sub
}

func page(name string, data any) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return pages.ExecuteTemplate(w, name, data)
	})
}
