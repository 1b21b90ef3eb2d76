// Package web embeds the HTML pages and static assets served by the api.
package web

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs are the helpers available in every page.
var Funcs = template.FuncMap{
	"fileSize": FormatFileSize,
}

// Templates parses all pages. Each page is addressed by its file name, e.g. "login.html".
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html"))
}

// Static returns the static assets rooted at the static directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// FormatFileSize formats a size in bytes as a human readable string.
func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}
