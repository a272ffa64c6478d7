// Package web holds the browser-facing pages embedded into the binary.
//
// The pages carry the session id across the browser leg of the handshake:
// the first page stashes it in localStorage before redirecting to the
// provider, and the confirmation page posts the token back together with it.
package web

import (
	"embed"
	"html/template"
	"io"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

var templates = template.Must(template.New("web").ParseFS(templatesFS, "templates/*.tmpl"))

// Render executes the named embedded template with the provided data.
func Render(w io.Writer, name string, data any) error {
	return templates.ExecuteTemplate(w, name, data)
}
