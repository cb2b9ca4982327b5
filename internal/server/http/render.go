package httpx

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

// each page is the layout plus its own "content" block
var pages = map[string]*template.Template{
	"login.html": mustPage("login.html"),
	"home.html":  mustPage("home.html"),
	"error.html": mustPage("error.html"),
}

func mustPage(name string) *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name))
}

type loginPage struct {
	Title     string
	Error     string
	Username  string
	MaxLength int
}

type errorPage struct {
	Title   string
	Status  int
	Message string
}

// render executes into a buffer first so a template error never leaves a
// half-written page behind.
func (r *Router) render(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	tpl, ok := pages[name]
	if !ok {
		http.Error(w, "template not found", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		r.logger.Error(req.Context(), "template error", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (r *Router) renderError(w http.ResponseWriter, req *http.Request, status int) {
	r.render(w, req, status, "error.html", errorPage{
		Title:   http.StatusText(status),
		Status:  status,
		Message: "Something went wrong. Please try again later.",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
