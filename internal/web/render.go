package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/mmynk/compartilha/internal/allocation"
	"github.com/mmynk/compartilha/internal/calculator"
	"github.com/mmynk/compartilha/internal/i18n"
	"github.com/mmynk/compartilha/internal/models"
	"github.com/mmynk/compartilha/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// page is the data every template receives.
type page struct {
	Lang   string
	User   models.User
	Alert  string
	Screen string
	State  service.State

	History *service.HistoryResult
	Filter  service.HistoryFilter

	// Login page only.
	Email      string
	LoginError string
	Expired    bool
}

// Editor modes, for forms.
func (page) ByQuantity() allocation.Mode { return allocation.ByQuantity }
func (page) ByValue() allocation.Mode    { return allocation.ByValue }

type renderer struct {
	base *template.Template
}

func newRenderer() (*renderer, error) {
	base, err := template.New("").Funcs(funcs(i18n.DefaultLanguage)).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &renderer{base: base}, nil
}

// funcs returns the template helpers for lang.
func funcs(lang string) template.FuncMap {
	return template.FuncMap{
		"t":        func(code string) string { return i18n.T(lang, code) },
		"lang":     func() string { return lang },
		"money":    calculator.FormatBRL,
		"amount":   calculator.FormatAmount,
		"fraction": calculator.FormatFraction,
		"qty":      calculator.FormatQuantity,
		"pct":      func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
		"add":      func(a, b int) int { return a + b },
		"status": func(s models.Status) string {
			if s == models.StatusFinalized {
				return i18n.T(lang, "status_finalized")
			}
			return i18n.T(lang, "status_open")
		},
	}
}

// render executes the named template into a buffer so that a failing
// template never sends a partial page.
func (rn *renderer) render(w http.ResponseWriter, status int, name string, p page) {
	t, err := rn.base.Clone()
	if err != nil {
		slog.Error("Failed to clone templates", "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	t.Funcs(funcs(p.Lang))

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, p); err != nil {
		slog.Error("Failed to render template", "template", name, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
