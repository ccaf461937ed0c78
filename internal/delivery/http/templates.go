package http

import (
	"embed"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templateFS embed.FS

// ParseTemplates parses the embedded page templates with formatting helpers
func ParseTemplates() (*template.Template, error) {
	funcs := template.FuncMap{
		"usd": func(d decimal.Decimal) string {
			return "$" + d.StringFixed(2)
		},
		"datetime": func(t time.Time) string {
			return t.Format("2006-01-02 15:04:05")
		},
	}
	return template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
}
