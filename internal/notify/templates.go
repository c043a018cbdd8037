package notify

import (
	"bytes"
	"embed"
	"html/template"
	"time"

	"github.com/rogerio-castellano/storefront/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

type lowStockData struct {
	Product   models.Product
	Threshold int
	Cooldown  time.Duration
	CheckedAt time.Time
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
