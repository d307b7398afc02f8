package export

import (
	"bytes"
	"html/template"
	"time"
)

var itineraryTemplate = template.Must(template.New("itinerary").Funcs(template.FuncMap{
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
}).Parse(itineraryHTML))

// RenderItineraryHTML renders the itinerary template with provided data
func RenderItineraryHTML(data Itinerary) (string, error) {
	var buf bytes.Buffer
	if err := itineraryTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const itineraryHTML = `<!DOCTYPE html>
<html lang="fr">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.5; max-width: 800px; margin: 2rem auto; color: #222; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .cover { width: 100%; max-height: 320px; object-fit: cover; border-radius: 6px; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    .day { page-break-inside: avoid; margin-top: 2rem; }
    .activity { background: #f5f5f5; padding: 0.75rem 1rem; margin: 0.75rem 0; border-left: 3px solid #333; }
    .activity .when { float: right; color: #666; }
    .details { color: #555; font-size: 0.9em; }
  </style>
</head>
<body>
  {{if .CoverImageURL}}<img class="cover" src="{{.CoverImageURL}}" alt="">{{end}}
  <h1>{{.Title}}</h1>
  <p>{{.Description}}</p>
  <div class="meta">
    {{if .Destination}}{{.Destination}} | {{end}}{{len .Days}} jour(s) | {{.Mobility}} | {{.Season}} | {{.ForWho}}
  </div>
  {{range .Days}}
  <section class="day">
    <h2>Jour {{.Number}} : {{.Title}}{{if .Date}} ({{.Date}}){{end}}</h2>
    {{range .Activities}}
    <div class="activity">
      {{if or .StartTime .EndTime}}<span class="when">{{.StartTime}}{{if .EndTime}} - {{.EndTime}}{{end}}</span>{{end}}
      <h3>{{.VisitOrder}}. {{.Title}}</h3>
      <p>{{.Description}}</p>
      <div class="details">
        {{.Category}} | {{.ForWho}} | {{.Address}}
        {{if .OpeningHours}}<br>Horaires : {{.OpeningHours}}{{end}}
        {{if .PhoneNumber}}<br>Téléphone : {{.PhoneNumber}}{{end}}
        {{if .Website}}<br><a href="{{.Website}}">{{.Website}}</a>{{end}}
      </div>
    </div>
    {{else}}
    <p class="details">Aucune activité prévue.</p>
    {{end}}
  </section>
  {{end}}
  {{if not .GeneratedAt.IsZero}}<p class="meta">Généré le {{formatDate .GeneratedAt "02/01/2006"}}</p>{{end}}
</body>
</html>`
