package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/Amritha902/infocruxapp/internal/risk"
	"github.com/Amritha902/infocruxapp/internal/types"
)

// RenderedMessage is an email ready to send.
type RenderedMessage struct {
	Subject string
	Text    string
	HTML    string
}

type digestRow struct {
	types.Announcement
	Band string
}

type digestData struct {
	GeneratedAt time.Time
	Alerts      []digestRow
}

// Renderer turns a batch of alerts into an HTML email with a plain text
// fallback.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() *Renderer {
	funcs := template.FuncMap{
		"signed": func(v float64) string { return fmt.Sprintf("%+.1f", v) },
		"ist":    formatIST,
	}
	return &Renderer{tmpl: template.Must(template.New("digest").Funcs(funcs).Parse(digestHTMLTemplate))}
}

func (r *Renderer) Render(alerts []types.Announcement, at time.Time) (*RenderedMessage, error) {
	data := digestData{GeneratedAt: at}
	for _, a := range alerts {
		data.Alerts = append(data.Alerts, digestRow{Announcement: a, Band: string(risk.Categorize(a.RiskScore))})
	}

	var htmlBuf bytes.Buffer
	if err := r.tmpl.Execute(&htmlBuf, data); err != nil {
		return nil, fmt.Errorf("failed to render HTML template: %w", err)
	}

	return &RenderedMessage{
		Subject: subject(alerts),
		Text:    renderPlainText(data),
		HTML:    htmlBuf.String(),
	}, nil
}

func subject(alerts []types.Announcement) string {
	if len(alerts) == 1 {
		a := alerts[0]
		return fmt.Sprintf("Infocrux Alert: %s risk score %.0f (%s)", a.Symbol, a.RiskScore, risk.Categorize(a.RiskScore))
	}
	syms := make([]string, 0, len(alerts))
	for _, a := range alerts {
		syms = append(syms, a.Symbol)
	}
	return fmt.Sprintf("Infocrux Alert: %d abnormal reactions (%s)", len(alerts), strings.Join(syms, ", "))
}

func renderPlainText(data digestData) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Statistically abnormal market reactions, %s\n", formatIST(data.GeneratedAt))
	sb.WriteString(strings.Repeat("=", 50) + "\n")

	for _, a := range data.Alerts {
		fmt.Fprintf(&sb, "\n%s - %s\n", a.Symbol, a.CompanyName)
		fmt.Fprintf(&sb, "Risk score: %.0f/100 (%s)\n", a.RiskScore, a.Band)
		fmt.Fprintf(&sb, "Abnormal return: %+.1f%%\n", a.AbnormalReturn)
		fmt.Fprintf(&sb, "Volume spike: %.1fx\n", a.VolumeSpikeRatio)
		fmt.Fprintf(&sb, "Announced: %s\n", formatIST(a.Timestamp))
		for _, d := range a.Drivers {
			fmt.Fprintf(&sb, "\t- %s\n", d)
		}
	}
	return sb.String()
}

var ist = time.FixedZone("IST", 5*3600+30*60)

func formatIST(t time.Time) string {
	return t.In(ist).Format("02 Jan 2006 3:04 PM MST")
}

const digestHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8" />
  <title>Infocrux risk alert</title>
  <style>
    body { margin: 0; padding: 24px; background: #f3f4f6; font-family: -apple-system, "Segoe UI", Roboto, sans-serif; color: #111827; }
    .container { max-width: 640px; margin: 0 auto; background: #fff; border: 1px solid #e5e7eb; border-radius: 8px; }
    .header { padding: 20px 24px; background: #7f1d1d; color: #fff; }
    .section { padding: 16px 24px; border-top: 1px solid #f3f4f6; }
    .symbol { font-size: 18px; font-weight: 700; }
    .badge { display: inline-block; padding: 2px 8px; font-size: 11px; font-weight: 600; border-radius: 4px; background: #dc2626; color: #fff; }
    .meta { font-size: 14px; color: #374151; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">Statistically abnormal market reactions, {{ist .GeneratedAt}}</div>
    {{range .Alerts}}
    <div class="section">
      <div class="symbol">{{.Symbol}} <span class="badge">{{.Band}}</span></div>
      <div class="meta">{{.CompanyName}}, announced {{ist .Timestamp}}</div>
      <div class="meta">Risk score {{printf "%.0f" .RiskScore}}/100, abnormal return {{signed .AbnormalReturn}}%, volume {{printf "%.1f" .VolumeSpikeRatio}}x</div>
      {{if .Drivers}}<ul class="meta">{{range .Drivers}}<li>{{.}}</li>{{end}}</ul>{{end}}
    </div>
    {{end}}
  </div>
</body>
</html>`
