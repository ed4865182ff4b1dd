package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"eventx/internal/domain"
)

//go:embed templates/*
var templateFS embed.FS

// Event times are shown to attendees in Indian Standard Time.
var displayZone = time.FixedZone("IST", 5*60*60+30*60)

var templateFuncs = map[string]any{
	"when":  eventTime,
	"money": money,
}

func eventTime(t time.Time) string {
	return t.In(displayZone).Format("Mon, 02 Jan 2006 03:04 PM MST")
}

// money renders a major-unit amount; rupees get the symbol, other currencies
// their code.
func money(amount, currency string) string {
	if currency == "" || strings.EqualFold(currency, "INR") {
		return "₹" + amount
	}
	return amount + " " + strings.ToUpper(currency)
}

// templateRenderer renders the booking emails. Each email is three files:
// <name>_subject.txt, <name>.txt and <name>.html.
type templateRenderer struct {
	html *template.Template
	text *texttemplate.Template
}

// NewTemplateRenderer parses the embedded templates once. They ship with the
// binary, so a parse failure is a build defect and panics.
func NewTemplateRenderer() domain.EmailTemplateRenderer {
	return &templateRenderer{
		html: template.Must(template.New("html").Funcs(template.FuncMap(templateFuncs)).ParseFS(templateFS, "templates/*.html")),
		text: texttemplate.Must(texttemplate.New("text").Funcs(texttemplate.FuncMap(templateFuncs)).ParseFS(templateFS, "templates/*.txt")),
	}
}

func (r *templateRenderer) Render(templateName string, data any) (subject, htmlBody, textBody string, err error) {
	var buf bytes.Buffer
	if err := r.text.ExecuteTemplate(&buf, templateName+"_subject.txt", data); err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = strings.TrimSpace(buf.String())

	buf.Reset()
	if err := r.html.ExecuteTemplate(&buf, templateName+".html", data); err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	htmlBody = buf.String()

	buf.Reset()
	if err := r.text.ExecuteTemplate(&buf, templateName+".txt", data); err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	return subject, htmlBody, buf.String(), nil
}
