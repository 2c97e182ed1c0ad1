package notification

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"text/template"

	"github.com/magabrotheeeer/media-storefront/internal/models"
)

type emailTemplate struct {
	subject *template.Template
	text    *template.Template
	html    *htmltemplate.Template
}

const (
	siteURL     = "https://buzzplaymv.com"
	buttonStyle = "background-color: #22c55e; color: white; padding: 10px 20px; text-decoration: none; border-radius: 5px;"
)

func button(href, label string) string {
	return `<a href="` + siteURL + href + `" style="` + buttonStyle + `">` + label + `</a>`
}

var templateSources = map[models.NotificationType][3]string{
	models.NotificationSubscriptionExpired: {
		"Your BuzzPlay Subscription Has Expired",
		"Your {{.Duration}}-month subscription has expired. Please renew to continue accessing our services.",
		`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Your BuzzPlay Subscription Has Expired</h2>
  <p>Your {{.Duration}}-month subscription has expired.</p>
  <p>To continue enjoying unlimited movies and TV shows, please renew your subscription.</p>
  ` + button("/pricing", "Renew Now") + `
</div>`,
	},
	models.NotificationSubscriptionExpiringSoon: {
		"Your BuzzPlay Subscription is Expiring Soon",
		"Your {{with .Plan}}{{.}} {{end}}subscription will expire in {{.DaysLeft}} {{if eq .DaysLeft 1}}day{{else}}days{{end}}. Renew now to avoid service interruption.",
		`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Your BuzzPlay Subscription is Expiring Soon</h2>
  <p>Your {{with .Plan}}{{.}} {{end}}subscription will expire in {{.DaysLeft}} {{if eq .DaysLeft 1}}day{{else}}days{{end}}.</p>
  <p>Renew now to ensure uninterrupted access to your favorite content.</p>
  ` + button("/pricing", "Renew Now") + `
</div>`,
	},
	models.NotificationSubscriptionActivated: {
		"{{if .IsUpgrade}}Your BuzzPlay Subscription Has Been Extended{{else}}Welcome to BuzzPlay!{{end}}",
		"Your {{.Duration}}-month {{with .Plan}}{{.}} {{end}}subscription has been {{if .IsUpgrade}}extended{{else}}activated{{end}}. Enjoy watching!",
		`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>{{if .IsUpgrade}}Your BuzzPlay Subscription Has Been Extended{{else}}Welcome to BuzzPlay!{{end}}</h2>
  <p>Your {{.Duration}}-month {{with .Plan}}{{.}} {{end}}subscription has been successfully {{if .IsUpgrade}}extended{{else}}activated{{end}}.</p>
  <p>Start watching now and enjoy unlimited access to our content library.</p>
  ` + button("/", "Start Watching") + `
</div>`,
	},
	models.NotificationPaymentReceived: {
		"Payment Received - BuzzPlay",
		"We've received your payment of {{.Amount}} for the {{.Duration}}-month subscription.",
		`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Payment Received</h2>
  <p>Thank you for your payment of {{.Amount}}.</p>
  <p>Your subscription will be extended by {{.Duration}} months.</p>
</div>`,
	},
	models.NotificationPaymentFailed: {
		"Payment Failed - BuzzPlay",
		"Your payment of {{.Amount}} for the {{.Duration}}-month subscription has failed.{{with .Reason}} Reason: {{.}}.{{end}}",
		`<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2>Payment Failed</h2>
  <p>Your payment of {{.Amount}} could not be processed.</p>
  {{with .Reason}}<p>Reason: {{.}}</p>{{end}}
  <p>Please try again or contact support if you need assistance.</p>
  ` + button("/dashboard", "Retry Payment") + `
</div>`,
	},
}

// templates разбираются при старте; ошибка в шаблоне ломает запуск, а не отправку.
var templates = mustParseTemplates()

func mustParseTemplates() map[models.NotificationType]emailTemplate {
	result := make(map[models.NotificationType]emailTemplate, len(templateSources))
	for typ, src := range templateSources {
		name := string(typ)
		result[typ] = emailTemplate{
			subject: template.Must(template.New(name + ".subject").Parse(src[0])),
			text:    template.Must(template.New(name + ".text").Parse(src[1])),
			html:    htmltemplate.Must(htmltemplate.New(name + ".html").Parse(src[2])),
		}
	}
	return result
}

// Render возвращает тему, текст и HTML письма.
func Render(typ models.NotificationType, data models.TemplateData) (subject, text, html string, err error) {
	tpl, ok := templates[typ]
	if !ok {
		return "", "", "", fmt.Errorf("unknown notification type %q", typ)
	}

	var buf bytes.Buffer
	if err := tpl.subject.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render subject: %w", err)
	}
	subject = buf.String()

	buf.Reset()
	if err := tpl.text.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render text: %w", err)
	}
	text = buf.String()

	buf.Reset()
	if err := tpl.html.Execute(&buf, data); err != nil {
		return "", "", "", fmt.Errorf("render html: %w", err)
	}
	html = buf.String()
	return subject, text, html, nil
}
