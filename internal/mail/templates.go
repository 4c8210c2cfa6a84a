package mail

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/ahmetcoskunkizilkaya/auth-service/internal/models"
)

type kind string

const (
	kindResetPassword kind = "reset_password"
	kindVerifyEmail   kind = "verify_email"
)

type templateSet struct {
	subject string
	html    *htmltemplate.Template
	text    *texttemplate.Template
}

var templates = map[kind]templateSet{
	kindResetPassword: {
		subject: "Reset your password",
		html: htmltemplate.Must(htmltemplate.New("reset_html").Parse(`<h1>Reset your password</h1>
<p>Click the link below to reset your password:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>If you didn't request this, you can safely ignore this email.</p>
{{if .ExpiresIn}}<p>This link will expire in {{.ExpiresIn}}.</p>{{end}}`)),
		text: texttemplate.Must(texttemplate.New("reset_text").Parse(
			"Reset your password by clicking this link: {{.URL}}\n\nIf you didn't request this, you can safely ignore this email.{{if .ExpiresIn}}\n\nThis link will expire in {{.ExpiresIn}}.{{end}}")),
	},
	kindVerifyEmail: {
		subject: "Verify your email address",
		html: htmltemplate.Must(htmltemplate.New("verify_html").Parse(`<h1>Verify your email address</h1>
<p>Click the link below to verify your email address:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>If you didn't request this, you can safely ignore this email.</p>`)),
		text: texttemplate.Must(texttemplate.New("verify_text").Parse(
			"Verify your email address by clicking this link: {{.URL}}")),
	},
}

type templateData struct {
	Name      string
	URL       string
	ExpiresIn string
}

func render(k kind, user *models.User, url string, ttl time.Duration) (Message, error) {
	set, ok := templates[k]
	if !ok {
		return Message{}, fmt.Errorf("unknown template %q", k)
	}
	data := templateData{Name: user.Name, URL: url, ExpiresIn: formatTTL(ttl)}

	var html, text bytes.Buffer
	if err := set.html.Execute(&html, data); err != nil {
		return Message{}, err
	}
	if err := set.text.Execute(&text, data); err != nil {
		return Message{}, err
	}
	return Message{
		To:       user.Email,
		ToName:   user.Name,
		Subject:  set.subject,
		HTMLBody: html.String(),
		TextBody: text.String(),
	}, nil
}

func formatTTL(d time.Duration) string {
	switch {
	case d <= 0:
		return ""
	case d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d.Round(time.Minute)/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
