// Package notify delivers conversion outcomes to email, slack and webhook destinations
package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"text/template"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/notify"
)

// Params of notification content
type Params struct {
	EnabledError       bool
	EnabledCompletion  bool
	ErrorTemplate      string // path to custom error template, default one used if empty or broken
	CompletionTemplate string // path to custom completion template
	HostName           string
}

// SendersParams configures destinations
type SendersParams struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPTLS      bool
	SMTPTimeOut  time.Duration
	FromEmail    string
	ToEmails     []string

	SlackToken    string
	SlackChannels []string

	WebhookURLs    []string
	WebhookTimeout time.Duration
	WebhookHeaders []string // "Header:Value" pairs
}

// Message is the data passed to templates
type Message struct {
	JobID     string
	Format    string
	OutputURL string
	Reason    string
	Host      string
	TS        time.Time
}

// Service sends notifications to all configured destinations
type Service struct {
	destinations  []notify.Notifier
	fromEmail     string
	toEmail       []string
	slackChannels []string
	webhookURLs   []string

	enabledError      bool
	enabledCompletion bool
	errorTmpl         *template.Template
	completionTmpl    *template.Template
	hostName          string
}

const defaultErrorTmpl = `Conversion {{.JobID}} failed on {{.Host}} at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}
Format: {{.Format}}
Reason: {{.Reason}}
`

const defaultCompletionTmpl = `Conversion {{.JobID}} completed on {{.Host}} at {{.TS.Format "2006-01-02T15:04:05Z07:00"}}
Format: {{.Format}}
Output: {{.OutputURL}}
`

// NewService makes notification service, returns nil if no destinations configured
func NewService(p Params, sp SendersParams) *Service {
	res := &Service{
		fromEmail:         sp.FromEmail,
		toEmail:           sp.ToEmails,
		slackChannels:     sp.SlackChannels,
		webhookURLs:       sp.WebhookURLs,
		enabledError:      p.EnabledError,
		enabledCompletion: p.EnabledCompletion,
		hostName:          p.HostName,
	}

	if len(sp.ToEmails) > 0 {
		res.destinations = append(res.destinations, notify.NewEmail(notify.SMTPParams{
			Host:        sp.SMTPHost,
			Port:        sp.SMTPPort,
			TLS:         sp.SMTPTLS,
			ContentType: "text/plain",
			Username:    sp.SMTPUsername,
			Password:    sp.SMTPPassword,
			TimeOut:     sp.SMTPTimeOut,
		}))
	}
	if sp.SlackToken != "" && len(sp.SlackChannels) > 0 {
		res.destinations = append(res.destinations, notify.NewSlack(sp.SlackToken))
	}
	if len(sp.WebhookURLs) > 0 {
		res.destinations = append(res.destinations, notify.NewWebhook(notify.WebhookParams{
			Timeout: sp.WebhookTimeout,
			Headers: sp.WebhookHeaders,
		}))
	}
	if len(res.destinations) == 0 {
		return nil
	}

	res.errorTmpl = loadTemplate("error", p.ErrorTemplate, defaultErrorTmpl)
	res.completionTmpl = loadTemplate("completion", p.CompletionTemplate, defaultCompletionTmpl)
	if res.hostName == "" {
		if h, err := os.Hostname(); err == nil {
			res.hostName = h
		}
	}
	return res
}

// IsOnError status enabling error notifications
func (s *Service) IsOnError() bool { return s.enabledError }

// IsOnCompletion status enabling completion notifications
func (s *Service) IsOnCompletion() bool { return s.enabledCompletion }

// MakeErrorText makes error notification text for a failed job
func (s *Service) MakeErrorText(jobID, format, reason string) (string, error) {
	return s.execute(s.errorTmpl, Message{JobID: jobID, Format: format, Reason: reason, Host: s.hostName, TS: time.Now()})
}

// MakeCompletionText makes completion notification text for a finished job
func (s *Service) MakeCompletionText(jobID, format, outputURL string) (string, error) {
	return s.execute(s.completionTmpl, Message{JobID: jobID, Format: format, OutputURL: outputURL, Host: s.hostName,
		TS: time.Now()})
}

// Send text to all destinations, errors of all destinations combined
func (s *Service) Send(ctx context.Context, subj, text string) error {
	var errs []error
	for _, dest := range s.destinations {
		for _, to := range s.addresses(dest.Schema(), subj) {
			if err := dest.Send(ctx, to, text); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// addresses makes destination strings supported by notifier with given schema
func (s *Service) addresses(schema, subj string) []string {
	switch schema {
	case "mailto":
		return []string{fmt.Sprintf("mailto:%s?from=%s&subject=%s", strings.Join(s.toEmail, ","), s.fromEmail,
			url.QueryEscape(subj))}
	case "slack":
		res := make([]string, 0, len(s.slackChannels))
		for _, ch := range s.slackChannels {
			res = append(res, fmt.Sprintf("slack:%s?title=%s", ch, url.QueryEscape(subj)))
		}
		return res
	case "http", "https":
		return s.webhookURLs
	}
	log.Printf("[WARN] unsupported notification schema %s", schema)
	return nil
}

func (s *Service) execute(tmpl *template.Template, msg Message) (string, error) {
	buf := bytes.Buffer{}
	if err := tmpl.Execute(&buf, msg); err != nil {
		return "", fmt.Errorf("failed to apply template: %w", err)
	}
	return buf.String(), nil
}

// loadTemplate parses template file, falls back to default text on any error
func loadTemplate(name, file, def string) *template.Template {
	if file != "" {
		data, err := os.ReadFile(file) //nolint:gosec // template path from trusted config
		if err == nil {
			tmpl, perr := template.New(name).Parse(string(data))
			if perr == nil {
				return tmpl
			}
			err = perr
		}
		log.Printf("[WARN] can't load %s template %s, default used, %v", name, file, err)
	}
	return template.Must(template.New(name).Parse(def))
}
