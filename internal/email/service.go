// Package email provides email sending capabilities via SMTP.
package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"time"

	"gopkg.in/gomail.v2"
)

var ErrNotConfigured = errors.New("email not configured")

// Config holds SMTP configuration
type Config struct {
	Host      string
	Port      int
	Username  string
	Password  string
	From      string
	PublicURL string
}

type sender interface {
	DialAndSend(m ...*gomail.Message) error
}

// Service provides email sending
type Service struct {
	config Config
	sender sender
}

// NewService creates a new email service
func NewService(config Config) *Service {
	return &Service{
		config: config,
		sender: gomail.NewDialer(config.Host, config.Port, config.Username, config.Password),
	}
}

// IsConfigured returns true if email is configured
func (s *Service) IsConfigured() bool {
	return s.config.Host != "" && s.config.Port > 0 && s.config.From != ""
}

// InvitationData holds data for the invitation template
type InvitationData struct {
	GuideID    int64
	GuideTitle string
	GuideURL   string
}

// SendInvitation tells a user they can now read a guide. It gives up when ctx
// is done; the SMTP exchange itself is not interruptible.
func (s *Service) SendInvitation(ctx context.Context, to string, guideID int64, guideTitle string) error {
	if !s.IsConfigured() {
		return ErrNotConfigured
	}

	m, err := s.invitationMessage(to, InvitationData{
		GuideID:    guideID,
		GuideTitle: guideTitle,
		GuideURL:   fmt.Sprintf("%s/guides/%d", s.config.PublicURL, guideID),
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.sender.DialAndSend(m) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("send invitation to %s: %w", to, ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("send invitation to %s: %w", to, err)
		}
		return nil
	}
}

// NotifyInvitation sends the invitation notice in the background and only
// logs the outcome.
func (s *Service) NotifyInvitation(to string, guideID int64, guideTitle string) {
	if !s.IsConfigured() {
		log.Printf("email: smtp not configured, skipping invitation notice for guide %d", guideID)
		return
	}
	go func() {
		if err := s.SendInvitation(context.Background(), to, guideID, guideTitle); err != nil {
			log.Printf("email: %v", err)
		}
	}()
}

func (s *Service) invitationMessage(to string, data InvitationData) (*gomail.Message, error) {
	html, err := renderTemplate(invitationEmailTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("render invitation template: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", "Nouveau guide HenriTrip : "+data.GuideTitle)
	m.SetBody("text/plain", fmt.Sprintf("Vous avez été invité à consulter le guide « %s ».\n\nOuvrir le guide : %s\n", data.GuideTitle, data.GuideURL))
	m.AddAlternative("text/html", html)
	return m, nil
}

func renderTemplate(tmpl string, data interface{}) (string, error) {
	t := template.Must(template.New("email").Parse(tmpl))
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const invitationEmailTemplate = `<!DOCTYPE html>
<html lang="fr">
<head>
    <meta charset="UTF-8">
    <title>{{.GuideTitle}}</title>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { border-bottom: 2px solid #0066cc; padding-bottom: 10px; margin-bottom: 20px; }
        .button { display: inline-block; padding: 12px 24px; background: #0066cc; color: white; text-decoration: none; border-radius: 4px; margin: 20px 0; }
        .link { word-break: break-all; color: #0066cc; }
    </style>
</head>
<body>
    <div class="header">
        <h1>HenriTrip</h1>
    </div>

    <p>Vous avez été invité à consulter le guide <strong>{{.GuideTitle}}</strong>.</p>

    <p>
        <a href="{{.GuideURL}}" class="button">Ouvrir le guide</a>
    </p>

    <p>Ou copiez ce lien dans votre navigateur :</p>
    <p class="link">{{.GuideURL}}</p>
</body>
</html>`
