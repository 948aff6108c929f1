package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"github.com/threadscout/engagement-bot/internal/config"
	"github.com/threadscout/engagement-bot/internal/models"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendDigest sends a digest via configured notification channels
func (s *Service) SendDigest(digest *models.Digest) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(digest); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent digest to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(digest); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent digest via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

func (s *Service) sendToTeams(digest *models.Digest) error {
	message := s.buildTeamsMessage(digest)

	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if !resp.IsSuccess() {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(digest *models.Digest) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Reply Drafts Digest - %s", periodTitle(digest.Period)),
		Text:    fmt.Sprintf("%d reply drafts saved in the %s period", digest.TotalDrafts, digest.Period),
	}

	facts := []TeamsFact{
		{Name: "Total Drafts", Value: fmt.Sprintf("%d", digest.TotalDrafts)},
		{Name: "Generated", Value: digest.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}
	if top, ok := digest.Summary["top_tweets"].([]string); ok && len(top) > 0 {
		facts = append(facts, TeamsFact{Name: "Most Answered Tweets", Value: strings.Join(top, ", ")})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(digest.Drafts) > 0 {
		var recent []string
		limit := 5
		if len(digest.Drafts) < limit {
			limit = len(digest.Drafts)
		}

		for i := 0; i < limit; i++ {
			draft := digest.Drafts[i]
			recent = append(recent, fmt.Sprintf("**%s** - tweet %s (%s)",
				draft.ThreadID, draft.TweetID, draft.CreatedAt.Format("Jan 2")))
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Recent Drafts",
			ActivityText:  strings.Join(recent, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendEmail(digest *models.Digest) error {
	subject := fmt.Sprintf("Reply Drafts Digest - %s (%d drafts)", periodTitle(digest.Period), digest.TotalDrafts)

	htmlBody, err := s.buildEmailHTML(digest)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(digest))
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)
	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

const emailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Reply Drafts Digest</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #1d9bf0; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .draft { border-left: 4px solid #1d9bf0; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .draft-title { font-weight: bold; margin-bottom: 5px; }
        .draft-meta { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Reply Drafts Digest</h1>
        <p>{{.Period | title}} digest generated on {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Total Drafts:</strong> {{.TotalDrafts}}</p>
    </div>

    {{if .Drafts}}
    <h2>Saved Drafts</h2>
    {{range $index, $draft := .Drafts}}
        {{if lt $index 10}}
        <div class="draft">
            <div class="draft-title">{{$draft.ThreadID}}</div>
            <div class="draft-meta">Tweet {{$draft.TweetID}} | {{$draft.CreatedAt.Format "Jan 2, 2006"}}</div>
            <p>{{$draft.Content | truncate 200}}</p>
        </div>
        {{end}}
    {{end}}
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by Thread Scout.</small></p>
</body>
</html>
`

func (s *Service) buildEmailHTML(digest *models.Digest) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{
		"title":    periodTitle,
		"truncate": truncate,
	}).Parse(emailTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, digest); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(digest *models.Digest) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("Reply Drafts Digest - %s\n", periodTitle(digest.Period)))
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", digest.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Total Drafts: %d\n", digest.TotalDrafts))

	if len(digest.Drafts) > 0 {
		text.WriteString("\nSAVED DRAFTS\n")
		text.WriteString("============\n")

		limit := 10
		if len(digest.Drafts) < limit {
			limit = len(digest.Drafts)
		}

		for i := 0; i < limit; i++ {
			draft := digest.Drafts[i]
			text.WriteString(fmt.Sprintf("\n%d. %s\n", i+1, draft.ThreadID))
			text.WriteString(fmt.Sprintf("   Tweet: %s | Saved: %s\n", draft.TweetID, draft.CreatedAt.Format("Jan 2, 2006")))
			text.WriteString(fmt.Sprintf("   Reply: %s\n", truncate(200, draft.Content)))
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by Thread Scout.\n")

	return text.String()
}

func periodTitle(period string) string {
	if period == "" {
		return period
	}
	return strings.ToUpper(period[:1]) + period[1:]
}

// truncate takes the length first so it can be piped in templates
func truncate(length int, s string) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	return string(runes[:length]) + "..."
}
