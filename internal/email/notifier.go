package email

import (
	"bytes"
	"context"
	"embed"
	"html/template"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

//go:embed templates/*.html
var templatesFS embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templatesFS, "templates/application_confirmation.html"))

const SubmissionDateLayout = "January 02, 2006"

type Outcome int

const (
	OutcomeSent Outcome = iota
	OutcomeSkipped
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSent:
		return "sent"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// Confirmation is what the applicant is told about a submitted application.
type Confirmation struct {
	ApplicationID int
	To            string
	ApplicantName string
	JobTitle      string
	Company       string
	SubmittedAt   time.Time
}

func (c Confirmation) Subject() string {
	return "Job Application Confirmation - " + c.JobTitle
}

func (c Confirmation) SubmissionDate() string {
	return c.SubmittedAt.Format(SubmissionDateLayout)
}

// Sender delivers an html email.
type Sender interface {
	SendHTMLEmail(ctx context.Context, from, to Address, subject, html string) error
}

type NotifierOptions struct {
	MockMode bool
	From     Address
}

// Notifier sends application confirmations, or records them in the mailbox
// when mock mode is on. Delivery problems are logged and never returned.
type Notifier struct {
	sender   Sender
	mailbox  Mailbox
	from     Address
	mockMode atomic.Bool
	log      zerolog.Logger
	now      func() time.Time
}

func NewNotifier(sender Sender, mailbox Mailbox, opts NotifierOptions, log zerolog.Logger) *Notifier {
	n := &Notifier{
		sender:  sender,
		mailbox: mailbox,
		from:    opts.From,
		log:     log,
		now:     time.Now,
	}
	n.mockMode.Store(opts.MockMode)
	return n
}

func (n *Notifier) EnableMockMode()  { n.mockMode.Store(true) }
func (n *Notifier) DisableMockMode() { n.mockMode.Store(false) }
func (n *Notifier) IsMockMode() bool { return n.mockMode.Load() }

func (n *Notifier) Mailbox() Mailbox {
	return n.mailbox
}

func (n *Notifier) NotifyApplicationSubmitted(ctx context.Context, c Confirmation) Outcome {
	if c.To == "" {
		n.log.Info().
			Int("application_id", c.ApplicationID).
			Str("applicant_name", c.ApplicantName).
			Msg("job application confirmation email skipped - no email provided")
		return OutcomeSkipped
	}
	var err error
	if n.IsMockMode() {
		err = n.mockSend(ctx, c)
	} else {
		err = n.send(ctx, c)
	}
	if err != nil {
		n.log.Error().
			Err(err).
			Int("application_id", c.ApplicationID).
			Str("email", c.To).
			Msg("failed to send job application confirmation email")
		return OutcomeFailed
	}
	return OutcomeSent
}

func (n *Notifier) send(ctx context.Context, c Confirmation) error {
	if n.sender == nil {
		return errors.New("no email sender configured")
	}
	body, err := RenderConfirmation(c)
	if err != nil {
		return err
	}
	if err := n.sender.SendHTMLEmail(ctx, n.from, Address{Name: c.ApplicantName, Email: c.To}, c.Subject(), body); err != nil {
		return errors.Wrap(err, "unable to send confirmation email")
	}
	n.log.Info().
		Int("application_id", c.ApplicationID).
		Str("email", c.To).
		Str("applicant_name", c.ApplicantName).
		Str("job_title", c.JobTitle).
		Msg("job application confirmation email sent")
	return nil
}

func (n *Notifier) mockSend(ctx context.Context, c Confirmation) error {
	if n.mailbox == nil {
		return errors.New("no mock mailbox configured")
	}
	rec := Record{
		To:             c.To,
		Subject:        c.Subject(),
		ApplicantName:  c.ApplicantName,
		JobTitle:       c.JobTitle,
		Company:        c.Company,
		ApplicationID:  c.ApplicationID,
		SubmissionDate: c.SubmissionDate(),
		SentAt:         n.now().UTC().Format(time.RFC3339),
		Status:         RecordStatusMocked,
		Type:           RecordTypeApplicationConfirmation,
	}
	n.log.Info().
		Str("to", rec.To).
		Str("subject", rec.Subject).
		Int("application_id", rec.ApplicationID).
		Msg("MOCK: job application confirmation email")
	return n.mailbox.Append(ctx, rec)
}

// RenderConfirmation renders the html body of the confirmation email.
func RenderConfirmation(c Confirmation) (string, error) {
	var buf bytes.Buffer
	err := confirmationTmpl.Execute(&buf, map[string]interface{}{
		"ApplicantName":  c.ApplicantName,
		"JobTitle":       c.JobTitle,
		"Company":        c.Company,
		"ApplicationID":  c.ApplicationID,
		"SubmissionDate": c.SubmissionDate(),
		"Year":           c.SubmittedAt.Year(),
	})
	if err != nil {
		return "", errors.Wrap(err, "unable to render confirmation email")
	}
	return buf.String(), nil
}
