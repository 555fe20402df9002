package email

import (
	"context"
	"errors"
	"io/ioutil"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	err   error
	calls []sentEmail
}

type sentEmail struct {
	from, to Address
	subject  string
	html     string
}

func (f *fakeSender) SendHTMLEmail(_ context.Context, from, to Address, subject, html string) error {
	f.calls = append(f.calls, sentEmail{from, to, subject, html})
	return f.err
}

type brokenMailbox struct{ MemoryMailbox }

func (b *brokenMailbox) Append(context.Context, Record) error {
	return errors.New("disk full")
}

func confirmation() Confirmation {
	return Confirmation{
		ApplicationID: 42,
		To:            "john@example.com",
		ApplicantName: "John Doe",
		JobTitle:      "Software Engineer",
		Company:       "Tech Corp",
		SubmittedAt:   time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC),
	}
}

func newTestNotifier(sender Sender, mailbox Mailbox, mock bool) *Notifier {
	n := NewNotifier(sender, mailbox, NotifierOptions{MockMode: mock, From: Address{Name: "Jobs", Email: "no-reply@jobs.test"}}, zerolog.New(ioutil.Discard))
	n.now = func() time.Time { return time.Date(2026, 3, 5, 14, 0, 1, 0, time.UTC) }
	return n
}

func TestNotifier_MockModeRecordsEmail(t *testing.T) {
	mailbox := NewMemoryMailbox()
	sender := &fakeSender{}
	n := newTestNotifier(sender, mailbox, true)

	outcome := n.NotifyApplicationSubmitted(context.Background(), confirmation())
	assert.Equal(t, OutcomeSent, outcome)
	assert.Empty(t, sender.calls)

	records, err := mailbox.All(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, Record{
		To:             "john@example.com",
		Subject:        "Job Application Confirmation - Software Engineer",
		ApplicantName:  "John Doe",
		JobTitle:       "Software Engineer",
		Company:        "Tech Corp",
		ApplicationID:  42,
		SubmissionDate: "March 05, 2026",
		SentAt:         "2026-03-05T14:00:01Z",
		Status:         RecordStatusMocked,
		Type:           "job_application_confirmation",
	}, records[0])
}

func TestNotifier_SkipsWithoutEmail(t *testing.T) {
	mailbox := NewMemoryMailbox()
	sender := &fakeSender{}
	n := newTestNotifier(sender, mailbox, true)

	c := confirmation()
	c.To = ""
	assert.Equal(t, OutcomeSkipped, n.NotifyApplicationSubmitted(context.Background(), c))

	n.DisableMockMode()
	assert.Equal(t, OutcomeSkipped, n.NotifyApplicationSubmitted(context.Background(), c))

	records, _ := mailbox.All(context.Background())
	assert.Empty(t, records)
	assert.Empty(t, sender.calls)
}

func TestNotifier_RealModeSends(t *testing.T) {
	sender := &fakeSender{}
	n := newTestNotifier(sender, NewMemoryMailbox(), false)

	assert.Equal(t, OutcomeSent, n.NotifyApplicationSubmitted(context.Background(), confirmation()))
	require.Len(t, sender.calls, 1)
	call := sender.calls[0]
	assert.Equal(t, "Job Application Confirmation - Software Engineer", call.subject)
	assert.Equal(t, "john@example.com", call.to.Email)
	assert.Equal(t, "no-reply@jobs.test", call.from.Email)
	assert.Contains(t, call.html, "Dear John Doe")
	assert.Contains(t, call.html, "#42")
	assert.Contains(t, call.html, "March 05, 2026")
	assert.Contains(t, call.html, "Tech Corp Hiring Team")
}

func TestNotifier_FailuresAreReportedNotReturned(t *testing.T) {
	sender := &fakeSender{err: errors.New("smtp down")}
	n := newTestNotifier(sender, &brokenMailbox{}, false)
	assert.Equal(t, OutcomeFailed, n.NotifyApplicationSubmitted(context.Background(), confirmation()))

	n.EnableMockMode()
	assert.Equal(t, OutcomeFailed, n.NotifyApplicationSubmitted(context.Background(), confirmation()))
}

func TestNotifier_MissingSender(t *testing.T) {
	n := newTestNotifier(nil, nil, false)
	assert.Equal(t, OutcomeFailed, n.NotifyApplicationSubmitted(context.Background(), confirmation()))
	n.EnableMockMode()
	assert.Equal(t, OutcomeFailed, n.NotifyApplicationSubmitted(context.Background(), confirmation()))
}

func TestNotifier_ToggleMockMode(t *testing.T) {
	n := newTestNotifier(&fakeSender{}, NewMemoryMailbox(), false)
	assert.False(t, n.IsMockMode())
	n.EnableMockMode()
	assert.True(t, n.IsMockMode())
	n.DisableMockMode()
	assert.False(t, n.IsMockMode())
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "sent", OutcomeSent.String())
	assert.Equal(t, "skipped", OutcomeSkipped.String())
	assert.Equal(t, "failed", OutcomeFailed.String())
}
