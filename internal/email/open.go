package email

import (
	"context"

	"github.com/hiringboard/job-board/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const RedisMailboxKey = "mock_emails"

// OpenMailbox returns the mock mailbox selected by the configuration and a
// function releasing its resources.
func OpenMailbox(ctx context.Context, cfg config.Config) (Mailbox, func(), error) {
	switch cfg.MockEmailStore {
	case config.MockEmailStoreRedis:
		rdb, err := NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, func() {}, err
		}
		return NewRedisMailbox(rdb, RedisMailboxKey), func() { rdb.Close() }, nil
	case config.MockEmailStoreFile, "":
		return NewFileMailbox(cfg.MockEmailsPath), func() {}, nil
	default:
		return nil, func() {}, errors.Errorf("unknown mock email store %q", cfg.MockEmailStore)
	}
}

// NewNotifierFromConfig wires the transactional email client and the mock
// mailbox into a Notifier.
func NewNotifierFromConfig(cfg config.Config, mailbox Mailbox, log zerolog.Logger) *Notifier {
	client := NewClient(cfg.EmailAPIKey, cfg.NoReplyEmail, cfg.SiteName)
	return NewNotifier(client, mailbox, NotifierOptions{
		MockMode: cfg.MailMockMode,
		From:     client.NoReplySender(),
	}, log)
}
