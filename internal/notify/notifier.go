// Package notify delivers owner notifications for company events.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/companyhub/companyhub/internal/model"
)

// Sentinel errors for notification delivery.
var (
	ErrNoRecipient = errors.New("account has no email address")
	ErrSendFailed  = errors.New("failed to send notification")
)

// Message is a rendered email ready for delivery.
type Message struct {
	ID      string
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
	Date    time.Time
}

// Sender hands a rendered message to a delivery channel.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

// EmailNotifier renders company notifications and delivers them through a Sender.
type EmailNotifier struct {
	sender Sender
	from   string
	logger *slog.Logger
	now    func() time.Time
}

// NewEmailNotifier creates an EmailNotifier.
func NewEmailNotifier(sender Sender, from string, logger *slog.Logger) *EmailNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmailNotifier{
		sender: sender,
		from:   from,
		logger: logger,
		now:    time.Now,
	}
}

// NotifyCompanyCreated tells the owner that a company was registered in their name.
// The call is synchronous and returns the delivery error unchanged in its chain.
func (n *EmailNotifier) NotifyCompanyCreated(ctx context.Context, account *model.Account, company *model.Company) error {
	if account == nil || account.Email == "" {
		return ErrNoRecipient
	}

	msg := &Message{
		ID:      ulid.Make().String(),
		From:    n.from,
		To:      account.Email,
		Subject: companyCreatedSubject,
		Text:    renderCompanyCreatedText(account, company),
		HTML:    renderCompanyCreatedHTML(account, company),
		Date:    n.now().UTC(),
	}

	if err := n.sender.Send(ctx, msg); err != nil {
		n.logger.Warn("notification_failed",
			"message_id", msg.ID,
			"company_id", company.ID,
			"owner_id", account.ID,
			"error", err,
		)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	n.logger.Info("notification_sent",
		"message_id", msg.ID,
		"company_id", company.ID,
		"owner_id", account.ID,
	)
	return nil
}
