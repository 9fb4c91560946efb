package notifier

import (
	"context"

	"github.com/rdesitter/gym-tracker/internal/domain"
)

// Sender delivers one mail message. Implementations either talk to an SMTP relay directly or
// hand the message to the mail worker through the queue.
type Sender interface {
	Send(ctx context.Context, msg domain.MailMessage) error
}
