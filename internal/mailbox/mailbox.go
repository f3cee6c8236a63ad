// Package mailbox defines the mail-provider surface the runners depend on
// and an IMAP-fetch / SendGrid-send implementation of it.
package mailbox

import (
	"context"
	"time"

	"mailpilot/internal/models"
)

// Client is the mailbox contract consumed by the response and campaign
// runners. Implementations return an empty result set (not an error) when
// the mailbox simply has nothing new.
type Client interface {
	// ListUnread returns unread messages, newest last. A non-zero since
	// restricts the search to mail received after that time; a positive
	// max caps the number of results.
	ListUnread(ctx context.Context, since time.Time, max int) ([]models.Inbound, error)

	// Send delivers a message. A non-empty threadID threads the message
	// into an existing conversation; an empty one starts a new thread and
	// the receipt carries the id assigned to it.
	Send(ctx context.Context, to, subject, body, threadID string) (models.SendReceipt, error)

	// MarkRead flags a previously fetched message as read.
	MarkRead(ctx context.Context, id string) error
}
