package mailbox

import (
	"context"
	"fmt"
	netmail "net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"mailpilot/internal/models"
)

// Send delivers a message through SendGrid. A non-empty threadID sets the
// In-Reply-To and References headers so the mail client threads the reply;
// an empty threadID roots a new conversation at the generated message id.
func (s *Service) Send(ctx context.Context, to, subject, body, threadID string) (models.SendReceipt, error) {
	if s.apiKey == "" {
		return models.SendReceipt{}, fmt.Errorf("SendGrid API key not configured")
	}

	toName, toAddr := splitAddress(to)

	from := sgmail.NewEmail(s.fromName, s.fromEmail)
	recipient := sgmail.NewEmail(toName, toAddr)
	message := sgmail.NewSingleEmail(from, subject, recipient, body, body)

	messageID := fmt.Sprintf("%s@%s", uuid.NewString(), addressDomain(s.fromEmail))
	message.SetHeader("Message-ID", "<"+messageID+">")

	if threadID != "" {
		message.SetHeader("In-Reply-To", "<"+threadID+">")
		message.SetHeader("References", "<"+threadID+">")
	} else {
		threadID = messageID
	}

	client := sendgrid.NewSendClient(s.apiKey)
	response, err := client.SendWithContext(ctx, message)
	if err != nil {
		return models.SendReceipt{}, fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		return models.SendReceipt{}, fmt.Errorf("SendGrid API error: status %d, body: %s", response.StatusCode, response.Body)
	}

	s.logger.Debug().Str("to", toAddr).Str("thread_id", threadID).Msg("Email sent")

	return models.SendReceipt{
		MessageID: messageID,
		ThreadID:  threadID,
	}, nil
}

// splitAddress parses an RFC 5322 address, tolerating a bare address or an
// unparseable string by passing it through verbatim.
func splitAddress(raw string) (name, addr string) {
	parsed, err := netmail.ParseAddress(raw)
	if err != nil {
		return "", strings.TrimSpace(raw)
	}
	return parsed.Name, parsed.Address
}

func addressDomain(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 && i < len(addr)-1 {
		return addr[i+1:]
	}
	return "mailpilot.local"
}
