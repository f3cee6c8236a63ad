package mailbox

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"

	"mailpilot/internal/config"
	"mailpilot/internal/models"
)

// Service talks to a real mailbox: unread mail is fetched over IMAP and
// outgoing mail goes through SendGrid. Each operation opens its own IMAP
// connection; the caller is expected to run operations sequentially.
type Service struct {
	imapAddr string
	username string
	password string

	apiKey    string
	fromName  string
	fromEmail string

	logger zerolog.Logger
}

// NewService creates a mailbox service from application configuration.
func NewService(cfg *config.Config, logger zerolog.Logger) *Service {
	return &Service{
		imapAddr:  cfg.IMAPHost + ":" + cfg.IMAPPort,
		username:  cfg.IMAPUsername,
		password:  cfg.IMAPPassword,
		apiKey:    cfg.SendGridAPIKey,
		fromName:  cfg.FromName,
		fromEmail: cfg.FromEmail,
		logger:    logger,
	}
}

// connect dials the IMAP server and authenticates. The caller must Logout
// the returned client.
func (s *Service) connect() (*imapclient.Client, error) {
	client, err := imapclient.DialTLS(s.imapAddr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to IMAP %s: %w", s.imapAddr, err)
	}

	if err := client.Login(s.username, s.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, fmt.Errorf("IMAP authentication failed for %s: %w", s.username, err)
	}

	return client, nil
}

// ListUnread searches INBOX for unseen messages, optionally restricted to
// mail received after since, and returns parsed message data.
func (s *Service) ListUnread(_ context.Context, since time.Time, max int) ([]models.Inbound, error) {
	client, err := s.connect()
	if err != nil {
		return nil, err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return nil, fmt.Errorf("failed to select INBOX: %w", err)
	}

	criteria := &imap.SearchCriteria{
		NotFlag: []imap.Flag{imap.FlagSeen},
	}
	if !since.IsZero() {
		criteria.Since = since
	}

	searchData, err := client.UIDSearch(criteria, nil).Wait()
	if err != nil {
		return nil, fmt.Errorf("failed to search unread messages: %w", err)
	}

	uids := searchData.AllUIDs()
	if len(uids) == 0 {
		return nil, nil
	}
	if max > 0 && len(uids) > max {
		// Keep the oldest unread messages on a capped fetch so the first
		// run works through the backlog in order.
		uids = uids[:max]
	}

	bodySection := &imap.FetchItemBodySection{Peek: true}
	fetchCmd := client.Fetch(imap.UIDSetNum(uids...), &imap.FetchOptions{
		Envelope:    true,
		UID:         true,
		BodySection: []*imap.FetchItemBodySection{bodySection},
	})

	var messages []models.Inbound
	for {
		msg := fetchCmd.Next()
		if msg == nil {
			break
		}

		buf, err := msg.Collect()
		if err != nil {
			s.logger.Warn().Err(err).Msg("Failed to collect IMAP message, skipping")
			continue
		}

		messages = append(messages, s.inboundFromBuffer(buf, bodySection))
	}

	if err := fetchCmd.Close(); err != nil {
		return messages, fmt.Errorf("failed to fetch unread messages: %w", err)
	}

	return messages, nil
}

// MarkRead adds the \Seen flag to a previously fetched message. The id is
// the IMAP UID captured at fetch time.
func (s *Service) MarkRead(_ context.Context, id string) error {
	uid, err := strconv.ParseUint(id, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid message id %q: %w", id, err)
	}

	client, err := s.connect()
	if err != nil {
		return err
	}
	defer func() { _ = client.Logout().Wait() }()

	if _, err := client.Select("INBOX", nil).Wait(); err != nil {
		return fmt.Errorf("failed to select INBOX: %w", err)
	}

	storeCmd := client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
		Op:     imap.StoreFlagsAdd,
		Silent: true,
		Flags:  []imap.Flag{imap.FlagSeen},
	}, nil)

	if err := storeCmd.Close(); err != nil {
		return fmt.Errorf("failed to mark message %s read: %w", id, err)
	}
	return nil
}

// inboundFromBuffer converts a fetched IMAP message into the runner-facing
// message shape.
func (s *Service) inboundFromBuffer(buf *imapclient.FetchMessageBuffer, section *imap.FetchItemBodySection) models.Inbound {
	in := models.Inbound{
		ID: strconv.FormatUint(uint64(buf.UID), 10),
	}

	var messageID string
	if buf.Envelope != nil {
		in.Subject = buf.Envelope.Subject
		messageID = trimAngles(buf.Envelope.MessageID)

		if len(buf.Envelope.From) > 0 {
			from := buf.Envelope.From[0]
			if from.Name != "" {
				in.Sender = fmt.Sprintf("%s <%s>", from.Name, from.Addr())
			} else {
				in.Sender = from.Addr()
			}
		}
	}

	if raw := buf.FindBodySection(section); raw != nil {
		body, inReplyTo, references := parseBody(raw)
		in.Body = body
		in.ThreadID = threadIDFromHeaders(messageID, inReplyTo, references)
	}
	if in.ThreadID == "" {
		in.ThreadID = messageID
	}
	in.Snippet = snippet(in.Body, 100)

	return in
}

// parseBody extracts the text/plain part and threading headers from a raw
// RFC 5322 message using go-message.
func parseBody(raw []byte) (body, inReplyTo, references string) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Unparseable MIME: fall back to the raw payload.
		return string(raw), "", ""
	}
	defer mr.Close()

	inReplyTo = mr.Header.Get("In-Reply-To")
	references = mr.Header.Get("References")

	for {
		part, err := mr.NextPart()
		if err != nil {
			break
		}

		if h, ok := part.Header.(*mail.InlineHeader); ok {
			contentType, _, _ := h.ContentType()
			if !strings.HasPrefix(contentType, "text/plain") {
				continue
			}
			data, readErr := io.ReadAll(part.Body)
			if readErr != nil {
				continue
			}
			body = string(data)
		}
	}

	return body, inReplyTo, references
}

// threadIDFromHeaders derives a stable conversation id: the first id in the
// References chain is the thread root; a direct reply falls back to
// In-Reply-To, and a fresh message roots a new thread at its own id.
func threadIDFromHeaders(messageID, inReplyTo, references string) string {
	if refs := strings.Fields(references); len(refs) > 0 {
		return trimAngles(refs[0])
	}
	if fields := strings.Fields(inReplyTo); len(fields) > 0 {
		return trimAngles(fields[0])
	}
	return messageID
}

func trimAngles(id string) string {
	return strings.Trim(strings.TrimSpace(id), "<>")
}

// snippet collapses whitespace and truncates the body for display.
func snippet(body string, max int) string {
	collapsed := strings.Join(strings.Fields(body), " ")
	if len(collapsed) <= max {
		return collapsed
	}
	return collapsed[:max] + "..."
}
