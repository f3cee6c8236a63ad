package models

import "time"

// SelfSender is the sender marker persisted for messages written by this
// system rather than by a customer.
const SelfSender = "You"

// Message represents a single email inside a conversation thread
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Sender    string    `json:"sender"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	MessageID string    `json:"message_id"`
	IsDraft   bool      `json:"is_draft"`
}

// IsSelf reports whether the message was sent by this system
func (m Message) IsSelf() bool {
	return m.Sender == SelfSender
}

// Thread represents one email conversation keyed by the provider thread id
type Thread struct {
	CreatedAt       time.Time  `json:"created_at"`
	Messages        []Message  `json:"messages"`
	CustomerEmail   string     `json:"customer_email"`
	Terminal        bool       `json:"terminal"`
	MarketingOrigin bool       `json:"is_marketing_origin"`
	LastSender      string     `json:"last_sender"`
	Expired         bool       `json:"expired"`
	ExpiredAt       *time.Time `json:"expired_at,omitempty"`
}

// LastActivity returns the timestamp of the most recent message, or the
// thread creation time when the thread has no messages yet.
func (t *Thread) LastActivity() time.Time {
	if len(t.Messages) > 0 {
		return t.Messages[len(t.Messages)-1].Timestamp
	}
	return t.CreatedAt
}

// ThreadSummary is a read-only snapshot of a thread's state
type ThreadSummary struct {
	ThreadID        string    `json:"thread_id"`
	CustomerEmail   string    `json:"customer_email"`
	CreatedAt       time.Time `json:"created_at"`
	MessageCount    int       `json:"message_count"`
	Terminal        bool      `json:"terminal"`
	MarketingOrigin bool      `json:"is_marketing_origin"`
	LastSender      string    `json:"last_sender"`
}

// Inbound is an unread message fetched from the mailbox provider
type Inbound struct {
	ID       string `json:"id"`
	ThreadID string `json:"thread_id"`
	Subject  string `json:"subject"`
	Sender   string `json:"sender"`
	Body     string `json:"body"`
	Snippet  string `json:"snippet"`
}

// Draft is a reply waiting for human approval before sending
type Draft struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	ThreadID string `json:"thread_id,omitempty"`
	Context  string `json:"context,omitempty"`
}

// SendReceipt is returned by the mailbox provider after a confirmed send
type SendReceipt struct {
	MessageID string `json:"id"`
	ThreadID  string `json:"thread_id"`
}

// LedgerEntry records a confirmed campaign send to one recipient
type LedgerEntry struct {
	SentAt time.Time `json:"sent_at"`
	Status string    `json:"status"`
}

// Recipient is one parsed entry from the customer list file
type Recipient struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Cursor tracks the last successfully processed response cycle
type Cursor struct {
	LastMessageID string     `json:"last_message_id"`
	LastCheckTime *time.Time `json:"last_check_time,omitempty"`
	FirstRun      bool       `json:"first_run"`
}
