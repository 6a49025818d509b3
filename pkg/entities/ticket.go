package entities

import (
	"fmt"
	"time"
)

// TicketRecord is the persisted state of one open ticket. It is created only
// after the backing thread exists and deleted when the ticket closes.
type TicketRecord struct {
	// OwnerID is the ID of the user that opened the ticket.
	OwnerID string `json:"ownerId"`

	// Lang is the language of the panel the ticket was opened from.
	Lang string `json:"lang"`

	// CreatedAt is the time that the ticket was opened.
	CreatedAt time.Time `json:"createdAt"`

	// PanelChannelID is the ID of the channel that hosts the panel.
	PanelChannelID string `json:"panelChannelId"`

	// Subject is the subject the user supplied when opening the ticket.
	Subject string `json:"subject"`

	// Description is the free-form description supplied by the user.
	Description string `json:"description,omitempty"`

	// LogMessageID is the ID of the log entry message, when the log
	// destination is a plain text channel.
	LogMessageID string `json:"logMessageId,omitempty"`

	// LogThreadID is the ID of the log thread, when the log destination is a
	// forum.
	LogThreadID string `json:"logThreadId,omitempty"`

	// LogStarterMessageID is the ID of the starter message of the log thread.
	LogStarterMessageID string `json:"logStarterMessageId,omitempty"`

	// AcceptedByIDs is the ordered list of staff members that accepted the
	// ticket. It never shrinks while the ticket is open.
	AcceptedByIDs []string `json:"acceptedByIds,omitempty"`

	// AcceptedAt is the time of the first acceptance. It is set exactly once.
	AcceptedAt *time.Time `json:"acceptedAt,omitempty"`

	// ClosedBy is the ID of the user that closed the ticket. Set at
	// close-time for the archive, just before the record is deleted.
	ClosedBy string `json:"closedBy,omitempty"`

	// CloseReason is the reason given on the confirmation path.
	CloseReason string `json:"closeReason,omitempty"`
}

// OpenTicketKey is the openTickets map key for a (lang, user) pair.
func OpenTicketKey(lang, userID string) string {
	return fmt.Sprintf("%s:%s", lang, userID)
}

// AddAcceptor appends the user to the acceptor list if not already present.
// It reports whether the list changed.
func (t *TicketRecord) AddAcceptor(userID string) bool {
	for _, id := range t.AcceptedByIDs {
		if id == userID {
			return false
		}
	}
	t.AcceptedByIDs = append(t.AcceptedByIDs, userID)
	return true
}

// Accept records an acceptance by the user. It reports whether this was the
// first acceptance, in which case AcceptedAt is set to now.
func (t *TicketRecord) Accept(userID string, now time.Time) (first bool) {
	t.AddAcceptor(userID)
	if t.AcceptedAt == nil {
		ts := now.UTC()
		t.AcceptedAt = &ts
		return true
	}
	return false
}
