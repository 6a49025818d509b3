package ticketing

import "strings"

// Control and modal custom IDs. Language-scoped IDs carry the language
// after a colon, e.g. "ticket_create:en".
const (
	// OpenTicketButtonID is the ID of the panel button. The hosting
	// adapter answers it with the creation modal; the orchestrator never
	// sees it.
	OpenTicketButtonID = "ticket_open"

	// CreateTicketModalID is the ID of the creation modal submission.
	CreateTicketModalID = "ticket_create"

	// AcceptTicketButtonID is the ID of the accept button.
	AcceptTicketButtonID = "ticket_accept"

	// CloseTicketButtonID is the ID of the fast-path close button.
	CloseTicketButtonID = "ticket_close"

	// CloseRequestButtonID is the ID of the confirmation-path close button.
	// The hosting adapter answers it with the reason modal.
	CloseRequestButtonID = "ticket_close_request"

	// CloseConfirmModalID is the ID of the close confirmation modal
	// submission.
	CloseConfirmModalID = "ticket_close_confirm"
)

// Modal field keys.
const (
	FieldSubject     = "subject"
	FieldDescription = "description"
	FieldReason      = "reason"
)

// Actor is the identity and capability set of the user behind an event.
type Actor struct {
	// ID is the user's ID.
	ID string

	// Username is the user's display name.
	Username string

	// RoleIDs is the user's role set.
	RoleIDs []string
}

// HasRole reports whether the actor holds the role.
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, id := range a.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// ButtonEvent is a button press, reduced to the fields the ticket system
// needs.
type ButtonEvent struct {
	// GuildID is the guild the press happened in.
	GuildID string

	// ChannelID is the channel or thread the pressed control lives in.
	ChannelID string

	// CustomID is the control's custom ID.
	CustomID string

	// Actor is the pressing user.
	Actor Actor
}

// ModalSubmitEvent is a modal submission, reduced to the fields the ticket
// system needs.
type ModalSubmitEvent struct {
	// GuildID is the guild the submission happened in.
	GuildID string

	// ChannelID is the channel or thread the modal was opened from.
	ChannelID string

	// CustomID is the modal's custom ID.
	CustomID string

	// Actor is the submitting user.
	Actor Actor

	// Fields is the submitted field values, keyed by field custom ID.
	Fields map[string]string
}

// SplitCustomID separates a custom ID into its base and its optional
// language argument.
func SplitCustomID(customID string) (base, arg string) {
	base, arg, _ = strings.Cut(customID, ":")
	return base, arg
}
