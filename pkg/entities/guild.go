package entities

import (
	"encoding/json"
	"fmt"
)

// Document is the root of the persisted store file.
type Document struct {
	// Version is the schema version of the document.
	Version int `json:"version"`

	// Guilds is the per-guild configuration, keyed by guild ID.
	Guilds map[string]*GuildConfig `json:"guilds"`
}

// NewDocument creates an empty document at the current schema version.
func NewDocument() *Document {
	return &Document{
		Version: 1,
		Guilds:  make(map[string]*GuildConfig),
	}
}

// GuildConfig is the configuration for a guild.
type GuildConfig struct {
	// TicketSystem is the ticketing configuration.
	TicketSystem *GuildTicketConfig `json:"ticketSystem,omitempty"`
}

// PanelConfig is the per-language ticket panel configuration.
type PanelConfig struct {
	// CategoryID is the ID of the category the panel channel lives under.
	CategoryID string `json:"categoryId"`

	// ChannelID is the ID of the channel that hosts the panel message.
	ChannelID string `json:"channelId"`

	// LogChannelID is the ID of the log destination for this panel.
	LogChannelID string `json:"logChannelId"`

	// PanelMessageID is the ID of the panel message itself.
	PanelMessageID string `json:"panelMessageId"`
}

// GuildTicketConfig is the ticketing state of a guild: the support role, the
// per-language panels, and the open tickets.
//
// On the wire the panels are stored as sibling keys of supportRoleId, keyed
// by language, so the type carries its own JSON codec.
type GuildTicketConfig struct {
	// SupportRoleID is the ID of the role that handles tickets.
	SupportRoleID string

	// Panels is the per-language panel configuration, keyed by language.
	Panels map[string]*PanelConfig

	// OpenTickets maps "lang:userId" to the ID of the open ticket thread.
	OpenTickets map[string]string

	// TicketsByThread maps a thread ID to its ticket record.
	TicketsByThread map[string]*TicketRecord
}

// Keys with a fixed meaning inside the ticketSystem object. Every other key
// is a language panel.
const (
	keySupportRoleID   = "supportRoleId"
	keyOpenTickets     = "openTickets"
	keyTicketsByThread = "ticketsByThread"
)

// NewGuildTicketConfig creates an empty ticket configuration.
func NewGuildTicketConfig() *GuildTicketConfig {
	return &GuildTicketConfig{
		Panels:          make(map[string]*PanelConfig),
		OpenTickets:     make(map[string]string),
		TicketsByThread: make(map[string]*TicketRecord),
	}
}

// Panel returns the panel configuration for the language, or nil.
func (c *GuildTicketConfig) Panel(lang string) *PanelConfig {
	return c.Panels[lang]
}

// OpenThreadID returns the ID of the open ticket thread for the (lang, user)
// pair, or the empty string.
func (c *GuildTicketConfig) OpenThreadID(lang, userID string) string {
	return c.OpenTickets[OpenTicketKey(lang, userID)]
}

// PutTicket records an open ticket, keeping openTickets and ticketsByThread
// in step.
func (c *GuildTicketConfig) PutTicket(threadID string, rec *TicketRecord) {
	c.OpenTickets[OpenTicketKey(rec.Lang, rec.OwnerID)] = threadID
	c.TicketsByThread[threadID] = rec
}

// RemoveTicket deletes the ticket for the thread from both sides of the
// index. It is a no-op for an unknown thread.
func (c *GuildTicketConfig) RemoveTicket(threadID string) {
	rec, ok := c.TicketsByThread[threadID]
	if !ok {
		return
	}
	delete(c.TicketsByThread, threadID)
	delete(c.OpenTickets, OpenTicketKey(rec.Lang, rec.OwnerID))
}

// MarshalJSON renders the config with each language panel as a sibling key
// of supportRoleId, per the persisted layout.
func (c *GuildTicketConfig) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.Panels)+3)
	out[keySupportRoleID] = c.SupportRoleID
	out[keyOpenTickets] = c.OpenTickets
	out[keyTicketsByThread] = c.TicketsByThread
	for lang, panel := range c.Panels {
		if lang == keySupportRoleID || lang == keyOpenTickets || lang == keyTicketsByThread {
			return nil, fmt.Errorf("panel language %q collides with a reserved key", lang)
		}
		out[lang] = panel
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON: fixed keys are decoded into
// their fields and every remaining key is treated as a language panel.
func (c *GuildTicketConfig) UnmarshalJSON(data []byte) error {
	raw := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*c = *NewGuildTicketConfig()

	for key, val := range raw {
		switch key {
		case keySupportRoleID:
			if err := json.Unmarshal(val, &c.SupportRoleID); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
		case keyOpenTickets:
			if err := json.Unmarshal(val, &c.OpenTickets); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
		case keyTicketsByThread:
			if err := json.Unmarshal(val, &c.TicketsByThread); err != nil {
				return fmt.Errorf("decoding %s: %w", key, err)
			}
		default:
			panel := new(PanelConfig)
			if err := json.Unmarshal(val, panel); err != nil {
				return fmt.Errorf("decoding panel %s: %w", key, err)
			}
			c.Panels[key] = panel
		}
	}

	if c.OpenTickets == nil {
		c.OpenTickets = make(map[string]string)
	}
	if c.TicketsByThread == nil {
		c.TicketsByThread = make(map[string]*TicketRecord)
	}
	return nil
}
