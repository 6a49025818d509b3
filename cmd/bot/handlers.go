package main

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/vixenbot/vixen/pkg/ticketing"
)

// actorFromInteraction reduces the interaction's member to the identity the
// ticket system works with.
func actorFromInteraction(i *discordgo.InteractionCreate) ticketing.Actor {
	actor := ticketing.Actor{}
	if i.Member != nil {
		actor.RoleIDs = i.Member.Roles
		if i.Member.User != nil {
			actor.ID = i.Member.User.ID
			actor.Username = i.Member.User.Username
		}
	}
	return actor
}

// openTicketButton answers a panel button press with the ticket creation
// modal. The language rides the button's custom ID and is forwarded on the
// modal's custom ID so the submission knows which panel it belongs to.
func openTicketButton(a IApp, i *discordgo.InteractionCreate) error {
	_, lang := ticketing.SplitCustomID(i.MessageComponentData().CustomID)

	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("%s:%s", ticketing.CreateTicketModalID, lang),
			Title:    "Open a support ticket",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  ticketing.FieldSubject,
							Label:     "Subject",
							Style:     discordgo.TextInputShort,
							Required:  true,
							MaxLength: 100,
						},
					},
				},
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  ticketing.FieldDescription,
							Label:     "Description",
							Style:     discordgo.TextInputParagraph,
							Required:  false,
							MaxLength: 2000,
						},
					},
				},
			},
		},
	})
}

func createTicketModal(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()

	ev := ticketing.ModalSubmitEvent{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CustomID:  data.CustomID,
		Actor:     actorFromInteraction(i),
		Fields:    modalFields(data),
	}

	if err := deferEphemeral(a, i); err != nil {
		return fmt.Errorf("acknowledging interaction: %w", err)
	}

	if err := a.Orchestrator().HandleModalSubmitEvent(context.Background(), ev); err != nil {
		return err
	}

	return respondEphemeral(a, i, "Your ticket has been created.")
}

func acceptTicketButton(a IApp, i *discordgo.InteractionCreate) error {
	ev := ticketing.ButtonEvent{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CustomID:  i.MessageComponentData().CustomID,
		Actor:     actorFromInteraction(i),
	}

	if err := a.Orchestrator().HandleButtonEvent(context.Background(), ev); err != nil {
		return err
	}

	return respondEphemeral(a, i, "You have accepted this ticket.")
}

func closeTicketButton(a IApp, i *discordgo.InteractionCreate) error {
	ev := ticketing.ButtonEvent{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CustomID:  i.MessageComponentData().CustomID,
		Actor:     actorFromInteraction(i),
	}

	// Archiving the ticket can outlive the interaction acknowledgement
	// window, so acknowledge first and follow up when done.
	if err := deferEphemeral(a, i); err != nil {
		return fmt.Errorf("acknowledging interaction: %w", err)
	}

	if err := a.Orchestrator().HandleButtonEvent(context.Background(), ev); err != nil {
		return err
	}

	return respondEphemeral(a, i, "Ticket closed.")
}

// closeRequestButton answers the confirmation-path close button with the
// reason modal.
func closeRequestButton(a IApp, i *discordgo.InteractionCreate) error {
	return a.Session().InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: ticketing.CloseConfirmModalID,
			Title:    "Close this ticket",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{
					Components: []discordgo.MessageComponent{
						discordgo.TextInput{
							CustomID:  ticketing.FieldReason,
							Label:     "Reason",
							Style:     discordgo.TextInputParagraph,
							Required:  false,
							MaxLength: 1000,
						},
					},
				},
			},
		},
	})
}

func closeConfirmModal(a IApp, i *discordgo.InteractionCreate) error {
	data := i.ModalSubmitData()

	ev := ticketing.ModalSubmitEvent{
		GuildID:   i.GuildID,
		ChannelID: i.ChannelID,
		CustomID:  data.CustomID,
		Actor:     actorFromInteraction(i),
		Fields:    modalFields(data),
	}

	if err := deferEphemeral(a, i); err != nil {
		return fmt.Errorf("acknowledging interaction: %w", err)
	}

	if err := a.Orchestrator().HandleModalSubmitEvent(context.Background(), ev); err != nil {
		return err
	}

	return respondEphemeral(a, i, "Ticket closed.")
}

// modalFields flattens a modal submission into field values keyed by the
// inputs' custom IDs.
func modalFields(data discordgo.ModalSubmitInteractionData) map[string]string {
	fields := make(map[string]string)
	for _, row := range data.Components {
		actionsRow, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, component := range actionsRow.Components {
			input, ok := component.(*discordgo.TextInput)
			if !ok {
				continue
			}
			fields[input.CustomID] = input.Value
		}
	}
	return fields
}
