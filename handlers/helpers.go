// Package handlers holds the reply helpers shared by the interaction
// handler packages.
package handlers

import (
	"errors"
	"fmt"

	"ot-tickets/db"
	"ot-tickets/tickets"
	"ot-tickets/utils"

	"github.com/bwmarrin/discordgo"
)

// FriendlyError maps an engine error to the message shown to the user.
// Anything unrecognised gets the generic apology; the real error goes to the
// logs, never to the user.
func FriendlyError(err error) string {
	var cooldown *tickets.CooldownError
	var capped *tickets.CapError

	switch {
	case errors.Is(err, tickets.ErrPermissionDenied):
		return "You don't have permission to do that!"
	case errors.As(err, &cooldown):
		return "You are on cooldown. Please wait ``" + cooldown.Remaining.String() + "`` before creating another ticket."
	case errors.As(err, &capped):
		return fmt.Sprintf("You already have an open ticket for this category: <#%s>", capped.ExistingChannelID)
	case errors.Is(err, db.ErrNotFound):
		return "This doesn't seem to exist (anymore)! Please contact our support team if you believe this is a mistake."
	}

	return "An error occurred. Please contact our support team about this!"
}

// Ephemeral sends an ephemeral reply to an interaction.
func Ephemeral(s *discordgo.Session, i *discordgo.Interaction, content string) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Parse: []discordgo.AllowedMentionType{},
			},
		},
	})
}

// DeferEphemeral acknowledges an interaction whose handler does slow work.
// Follow up with EditResponse.
func DeferEphemeral(s *discordgo.Session, i *discordgo.Interaction) error {
	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

// EditResponse replaces a deferred or earlier response's content.
func EditResponse(s *discordgo.Session, i *discordgo.Interaction, content string) error {
	_, err := s.InteractionResponseEdit(i, &discordgo.WebhookEdit{
		Content: utils.Stringp(content),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{},
		},
	})

	return err
}
