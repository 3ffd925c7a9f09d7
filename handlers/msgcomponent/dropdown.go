package msgcomponent

import (
	"context"
	"fmt"

	"ot-tickets/handlers"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// ShowFormModal responds to an interaction with the category's form modal.
// The ticket row is created only when the modal is submitted.
func ShowFormModal(s *discordgo.Session, i *discordgo.Interaction, cat *types.Category) error {
	rows := make([]discordgo.MessageComponent, 0, len(cat.Form))

	for _, field := range cat.Form {
		style := discordgo.TextInputShort
		maxLength := 1000

		if field.Kind == "paragraph" {
			style = discordgo.TextInputParagraph
			maxLength = 4000
		}

		rows = append(rows, discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.TextInput{
					CustomID:    field.ID,
					Label:       field.Label,
					Placeholder: field.Placeholder,
					Required:    field.Required,
					Style:       style,
					MaxLength:   maxLength,
				},
			},
		})
	}

	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID:   tickets.FormPrefix + ":" + cat.Name,
			Title:      "🎫 " + cat.Name,
			Components: rows,
		},
	})
}

func dropdown(s *discordgo.Session, i *discordgo.Interaction, data discordgo.MessageComponentInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error {
	// Reset the select menu so the same option can be picked again later.
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Embeds:     i.Message.Embeds,
		Components: i.Message.Components,
		ID:         i.Message.ID,
		Channel:    i.Message.ChannelID,
	})

	if err != nil {
		logger.Error("Error resetting select menu", zap.Error(err), zap.String("channelId", i.Message.ChannelID), zap.String("customId", data.CustomID))
	}

	if len(data.Values) == 0 {
		return fmt.Errorf("dropdown interaction carried no value")
	}

	cat, err := reg.Resolve(ctx, i.GuildID, data.Values[0])

	if err != nil {
		logger.Error("Error resolving dropdown category", zap.Error(err), zap.String("category", data.Values[0]), zap.String("guildId", i.GuildID))
		return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
	}

	if len(cat.Form) > 0 {
		return ShowFormModal(s, i, cat)
	}

	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	t, err := engine.Create(ctx, i.GuildID, i.Member.User, cat.Name, map[string]string{})

	if err != nil {
		logger.Error("Error creating ticket", zap.Error(err), zap.String("category", cat.Name), zap.String("userId", i.Member.User.ID))
		return handlers.EditResponse(s, i, handlers.FriendlyError(err))
	}

	return handlers.EditResponse(s, i, "🎫 Your ticket has been created: <#"+t.ChannelID+">")
}
