package modal

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

// formValues flattens a modal submission into field id to value.
func formValues(data discordgo.ModalSubmitInteractionData) map[string]string {
	form := map[string]string{}

	for _, component := range data.Components {
		row, ok := component.(*discordgo.ActionsRow)

		if !ok {
			continue
		}

		for _, inner := range row.Components {
			if input, ok := inner.(*discordgo.TextInput); ok {
				form[input.CustomID] = input.Value
			}
		}
	}

	return form
}

func ticketForm(s *discordgo.Session, i *discordgo.Interaction, data discordgo.ModalSubmitInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error {
	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	t, err := engine.Create(ctx, i.GuildID, i.Member.User, arg, formValues(data))

	if err != nil {
		logger.Error("Error creating ticket from form", zap.Error(err), zap.String("category", arg), zap.String("userId", i.Member.User.ID))
		return handlers.EditResponse(s, i, handlers.FriendlyError(err))
	}

	return handlers.EditResponse(s, i, "🎫 Your ticket has been created: <#"+t.ChannelID+">")
}
