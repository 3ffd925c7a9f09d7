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

func deny(s *discordgo.Session, i *discordgo.Interaction, data discordgo.MessageComponentInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error {
	channelID := arg

	if channelID == "" {
		channelID = i.ChannelID
	}

	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	dmSent, err := engine.Deny(ctx, i.GuildID, channelID, i.Member, i.Member.User.ID)

	if err != nil {
		logger.Error("Error denying ticket", zap.Error(err), zap.String("channelId", channelID), zap.String("userId", i.Member.User.ID))
		return handlers.EditResponse(s, i, handlers.FriendlyError(err))
	}

	stripButtons(s, i.Message, logger)

	summary := "❌ Ticket denied. It will close shortly."

	if !dmSent {
		summary += " The user could not be notified by DM."
	}

	return handlers.EditResponse(s, i, summary)
}
