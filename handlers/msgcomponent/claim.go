package msgcomponent

import (
	"context"

	"ot-tickets/handlers"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func claim(s *discordgo.Session, i *discordgo.Interaction, data discordgo.MessageComponentInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error {
	channelID := arg

	if channelID == "" {
		channelID = i.ChannelID
	}

	err := engine.Claim(ctx, i.GuildID, channelID, i.Member, i.Member.User.ID)

	if err != nil {
		logger.Error("Error claiming ticket", zap.Error(err), zap.String("channelId", channelID), zap.String("userId", i.Member.User.ID))
		return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
	}

	return handlers.Ephemeral(s, i, "📌 You have claimed this ticket!")
}
