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

func roleGiver(s *discordgo.Session, i *discordgo.Interaction, data discordgo.MessageComponentInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error {
	result, err := engine.GrantRole(ctx, i.GuildID, i.ChannelID, arg, i.Member, i.Member.User.ID)

	if err != nil {
		logger.Error("Error granting role", zap.Error(err), zap.String("giverId", arg), zap.String("userId", i.Member.User.ID))
		return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
	}

	if result.AlreadyHeld {
		return handlers.Ephemeral(s, i, "The user already has the **"+result.RoleName+"** role!")
	}

	if result.DisableButton && i.Message != nil {
		updated := tickets.DisableButton(i.Message.Components, data.CustomID, result.RoleName+" (given)")

		_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         i.Message.ID,
			Channel:    i.Message.ChannelID,
			Components: updated,
		})

		if err != nil {
			logger.Error("Error disabling role giver button", zap.Error(err), zap.String("messageId", i.Message.ID))
		}
	}

	return handlers.Ephemeral(s, i, "✅ Granted the **"+result.RoleName+"** role!")
}
