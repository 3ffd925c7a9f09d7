package command

import (
	"context"

	"ot-tickets/db"
	"ot-tickets/handlers"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// alerts toggles the caller's new-ticket DM subscription. Staff only; the
// alert stream leaks ticket existence to anyone subscribed.
func alerts(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "alerts", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	subscribed, err := database.ToggleAlert(ctx, i.GuildID, i.Member.User.ID)

	if err != nil {
		logger.Error("Error toggling alerts", zap.Error(err), zap.String("userId", i.Member.User.ID))
		return handlers.Ephemeral(s, i, "Couldn't update your alert subscription. Please try again later!")
	}

	if subscribed {
		return handlers.Ephemeral(s, i, "🔔 You will now receive a DM when a ticket is opened.")
	}

	return handlers.Ephemeral(s, i, "🔕 You will no longer receive new-ticket DMs.")
}
