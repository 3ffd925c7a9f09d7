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

func closeTicket(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	err := engine.Close(ctx, i.GuildID, i.ChannelID, i.Member, i.Member.User.ID)

	if err != nil {
		logger.Error("Error closing ticket", zap.Error(err), zap.String("channelId", i.ChannelID), zap.String("userId", i.Member.User.ID))
		return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
	}

	return handlers.Ephemeral(s, i, "🔒 This ticket will close in a few seconds...")
}

// menu posts the admin decision buttons for the ticket in this channel.
// Approval buttons only appear when the category actually grants roles.
func menu(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "menu", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	t, err := database.TicketByChannel(ctx, i.ChannelID)

	if err != nil {
		logger.Error("Error finding ticket for menu", zap.Error(err), zap.String("channelId", i.ChannelID))
		return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
	}

	cat, err := reg.Resolve(ctx, i.GuildID, t.Category)

	if err != nil {
		logger.Error("Error resolving menu category", zap.Error(err), zap.String("category", t.Category))
		return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
	}

	approvalGated := len(cat.Roles) > 0

	_, err = s.ChannelMessageSendComplex(i.ChannelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "🛠️ Admin Menu",
				Description: "Decide what happens to this ticket.",
				Color:       0xFFFFFF,
				Fields: []*discordgo.MessageEmbedField{
					{Name: "Category", Value: t.Category, Inline: true},
					{Name: "Opened by", Value: "<@" + t.UserID + ">", Inline: true},
				},
			},
		},
		Components: tickets.MenuComponents(i.ChannelID, approvalGated),
	})

	if err != nil {
		logger.Error("Error posting admin menu", zap.Error(err), zap.String("channelId", i.ChannelID))
		return handlers.Ephemeral(s, i, "Couldn't post the admin menu. Please try again later!")
	}

	return handlers.Ephemeral(s, i, "🛠️ Admin menu posted.")
}
