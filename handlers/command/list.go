package command

import (
	"context"
	"fmt"

	"ot-tickets/db"
	"ot-tickets/handlers"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// list shows the guild's open tickets to staff, and only the caller's own
// tickets to everyone else.
func list(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	var (
		entries []*db.Ticket
		err     error
		title   string
	)

	if engine.IsElevated(i.Member, i.Member.User.ID, "list", i.ChannelID) {
		entries, err = database.OpenTicketsByGuild(ctx, i.GuildID)
		title = "🎫 Open Tickets"
	} else {
		entries, err = database.TicketsByGuildUser(ctx, i.GuildID, i.Member.User.ID)
		title = "🎫 Your Tickets"
	}

	if err != nil {
		logger.Error("Error listing tickets", zap.Error(err), zap.String("guildId", i.GuildID))
		return handlers.Ephemeral(s, i, "Couldn't list tickets. Please try again later!")
	}

	if len(entries) == 0 {
		return handlers.Ephemeral(s, i, "No open tickets!")
	}

	var fields []*discordgo.MessageEmbedField

	for _, t := range entries {
		if t.Status != db.StatusOpen {
			continue
		}

		fields = append(fields, &discordgo.MessageEmbedField{
			Name:  t.Category,
			Value: fmt.Sprintf("<#%s> by <@%s>, opened <t:%d:R>", t.ChannelID, t.UserID, t.CreatedAt.Unix()),
		})

		// Field cap per embed.
		if len(fields) == 25 {
			break
		}
	}

	if len(fields) == 0 {
		return handlers.Ephemeral(s, i, "No open tickets!")
	}

	return s.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:  title,
					Color:  0xFFFFFF,
					Fields: fields,
				},
			},
			Flags: discordgo.MessageFlagsEphemeral,
			AllowedMentions: &discordgo.MessageAllowedMentions{
				Parse: []discordgo.AllowedMentionType{},
			},
		},
	})
}
