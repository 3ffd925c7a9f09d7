package command

import (
	"context"
	"fmt"

	"ot-tickets/db"
	"ot-tickets/handlers"
	"ot-tickets/handlers/msgcomponent"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func create(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	categoryOpt, ok := opts["category"]

	if !ok {
		return handlers.Ephemeral(s, i, "Please specify a category!")
	}

	cat, err := reg.Resolve(ctx, i.GuildID, categoryOpt.StringValue())

	if err != nil {
		logger.Error("Error resolving category", zap.Error(err), zap.String("category", categoryOpt.StringValue()), zap.String("guildId", i.GuildID))
		return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
	}

	if len(cat.Form) > 0 {
		return msgcomponent.ShowFormModal(s, i, cat)
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
