package command

import (
	"context"
	"fmt"
	"strings"

	"ot-tickets/db"
	"ot-tickets/handlers"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

func panel(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "panel", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	panels, err := database.PanelsByGuild(ctx, i.GuildID)

	if err != nil {
		logger.Error("Error listing panels", zap.Error(err), zap.String("guildId", i.GuildID))
		return handlers.Ephemeral(s, i, "Couldn't list panels. Please try again later!")
	}

	if len(panels) == 0 {
		return handlers.Ephemeral(s, i, "No panels deployed. Use `/ticket deploy` to post the configured panels.")
	}

	var b strings.Builder

	for _, p := range panels {
		source := "ad-hoc"

		if p.ConfigName != "" {
			source = "config: " + p.ConfigName
		}

		b.WriteString(fmt.Sprintf("• <#%s> (%s) with %d categorie(s)\n", p.ChannelID, source, len(p.Categories)))
	}

	return handlers.Ephemeral(s, i, b.String())
}

func deploy(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "deploy", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	// Purging the panel channels is throttled, so this can take a while.
	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	deployed, err := reg.DeployPanels(ctx, i.GuildID)

	if err != nil {
		logger.Error("Error deploying panels", zap.Error(err), zap.String("guildId", i.GuildID))
		return handlers.EditResponse(s, i, "Couldn't deploy the panels. Please try again later!")
	}

	if deployed == 0 {
		return handlers.EditResponse(s, i, "No panels are configured for this server.")
	}

	return handlers.EditResponse(s, i, fmt.Sprintf("✅ Deployed %d panel(s).", deployed))
}

func refresh(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "refresh", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	refreshed, err := reg.RefreshPanels(ctx, i.GuildID)

	if err != nil {
		logger.Error("Error refreshing panels", zap.Error(err), zap.String("guildId", i.GuildID))
		return handlers.EditResponse(s, i, "Couldn't refresh the panels. Please try again later!")
	}

	return handlers.EditResponse(s, i, fmt.Sprintf("♻️ Refreshed %d panel(s).", refreshed))
}

func cleanup(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "cleanup", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	channelID := i.ChannelID

	if opt, ok := opts["channel"]; ok {
		channelID = opt.ChannelValue(nil).ID
	}

	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	deleted, err := reg.Cleanup(channelID)

	if err != nil {
		logger.Error("Error cleaning up channel", zap.Error(err), zap.String("channelId", channelID))
		return handlers.EditResponse(s, i, "Couldn't finish the cleanup. Please try again later!")
	}

	return handlers.EditResponse(s, i, fmt.Sprintf("🧹 Removed %d message(s).", deleted))
}

// setup runs first-run provisioning: the database schema, the open and
// closed category channels, then the configured panels.
func setup(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "setup", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	if err := database.InitSchema(ctx); err != nil {
		logger.Error("Error initialising schema", zap.Error(err))
		return handlers.EditResponse(s, i, "Couldn't initialise the database schema.")
	}

	if err := engine.EnsureWorkspace(i.GuildID); err != nil {
		logger.Error("Error ensuring ticket categories", zap.Error(err), zap.String("guildId", i.GuildID))
		return handlers.EditResponse(s, i, "Couldn't create the ticket category channels.")
	}

	deployed, err := reg.DeployPanels(ctx, i.GuildID)

	if err != nil {
		logger.Error("Error deploying panels during setup", zap.Error(err), zap.String("guildId", i.GuildID))
		return handlers.EditResponse(s, i, "Set up the schema and categories, but couldn't deploy the panels.")
	}

	return handlers.EditResponse(s, i, fmt.Sprintf("✅ Setup complete. Deployed %d panel(s).", deployed))
}
