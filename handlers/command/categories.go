package command

import (
	"context"
	"strings"

	"ot-tickets/db"
	"ot-tickets/handlers"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// parseRoleIDs accepts role mentions and raw ids, separated by spaces or
// commas.
func parseRoleIDs(raw string) []string {
	var ids []string

	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ' ' || r == ',' }) {
		part = strings.TrimPrefix(part, "<@&")
		part = strings.TrimSuffix(part, ">")

		if part != "" {
			ids = append(ids, part)
		}
	}

	return ids
}

func categories(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error {
	if !engine.IsElevated(i.Member, i.Member.User.ID, "categories", i.ChannelID) {
		return handlers.Ephemeral(s, i, handlers.FriendlyError(tickets.ErrPermissionDenied))
	}

	action := opts["action"].StringValue()

	name := ""

	if opt, ok := opts["name"]; ok {
		name = opt.StringValue()
	}

	roles := ""

	if opt, ok := opts["roles"]; ok {
		roles = opt.StringValue()
	}

	switch action {
	case "add":
		if name == "" {
			return handlers.Ephemeral(s, i, "Please provide a category name!")
		}

		if config.FindCategory(i.GuildID, name) != nil {
			return handlers.Ephemeral(s, i, "A config-declared category already uses that name. Config categories always win; pick another name.")
		}

		created, err := database.CreateCategory(ctx, i.GuildID, name, parseRoleIDs(roles))

		if err != nil {
			logger.Error("Error creating category", zap.Error(err), zap.String("name", name))
			return handlers.Ephemeral(s, i, "Couldn't create the category. Please try again later!")
		}

		if !created {
			return handlers.Ephemeral(s, i, "A category with that name already exists!")
		}

		return handlers.Ephemeral(s, i, "✅ Category **"+name+"** created.")
	case "roles":
		if name == "" {
			return handlers.Ephemeral(s, i, "Please provide a category name!")
		}

		err := database.UpdateCategoryRoles(ctx, i.GuildID, name, parseRoleIDs(roles))

		if err != nil {
			logger.Error("Error updating category roles", zap.Error(err), zap.String("name", name))
			return handlers.Ephemeral(s, i, handlers.FriendlyError(err))
		}

		return handlers.Ephemeral(s, i, "✅ Roles for **"+name+"** updated.")
	case "remove":
		if name == "" {
			return handlers.Ephemeral(s, i, "Please provide a category name!")
		}

		removed, err := database.DeleteCategory(ctx, i.GuildID, name)

		if err != nil {
			logger.Error("Error deleting category", zap.Error(err), zap.String("name", name))
			return handlers.Ephemeral(s, i, "Couldn't delete the category. It may still have active tickets.")
		}

		if !removed {
			return handlers.Ephemeral(s, i, "No database category with that name exists!")
		}

		return handlers.Ephemeral(s, i, "🗑️ Category **"+name+"** removed.")
	case "list":
		stored, err := database.CategoriesByGuild(ctx, i.GuildID)

		if err != nil {
			logger.Error("Error listing categories", zap.Error(err), zap.String("guildId", i.GuildID))
			return handlers.Ephemeral(s, i, "Couldn't list categories. Please try again later!")
		}

		var b strings.Builder

		for pi := range config.Panels {
			if config.Panels[pi].GuildID != i.GuildID {
				continue
			}

			for _, cat := range config.Panels[pi].Categories {
				b.WriteString("• **" + cat.Name + "** (config)\n")
			}
		}

		for _, cat := range stored {
			b.WriteString("• **" + cat.Name + "** (database, " + mentionRoles(cat.Roles) + ")\n")
		}

		if b.Len() == 0 {
			return handlers.Ephemeral(s, i, "No categories configured!")
		}

		return handlers.Ephemeral(s, i, b.String())
	}

	return handlers.Ephemeral(s, i, "Unknown action!")
}

func mentionRoles(roleIDs []string) string {
	if len(roleIDs) == 0 {
		return "no roles"
	}

	mentions := make([]string, 0, len(roleIDs))

	for _, id := range roleIDs {
		mentions = append(mentions, "<@&"+id+">")
	}

	return strings.Join(mentions, " ")
}
