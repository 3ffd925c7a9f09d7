// Package registry reconciles the two sources of ticket categories, the
// static config file and the database, and owns the panel messages users
// open tickets from.
package registry

import (
	"context"
	"fmt"
	"time"

	"ot-tickets/db"
	"ot-tickets/monitoring"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Session is the slice of the chat platform the registry needs.
type Session interface {
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Store is the slice of the database the registry needs.
type Store interface {
	CategoryByName(ctx context.Context, guildID, name string) (*db.Category, error)
	SavePanel(ctx context.Context, p *db.Panel) error
	PanelsByGuild(ctx context.Context, guildID string) ([]*db.Panel, error)
	ReplacePanelMessage(ctx context.Context, guildID, oldMessageID, newMessageID string) error
	DeletePanelsByConfig(ctx context.Context, guildID, configName string) error
}

// purgeThrottle paces message deletion during panel redeploys and cleanup so
// a busy channel does not trip the platform rate limiter.
const purgeThrottle = time.Second

type Registry struct {
	cfg       *types.Config
	store     Store
	s         Session
	botUserID string
	logger    *zap.Logger
}

func New(cfg *types.Config, store Store, s Session, botUserID string, logger *zap.Logger) *Registry {
	return &Registry{
		cfg:       cfg,
		store:     store,
		s:         s,
		botUserID: botUserID,
		logger:    logger,
	}
}

// Resolve looks a category up by name. Config-declared categories win over
// database-defined ones of the same name; database categories surface with
// their role list and nothing else.
func (r *Registry) Resolve(ctx context.Context, guildID, name string) (*types.Category, error) {
	if cat := r.cfg.FindCategory(guildID, name); cat != nil {
		return cat, nil
	}

	stored, err := r.store.CategoryByName(ctx, guildID, name)

	if err != nil {
		return nil, err
	}

	return &types.Category{
		Name:  stored.Name,
		Roles: stored.Roles,
	}, nil
}

// resolveOptions turns category names into dropdown options, skipping names
// that no longer resolve anywhere.
func (r *Registry) resolveOptions(ctx context.Context, guildID string, names []string) []discordgo.SelectMenuOption {
	var options []discordgo.SelectMenuOption

	for _, name := range names {
		cat, err := r.Resolve(ctx, guildID, name)

		if err != nil {
			r.logger.Warn("Skipping unresolvable panel category", zap.String("category", name), zap.String("guildId", guildID), zap.Error(err))
			continue
		}

		option := discordgo.SelectMenuOption{
			Label:       cat.Name,
			Value:       cat.Name,
			Description: cat.Description,
		}

		if cat.Emoji != "" {
			option.Emoji = discordgo.ComponentEmoji{Name: cat.Emoji}
		}

		options = append(options, option)
	}

	return options
}

func panelComponents(options []discordgo.SelectMenuOption) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				discordgo.SelectMenu{
					CustomID:    tickets.DropdownID,
					Placeholder: "Select a category to open a ticket...",
					Options:     options,
				},
			},
		},
	}
}

func panelEmbed(title, description string) *discordgo.MessageEmbed {
	if title == "" {
		title = "🎫 Support Tickets"
	}

	if description == "" {
		description = "Select a category below to open a ticket."
	}

	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       0xFFFFFF,
	}
}

// DeployPanels posts every config-declared panel for the guild, purging
// earlier bot messages from each panel channel first. Stored rows for the
// same config panel are replaced, not appended to.
func (r *Registry) DeployPanels(ctx context.Context, guildID string) (int, error) {
	deployed := 0

	for i := range r.cfg.Panels {
		panel := &r.cfg.Panels[i]

		if panel.GuildID != guildID {
			continue
		}

		options := r.resolveOptions(ctx, guildID, panel.CategoryNames())

		if len(options) == 0 {
			r.logger.Warn("Panel has no resolvable categories, skipping", zap.String("panel", panel.Name), zap.String("guildId", guildID))
			continue
		}

		if err := r.purgeBotMessages(panel.ChannelID); err != nil {
			return deployed, fmt.Errorf("error purging panel channel: %w", err)
		}

		msg, err := r.s.ChannelMessageSendComplex(panel.ChannelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{panelEmbed(panel.Title, panel.Description)},
			Components: panelComponents(options),
		})

		if err != nil {
			return deployed, fmt.Errorf("error posting panel %q: %w", panel.Name, err)
		}

		if err := r.store.DeletePanelsByConfig(ctx, guildID, panel.Name); err != nil {
			return deployed, err
		}

		err = r.store.SavePanel(ctx, &db.Panel{
			GuildID:     guildID,
			ChannelID:   panel.ChannelID,
			MessageID:   msg.ID,
			Title:       panel.Title,
			Description: panel.Description,
			Categories:  panel.CategoryNames(),
			ConfigName:  panel.Name,
		})

		if err != nil {
			return deployed, err
		}

		deployed++
	}

	return deployed, nil
}

// RefreshPanels re-renders every stored panel message in place. A panel that
// cannot be refreshed is counted and skipped; refresh never takes the other
// panels down with it.
func (r *Registry) RefreshPanels(ctx context.Context, guildID string) (int, error) {
	panels, err := r.store.PanelsByGuild(ctx, guildID)

	if err != nil {
		return 0, err
	}

	refreshed := 0

	for _, panel := range panels {
		options := r.resolveOptions(ctx, guildID, panel.Categories)

		if len(options) == 0 {
			monitoring.PanelRefreshFailures.Inc()
			r.logger.Warn("Panel has no resolvable categories", zap.String("messageId", panel.MessageID), zap.String("guildId", guildID))
			continue
		}

		embeds := []*discordgo.MessageEmbed{panelEmbed(panel.Title, panel.Description)}
		components := panelComponents(options)

		_, err := r.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
			ID:         panel.MessageID,
			Channel:    panel.ChannelID,
			Embeds:     embeds,
			Components: components,
		})

		if err == nil {
			refreshed++
			continue
		}

		r.logger.Warn("Could not edit panel message, reposting", zap.Error(err), zap.String("messageId", panel.MessageID))

		msg, serr := r.s.ChannelMessageSendComplex(panel.ChannelID, &discordgo.MessageSend{
			Embeds:     embeds,
			Components: components,
		})

		if serr != nil {
			monitoring.PanelRefreshFailures.Inc()
			r.logger.Error("Could not repost panel message", zap.Error(serr), zap.String("messageId", panel.MessageID))
			continue
		}

		if rerr := r.store.ReplacePanelMessage(ctx, guildID, panel.MessageID, msg.ID); rerr != nil {
			r.logger.Error("Could not repoint panel row", zap.Error(rerr), zap.String("messageId", panel.MessageID))
		}

		refreshed++
	}

	return refreshed, nil
}

// Cleanup removes the bot's stray messages from a channel, leaving other
// authors' messages alone.
func (r *Registry) Cleanup(channelID string) (int, error) {
	return r.purgeBotMessagesCounted(channelID)
}

func (r *Registry) purgeBotMessages(channelID string) error {
	_, err := r.purgeBotMessagesCounted(channelID)

	return err
}

func (r *Registry) purgeBotMessagesCounted(channelID string) (int, error) {
	deleted := 0

	for {
		msgs, err := r.s.ChannelMessages(channelID, 100, "", "", "")

		if err != nil {
			return deleted, fmt.Errorf("error listing channel messages: %w", err)
		}

		progressed := false

		for _, msg := range msgs {
			if msg.Author == nil || msg.Author.ID != r.botUserID {
				continue
			}

			if err := r.s.ChannelMessageDelete(channelID, msg.ID); err != nil {
				return deleted, fmt.Errorf("error deleting message: %w", err)
			}

			deleted++
			progressed = true

			time.Sleep(purgeThrottle)
		}

		if !progressed || len(msgs) < 100 {
			return deleted, nil
		}
	}
}
