package msgcomponent

import (
	"context"
	"fmt"
	"strings"

	"ot-tickets/handlers"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// stripButtons removes every component from an admin menu message once its
// decision has been taken.
func stripButtons(s *discordgo.Session, msg *discordgo.Message, logger *zap.Logger) {
	_, err := s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    msg.ChannelID,
		Components: []discordgo.MessageComponent{},
	})

	if err != nil {
		logger.Error("Error stripping menu buttons", zap.Error(err), zap.String("messageId", msg.ID))
	}
}

func approve(s *discordgo.Session, i *discordgo.Interaction, data discordgo.MessageComponentInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error {
	channelID := arg

	if channelID == "" {
		channelID = i.ChannelID
	}

	if err := handlers.DeferEphemeral(s, i); err != nil {
		return fmt.Errorf("error deferring response: %w", err)
	}

	given, failed, err := engine.Approve(ctx, i.GuildID, channelID, i.Member, i.Member.User.ID)

	if err != nil {
		logger.Error("Error approving ticket", zap.Error(err), zap.String("channelId", channelID), zap.String("userId", i.Member.User.ID))
		return handlers.EditResponse(s, i, handlers.FriendlyError(err))
	}

	stripButtons(s, i.Message, logger)

	summary := "✅ Ticket approved."

	if len(given) > 0 {
		summary += " Roles given: " + strings.Join(given, ", ") + "."
	}

	if len(failed) > 0 {
		summary += " Could not give: " + strings.Join(failed, ", ") + "."
	}

	return handlers.EditResponse(s, i, summary)
}
