package tickets

import (
	"context"
	"errors"
	"net/http"
	"time"

	"ot-tickets/db"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"github.com/redis/go-redis/v9"
)

// Session is the slice of the chat platform the lifecycle engine needs.
// *discordgo.Session satisfies it; tests substitute a fake.
type Session interface {
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	Channel(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildChannels(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Channel, error)
	ChannelDelete(channelID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelEdit(channelID string, data *discordgo.ChannelEdit, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	ChannelMessageSend(channelID, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	ChannelMessagePin(channelID, messageID string, options ...discordgo.RequestOption) error
	ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	ChannelMessagesPinned(channelID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error)
	GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error)
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error)
}

// Store is the slice of the ticket store the engine needs.
type Store interface {
	InsertTicket(ctx context.Context, t *db.Ticket) error
	TicketByChannel(ctx context.Context, channelID string) (*db.Ticket, error)
	TicketsByGuildUser(ctx context.Context, guildID, userID string) ([]*db.Ticket, error)
	DeleteTicket(ctx context.Context, channelID string) (bool, error)
	SetTicketStatus(ctx context.Context, channelID, status string) error
	AlertSubscribers(ctx context.Context, guildID string) ([]string, error)
}

// Keyval is the slice of the redis client the engine needs, for cooldown
// windows and transcript encryption keys. *redis.Client satisfies it.
type Keyval interface {
	TTL(ctx context.Context, key string) *redis.DurationCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// CategoryResolver reconciles config-declared and database-defined
// categories behind a single lookup.
type CategoryResolver interface {
	Resolve(ctx context.Context, guildID, name string) (*types.Category, error)
}

// isUnknownChannel reports whether an error means the target channel no
// longer exists. The target having been deleted by someone else is a normal
// outcome, not a failure.
func isUnknownChannel(err error) bool {
	var re *discordgo.RESTError

	if !errors.As(err, &re) {
		return false
	}

	if re.Message != nil && re.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}

	return re.Response != nil && re.Response.StatusCode == http.StatusNotFound
}
