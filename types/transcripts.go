package types

import "github.com/bwmarrin/discordgo"

type Attachment struct {
	ID       string   `json:"id"`        // ID of the attachment within the ticket
	URL      string   `json:"url"`       // URL of the attachment
	ProxyURL string   `json:"proxy_url"` // URL (cached) of the attachment
	Name     string   `json:"name"`      // Name of the attachment
	Errors   []string `json:"errors"`    // Non-fatal errors that occurred while saving the attachment
}

type Message struct {
	ID          string                    `json:"id"`
	Content     string                    `json:"content"`
	Embeds      []*discordgo.MessageEmbed `json:"embeds"`
	AuthorID    string                    `json:"author_id"`
	Attachments []Attachment              `json:"attachments"`
}

type FileTranscriptData struct {
	GuildID     string            `json:"guild_id"`
	ChannelID   string            `json:"channel_id"`
	UserID      string            `json:"user_id"`
	CloseUserID string            `json:"close_user_id"`
	Category    string            `json:"category"`
	FormData    map[string]string `json:"form_data"`
	CreatedAt   string            `json:"created_at"`
	Messages    []Message         `json:"messages"`
}
