package tickets

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"ot-tickets/db"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"github.com/infinitybotlist/eureka/crypto"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigFastest

// fetchAttachmentBlob downloads a message's attachments for archival.
// Oversized attachments are kept in the transcript by URL only, with the
// reason recorded on the entry.
func (e *Engine) fetchAttachmentBlob(msg *discordgo.Message) ([]types.Attachment, map[string]*bytes.Buffer, error) {
	var attachments []types.Attachment
	var bufs = map[string]*bytes.Buffer{}

	for _, attachment := range msg.Attachments {
		if attachment.Size > 16_000_000 {
			attachments = append(attachments, types.Attachment{
				ID:       attachment.ID,
				Name:     attachment.Filename,
				URL:      attachment.URL,
				ProxyURL: attachment.ProxyURL,
				Errors:   []string{"Attachment is too large to be stored in the transcript."},
			})
			continue
		}

		url := attachment.URL

		if attachment.ProxyURL != "" {
			url = attachment.ProxyURL
		}

		resp, err := http.Get(url)

		if err != nil {
			e.logger.Error("Error downloading attachment", zap.Error(err), zap.String("url", url))
			return attachments, nil, fmt.Errorf("error downloading attachment: %w", err)
		}

		bt, err := io.ReadAll(resp.Body)

		resp.Body.Close()

		if err != nil {
			e.logger.Error("Error reading attachment", zap.Error(err), zap.String("url", url))
			return attachments, nil, fmt.Errorf("error reading attachment: %w", err)
		}

		bufs[attachment.ID] = bytes.NewBuffer(bt)

		attachments = append(attachments, types.Attachment{
			ID:     attachment.ID,
			Name:   attachment.Filename,
			Errors: []string{},
		})
	}

	return attachments, bufs, nil
}

// collectMessages pages through the channel history oldest-known-first and
// downloads attachment blobs along the way.
func (e *Engine) collectMessages(channelID string) ([]types.Message, map[string]*bytes.Buffer, error) {
	var messages []types.Message
	var lastMessageID string

	attachmentBuf := map[string]*bytes.Buffer{}

	for {
		msgs, err := e.s.ChannelMessages(channelID, 100, lastMessageID, "", "")

		if err != nil {
			return nil, nil, fmt.Errorf("error getting messages: %w", err)
		}

		for _, msg := range msgs {
			attachments, bufs, err := e.fetchAttachmentBlob(msg)

			if err != nil {
				return nil, nil, fmt.Errorf("error creating attachment blob: %w", err)
			}

			for k, v := range bufs {
				attachmentBuf[k] = v
			}

			authorID := ""

			if msg.Author != nil {
				authorID = msg.Author.ID
			}

			messages = append(messages, types.Message{
				ID:          msg.ID,
				AuthorID:    authorID,
				Content:     msg.Content,
				Embeds:      msg.Embeds,
				Attachments: attachments,
			})
		}

		if len(msgs) < 100 {
			break
		}

		lastMessageID = msgs[len(msgs)-1].ID
	}

	return messages, attachmentBuf, nil
}

// storeAttachments encrypts the downloaded blobs to the file storage path.
// The key lives in redis, keyed by channel, so the transcript viewer can
// decrypt later.
func (e *Engine) storeAttachments(ctx context.Context, channelID string, bufs map[string]*bytes.Buffer) error {
	if len(bufs) == 0 {
		return nil
	}

	if e.rdb == nil {
		return fmt.Errorf("no redis client, cannot store attachment key")
	}

	dir := e.cfg.Database.FileStoragePath + "/" + channelID

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("error removing folder: %w", err)
	}

	if err := os.MkdirAll(dir, 0775); err != nil {
		return fmt.Errorf("error creating folder: %w", err)
	}

	encKey := crypto.RandString(4096)

	keyHash := sha256.New()
	keyHash.Write([]byte(encKey))

	err := e.rdb.Set(ctx, "transcript_key:"+channelID, encKey, 0).Err()

	if err != nil {
		return fmt.Errorf("error storing attachment key: %w", err)
	}

	for id, buf := range bufs {
		c, err := aes.NewCipher(keyHash.Sum(nil))

		if err != nil {
			return fmt.Errorf("error creating cipher: %w", err)
		}

		gcm, err := cipher.NewGCM(c)

		if err != nil {
			return err
		}

		aesNonce := make([]byte, gcm.NonceSize())

		if _, err = io.ReadFull(rand.Reader, aesNonce); err != nil {
			return err
		}

		sealed := gcm.Seal(aesNonce, aesNonce, buf.Bytes(), nil)

		if err := os.WriteFile(dir+"/"+id+".encBlob", sealed, 0775); err != nil {
			return fmt.Errorf("error writing attachment blob: %w", err)
		}
	}

	return nil
}

// sendTranscript archives the channel history and delivers the transcript
// file to the log channel and to the ticket owner's DMs. The owner DM is
// best effort; the log channel delivery is not.
func (e *Engine) sendTranscript(ctx context.Context, t *db.Ticket, closedBy string) error {
	messages, attachmentBuf, err := e.collectMessages(t.ChannelID)

	if err != nil {
		return err
	}

	if err := e.storeAttachments(ctx, t.ChannelID, attachmentBuf); err != nil {
		// Messages still make a useful transcript without the blobs.
		e.logger.Error("Error storing attachments", zap.Error(err), zap.String("channelId", t.ChannelID))
	}

	transcriptData := types.FileTranscriptData{
		GuildID:     t.GuildID,
		ChannelID:   t.ChannelID,
		UserID:      t.UserID,
		CloseUserID: closedBy,
		Category:    t.Category,
		FormData:    t.FormData,
		CreatedAt:   t.CreatedAt.Format(time.RFC3339),
		Messages:    messages,
	}

	transcript, err := json.Marshal(transcriptData)

	if err != nil {
		return fmt.Errorf("error marshalling transcript: %w", err)
	}

	embed := &discordgo.MessageEmbed{
		Title: "Ticket Closed",
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "User",
				Value: "<@" + t.UserID + ">",
			},
			{
				Name:  "Closed By",
				Value: "<@" + closedBy + ">",
			},
			{
				Name:  "Category",
				Value: t.Category,
			},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: embedFooter},
	}

	file := &discordgo.File{
		Name:        t.ChannelID + ".ottranscript",
		ContentType: "application/json+ottranscript",
		Reader:      bytes.NewReader(transcript),
	}

	_, err = e.s.ChannelMessageSendComplex(e.cfg.Channels.LogChannel, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  []*discordgo.File{file},
	})

	if err != nil {
		return fmt.Errorf("error sending transcript to log channel: %w", err)
	}

	dm, err := e.s.UserChannelCreate(t.UserID)

	if err != nil {
		e.logger.Info("Could not create transcript DM channel", zap.Error(err), zap.String("userId", t.UserID))
		return nil
	}

	file.Reader = bytes.NewReader(transcript)

	_, err = e.s.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
		Files:  []*discordgo.File{file},
	})

	if err != nil {
		e.logger.Info("Could not send transcript DM", zap.Error(err), zap.String("userId", t.UserID))
	}

	return nil
}
