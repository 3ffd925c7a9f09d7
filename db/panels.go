package db

import (
	"context"
	"fmt"
)

// Panel is a deployed dropdown message. Created on deploy/setup, mutated only
// by refresh, never deleted automatically.
type Panel struct {
	GuildID     string
	ChannelID   string
	MessageID   string
	Title       string
	Description string
	Categories  []string
	ConfigName  string
}

func (d *Database) SavePanel(ctx context.Context, p *Panel) error {
	encoded, err := EncodeJSONColumn(p.Categories)

	if err != nil {
		return err
	}

	_, err = d.pool.Exec(ctx,
		`INSERT INTO ticket_panels (guild_id, channel_id, message_id, title, description, categories, config_name)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (guild_id, message_id) DO UPDATE
		 SET channel_id = $2, title = $4, description = $5, categories = $6, config_name = $7`,
		p.GuildID, p.ChannelID, p.MessageID, p.Title, p.Description, encoded, p.ConfigName,
	)

	if err != nil {
		return fmt.Errorf("error saving panel: %w", err)
	}

	return nil
}

func (d *Database) PanelsByGuild(ctx context.Context, guildID string) ([]*Panel, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT guild_id, channel_id, message_id, title, description, categories, config_name
		 FROM ticket_panels WHERE guild_id = $1`,
		guildID,
	)

	if err != nil {
		return nil, fmt.Errorf("error querying panels: %w", err)
	}

	defer rows.Close()

	var panels []*Panel

	for rows.Next() {
		var p Panel
		var categories, configName *string

		if err := rows.Scan(&p.GuildID, &p.ChannelID, &p.MessageID, &p.Title, &p.Description, &categories, &configName); err != nil {
			return nil, fmt.Errorf("error scanning panel: %w", err)
		}

		if err := DecodeJSONColumn(categories, &p.Categories); err != nil {
			return nil, err
		}

		if configName != nil {
			p.ConfigName = *configName
		}

		panels = append(panels, &p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating panels: %w", err)
	}

	return panels, nil
}

// ReplacePanelMessage repoints a panel row at a newly posted message. Used by
// refresh when the old message could not be edited and had to be reposted.
func (d *Database) ReplacePanelMessage(ctx context.Context, guildID, oldMessageID, newMessageID string) error {
	tag, err := d.pool.Exec(ctx,
		`UPDATE ticket_panels SET message_id = $3 WHERE guild_id = $1 AND message_id = $2`,
		guildID, oldMessageID, newMessageID,
	)

	if err != nil {
		return fmt.Errorf("error replacing panel message: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeletePanelsByConfig drops the stored rows for a config-sourced panel ahead
// of a redeploy.
func (d *Database) DeletePanelsByConfig(ctx context.Context, guildID, configName string) error {
	_, err := d.pool.Exec(ctx,
		`DELETE FROM ticket_panels WHERE guild_id = $1 AND config_name = $2`,
		guildID, configName,
	)

	if err != nil {
		return fmt.Errorf("error deleting panels: %w", err)
	}

	return nil
}
