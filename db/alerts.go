package db

import (
	"context"
	"fmt"
)

// ToggleAlert flips a user's opt-in for new-ticket direct messages and
// reports the resulting state.
func (d *Database) ToggleAlert(ctx context.Context, guildID, userID string) (bool, error) {
	tag, err := d.pool.Exec(ctx,
		`DELETE FROM ticket_alerts WHERE guild_id = $1 AND user_id = $2`,
		guildID, userID,
	)

	if err != nil {
		return false, fmt.Errorf("error removing alert subscription: %w", err)
	}

	if tag.RowsAffected() > 0 {
		return false, nil
	}

	_, err = d.pool.Exec(ctx,
		`INSERT INTO ticket_alerts (guild_id, user_id) VALUES ($1, $2)
		 ON CONFLICT (guild_id, user_id) DO NOTHING`,
		guildID, userID,
	)

	if err != nil {
		return false, fmt.Errorf("error adding alert subscription: %w", err)
	}

	return true, nil
}

func (d *Database) AlertSubscribers(ctx context.Context, guildID string) ([]string, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT user_id FROM ticket_alerts WHERE guild_id = $1`,
		guildID,
	)

	if err != nil {
		return nil, fmt.Errorf("error querying alert subscribers: %w", err)
	}

	defer rows.Close()

	var userIDs []string

	for rows.Next() {
		var userID string

		if err := rows.Scan(&userID); err != nil {
			return nil, fmt.Errorf("error scanning alert subscriber: %w", err)
		}

		userIDs = append(userIDs, userID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating alert subscribers: %w", err)
	}

	return userIDs, nil
}
