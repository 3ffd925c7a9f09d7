package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

const (
	StatusOpen   = "open"
	StatusClosed = "closed"
)

type Ticket struct {
	GuildID   string
	ChannelID string
	UserID    string
	Category  string
	CreatedAt time.Time
	Status    string
	FormData  map[string]string
}

// InsertTicket inserts one row per ticket channel. Re-inserting the same
// (guild, channel) pair updates the row in place instead of duplicating it.
func (d *Database) InsertTicket(ctx context.Context, t *Ticket) error {
	formData, err := encodeFormData(t.FormData)

	if err != nil {
		return err
	}

	if t.Status == "" {
		t.Status = StatusOpen
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err = d.pool.Exec(ctx,
		`INSERT INTO active_tickets (guild_id, channel_id, user_id, category, created_at, status, form_data)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (guild_id, channel_id) DO UPDATE
		 SET user_id = $3, category = $4, created_at = $5, status = $6, form_data = $7`,
		t.GuildID, t.ChannelID, t.UserID, t.Category, t.CreatedAt.Format(time.RFC3339), t.Status, formData,
	)

	if err != nil {
		return fmt.Errorf("error inserting ticket: %w", err)
	}

	return nil
}

func (d *Database) TicketByChannel(ctx context.Context, channelID string) (*Ticket, error) {
	row := d.pool.QueryRow(ctx,
		`SELECT guild_id, channel_id, user_id, category, created_at, status, form_data
		 FROM active_tickets WHERE channel_id = $1`,
		channelID,
	)

	return scanTicket(row)
}

func (d *Database) TicketsByGuildUser(ctx context.Context, guildID, userID string) ([]*Ticket, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT guild_id, channel_id, user_id, category, created_at, status, form_data
		 FROM active_tickets WHERE guild_id = $1 AND user_id = $2 ORDER BY created_at`,
		guildID, userID,
	)

	if err != nil {
		return nil, fmt.Errorf("error querying tickets: %w", err)
	}

	return collectTickets(rows)
}

func (d *Database) OpenTicketsByGuild(ctx context.Context, guildID string) ([]*Ticket, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT guild_id, channel_id, user_id, category, created_at, status, form_data
		 FROM active_tickets WHERE guild_id = $1 AND status = $2 ORDER BY created_at`,
		guildID, StatusOpen,
	)

	if err != nil {
		return nil, fmt.Errorf("error querying open tickets: %w", err)
	}

	return collectTickets(rows)
}

// DeleteTicket removes the row for a channel. Deleting a row that is already
// gone is not an error; the bool reports whether a row was removed.
func (d *Database) DeleteTicket(ctx context.Context, channelID string) (bool, error) {
	tag, err := d.pool.Exec(ctx, `DELETE FROM active_tickets WHERE channel_id = $1`, channelID)

	if err != nil {
		return false, fmt.Errorf("error deleting ticket: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (d *Database) SetTicketStatus(ctx context.Context, channelID, status string) error {
	tag, err := d.pool.Exec(ctx, `UPDATE active_tickets SET status = $2 WHERE channel_id = $1`, channelID, status)

	if err != nil {
		return fmt.Errorf("error updating ticket status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// encodeFormData maps an absent or empty form to a NULL column. Formless
// tickets store no form_data at all.
func encodeFormData(formData map[string]string) (*string, error) {
	if len(formData) == 0 {
		return nil, nil
	}

	encoded, err := EncodeJSONColumn(formData)

	if err != nil {
		return nil, err
	}

	return &encoded, nil
}

func scanTicket(row pgx.Row) (*Ticket, error) {
	var t Ticket
	var createdAt string
	var formData *string

	err := row.Scan(&t.GuildID, &t.ChannelID, &t.UserID, &t.Category, &createdAt, &t.Status, &formData)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("error scanning ticket: %w", err)
	}

	// created_at is stored as RFC3339 text; an unparseable value is treated
	// as a zero time rather than an error.
	t.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	if err := DecodeJSONColumn(formData, &t.FormData); err != nil {
		return nil, err
	}

	return &t, nil
}

func collectTickets(rows pgx.Rows) ([]*Ticket, error) {
	defer rows.Close()

	var tickets []*Ticket

	for rows.Next() {
		t, err := scanTicket(rows)

		if err != nil {
			return nil, err
		}

		tickets = append(tickets, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}

	return tickets, nil
}
