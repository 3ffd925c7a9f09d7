package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Category is a database-defined ticket category (the admin-created path).
// Config-declared categories take precedence over these when both exist for
// the same name.
type Category struct {
	GuildID string
	Name    string
	Roles   []string
}

// CreateCategory inserts a category, returning false if the name is already
// taken in the guild.
func (d *Database) CreateCategory(ctx context.Context, guildID, name string, roles []string) (bool, error) {
	if roles == nil {
		roles = []string{}
	}

	encoded, err := EncodeJSONColumn(roles)

	if err != nil {
		return false, err
	}

	tag, err := d.pool.Exec(ctx,
		`INSERT INTO ticket_categories (guild_id, name, roles) VALUES ($1, $2, $3)
		 ON CONFLICT (guild_id, name) DO NOTHING`,
		guildID, name, encoded,
	)

	if err != nil {
		return false, fmt.Errorf("error creating category: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

func (d *Database) CategoryByName(ctx context.Context, guildID, name string) (*Category, error) {
	var c Category
	var roles *string

	err := d.pool.QueryRow(ctx,
		`SELECT guild_id, name, roles FROM ticket_categories WHERE guild_id = $1 AND name = $2`,
		guildID, name,
	).Scan(&c.GuildID, &c.Name, &roles)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("error getting category: %w", err)
	}

	if err := DecodeJSONColumn(roles, &c.Roles); err != nil {
		return nil, err
	}

	return &c, nil
}

func (d *Database) CategoriesByGuild(ctx context.Context, guildID string) ([]*Category, error) {
	rows, err := d.pool.Query(ctx,
		`SELECT guild_id, name, roles FROM ticket_categories WHERE guild_id = $1 ORDER BY name`,
		guildID,
	)

	if err != nil {
		return nil, fmt.Errorf("error querying categories: %w", err)
	}

	defer rows.Close()

	var categories []*Category

	for rows.Next() {
		var c Category
		var roles *string

		if err := rows.Scan(&c.GuildID, &c.Name, &roles); err != nil {
			return nil, fmt.Errorf("error scanning category: %w", err)
		}

		if err := DecodeJSONColumn(roles, &c.Roles); err != nil {
			return nil, err
		}

		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	return categories, nil
}

// UpdateCategoryRoles replaces the role list of an existing category. The
// category itself is immutable once created; only the role list may change.
func (d *Database) UpdateCategoryRoles(ctx context.Context, guildID, name string, roles []string) error {
	encoded, err := EncodeJSONColumn(roles)

	if err != nil {
		return err
	}

	tag, err := d.pool.Exec(ctx,
		`UPDATE ticket_categories SET roles = $3 WHERE guild_id = $1 AND name = $2`,
		guildID, name, encoded,
	)

	if err != nil {
		return fmt.Errorf("error updating category roles: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteCategory removes a category unless an active ticket still references
// it.
func (d *Database) DeleteCategory(ctx context.Context, guildID, name string) (bool, error) {
	var inUse int

	err := d.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM active_tickets WHERE guild_id = $1 AND category = $2`,
		guildID, name,
	).Scan(&inUse)

	if err != nil {
		return false, fmt.Errorf("error counting tickets for category: %w", err)
	}

	if inUse > 0 {
		return false, fmt.Errorf("category %q still has %d active ticket(s)", name, inUse)
	}

	tag, err := d.pool.Exec(ctx,
		`DELETE FROM ticket_categories WHERE guild_id = $1 AND name = $2`,
		guildID, name,
	)

	if err != nil {
		return false, fmt.Errorf("error deleting category: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}
