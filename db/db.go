package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"
)

var json = jsoniter.ConfigFastest

// ErrNotFound is returned when a ticket, category or panel is absent. Absence
// is a normal outcome, reported to the user as a plain message, never fatal.
var ErrNotFound = errors.New("not found")

type Database struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func New(pool *pgxpool.Pool, logger *zap.Logger) *Database {
	return &Database{
		pool:   pool,
		logger: logger,
	}
}

func (d *Database) Pool() *pgxpool.Pool {
	return d.pool
}

// InitSchema creates the tables if they do not exist yet. All statements run
// in one transaction so a partial schema never survives a failed startup.
func (d *Database) InitSchema(ctx context.Context) error {
	tx, err := d.pool.Begin(ctx)

	if err != nil {
		return fmt.Errorf("error starting schema transaction: %w", err)
	}

	defer tx.Rollback(ctx)

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ticket_categories (
			id SERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			name TEXT NOT NULL,
			roles TEXT,
			UNIQUE (guild_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_panels (
			id SERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			message_id TEXT NOT NULL,
			title TEXT,
			description TEXT,
			categories TEXT,
			config_name TEXT,
			UNIQUE (guild_id, message_id)
		)`,
		`CREATE TABLE IF NOT EXISTS active_tickets (
			id SERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			channel_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			category TEXT,
			created_at TEXT,
			status TEXT DEFAULT 'open',
			form_data TEXT,
			UNIQUE (guild_id, channel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_alerts (
			id SERIAL PRIMARY KEY,
			guild_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			UNIQUE (guild_id, user_id)
		)`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("error creating table: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("error committing schema transaction: %w", err)
	}

	return nil
}

// EncodeJSONColumn marshals a value into the TEXT columns used for role
// lists, category lists and form data.
func EncodeJSONColumn(v any) (string, error) {
	b, err := json.Marshal(v)

	if err != nil {
		return "", fmt.Errorf("error encoding json column: %w", err)
	}

	return string(b), nil
}

// DecodeJSONColumn unmarshals a TEXT column into out. Empty and NULL columns
// leave out untouched.
func DecodeJSONColumn(raw *string, out any) error {
	if raw == nil || *raw == "" {
		return nil
	}

	if err := json.Unmarshal([]byte(*raw), out); err != nil {
		return fmt.Errorf("error decoding json column: %w", err)
	}

	return nil
}
