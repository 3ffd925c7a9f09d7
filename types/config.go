package types

import (
	"fmt"
	"os"
	"regexp"
)

// Config data
type FormField struct {
	ID          string `yaml:"id"`
	Label       string `yaml:"label"`
	Placeholder string `yaml:"placeholder"`
	Required    bool   `yaml:"required"`
	Kind        string `yaml:"kind"` // short or paragraph
}

type RoleGiver struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	RoleID          string `yaml:"role"`
	Color           string `yaml:"color"`
	Emoji           string `yaml:"emoji"`
	DisableAfterUse *bool  `yaml:"disable_after_use"`
}

func (r RoleGiver) OneShot() bool {
	return r.DisableAfterUse == nil || *r.DisableAfterUse
}

type Category struct {
	Name            string      `yaml:"name"`
	Description     string      `yaml:"description"`
	Emoji           string      `yaml:"emoji"`
	Roles           []string    `yaml:"roles"`
	Form            []FormField `yaml:"form"`
	ChannelTemplate string      `yaml:"channel_template"`
	RoleGivers      []RoleGiver `yaml:"role_givers"`
}

type Panel struct {
	Name        string     `yaml:"name"`
	GuildID     string     `yaml:"guild"`
	ChannelID   string     `yaml:"channel"`
	Title       string     `yaml:"title"`
	Description string     `yaml:"description"`
	Categories  []Category `yaml:"categories"`
}

// CategoryNames returns the panel's category names in declaration order.
func (p *Panel) CategoryNames() []string {
	names := make([]string, 0, len(p.Categories))

	for i := range p.Categories {
		names = append(names, p.Categories[i].Name)
	}

	return names
}

type ConfigDatabase struct {
	Postgres        string `yaml:"postgres"`
	Redis           string `yaml:"redis"`
	FileStoragePath string `yaml:"file_storage_path"`
	ProxyURL        string `yaml:"proxy_url"`
}

type ConfigChannels struct {
	LogChannel     string `yaml:"log_channel"`
	AuditChannel   string `yaml:"audit_channel"`
	OpenCategory   string `yaml:"open_category"`
	ClosedCategory string `yaml:"closed_category"`
}

type ConfigLifecycle struct {
	// MaxPerCategory caps concurrent open tickets per user and category.
	// Zero means unlimited.
	MaxPerCategory    int `yaml:"max_per_category"`
	CloseDelaySeconds int `yaml:"close_delay_seconds"`
	CooldownSeconds   int `yaml:"cooldown_seconds"`

	// OwnerCloseDeletes controls whether an owner-initiated close deletes the
	// channel outright instead of archiving it. Unset means true.
	OwnerCloseDeletes *bool `yaml:"owner_close_deletes"`

	DisableTranscripts bool `yaml:"disable_transcripts"`
}

func (l ConfigLifecycle) DeleteOnOwnerClose() bool {
	return l.OwnerCloseDeletes == nil || *l.OwnerCloseDeletes
}

type ConfigMonitoring struct {
	Port int `yaml:"port"`
}

type Config struct {
	Panels     []Panel          `yaml:"panels"`
	Channels   ConfigChannels   `yaml:"channels"`
	Lifecycle  ConfigLifecycle  `yaml:"lifecycle"`
	Database   ConfigDatabase   `yaml:"database"`
	Monitoring ConfigMonitoring `yaml:"monitoring"`
}

type Secrets struct {
	Token string `yaml:"token"`

	// BypassUserID is an elevated principal permitted to perform admin-gated
	// actions without the administrator role. Every use is written to the
	// audit channel. Empty disables the bypass entirely.
	BypassUserID string `yaml:"bypass_user_id"`
}

var buttonColors = map[string]bool{"green": true, "red": true, "blue": true, "grey": true, "gray": true}

// Validate checks the config document at startup. A malformed document blocks
// startup with a clear diagnostic instead of surfacing at runtime.
func (c *Config) Validate() error {
	if c.Database.Postgres == "" {
		return fmt.Errorf("database.postgres is required")
	}

	if c.Database.Redis == "" {
		return fmt.Errorf("database.redis is required")
	}

	if c.Lifecycle.MaxPerCategory < 0 {
		return fmt.Errorf("lifecycle.max_per_category must not be negative")
	}

	if c.Lifecycle.CloseDelaySeconds < 0 {
		return fmt.Errorf("lifecycle.close_delay_seconds must not be negative")
	}

	seenPanels := map[string]bool{}

	for pi, panel := range c.Panels {
		if panel.Name == "" {
			return fmt.Errorf("panels[%d]: name is required", pi)
		}

		if seenPanels[panel.GuildID+"/"+panel.Name] {
			return fmt.Errorf("panels[%d]: duplicate panel %q in guild %s", pi, panel.Name, panel.GuildID)
		}

		seenPanels[panel.GuildID+"/"+panel.Name] = true

		if panel.GuildID == "" || panel.ChannelID == "" {
			return fmt.Errorf("panel %q: guild and channel are required", panel.Name)
		}

		if len(panel.Categories) == 0 {
			return fmt.Errorf("panel %q: at least one category is required", panel.Name)
		}

		seenCats := map[string]bool{}

		for _, cat := range panel.Categories {
			if cat.Name == "" {
				return fmt.Errorf("panel %q: category name is required", panel.Name)
			}

			if seenCats[cat.Name] {
				return fmt.Errorf("panel %q: duplicate category %q", panel.Name, cat.Name)
			}

			seenCats[cat.Name] = true

			seenFields := map[string]bool{}

			for _, field := range cat.Form {
				if field.ID == "" || field.Label == "" {
					return fmt.Errorf("category %q: form fields need an id and a label", cat.Name)
				}

				if seenFields[field.ID] {
					return fmt.Errorf("category %q: duplicate form field %q", cat.Name, field.ID)
				}

				seenFields[field.ID] = true

				if field.Kind != "" && field.Kind != "short" && field.Kind != "paragraph" {
					return fmt.Errorf("category %q: form field %q has unknown kind %q", cat.Name, field.ID, field.Kind)
				}
			}

			for _, giver := range cat.RoleGivers {
				if giver.ID == "" || giver.Name == "" || giver.RoleID == "" {
					return fmt.Errorf("category %q: role givers need an id, a name and a role", cat.Name)
				}

				if giver.Color != "" && !buttonColors[giver.Color] {
					return fmt.Errorf("category %q: role giver %q has unknown color %q", cat.Name, giver.ID, giver.Color)
				}
			}
		}
	}

	return nil
}

// FindCategory returns the config-declared category with the given name, or
// nil if no panel for the guild declares it. Config-declared categories take
// precedence over database-defined ones, so this is checked first when
// resolving.
func (c *Config) FindCategory(guildID, name string) *Category {
	for pi := range c.Panels {
		if c.Panels[pi].GuildID != guildID {
			continue
		}

		for ci := range c.Panels[pi].Categories {
			if c.Panels[pi].Categories[ci].Name == name {
				return &c.Panels[pi].Categories[ci]
			}
		}
	}

	return nil
}

// FindRoleGiver locates a role giver by id across all panels of a guild.
func (c *Config) FindRoleGiver(guildID, giverID string) (*Category, *RoleGiver) {
	for pi := range c.Panels {
		if c.Panels[pi].GuildID != guildID {
			continue
		}

		for ci := range c.Panels[pi].Categories {
			cat := &c.Panels[pi].Categories[ci]

			for gi := range cat.RoleGivers {
				if cat.RoleGivers[gi].ID == giverID {
					return cat, &cat.RoleGivers[gi]
				}
			}
		}
	}

	return nil, nil
}

var envPlaceholder = regexp.MustCompile(`ENV_([A-Z][A-Z0-9_]*)`)

// ExpandEnv replaces ENV_NAME placeholders in the raw config document with
// values from the environment. Unset variables leave the placeholder in
// place, matching the loader this replaces.
func ExpandEnv(raw []byte) []byte {
	return envPlaceholder.ReplaceAllFunc(raw, func(m []byte) []byte {
		if v, ok := os.LookupEnv(string(m[4:])); ok {
			return []byte(v)
		}

		return m
	})
}
