package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func validConfig() *Config {
	return &Config{
		Database: ConfigDatabase{
			Postgres: "postgres://localhost/tickets",
			Redis:    "redis://localhost:6379",
		},
		Panels: []Panel{
			{
				Name:      "support",
				GuildID:   "g1",
				ChannelID: "c1",
				Categories: []Category{
					{
						Name:  "general",
						Roles: []string{"r1"},
						Form: []FormField{
							{ID: "issue", Label: "What is your issue?", Required: true, Kind: "paragraph"},
						},
						RoleGivers: []RoleGiver{
							{ID: "vip", Name: "VIP", RoleID: "r2", Color: "green"},
						},
					},
				},
			},
		},
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	require.NoError(t, validConfig().Validate())
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{
			name:   "missing postgres",
			mutate: func(c *Config) { c.Database.Postgres = "" },
			want:   "database.postgres",
		},
		{
			name:   "missing redis",
			mutate: func(c *Config) { c.Database.Redis = "" },
			want:   "database.redis",
		},
		{
			name:   "negative cap",
			mutate: func(c *Config) { c.Lifecycle.MaxPerCategory = -1 },
			want:   "max_per_category",
		},
		{
			name:   "panel without guild",
			mutate: func(c *Config) { c.Panels[0].GuildID = "" },
			want:   "guild and channel are required",
		},
		{
			name:   "duplicate panel",
			mutate: func(c *Config) { c.Panels = append(c.Panels, c.Panels[0]) },
			want:   "duplicate panel",
		},
		{
			name: "duplicate category",
			mutate: func(c *Config) {
				c.Panels[0].Categories = append(c.Panels[0].Categories, c.Panels[0].Categories[0])
			},
			want: "duplicate category",
		},
		{
			name:   "form field without id",
			mutate: func(c *Config) { c.Panels[0].Categories[0].Form[0].ID = "" },
			want:   "form fields need an id",
		},
		{
			name:   "unknown form kind",
			mutate: func(c *Config) { c.Panels[0].Categories[0].Form[0].Kind = "dropdown" },
			want:   "unknown kind",
		},
		{
			name:   "role giver without role",
			mutate: func(c *Config) { c.Panels[0].Categories[0].RoleGivers[0].RoleID = "" },
			want:   "role givers need",
		},
		{
			name:   "unknown button color",
			mutate: func(c *Config) { c.Panels[0].Categories[0].RoleGivers[0].Color = "purple" },
			want:   "unknown color",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindCategoryIsGuildScoped(t *testing.T) {
	cfg := validConfig()

	require.NotNil(t, cfg.FindCategory("g1", "general"))
	assert.Nil(t, cfg.FindCategory("g2", "general"))
	assert.Nil(t, cfg.FindCategory("g1", "other"))
}

func TestFindRoleGiver(t *testing.T) {
	cfg := validConfig()

	cat, giver := cfg.FindRoleGiver("g1", "vip")
	require.NotNil(t, giver)
	assert.Equal(t, "general", cat.Name)
	assert.Equal(t, "r2", giver.RoleID)

	_, giver = cfg.FindRoleGiver("g1", "nope")
	assert.Nil(t, giver)
}

func TestRoleGiverOneShotDefaultsTrue(t *testing.T) {
	var g RoleGiver
	assert.True(t, g.OneShot())

	f := false
	g.DisableAfterUse = &f
	assert.False(t, g.OneShot())
}

func TestOwnerCloseDeletesDefaultsTrue(t *testing.T) {
	var l ConfigLifecycle
	assert.True(t, l.DeleteOnOwnerClose())

	f := false
	l.OwnerCloseDeletes = &f
	assert.False(t, l.DeleteOnOwnerClose())
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TICKET_PG_URL", "postgres://prod/tickets")

	raw := []byte("postgres: ENV_TICKET_PG_URL\nredis: ENV_NOT_SET_ANYWHERE")

	expanded := string(ExpandEnv(raw))
	assert.Contains(t, expanded, "postgres: postgres://prod/tickets")

	// Unset variables keep their placeholder.
	assert.Contains(t, expanded, "redis: ENV_NOT_SET_ANYWHERE")
}

func TestConfigDecodesFromYaml(t *testing.T) {
	doc := []byte(`
panels:
  - name: support
    guild: "123"
    channel: "456"
    title: Get help
    categories:
      - name: general
        roles: ["789"]
        channel_template: "help-{username}"
        role_givers:
          - id: vip
            name: VIP
            role: "999"
            color: green
            disable_after_use: false
lifecycle:
  max_per_category: 2
  close_delay_seconds: 5
database:
  postgres: postgres://localhost/tickets
  redis: redis://localhost:6379
`)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(doc, &cfg))
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 2, cfg.Lifecycle.MaxPerCategory)
	assert.Equal(t, "help-{username}", cfg.Panels[0].Categories[0].ChannelTemplate)

	giver := cfg.Panels[0].Categories[0].RoleGivers[0]
	assert.Equal(t, "999", giver.RoleID)
	assert.False(t, giver.OneShot())
}
