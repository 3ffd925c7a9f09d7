package registry

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"ot-tickets/db"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeStore struct {
	categories map[string]*db.Category
	panels     []*db.Panel
	saved      []*db.Panel
	replaced   [][2]string
	purgedCfgs []string
}

func (f *fakeStore) CategoryByName(ctx context.Context, guildID, name string) (*db.Category, error) {
	cat, ok := f.categories[name]

	if !ok {
		return nil, db.ErrNotFound
	}

	return cat, nil
}

func (f *fakeStore) SavePanel(ctx context.Context, p *db.Panel) error {
	f.saved = append(f.saved, p)

	return nil
}

func (f *fakeStore) PanelsByGuild(ctx context.Context, guildID string) ([]*db.Panel, error) {
	return f.panels, nil
}

func (f *fakeStore) ReplacePanelMessage(ctx context.Context, guildID, oldMessageID, newMessageID string) error {
	f.replaced = append(f.replaced, [2]string{oldMessageID, newMessageID})

	return nil
}

func (f *fakeStore) DeletePanelsByConfig(ctx context.Context, guildID, configName string) error {
	f.purgedCfgs = append(f.purgedCfgs, configName)

	return nil
}

type fakeSession struct {
	nextID   int
	history  map[string][]*discordgo.Message
	deleted  []string
	sent     map[string][]*discordgo.MessageSend
	edits    []*discordgo.MessageEdit
	editErr  error
	drained  bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		history: map[string][]*discordgo.Message{},
		sent:    map[string][]*discordgo.MessageSend{},
	}
}

func (f *fakeSession) ChannelMessages(channelID string, limit int, beforeID, afterID, aroundID string, options ...discordgo.RequestOption) ([]*discordgo.Message, error) {
	// One page only; deletions drain it.
	if f.drained {
		return nil, nil
	}

	f.drained = true

	return f.history[channelID], nil
}

func (f *fakeSession) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.deleted = append(f.deleted, messageID)

	return nil
}

func (f *fakeSession) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.sent[channelID] = append(f.sent[channelID], data)
	f.nextID++

	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeSession) ChannelMessageEditComplex(m *discordgo.MessageEdit, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.editErr != nil {
		return nil, f.editErr
	}

	f.edits = append(f.edits, m)

	return &discordgo.Message{ID: m.ID, ChannelID: m.Channel}, nil
}

func testConfig() *types.Config {
	return &types.Config{
		Panels: []types.Panel{
			{
				Name:      "support",
				GuildID:   "g1",
				ChannelID: "panel-chan",
				Title:     "Get Help",
				Categories: []types.Category{
					{Name: "general", Roles: []string{"cfg-role"}, Emoji: "🎫"},
					{Name: "billing", Roles: []string{"billing-role"}},
				},
			},
		},
	}
}

func newTestRegistry(cfg *types.Config, store *fakeStore, session *fakeSession) *Registry {
	return New(cfg, store, session, "bot-user", zap.NewNop())
}

func TestResolveConfigWinsOverDatabase(t *testing.T) {
	store := &fakeStore{categories: map[string]*db.Category{
		"general": {GuildID: "g1", Name: "general", Roles: []string{"db-role"}},
	}}

	r := newTestRegistry(testConfig(), store, newFakeSession())

	cat, err := r.Resolve(context.Background(), "g1", "general")
	require.NoError(t, err)
	assert.Equal(t, []string{"cfg-role"}, cat.Roles)
}

func TestResolveFallsBackToDatabase(t *testing.T) {
	store := &fakeStore{categories: map[string]*db.Category{
		"appeals": {GuildID: "g1", Name: "appeals", Roles: []string{"mod-role"}},
	}}

	r := newTestRegistry(testConfig(), store, newFakeSession())

	cat, err := r.Resolve(context.Background(), "g1", "appeals")
	require.NoError(t, err)
	assert.Equal(t, "appeals", cat.Name)
	assert.Equal(t, []string{"mod-role"}, cat.Roles)

	// Database categories carry no form and no role givers.
	assert.Empty(t, cat.Form)
	assert.Empty(t, cat.RoleGivers)
}

func TestResolveUnknownCategory(t *testing.T) {
	r := newTestRegistry(testConfig(), &fakeStore{categories: map[string]*db.Category{}}, newFakeSession())

	_, err := r.Resolve(context.Background(), "g1", "nope")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestResolveIsGuildScoped(t *testing.T) {
	r := newTestRegistry(testConfig(), &fakeStore{categories: map[string]*db.Category{}}, newFakeSession())

	_, err := r.Resolve(context.Background(), "other-guild", "general")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestDeployPanelsPurgesAndPosts(t *testing.T) {
	store := &fakeStore{categories: map[string]*db.Category{}}
	session := newFakeSession()

	// A stale bot message and someone else's message in the panel channel.
	session.history["panel-chan"] = []*discordgo.Message{
		{ID: "stale", Author: &discordgo.User{ID: "bot-user"}},
		{ID: "human", Author: &discordgo.User{ID: "someone"}},
	}

	r := newTestRegistry(testConfig(), store, session)

	deployed, err := r.DeployPanels(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, deployed)

	// Only the bot's own message was purged.
	assert.Equal(t, []string{"stale"}, session.deleted)

	// The posted panel carries the dropdown with both categories.
	require.Len(t, session.sent["panel-chan"], 1)

	posted := session.sent["panel-chan"][0]
	row := posted.Components[0].(discordgo.ActionsRow)
	menu := row.Components[0].(discordgo.SelectMenu)
	assert.Equal(t, tickets.DropdownID, menu.CustomID)
	require.Len(t, menu.Options, 2)
	assert.Equal(t, "general", menu.Options[0].Value)

	// The stored row replaces earlier rows for the same config panel.
	assert.Equal(t, []string{"support"}, store.purgedCfgs)
	require.Len(t, store.saved, 1)
	assert.Equal(t, "support", store.saved[0].ConfigName)
	assert.Equal(t, []string{"general", "billing"}, store.saved[0].Categories)
}

func TestDeployPanelsSkipsOtherGuilds(t *testing.T) {
	store := &fakeStore{categories: map[string]*db.Category{}}
	session := newFakeSession()

	r := newTestRegistry(testConfig(), store, session)

	deployed, err := r.DeployPanels(context.Background(), "other-guild")
	require.NoError(t, err)
	assert.Zero(t, deployed)
	assert.Empty(t, store.saved)
}

func TestRefreshPanelsEditsInPlace(t *testing.T) {
	store := &fakeStore{
		categories: map[string]*db.Category{},
		panels: []*db.Panel{
			{GuildID: "g1", ChannelID: "panel-chan", MessageID: "m1", Categories: []string{"general"}},
		},
	}
	session := newFakeSession()

	r := newTestRegistry(testConfig(), store, session)

	refreshed, err := r.RefreshPanels(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
	require.Len(t, session.edits, 1)
	assert.Equal(t, "m1", session.edits[0].ID)
	assert.NotEmpty(t, session.edits[0].Embeds)
	assert.NotEmpty(t, session.edits[0].Components)
	assert.Empty(t, store.replaced)
}

func TestRefreshPanelsRepostsWhenEditFails(t *testing.T) {
	store := &fakeStore{
		categories: map[string]*db.Category{},
		panels: []*db.Panel{
			{GuildID: "g1", ChannelID: "panel-chan", MessageID: "m1", Categories: []string{"general"}},
		},
	}
	session := newFakeSession()
	session.editErr = errors.New("message was deleted")

	r := newTestRegistry(testConfig(), store, session)

	refreshed, err := r.RefreshPanels(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
	require.Len(t, session.sent["panel-chan"], 1)
	require.Len(t, store.replaced, 1)
	assert.Equal(t, "m1", store.replaced[0][0])
}

func TestRefreshPanelsSkipsUnresolvable(t *testing.T) {
	store := &fakeStore{
		categories: map[string]*db.Category{},
		panels: []*db.Panel{
			{GuildID: "g1", ChannelID: "panel-chan", MessageID: "m1", Categories: []string{"deleted-category"}},
		},
	}
	session := newFakeSession()

	r := newTestRegistry(testConfig(), store, session)

	refreshed, err := r.RefreshPanels(context.Background(), "g1")
	require.NoError(t, err)
	assert.Zero(t, refreshed)
	assert.Empty(t, session.edits)
}
