package tickets

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"ot-tickets/db"
	"ot-tickets/monitoring"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
	"golang.org/x/exp/slices"
)

const (
	defaultCloseDelay     = 5 * time.Second
	defaultOpenCategory   = "Open Tickets"
	defaultClosedCategory = "Closed Tickets"

	embedFooter = "Managed by overtimehosting"
)

// ErrPermissionDenied means the actor lacks the role or authorization the
// attempted transition requires. Reported to the actor, no state change.
var ErrPermissionDenied = errors.New("permission denied")

// CooldownError rejects a creation attempt made before the per-user cooldown
// expired.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("on cooldown for another %s", e.Remaining)
}

// CapError rejects a creation attempt that would exceed the per-category
// ticket cap for the user.
type CapError struct {
	ExistingChannelID string
	Limit             int
}

func (e *CapError) Error() string {
	return fmt.Sprintf("already at the limit of %d open ticket(s) for this category", e.Limit)
}

// Engine is the ticket lifecycle state machine. All platform access goes
// through the Session interface and all persistence through Store, both
// injected at construction.
type Engine struct {
	cfg       *types.Config
	secrets   *types.Secrets
	store     Store
	resolver  CategoryResolver
	s         Session
	rdb       Keyval
	botUserID string
	logger    *zap.Logger

	closeDelay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(cfg *types.Config, secrets *types.Secrets, store Store, resolver CategoryResolver, s Session, rdb Keyval, botUserID string, logger *zap.Logger) *Engine {
	closeDelay := time.Duration(cfg.Lifecycle.CloseDelaySeconds) * time.Second

	if closeDelay <= 0 {
		closeDelay = defaultCloseDelay
	}

	return &Engine{
		cfg:        cfg,
		secrets:    secrets,
		store:      store,
		resolver:   resolver,
		s:          s,
		rdb:        rdb,
		botUserID:  botUserID,
		logger:     logger,
		closeDelay: closeDelay,
		pending:    map[string]*time.Timer{},
	}
}

func memberIsAdmin(m *discordgo.Member) bool {
	return m != nil && m.Permissions&discordgo.PermissionAdministrator != 0
}

func (e *Engine) isBypass(userID string) bool {
	return e.secrets.BypassUserID != "" && e.secrets.BypassUserID == userID
}

// IsElevated reports whether the actor may perform admin-gated transitions.
// A bypass-user elevation is written to the audit channel, not just logged.
func (e *Engine) IsElevated(m *discordgo.Member, userID, action, channelID string) bool {
	if memberIsAdmin(m) {
		return true
	}

	if e.isBypass(userID) {
		e.audit("Bypass Used", "An elevated action was performed by the configured bypass user.", [][2]string{
			{"User", userID},
			{"Action", action},
			{"Channel", "<#" + channelID + ">"},
		})

		return true
	}

	return false
}

func holdsCategoryRole(m *discordgo.Member, cat *types.Category) bool {
	if m == nil {
		return false
	}

	for _, roleID := range cat.Roles {
		if slices.Contains(m.Roles, roleID) {
			return true
		}
	}

	return false
}

// Create provisions a ticket: a private channel visible to the owner, the
// bot and the category's roles, one row, subscriber alerts and a pinned
// welcome message. When the category declares a form, the caller shows the
// modal first and calls Create only on submission.
func (e *Engine) Create(ctx context.Context, guildID string, user *discordgo.User, categoryName string, form map[string]string) (*db.Ticket, error) {
	cat, err := e.resolver.Resolve(ctx, guildID, categoryName)

	if err != nil {
		return nil, err
	}

	if err := e.checkCooldown(ctx, user.ID); err != nil {
		return nil, err
	}

	if err := e.enforceCap(ctx, guildID, user.ID, cat.Name); err != nil {
		return nil, err
	}

	openCat, err := e.ensureCategoryChannel(guildID, e.openCategoryName())

	if err != nil {
		return nil, fmt.Errorf("error ensuring open tickets category: %w", err)
	}

	// Created eagerly so the archive target exists by the time a close runs.
	if _, err := e.ensureCategoryChannel(guildID, e.closedCategoryName()); err != nil {
		e.logger.Warn("Could not ensure closed tickets category", zap.Error(err), zap.String("guildId", guildID))
	}

	overwrites := []*discordgo.PermissionOverwrite{
		{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel,
		},
		{
			ID:    user.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
		{
			ID:    e.botUserID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}

	for _, roleID := range cat.Roles {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    roleID,
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}

	channel, err := e.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:                 RenderChannelName(cat.ChannelTemplate, user.Username, form),
		Type:                 discordgo.ChannelTypeGuildText,
		Topic:                fmt.Sprintf("Ticket by %s | %s", user.Username, cat.Name),
		ParentID:             openCat.ID,
		PermissionOverwrites: overwrites,
	})

	if err != nil {
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}

	ticket := &db.Ticket{
		GuildID:   guildID,
		ChannelID: channel.ID,
		UserID:    user.ID,
		Category:  cat.Name,
		CreatedAt: time.Now().UTC(),
		Status:    db.StatusOpen,
		FormData:  form,
	}

	if err := e.store.InsertTicket(ctx, ticket); err != nil {
		e.logger.Error("Error inserting ticket, removing channel", zap.Error(err), zap.String("channelId", channel.ID))

		if _, derr := e.s.ChannelDelete(channel.ID); derr != nil && !isUnknownChannel(derr) {
			e.logger.Error("Error deleting channel after failed insert", zap.Error(derr), zap.String("channelId", channel.ID))
		}

		return nil, fmt.Errorf("error inserting ticket: %w", err)
	}

	e.armCooldown(ctx, user.ID)
	e.postWelcome(channel.ID, cat, user, form)
	e.notifySubscribers(ctx, guildID, cat.Name, user, channel.ID)

	monitoring.TicketsCreated.WithLabelValues(cat.Name).Inc()
	e.logger.Info("Ticket created", zap.String("channelId", channel.ID), zap.String("userId", user.ID), zap.String("category", cat.Name))

	return ticket, nil
}

func (e *Engine) checkCooldown(ctx context.Context, userID string) error {
	if e.rdb == nil || e.cfg.Lifecycle.CooldownSeconds <= 0 {
		return nil
	}

	if ttl := e.rdb.TTL(ctx, "ticket_cooldown:"+userID).Val(); ttl > 0 {
		return &CooldownError{Remaining: ttl}
	}

	return nil
}

// armCooldown starts the per-user window. It runs only once a ticket row
// exists; a rejected or failed creation leaves no cooldown behind.
func (e *Engine) armCooldown(ctx context.Context, userID string) {
	if e.rdb == nil || e.cfg.Lifecycle.CooldownSeconds <= 0 {
		return
	}

	err := e.rdb.Set(ctx, "ticket_cooldown:"+userID, "1", time.Duration(e.cfg.Lifecycle.CooldownSeconds)*time.Second).Err()

	if err != nil {
		// Cooldown bookkeeping must never block a creation.
		e.logger.Error("Error setting cooldown", zap.Error(err), zap.String("userId", userID))
	}
}

// enforceCap applies the per-category policy. Rows whose channel no longer
// exists are orphans; they are removed here and do not count.
func (e *Engine) enforceCap(ctx context.Context, guildID, userID, category string) error {
	tickets, err := e.store.TicketsByGuildUser(ctx, guildID, userID)

	if err != nil {
		return fmt.Errorf("error listing user tickets: %w", err)
	}

	var live []string

	for _, t := range tickets {
		if t.Category != category || t.Status != db.StatusOpen {
			continue
		}

		if _, cerr := e.s.Channel(t.ChannelID); cerr != nil {
			if isUnknownChannel(cerr) {
				e.logger.Info("Removing orphaned ticket row", zap.String("channelId", t.ChannelID), zap.String("userId", userID))
				e.CancelScheduledClose(t.ChannelID)

				if _, derr := e.store.DeleteTicket(ctx, t.ChannelID); derr != nil {
					e.logger.Error("Error removing orphaned ticket row", zap.Error(derr), zap.String("channelId", t.ChannelID))
				}

				continue
			}

			// Transient platform error: count the row to stay conservative.
		}

		live = append(live, t.ChannelID)
	}

	limit := e.cfg.Lifecycle.MaxPerCategory

	if limit > 0 && len(live) >= limit {
		return &CapError{ExistingChannelID: live[0], Limit: limit}
	}

	return nil
}

// EnsureWorkspace creates the open and closed category channels for a guild
// when they are missing. Used by first-run setup; Create also calls through
// the same path lazily.
func (e *Engine) EnsureWorkspace(guildID string) error {
	if _, err := e.ensureCategoryChannel(guildID, e.openCategoryName()); err != nil {
		return err
	}

	if _, err := e.ensureCategoryChannel(guildID, e.closedCategoryName()); err != nil {
		return err
	}

	return nil
}

func (e *Engine) openCategoryName() string {
	if e.cfg.Channels.OpenCategory != "" {
		return e.cfg.Channels.OpenCategory
	}

	return defaultOpenCategory
}

func (e *Engine) closedCategoryName() string {
	if e.cfg.Channels.ClosedCategory != "" {
		return e.cfg.Channels.ClosedCategory
	}

	return defaultClosedCategory
}

func (e *Engine) findCategoryChannel(guildID, name string) (*discordgo.Channel, error) {
	channels, err := e.s.GuildChannels(guildID)

	if err != nil {
		return nil, fmt.Errorf("error listing guild channels: %w", err)
	}

	for _, ch := range channels {
		if ch.Type == discordgo.ChannelTypeGuildCategory && ch.Name == name {
			return ch, nil
		}
	}

	return nil, db.ErrNotFound
}

func (e *Engine) ensureCategoryChannel(guildID, name string) (*discordgo.Channel, error) {
	ch, err := e.findCategoryChannel(guildID, name)

	if err == nil {
		return ch, nil
	}

	if !errors.Is(err, db.ErrNotFound) {
		return nil, err
	}

	ch, err = e.s.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name: name,
		Type: discordgo.ChannelTypeGuildCategory,
	})

	if err != nil {
		return nil, fmt.Errorf("error creating category channel %q: %w", name, err)
	}

	return ch, nil
}

func (e *Engine) postWelcome(channelID string, cat *types.Category, user *discordgo.User, form map[string]string) {
	fields := []*discordgo.MessageEmbedField{
		{Name: "Category", Value: cat.Name, Inline: true},
		{Name: "Opened by", Value: user.Mention(), Inline: true},
	}

	for _, field := range cat.Form {
		value := form[field.ID]

		if value == "" {
			continue
		}

		fields = append(fields, &discordgo.MessageEmbedField{Name: field.Label, Value: value})
	}

	msg, err := e.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "🎫 Ticket - " + cat.Name,
				Description: fmt.Sprintf("Welcome %s!\n\nPlease describe your issue and a staff member will be with you shortly.\n\n🔒 To close this ticket, use `/ticket close`", user.Mention()),
				Color:       0xFFFFFF,
				Fields:      fields,
				Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
			},
		},
		Components: TicketComponents(cat, channelID, false),
	})

	if err != nil {
		e.logger.Error("Error sending welcome message", zap.Error(err), zap.String("channelId", channelID))
		return
	}

	if err := e.s.ChannelMessagePin(channelID, msg.ID); err != nil {
		e.logger.Error("Error pinning welcome message", zap.Error(err), zap.String("channelId", channelID))
	}
}

// notifySubscribers DMs every alert subscriber. DMs being disabled is a
// normal outcome; each failure is logged and swallowed.
func (e *Engine) notifySubscribers(ctx context.Context, guildID, category string, user *discordgo.User, channelID string) {
	subscribers, err := e.store.AlertSubscribers(ctx, guildID)

	if err != nil {
		e.logger.Error("Error listing alert subscribers", zap.Error(err), zap.String("guildId", guildID))
		return
	}

	content := fmt.Sprintf("🎫 New ticket opened\nCategory: **%s**\nBy: %s\nChannel: <#%s>", category, user.Mention(), channelID)

	for _, userID := range subscribers {
		dm, err := e.s.UserChannelCreate(userID)

		if err == nil {
			_, err = e.s.ChannelMessageSend(dm.ID, content)
		}

		if err != nil {
			monitoring.AlertsSent.WithLabelValues("failed").Inc()
			e.logger.Info("Could not send alert DM", zap.Error(err), zap.String("userId", userID))
			continue
		}

		monitoring.AlertsSent.WithLabelValues("sent").Inc()
	}
}

// Claim annotates the pinned summary message with the claimer and rebuilds
// its buttons to the claimed variant. Role-giver buttons survive the rebuild.
func (e *Engine) Claim(ctx context.Context, guildID, channelID string, actor *discordgo.Member, actorID string) error {
	t, err := e.store.TicketByChannel(ctx, channelID)

	if err != nil {
		return err
	}

	if t.GuildID != guildID {
		return db.ErrNotFound
	}

	cat, err := e.resolver.Resolve(ctx, guildID, t.Category)

	if err != nil {
		return err
	}

	if !holdsCategoryRole(actor, cat) && !e.IsElevated(actor, actorID, "claim", channelID) {
		return ErrPermissionDenied
	}

	pinned, err := e.s.ChannelMessagesPinned(channelID)

	if err != nil {
		return fmt.Errorf("error fetching pinned messages: %w", err)
	}

	var summary *discordgo.Message

	for _, msg := range pinned {
		if msg.Author != nil && msg.Author.ID == e.botUserID && len(msg.Embeds) > 0 {
			summary = msg
		}
	}

	if summary == nil {
		return fmt.Errorf("ticket summary message not found")
	}

	var username, avatar string

	if actor != nil && actor.User != nil {
		username = actor.User.Username
		avatar = actor.User.AvatarURL("")
	} else {
		username = actorID
	}

	edited := *summary.Embeds[0]
	edited.Footer = &discordgo.MessageEmbedFooter{
		Text:    "claimed by: " + username,
		IconURL: avatar,
	}

	embeds := []*discordgo.MessageEmbed{&edited}
	components := TicketComponents(cat, channelID, true)

	_, err = e.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         summary.ID,
		Channel:    channelID,
		Embeds:     embeds,
		Components: components,
	})

	if err != nil {
		return fmt.Errorf("error editing summary message: %w", err)
	}

	_, err = e.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "📌 Ticket Claimed",
				Description: fmt.Sprintf("<@%s> is now handling this ticket.", actorID),
				Color:       0xFFFFFF,
				Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
			},
		},
	})

	if err != nil {
		e.logger.Error("Error sending claim notice", zap.Error(err), zap.String("channelId", channelID))
	}

	e.logger.Info("Ticket claimed", zap.String("channelId", channelID), zap.String("userId", actorID))

	return nil
}

// Approve grants every role the category configures to the ticket owner.
// Partial failure is expected; the returned sets report what was given and
// what was not, distinctly. Approval does not close the ticket.
func (e *Engine) Approve(ctx context.Context, guildID, channelID string, actor *discordgo.Member, actorID string) (given, failed []string, err error) {
	if !e.IsElevated(actor, actorID, "approve", channelID) {
		return nil, nil, ErrPermissionDenied
	}

	t, err := e.store.TicketByChannel(ctx, channelID)

	if err != nil {
		return nil, nil, err
	}

	cat, err := e.resolver.Resolve(ctx, guildID, t.Category)

	if err != nil {
		return nil, nil, err
	}

	owner, err := e.s.GuildMember(guildID, t.UserID)

	if err != nil {
		return nil, nil, fmt.Errorf("error fetching ticket owner: %w", err)
	}

	guildRoles, err := e.s.GuildRoles(guildID)

	if err != nil {
		return nil, nil, fmt.Errorf("error fetching guild roles: %w", err)
	}

	roleNames := map[string]string{}

	for _, role := range guildRoles {
		roleNames[role.ID] = role.Name
	}

	for _, roleID := range cat.Roles {
		name, exists := roleNames[roleID]

		if !exists {
			// The role was deleted after the category was configured. There is
			// no name left to report, so the entry renders as a mention.
			failed = append(failed, "<@&"+roleID+">")
			monitoring.RoleGrants.WithLabelValues("approve", "failed").Inc()
			continue
		}

		if slices.Contains(owner.Roles, roleID) {
			given = append(given, name)
			continue
		}

		if aerr := e.s.GuildMemberRoleAdd(guildID, t.UserID, roleID); aerr != nil {
			e.logger.Error("Error granting role", zap.Error(aerr), zap.String("roleId", roleID), zap.String("userId", t.UserID))
			failed = append(failed, name)
			monitoring.RoleGrants.WithLabelValues("approve", "failed").Inc()
			continue
		}

		given = append(given, name)
		monitoring.RoleGrants.WithLabelValues("approve", "granted").Inc()
	}

	description := "Your ticket has been approved!"

	if len(given) > 0 {
		description += "\n\n✅ **Role(s) given:** " + joinNames(given)
	}

	if len(failed) > 0 {
		description += "\n\n⚠️ **Could not give:** " + joinNames(failed)
	}

	description += "\n\nA staff member will assist you shortly."

	_, serr := e.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "✅ Ticket Approved",
				Description: description,
				Color:       0x00FF00,
				Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
			},
		},
	})

	if serr != nil {
		e.logger.Error("Error sending approval message", zap.Error(serr), zap.String("channelId", channelID))
	}

	e.logger.Info("Ticket approved", zap.String("channelId", channelID), zap.Strings("given", given), zap.Strings("failed", failed))

	return given, failed, nil
}

// Deny notifies the owner by DM (best effort), posts an in-channel notice
// and schedules the delayed close. Denied tickets follow the admin retention
// policy.
func (e *Engine) Deny(ctx context.Context, guildID, channelID string, actor *discordgo.Member, actorID string) (dmSent bool, err error) {
	if !e.IsElevated(actor, actorID, "deny", channelID) {
		return false, ErrPermissionDenied
	}

	t, err := e.store.TicketByChannel(ctx, channelID)

	if err != nil {
		return false, err
	}

	dm, derr := e.s.UserChannelCreate(t.UserID)

	if derr == nil {
		_, derr = e.s.ChannelMessageSendComplex(dm.ID, &discordgo.MessageSend{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "❌ Ticket Denied",
					Description: fmt.Sprintf("Your ticket has been denied.\n\nCategory: **%s**\n\nIf you have questions, please contact a staff member.", t.Category),
					Color:       0xFF0000,
					Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
				},
			},
		})
	}

	if derr != nil {
		e.logger.Info("Could not send denial DM", zap.Error(derr), zap.String("userId", t.UserID))
	} else {
		dmSent = true
	}

	if _, serr := e.s.ChannelMessageSend(channelID, "❌ **Ticket has been denied by an administrator. Closing...**"); serr != nil {
		e.logger.Error("Error sending denial notice", zap.Error(serr), zap.String("channelId", channelID))
	}

	e.markClosing(ctx, channelID)
	e.ScheduleClose(guildID, channelID, actorID, "denied", false)

	return dmSent, nil
}

// Close schedules the delayed close. The owner may close their own ticket;
// anyone else needs elevation. Owner-initiated closes delete the channel
// outright when the retention policy says so; admin closes archive.
func (e *Engine) Close(ctx context.Context, guildID, channelID string, actor *discordgo.Member, actorID string) error {
	t, err := e.store.TicketByChannel(ctx, channelID)

	if err != nil {
		return err
	}

	owner := t.UserID == actorID

	if !owner && !e.IsElevated(actor, actorID, "close", channelID) {
		return ErrPermissionDenied
	}

	deleteOutright := owner && e.cfg.Lifecycle.DeleteOnOwnerClose()

	e.markClosing(ctx, channelID)
	e.ScheduleClose(guildID, channelID, actorID, "closed", deleteOutright)

	return nil
}

// markClosing flips the row's status so a closing ticket stops counting
// against the owner's cap and drops out of open-ticket listings during the
// close delay.
func (e *Engine) markClosing(ctx context.Context, channelID string) {
	err := e.store.SetTicketStatus(ctx, channelID, db.StatusClosed)

	if err != nil && !errors.Is(err, db.ErrNotFound) {
		e.logger.Error("Error marking ticket as closing", zap.Error(err), zap.String("channelId", channelID))
	}
}

// ScheduleClose arms the delayed close for a channel. A channel with a close
// already pending keeps its original timer.
func (e *Engine) ScheduleClose(guildID, channelID, closedBy, reason string, deleteOutright bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, pending := e.pending[channelID]; pending {
		return
	}

	e.pending[channelID] = time.AfterFunc(e.closeDelay, func() {
		e.finishClose(guildID, channelID, closedBy, reason, deleteOutright)
	})
}

// CancelScheduledClose stops a pending close, reporting whether one existed.
func (e *Engine) CancelScheduledClose(channelID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	timer, ok := e.pending[channelID]

	if !ok {
		return false
	}

	timer.Stop()
	delete(e.pending, channelID)

	return true
}

// PendingClose reports whether a close is currently scheduled for a channel.
func (e *Engine) PendingClose(channelID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.pending[channelID]

	return ok
}

// finishClose runs after the delay. The row or the channel may have been
// deleted by another actor during the timer gap, so every step here uses
// delete-if-exists semantics.
func (e *Engine) finishClose(guildID, channelID, closedBy, reason string, deleteOutright bool) {
	ctx := context.Background()

	e.mu.Lock()
	delete(e.pending, channelID)
	e.mu.Unlock()

	t, err := e.store.TicketByChannel(ctx, channelID)

	if errors.Is(err, db.ErrNotFound) {
		// Another actor already closed this ticket; nothing left to do.
		return
	}

	if err != nil {
		e.logger.Error("Error re-reading ticket before close", zap.Error(err), zap.String("channelId", channelID))
		return
	}

	if !e.cfg.Lifecycle.DisableTranscripts && e.cfg.Channels.LogChannel != "" {
		if terr := e.sendTranscript(ctx, t, closedBy); terr != nil {
			e.logger.Error("Error creating transcript", zap.Error(terr), zap.String("channelId", channelID))
		}
	}

	if _, err := e.store.DeleteTicket(ctx, channelID); err != nil {
		e.logger.Error("Error deleting ticket row", zap.Error(err), zap.String("channelId", channelID))
	}

	archived := false

	if !deleteOutright {
		archived = e.archiveChannel(guildID, t, reason)
	}

	if !archived {
		if _, err := e.s.ChannelDelete(channelID); err != nil && !isUnknownChannel(err) {
			e.logger.Error("Error deleting ticket channel", zap.Error(err), zap.String("channelId", channelID))
		}
	}

	monitoring.TicketsClosed.WithLabelValues(reason).Inc()
	e.logger.Info("Ticket closed", zap.String("channelId", channelID), zap.String("reason", reason), zap.Bool("archived", archived))
}

// archiveChannel moves the channel under the closed category, revokes the
// owner's view and everyone's send permission. Returns false when archiving
// is impossible so the caller falls back to deletion.
func (e *Engine) archiveChannel(guildID string, t *db.Ticket, reason string) bool {
	closedCat, err := e.findCategoryChannel(guildID, e.closedCategoryName())

	if err != nil {
		return false
	}

	ch, err := e.s.Channel(t.ChannelID)

	if err != nil {
		if !isUnknownChannel(err) {
			e.logger.Error("Error fetching channel for archive", zap.Error(err), zap.String("channelId", t.ChannelID))
		}

		return false
	}

	overwrites := archiveOverwrites(ch.PermissionOverwrites, guildID, t.UserID)

	_, err = e.s.ChannelEdit(t.ChannelID, &discordgo.ChannelEdit{
		ParentID:             closedCat.ID,
		PermissionOverwrites: overwrites,
	})

	if err != nil {
		e.logger.Error("Error archiving channel, deleting instead", zap.Error(err), zap.String("channelId", t.ChannelID))
		return false
	}

	notice := "🔒 **Ticket closed!**"

	if reason == "denied" {
		notice = "❌ **Ticket denied and closed!**"
	}

	if _, err := e.s.ChannelMessageSend(t.ChannelID, notice); err != nil {
		e.logger.Error("Error sending close notice", zap.Error(err), zap.String("channelId", t.ChannelID))
	}

	return true
}

// archiveOverwrites rewrites a channel's permission list for retention:
// everyone loses send, the former owner loses view.
func archiveOverwrites(existing []*discordgo.PermissionOverwrite, guildID, ownerID string) []*discordgo.PermissionOverwrite {
	var out []*discordgo.PermissionOverwrite

	sawEveryone := false

	for _, ow := range existing {
		clone := *ow

		switch {
		case ow.ID == guildID:
			clone.Allow &^= discordgo.PermissionSendMessages
			clone.Deny |= discordgo.PermissionSendMessages
			sawEveryone = true
		case ow.ID == ownerID && ow.Type == discordgo.PermissionOverwriteTypeMember:
			clone.Allow &^= discordgo.PermissionViewChannel | discordgo.PermissionSendMessages
			clone.Deny |= discordgo.PermissionViewChannel
		}

		out = append(out, &clone)
	}

	if !sawEveryone {
		out = append(out, &discordgo.PermissionOverwrite{
			ID:   guildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionSendMessages,
		})
	}

	return out
}

// GrantResult reports the outcome of a role-giver button press.
type GrantResult struct {
	RoleName      string
	AlreadyHeld   bool
	DisableButton bool
}

// GrantRole performs an ad-hoc role grant independent of approval. The grant
// is idempotent: an owner who already holds the role gets a notice, not an
// error.
func (e *Engine) GrantRole(ctx context.Context, guildID, channelID, giverID string, actor *discordgo.Member, actorID string) (*GrantResult, error) {
	cat, giver := e.cfg.FindRoleGiver(guildID, giverID)

	if giver == nil {
		return nil, fmt.Errorf("role giver %q: %w", giverID, db.ErrNotFound)
	}

	t, err := e.store.TicketByChannel(ctx, channelID)

	if err != nil {
		return nil, err
	}

	if !holdsCategoryRole(actor, cat) && !e.IsElevated(actor, actorID, "role_grant", channelID) {
		return nil, ErrPermissionDenied
	}

	owner, err := e.s.GuildMember(guildID, t.UserID)

	if err != nil {
		return nil, fmt.Errorf("error fetching ticket owner: %w", err)
	}

	guildRoles, err := e.s.GuildRoles(guildID)

	if err != nil {
		return nil, fmt.Errorf("error fetching guild roles: %w", err)
	}

	roleName := ""

	for _, role := range guildRoles {
		if role.ID == giver.RoleID {
			roleName = role.Name
			break
		}
	}

	if roleName == "" {
		return nil, fmt.Errorf("role %q: %w", giver.RoleID, db.ErrNotFound)
	}

	if slices.Contains(owner.Roles, giver.RoleID) {
		return &GrantResult{RoleName: roleName, AlreadyHeld: true}, nil
	}

	if err := e.s.GuildMemberRoleAdd(guildID, t.UserID, giver.RoleID); err != nil {
		monitoring.RoleGrants.WithLabelValues("role_giver", "failed").Inc()
		return nil, fmt.Errorf("error granting role: %w", err)
	}

	monitoring.RoleGrants.WithLabelValues("role_giver", "granted").Inc()

	ownerName := t.UserID

	if owner.User != nil {
		ownerName = owner.User.Username
	}

	_, serr := e.s.ChannelMessageSendComplex(channelID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "✅ Role Granted!",
				Description: fmt.Sprintf("%s has been granted the **%s** role by <@%s>.", ownerName, roleName, actorID),
				Color:       0x2ECC71,
				Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
			},
		},
	})

	if serr != nil {
		e.logger.Error("Error sending grant notice", zap.Error(serr), zap.String("channelId", channelID))
	}

	e.audit("Role Granted", "A role has been granted through the ticket system.", [][2]string{
		{"Granted By", "<@" + actorID + ">"},
		{"Granted To", "<@" + t.UserID + ">"},
		{"Role", roleName},
		{"Ticket", "<#" + channelID + ">"},
	})

	// Best-effort DM; DMs disabled is a normal outcome.
	if dm, derr := e.s.UserChannelCreate(t.UserID); derr == nil {
		_, _ = e.s.ChannelMessageSend(dm.ID, fmt.Sprintf("🎉 You have been granted the **%s** role!", roleName))
	}

	return &GrantResult{RoleName: roleName, DisableButton: giver.OneShot()}, nil
}

// audit writes an event to the private audit channel when one is configured.
func (e *Engine) audit(title, description string, fields [][2]string) {
	e.logger.Info("Audit event", zap.String("title", title), zap.Any("fields", fields))

	if e.cfg.Channels.AuditChannel == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🤖 " + title,
		Description: description,
		Color:       0x9B59B6,
		Footer:      &discordgo.MessageEmbedFooter{Text: embedFooter},
	}

	for _, field := range fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   field[0],
			Value:  field[1],
			Inline: true,
		})
	}

	_, err := e.s.ChannelMessageSendComplex(e.cfg.Channels.AuditChannel, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{embed},
	})

	if err != nil {
		e.logger.Error("Error sending audit event", zap.Error(err), zap.String("title", title))
	}
}

func joinNames(names []string) string {
	out := ""

	for i, name := range names {
		if i > 0 {
			out += ", "
		}

		out += name
	}

	return out
}
