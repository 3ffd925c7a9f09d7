package tickets

import (
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
)

// Component custom-id grammar. Prefixed ids carry the target channel or role
// giver id after the prefix.
const (
	DropdownID      = "ticket_dropdown"
	FormPrefix      = "ticket_form"
	ClaimPrefix     = "claim_ticket_"
	ClosePrefix     = "close_ticket_menu_"
	ApprovePrefix   = "approve_ticket_"
	DenyPrefix      = "deny_ticket_"
	RoleGiverPrefix = "roleGiver_"
)

var buttonStyles = map[string]discordgo.ButtonStyle{
	"green": discordgo.SuccessButton,
	"red":   discordgo.DangerButton,
	"blue":  discordgo.PrimaryButton,
	"grey":  discordgo.SecondaryButton,
	"gray":  discordgo.SecondaryButton,
}

// StyleFor maps a config color name to a platform button style.
func StyleFor(color string) discordgo.ButtonStyle {
	if style, ok := buttonStyles[color]; ok {
		return style
	}

	return discordgo.PrimaryButton
}

// ButtonGroup is a named, ordered set of buttons rendered as one action row.
type ButtonGroup struct {
	Name    string
	Buttons []discordgo.Button
}

// BuildRows renders the groups in order, skipping empty ones. Merging named
// groups here is what keeps role-giver buttons from being dropped when the
// base row is rebuilt for a claim.
func BuildRows(groups ...ButtonGroup) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent

	for _, group := range groups {
		if len(group.Buttons) == 0 {
			continue
		}

		var components []discordgo.MessageComponent

		for i := range group.Buttons {
			components = append(components, group.Buttons[i])
		}

		rows = append(rows, discordgo.ActionsRow{Components: components})
	}

	return rows
}

func baseGroup(channelID string, claimed bool) ButtonGroup {
	claimStyle := discordgo.SuccessButton

	if claimed {
		claimStyle = discordgo.SecondaryButton
	}

	return ButtonGroup{
		Name: "base",
		Buttons: []discordgo.Button{
			{
				Label:    "Claim Ticket",
				Style:    claimStyle,
				Disabled: claimed,
				CustomID: ClaimPrefix + channelID,
				Emoji:    discordgo.ComponentEmoji{Name: "📌"},
			},
			{
				Label:    "Close Ticket",
				Style:    discordgo.SecondaryButton,
				CustomID: ClosePrefix + channelID,
				Emoji:    discordgo.ComponentEmoji{Name: "🔒"},
			},
		},
	}
}

func roleGiverGroup(cat *types.Category) ButtonGroup {
	group := ButtonGroup{Name: "rolegivers"}

	for _, giver := range cat.RoleGivers {
		btn := discordgo.Button{
			Label:    giver.Name,
			Style:    StyleFor(giver.Color),
			CustomID: RoleGiverPrefix + giver.ID,
		}

		if giver.Emoji != "" {
			btn.Emoji = discordgo.ComponentEmoji{Name: giver.Emoji}
		}

		group.Buttons = append(group.Buttons, btn)
	}

	return group
}

// TicketComponents builds the action rows for a ticket's pinned summary
// message in either the fresh or the claimed variant.
func TicketComponents(cat *types.Category, channelID string, claimed bool) []discordgo.MessageComponent {
	return BuildRows(baseGroup(channelID, claimed), roleGiverGroup(cat))
}

// MenuComponents builds the admin menu action row. Approval-gated categories
// get approve/deny/close; the rest only close.
func MenuComponents(channelID string, approvalGated bool) []discordgo.MessageComponent {
	group := ButtonGroup{Name: "menu"}

	if approvalGated {
		group.Buttons = append(group.Buttons,
			discordgo.Button{
				Label:    "Approve",
				Style:    discordgo.SuccessButton,
				CustomID: ApprovePrefix + channelID,
				Emoji:    discordgo.ComponentEmoji{Name: "✅"},
			},
			discordgo.Button{
				Label:    "Deny",
				Style:    discordgo.DangerButton,
				CustomID: DenyPrefix + channelID,
				Emoji:    discordgo.ComponentEmoji{Name: "❌"},
			},
		)
	}

	closeStyle := discordgo.DangerButton

	if approvalGated {
		closeStyle = discordgo.SecondaryButton
	}

	group.Buttons = append(group.Buttons, discordgo.Button{
		Label:    "Close Ticket",
		Style:    closeStyle,
		CustomID: ClosePrefix + channelID,
		Emoji:    discordgo.ComponentEmoji{Name: "🔒"},
	})

	return BuildRows(group)
}

// DisableButton rebuilds fetched message components with the named button
// disabled and relabelled, preserving every other button in place.
func DisableButton(components []discordgo.MessageComponent, customID, usedLabel string) []discordgo.MessageComponent {
	var rows []discordgo.MessageComponent

	for _, component := range components {
		row, ok := component.(*discordgo.ActionsRow)

		if !ok {
			rows = append(rows, component)
			continue
		}

		newRow := discordgo.ActionsRow{}

		for _, inner := range row.Components {
			btn, ok := inner.(*discordgo.Button)

			if !ok || btn.CustomID != customID {
				newRow.Components = append(newRow.Components, inner)
				continue
			}

			disabled := *btn
			disabled.Disabled = true

			if usedLabel != "" {
				disabled.Label = usedLabel
			}

			newRow.Components = append(newRow.Components, disabled)
		}

		rows = append(rows, newRow)
	}

	return rows
}
