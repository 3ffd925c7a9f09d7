package tickets

import (
	"testing"

	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCategory() *types.Category {
	return &types.Category{
		Name: "general",
		RoleGivers: []types.RoleGiver{
			{ID: "vip", Name: "VIP", RoleID: "r1", Color: "green"},
			{ID: "beta", Name: "Beta", RoleID: "r2", Color: "red"},
		},
	}
}

func rowButtons(t *testing.T, component discordgo.MessageComponent) []discordgo.Button {
	t.Helper()

	row, ok := component.(discordgo.ActionsRow)
	require.True(t, ok)

	var buttons []discordgo.Button

	for _, inner := range row.Components {
		btn, ok := inner.(discordgo.Button)
		require.True(t, ok)
		buttons = append(buttons, btn)
	}

	return buttons
}

func TestTicketComponentsFreshVariant(t *testing.T) {
	rows := TicketComponents(testCategory(), "chan1", false)
	require.Len(t, rows, 2)

	base := rowButtons(t, rows[0])
	require.Len(t, base, 2)

	assert.Equal(t, ClaimPrefix+"chan1", base[0].CustomID)
	assert.False(t, base[0].Disabled)
	assert.Equal(t, discordgo.SuccessButton, base[0].Style)
	assert.Equal(t, ClosePrefix+"chan1", base[1].CustomID)
}

func TestTicketComponentsClaimedPreservesRoleGivers(t *testing.T) {
	rows := TicketComponents(testCategory(), "chan1", true)
	require.Len(t, rows, 2)

	base := rowButtons(t, rows[0])
	assert.True(t, base[0].Disabled)
	assert.Equal(t, discordgo.SecondaryButton, base[0].Style)

	givers := rowButtons(t, rows[1])
	require.Len(t, givers, 2)
	assert.Equal(t, RoleGiverPrefix+"vip", givers[0].CustomID)
	assert.Equal(t, discordgo.SuccessButton, givers[0].Style)
	assert.Equal(t, RoleGiverPrefix+"beta", givers[1].CustomID)
	assert.Equal(t, discordgo.DangerButton, givers[1].Style)
}

func TestTicketComponentsNoRoleGivers(t *testing.T) {
	rows := TicketComponents(&types.Category{Name: "plain"}, "chan1", false)
	assert.Len(t, rows, 1)
}

func TestMenuComponents(t *testing.T) {
	gated := rowButtons(t, MenuComponents("chan1", true)[0])
	require.Len(t, gated, 3)
	assert.Equal(t, ApprovePrefix+"chan1", gated[0].CustomID)
	assert.Equal(t, DenyPrefix+"chan1", gated[1].CustomID)
	assert.Equal(t, ClosePrefix+"chan1", gated[2].CustomID)

	plain := rowButtons(t, MenuComponents("chan1", false)[0])
	require.Len(t, plain, 1)
	assert.Equal(t, ClosePrefix+"chan1", plain[0].CustomID)
	assert.Equal(t, discordgo.DangerButton, plain[0].Style)
}

func TestStyleForUnknownColorDefaults(t *testing.T) {
	assert.Equal(t, discordgo.PrimaryButton, StyleFor("magenta"))
	assert.Equal(t, discordgo.SecondaryButton, StyleFor("gray"))
}

func TestDisableButtonTouchesOnlyTarget(t *testing.T) {
	// Shape matches what a fetched message carries: pointer components.
	fetched := []discordgo.MessageComponent{
		&discordgo.ActionsRow{
			Components: []discordgo.MessageComponent{
				&discordgo.Button{CustomID: RoleGiverPrefix + "vip", Label: "VIP"},
				&discordgo.Button{CustomID: RoleGiverPrefix + "beta", Label: "Beta"},
			},
		},
	}

	rows := DisableButton(fetched, RoleGiverPrefix+"vip", "VIP (given)")
	require.Len(t, rows, 1)

	row, ok := rows[0].(discordgo.ActionsRow)
	require.True(t, ok)
	require.Len(t, row.Components, 2)

	vip, ok := row.Components[0].(discordgo.Button)
	require.True(t, ok)
	assert.True(t, vip.Disabled)
	assert.Equal(t, "VIP (given)", vip.Label)

	beta, ok := row.Components[1].(*discordgo.Button)
	require.True(t, ok)
	assert.False(t, beta.Disabled)
	assert.Equal(t, "Beta", beta.Label)
}
