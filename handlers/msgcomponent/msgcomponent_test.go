package msgcomponent

import (
	"testing"

	"ot-tickets/tickets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchRoutesByPrefix(t *testing.T) {
	tests := []struct {
		customID string
		wantArg  string
	}{
		{tickets.DropdownID, ""},
		{tickets.ClaimPrefix + "12345", "12345"},
		{tickets.ApprovePrefix + "12345", "12345"},
		{tickets.DenyPrefix + "12345", "12345"},
		{tickets.ClosePrefix + "12345", "12345"},
		{tickets.RoleGiverPrefix + "vip", "vip"},
	}

	for _, tt := range tests {
		t.Run(tt.customID, func(t *testing.T) {
			fn, arg, ok := Match(tt.customID)
			require.True(t, ok)
			require.NotNil(t, fn)
			assert.Equal(t, tt.wantArg, arg)
		})
	}
}

func TestMatchRejectsUnknownIDs(t *testing.T) {
	_, _, ok := Match("unrelated_button")
	assert.False(t, ok)
}
