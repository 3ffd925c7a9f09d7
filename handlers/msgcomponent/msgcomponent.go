package msgcomponent

import (
	"context"
	"strings"

	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Handler func(s *discordgo.Session, i *discordgo.Interaction, data discordgo.MessageComponentInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error

// Handlers is keyed by custom-id prefix. The part after the prefix reaches
// the handler as arg.
var Handlers = map[string]Handler{}

func AddHandler(prefix string, handler Handler) {
	Handlers[prefix] = handler
}

func init() {
	AddHandler(tickets.DropdownID, dropdown)
	AddHandler(tickets.ClaimPrefix, claim)
	AddHandler(tickets.ApprovePrefix, approve)
	AddHandler(tickets.DenyPrefix, deny)
	AddHandler(tickets.ClosePrefix, closeTicket)
	AddHandler(tickets.RoleGiverPrefix, roleGiver)
}

// Match picks the handler for a custom id, longest prefix first.
func Match(customID string) (Handler, string, bool) {
	best := ""

	for prefix := range Handlers {
		if strings.HasPrefix(customID, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}

	if best == "" {
		return nil, "", false
	}

	return Handlers[best], strings.TrimPrefix(customID, best), true
}
