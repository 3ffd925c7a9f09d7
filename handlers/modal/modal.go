package modal

import (
	"context"

	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Handler func(s *discordgo.Session, i *discordgo.Interaction, data discordgo.ModalSubmitInteractionData, arg string, config *types.Config, engine *tickets.Engine, reg *registry.Registry, ctx context.Context, logger *zap.Logger) error

// Handlers is keyed by the part of the custom id before the colon. The part
// after reaches the handler as arg.
var Handlers = map[string]Handler{}

func AddHandler(name string, handler Handler) {
	Handlers[name] = handler
}

func init() {
	AddHandler(tickets.FormPrefix, ticketForm)
}
