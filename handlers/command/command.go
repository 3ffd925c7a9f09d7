package command

import (
	"context"

	"ot-tickets/db"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

type Handler func(s *discordgo.Session, i *discordgo.Interaction, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, config *types.Config, engine *tickets.Engine, reg *registry.Registry, database *db.Database, ctx context.Context, logger *zap.Logger) error

// Handlers is keyed by /ticket subcommand name.
var Handlers = map[string]Handler{}

func AddHandler(name string, handler Handler) {
	Handlers[name] = handler
}

func init() {
	AddHandler("create", create)
	AddHandler("close", closeTicket)
	AddHandler("menu", menu)
	AddHandler("list", list)
	AddHandler("alerts", alerts)
	AddHandler("categories", categories)
	AddHandler("panel", panel)
	AddHandler("deploy", deploy)
	AddHandler("refresh", refresh)
	AddHandler("cleanup", cleanup)
	AddHandler("setup", setup)
}

// OptionsMap flattens a subcommand's options by name.
func OptionsMap(sub *discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	opts := map[string]*discordgo.ApplicationCommandInteractionDataOption{}

	for _, opt := range sub.Options {
		opts[opt.Name] = opt
	}

	return opts
}

// Command is the /ticket application command this bot registers on startup.
func Command() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ticket",
		Description: "Support ticket management",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "create",
				Description: "Open a support ticket",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "category",
						Description: "The ticket category",
						Required:    true,
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "close",
				Description: "Close the ticket in this channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "menu",
				Description: "Post the admin menu for the ticket in this channel",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "list",
				Description: "List open tickets",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "alerts",
				Description: "Toggle new-ticket DM alerts for yourself",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "categories",
				Description: "Manage database-defined ticket categories",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "action",
						Description: "What to do",
						Required:    true,
						Choices: []*discordgo.ApplicationCommandOptionChoice{
							{Name: "add", Value: "add"},
							{Name: "remove", Value: "remove"},
							{Name: "roles", Value: "roles"},
							{Name: "list", Value: "list"},
						},
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "name",
						Description: "The category name",
					},
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        "roles",
						Description: "Role mentions or ids, separated by spaces or commas",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "panel",
				Description: "List the deployed panels of this server",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "deploy",
				Description: "Deploy the configured panels for this server",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "refresh",
				Description: "Re-render the deployed panel messages",
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "cleanup",
				Description: "Remove stray bot messages from a channel",
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionChannel,
						Name:        "channel",
						Description: "The channel to clean (defaults to this one)",
					},
				},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "setup",
				Description: "First-run setup: schema, ticket categories and panels",
			},
		},
	}
}
