package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"ot-tickets/db"
	"ot-tickets/handlers"
	"ot-tickets/handlers/command"
	"ot-tickets/handlers/modal"
	"ot-tickets/handlers/msgcomponent"
	"ot-tickets/monitoring"
	"ot-tickets/registry"
	"ot-tickets/tickets"
	"ot-tickets/types"

	"github.com/bwmarrin/discordgo"
	"github.com/infinitybotlist/eureka/proxy"
	"github.com/infinitybotlist/eureka/snippets"
	"github.com/infinitybotlist/iblfile"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	config *types.Config

	secrets *types.Secrets

	discord *discordgo.Session

	pool *pgxpool.Pool

	rediscli *redis.Client

	database *db.Database

	engine *tickets.Engine

	reg *registry.Registry

	ctx = context.Background()

	logger *zap.Logger
)

func init() {
	iblfile.RegisterFormat(
		"ticket",
		&iblfile.Format{
			Format:  "transcript",
			Version: "a1",
		},
	)
}

func loadYaml(path string, out any) error {
	raw, err := os.ReadFile(path)

	if err != nil {
		return err
	}

	return yaml.Unmarshal(types.ExpandEnv(raw), out)
}

// ensureGuild rejects interactions outside a guild. The bypass user is the
// one exception; its member object is synthesized and the use is audited.
func ensureGuild(s *discordgo.Session, i *discordgo.Interaction, kind string) bool {
	if i.Member != nil && i.Member.User != nil {
		return true
	}

	if i.User != nil && engine.IsElevated(nil, i.User.ID, "dm_"+kind, i.ChannelID) {
		i.Member = &discordgo.Member{User: i.User}
		return true
	}

	err := handlers.Ephemeral(s, i, "This can only be used inside a server!")

	if err != nil {
		logger.Error("Error rejecting DM interaction", zap.Error(err))
	}

	return false
}

// apologize reports a handler failure to the user regardless of whether the
// interaction was already acknowledged.
func apologize(s *discordgo.Session, i *discordgo.Interaction) {
	msg := "An error occurred. Please contact our support team about this!"

	if err := handlers.Ephemeral(s, i, msg); err != nil {
		if err := handlers.EditResponse(s, i, msg); err != nil {
			logger.Error("Error sending apology", zap.Error(err))
		}
	}
}

func onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()

		if data.Name != "ticket" || len(data.Options) == 0 {
			return
		}

		sub := data.Options[0]

		fn, ok := command.Handlers[sub.Name]

		if !ok {
			logger.Error("Invalid command handler", zap.String("subcommand", sub.Name))
			return
		}

		if !ensureGuild(s, i.Interaction, "command") {
			return
		}

		err := fn(s, i.Interaction, command.OptionsMap(sub), config, engine, reg, database, ctx, logger)

		if err != nil {
			monitoring.InteractionErrors.WithLabelValues("command").Inc()
			logger.Error("Error handling command", zap.Error(err), zap.String("subcommand", sub.Name), zap.String("userId", i.Member.User.ID))
			apologize(s, i.Interaction)
		}
	case discordgo.InteractionMessageComponent:
		data := i.MessageComponentData()

		fn, arg, ok := msgcomponent.Match(data.CustomID)

		if !ok {
			logger.Error("Invalid component handler", zap.String("customId", data.CustomID))
			return
		}

		if !ensureGuild(s, i.Interaction, "component") {
			return
		}

		err := fn(s, i.Interaction, data, arg, config, engine, reg, ctx, logger)

		if err != nil {
			monitoring.InteractionErrors.WithLabelValues("component").Inc()
			logger.Error("Error handling component", zap.Error(err), zap.String("customId", data.CustomID), zap.String("userId", i.Member.User.ID))
			apologize(s, i.Interaction)
		}
	case discordgo.InteractionModalSubmit:
		data := i.ModalSubmitData()

		name, arg, _ := strings.Cut(data.CustomID, ":")

		fn, ok := modal.Handlers[name]

		if !ok {
			logger.Error("Invalid modal handler", zap.String("customId", data.CustomID))
			return
		}

		if !ensureGuild(s, i.Interaction, "modal") {
			return
		}

		err := fn(s, i.Interaction, data, arg, config, engine, reg, ctx, logger)

		if err != nil {
			monitoring.InteractionErrors.WithLabelValues("modal").Inc()
			logger.Error("Error handling modal", zap.Error(err), zap.String("customId", data.CustomID), zap.String("userId", i.Member.User.ID))
			apologize(s, i.Interaction)
		}
	}
}

func main() {
	logger = snippets.CreateZap()

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file loaded", zap.Error(err))
	}

	if err := loadYaml("config.yaml", &config); err != nil {
		panic(err)
	}

	if err := config.Validate(); err != nil {
		logger.Fatal("Invalid config", zap.Error(err))
	}

	if err := loadYaml("secrets.yaml", &secrets); err != nil {
		panic(err)
	}

	var err error

	pool, err = pgxpool.New(ctx, config.Database.Postgres)

	if err != nil {
		panic(err)
	}

	database = db.New(pool, logger)

	if err := database.InitSchema(ctx); err != nil {
		logger.Fatal("Error initialising schema", zap.Error(err))
	}

	rOptions, err := redis.ParseURL(config.Database.Redis)

	if err != nil {
		panic(err)
	}

	rediscli = redis.NewClient(rOptions)

	discord, err = discordgo.New("Bot " + secrets.Token)

	if err != nil {
		panic(err)
	}

	if config.Database.ProxyURL != "" {
		discord.Client.Transport = proxy.NewHostRewriter(config.Database.ProxyURL, http.DefaultTransport, func(s string) {
			logger.Info("[PROXY]", zap.String("note", s))
		})
	}

	discord.Identify.Intents = discordgo.IntentsAllWithoutPrivileged | discordgo.IntentsMessageContent | discordgo.IntentsGuildMembers

	discord.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		logger.Info("Bot is ready", zap.String("username", r.User.Username), zap.String("userId", r.User.ID))
	})

	if err := discord.Open(); err != nil {
		panic(err)
	}

	botUserID := discord.State.User.ID

	reg = registry.New(config, database, discord, botUserID, logger)
	engine = tickets.New(config, secrets, database, reg, discord, rediscli, botUserID, logger)

	discord.AddHandler(onInteraction)

	if _, err := discord.ApplicationCommandCreate(botUserID, "", command.Command()); err != nil {
		logger.Fatal("Error registering /ticket command", zap.Error(err))
	}

	srv := monitoring.NewServer(config.Monitoring.Port, database.Pool(), rediscli, discord)

	go func() {
		logger.Info("Monitoring server listening", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Monitoring server failed", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error stopping monitoring server", zap.Error(err))
	}

	if err := discord.Close(); err != nil {
		logger.Error("Error closing discord session", zap.Error(err))
	}

	pool.Close()

	if err := rediscli.Close(); err != nil {
		logger.Error("Error closing redis client", zap.Error(err))
	}
}
