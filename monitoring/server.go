package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/alexliesenfeld/health"
	"github.com/bwmarrin/discordgo"
	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const defaultPort = 8016

// NewServer builds the HTTP server exposing /metrics and /health. The
// Discord check is periodic so a gateway hiccup does not add latency to
// every probe.
func NewServer(port int, pool *pgxpool.Pool, rdb *redis.Client, discord *discordgo.Session) *http.Server {
	if port == 0 {
		port = defaultPort
	}

	checker := health.NewChecker(
		health.WithCacheDuration(1*time.Second),
		health.WithTimeout(2*time.Second),

		health.WithCheck(health.Check{
			Name: "postgres",
			Check: func(ctx context.Context) error {
				return pool.Ping(ctx)
			},
		}),

		health.WithCheck(health.Check{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return rdb.Ping(ctx).Err()
			},
		}),

		health.WithPeriodicCheck(15*time.Second, 5*time.Second, health.Check{
			Name: "discord",
			Check: func(ctx context.Context) error {
				if _, err := discord.GatewayBot(); err != nil {
					return fmt.Errorf("failed to ping Discord API: %w", err)
				}

				return nil
			},
			Timeout: 3 * time.Second,
		}),
	)

	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/health", health.NewHandler(checker))

	return &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: r,
	}
}
