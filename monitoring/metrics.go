package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const appName = "ottickets"

var (
	// TicketsCreated is the total number of tickets opened, by category.
	TicketsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: appName + "_tickets_created_total",
			Help: "Total number of tickets opened",
		},
		[]string{"category"},
	)

	// TicketsClosed is the total number of tickets closed, by how they ended.
	TicketsClosed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: appName + "_tickets_closed_total",
			Help: "Total number of tickets closed",
		},
		[]string{"reason"},
	)

	// RoleGrants is the total number of roles granted through approvals and
	// role-giver buttons.
	RoleGrants = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: appName + "_role_grants_total",
			Help: "Total number of roles granted",
		},
		[]string{"source", "outcome"},
	)

	// PanelRefreshFailures counts panel refreshes that could not re-render
	// their option list. Failures are counted, not retried.
	PanelRefreshFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: appName + "_panel_refresh_failures_total",
			Help: "Total number of failed panel refreshes",
		},
	)

	// InteractionErrors counts handler failures by interaction kind.
	InteractionErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: appName + "_interaction_errors_total",
			Help: "Total number of interaction handler errors",
		},
		[]string{"kind"},
	)

	// AlertsSent counts new-ticket direct messages, including the ones that
	// could not be delivered.
	AlertsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: appName + "_alerts_sent_total",
			Help: "Total number of new-ticket alert DMs",
		},
		[]string{"outcome"},
	)
)
