package routes

import (
	"github.com/go-chi/chi/v5"

	"csr-collective/engage/internal/api"
	"csr-collective/engage/internal/metrics"
	"csr-collective/engage/internal/middleware"
)

// RegisterAPIRoutes registers all API v1 routes and handlers.
// This keeps API route registration separate from the main router setup.
func RegisterAPIRoutes(r chi.Router, metricsReg *metrics.MetricsRegistry, repos *api.Repositories, svcs *api.Services) {

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.AuthMiddleware())

		v1.Route("/activities/{activityId}", func(activity chi.Router) {
			activity.Post("/signup", api.SignupActivityHandler(svcs.Participation, metricsReg))
			activity.Post("/withdraw", api.WithdrawActivityHandler(svcs.Participation, metricsReg))
			activity.Put("/detail", api.UpdateDetailHandler(svcs.Participation, metricsReg))

			activity.Get("/participants", api.GetParticipantCountHandler(svcs.Aggregation, repos.Activities))
			activity.Get("/aggregate", api.GetActivityAggregateHandler(svcs.Aggregation, repos.Activities))

			activity.Get("/participations/{userId}", api.GetLatestParticipationHandler(svcs.Query))
			activity.Get("/participations/{userId}/verify", api.VerifyParticipationHandler(svcs.Participation))
		})

		v1.Route("/events/{eventId}", func(event chi.Router) {
			event.Get("/aggregate", api.GetEventAggregateHandler(svcs.Aggregation, repos.Events))
			event.Get("/users/{userId}/activities", api.ListUserEventParticipationsHandler(svcs.Query))
		})

		v1.Get("/users/{userId}/details", api.GetUserDetailsHandler(svcs.Query, repos.Users))
	})
}
