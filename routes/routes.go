package routes

import (
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/teamgrid/community-system/handlers"
	"github.com/teamgrid/community-system/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	authenticator *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	profileHandler *handlers.ProfileHandler,
	communityHandler *handlers.CommunityHandler,
	teamHandler *handlers.TeamHandler,
	invitationHandler *handlers.InvitationHandler,
	tournamentHandler *handlers.TournamentHandler,
	proposalHandler *handlers.ProposalHandler,
	notificationHandler *handlers.NotificationHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Публичные маршруты
	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Get("/communities", communityHandler.List)
	router.Get("/communities/{communityID}", communityHandler.Get)
	router.Get("/teams/{teamID}", teamHandler.Get)
	router.Get("/tournaments", tournamentHandler.List)
	router.Get("/tournaments/{tournamentID}", tournamentHandler.Get)
	router.Get("/tournaments/{tournamentID}/participants", tournamentHandler.ListParticipants)
	router.Get("/users/{userID}", userHandler.Get)

	// Защищённые маршруты
	router.Group(func(r chi.Router) {
		r.Use(authenticator.Authenticate)

		r.Post("/auth/logout", authHandler.Logout)

		r.Get("/me/dashboard", userHandler.Dashboard)
		r.Delete("/me", userHandler.DeleteAccount)

		r.Get("/users/{userID}/profile", profileHandler.Get)
		r.Put("/me/profile", profileHandler.Update)
		r.Post("/me/profile/photo", profileHandler.UploadPhoto)

		r.Post("/communities", communityHandler.Create)
		r.Post("/communities/{communityID}/leave", communityHandler.Leave)
		r.Post("/communities/{communityID}/members/{userID}/expel", communityHandler.ExpelMember)
		r.Post("/communities/{communityID}/members/{userID}/readmit", communityHandler.ReadmitMember)
		r.Put("/communities/{communityID}/members/{userID}/role", communityHandler.ChangeMemberRole)
		r.Post("/communities/{communityID}/logo", communityHandler.UploadLogo)

		r.Post("/teams", teamHandler.Create)
		r.Post("/teams/{teamID}/join", teamHandler.Join)
		r.Post("/teams/{teamID}/leave", teamHandler.Leave)
		r.Put("/teams/{teamID}/members/{userID}/role", teamHandler.ChangeRole)
		r.Delete("/teams/{teamID}/members/{userID}", teamHandler.RemoveMember)

		r.Post("/invitations", invitationHandler.Send)
		r.Get("/invitations", invitationHandler.ListMine)
		r.Post("/invitations/{invitationID}/accept", invitationHandler.Accept)
		r.Post("/invitations/{invitationID}/reject", invitationHandler.Reject)

		r.Post("/tournaments", tournamentHandler.Create)
		r.Post("/proposals", proposalHandler.Submit)
		r.Get("/proposals/{proposalID}", proposalHandler.Get)
		r.Post("/proposals/{proposalID}/votes", proposalHandler.Vote)
		r.Post("/proposals/{proposalID}/approve", proposalHandler.Approve)

		r.Get("/notifications", notificationHandler.ListMine)
		r.Post("/notifications/{notificationID}/read", notificationHandler.MarkRead)

		r.Get("/ws/notifications", webSocketHandler.ServeWs)
	})
}
