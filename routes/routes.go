package routes

import (
	"github.com/Carlos-Trindade-code/sbar-health-sub000/handlers"
	"github.com/Carlos-Trindade-code/sbar-health-sub000/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	jwtSecret []byte,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	teamHandler *handlers.TeamHandler,
	inviteHandler *handlers.InviteHandler,
	webSocketHandler *handlers.WebSocketHandler,
	allowedOrigins []string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/signup", authHandler.SignUp)
	router.Post("/auth/signin", authHandler.SignIn)

	// Public invite preview: a prospective invitee can inspect the target
	// team without an account.
	router.Get("/invites/{code}", inviteHandler.GetInvite)

	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Post("/invites/{code}/accept", inviteHandler.AcceptInvite)

		r.Get("/users/me", userHandler.GetMe)
		r.Put("/users/me/avatar", userHandler.UploadAvatar)

		r.Route("/teams", func(r chi.Router) {
			r.Post("/", teamHandler.CreateTeam)

			r.Route("/{teamID}", func(r chi.Router) {
				r.Get("/", teamHandler.GetTeam)
				r.Put("/", teamHandler.RenameTeam)

				r.Get("/members", teamHandler.ListMembers)
				r.Patch("/members/{userID}", teamHandler.ChangeMemberRole)
				r.Delete("/members/{userID}", teamHandler.RemoveMember)

				r.Post("/invites", inviteHandler.CreateInvite)
				r.Get("/invites", inviteHandler.ListTeamInvites)
				r.Delete("/invites/{inviteID}", inviteHandler.RevokeInvite)
				r.Post("/invites/{inviteID}/approve", inviteHandler.ApproveRequest)
				r.Post("/invites/{inviteID}/reject", inviteHandler.RejectRequest)

				r.Get("/activity", teamHandler.ListActivity)
			})
		})

		r.Get("/ws/teams/{teamID}/activity", webSocketHandler.ServeActivityFeed)
	})
}
