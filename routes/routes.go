package routes

import (
	"github.com/Dosada05/tournament-calendar/handlers"
	"github.com/Dosada05/tournament-calendar/middleware"
	"github.com/Dosada05/tournament-calendar/session"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

type Options struct {
	AllowedOrigins []string
	Session        *session.Session
	Logger         *zap.Logger
}

func SetupRoutes(
	router chi.Router,
	opts Options,
	calendarHandler *handlers.CalendarHandler,
	composerHandler *handlers.ComposerHandler,
	engagementHandler *handlers.EngagementHandler,
	sessionHandler *handlers.SessionHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(middleware.RequestLogger(opts.Logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/ws", webSocketHandler.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(opts.Session))

		r.Get("/view", calendarHandler.View)
		r.Get("/month", calendarHandler.Month)
		r.Post("/refresh", calendarHandler.Refresh)
		r.Get("/days/{date}", calendarHandler.Day)
		r.Post("/days/{date}/inspect", calendarHandler.Inspect)

		r.Get("/state", composerHandler.State)
		r.Post("/interrupt", composerHandler.Interrupt)
		r.Route("/compose", func(r chi.Router) {
			r.Post("/", composerHandler.Compose)
			r.Post("/edit/{id}", composerHandler.Edit)
			r.Put("/draft", composerHandler.UpdateDraft)
			r.Post("/platforms/{platform}", composerHandler.TogglePlatform)
			r.Post("/links", composerHandler.AddLink)
			r.Put("/links/{index}", composerHandler.SetLink)
			r.Post("/image", composerHandler.UploadImage)
			r.Post("/submit", composerHandler.Submit)
			r.Post("/cancel", composerHandler.Cancel)
		})

		r.Route("/tournaments/{id}", func(r chi.Router) {
			r.Delete("/", composerHandler.Delete)
			r.Post("/like", engagementHandler.ToggleLike)
			r.Get("/comments", engagementHandler.ListComments)
			r.Post("/comments", engagementHandler.PostComment)
		})

		r.Get("/session", sessionHandler.Status)
		r.Post("/session", sessionHandler.SignIn)
		r.Delete("/session", sessionHandler.SignOut)
		r.Get("/theme", sessionHandler.Theme)
		r.Post("/theme/toggle", sessionHandler.ToggleTheme)
	})
}
