package mockapi

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

func (s *Server) routes() *chi.Mux {
	r := chi.NewRouter()

	origins := s.origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	r.Use(httplog.RequestLogger(s.logger, &httplog.Options{
		Level:  slog.LevelDebug,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", s.login)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(s.tokenAuth))
			r.Use(AuthRequired)

			r.Route("/leave-requests", func(r chi.Router) {
				r.Get("/leaves", s.listMyLeaves)
				r.Post("/", s.createLeave)

				r.Route("/admin", func(r chi.Router) {
					r.Use(AdminOnly)
					r.Get("/all", s.listAllLeaves)
					r.Get("/details/{id}", s.getAnyLeave)
					r.Post("/approve/{id}", s.approveLeave)
					r.Post("/reject/{id}", s.rejectLeave)
				})

				r.Get("/{id}", s.getMyLeave)
				r.Put("/{id}", s.updateLeave)
				r.Delete("/{id}", s.deleteLeave)
			})

			r.Route("/ot-reports", func(r chi.Router) {
				r.Get("/", s.listMyOT)
				r.Post("/", s.createOT)

				r.Route("/admin", func(r chi.Router) {
					r.Use(AdminOnly)
					r.Get("/all", s.listAllOT)
					r.Get("/details/{id}", s.getAnyOT)
					r.Post("/approve/{id}", s.approveOT)
					r.Post("/reject/{id}", s.rejectOT)
				})

				r.Get("/{id}", s.getMyOT)
				r.Put("/{id}", s.updateOT)
			})

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/check", s.check)
				r.Get("/history", s.history)
				r.With(AdminOnly).Get("/admin/all", s.allAttendance)
			})

			r.Route("/schedules", func(r chi.Router) {
				r.Get("/current", s.currentSchedule)
				r.With(AdminOnly).Post("/", s.createSchedule)
			})

			r.Get("/notify/list", s.listNotifications)
		})
	})
	return r
}
