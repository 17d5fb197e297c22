package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"hostprompt/internal/auth"
	"hostprompt/internal/generation"
	"hostprompt/internal/httputil"
	"hostprompt/internal/library"
	"hostprompt/internal/media"
	"hostprompt/internal/properties"
	"hostprompt/internal/vision"
)

// Deps is everything the router mounts.
type Deps struct {
	Auth        auth.Handler
	Sessions    auth.Middleware
	Generation  generation.Handler
	Vision      vision.Handler
	Properties  properties.Handler
	Library     library.Handler
	Metrics     http.Handler
	Static      http.Handler
	MediaDir    string
	CORSOrigins []string
	Logger      zerolog.Logger
	// RequestTimeout bounds every route except the event stream.
	RequestTimeout time.Duration
}

// New constructs the HTTP server with routes and middleware.
func New(port string, deps Deps) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           Router(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      0, // SSE streams stay open
		IdleTimeout:       60 * time.Second,
	}
}

// Router builds the chi router.
func Router(deps Deps) http.Handler {
	timeout := deps.RequestTimeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}

	router := chi.NewRouter()
	router.Use(chimw.RealIP)
	router.Use(chimw.RequestID)
	router.Use(chimw.Recoverer)
	router.Use(Metrics)
	router.Use(Logger(deps.Logger))
	router.NotFound(notFound)
	router.MethodNotAllowed(methodNotAllowed)

	router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics != nil {
		router.Handle("/metrics", deps.Metrics)
	}

	router.Route("/api", func(r chi.Router) {
		r.Use(deps.Sessions.InjectUser)

		// The event stream is long-lived and sits outside the timeout.
		r.With(auth.RequireAuth).Get("/events", deps.Generation.Events)

		r.Group(func(r chi.Router) {
			r.Use(Timeout(timeout))

			r.Route("/auth", func(r chi.Router) {
				r.Post("/register", deps.Auth.Register)
				r.Post("/login", deps.Auth.Login)
				r.Post("/logout", deps.Auth.Logout)
				r.Get("/me", deps.Auth.Me)
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)

				r.Get("/generation-options", deps.Generation.Options)
				r.Post("/generate-content", deps.Generation.GenerateContent)
				r.Post("/edit-content-with-prompt", deps.Generation.EditContent)
				r.Post("/analyze-brand-voice", deps.Generation.AnalyzeBrandVoice)
				r.Post("/analyze-image", deps.Vision.AnalyzeImage)

				r.Route("/properties", func(r chi.Router) {
					r.Get("/", deps.Properties.List)
					r.Post("/", deps.Properties.Create)
					r.Route("/{id}", func(r chi.Router) {
						r.Get("/", deps.Properties.Get)
						r.Patch("/", deps.Properties.Update)
						r.Delete("/", deps.Properties.Delete)
						r.Post("/photos", deps.Properties.UploadPhoto)
						r.Put("/photos/{photoID}/primary", deps.Properties.SetPrimaryPhoto)
						r.Delete("/photos/{photoID}", deps.Properties.DeletePhoto)
					})
				})

				r.Route("/content", func(r chi.Router) {
					r.Get("/", deps.Library.List)
					r.Post("/", deps.Library.Save)
					r.Get("/{id}", deps.Library.Get)
					r.Delete("/{id}", deps.Library.Delete)
				})
			})
		})
	})

	if deps.MediaDir != "" {
		router.Handle(media.LocalURLPrefix+"/*", http.StripPrefix(media.LocalURLPrefix, http.FileServer(http.Dir(deps.MediaDir))))
	}

	// Serve the static frontend
	if deps.Static != nil {
		router.Handle("/*", deps.Static)
	}

	if len(deps.CORSOrigins) == 0 {
		return router
	}
	return cors.New(cors.Options{
		AllowedOrigins:   deps.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Last-Event-ID"},
		AllowCredentials: true,
	}).Handler(router)
}
