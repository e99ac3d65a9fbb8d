package logshield

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/log-shield/internal/config"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/health"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/logs/analyze"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/logs/download"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/logs/list"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/logs/read"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/logs/remove"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/logs/upload"
	"github.com/magabrotheeeer/log-shield/internal/http/handlers/logs/usage"
	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	ingestionservice "github.com/magabrotheeeer/log-shield/internal/services/ingestion"
	"github.com/magabrotheeeer/log-shield/internal/storage/repository"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, cfg *config.Config, ingestionService *ingestionservice.Service, tokenMaker middlewarectx.TokenParser, db *repository.Storage) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(tokenMaker, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))
			r.Post("/logs", upload.New(logger, ingestionService, cfg.MaxUploadBytes).ServeHTTP)
			r.Get("/logs/list", list.New(logger, ingestionService).ServeHTTP)
			r.Get("/logs/{id}", read.New(logger, ingestionService).ServeHTTP)
			r.Get("/logs/{id}/download", download.New(logger, ingestionService).ServeHTTP)
			r.Post("/logs/{id}/analyze", analyze.New(logger, ingestionService).ServeHTTP)
			r.Delete("/logs/{id}", remove.New(logger, ingestionService).ServeHTTP)
			r.Get("/storage/usage", usage.New(logger, ingestionService).ServeHTTP)
		})
	})

	// Открытая конечная точка проверки работоспособности
	r.Get("/health", health.New(logger, db).ServeHTTP)

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
