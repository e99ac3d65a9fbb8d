// Package logshield собирает сервис приёма и анализа журналов безопасности:
// подключение к PostgreSQL с миграциями, Redis-кэш результатов анализа,
// RabbitMQ для событий анализа, внешний движок и HTTP-сервер.
package logshield

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/log-shield/internal/cache"
	"github.com/magabrotheeeer/log-shield/internal/config"
	"github.com/magabrotheeeer/log-shield/internal/engine"
	"github.com/magabrotheeeer/log-shield/internal/lib/jwt"
	"github.com/magabrotheeeer/log-shield/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/log-shield/internal/migrations"
	"github.com/magabrotheeeer/log-shield/internal/services/ingestion"
	"github.com/magabrotheeeer/log-shield/internal/storage/repository"
)

type App struct {
	server   *http.Server
	logger   *slog.Logger
	db       *repository.Storage
	rabbitmq *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	rabbitConn, err := rabbitmq.Connect(cfg.AddressRabbit, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.DefaultQueues)
	if err != nil {
		return nil, err
	}
	publisher := rabbitmq.NewPublisher(ch)

	runner := engine.New(logger, cfg.Engine.Command, cfg.Engine.Script, cfg.Engine.Timeout)

	ingestionService := ingestion.New(db, runner, cacheRedis, publisher, logger)

	tokenMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, ingestionService, tokenMaker, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		logger:   logger,
		db:       db,
		rabbitmq: rabbitConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		a.rabbitmq.Close()
		return err
	}
}
