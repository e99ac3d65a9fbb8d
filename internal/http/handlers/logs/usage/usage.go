// Package usage реализует HTTP-обработчик сводки по хранилищу пользователя.
package usage

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/http/response"
	"github.com/magabrotheeeer/log-shield/internal/lib/sl"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// Handler управляет HTTP-запросами сводки по хранилищу.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики сводки по хранилищу.
type Service interface {
	Snapshot(ctx context.Context, userUID, plan string) (*models.StorageSnapshot, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Сводка по хранилищу
// @Description Возвращает занятый объем, лимит тарифа, процент использования и признак возможности загрузки.
// @Tags Storage
// @Produce  json
// @Success 200 {object} models.StorageSnapshot "Сводка по хранилищу"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /storage/usage [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.usage"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	plan, _ := r.Context().Value(middlewarectx.Plan).(string)

	snapshot, err := h.service.Snapshot(r.Context(), userUID, plan)
	if err != nil {
		log.Error("failed to build storage snapshot", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to read storage usage"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(snapshot))
}
