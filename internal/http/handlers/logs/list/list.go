// Package list реализует HTTP-обработчик постраничного списка файлов
// журналов пользователя, новые первыми.
package list

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/http/response"
	"github.com/magabrotheeeer/log-shield/internal/lib/sl"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// Handler управляет HTTP-запросами на листинг файлов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики листинга файлов.
type Service interface {
	List(ctx context.Context, userUID string, limit, offset int) ([]*models.LogFile, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Список файлов журналов
// @Description Возвращает метаданные файлов текущего пользователя, новые первыми. Размер страницы не больше 10.
// @Tags Logs
// @Produce  json
// @Param limit query int false "Размер страницы"
// @Param offset query int false "Смещение"
// @Success 200 {object} map[string]any "Страница файлов"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /logs/list [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.list"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = 10
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	files, err := h.service.List(r.Context(), userUID, limit, offset)
	if err != nil {
		log.Error("failed to list files", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list"))
		return
	}

	log.Info("files listed", slog.Int("count", len(files)))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"files_count": len(files),
		"files":       files,
	}))
}
