// Package read реализует HTTP-обработчик просмотра файла журналов:
// метаданные вместе с результатом анализа, если анализ уже выполнялся.
package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/http/response"
	"github.com/magabrotheeeer/log-shield/internal/lib/sl"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// Handler управляет HTTP-запросами на просмотр файла и его анализа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики чтения файла с анализом.
type Service interface {
	Retrieve(ctx context.Context, userUID string, fileID int64) (*models.LogFile, *models.AnalysisResult, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Получить файл с результатом анализа
// @Description Возвращает метаданные файла и результат анализа; поле analysis равно null, если анализ ещё не выполнялся.
// @Tags Logs
// @Produce  json
// @Param id path int true "Идентификатор файла"
// @Success 200 {object} map[string]any "Метаданные и анализ"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Файл не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /logs/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.read"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	fileID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		log.Error("invalid file id", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid id"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	file, analysis, err := h.service.Retrieve(r.Context(), userUID, fileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("file not found", slog.Int64("file_id", fileID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("not found"))
			return
		}
		log.Error("failed to retrieve file", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not retrieve file"))
		return
	}

	log.Info("file retrieved", slog.Int64("file_id", fileID), slog.Bool("has_analysis", analysis != nil))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"file":     file,
		"analysis": analysis,
	}))
}
