// Package analyze реализует HTTP-обработчик запуска анализа загруженного файла.
//
// Handler находит файл владельца, передаёт его внешнему движку анализа
// через сервис и возвращает сохранённый результат вместе с идентификатором
// записи анализа. Повторный запуск заменяет прежний результат.
package analyze

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

// Handler управляет HTTP-запросами на анализ файлов журналов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики анализа файла.
type Service interface {
	Analyze(ctx context.Context, userUID string, fileID int64) (*models.AnalysisResult, int64, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проанализировать файл журналов
// @Description Запускает внешний движок анализа для файла и сохраняет результат. Повторный запуск заменяет прежний результат.
// @Tags Logs
// @Produce  json
// @Param id path int true "Идентификатор файла"
// @Success 200 {object} map[string]any "Результат анализа"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Файл не найден"
// @Failure 502 {object} response.ErrorResponse "Движок анализа не вернул валидный результат"
// @Failure 504 {object} response.ErrorResponse "Движок анализа не уложился в таймаут"
// @Router /logs/{id}/analyze [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.analyze"
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

	result, analysisID, err := h.service.Analyze(r.Context(), userUID, fileID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			log.Info("file not found", slog.Int64("file_id", fileID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("not found"))
		case errors.Is(err, models.ErrEngineTimeout):
			log.Error("analysis timed out", slog.Int64("file_id", fileID))
			w.WriteHeader(http.StatusGatewayTimeout)
			render.JSON(w, r, response.Error("analysis timed out"))
		case errors.Is(err, models.ErrEngineFailure), errors.Is(err, models.ErrMalformedEngineOutput):
			// Детали сбоя движка остаются в серверном логе.
			log.Error("analysis failed", slog.Int64("file_id", fileID), sl.Err(err))
			w.WriteHeader(http.StatusBadGateway)
			render.JSON(w, r, response.Error("analysis failed"))
		default:
			log.Error("failed to analyze file", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not analyze file"))
		}
		return
	}

	log.Info("analysis complete", slog.Int64("file_id", fileID), slog.Int64("analysis_id", analysisID))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"analysis_id": analysisID,
		"results":     result,
	}))
}
