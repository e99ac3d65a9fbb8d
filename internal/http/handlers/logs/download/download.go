// Package download реализует HTTP-обработчик скачивания файла журналов.
//
// Содержимое отдаётся байт в байт, как оно было загружено, с оригинальным
// именем файла и точным Content-Length.
package download

import (
	"context"
	"errors"
	"fmt"
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

// Handler управляет HTTP-запросами на скачивание файлов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс бизнес-логики скачивания файла.
type Service interface {
	Download(ctx context.Context, userUID string, fileID int64) (string, []byte, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Скачать файл журналов
// @Description Отдаёт содержимое файла байт в байт с оригинальным именем.
// @Tags Logs
// @Produce  octet-stream
// @Param id path int true "Идентификатор файла"
// @Success 200 {file} binary "Содержимое файла"
// @Failure 400 {object} response.ErrorResponse "Некорректный идентификатор"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 404 {object} response.ErrorResponse "Файл не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /logs/{id}/download [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.download"
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

	filename, content, err := h.service.Download(r.Context(), userUID, fileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			log.Info("file not found", slog.Int64("file_id", fileID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("not found"))
			return
		}
		log.Error("failed to download file", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not download file"))
		return
	}

	log.Info("file downloaded", slog.Int64("file_id", fileID), slog.Int("size", len(content)))
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}
