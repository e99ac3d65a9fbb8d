// Package upload реализует HTTP-обработчик загрузки файлов журналов.
//
// Handler принимает multipart-форму с типом журнала и файлом, проверяет
// квоты тарифа через сервис и возвращает идентификатор сохранённого файла.
package upload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/http/response"
	"github.com/magabrotheeeer/log-shield/internal/lib/sl"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// Handler управляет HTTP-запросами на загрузку файлов журналов.
type Handler struct {
	log            *slog.Logger
	service        Service
	maxUploadBytes int64
}

// Service описывает интерфейс бизнес-логики загрузки файла.
type Service interface {
	Upload(ctx context.Context, userUID, tier, logType, filename string, content []byte) (int64, error)
}

// New создает новый Handler с переданными логгером и сервисом.
func New(log *slog.Logger, service Service, maxUploadBytes int64) *Handler {
	return &Handler{
		log:            log,
		service:        service,
		maxUploadBytes: maxUploadBytes,
	}
}

// ServeHTTP godoc
// @Summary Загрузить файл журналов
// @Description Принимает файл журналов указанного типа и сохраняет его с проверкой квот тарифа.
// @Tags Logs
// @Accept  mpfd
// @Produce  json
// @Param logType formData string true "Тип журнала"
// @Param logFile formData file true "Файл журналов"
// @Success 200 {object} map[string]any "Файл сохранён"
// @Failure 400 {object} response.ErrorResponse "Некорректная форма или пустой файл"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Тип журнала недоступен или квота исчерпана"
// @Failure 413 {object} response.ErrorResponse "Файл слишком велик"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /logs [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.logs.upload"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		log.Error("failed to parse multipart form", sl.Err(err))
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			render.JSON(w, r, response.Error("uploaded file is too large"))
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid multipart form"))
		return
	}

	logType := r.FormValue("logType")
	if logType == "" {
		log.Error("log type not specified")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("log type not specified"))
		return
	}

	file, header, err := r.FormFile("logFile")
	if err != nil {
		log.Error("log file missing in form", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("log file is required"))
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		log.Error("failed to read uploaded file", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("failed to read uploaded file"))
		return
	}

	userUID, ok := r.Context().Value(middlewarectx.UserUID).(string)
	if !ok || userUID == "" {
		log.Error("user uid not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}
	plan, _ := r.Context().Value(middlewarectx.Plan).(string)

	id, err := h.service.Upload(r.Context(), userUID, plan, logType, header.Filename, content)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrQuotaExceeded):
			log.Info("upload rejected: quota exceeded")
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("storage quota exceeded"))
		case errors.Is(err, models.ErrForbiddenLogType):
			log.Info("upload rejected: forbidden log type", slog.String("log_type", logType))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("log type is not available on this plan"))
		case errors.Is(err, models.ErrEmptyUpload):
			log.Info("upload rejected: empty file")
			w.WriteHeader(http.StatusBadRequest)
			render.JSON(w, r, response.Error("uploaded file is empty"))
		default:
			log.Error("failed to store uploaded file", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("could not store uploaded file"))
		}
		return
	}

	log.Info("file uploaded", slog.Int64("id", id), slog.String("log_type", logType))
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"log_id": id,
	}))
}
