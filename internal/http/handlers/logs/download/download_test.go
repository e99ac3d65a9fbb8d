package download

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// MockService реализует интерфейс download.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Download(ctx context.Context, userUID string, fileID int64) (string, []byte, error) {
	args := m.Called(ctx, userUID, fileID)
	var content []byte
	if args.Get(1) != nil {
		content = args.Get(1).([]byte)
	}
	return args.String(0), content, args.Error(2)
}

func TestDownloadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const userUID = "c0ffee00-0000-0000-0000-000000000001"

	content := []byte("2025-03-01 deny tcp 10.0.0.1 -> 10.0.0.2\n")

	t.Run("содержимое отдается байт в байт", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("Download", mock.Anything, userUID, int64(12)).
			Return("fw.log", content, nil)

		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodGet, "/logs/12/download", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "12")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, content, w.Body.Bytes())
		assert.Equal(t, "application/octet-stream", w.Header().Get("Content-Type"))
		assert.Equal(t, `attachment; filename="fw.log"`, w.Header().Get("Content-Disposition"))
		assert.Equal(t, "41", w.Header().Get("Content-Length"))
		mockService.AssertExpectations(t)
	})

	t.Run("файл не найден", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("Download", mock.Anything, userUID, int64(404)).
			Return("", nil, models.ErrNotFound)

		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodGet, "/logs/404/download", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "404")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("некорректный id", func(t *testing.T) {
		mockService := new(MockService)
		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodGet, "/logs/abc/download", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "abc")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockService.AssertNotCalled(t, "Download")
	})
}
