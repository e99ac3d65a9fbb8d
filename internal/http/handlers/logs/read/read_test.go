package read

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Retrieve(ctx context.Context, userUID string, fileID int64) (*models.LogFile, *models.AnalysisResult, error) {
	args := m.Called(ctx, userUID, fileID)
	var file *models.LogFile
	if args.Get(0) != nil {
		file = args.Get(0).(*models.LogFile)
	}
	var analysis *models.AnalysisResult
	if args.Get(1) != nil {
		analysis = args.Get(1).(*models.AnalysisResult)
	}
	return file, analysis, args.Error(2)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const userUID = "c0ffee00-0000-0000-0000-000000000001"

	file := &models.LogFile{
		ID:        12,
		LogType:   "Firewall Logs",
		Filename:  "fw.log",
		Size:      2048,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	analysis := &models.AnalysisResult{
		TotalLogs:       10,
		MaliciousEvents: 1,
		AlertLevel:      "Low",
		SourceIP:        "192.0.2.7",
		LogType:         "Firewall Logs",
	}

	tests := []struct {
		name           string
		id             string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "файл с анализом",
			id:   "12",
			setupMock: func(m *MockService) {
				m.On("Retrieve", mock.Anything, userUID, int64(12)).Return(file, analysis, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"alert_level":"Low"`,
		},
		{
			name: "файл без анализа",
			id:   "12",
			setupMock: func(m *MockService) {
				m.On("Retrieve", mock.Anything, userUID, int64(12)).Return(file, nil, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"analysis":null`,
		},
		{
			name:           "некорректный id",
			id:             "abc",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"invalid id"`,
		},
		{
			name: "файл не найден",
			id:   "404",
			setupMock: func(m *MockService) {
				m.On("Retrieve", mock.Anything, userUID, int64(404)).
					Return(nil, nil, models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name: "ошибка сервиса",
			id:   "13",
			setupMock: func(m *MockService) {
				m.On("Retrieve", mock.Anything, userUID, int64(13)).
					Return(nil, nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not retrieve file"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodGet, "/logs/"+tt.id, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
