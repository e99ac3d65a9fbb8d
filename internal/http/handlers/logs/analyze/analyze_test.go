package analyze

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// MockService реализует интерфейс analyze.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Analyze(ctx context.Context, userUID string, fileID int64) (*models.AnalysisResult, int64, error) {
	args := m.Called(ctx, userUID, fileID)
	var result *models.AnalysisResult
	if args.Get(0) != nil {
		result = args.Get(0).(*models.AnalysisResult)
	}
	return result, args.Get(1).(int64), args.Error(2)
}

func TestAnalyzeHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const userUID = "c0ffee00-0000-0000-0000-000000000001"

	okResult := &models.AnalysisResult{
		TotalLogs:       120,
		MaliciousEvents: 4,
		GraphData:       "aGVsbG8=",
		AlertLevel:      "Medium",
		SourceIP:        "192.0.2.10",
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
			name: "успешный анализ",
			id:   "7",
			setupMock: func(m *MockService) {
				m.On("Analyze", mock.Anything, userUID, int64(7)).Return(okResult, int64(3), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"analysis_id":3`,
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
				m.On("Analyze", mock.Anything, userUID, int64(404)).
					Return(nil, int64(0), models.ErrNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name: "движок не уложился в таймаут",
			id:   "8",
			setupMock: func(m *MockService) {
				m.On("Analyze", mock.Anything, userUID, int64(8)).
					Return(nil, int64(0), models.ErrEngineTimeout)
			},
			expectedStatus: http.StatusGatewayTimeout,
			expectedBody:   `"error":"analysis timed out"`,
		},
		{
			name: "движок завершился с ошибкой",
			id:   "9",
			setupMock: func(m *MockService) {
				m.On("Analyze", mock.Anything, userUID, int64(9)).
					Return(nil, int64(0), models.ErrEngineFailure)
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"error":"analysis failed"`,
		},
		{
			name: "движок вернул мусор",
			id:   "10",
			setupMock: func(m *MockService) {
				m.On("Analyze", mock.Anything, userUID, int64(10)).
					Return(nil, int64(0), models.ErrMalformedEngineOutput)
			},
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `"error":"analysis failed"`,
		},
		{
			name: "ошибка сервиса",
			id:   "11",
			setupMock: func(m *MockService) {
				m.On("Analyze", mock.Anything, userUID, int64(11)).
					Return(nil, int64(0), errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not analyze file"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/logs/"+tt.id+"/analyze", nil)
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

func TestAnalyzeHandler_ResultFieldsSerialized(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const userUID = "c0ffee00-0000-0000-0000-000000000001"

	mockService := new(MockService)
	mockService.On("Analyze", mock.Anything, userUID, int64(5)).Return(&models.AnalysisResult{
		TotalLogs:       50,
		MaliciousEvents: 2,
		GraphData:       "Zm9v",
		AlertLevel:      "High",
		SourceIP:        "Unknown",
		LogType:         "DNS Query Logs",
	}, int64(1), nil)

	handler := New(logger, mockService)

	req := httptest.NewRequest(http.MethodPost, "/logs/5/analyze", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", "5")
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
	ctx = context.WithValue(ctx, middlewarectx.UserUID, userUID)
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `"alert_level":"High"`)
	assert.Contains(t, body, `"sourceIp":"Unknown"`)
	assert.Contains(t, body, `"malicious_events":2`)
	mockService.AssertExpectations(t)
}
