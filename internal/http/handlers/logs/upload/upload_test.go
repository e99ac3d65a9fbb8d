package upload

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/log-shield/internal/http/middlewarectx"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// MockService реализует интерфейс upload.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Upload(ctx context.Context, userUID, tier, logType, filename string, content []byte) (int64, error) {
	args := m.Called(ctx, userUID, tier, logType, filename, content)
	return args.Get(0).(int64), args.Error(1)
}

func newMultipartBody(t *testing.T, logType, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if logType != "" {
		assert.NoError(t, writer.WriteField("logType", logType))
	}
	if filename != "" {
		part, err := writer.CreateFormFile("logFile", filename)
		assert.NoError(t, err)
		_, err = part.Write(content)
		assert.NoError(t, err)
	}
	assert.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestUploadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	const userUID = "c0ffee00-0000-0000-0000-000000000001"

	tests := []struct {
		name           string
		logType        string
		filename       string
		content        []byte
		withAuth       bool
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:     "успешная загрузка",
			logType:  "Firewall Logs",
			filename: "fw.log",
			content:  []byte("deny tcp 10.0.0.1"),
			withAuth: true,
			setupMock: func(m *MockService) {
				m.On("Upload", mock.Anything, userUID, "Professional", "Firewall Logs", "fw.log",
					[]byte("deny tcp 10.0.0.1")).Return(int64(42), nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"log_id":42`,
		},
		{
			name:           "тип журнала не указан",
			logType:        "",
			filename:       "fw.log",
			content:        []byte("x"),
			withAuth:       true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"log type not specified"`,
		},
		{
			name:           "файл отсутствует в форме",
			logType:        "Firewall Logs",
			filename:       "",
			withAuth:       true,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"log file is required"`,
		},
		{
			name:           "нет пользователя в контексте",
			logType:        "Firewall Logs",
			filename:       "fw.log",
			content:        []byte("x"),
			withAuth:       false,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `"error":"unauthorized"`,
		},
		{
			name:     "квота исчерпана",
			logType:  "Firewall Logs",
			filename: "fw.log",
			content:  []byte("x"),
			withAuth: true,
			setupMock: func(m *MockService) {
				m.On("Upload", mock.Anything, userUID, "Professional", "Firewall Logs", "fw.log",
					[]byte("x")).Return(int64(0), models.ErrQuotaExceeded)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"storage quota exceeded"`,
		},
		{
			name:     "тип журнала недоступен на тарифе",
			logType:  "SIEM Systems Aggregated Logs",
			filename: "siem.log",
			content:  []byte("x"),
			withAuth: true,
			setupMock: func(m *MockService) {
				m.On("Upload", mock.Anything, userUID, "Professional", "SIEM Systems Aggregated Logs", "siem.log",
					[]byte("x")).Return(int64(0), models.ErrForbiddenLogType)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   `"error":"log type is not available on this plan"`,
		},
		{
			name:     "пустой файл",
			logType:  "Firewall Logs",
			filename: "empty.log",
			content:  nil,
			withAuth: true,
			setupMock: func(m *MockService) {
				m.On("Upload", mock.Anything, userUID, "Professional", "Firewall Logs", "empty.log",
					[]byte{}).Return(int64(0), models.ErrEmptyUpload)
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `"error":"uploaded file is empty"`,
		},
		{
			name:     "ошибка сервиса",
			logType:  "Firewall Logs",
			filename: "fw.log",
			content:  []byte("x"),
			withAuth: true,
			setupMock: func(m *MockService) {
				m.On("Upload", mock.Anything, userUID, "Professional", "Firewall Logs", "fw.log",
					[]byte("x")).Return(int64(0), errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"could not store uploaded file"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService, 32<<20)

			body, contentType := newMultipartBody(t, tt.logType, tt.filename, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/logs", body)
			req.Header.Set("Content-Type", contentType)
			if tt.withAuth {
				ctx := context.WithValue(req.Context(), middlewarectx.UserUID, userUID)
				ctx = context.WithValue(ctx, middlewarectx.Plan, "Professional")
				req = req.WithContext(ctx)
			}

			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

func TestUploadHandler_TooLargeBody(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	mockService := new(MockService)
	handler := New(logger, mockService, 128)

	big := bytes.Repeat([]byte("a"), 4096)
	body, contentType := newMultipartBody(t, "Firewall Logs", "big.log", big)
	req := httptest.NewRequest(http.MethodPost, "/logs", body)
	req.Header.Set("Content-Type", contentType)
	ctx := context.WithValue(req.Context(), middlewarectx.UserUID, "c0ffee00-0000-0000-0000-000000000001")
	ctx = context.WithValue(ctx, middlewarectx.Plan, "Essential")
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	mockService.AssertNotCalled(t, "Upload")
}
