// Package ingestion содержит бизнес-логику конвейера загрузки и анализа
// журналов: проверку квот, приём файлов, запуск движка анализа,
// согласованное чтение и удаление файлов вместе с их результатами.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/log-shield/internal/lib/quota"
	"github.com/magabrotheeeer/log-shield/internal/lib/sl"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// Repository определяет методы хранилища файлов и результатов анализа.
type Repository interface {
	// CreateFile атомарно проверяет квоту и вставляет файл, возвращая его ID.
	CreateFile(ctx context.Context, file models.LogFile, maxStorageBytes int64) (int64, error)
	// ReadFile возвращает файл владельца вместе с содержимым.
	ReadFile(ctx context.Context, id int64, userUID string) (*models.LogFile, error)
	// ListFiles возвращает метаданные файлов владельца, новые первыми.
	ListFiles(ctx context.Context, userUID string, limit, offset int) ([]*models.LogFile, error)
	// RemoveFile удаляет файл и его анализ одной транзакцией.
	RemoveFile(ctx context.Context, id int64, userUID string) error
	// StorageUsage возвращает текущее использование хранилища владельцем.
	StorageUsage(ctx context.Context, userUID string) (*models.StorageUsage, error)
	// UpsertAnalysis сохраняет результат анализа, заменяя прежний.
	UpsertAnalysis(ctx context.Context, fileID int64, result models.AnalysisResult) (int64, error)
	// ReadAnalysis возвращает результат анализа файла владельца.
	ReadAnalysis(ctx context.Context, fileID int64, userUID string) (*models.AnalysisResult, error)
}

// Engine описывает клиент внешнего движка анализа.
type Engine interface {
	Analyze(ctx context.Context, logType string, fileID int64) (*models.AnalysisResult, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// EventPublisher публикует события анализа во внешнюю шину.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// AnalysisEvent — сообщение о завершённом анализе файла.
type AnalysisEvent struct {
	FileID          int64  `json:"file_id"`
	AnalysisID      int64  `json:"analysis_id"`
	UserUID         string `json:"user_uid"`
	LogType         string `json:"log_type"`
	AlertLevel      string `json:"alert_level"`
	MaliciousEvents int    `json:"malicious_events"`
}

// Service реализует бизнес-логику конвейера загрузки и анализа.
type Service struct {
	repo   Repository
	engine Engine
	cache  Cache
	events EventPublisher
	log    *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, engine Engine, cache Cache, events EventPublisher, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		cache:  cache,
		events: events,
		log:    log,
	}
}

// maxListLimit ограничивает размер страницы листинга.
const maxListLimit = 10

// Upload принимает файл журналов. Проверки идут последовательно и каждая
// обрывает операцию: квота хранилища, доступность типа журнала на тарифе,
// непустое содержимое. Проверка квоты повторяется внутри транзакции вставки
// под блокировкой владельца, поэтому частичных изменений хранилища при
// отказе не бывает.
func (s *Service) Upload(ctx context.Context, userUID, tier, logType, filename string, content []byte) (int64, error) {
	snapshot, err := s.Snapshot(ctx, userUID, tier)
	if err != nil {
		return 0, err
	}
	if !snapshot.CanUpload {
		return 0, models.ErrQuotaExceeded
	}

	if !quota.IsAccessible(tier, logType) {
		return 0, models.ErrForbiddenLogType
	}
	if len(content) == 0 {
		return 0, models.ErrEmptyUpload
	}

	limits := quota.LimitsFor(tier)
	id, err := s.repo.CreateFile(ctx, models.LogFile{
		UserUID:  userUID,
		LogType:  logType,
		Filename: filename,
		Content:  content,
	}, limits.MaxStorageBytes)
	if err != nil {
		return 0, err
	}

	s.log.Info("stored uploaded log file",
		slog.Int64("id", id),
		slog.String("log_type", logType),
		slog.Int("size", len(content)))
	return id, nil
}

// Analyze запускает движок для файла и сохраняет валидный результат.
//
// Запуск идёт в контексте, отвязанном от запроса: если клиент отключился,
// движок дорабатывает и результат сохраняется. Брошенный на середине анализ
// оставил бы файл навсегда непроанализированным без обратной связи.
// Повторный анализ заменяет прежний результат.
func (s *Service) Analyze(ctx context.Context, userUID string, fileID int64) (*models.AnalysisResult, int64, error) {
	file, err := s.repo.ReadFile(ctx, fileID, userUID)
	if err != nil {
		return nil, 0, err
	}

	detached := context.WithoutCancel(ctx)
	result, err := s.engine.Analyze(detached, file.LogType, fileID)
	if err != nil {
		return nil, 0, err
	}

	analysisID, err := s.repo.UpsertAnalysis(detached, fileID, *result)
	if err != nil {
		return nil, 0, err
	}
	s.log.Info("analysis stored",
		slog.Int64("file_id", fileID),
		slog.Int64("analysis_id", analysisID),
		slog.String("alert_level", result.AlertLevel))

	cacheKey := analysisCacheKey(fileID)
	if err := s.cache.Set(cacheKey, result, time.Hour); err != nil {
		s.log.Warn("failed to cache analysis", slog.String("key", cacheKey), sl.Err(err))
	}

	event := AnalysisEvent{
		FileID:          fileID,
		AnalysisID:      analysisID,
		UserUID:         userUID,
		LogType:         result.LogType,
		AlertLevel:      result.AlertLevel,
		MaliciousEvents: result.MaliciousEvents,
	}
	if err := s.events.Publish("analysis.completed", event); err != nil {
		s.log.Warn("failed to publish analysis event", sl.Err(err))
	}

	return result, analysisID, nil
}

// Retrieve возвращает метаданные файла и результат анализа, если он есть.
// Отсутствие анализа — не ошибка: файл мог ещё не анализироваться.
func (s *Service) Retrieve(ctx context.Context, userUID string, fileID int64) (*models.LogFile, *models.AnalysisResult, error) {
	file, err := s.repo.ReadFile(ctx, fileID, userUID)
	if err != nil {
		return nil, nil, err
	}
	file.Content = nil

	var cached models.AnalysisResult
	cacheKey := analysisCacheKey(fileID)
	found, err := s.cache.Get(cacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read analysis from cache", slog.String("key", cacheKey), sl.Err(err))
	}
	if found {
		return file, &cached, nil
	}

	analysis, err := s.repo.ReadAnalysis(ctx, fileID, userUID)
	if errors.Is(err, models.ErrNotFound) {
		return file, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	if err := s.cache.Set(cacheKey, analysis, time.Hour); err != nil {
		s.log.Warn("failed to cache analysis", slog.String("key", cacheKey), sl.Err(err))
	}
	return file, analysis, nil
}

// Download возвращает имя файла и его содержимое байт в байт,
// как оно было загружено.
func (s *Service) Download(ctx context.Context, userUID string, fileID int64) (string, []byte, error) {
	file, err := s.repo.ReadFile(ctx, fileID, userUID)
	if err != nil {
		return "", nil, err
	}
	return file.Filename, file.Content, nil
}

// List возвращает страницу метаданных файлов владельца, новые первыми.
// Размер страницы ограничен maxListLimit.
func (s *Service) List(ctx context.Context, userUID string, limit, offset int) ([]*models.LogFile, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListFiles(ctx, userUID, limit, offset)
}

// Remove удаляет файл вместе с результатом анализа и инвалидирует кеш.
func (s *Service) Remove(ctx context.Context, userUID string, fileID int64) error {
	cacheKey := analysisCacheKey(fileID)
	if err := s.cache.Invalidate(cacheKey); err != nil {
		s.log.Warn("failed to invalidate analysis cache", slog.String("key", cacheKey), sl.Err(err))
	}
	return s.repo.RemoveFile(ctx, fileID, userUID)
}

// Snapshot возвращает свежий снимок использования хранилища против
// лимитов тарифа. Процент использования ограничен диапазоном [0, 100].
func (s *Service) Snapshot(ctx context.Context, userUID, tier string) (*models.StorageSnapshot, error) {
	usage, err := s.repo.StorageUsage(ctx, userUID)
	if err != nil {
		return nil, err
	}

	limits := quota.LimitsFor(tier)
	percentage := float64(usage.UsedBytes) / float64(limits.MaxStorageBytes) * 100
	if percentage > 100 {
		percentage = 100
	}
	if percentage < 0 {
		percentage = 0
	}

	return &models.StorageSnapshot{
		TotalFiles:     usage.TotalFiles,
		UsedBytes:      usage.UsedBytes,
		StorageLimit:   limits.MaxStorageBytes,
		PercentageUsed: percentage,
		LastUpload:     usage.LastUpload,
		CanUpload:      usage.UsedBytes < limits.MaxStorageBytes,
	}, nil
}

func analysisCacheKey(fileID int64) string {
	return fmt.Sprintf("analysis:%d", fileID)
}
