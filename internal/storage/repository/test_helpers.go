package repository

import (
	"context"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateLogFile создает тестовый файл журналов и возвращает его id
func (f *TestDataFactory) CreateLogFile(t *testing.T, userUID, logType, filename string, content []byte) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO upload_logs (user_uid, log_type, filename, filedata)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		userUID, logType, filename, content).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateLogFileAt создает тестовый файл журналов с заданным временем загрузки
func (f *TestDataFactory) CreateLogFileAt(t *testing.T, userUID, logType, filename string, content []byte, createdAt time.Time) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO upload_logs (user_uid, log_type, filename, filedata, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		userUID, logType, filename, content, createdAt).Scan(&id)
	require.NoError(t, err)
	return id
}

// CreateAnalysis создает тестовый результат анализа для файла
func (f *TestDataFactory) CreateAnalysis(t *testing.T, logID int64, totalLogs, maliciousEvents int, alertLevel, sourceIP, logType string) int64 {
	var id int64
	err := f.storage.DB.QueryRow(`INSERT INTO log_analysis
		(log_id, total_logs, malicious_events, graph_data, alert_level, source_ip, log_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		logID, totalLogs, maliciousEvents, "Zm9v", alertLevel, sourceIP, logType).Scan(&id)
	require.NoError(t, err)
	return id
}

// TestVerification содержит общие функции для проверки результатов тестов
type TestVerification struct {
	storage *Storage
}

// NewTestVerification создает новый объект для проверки результатов
func NewTestVerification(storage *Storage) *TestVerification {
	return &TestVerification{storage: storage}
}

// VerifyFileCount проверяет число строк файлов пользователя в БД
func (v *TestVerification) VerifyFileCount(t *testing.T, userUID string, expected int) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM upload_logs WHERE user_uid = $1", userUID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// VerifyFileDeleted проверяет удаление файла из БД
func (v *TestVerification) VerifyFileDeleted(t *testing.T, fileID int64) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM upload_logs WHERE id = $1", fileID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 0, count)
}

// VerifyAnalysisCount проверяет число записей анализа для файла
func (v *TestVerification) VerifyAnalysisCount(t *testing.T, fileID int64, expected int) {
	var count int
	err := v.storage.DB.QueryRow("SELECT COUNT(*) FROM log_analysis WHERE log_id = $1", fileID).Scan(&count)
	require.NoError(t, err)
	require.Equal(t, expected, count)
}

// setupTestDatabase создает тестовую БД с контейнером PostgreSQL
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(wait.ForAll(
			wait.ForListeningPort(nat.Port("5432/tcp")),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		).WithDeadline(3*time.Minute)),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	// Пробуем подключиться несколько раз с ретраями
	var storage *Storage
	for range 10 {
		storage, err = New(connStr)
		if err == nil {
			err = storage.DB.Ping()
			if err == nil {
				break
			}
		}
		time.Sleep(1 * time.Second)
	}
	require.NoError(t, err, "Failed to create storage after retries")

	// Создаем таблицы
	_, err = storage.DB.Exec(`
        DROP TABLE IF EXISTS log_analysis CASCADE;
        DROP TABLE IF EXISTS upload_logs CASCADE;

        CREATE TABLE upload_logs (
            id BIGSERIAL PRIMARY KEY,
            user_uid UUID NOT NULL,
            log_type TEXT NOT NULL,
            filename TEXT NOT NULL,
            filedata BYTEA NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );

        CREATE INDEX idx_upload_logs_user_created
            ON upload_logs (user_uid, created_at DESC);

        CREATE TABLE log_analysis (
            id BIGSERIAL PRIMARY KEY,
            log_id BIGINT NOT NULL UNIQUE REFERENCES upload_logs (id),
            total_logs INTEGER NOT NULL,
            malicious_events INTEGER NOT NULL,
            graph_data TEXT NOT NULL,
            alert_level TEXT NOT NULL,
            source_ip TEXT NOT NULL,
            log_type TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT now()
        );
    `)
	require.NoError(t, err, "Failed to create tables")

	cleanup := func() {
		if storage != nil && storage.DB != nil {
			_ = storage.DB.Close()
		}
		if postgresContainer != nil {
			_ = postgresContainer.Terminate(ctx)
		}
	}

	return storage, cleanup
}
