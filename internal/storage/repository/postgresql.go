// Package repository реализует хранилище данных на основе PostgreSQL
// для загруженных файлов журналов и результатов их анализа. Предоставляет
// атомарную вставку с проверкой квоты, чтение и листинг с обязательной
// проверкой владельца, upsert результата анализа и каскадное удаление
// файла вместе с его анализом в одной транзакции.
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/log-shield/internal/models"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorageUnavailable, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, models.ErrStorageUnavailable, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'upload_logs'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table upload_logs missing or query error: %w", err)
	}
	return nil
}
