package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/log-shield/internal/models"
)

// CreateFile вставляет новую запись файла и возвращает её ID.
//
// Проверка квоты и вставка выполняются в одной транзакции, сериализованной
// по владельцу через pg_advisory_xact_lock: два конкурентных аплоада одного
// пользователя не могут одновременно пройти проверку и вдвоём превысить
// лимит. Межпроцессная блокировка обязательна — сервис может работать
// в нескольких экземплярах.
func (s *Storage) CreateFile(ctx context.Context, file models.LogFile, maxStorageBytes int64) (int64, error) {
	const op = "storage.CreateFile"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1::text))`, file.UserUID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var usedBytes int64
	query := `SELECT COALESCE(SUM(LENGTH(filedata)), 0) FROM upload_logs WHERE user_uid = $1`
	if err = tx.QueryRowContext(ctx, query, file.UserUID).Scan(&usedBytes); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if usedBytes+int64(len(file.Content)) > maxStorageBytes {
		return 0, fmt.Errorf("%s: %w", op, models.ErrQuotaExceeded)
	}

	query = `INSERT INTO upload_logs (user_uid, log_type, filename, filedata)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id`
	var newID int64
	err = tx.QueryRowContext(ctx, query,
		file.UserUID, file.LogType, file.Filename, file.Content).Scan(&newID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return newID, nil
}

// ReadFile возвращает файл по ID вместе с содержимым. Чтение всегда
// ограничено владельцем: чужая или отсутствующая запись неотличимы
// и обе дают ErrNotFound.
func (s *Storage) ReadFile(ctx context.Context, id int64, userUID string) (*models.LogFile, error) {
	const op = "storage.ReadFile"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, log_type, filename, filedata, LENGTH(filedata), created_at
			  FROM upload_logs WHERE id = $1 AND user_uid = $2`
	row := s.DB.QueryRowContext(ctx, query, id, userUID)

	var result models.LogFile
	err := row.Scan(&result.ID, &result.UserUID, &result.LogType, &result.Filename,
		&result.Content, &result.Size, &result.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// ListFiles возвращает метаданные файлов пользователя, новые первыми.
// Содержимое не выбирается, только его длина.
func (s *Storage) ListFiles(ctx context.Context, userUID string, limit, offset int) ([]*models.LogFile, error) {
	const op = "storage.ListFiles"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, log_type, filename, LENGTH(filedata), created_at
			  FROM upload_logs
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.DB.QueryContext(ctx, query, userUID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	var result []*models.LogFile
	for rows.Next() {
		var item models.LogFile
		if err := rows.Scan(&item.ID, &item.LogType, &item.Filename,
			&item.Size, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		item.UserUID = userUID
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveFile удаляет файл и его анализ в одной транзакции: сначала строку
// анализа, затем сам файл. Если удаление файла не затронуло ни одной строки
// (файла нет или он чужой), вся транзакция откатывается с ErrNotFound —
// иначе можно было бы снести строку анализа чужого файла.
func (s *Storage) RemoveFile(ctx context.Context, id int64, userUID string) error {
	const op = "storage.RemoveFile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM log_analysis WHERE log_id = $1`, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	result, err := tx.ExecContext(ctx,
		`DELETE FROM upload_logs WHERE id = $1 AND user_uid = $2`, id, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// StorageUsage считает текущее использование хранилища пользователем.
// Значения всегда вычисляются заново по строкам файлов, без кешированных
// счётчиков: полный проход по строкам пользователя в обмен на корректность
// при конкурентных загрузках и удалениях.
func (s *Storage) StorageUsage(ctx context.Context, userUID string) (*models.StorageUsage, error) {
	const op = "storage.StorageUsage"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT COUNT(*), COALESCE(SUM(LENGTH(filedata)), 0), MAX(created_at)
			  FROM upload_logs
			  WHERE user_uid = $1`
	var usage models.StorageUsage
	var lastUpload sql.NullTime
	err := s.DB.QueryRowContext(ctx, query, userUID).
		Scan(&usage.TotalFiles, &usage.UsedBytes, &lastUpload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if lastUpload.Valid {
		t := lastUpload.Time
		usage.LastUpload = &t
	}
	return &usage, nil
}
