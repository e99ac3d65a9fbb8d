package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/log-shield/internal/models"
)

// UpsertAnalysis сохраняет результат анализа для файла: существующая строка
// заменяется, иначе вставляется новая. На файл приходится не более одной
// строки анализа (log_id уникален); повторный анализ перезаписывает,
// а не добавляет.
func (s *Storage) UpsertAnalysis(ctx context.Context, fileID int64, result models.AnalysisResult) (int64, error) {
	const op = "storage.UpsertAnalysis"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO log_analysis
				  (log_id, total_logs, malicious_events, graph_data, alert_level, source_ip, log_type)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  ON CONFLICT (log_id) DO UPDATE SET
				  total_logs = EXCLUDED.total_logs,
				  malicious_events = EXCLUDED.malicious_events,
				  graph_data = EXCLUDED.graph_data,
				  alert_level = EXCLUDED.alert_level,
				  source_ip = EXCLUDED.source_ip,
				  log_type = EXCLUDED.log_type,
				  created_at = now()
			  RETURNING id`
	var analysisID int64
	err := s.DB.QueryRowContext(ctx, query,
		fileID, result.TotalLogs, result.MaliciousEvents, result.GraphData,
		result.AlertLevel, result.SourceIP, result.LogType).Scan(&analysisID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return analysisID, nil
}

// ReadAnalysis возвращает результат анализа файла. У строки анализа нет
// собственного поля владельца, поэтому проверка владения идёт через
// соединение с upload_logs.
func (s *Storage) ReadAnalysis(ctx context.Context, fileID int64, userUID string) (*models.AnalysisResult, error) {
	const op = "storage.ReadAnalysis"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT a.total_logs, a.malicious_events, a.graph_data,
				  a.alert_level, a.source_ip, a.log_type
			  FROM log_analysis a
			  JOIN upload_logs u ON u.id = a.log_id
			  WHERE a.log_id = $1 AND u.user_uid = $2`
	row := s.DB.QueryRowContext(ctx, query, fileID, userUID)

	var result models.AnalysisResult
	err := row.Scan(&result.TotalLogs, &result.MaliciousEvents, &result.GraphData,
		&result.AlertLevel, &result.SourceIP, &result.LogType)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &result, nil
}

// RemoveAnalysisForFile удаляет строку анализа файла, если она есть.
// Отсутствие строки ошибкой не считается.
func (s *Storage) RemoveAnalysisForFile(ctx context.Context, fileID int64) error {
	const op = "storage.RemoveAnalysisForFile"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	if _, err := s.DB.ExecContext(ctx,
		`DELETE FROM log_analysis WHERE log_id = $1`, fileID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
