// Package models содержит доменные структуры конвейера загрузки и анализа
// журналов безопасности: загруженный файл, результат анализа и вычисляемый
// снимок использования хранилища.
package models

import "time"

// LogFile представляет один загруженный файл журналов.
// Содержимое и тип журнала неизменяемы после создания; запись живёт
// до явного удаления владельцем.
type LogFile struct {
	ID        int64     `json:"id"`                // Идентификатор, назначаемый при вставке
	UserUID   string    `json:"-"`                 // UID владельца; единственная граница изоляции данных
	LogType   string    `json:"log_type"`          // Тип журнала из фиксированного каталога
	Filename  string    `json:"filename"`          // Оригинальное имя файла
	Content   []byte    `json:"-"`                 // Сырые байты; в списках не заполняется
	Size      int64     `json:"file_size"`         // Размер содержимого в байтах
	CreatedAt time.Time `json:"uploaded_at"`       // Серверная отметка времени загрузки
}

// AnalysisResult представляет производный артефакт анализа: не более одной
// записи на файл, существует только пока существует сам файл.
type AnalysisResult struct {
	TotalLogs       int    `json:"total_logs"`       // Всего записей в журнале
	MaliciousEvents int    `json:"malicious_events"` // Число обнаруженных аномалий
	GraphData       string `json:"graph_data"`       // Отрисованный график, base64
	AlertLevel      string `json:"alert_level"`      // Low, Medium или High
	SourceIP        string `json:"sourceIp"`         // "Unknown", если движок не смог определить
	LogType         string `json:"log_type"`         // Копия типа журнала для отображения
}

// StorageSnapshot — вычисляемое на каждый запрос представление использования
// хранилища пользователем относительно лимита его тарифа. Не персистируется.
type StorageSnapshot struct {
	TotalFiles     int        `json:"total_files"`
	UsedBytes      int64      `json:"total_storage"`
	StorageLimit   int64      `json:"storage_limit"`
	PercentageUsed float64    `json:"percentage_used"` // Ограничен диапазоном [0, 100]
	LastUpload     *time.Time `json:"last_upload"`
	CanUpload      bool       `json:"can_upload"`
}

// StorageUsage — агрегат по строкам файлов одного пользователя,
// считается заново при каждом обращении.
type StorageUsage struct {
	UsedBytes  int64
	TotalFiles int
	LastUpload *time.Time
}
