// Package quota задаёт политику тарифных планов: сколько типов журналов
// доступно пользователю и каков лимит хранилища. Чистые функции без
// побочных эффектов и ошибок.
package quota

import "strings"

// Названия тарифов.
const (
	TierEssential    = "Essential"
	TierProfessional = "Professional"
	TierEnterprise   = "Enterprise"
)

// Limits — лимиты одного тарифа.
type Limits struct {
	MaxLogTypes     int   // Число доступных типов журналов
	MaxStorageBytes int64 // Лимит хранилища в байтах
}

// LogTypeCatalog — фиксированный каталог типов журналов в порядке приоритета.
// Тариф открывает префикс этого списка; порядок — часть политики,
// а не представления.
var LogTypeCatalog = []string{
	"Firewall Logs",
	"DNS Query Logs",
	"User Activity Logs",
	"Network Traffic Logs",
	"Email Security Logs",
	"Application Logs",
	"Endpoint Security Logs",
	"SIEM Systems Aggregated Logs",
}

var tierLimits = map[string]Limits{
	TierEssential:    {MaxLogTypes: 3, MaxStorageBytes: 2 << 30},
	TierProfessional: {MaxLogTypes: 5, MaxStorageBytes: 5 << 30},
	TierEnterprise:   {MaxLogTypes: 8, MaxStorageBytes: 10 << 30},
}

// LimitsFor возвращает лимиты тарифа. Название сравнивается без учёта
// регистра; неизвестный или пустой тариф получает лимиты Essential.
// Это сознательный безопасный дефолт для учётных записей с устаревшими
// строками тарифов, а не потеря данных.
func LimitsFor(tier string) Limits {
	normalized := normalizeTier(tier)
	if limits, ok := tierLimits[normalized]; ok {
		return limits
	}
	return tierLimits[TierEssential]
}

// AccessibleLogTypes возвращает префикс каталога типов журналов,
// открытый тарифом.
func AccessibleLogTypes(tier string) []string {
	limits := LimitsFor(tier)
	return LogTypeCatalog[:limits.MaxLogTypes]
}

// IsAccessible сообщает, доступен ли тип журнала на тарифе.
func IsAccessible(tier, logType string) bool {
	for _, t := range AccessibleLogTypes(tier) {
		if t == logType {
			return true
		}
	}
	return false
}

// IsKnownLogType сообщает, входит ли тип журнала в каталог вообще.
func IsKnownLogType(logType string) bool {
	for _, t := range LogTypeCatalog {
		if t == logType {
			return true
		}
	}
	return false
}

func normalizeTier(tier string) string {
	tier = strings.TrimSpace(tier)
	if tier == "" {
		return ""
	}
	return strings.ToUpper(tier[:1]) + strings.ToLower(tier[1:])
}
