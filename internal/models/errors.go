package models

import "errors"

// Ошибки конвейера загрузки и анализа. Обработчики сопоставляют их
// через errors.Is и отдают клиенту человекочитаемую причину; внутренние
// ошибки движка и хранилища наружу не транслируются.
var (
	// ErrQuotaExceeded — загрузка превысила бы лимит хранилища тарифа.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
	// ErrForbiddenLogType — тип журнала недоступен на тарифе пользователя.
	ErrForbiddenLogType = errors.New("log type is not available on this plan")
	// ErrEmptyUpload — загружено пустое содержимое.
	ErrEmptyUpload = errors.New("uploaded file is empty")
	// ErrNotFound — запись отсутствует или принадлежит другому пользователю.
	// Эти случаи намеренно неразличимы для вызывающего.
	ErrNotFound = errors.New("not found")
	// ErrEngineTimeout — движок анализа не уложился в отведённое время.
	ErrEngineTimeout = errors.New("analysis engine timed out")
	// ErrEngineFailure — движок завершился с ошибкой без валидного результата.
	ErrEngineFailure = errors.New("analysis engine failed")
	// ErrMalformedEngineOutput — вывод движка не содержит всех обязательных полей.
	ErrMalformedEngineOutput = errors.New("malformed engine output")
	// ErrStorageUnavailable — хранилище недоступно.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
