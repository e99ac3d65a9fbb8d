// Package engine реализует клиент внешнего движка анализа журналов.
//
// Движок — недоверенный подпроцесс с фиксированным текстовым контрактом:
// он запускается с двумя позиционными аргументами (тип журнала,
// идентификатор файла) и в последней строке stdout печатает JSON-объект
// с полем results. Контракт позволяет заменить реализацию движка,
// не трогая конвейер загрузки.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"time"

	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/log-shield/internal/lib/sl"
	"github.com/magabrotheeeer/log-shield/internal/models"
)

// maxCapturedOutput ограничивает объём stdout движка, который мы храним.
// Важна только последняя строка, поэтому буфер держит хвост вывода.
const maxCapturedOutput = 4 << 20

// Runner запускает движок анализа и валидирует его вывод.
type Runner struct {
	log      *slog.Logger
	command  string        // Интерпретатор или бинарь движка
	script   string        // Путь к скрипту движка; пустой, если command самодостаточен
	timeout  time.Duration // Ограничение времени одного запуска
	validate *validator.Validate
}

// New создаёт Runner с переданными командой, скриптом и таймаутом.
func New(log *slog.Logger, command, script string, timeout time.Duration) *Runner {
	return &Runner{
		log:      log,
		command:  command,
		script:   script,
		timeout:  timeout,
		validate: validator.New(),
	}
}

// envelope — обёртка, которую движок печатает последней строкой stdout.
type envelope struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Results *payload `json:"results"`
}

// payload — шесть обязательных полей результата. Поля объявлены
// указателями: required проверяет присутствие ключа, а не нулевое значение.
type payload struct {
	TotalLogs       *int    `json:"total_logs" validate:"required"`
	MaliciousEvents *int    `json:"malicious_events" validate:"required"`
	GraphData       *string `json:"graph_data" validate:"required"`
	AlertLevel      *string `json:"alert_level" validate:"required"`
	SourceIP        *string `json:"sourceIp" validate:"required"`
	LogType         *string `json:"log_type" validate:"required"`
}

// Analyze запускает движок для файла и возвращает разобранный результат.
//
// Ненулевой код выхода сам по себе не фатален: движки порой пишут
// предупреждения в stderr и выходят с ошибкой, успев напечатать валидный
// результат. Фатальны только таймаут, нечитаемый вывод и неполный результат.
func (r *Runner) Analyze(ctx context.Context, logType string, fileID int64) (*models.AnalysisResult, error) {
	const op = "engine.Analyze"
	log := r.log.With(
		slog.String("op", op),
		slog.String("log_type", logType),
		slog.Int64("file_id", fileID),
	)

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	args := make([]string, 0, 3)
	if r.script != "" {
		args = append(args, r.script)
	}
	args = append(args, logType, strconv.FormatInt(fileID, 10))

	cmd := exec.CommandContext(ctx, r.command, args...)
	stdout := newTailBuffer(maxCapturedOutput)
	var stderr bytes.Buffer
	cmd.Stdout = stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Error("engine timed out", slog.Duration("timeout", r.timeout))
		return nil, fmt.Errorf("%s: %w", op, models.ErrEngineTimeout)
	}

	line := lastLine(stdout.Bytes())
	if len(line) == 0 {
		log.Error("engine produced no output", slog.String("stderr", stderr.String()))
		return nil, r.runFailure(op, runErr)
	}

	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		log.Error("failed to decode engine output", sl.Err(err))
		return nil, r.runFailure(op, runErr)
	}
	if env.Results == nil {
		log.Error("engine reported failure", slog.String("engine_error", env.Error))
		return nil, r.runFailure(op, runErr)
	}
	if err := r.validate.Struct(env.Results); err != nil {
		log.Error("engine output is missing required fields", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, models.ErrMalformedEngineOutput)
	}

	if runErr != nil {
		// Результат синтаксически валиден, хотя процесс вышел с ошибкой.
		log.Warn("engine exited non-zero but produced a valid result",
			sl.Err(runErr), slog.String("stderr", stderr.String()))
	}

	return &models.AnalysisResult{
		TotalLogs:       *env.Results.TotalLogs,
		MaliciousEvents: *env.Results.MaliciousEvents,
		GraphData:       *env.Results.GraphData,
		AlertLevel:      *env.Results.AlertLevel,
		SourceIP:        *env.Results.SourceIP,
		LogType:         *env.Results.LogType,
	}, nil
}

// runFailure различает сбой процесса и синтаксически негодный вывод
// успешного процесса.
func (r *Runner) runFailure(op string, runErr error) error {
	if runErr != nil {
		return fmt.Errorf("%s: %w: %w", op, models.ErrEngineFailure, runErr)
	}
	return fmt.Errorf("%s: %w", op, models.ErrMalformedEngineOutput)
}

// lastLine возвращает последнюю непустую строку вывода.
func lastLine(out []byte) []byte {
	out = bytes.TrimRight(out, "\r\n \t")
	if len(out) == 0 {
		return nil
	}
	if idx := bytes.LastIndexByte(out, '\n'); idx >= 0 {
		return bytes.TrimSpace(out[idx+1:])
	}
	return bytes.TrimSpace(out)
}

// tailBuffer хранит последние max байт записанного. Вывод движка ограничен,
// но полагаться на это нельзя.
type tailBuffer struct {
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) Bytes() []byte {
	return t.buf
}
