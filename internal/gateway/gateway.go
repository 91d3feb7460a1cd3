// Package gateway выполняет мутации панели единообразно: локальная проверка,
// один вызов источника данных с ограничением по времени и классифицированный результат.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/validation"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// DefaultTimeout — общий таймаут одного обращения к источнику данных.
const DefaultTimeout = 30 * time.Second

// ErrorKind классифицирует неуспешный результат мутации.
type ErrorKind string

const (
	KindValidation ErrorKind = "validation"
	KindNetwork    ErrorKind = "network"
	KindTimeout    ErrorKind = "timeout"
	KindNotFound   ErrorKind = "not_found"
)

// ErrorInfo описывает причину неуспеха.
type ErrorInfo struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Result — итог мутации: успех с данными или ошибка определённого вида.
type Result struct {
	OK    bool       `json:"ok"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorInfo `json:"error,omitempty"`
}

// Success возвращает успешный результат.
func Success(data any) Result {
	return Result{OK: true, Data: data}
}

// Failure возвращает неуспешный результат.
func Failure(kind ErrorKind, message string) Result {
	return Result{Error: &ErrorInfo{Kind: kind, Message: message}}
}

// Gateway выполняет мутации через источник данных.
type Gateway struct {
	source  datasource.Mutator
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics
	newKey  func() string
}

// Option настраивает Gateway.
type Option func(*Gateway)

// WithTimeout задаёт таймаут обращения к источнику.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithRegisterer регистрирует метрики шлюза.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(g *Gateway) { g.metrics = newMetrics(reg) }
}

// New создаёт шлюз мутаций поверх source.
func New(source datasource.Mutator, opts ...Option) *Gateway {
	g := &Gateway{
		source:  source,
		timeout: DefaultTimeout,
		logger:  zap.NewNop(),
		newKey:  func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.metrics == nil {
		g.metrics = newMetrics(nil)
	}
	return g
}

// Timeout возвращает действующий таймаут.
func (g *Gateway) Timeout() time.Duration { return g.timeout }

type outcome struct {
	data any
	err  error
}

// Perform выполняет действие action над target с полезной нагрузкой payload.
//
// Неподдерживаемая пара (действие, сущность) или полезная нагрузка не того типа
// считаются ошибкой программы и вызывают панику. Некорректная нагрузка
// отклоняется без обращения к источнику. Источник вызывается ровно один раз,
// без повторов; по истечении таймаута вызов бросается, а результат
// сообщается как timeout: состояние на стороне источника неизвестно.
func (g *Gateway) Perform(ctx context.Context, action model.Action, target model.Target, payload model.Payload) Result {
	r, ok := rules[route{action, target.Entity}]
	if !ok {
		panic(fmt.Sprintf("gateway: unsupported operation %s on %s", action, target.Entity))
	}
	if !r.accepts(payload) {
		panic(fmt.Sprintf("gateway: payload %T does not fit %s on %s", payload, action, target.Entity))
	}

	start := time.Now()

	if r.keyed && strings.TrimSpace(target.Key) == "" {
		return g.finish(action, target, start, nil, validation.Errorf("key", "target key is required"))
	}
	if payload != nil {
		if err := payload.Validate(); err != nil {
			return g.finish(action, target, start, nil, err)
		}
	}

	m := datasource.Mutation{
		Action:         action,
		Target:         target,
		Payload:        payload,
		IdempotencyKey: g.newKey(),
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		data, err := g.source.Mutate(ctx, m)
		done <- outcome{data: data, err: err}
	}()

	select {
	case out := <-done:
		return g.finish(action, target, start, out.data, out.err)
	case <-ctx.Done():
		return g.finish(action, target, start, nil, ctx.Err())
	}
}

func (g *Gateway) finish(action model.Action, target model.Target, start time.Time, data any, err error) Result {
	var res Result
	if err == nil {
		res = Success(data)
	} else {
		res = Failure(Classify(err), err.Error())
	}

	outcome := "ok"
	if res.Error != nil {
		outcome = string(res.Error.Kind)
	}
	g.metrics.observe(action, target.Entity, outcome, time.Since(start))

	if res.Error != nil {
		fields := []zap.Field{
			zap.String("action", string(action)),
			zap.String("target", target.String()),
			zap.String("kind", outcome),
			zap.Error(err),
		}
		if res.Error.Kind == KindValidation {
			g.logger.Debug("mutation rejected", fields...)
		} else {
			g.logger.Warn("mutation failed", fields...)
		}
	}

	return res
}

// Classify определяет вид ошибки мутации.
func Classify(err error) ErrorKind {
	if _, ok := validation.As(err); ok {
		return KindValidation
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, datasource.ErrNotFound):
		return KindNotFound
	case errors.Is(err, datasource.ErrConflict),
		errors.Is(err, datasource.ErrInsufficientBalance):
		return KindValidation
	default:
		return KindNetwork
	}
}
