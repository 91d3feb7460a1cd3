// Package handler содержит HTTP-обработчики API панели администратора.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/mmeshcher/proxypanel/internal/auth"
	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/export"
	"github.com/mmeshcher/proxypanel/internal/gateway"
	"github.com/mmeshcher/proxypanel/internal/middleware"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/pager"
	"github.com/mmeshcher/proxypanel/internal/query"
	"github.com/mmeshcher/proxypanel/internal/service"
	"github.com/mmeshcher/proxypanel/internal/validation"
)

// Service определяет контракт чтения данных, используемый HTTP-обработчиками.
type Service interface {
	Orders(ctx context.Context, req service.ListRequest) (pager.Page[model.Order], error)
	Members(ctx context.Context, req service.ListRequest) (pager.Page[model.Member], error)
	DailyStats(ctx context.Context, req service.ListRequest) (pager.Page[model.DailyStat], error)
	ResidentialPackages(ctx context.Context, criteria query.Criteria) ([]model.ResidentialPackage, error)
	UnlimitedPackages(ctx context.Context, criteria query.Criteria) ([]model.UnlimitedPackage, error)
	Admins(ctx context.Context, current string, criteria query.Criteria) ([]model.AdminAccount, error)
	Admin(ctx context.Context, id int64) (model.AdminAccount, error)
	MemberOrders(ctx context.Context, username string) ([]model.Order, error)
	LookupMember(ctx context.Context, account string) (model.Member, error)
	Summary(ctx context.Context, from, to string) (service.Summary, error)
	ExportRecords(ctx context.Context, entity model.EntityType, criteria query.Criteria) (any, error)
	Export(ctx context.Context, entity model.EntityType, criteria query.Criteria) (export.Sheet, error)
	Authenticate(ctx context.Context, username, password string) (model.AdminAccount, error)
}

// Performer выполняет мутации.
type Performer interface {
	Perform(ctx context.Context, action model.Action, target model.Target, payload model.Payload) gateway.Result
}

// TokenIssuer выпускает токены администраторов.
type TokenIssuer interface {
	GenerateToken(a model.AdminAccount) (string, error)
}

// Handler реализует HTTP-обработчики API панели.
type Handler struct {
	service        Service
	gateway        Performer
	tokens         TokenIssuer
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
	writer         export.Writer
	metrics        http.Handler
}

// Option настраивает Handler.
type Option func(*Handler)

// WithExportWriter задаёт формат файлов выгрузки. По умолчанию XLSX.
func WithExportWriter(w export.Writer) Option {
	return func(h *Handler) { h.writer = w }
}

// WithMetrics подключает обработчик /metrics.
func WithMetrics(m http.Handler) Option {
	return func(h *Handler) { h.metrics = m }
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, g Performer, tokens *auth.TokenManager, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		service:        s,
		gateway:        g,
		tokens:         tokens,
		logger:         logger,
		authMiddleware: middleware.NewAuthMiddleware(tokens, s),
		writer:         export.XLSXWriter{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError отвечает на ошибку чтения: неверные параметры дают 400,
// отсутствующая запись 404, остальное логируется как 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string) {
	if verr, ok := validation.As(err); ok {
		writeJSON(w, http.StatusBadRequest, gateway.Failure(gateway.KindValidation, verr.Error()))
		return
	}
	if errors.Is(err, datasource.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, gateway.Failure(gateway.KindNotFound, err.Error()))
		return
	}
	h.logger.Error(msg, zap.Error(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// filterFields — параметры строки запроса, которые становятся условиями фильтра.
var filterFields = map[model.EntityType]struct {
	equals   []string
	contains []string
}{
	model.EntityOrder:              {equals: []string{"type", "status", "source"}, contains: []string{"username", "email", "orderNo"}},
	model.EntityMember:             {equals: []string{"status"}, contains: []string{"username", "email"}},
	model.EntityDailyStat:          {},
	model.EntityResidentialPackage: {equals: []string{"status"}, contains: []string{"name"}},
	model.EntityUnlimitedPackage:   {equals: []string{"status", "baseCpu"}, contains: []string{"name"}},
	model.EntityAdmin:              {equals: []string{"role", "status"}, contains: []string{"username", "email"}},
}

func firstParam(r *http.Request, names ...string) string {
	q := r.URL.Query()
	for _, n := range names {
		if v := q.Get(n); v != "" {
			return v
		}
	}
	return ""
}

func criteriaFromRequest(r *http.Request, entity model.EntityType) query.Criteria {
	q := r.URL.Query()
	c := query.Criteria{
		Keyword:  q.Get("keyword"),
		DateFrom: firstParam(r, "startDate", "dateFrom"),
		DateTo:   firstParam(r, "endDate", "dateTo"),
	}
	fields := filterFields[entity]
	for _, f := range fields.equals {
		if v := q.Get(f); v != "" {
			if c.Equals == nil {
				c.Equals = make(map[string]string)
			}
			c.Equals[f] = v
		}
	}
	for _, f := range fields.contains {
		if v := q.Get(f); v != "" {
			if c.Contains == nil {
				c.Contains = make(map[string]string)
			}
			c.Contains[f] = v
		}
	}
	return c
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, validation.Errorf(name, "must be an integer")
	}
	return v, nil
}

func listRequest(r *http.Request, entity model.EntityType) (service.ListRequest, error) {
	page, err := intParam(r, "page", pager.DefaultPage)
	if err != nil {
		return service.ListRequest{}, err
	}
	size, err := intParam(r, "pageSize", pager.DefaultPageSize)
	if err != nil {
		return service.ListRequest{}, err
	}
	return service.ListRequest{
		Criteria: criteriaFromRequest(r, entity),
		Page:     page,
		PageSize: size,
	}, nil
}

// resultStatus переводит результат мутации в HTTP-статус.
func resultStatus(action model.Action, res gateway.Result) int {
	if res.OK {
		if action == model.ActionCreate {
			return http.StatusCreated
		}
		return http.StatusOK
	}
	switch res.Error.Kind {
	case gateway.KindValidation:
		return http.StatusUnprocessableEntity
	case gateway.KindNotFound:
		return http.StatusNotFound
	case gateway.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}
