// Package httpapi реализует источник данных панели поверх внешнего HTTP API.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/validation"
)

// DefaultTimeout ограничивает запросы чтения, которые не проходят через шлюз мутаций.
const DefaultTimeout = 30 * time.Second

const maxErrorBody = 4 << 10

// TokenProvider выдаёт токен для заголовка Authorization.
// Пустой токен означает запрос без авторизации.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken — неизменный токен из конфигурации.
type StaticToken string

// Token возвращает сам токен.
func (t StaticToken) Token(context.Context) (string, error) { return string(t), nil }

// StatusError описывает ответ внешнего API с кодом вне диапазона 2xx.
type StatusError struct {
	StatusCode int
	Message    string
	RetryAfter time.Duration
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status: %d: %s", e.StatusCode, e.Message)
}

// Client инкапсулирует HTTP-взаимодействие с внешним API панели.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenProvider
}

var _ datasource.Source = (*Client)(nil)

// Option настраивает Client.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout задаёт таймаут HTTP-клиента.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// NewClient создаёт клиент внешнего API по указанному адресу.
func NewClient(baseURL string, tokens TokenProvider, opts ...Option) *Client {
	base := strings.TrimRight(baseURL, "/")
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	if tokens == nil {
		tokens = StaticToken("")
	}
	c := &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		tokens:     tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type request struct {
	method         string
	path           string
	body           any
	idempotencyKey string
}

func (c *Client) do(ctx context.Context, r request, out any) error {
	if c == nil || c.baseURL == "" {
		return fmt.Errorf("upstream client not configured")
	}

	var body io.Reader
	if r.body != nil {
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.idempotencyKey)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(resp)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	serr := &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(msg)}

	if resp.StatusCode == http.StatusTooManyRequests {
		if v := resp.Header.Get("Retry-After"); v != "" {
			if seconds, parseErr := strconv.Atoi(v); parseErr == nil {
				serr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", datasource.ErrNotFound, serr)
	case http.StatusConflict:
		return fmt.Errorf("%w: %w", datasource.ErrConflict, serr)
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: %w", datasource.ErrInvalidCredentials, serr)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %w", &validation.Error{Message: serr.Message}, serr)
	}
	return serr
}

// errorMessage достаёт текст ошибки из тела ответа вида {"error": "..."}
// или {"error": {"message": "..."}}, иначе возвращает тело как есть.
func errorMessage(body []byte) string {
	var envelope struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Error) > 0 {
		var s string
		if json.Unmarshal(envelope.Error, &s) == nil {
			return s
		}
		var info struct {
			Message string `json:"message"`
		}
		if json.Unmarshal(envelope.Error, &info) == nil && info.Message != "" {
			return info.Message
		}
	}
	return strings.TrimSpace(string(body))
}

func list[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	var out []T
	if err := c.do(ctx, request{method: http.MethodGet, path: path}, &out); err != nil {
		return nil, fmt.Errorf("list %s: %w", path, err)
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

// Orders загружает полный список заказов.
func (c *Client) Orders(ctx context.Context) ([]model.Order, error) {
	return list[model.Order](ctx, c, "/orders/export")
}

// Members загружает полный список участников.
func (c *Client) Members(ctx context.Context) ([]model.Member, error) {
	return list[model.Member](ctx, c, "/members/export")
}

// DailyStats загружает дневную статистику.
func (c *Client) DailyStats(ctx context.Context) ([]model.DailyStat, error) {
	return list[model.DailyStat](ctx, c, "/daily/export")
}

// ResidentialPackages загружает резидентные пакеты.
func (c *Client) ResidentialPackages(ctx context.Context) ([]model.ResidentialPackage, error) {
	return list[model.ResidentialPackage](ctx, c, "/packages/residential")
}

// UnlimitedPackages загружает безлимитные пакеты.
func (c *Client) UnlimitedPackages(ctx context.Context) ([]model.UnlimitedPackage, error) {
	return list[model.UnlimitedPackage](ctx, c, "/packages/unlimited")
}

// Admins загружает список администраторов.
func (c *Client) Admins(ctx context.Context) ([]model.AdminAccount, error) {
	return list[model.AdminAccount](ctx, c, "/admins")
}

// Authenticate проверяет учётные данные во внешнем API и возвращает
// учётную запись из списка администраторов.
func (c *Client) Authenticate(ctx context.Context, username, password string) (model.AdminAccount, error) {
	creds := struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}{username, password}

	if err := c.do(ctx, request{method: http.MethodPost, path: "/auth/login", body: creds}, nil); err != nil {
		var serr *StatusError
		if errors.As(err, &serr) && serr.StatusCode == http.StatusForbidden {
			return model.AdminAccount{}, datasource.ErrInvalidCredentials
		}
		return model.AdminAccount{}, fmt.Errorf("login: %w", err)
	}

	admins, err := c.Admins(ctx)
	if err != nil {
		return model.AdminAccount{}, err
	}
	for _, a := range admins {
		if strings.EqualFold(a.Username, username) {
			return a, nil
		}
	}
	return model.AdminAccount{}, datasource.ErrInvalidCredentials
}

// Close ничего не освобождает.
func (c *Client) Close() error { return nil }

var resourcePaths = map[model.EntityType]string{
	model.EntityResidentialPackage: "/packages/residential",
	model.EntityUnlimitedPackage:   "/packages/unlimited",
	model.EntityAdmin:              "/admins",
}

// Mutate отправляет операцию во внешний API одним запросом без повторов.
func (c *Client) Mutate(ctx context.Context, m datasource.Mutation) (any, error) {
	r, err := route(m)
	if err != nil {
		return nil, err
	}
	r.idempotencyKey = m.IdempotencyKey

	var out any
	if err := c.do(ctx, r, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", m, err)
	}
	return out, nil
}

func route(m datasource.Mutation) (request, error) {
	key := url.PathEscape(m.Target.Key)

	if m.Target.Entity == model.EntityOrder && m.Action == model.ActionCreate {
		return request{method: http.MethodPost, path: "/orders", body: m.Payload}, nil
	}

	if m.Target.Entity == model.EntityMember {
		base := "/members/" + key
		switch m.Action {
		case model.ActionToggleStatus:
			in, err := datasource.PayloadAs[model.StatusChange](m)
			if err != nil {
				return request{}, err
			}
			action := "enable"
			if in.Status == model.StatusDisabled {
				action = "disable"
			}
			return request{method: http.MethodPut, path: base + "/status", body: map[string]string{"action": action}}, nil
		case model.ActionChangePassword:
			in, err := datasource.PayloadAs[model.PasswordChange](m)
			if err != nil {
				return request{}, err
			}
			return request{method: http.MethodPut, path: base + "/password", body: map[string]string{"password": in.Password}}, nil
		case model.ActionDeduct:
			return request{method: http.MethodPost, path: base + "/deduct", body: m.Payload}, nil
		}
	}

	if base, ok := resourcePaths[m.Target.Entity]; ok {
		switch m.Action {
		case model.ActionCreate:
			return request{method: http.MethodPost, path: base, body: m.Payload}, nil
		case model.ActionUpdate:
			return request{method: http.MethodPut, path: base + "/" + key, body: m.Payload}, nil
		case model.ActionDelete:
			return request{method: http.MethodDelete, path: base + "/" + key}, nil
		case model.ActionToggleStatus:
			return request{method: http.MethodPut, path: base + "/" + key + "/status", body: m.Payload}, nil
		}
	}

	return request{}, fmt.Errorf("%s: %w", m, datasource.ErrUnsupported)
}
