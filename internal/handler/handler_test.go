package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mmeshcher/proxypanel/internal/auth"
	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/datasource/memory"
	"github.com/mmeshcher/proxypanel/internal/export"
	"github.com/mmeshcher/proxypanel/internal/gateway"
	"github.com/mmeshcher/proxypanel/internal/model"
	"github.com/mmeshcher/proxypanel/internal/pager"
	"github.com/mmeshcher/proxypanel/internal/query"
	"github.com/mmeshcher/proxypanel/internal/service"
	"github.com/mmeshcher/proxypanel/internal/validation"
)

type stubService struct {
	lastList     service.ListRequest
	lastCriteria query.Criteria
	lastCurrent  string

	ordersResp pager.Page[model.Order]
	ordersErr  error

	admin   model.AdminAccount
	authErr error

	sheet     export.Sheet
	records   any
	exportErr error

	member    model.Member
	lookupErr error
}

func (s *stubService) Orders(ctx context.Context, req service.ListRequest) (pager.Page[model.Order], error) {
	s.lastList = req
	return s.ordersResp, s.ordersErr
}

func (s *stubService) Members(ctx context.Context, req service.ListRequest) (pager.Page[model.Member], error) {
	s.lastList = req
	return pager.Page[model.Member]{Items: []model.Member{}, Page: req.Page, PageSize: req.PageSize}, nil
}

func (s *stubService) DailyStats(ctx context.Context, req service.ListRequest) (pager.Page[model.DailyStat], error) {
	s.lastList = req
	return pager.Page[model.DailyStat]{Items: []model.DailyStat{}, Page: req.Page, PageSize: req.PageSize}, nil
}

func (s *stubService) ResidentialPackages(ctx context.Context, criteria query.Criteria) ([]model.ResidentialPackage, error) {
	s.lastCriteria = criteria
	return []model.ResidentialPackage{}, nil
}

func (s *stubService) UnlimitedPackages(ctx context.Context, criteria query.Criteria) ([]model.UnlimitedPackage, error) {
	s.lastCriteria = criteria
	return []model.UnlimitedPackage{}, nil
}

func (s *stubService) Admins(ctx context.Context, current string, criteria query.Criteria) ([]model.AdminAccount, error) {
	s.lastCurrent = current
	s.lastCriteria = criteria
	return []model.AdminAccount{}, nil
}

const (
	superID  int64 = 1
	normalID int64 = 2
)

func (s *stubService) Admin(ctx context.Context, id int64) (model.AdminAccount, error) {
	role := model.RoleNormal
	if id == superID {
		role = model.RoleSuper
	}
	return model.AdminAccount{ID: id, Username: "Admin", Role: role, Status: model.StatusActive}, nil
}

func (s *stubService) MemberOrders(ctx context.Context, username string) ([]model.Order, error) {
	return []model.Order{}, nil
}

func (s *stubService) LookupMember(ctx context.Context, account string) (model.Member, error) {
	return s.member, s.lookupErr
}

func (s *stubService) Summary(ctx context.Context, from, to string) (service.Summary, error) {
	return service.Summary{From: from, To: to}, nil
}

func (s *stubService) ExportRecords(ctx context.Context, entity model.EntityType, criteria query.Criteria) (any, error) {
	s.lastCriteria = criteria
	return s.records, s.exportErr
}

func (s *stubService) Export(ctx context.Context, entity model.EntityType, criteria query.Criteria) (export.Sheet, error) {
	s.lastCriteria = criteria
	return s.sheet, s.exportErr
}

func (s *stubService) Authenticate(ctx context.Context, username, password string) (model.AdminAccount, error) {
	return s.admin, s.authErr
}

type performCall struct {
	action  model.Action
	target  model.Target
	payload model.Payload
}

type stubGateway struct {
	calls  []performCall
	result gateway.Result
}

func (g *stubGateway) Perform(ctx context.Context, action model.Action, target model.Target, payload model.Payload) gateway.Result {
	g.calls = append(g.calls, performCall{action: action, target: target, payload: payload})
	return g.result
}

func newTestHandler(t *testing.T, svc Service, gw Performer) (*Handler, *auth.TokenManager) {
	t.Helper()

	logger, err := zap.NewDevelopment()
	if err != nil {
		t.Fatalf("new logger: %v", err)
	}

	tm := auth.NewTokenManager("test-secret", time.Hour)

	return NewHandler(svc, gw, tm, logger), tm
}

func authorized(t *testing.T, tm *auth.TokenManager, role model.AdminRole, req *http.Request) *http.Request {
	t.Helper()
	id := normalID
	if role == model.RoleSuper {
		id = superID
	}
	token, err := tm.GenerateToken(model.AdminAccount{ID: id, Username: "Admin", Role: role})
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestLogin_Success(t *testing.T) {
	svc := &stubService{admin: model.AdminAccount{ID: 7, Username: "Admin", Role: model.RoleSuper}}
	h, tm := newTestHandler(t, svc, &stubGateway{})

	body := bytes.NewBufferString(`{"username":"admin","password":"Admin@2024"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", body)
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	claims, err := tm.ParseToken(resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.AdminID() != 7 || claims.Role != model.RoleSuper {
		t.Fatalf("claims = %+v", claims)
	}
	if got := w.Header().Get("Authorization"); got != "Bearer "+resp.Token {
		t.Fatalf("Authorization header = %q", got)
	}
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		authErr error
		want    int
	}{
		{name: "invalid credentials", body: `{"username":"admin","password":"x"}`, authErr: datasource.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "upstream failure", body: `{"username":"admin","password":"x"}`, authErr: errors.New("connection refused"), want: http.StatusInternalServerError},
		{name: "empty password", body: `{"username":"admin"}`, want: http.StatusBadRequest},
		{name: "not json", body: `username=admin`, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newTestHandler(t, &stubService{authErr: tt.authErr}, &stubGateway{})

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			h.SetupRouter().ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestOrders_RequiresToken(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, &stubGateway{})

	w := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/orders", nil))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestOrders_QueryParameters(t *testing.T) {
	svc := &stubService{ordersResp: pager.Page[model.Order]{Items: []model.Order{{ID: 1}}, Total: 1, Page: 2, PageSize: 10}}
	h, tm := newTestHandler(t, svc, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/orders?keyword=proxy&status=paid&type=unlimited&email=mail.com&startDate=2024-12-19&endDate=2024-12-20&page=2&pageSize=10", nil)
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ListRequest{
		Criteria: query.Criteria{
			Keyword:  "proxy",
			DateFrom: "2024-12-19",
			DateTo:   "2024-12-20",
			Equals:   map[string]string{"status": "paid", "type": "unlimited"},
			Contains: map[string]string{"email": "mail.com"},
		},
		Page:     2,
		PageSize: 10,
	}, svc.lastList)

	var page struct {
		List     []model.Order `json:"list"`
		Total    int           `json:"total"`
		Page     int           `json:"page"`
		PageSize int           `json:"pageSize"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Len(t, page.List, 1)
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 2, page.Page)
}

func TestOrders_DefaultPaging(t *testing.T) {
	svc := &stubService{}
	h, tm := newTestHandler(t, svc, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders", nil)
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, pager.DefaultPage, svc.lastList.Page)
	assert.Equal(t, pager.DefaultPageSize, svc.lastList.PageSize)
	assert.True(t, svc.lastList.Criteria.IsZero())
}

func TestOrders_Errors(t *testing.T) {
	tests := []struct {
		name string
		url  string
		err  error
		want int
	}{
		{name: "page is not a number", url: "/api/orders?page=two", want: http.StatusBadRequest},
		{name: "invalid criteria", url: "/api/orders", err: validation.Errorf("startDate", "unrecognised date"), want: http.StatusBadRequest},
		{name: "source down", url: "/api/orders", err: errors.New("connection refused"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, tm := newTestHandler(t, &stubService{ordersErr: tt.err}, &stubGateway{})

			w := httptest.NewRecorder()
			h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, httptest.NewRequest(http.MethodGet, tt.url, nil)))

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestAdmins_MarksCurrent(t *testing.T) {
	svc := &stubService{}
	h, tm := newTestHandler(t, svc, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/admins?role=normal", nil)
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Admin", svc.lastCurrent)
	assert.Equal(t, map[string]string{"role": "normal"}, svc.lastCriteria.Equals)
}

func TestLookupMember_NotFound(t *testing.T) {
	svc := &stubService{lookupErr: datasource.ErrNotFound}
	h, tm := newTestHandler(t, svc, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/members/resource?query=ghost", nil)
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusNotFound, w.Code)
	var res gateway.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.Equal(t, gateway.KindNotFound, res.Error.Kind)
}

func TestMutations_ResultStatus(t *testing.T) {
	tests := []struct {
		name   string
		result gateway.Result
		want   int
	}{
		{name: "ok", result: gateway.Success(nil), want: http.StatusCreated},
		{name: "validation", result: gateway.Failure(gateway.KindValidation, "amount: must be positive"), want: http.StatusUnprocessableEntity},
		{name: "not found", result: gateway.Failure(gateway.KindNotFound, "member not found"), want: http.StatusNotFound},
		{name: "timeout", result: gateway.Failure(gateway.KindTimeout, "deadline exceeded"), want: http.StatusGatewayTimeout},
		{name: "network", result: gateway.Failure(gateway.KindNetwork, "connection reset"), want: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{result: tt.result}
			h, tm := newTestHandler(t, &stubService{}, gw)

			body := `{"account":"Proxy_001","type":"residential","quantity":"100","amount":"250.50","paid":true}`
			req := httptest.NewRequest(http.MethodPost, "/api/orders", strings.NewReader(body))
			w := httptest.NewRecorder()

			h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

			require.Equal(t, tt.want, w.Code)
			require.Len(t, gw.calls, 1)

			call := gw.calls[0]
			assert.Equal(t, model.ActionCreate, call.action)
			assert.Equal(t, model.Target{Entity: model.EntityOrder}, call.target)
			in, ok := call.payload.(model.OrderInput)
			require.True(t, ok, "payload %T", call.payload)
			assert.Equal(t, "Proxy_001", in.Account)
			assert.True(t, in.Amount.Equal(decimal.RequireFromString("250.50")))
			assert.True(t, in.Paid)
		})
	}
}

func TestMutations_Routing(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		url     string
		body    string
		want    performCall
		wantOut int
	}{
		{
			name: "member disable", method: http.MethodPut, url: "/api/members/Proxy_002/status", body: `{"action":"disable"}`,
			want:    performCall{model.ActionToggleStatus, model.Target{Entity: model.EntityMember, Key: "Proxy_002"}, model.StatusChange{Status: model.StatusDisabled}},
			wantOut: http.StatusOK,
		},
		{
			name: "member status by code", method: http.MethodPut, url: "/api/members/Proxy_002/status", body: `{"status":"active"}`,
			want:    performCall{model.ActionToggleStatus, model.Target{Entity: model.EntityMember, Key: "Proxy_002"}, model.StatusChange{Status: model.StatusActive}},
			wantOut: http.StatusOK,
		},
		{
			name: "member password", method: http.MethodPut, url: "/api/members/Proxy_001/password", body: `{"password":"secret1","confirmPassword":"secret1"}`,
			want:    performCall{model.ActionChangePassword, model.Target{Entity: model.EntityMember, Key: "Proxy_001"}, model.PasswordChange{Password: "secret1", ConfirmPassword: "secret1"}},
			wantOut: http.StatusOK,
		},
		{
			name: "delete residential", method: http.MethodDelete, url: "/api/packages/residential/3",
			want:    performCall{model.ActionDelete, model.Target{Entity: model.EntityResidentialPackage, Key: "3"}, nil},
			wantOut: http.StatusOK,
		},
		{
			name: "toggle unlimited", method: http.MethodPut, url: "/api/packages/unlimited/2/status", body: `{"status":"disabled"}`,
			want:    performCall{model.ActionToggleStatus, model.Target{Entity: model.EntityUnlimitedPackage, Key: "2"}, model.StatusChange{Status: model.StatusDisabled}},
			wantOut: http.StatusOK,
		},
		{
			name: "create admin", method: http.MethodPost, url: "/api/admins", body: `{"username":"Ops","email":"ops@proxyadmin.com","password":"secret1","role":"normal"}`,
			want:    performCall{model.ActionCreate, model.Target{Entity: model.EntityAdmin}, model.AdminInput{Username: "Ops", Email: "ops@proxyadmin.com", Password: "secret1", Role: model.RoleNormal}},
			wantOut: http.StatusCreated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{result: gateway.Success(nil)}
			h, tm := newTestHandler(t, &stubService{}, gw)

			var body io.Reader = http.NoBody
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			w := httptest.NewRecorder()
			h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleSuper, httptest.NewRequest(tt.method, tt.url, body)))

			require.Equal(t, tt.wantOut, w.Code)
			require.Len(t, gw.calls, 1)
			assert.Equal(t, tt.want, gw.calls[0])
		})
	}
}

func TestMutations_MalformedBody(t *testing.T) {
	gw := &stubGateway{}
	h, tm := newTestHandler(t, &stubService{}, gw)

	req := httptest.NewRequest(http.MethodPost, "/api/members/Proxy_001/deduct", strings.NewReader(`{"amount":`))
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, gw.calls)

	var res gateway.Result
	require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
	assert.False(t, res.OK)
	assert.Equal(t, gateway.KindValidation, res.Error.Kind)
}

func TestAdmins_MutationsRequireSuper(t *testing.T) {
	gw := &stubGateway{result: gateway.Success(nil)}
	h, tm := newTestHandler(t, &stubService{}, gw)

	req := httptest.NewRequest(http.MethodDelete, "/api/admins/3", nil)
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Empty(t, gw.calls)
}

func TestAdmins_CurrentAccountProtected(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		url     string
		body    string
		want    int
		wantMsg string
	}{
		{name: "delete self", method: http.MethodDelete, url: "/api/admins/1", want: http.StatusUnprocessableEntity, wantMsg: errDeleteCurrent},
		{name: "disable self", method: http.MethodPut, url: "/api/admins/1/status", body: `{"status":"disabled"}`, want: http.StatusUnprocessableEntity, wantMsg: errDisableCurrent},
		{name: "demote self", method: http.MethodPut, url: "/api/admins/1", body: `{"email":"admin@proxyadmin.com","role":"normal"}`, want: http.StatusUnprocessableEntity, wantMsg: errDemoteCurrent},
		{name: "enable self", method: http.MethodPut, url: "/api/admins/1/status", body: `{"status":"active"}`, want: http.StatusOK},
		{name: "update self keeping role", method: http.MethodPut, url: "/api/admins/1", body: `{"email":"root@proxyadmin.com","role":"super"}`, want: http.StatusOK},
		{name: "delete other", method: http.MethodDelete, url: "/api/admins/3", want: http.StatusOK},
		{name: "disable other", method: http.MethodPut, url: "/api/admins/3/status", body: `{"status":"disabled"}`, want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := &stubGateway{result: gateway.Success(nil)}
			h, tm := newTestHandler(t, &stubService{}, gw)

			var body io.Reader = http.NoBody
			if tt.body != "" {
				body = strings.NewReader(tt.body)
			}
			w := httptest.NewRecorder()
			h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleSuper, httptest.NewRequest(tt.method, tt.url, body)))

			require.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.wantMsg == "" {
				assert.Len(t, gw.calls, 1)
				return
			}
			assert.Empty(t, gw.calls)

			var res gateway.Result
			require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
			require.NotNil(t, res.Error)
			assert.Equal(t, gateway.KindValidation, res.Error.Kind)
			assert.Equal(t, tt.wantMsg, res.Error.Message)
		})
	}
}

func TestExport_XLSX(t *testing.T) {
	svc := &stubService{sheet: export.Sheet{
		Name:     "orders",
		FileName: "orders_2024-12-20.xlsx",
		Columns:  []export.Column{{Label: "No", Width: 20}},
		Rows:     []export.Row{{{Label: "No", Value: "ORD20241220001"}}},
	}}
	h, tm := newTestHandler(t, svc, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/orders/export?status=paid", nil)
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentType, w.Header().Get("Content-Type"))
	assert.Equal(t, map[string]string{"status": "paid"}, svc.lastCriteria.Equals)

	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	require.NoError(t, err)
	assert.Equal(t, "attachment", disposition)
	assert.Equal(t, "orders_2024-12-20.xlsx", params["filename"])

	f, err := excelize.OpenReader(w.Body)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("orders")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"No"}, {"ORD20241220001"}}, rows)
}

func TestExport_JSON(t *testing.T) {
	svc := &stubService{records: []model.DailyStat{{TotalOrders: 125}}}
	h, tm := newTestHandler(t, svc, &stubGateway{})

	req := httptest.NewRequest(http.MethodGet, "/api/daily/export?startDate=2024-12-20", nil)
	req.Header.Set("Accept", "application/json")
	w := httptest.NewRecorder()

	h.SetupRouter().ServeHTTP(w, authorized(t, tm, model.RoleNormal, req))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2024-12-20", svc.lastCriteria.DateFrom)

	var stats []model.DailyStat
	require.NoError(t, json.NewDecoder(w.Body).Decode(&stats))
	require.Len(t, stats, 1)
	assert.Equal(t, 125, stats[0].TotalOrders)
}

func TestUnknownRoute(t *testing.T) {
	h, _ := newTestHandler(t, &stubService{}, &stubGateway{})

	w := httptest.NewRecorder()
	h.SetupRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// Полный путь запроса: маршрутизатор, сервис, шлюз и хранилище в памяти.
func TestRouter_InMemoryPanel(t *testing.T) {
	store, err := memory.New(memory.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)

	tm := auth.NewTokenManager("test-secret", time.Hour)
	svc := service.NewService(store, zap.NewNop())
	gw := gateway.New(store, gateway.WithTimeout(time.Second))
	router := NewHandler(svc, gw, tm, zap.NewNop()).SetupRouter()

	do := func(method, url, body, token string) *httptest.ResponseRecorder {
		var r io.Reader = http.NoBody
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, url, r)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(http.MethodPost, "/api/auth/login", `{"username":"Admin","password":"Admin@2024"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&login))

	w = do(http.MethodGet, "/api/orders?status=paid", "", login.Token)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		List  []model.Order `json:"list"`
		Total int           `json:"total"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Equal(t, 3, page.Total)

	w = do(http.MethodPost, "/api/orders", `{"account":"alice@email.com","type":"unlimited","quantity":"30","amount":"2000","paid":true}`, login.Token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = do(http.MethodGet, "/api/orders?status=paid", "", login.Token)
	require.NoError(t, json.NewDecoder(w.Body).Decode(&page))
	assert.Equal(t, 4, page.Total)

	w = do(http.MethodPost, "/api/members/Proxy_001/deduct", `{"type":"unlimited","amount":"5"}`, login.Token)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = do(http.MethodPut, "/api/packages/residential/999/status", `{"status":"disabled"}`, login.Token)
	require.Equal(t, http.StatusNotFound, w.Code)

	w = do(http.MethodPost, "/api/auth/login", `{"username":"Support_02","password":"Sup02@2024"}`, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_RevokedAdminToken(t *testing.T) {
	store, err := memory.New(memory.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)

	tm := auth.NewTokenManager("test-secret", time.Hour)
	svc := service.NewService(store, zap.NewNop())
	gw := gateway.New(store, gateway.WithTimeout(time.Second))
	router := NewHandler(svc, gw, tm, zap.NewNop()).SetupRouter()

	do := func(method, url, body, token string) *httptest.ResponseRecorder {
		var r io.Reader = http.NoBody
		if body != "" {
			r = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, url, r)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}
	login := func(username, password string) string {
		w := do(http.MethodPost, "/api/auth/login", fmt.Sprintf(`{"username":%q,"password":%q}`, username, password), "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&out))
		return out.Token
	}
	create := func(token, username, role string) int64 {
		body := fmt.Sprintf(`{"username":%q,"email":"%s@proxyadmin.com","password":"secret1","role":%q}`, username, strings.ToLower(username), role)
		w := do(http.MethodPost, "/api/admins", body, token)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var res struct {
			Data model.AdminAccount `json:"data"`
		}
		require.NoError(t, json.NewDecoder(w.Body).Decode(&res))
		return res.Data.ID
	}

	root := login("Admin", "Admin@2024")

	t.Run("deleted", func(t *testing.T) {
		id := create(root, "Ops", "super")
		ops := login("Ops", "secret1")

		w := do(http.MethodDelete, fmt.Sprintf("/api/admins/%d", id), "", root)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(http.MethodPost, "/api/admins", `{"username":"Backdoor","email":"backdoor@proxyadmin.com","password":"secret1","role":"super"}`, ops)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		w = do(http.MethodGet, "/api/orders", "", ops)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("disabled", func(t *testing.T) {
		id := create(root, "Night", "super")
		night := login("Night", "secret1")

		w := do(http.MethodPut, fmt.Sprintf("/api/admins/%d/status", id), `{"status":"disabled"}`, root)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(http.MethodGet, "/api/admins", "", night)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("demoted", func(t *testing.T) {
		id := create(root, "Lead", "super")
		lead := login("Lead", "secret1")

		w := do(http.MethodPut, fmt.Sprintf("/api/admins/%d", id), `{"email":"lead@proxyadmin.com","role":"normal"}`, root)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = do(http.MethodDelete, "/api/admins/2", "", lead)
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = do(http.MethodGet, "/api/orders", "", lead)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("self delete refused", func(t *testing.T) {
		w := do(http.MethodDelete, "/api/admins/1", "", root)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		w = do(http.MethodPut, "/api/admins/1/status", `{"status":"disabled"}`, root)
		require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

		login("Admin", "Admin@2024")
	})
}
