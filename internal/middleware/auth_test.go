package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mmeshcher/proxypanel/internal/auth"
	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/model"
)

type stubAccounts struct {
	admins map[int64]model.AdminAccount
	err    error
}

func (s stubAccounts) Admin(ctx context.Context, id int64) (model.AdminAccount, error) {
	if s.err != nil {
		return model.AdminAccount{}, s.err
	}
	a, ok := s.admins[id]
	if !ok {
		return model.AdminAccount{}, fmt.Errorf("admin %d: %w", id, datasource.ErrNotFound)
	}
	return a, nil
}

var (
	superAdmin  = model.AdminAccount{ID: 42, Username: "Admin", Role: model.RoleSuper, Status: model.StatusActive}
	normalAdmin = model.AdminAccount{ID: 43, Username: "Support_01", Role: model.RoleNormal, Status: model.StatusActive}
)

func accounts(admins ...model.AdminAccount) stubAccounts {
	m := make(map[int64]model.AdminAccount, len(admins))
	for _, a := range admins {
		m[a.ID] = a
	}
	return stubAccounts{admins: m}
}

func issue(t *testing.T, tm *auth.TokenManager, a model.AdminAccount) string {
	t.Helper()
	token, err := tm.GenerateToken(a)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func TestAuthMiddleware_WithValidToken(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	m := NewAuthMiddleware(tm, accounts(superAdmin))

	nextCalled := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
		claims, ok := ClaimsFromContext(r.Context())
		if !ok {
			t.Fatalf("claims not in context")
		}
		if claims.AdminID() != 42 {
			t.Fatalf("admin id from context = %d, want 42", claims.AdminID())
		}
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+issue(t, tm, superAdmin))

	m.Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if !nextCalled {
		t.Fatalf("next handler was not called")
	}
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	foreign := auth.NewTokenManager("other-secret", time.Hour)

	disabled := superAdmin
	disabled.Status = model.StatusDisabled

	tests := []struct {
		name     string
		header   string
		accounts stubAccounts
	}{
		{name: "no header", header: "", accounts: accounts(superAdmin)},
		{name: "basic scheme", header: "Basic YWRtaW46cGFzcw==", accounts: accounts(superAdmin)},
		{name: "empty bearer", header: "Bearer ", accounts: accounts(superAdmin)},
		{name: "garbage", header: "Bearer abc.def.ghi", accounts: accounts(superAdmin)},
		{name: "foreign signature", header: "Bearer " + issue(t, foreign, superAdmin), accounts: accounts(superAdmin)},
		{name: "deleted account", header: "Bearer " + issue(t, tm, superAdmin), accounts: accounts(normalAdmin)},
		{name: "disabled account", header: "Bearer " + issue(t, tm, superAdmin), accounts: accounts(disabled)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatalf("next handler should not be called")
			})

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			NewAuthMiddleware(tm, tt.accounts).Middleware(next).ServeHTTP(w, r)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

func TestAuthMiddleware_LookupFailure(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("next handler should not be called")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+issue(t, tm, superAdmin))

	NewAuthMiddleware(tm, stubAccounts{err: errors.New("connection refused")}).Middleware(next).ServeHTTP(w, r)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestAuthMiddleware_ClaimsFromStoredAccount(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)

	renamed := superAdmin
	renamed.Username = "Root"
	renamed.Role = model.RoleNormal

	var got *auth.Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = ClaimsFromContext(r.Context())
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+issue(t, tm, superAdmin))

	NewAuthMiddleware(tm, accounts(renamed)).Middleware(next).ServeHTTP(httptest.NewRecorder(), r)

	if got == nil {
		t.Fatalf("next handler was not called")
	}
	if got.Username != "Root" || got.Role != model.RoleNormal {
		t.Fatalf("claims = %s/%s, want Root/normal", got.Username, got.Role)
	}
}

func TestRequireRole(t *testing.T) {
	tm := auth.NewTokenManager("test-secret", time.Hour)
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

	demoted := superAdmin
	demoted.Role = model.RoleNormal

	tests := []struct {
		name     string
		token    model.AdminAccount
		accounts stubAccounts
		want     int
	}{
		{name: "super", token: superAdmin, accounts: accounts(superAdmin), want: http.StatusNoContent},
		{name: "normal", token: normalAdmin, accounts: accounts(normalAdmin), want: http.StatusForbidden},
		{name: "demoted after login", token: superAdmin, accounts: accounts(demoted), want: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthMiddleware(tm, tt.accounts).Middleware(RequireRole(model.RoleSuper)(ok))

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodDelete, "/admins/3", nil)
			r.Header.Set("Authorization", "Bearer "+issue(t, tm, tt.token))

			h.ServeHTTP(w, r)

			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}

	w := httptest.NewRecorder()
	RequireRole(model.RoleSuper)(ok).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("without claims status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
