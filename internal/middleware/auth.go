// Package middleware содержит HTTP middleware панели администратора.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mmeshcher/proxypanel/internal/auth"
	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/model"
)

type contextKey string

const claimsKey contextKey = "claims"

// TokenParser проверяет токен администратора.
type TokenParser interface {
	ParseToken(token string) (*auth.Claims, error)
}

// AccountResolver находит текущую учётную запись администратора по ID из токена.
type AccountResolver interface {
	Admin(ctx context.Context, id int64) (model.AdminAccount, error)
}

// AuthMiddleware проверяет токен из заголовка Authorization: Bearer
// и учётную запись, на которую он выпущен.
type AuthMiddleware struct {
	tokens   TokenParser
	accounts AccountResolver
}

// NewAuthMiddleware создаёт новый экземпляр AuthMiddleware.
func NewAuthMiddleware(tokens TokenParser, accounts AccountResolver) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, accounts: accounts}
}

// Middleware проверяет токен и добавляет утверждения администратора в контекст запроса.
// Удалённая или отключённая учётная запись получает 401. Имя и роль берутся
// из хранилища, а не из токена.
func (a *AuthMiddleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		claims, err := a.tokens.ParseToken(strings.TrimSpace(token))
		if err != nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		account, err := a.accounts.Admin(r.Context(), claims.AdminID())
		if err != nil {
			if errors.Is(err, datasource.ErrNotFound) {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if account.Status != model.StatusActive {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}

		current := *claims
		current.Username = account.Username
		current.Role = account.Role

		ctx := context.WithValue(r.Context(), claimsKey, &current)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole пропускает только администраторов с ролью role.
// Должен стоять после AuthMiddleware.
func RequireRole(role model.AdminRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			if claims.Role != role {
				http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext извлекает утверждения администратора из контекста запроса.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*auth.Claims)
	return claims, ok
}

// WithClaims кладёт утверждения в контекст.
func WithClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}
