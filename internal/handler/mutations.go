package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/proxypanel/internal/auth"
	"github.com/mmeshcher/proxypanel/internal/datasource"
	"github.com/mmeshcher/proxypanel/internal/gateway"
	"github.com/mmeshcher/proxypanel/internal/middleware"
	"github.com/mmeshcher/proxypanel/internal/model"
)

const malformedBody = "malformed request body"

const (
	errDeleteCurrent  = "cannot delete the current account"
	errDisableCurrent = "cannot disable the current account"
	errDemoteCurrent  = "cannot change the role of the current account"
)

// currentAdmin возвращает утверждения текущего администратора, если key
// адресует его собственную учётную запись.
func currentAdmin(r *http.Request, key string) (*auth.Claims, bool) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return nil, false
	}
	id, err := strconv.ParseInt(key, 10, 64)
	if err != nil || id != claims.AdminID() {
		return nil, false
	}
	return claims, true
}

func rejectSelf(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, gateway.Failure(gateway.KindValidation, msg))
}

func (h *Handler) perform(w http.ResponseWriter, r *http.Request, action model.Action, target model.Target, payload model.Payload) {
	res := h.gateway.Perform(r.Context(), action, target, payload)
	writeJSON(w, resultStatus(action, res), res)
}

// mutate декодирует тело запроса в T и передаёт мутацию шлюзу.
// Ключ цели берётся из параметра маршрута param, если он задан.
func mutate[T model.Payload](h *Handler, action model.Action, entity model.EntityType, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload T
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, gateway.Failure(gateway.KindValidation, malformedBody))
			return
		}
		target := model.Target{Entity: entity}
		if param != "" {
			target.Key = chi.URLParam(r, param)
		}
		h.perform(w, r, action, target, payload)
	}
}

// remove удаляет запись по параметру маршрута id.
// Администратор не может удалить собственную учётную запись.
func (h *Handler) remove(entity model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := chi.URLParam(r, "id")
		if entity == model.EntityAdmin {
			if _, self := currentAdmin(r, key); self {
				rejectSelf(w, errDeleteCurrent)
				return
			}
		}
		h.perform(w, r, model.ActionDelete, model.Target{Entity: entity, Key: key}, nil)
	}
}

// AdminStatus меняет статус администратора. Отключить себя нельзя.
func (h *Handler) AdminStatus(w http.ResponseWriter, r *http.Request) {
	var payload model.StatusChange
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.Failure(gateway.KindValidation, malformedBody))
		return
	}
	key := chi.URLParam(r, "id")
	if _, self := currentAdmin(r, key); self && payload.Status != model.StatusActive {
		rejectSelf(w, errDisableCurrent)
		return
	}
	h.perform(w, r, model.ActionToggleStatus, model.Target{Entity: model.EntityAdmin, Key: key}, payload)
}

// UpdateAdmin изменяет администратора. Собственную роль сменить нельзя.
func (h *Handler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	var payload model.AdminUpdate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.Failure(gateway.KindValidation, malformedBody))
		return
	}
	key := chi.URLParam(r, "id")
	if claims, self := currentAdmin(r, key); self && payload.Role != claims.Role {
		rejectSelf(w, errDemoteCurrent)
		return
	}
	h.perform(w, r, model.ActionUpdate, model.Target{Entity: model.EntityAdmin, Key: key}, payload)
}

type memberStatusRequest struct {
	Action string       `json:"action"`
	Status model.Status `json:"status"`
}

// MemberStatus включает или отключает участника. Принимает {"action": "enable"|"disable"}
// или {"status": "active"|"disabled"}.
func (h *Handler) MemberStatus(w http.ResponseWriter, r *http.Request) {
	var req memberStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, gateway.Failure(gateway.KindValidation, malformedBody))
		return
	}
	status := req.Status
	switch req.Action {
	case "enable":
		status = model.StatusActive
	case "disable":
		status = model.StatusDisabled
	}
	h.perform(w, r, model.ActionToggleStatus,
		model.Target{Entity: model.EntityMember, Key: chi.URLParam(r, "username")},
		model.StatusChange{Status: status})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string             `json:"token"`
	Admin model.AdminAccount `json:"admin"`
}

// Login выполняет аутентификацию администратора и выдаёт токен.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Username == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	admin, err := h.service.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, datasource.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login admin error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	token, err := h.tokens.GenerateToken(admin)
	if err != nil {
		h.logger.Error("generate token error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Authorization", "Bearer "+token)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Admin: admin})
}
