package handler

import (
	"bytes"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mmeshcher/proxypanel/internal/export"
	"github.com/mmeshcher/proxypanel/internal/middleware"
	"github.com/mmeshcher/proxypanel/internal/model"
)

// Orders возвращает страницу заказов.
func (h *Handler) Orders(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r, model.EntityOrder)
	if err != nil {
		h.writeServiceError(w, err, "parse orders request")
		return
	}
	page, err := h.service.Orders(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "get orders error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Members возвращает страницу участников.
func (h *Handler) Members(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r, model.EntityMember)
	if err != nil {
		h.writeServiceError(w, err, "parse members request")
		return
	}
	page, err := h.service.Members(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "get members error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// DailyStats возвращает страницу дневной статистики.
func (h *Handler) DailyStats(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r, model.EntityDailyStat)
	if err != nil {
		h.writeServiceError(w, err, "parse daily request")
		return
	}
	page, err := h.service.DailyStats(r.Context(), req)
	if err != nil {
		h.writeServiceError(w, err, "get daily stats error")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ResidentialPackages возвращает резидентные пакеты.
func (h *Handler) ResidentialPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.service.ResidentialPackages(r.Context(), criteriaFromRequest(r, model.EntityResidentialPackage))
	if err != nil {
		h.writeServiceError(w, err, "get residential packages error")
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

// UnlimitedPackages возвращает безлимитные пакеты.
func (h *Handler) UnlimitedPackages(w http.ResponseWriter, r *http.Request) {
	packages, err := h.service.UnlimitedPackages(r.Context(), criteriaFromRequest(r, model.EntityUnlimitedPackage))
	if err != nil {
		h.writeServiceError(w, err, "get unlimited packages error")
		return
	}
	writeJSON(w, http.StatusOK, packages)
}

// Admins возвращает администраторов; текущий помечен isCurrent.
func (h *Handler) Admins(w http.ResponseWriter, r *http.Request) {
	var current string
	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		current = claims.Username
	}
	admins, err := h.service.Admins(r.Context(), current, criteriaFromRequest(r, model.EntityAdmin))
	if err != nil {
		h.writeServiceError(w, err, "get admins error")
		return
	}
	writeJSON(w, http.StatusOK, admins)
}

// MemberOrders возвращает историю заказов участника.
func (h *Handler) MemberOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.MemberOrders(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		h.writeServiceError(w, err, "get member orders error")
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// LookupMember ищет участника по имени или e-mail из параметра query.
func (h *Handler) LookupMember(w http.ResponseWriter, r *http.Request) {
	member, err := h.service.LookupMember(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		h.writeServiceError(w, err, "lookup member error")
		return
	}
	writeJSON(w, http.StatusOK, member)
}

// Summary возвращает итоги дневной статистики за период.
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.service.Summary(r.Context(), firstParam(r, "startDate", "dateFrom"), firstParam(r, "endDate", "dateTo"))
	if err != nil {
		h.writeServiceError(w, err, "get summary error")
		return
	}
	writeJSON(w, http.StatusOK, sum)
}

func wantsJSON(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "application/json") && !strings.Contains(accept, export.ContentType)
}

// Export выгружает отфильтрованную коллекцию целиком. По умолчанию отдаёт файл
// XLSX; при Accept: application/json возвращает записи как есть.
func (h *Handler) Export(entity model.EntityType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		criteria := criteriaFromRequest(r, entity)

		if wantsJSON(r) {
			records, err := h.service.ExportRecords(r.Context(), entity, criteria)
			if err != nil {
				h.writeServiceError(w, err, "export records error")
				return
			}
			writeJSON(w, http.StatusOK, records)
			return
		}

		sheet, err := h.service.Export(r.Context(), entity, criteria)
		if err != nil {
			h.writeServiceError(w, err, "export sheet error")
			return
		}

		var buf bytes.Buffer
		if err := h.writer.Write(&buf, sheet); err != nil {
			h.logger.Error("write export file error", zap.String("entity", string(entity)), zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", export.ContentType)
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": sheet.FileName}))
		w.WriteHeader(http.StatusOK)
		_, _ = buf.WriteTo(w)
	}
}
