package handlers

import (
	"net/http"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/services"
	"opsboard-services/internal/store"
	"opsboard-services/pkg/response"
)

func (h *Handler) OrdersCreate(w http.ResponseWriter, r *http.Request) {
	var body services.OrderInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}

	id, err := h.Service.RecordOrder(r.Context(), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	order, err := h.Service.GetOrder(r.Context(), id)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, order)
}

func (h *Handler) OrdersList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	status, err := optionalQuery(r, "status", domain.ParseOrderStatus)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	category, err := optionalQuery(r, "category", domain.ParseCategory)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}

	orders, err := h.Service.ListOrders(r.Context(), store.OrderFilter{
		From:      from,
		To:        to,
		Status:    status,
		Category:  category,
		CreatedBy: r.URL.Query().Get("createdBy"),
		Limit:     queryLimit(r),
	})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, orders)
}

func (h *Handler) OrdersGet(w http.ResponseWriter, r *http.Request) {
	order, err := h.Service.GetOrder(r.Context(), readPathString(r, "id"))
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, order)
}

func (h *Handler) OrdersUpdate(w http.ResponseWriter, r *http.Request) {
	var body services.OrderPatch
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	order, err := h.Service.UpdateOrder(r.Context(), readPathString(r, "id"), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, order)
}

func (h *Handler) OrdersDelete(w http.ResponseWriter, r *http.Request) {
	id := readPathString(r, "id")
	if err := h.Service.RemoveOrder(r.Context(), id); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, map[string]any{"id": id, "deleted": true})
}
