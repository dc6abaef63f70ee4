package handlers

import (
	"net/http"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/services"
	"opsboard-services/internal/store"
	"opsboard-services/pkg/response"
)

func (h *Handler) SalesCreate(w http.ResponseWriter, r *http.Request) {
	var body services.SaleInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}

	id, err := h.Service.RecordSale(r.Context(), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	sale, err := h.Service.GetSale(r.Context(), id)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, sale)
}

func (h *Handler) SalesList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	category, err := optionalQuery(r, "category", domain.ParseCategory)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	status, err := optionalQuery(r, "status", domain.ParseSaleStatus)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}

	query := r.URL.Query()
	sales, err := h.Service.ListSales(r.Context(), store.SaleFilter{
		From:      from,
		To:        to,
		Category:  category,
		Status:    status,
		CreatedBy: query.Get("createdBy"),
		OrderID:   query.Get("orderId"),
		Limit:     queryLimit(r),
	})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, sales)
}

func (h *Handler) SalesGet(w http.ResponseWriter, r *http.Request) {
	sale, err := h.Service.GetSale(r.Context(), readPathString(r, "id"))
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, sale)
}

func (h *Handler) SalesUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Status string  `json:"status"`
		Notes  *string `json:"notes"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	sale, err := h.Service.UpdateSaleStatus(r.Context(), readPathString(r, "id"), body.Status, body.Notes)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, sale)
}

func (h *Handler) SalesSummary(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	summary, err := h.Service.SalesSummary(r.Context(), from, to)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, summary)
}
