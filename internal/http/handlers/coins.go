package handlers

import (
	"net/http"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/services"
	"opsboard-services/internal/store"
	"opsboard-services/pkg/response"
)

func (h *Handler) SnookerCoinsCreate(w http.ResponseWriter, r *http.Request) {
	var body services.CoinInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	txn, err := h.Service.RecordCoinTransaction(r.Context(), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, txn)
}

func (h *Handler) SnookerCoinsList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	coinType, err := optionalQuery(r, "type", domain.ParseCoinType)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	txns, err := h.Service.ListCoinTransactions(r.Context(), store.CoinFilter{
		From:  from,
		To:    to,
		Type:  coinType,
		Limit: queryLimit(r),
	})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, txns)
}
