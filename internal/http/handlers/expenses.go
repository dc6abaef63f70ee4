package handlers

import (
	"net/http"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/services"
	"opsboard-services/internal/store"
	"opsboard-services/pkg/response"
)

func (h *Handler) ExpensesCreate(w http.ResponseWriter, r *http.Request) {
	var body services.ExpenseInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	expense, err := h.Service.CreateExpense(r.Context(), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, expense)
}

func (h *Handler) ExpensesList(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	category, err := optionalQuery(r, "category", domain.ParseExpenseCategory)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	expenses, err := h.Service.ListExpenses(r.Context(), store.ExpenseFilter{
		From:     from,
		To:       to,
		Category: category,
		Limit:    queryLimit(r),
	})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, expenses)
}

func (h *Handler) ExpensesUpdate(w http.ResponseWriter, r *http.Request) {
	var body services.ExpensePatch
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	expense, err := h.Service.UpdateExpense(r.Context(), readPathString(r, "id"), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, expense)
}

func (h *Handler) ExpensesDelete(w http.ResponseWriter, r *http.Request) {
	id := readPathString(r, "id")
	if err := h.Service.DeleteExpense(r.Context(), id); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, map[string]any{"id": id, "deleted": true})
}
