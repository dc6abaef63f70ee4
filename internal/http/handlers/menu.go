package handlers

import (
	"net/http"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/services"
	"opsboard-services/internal/store"
	"opsboard-services/pkg/response"
)

func (h *Handler) MenuItemsCreate(w http.ResponseWriter, r *http.Request) {
	var body services.MenuItemInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	item, err := h.Service.CreateMenuItem(r.Context(), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, item)
}

func (h *Handler) MenuItemsList(w http.ResponseWriter, r *http.Request) {
	category, err := optionalQuery(r, "category", domain.ParseCategory)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	available, err := optionalBool(r, "available")
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	items, err := h.Service.ListMenuItems(r.Context(), store.MenuItemFilter{Category: category, Available: available})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, items)
}

func (h *Handler) MenuItemsUpdate(w http.ResponseWriter, r *http.Request) {
	var body services.MenuItemPatch
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	item, err := h.Service.UpdateMenuItem(r.Context(), readPathString(r, "id"), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, item)
}

func (h *Handler) MenuItemsDelete(w http.ResponseWriter, r *http.Request) {
	id := readPathString(r, "id")
	if err := h.Service.DeleteMenuItem(r.Context(), id); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, map[string]any{"id": id, "deleted": true})
}

func (h *Handler) MenuItemsAdjustStock(w http.ResponseWriter, r *http.Request) {
	var body services.StockAdjustment
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	entry, err := h.Service.AdjustStock(r.Context(), readPathString(r, "id"), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, entry)
}

func (h *Handler) InventoryHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.Service.ListInventoryHistory(r.Context(), store.InventoryFilter{
		MenuItemID: r.URL.Query().Get("menuItemId"),
		Limit:      queryLimit(r),
	})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, entries)
}
