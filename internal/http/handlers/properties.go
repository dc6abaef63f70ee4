package handlers

import (
	"net/http"

	"opsboard-services/internal/services"
	"opsboard-services/internal/store"
	"opsboard-services/pkg/response"
)

func (h *Handler) PropertiesCreate(w http.ResponseWriter, r *http.Request) {
	var body services.PropertyInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	property, err := h.Service.CreateProperty(r.Context(), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, property)
}

func (h *Handler) PropertiesList(w http.ResponseWriter, r *http.Request) {
	properties, err := h.Service.ListProperties(r.Context())
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, properties)
}

func (h *Handler) BookingsCreate(w http.ResponseWriter, r *http.Request) {
	var body services.BookingInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	booking, err := h.Service.CreateBooking(r.Context(), readPathString(r, "id"), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, booking)
}

func (h *Handler) BookingsList(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.Service.ListBookings(r.Context(), store.BookingFilter{
		PropertyID: r.URL.Query().Get("propertyId"),
		Limit:      queryLimit(r),
	})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, bookings)
}
