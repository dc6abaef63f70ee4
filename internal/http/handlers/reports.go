package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"opsboard-services/internal/services"
	"opsboard-services/pkg/response"
)

func (h *Handler) ReportsSales(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	report, err := h.Service.SalesReport(r.Context(), from, to)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, report)
}

func (h *Handler) ReportsSalesPDF(w http.ResponseWriter, r *http.Request) {
	from, to, err := parseDateRange(r)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	filename, body, err := h.Service.RenderSalesReportPDF(r.Context(), from, to)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}

	disposition := "inline"
	if r.URL.Query().Get("download") == "1" {
		disposition = "attachment"
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("%s; filename=\"%s\"", disposition, filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (h *Handler) ReportsSalesShare(w http.ResponseWriter, r *http.Request) {
	var body services.ShareReportInput
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	result, err := h.Service.ShareSalesReport(r.Context(), body)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, result)
}
