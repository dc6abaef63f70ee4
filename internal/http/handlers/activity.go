package handlers

import (
	"net/http"
	"strings"

	"opsboard-services/internal/domain"
	"opsboard-services/internal/services"
	"opsboard-services/internal/store"
	"opsboard-services/pkg/response"
)

type activityLogRequest struct {
	Action       string         `json:"action"`
	Details      string         `json:"details"`
	Category     *string        `json:"category"`
	ResourceType *string        `json:"resourceType"`
	ResourceID   *string        `json:"resourceId"`
	Metadata     map[string]any `json:"metadata"`
}

// ActivityLog records an action the client performed outside the API.
func (h *Handler) ActivityLog(w http.ResponseWriter, r *http.Request) {
	var body activityLogRequest
	if err := decodeJSON(w, r, &body); err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	action, err := domain.ParseAction(body.Action)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	entry := services.ActivityEntry{
		Action:     action,
		Details:    strings.TrimSpace(body.Details),
		Category:   body.Category,
		ResourceID: body.ResourceID,
		Metadata:   body.Metadata,
	}
	if body.ResourceType != nil {
		resourceType, err := domain.ParseResourceType(*body.ResourceType)
		if err != nil {
			response.Fail(w, h.Logger, err)
			return
		}
		entry.ResourceType = &resourceType
	}

	record, err := h.Service.Log(r.Context(), entry)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Created(w, record)
}

// ActivityList serves the full log, optionally narrowed to one resource.
func (h *Handler) ActivityList(w http.ResponseWriter, r *http.Request) {
	resourceType, err := optionalQuery(r, "resourceType", domain.ParseResourceType)
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	records, err := h.Service.ListActivity(r.Context(), store.ActivityFilter{
		ResourceType: resourceType,
		ResourceID:   r.URL.Query().Get("resourceId"),
		Limit:        queryLimit(r),
	})
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, records)
}

func (h *Handler) ActivityRecent(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.RecentActivity(r.Context(), queryLimit(r))
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, records)
}

func (h *Handler) ActivityByUser(w http.ResponseWriter, r *http.Request) {
	records, err := h.Service.ActivityByUser(r.Context(), readPathString(r, "userId"), queryLimit(r))
	if err != nil {
		response.Fail(w, h.Logger, err)
		return
	}
	response.Success(w, records)
}
