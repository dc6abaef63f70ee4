package response

import (
	"encoding/json"
	"net/http"

	"opsboard-services/internal/domain"

	"go.uber.org/zap"
)

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"data":    data,
	})
}

func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, map[string]any{
		"success": false,
		"error":   code,
		"message": message,
	})
}

// Fail writes err using its domain code when it carries one. Anything else
// is logged and reported as INTERNAL_ERROR.
func Fail(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr, ok := domain.AsError(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError && logger != nil {
			logger.Error("request failed", zap.String("code", string(appErr.Code)), zap.Error(err))
		}
		payload := map[string]any{
			"success": false,
			"error":   string(appErr.Code),
			"message": appErr.Message,
		}
		if len(appErr.Details) > 0 {
			payload["details"] = appErr.Details
		}
		JSON(w, appErr.StatusCode, payload)
		return
	}

	if logger != nil {
		logger.Error("request failed", zap.Error(err))
	}
	Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}
