package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"opsboard-services/internal/domain"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

func readPathString(r *http.Request, key string) string {
	return strings.TrimSpace(chi.URLParam(r, key))
}

// decodeJSON reads the request body into dst. An empty body leaves dst
// untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return domain.ValidationError("Invalid request body", map[string]any{"reason": err.Error()})
	}
	return nil
}

func parseStringToInt(value string) (int, error) {
	var out int
	_, err := fmt.Sscan(value, &out)
	return out, err
}

func parseQueryIntValue(value string, fallback int) int {
	parsed, err := parseStringToInt(value)
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func parseDateInput(value string) (time.Time, bool, error) {
	if value == "" {
		return time.Time{}, false, errors.New("empty")
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, false, nil
	}
	if parsed, err := time.Parse("2006-01-02", value); err == nil {
		return parsed, true, nil
	}
	return time.Time{}, false, errors.New("invalid date")
}

// parseDateRange reads from/to query parameters. A date-only "to" covers the
// whole day, and "to" may not fall before "from".
func parseDateRange(r *http.Request) (*time.Time, *time.Time, error) {
	query := r.URL.Query()
	var from, to *time.Time

	if raw := strings.TrimSpace(query.Get("from")); raw != "" {
		parsed, _, err := parseDateInput(raw)
		if err != nil {
			return nil, nil, domain.ValidationError("Invalid from date", map[string]any{"field": "from", "value": raw})
		}
		from = &parsed
	}
	if raw := strings.TrimSpace(query.Get("to")); raw != "" {
		parsed, dateOnly, err := parseDateInput(raw)
		if err != nil {
			return nil, nil, domain.ValidationError("Invalid to date", map[string]any{"field": "to", "value": raw})
		}
		if dateOnly {
			parsed = parsed.Add(24*time.Hour - time.Nanosecond)
		}
		to = &parsed
	}
	if from != nil && to != nil && to.Before(*from) {
		return nil, nil, domain.ValidationError("Invalid date range", map[string]any{"from": *from, "to": *to})
	}
	return from, to, nil
}

func queryLimit(r *http.Request) int {
	return parseQueryIntValue(r.URL.Query().Get("limit"), 0)
}

func optionalQuery[T any](r *http.Request, key string, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	value, err := parse(raw)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func optionalBool(r *http.Request, key string) (*bool, error) {
	return optionalQuery(r, key, func(raw string) (bool, error) {
		switch strings.ToLower(raw) {
		case "true", "1", "yes":
			return true, nil
		case "false", "0", "no":
			return false, nil
		}
		return false, domain.ValidationError("Invalid "+key, map[string]any{"field": key, "value": raw})
	})
}
