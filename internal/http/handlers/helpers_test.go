package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opsboard-services/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDateRange(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-02-01&to=2026-02-03", nil)
	from, to, err := parseDateRange(req)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(t, time.Date(2026, 2, 3, 23, 59, 59, 999999999, time.UTC), *to)

	req = httptest.NewRequest(http.MethodGet, "/?to=2026-02-03T10:00:00Z", nil)
	from, to, err = parseDateRange(req)
	require.NoError(t, err)
	assert.Nil(t, from)
	assert.Equal(t, time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC), *to)

	req = httptest.NewRequest(http.MethodGet, "/?from=soon", nil)
	_, _, err = parseDateRange(req)
	assert.True(t, domain.IsCode(err, domain.ErrValidation))

	req = httptest.NewRequest(http.MethodGet, "/?from=2026-02-01&to=2026-01-01", nil)
	_, _, err = parseDateRange(req)
	assert.True(t, domain.IsCode(err, domain.ErrValidation))

	req = httptest.NewRequest(http.MethodGet, "/?from=2026-02-01&to=2026-02-01", nil)
	from, to, err = parseDateRange(req)
	require.NoError(t, err)
	assert.True(t, to.After(*from))
}

func TestOptionalBool(t *testing.T) {
	cases := []struct {
		query   string
		want    *bool
		wantErr bool
	}{
		{query: "", want: nil},
		{query: "available=true", want: boolPtr(true)},
		{query: "available=0", want: boolPtr(false)},
		{query: "available=maybe", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/?"+tc.query, nil)
			got, err := optionalBool(req, "available")
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	var body struct {
		Name string `json:"name"`
	}
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"Lake House"}`))
	require.NoError(t, decodeJSON(rec, req, &body))
	assert.Equal(t, "Lake House", body.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	assert.NoError(t, decodeJSON(rec, req, &body))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{"))
	err := decodeJSON(rec, req, &body)
	assert.True(t, domain.IsCode(err, domain.ErrValidation))
}

func TestQueryLimit(t *testing.T) {
	assert.Equal(t, 0, queryLimit(httptest.NewRequest(http.MethodGet, "/", nil)))
	assert.Equal(t, 25, queryLimit(httptest.NewRequest(http.MethodGet, "/?limit=25", nil)))
	assert.Equal(t, 0, queryLimit(httptest.NewRequest(http.MethodGet, "/?limit=-3", nil)))
}

func boolPtr(v bool) *bool { return &v }
