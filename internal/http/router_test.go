package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"opsboard-services/internal/auth"
	"opsboard-services/internal/config"
	"opsboard-services/internal/http/handlers"
	"opsboard-services/internal/mailer"
	"opsboard-services/internal/metrics"
	"opsboard-services/internal/services"
	"opsboard-services/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSecret = "router-secret"

type stubMailer struct {
	sent []mailer.Message
}

func (s *stubMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	s.sent = append(s.sent, msg)
	return "msg-1", nil
}

type testServer struct {
	handler http.Handler
	mem     *store.Memory
	mail    *stubMailer
	token   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	mem := store.NewMemory()
	m := metrics.New()
	svc := services.New(mem, zap.NewNop(), m)
	mail := &stubMailer{}
	cfg := config.Config{Env: "test", JWTSecret: testSecret}
	h := &handlers.Handler{Service: svc, Mailer: mail, Logger: zap.NewNop(), Config: cfg}

	token, err := auth.IssueAccessToken(auth.Identity{Subject: "u1", Role: auth.RoleManager}, testSecret, time.Hour)
	require.NoError(t, err)

	return &testServer{
		handler: NewRouter(h, zap.NewNop(), cfg, m, nil),
		mem:     mem,
		mail:    mail,
		token:   token,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any, authed bool) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/health", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok"}, decodeBody(t, rec))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/metrics", nil, false)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestAPIRequiresBearerToken(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/orders", nil, false)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", decodeBody(t, rec)["error"])
}

func TestCreateOrderDerivesSale(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/orders", map[string]any{
		"customerName": "Jane",
		"items": []map[string]any{
			{"menuItemId": "m1", "name": "Rice", "price": 7500, "quantity": 2, "subtotal": 15000},
		},
		"totalAmount": 15000,
		"status":      "pending",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	order := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "ORDER-01", order["customId"])
	assert.Equal(t, "u1", order["createdBy"])

	rec = s.do(t, http.MethodGet, "/api/sales", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	sales := decodeBody(t, rec)["data"].([]any)
	require.Len(t, sales, 1)
	sale := sales[0].(map[string]any)
	assert.Equal(t, "SALES-01", sale["customSalesId"])
	assert.Equal(t, order["id"], sale["orderId"])
	assert.Equal(t, "cash", sale["paymentMethod"])
	assert.Equal(t, "completed", sale["status"])

	rec = s.do(t, http.MethodGet, "/api/activity/recent", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	activity := decodeBody(t, rec)["data"].([]any)
	require.Len(t, activity, 1)
	assert.Equal(t, "create_order", activity[0].(map[string]any)["action"])
}

func TestListOrdersRejectsUnknownStatus(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/orders?status=lost", nil, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, rec)["error"])
}

func TestUnknownOrderIsNotFound(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/orders/missing", nil, true)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, rec)["error"])
}

func TestLogActivity(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/activity", map[string]any{
		"action":       "create_sale",
		"details":      "manual",
		"category":     "food",
		"resourceType": "sale",
		"resourceId":   "s1",
		"metadata":     map[string]any{"source": "till"},
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	record := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "u1", record["userId"])
	assert.Equal(t, "create_sale", record["action"])
	assert.Equal(t, "sale", record["resourceType"])
	assert.Equal(t, map[string]any{"source": "till"}, record["metadata"])

	rec = s.do(t, http.MethodGet, "/api/activity?resourceType=sale&resourceId=s1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody(t, rec)["data"].([]any), 1)
}

func TestLogActivityValidation(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		name   string
		body   map[string]any
		authed bool
		status int
		code   string
	}{
		{name: "unknown action", body: map[string]any{"action": "launch_rocket"}, authed: true, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "missing action", body: map[string]any{"details": "x"}, authed: true, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "unknown resource type", body: map[string]any{"action": "create_sale", "resourceType": "planet"}, authed: true, status: http.StatusBadRequest, code: "VALIDATION_ERROR"},
		{name: "no token", body: map[string]any{"action": "create_sale"}, status: http.StatusUnauthorized, code: "UNAUTHENTICATED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/activity", tc.body, tc.authed)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			assert.Equal(t, tc.code, decodeBody(t, rec)["error"])
		})
	}

	activity, err := s.mem.ListActivity(context.Background(), store.ActivityFilter{})
	require.NoError(t, err)
	assert.Empty(t, activity)
}

func TestListRejectsInvertedDateRange(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/api/orders", "/api/sales", "/api/expenses", "/api/snooker-coins"} {
		rec := s.do(t, http.MethodGet, path+"?from=2026-02-01&to=2026-01-01", nil, true)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
		assert.Equal(t, "VALIDATION_ERROR", decodeBody(t, rec)["error"], path)
	}
}

func TestSaleStatusAppendsNotes(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/sales", map[string]any{
		"items":         []map[string]any{{"name": "Coffee", "price": 3, "quantity": 1, "subtotal": 3}},
		"totalAmount":   3,
		"paymentMethod": "card",
		"notes":         "walk-in",
	}, true)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := decodeBody(t, rec)["data"].(map[string]any)["id"].(string)

	rec = s.do(t, http.MethodPatch, "/api/sales/"+id+"/status", map[string]any{"status": "refunded", "notes": "duplicate charge"}, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	sale := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, "refunded", sale["status"])
	assert.Equal(t, "walk-in | duplicate charge", sale["notes"])

	rec = s.do(t, http.MethodGet, "/api/sales/summary", nil, true)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody(t, rec)["data"].(map[string]any)
	assert.Equal(t, 3.0, summary["refundedTotal"])
}

func TestSalesReportPDF(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/reports/sales/pdf?from=2026-01-01&to=2026-01-31&download=1", nil, true)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="sales_2026-01-01_2026-01-31.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestSalesReportRejectsBadDate(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/api/reports/sales?from=yesterday", nil, true)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailSend(t *testing.T) {
	cases := []struct {
		name   string
		body   map[string]any
		status int
	}{
		{
			name:   "sent",
			body:   map[string]any{"to": "guest@example.com", "subject": "Hi", "template": "booking-confirmation", "data": map[string]any{"nights": 2}},
			status: http.StatusOK,
		},
		{name: "missing subject", body: map[string]any{"to": "guest@example.com", "template": "booking-confirmation"}, status: http.StatusBadRequest},
		{name: "unknown template", body: map[string]any{"to": "guest@example.com", "subject": "Hi", "template": "newsletter"}, status: http.StatusBadRequest},
		{name: "bad recipient", body: map[string]any{"to": "guest", "subject": "Hi", "template": "report-notification"}, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newTestServer(t)
			rec := s.do(t, http.MethodPost, "/api/email/send", tc.body, false)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			body := decodeBody(t, rec)
			if tc.status == http.StatusOK {
				assert.Equal(t, true, body["success"])
				assert.Equal(t, "msg-1", body["messageId"])
				require.Len(t, s.mail.sent, 1)
				return
			}
			assert.NotEmpty(t, body["error"])
			assert.Empty(t, s.mail.sent)
		})
	}
}
