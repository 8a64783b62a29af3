package api

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/jafarshop/orderledger/internal/api/handlers"
	"github.com/jafarshop/orderledger/internal/api/middleware"
	"github.com/jafarshop/orderledger/internal/config"
	"github.com/jafarshop/orderledger/internal/domain"
	"github.com/jafarshop/orderledger/internal/export"
	"github.com/jafarshop/orderledger/internal/repository"
	"github.com/jafarshop/orderledger/internal/repository/memory"
	"github.com/jafarshop/orderledger/internal/service"
)

const webhookSecret = "whsec_test"

type testEnv struct {
	router *gin.Engine
	repos  *repository.Repositories
}

func newTestEnv(t *testing.T, keys []config.DashboardKey) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()

	repos := memory.NewRepositories()
	_, err := repos.Ledger.Save(context.Background(), &domain.Ledger{Rows: []domain.NormalizedRow{
		{Key: "100:0", OrderID: 100, OrderedAt: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), Product: "Vela", Variant: "Lavanda", Quantity: 2, State: "SP", Status: domain.StatusAwaiting},
		{Key: "100:1", OrderID: 100, OrderedAt: time.Date(2024, 5, 2, 9, 0, 0, 0, time.UTC), Product: "Sabonete", Quantity: 5, State: "SP", Status: domain.StatusAwaiting},
		{Key: "200:0", OrderID: 200, OrderedAt: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC), Product: "Vela", Variant: "Canela", Quantity: 1, State: "RJ", Status: domain.StatusAwaiting},
	}}, 0)
	require.NoError(t, err)

	jobs := service.NewJobs(func(context.Context) (*service.SyncResult, error) {
		return &service.SyncResult{Fetched: 3, Kept: 3, Rows: 3, Warnings: []string{}}, nil
	}, time.Minute, logger)
	t.Cleanup(jobs.Wait)

	svc := &handlers.Services{
		Jobs:    jobs,
		Ledger:  service.NewLedgerService(repos, service.NewLedgerWriter(nil, "Pedidos Shopify", config.WriteModeUpsert, logger), nil, false, logger),
		Reports: service.NewReportService(repos, nil, nil, "Pedidos", "Estoque", logger),
		Events:  repos.SyncEvent,
	}
	cfg := &config.Config{
		Environment:   "test",
		Shopify:       config.ShopifyConfig{WebhookSecret: webhookSecret},
		DashboardKeys: keys,
	}
	return &testEnv{router: NewRouter(cfg, svc, logger), repos: repos}
}

func (e *testEnv) do(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	w := env.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
}

func TestAuthRoles(t *testing.T) {
	viewerHash, err := middleware.HashAPIKey("viewer-key")
	require.NoError(t, err)
	editorHash, err := middleware.HashAPIKey("editor-key")
	require.NoError(t, err)
	env := newTestEnv(t, []config.DashboardKey{
		{Role: middleware.RoleViewer, Hash: viewerHash},
		{Role: middleware.RoleEditor, Hash: editorHash},
	})

	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/v1/ledger", nil, "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(http.MethodGet, "/v1/ledger", nil, "wrong").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/v1/ledger", nil, "viewer-key").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodGet, "/v1/ledger", nil, "editor-key").Code)

	edit := map[string]interface{}{"version": 1, "edits": []map[string]interface{}{{"key": "200:0", "tracking_code": "BR1"}}}
	assert.Equal(t, http.StatusForbidden, env.do(http.MethodPatch, "/v1/ledger", edit, "viewer-key").Code)
	assert.Equal(t, http.StatusOK, env.do(http.MethodPatch, "/v1/ledger", edit, "editor-key").Code)
}

func TestGetLedgerFilters(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/v1/ledger?state=SP&from=2024-05-02&to=2024-05-02", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var view service.LedgerView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, int64(1), view.Version)
	assert.Equal(t, 3, view.Total)
	assert.Len(t, view.Rows, 2)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/ledger?from=02/05/2024", nil, "").Code)
}

func TestEditLedger(t *testing.T) {
	env := newTestEnv(t, nil)

	stale := map[string]interface{}{"version": 0, "edits": []map[string]interface{}{{"key": "100:0", "status": domain.StatusDelivered}}}
	w := env.do(http.MethodPatch, "/v1/ledger", stale, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["current_version"])

	unknown := map[string]interface{}{"version": 1, "edits": []map[string]interface{}{{"key": "999:0", "status": domain.StatusDelivered}}}
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodPatch, "/v1/ledger", unknown, "").Code)

	invalid := map[string]interface{}{"version": 1, "edits": []map[string]interface{}{{"key": "100:0", "status": "Perdido"}}}
	assert.Equal(t, http.StatusUnprocessableEntity, env.do(http.MethodPatch, "/v1/ledger", invalid, "").Code)

	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodPatch, "/v1/ledger", map[string]interface{}{"version": 1}, "").Code)

	ok := map[string]interface{}{"version": 1, "edits": []map[string]interface{}{{"key": "100:0", "status": domain.StatusDelivered}}}
	w = env.do(http.MethodPatch, "/v1/ledger", ok, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), decode(t, w)["version"])

	l, err := env.repos.Ledger.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivered, l.Rows[0].Status)
	assert.True(t, l.Rows[0].StatusEdited)
}

func TestFlushWithoutSheetIsUnavailable(t *testing.T) {
	env := newTestEnv(t, nil)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodPost, "/v1/ledger/flush", nil, "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, env.do(http.MethodPost, "/v1/ledger/tracking", nil, "").Code)
}

func TestPushTrackingAcceptsChunkedEmptyBody(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/ledger/tracking", strings.NewReader(""))
	req.ContentLength = -1
	req.TransferEncoding = []string{"chunked"}
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/v1/ledger/tracking", strings.NewReader("{"))
	req.ContentLength = -1
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSyncInlineAndPoll(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodPost, "/v1/sync?wait=true", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var job service.Job
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &job))
	assert.Equal(t, service.JobSucceeded, job.State)
	require.NotNil(t, job.Result)
	assert.Equal(t, 3, job.Result.Rows)

	w = env.do(http.MethodGet, "/v1/sync/"+job.ID.String(), nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/sync/not-a-uuid", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(http.MethodGet, "/v1/sync/00000000-0000-0000-0000-000000000000", nil, "").Code)
}

func TestReports(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/v1/reports/products", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, float64(8), body["total"])

	w = env.do(http.MethodGet, "/v1/reports/variants/compare?product=Vela", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, http.StatusBadRequest, env.do(http.MethodGet, "/v1/reports/variants/compare", nil, "").Code)

	series := map[string]interface{}{"series": []map[string]interface{}{
		{"variant": "Lavanda", "from": "2024-05-01", "to": "2024-05-03"},
		{"variant": "Canela", "from": "2024-05-01", "to": "2024-05-03"},
	}}
	w = env.do(http.MethodPost, "/v1/reports/variants/series", series, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["series"], 2)
}

func TestShipmentStatsDegradeWithoutSheet(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/v1/shipments/stats", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var rep service.ShipmentReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 0, rep.Stats.Total)
	assert.NotEmpty(t, rep.Warnings)
}

func TestExportLedger(t *testing.T) {
	env := newTestEnv(t, nil)

	w := env.do(http.MethodGet, "/v1/ledger/export.xlsx", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "ledger-v1.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(export.SheetLedger)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestShopifyFulfillmentWebhook(t *testing.T) {
	env := newTestEnv(t, nil)
	body := []byte(`{"order_id":100,"status":"success","tracking_number":"BR777"}`)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/shopify/fulfillment", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", "bad")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/webhooks/shopify/fulfillment", bytes.NewReader(body))
	req.Header.Set("X-Shopify-Hmac-Sha256", sign(body))
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	assert.Equal(t, "updated", resp["status"])
	assert.Equal(t, float64(2), resp["rows"])

	l, err := env.repos.Ledger.Get(context.Background())
	require.NoError(t, err)
	for _, r := range l.Rows {
		if r.OrderID == 100 {
			assert.Equal(t, "BR777", r.TrackingCode)
			assert.Equal(t, domain.StatusFulfilled, r.Status)
		} else {
			assert.Empty(t, r.TrackingCode)
		}
	}
}
