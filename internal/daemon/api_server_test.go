package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/access"
	"animedb/internal/api"
	"animedb/internal/assistant"
	"animedb/internal/catalog"
	"animedb/internal/ingest"
	"animedb/internal/logging"
	"animedb/internal/metrics"
	"animedb/internal/parser"
	"animedb/internal/sheet"
	"animedb/internal/testsupport"
)

const listing = "1. [S01-E01] Demo [480p] [Dual] https://x/a.mkv\n2. Demo 1x02 https://x/b\n"

type fixture struct {
	handler http.Handler
	store   *catalog.Store
	llm     *testsupport.StubLLM
	metrics *metrics.Manager
}

func newFixture(t *testing.T, token string) fixture {
	t.Helper()
	store := catalog.New(sheet.NewMemory())
	list := access.NewList("admin", "42")
	stub := &testsupport.StubLLM{Reply: "Try Demo."}
	m := metrics.NewManager(nil)
	catalogSvc := api.NewService(store, nil,
		api.WithAccess(list),
		api.WithAssistant(assistant.New(stub)),
		api.WithMetrics(m),
	)
	uploads := ingest.NewService(store, parser.NewBulkParser(nil), ingest.WithAuthorizer(list), ingest.WithMetrics(m))
	srv := newAPIServer("127.0.0.1:0", token, catalogSvc, uploads, m, logging.NewNop())
	return fixture{handler: srv.server.Handler, store: store, llm: stub, metrics: m}
}

func (f fixture) do(t *testing.T, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestUploadThenSearch(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/api/upload", listing, map[string]string{headerUserID: "42"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	upload := decode[api.UploadResponse](t, w)
	assert.Equal(t, 2, upload.Added)
	assert.Equal(t, "fallback", upload.Provenance)
	assert.NotEmpty(t, w.Header().Get(headerRequestID))

	w = f.do(t, http.MethodGet, "/api/search?q=demo", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	result := decode[api.SearchResult](t, w)
	assert.Equal(t, 2, result.Count)
	assert.Equal(t, "pattern", result.Source)

	w = f.do(t, http.MethodGet, "/api/search?title=Demo&quality=720p", "", nil)
	result = decode[api.SearchResult](t, w)
	assert.Equal(t, "explicit", result.Source)
	assert.Equal(t, "1. https://x/b\n", result.Text)
}

func TestUploadJSONBody(t *testing.T) {
	f := newFixture(t, "")
	body, _ := json.Marshal(api.UploadRequest{Text: listing})
	w := f.do(t, http.MethodPost, "/api/upload", string(body), map[string]string{
		headerUserID:   "42",
		"Content-Type": "application/json; charset=utf-8",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 2, decode[api.UploadResponse](t, w).Total)
}

func TestUploadErrors(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/api/upload", listing, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/upload", listing, map[string]string{headerUserID: "7"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = f.do(t, http.MethodPost, "/api/upload", "nothing useful here", map[string]string{headerUserID: "42"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Zero(t, decode[api.UploadResponse](t, w).Added)

	w = f.do(t, http.MethodPost, "/api/upload", "  ", map[string]string{headerUserID: "42"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchRequiresQuery(t *testing.T) {
	f := newFixture(t, "")
	w := f.do(t, http.MethodGet, "/api/search", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decode[api.ErrorResponse](t, w).Error)

	f.do(t, http.MethodPost, "/api/upload", listing, map[string]string{headerUserID: "42"})
	w = f.do(t, http.MethodGet, "/api/search?q=show+me+all", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestTitlesAndHealth(t *testing.T) {
	f := newFixture(t, "")
	f.do(t, http.MethodPost, "/api/upload", listing, map[string]string{headerUserID: "42"})

	titles := decode[api.TitlesResponse](t, f.do(t, http.MethodGet, "/api/titles", "", nil))
	assert.Equal(t, []string{"Demo"}, titles.Titles)

	health := decode[api.HealthResponse](t, f.do(t, http.MethodGet, "/api/health", "", nil))
	assert.Equal(t, api.HealthResponse{OK: true, Records: 2, Series: 1}, health)
}

func TestChatEndpoints(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/api/chat", `{"userId":"5","message":"what should I watch?"}`, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Try Demo.", decode[api.ChatResult](t, w).Reply)

	w = f.do(t, http.MethodPost, "/api/chat", `{"message":"hi"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/api/chat/5", "", nil)
	assert.True(t, decode[api.ClearChatResponse](t, w).Cleared)

	f.llm.ChatErr = assert.AnError
	w = f.do(t, http.MethodPost, "/api/chat", `{"userId":"5","message":"again"}`, nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestUploaderAdministration(t *testing.T) {
	f := newFixture(t, "")

	w := f.do(t, http.MethodPost, "/api/uploaders", `{"userId":"99"}`, map[string]string{headerUserID: "admin"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(t, http.MethodPost, "/api/uploaders", `{"userId":"99"}`, map[string]string{headerUserID: "admin"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[api.AuthorizeResponse](t, w).Added)

	w = f.do(t, http.MethodPost, "/api/uploaders", `{"userId":"100"}`, map[string]string{headerUserID: "42"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	list := decode[api.UploadersResponse](t, f.do(t, http.MethodGet, "/api/uploaders", "", nil))
	assert.Equal(t, []string{"admin", "42", "99"}, list.Uploaders)

	w = f.do(t, http.MethodPost, "/api/upload", listing, map[string]string{headerUserID: "99"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestBearerAuth(t *testing.T) {
	f := newFixture(t, "secret")

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/health", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/titles", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(t, http.MethodGet, "/api/titles", "", map[string]string{"Authorization": "Bearer wrong"}).Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/titles", "", map[string]string{"Authorization": "Bearer secret"}).Code)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t, "")
	f.do(t, http.MethodGet, "/api/titles", "", nil)

	w := f.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `animedb_api_requests_total{code="200",route="/api/titles"} 1`)
}

func TestRequestIDPropagates(t *testing.T) {
	f := newFixture(t, "")
	w := f.do(t, http.MethodGet, "/api/titles", "", map[string]string{headerRequestID: "abc"})
	assert.Equal(t, "abc", w.Header().Get(headerRequestID))
}
