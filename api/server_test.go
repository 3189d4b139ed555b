package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/memoryframe/api/models"
	"github.com/aouyang1/memoryframe/event"
	"github.com/aouyang1/memoryframe/preload"
	"github.com/aouyang1/memoryframe/store"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// instantClock lets timelines run without real waits.
type instantClock struct{}

func (instantClock) Sleep(ctx context.Context, _ time.Duration) error {
	return ctx.Err()
}

func newTestDB(t *testing.T) *store.Database {
	t.Helper()
	db, err := store.NewDatabase(filepath.Join(t.TempDir(), "memoryframe.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func newTestServer(t *testing.T, db *store.Database, opts ...Option) *WebServer {
	t.Helper()
	opts = append([]Option{WithClock(instantClock{})}, opts...)
	ws, err := NewWebServer(db, preload.NewPreloader(zap.NewNop()), zap.NewNop(), opts...)
	require.NoError(t, err)
	t.Cleanup(ws.stopPreload)
	return ws
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	ws := newTestServer(t, newTestDB(t))

	w := do(t, ws.Handler(), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode[models.HealthResponse](t, w).Status)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestIndexRendersActiveConfig(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{
		Title:   "Anna & Ben",
		Gallery: []string{"https://cdn.example.com/1.jpg", "https://cdn.example.com/2.jpg"},
	}))
	ws := newTestServer(t, db)

	w := do(t, ws.Handler(), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	out := w.Body.String()
	assert.Contains(t, out, "hero-ampersand")
	assert.Contains(t, out, `data-config="wedding"`)
	assert.Contains(t, out, driverScript)
	assert.Equal(t, 2, strings.Count(out, "stack-card"))
}

func TestIndexBootstrapsEmptyStore(t *testing.T) {
	ws := newTestServer(t, newTestDB(t))

	w := do(t, ws.Handler(), http.MethodGet, "/", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `data-config="default"`)
	assert.NotContains(t, w.Body.String(), "gallery-container")
}

func TestStaticDriver(t *testing.T) {
	ws := newTestServer(t, newTestDB(t))

	w := do(t, ws.Handler(), http.MethodGet, driverScript, "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "EventSource")
	// clicks on gallery cards and controls still release a waiting gate
	assert.Regexp(t, `function onClick\(e\) \{\s+if \(e\.target\.closest\("#enter-button"\)\) return;\s+advance\(\);`, w.Body.String())
}

func TestSaveAndReadConfig(t *testing.T) {
	ws := newTestServer(t, newTestDB(t))
	h := ws.Handler()

	w := do(t, h, http.MethodPost, "/api/save-config?name=birthday", `{"title":"Happy 30th","photoCount":"2","photoBaseUrl":"https://cdn.example.com/p/"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "birthday", decode[models.SaveConfigResponse](t, w).Name)

	w = do(t, h, http.MethodGet, "/api/config", "")
	require.Equal(t, http.StatusOK, w.Code)
	cfg := decode[event.Config](t, w)
	assert.Equal(t, "Happy 30th", cfg.Title)
	assert.Equal(t, 2, cfg.PhotoCount.Int())

	w = do(t, h, http.MethodGet, "/api/templates", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.TemplateListResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "birthday", list.Templates[0].Name)
	assert.True(t, list.Templates[0].Active)

	w = do(t, h, http.MethodGet, "/api/template?name=birthday", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Happy 30th", decode[event.Config](t, w).Title)
}

func TestDeleteTemplate(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveConfig("party", &event.Config{Title: "Party"}))
	require.NoError(t, db.SaveActive("wedding", &event.Config{Title: "Wedding"}))
	h := newTestServer(t, db).Handler()

	tests := []struct {
		name   string
		target string
		code   int
	}{
		{"missing name", "/api/template", http.StatusBadRequest},
		{"active template", "/api/template?name=wedding", http.StatusConflict},
		{"saved template", "/api/template?name=party", http.StatusOK},
		{"already deleted", "/api/template?name=party", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodDelete, tt.target, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w := do(t, h, http.MethodGet, "/api/templates", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[models.TemplateListResponse](t, w)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "wedding", list.Templates[0].Name)
}

func TestSaveConfigErrors(t *testing.T) {
	ws := newTestServer(t, newTestDB(t))

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
	}{
		{"malformed json", http.MethodPost, "/api/save-config", `{"title":`, http.StatusBadRequest},
		{"invalid name", http.MethodPost, "/api/save-config?name=../etc", `{}`, http.StatusBadRequest},
		{"template without name", http.MethodGet, "/api/template", "", http.StatusBadRequest},
		{"unknown template", http.MethodGet, "/api/template?name=missing", "", http.StatusNotFound},
		{"invalid template name", http.MethodGet, "/api/template?name=..", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, ws.Handler(), tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, decode[models.ErrorResponse](t, w).Error)
		})
	}
}

func TestTimeline(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.SaveActive("wedding", &event.Config{Gallery: []string{"a.jpg", "b.jpg"}}))
	ws := newTestServer(t, db)

	w := do(t, ws.Handler(), http.MethodGet, "/api/timeline", "")

	require.Equal(t, http.StatusOK, w.Code)
	steps := decode[[]map[string]any](t, w)
	gates := 0
	for _, s := range steps {
		if s["type"] == "gate" {
			gates++
		}
	}
	assert.Equal(t, 2, gates)
	assert.Equal(t, "wait", steps[0]["type"])
}

func TestPreloadReport(t *testing.T) {
	assets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("image"))
	}))
	defer assets.Close()

	ws := newTestServer(t, newTestDB(t))
	body := `{"heroImage":"` + assets.URL + `/hero.jpg","gallery":["` + assets.URL + `/1.jpg","` + assets.URL + `/missing.jpg"]}`
	w := do(t, ws.Handler(), http.MethodPost, "/api/save-config?name=party", body)
	require.Equal(t, http.StatusOK, w.Code)

	var report models.PreloadResponse
	require.Eventually(t, func() bool {
		report = decode[models.PreloadResponse](t, do(t, ws.Handler(), http.MethodGet, "/api/preload", ""))
		return report.Report.Progress == 100 && report.Report.Duration > 0
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, "party", report.Config)
	assert.Equal(t, 3, report.Report.Total)
	assert.Equal(t, 2, report.Report.Loaded)
	assert.Equal(t, []string{assets.URL + "/missing.jpg"}, report.Report.Failed)
}
