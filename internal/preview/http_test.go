package preview

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/flowdraw-ai/flowdraw-backend/internal/auth"
	"github.com/flowdraw-ai/flowdraw-backend/internal/cache"
	"github.com/flowdraw-ai/flowdraw-backend/internal/diagrams"
	"github.com/flowdraw-ai/flowdraw-backend/internal/export"
	"github.com/flowdraw-ai/flowdraw-backend/internal/render"
)

type memStore struct {
	mu   sync.Mutex
	byID map[string]*diagrams.Diagram
}

func (m *memStore) Create(_ context.Context, d *diagrams.Diagram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[d.ID] = d
	return nil
}

func (m *memStore) Get(_ context.Context, ownerID int64, id string) (*diagrams.Diagram, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.byID[id]
	if !ok || d.OwnerID != ownerID {
		return nil, diagrams.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *memStore) ListByProject(_ context.Context, ownerID int64, projectID string) ([]diagrams.Diagram, error) {
	return nil, nil
}

func (m *memStore) Update(_ context.Context, d *diagrams.Diagram) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.byID[d.ID] = &cp
	return nil
}

func (m *memStore) SoftDelete(_ context.Context, ownerID int64, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, id)
	return nil
}

type memHistory struct{}

func (memHistory) Append(context.Context, *diagrams.Snapshot) error { return nil }
func (memHistory) List(context.Context, string, int) ([]diagrams.Snapshot, error) {
	return nil, nil
}
func (memHistory) Get(context.Context, string, string) (*diagrams.Snapshot, error) {
	return nil, diagrams.ErrNotFound
}

type countingCompiler struct {
	mu    sync.Mutex
	calls int
	ids   []string
}

func (c *countingCompiler) Render(_ context.Context, id, source string, cfg render.Config) (string, error) {
	c.mu.Lock()
	c.calls++
	c.ids = append(c.ids, id)
	c.mu.Unlock()
	return `<svg viewBox="0 0 10 10"><g>` + source + `</g></svg>`, nil
}

func (c *countingCompiler) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *countingCompiler) renderIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.ids...)
}

type fixture struct {
	router   *gin.Engine
	store    *memStore
	compiler *countingCompiler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := &memStore{byID: map[string]*diagrams.Diagram{
		"diag-1": {
			ID:        "diag-1",
			ProjectID: "proj-1",
			OwnerID:   7,
			Title:     "Checkout Flow",
			Source:    "flowchart TD\n  A-->B",
			Layout:    "dagre",
			Theme:     "default",
			Direction: "TB",
		},
	}}
	svc := diagrams.NewService(store, memHistory{}, nil)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	compiler := &countingCompiler{}
	mgr := NewManager(compiler, 5*time.Millisecond)
	h := NewHandler(mgr, svc, export.NewEncoder(nil), cache.NewThumbCache(rdb, time.Hour), compiler)

	r := gin.New()
	api := r.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		auth.WithUser(c, auth.User{DBID: 7, FirebaseUID: "dev:t", Email: "t@example.com"})
	})
	h.Register(api)
	return &fixture{router: r, store: store, compiler: compiler}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func previewData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		OK   bool           `json:"ok"`
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.OK)
	return resp.Data
}

func TestPreviewSeedsFromStoredDocument(t *testing.T) {
	f := newFixture(t)

	require.Eventually(t, func() bool {
		w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/preview", nil)
		if w.Code != http.StatusOK {
			return false
		}
		return previewData(t, w)["state"] == "rendered"
	}, time.Second, 10*time.Millisecond)

	w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/preview", nil)
	data := previewData(t, w)
	require.Contains(t, data["svg"], "A-->B")
}

func TestPreviewSourceEditRerenders(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPut, "/api/v1/diagrams/diag-1/preview/source",
		gin.H{"source": "flowchart TD\n  X-->Y"})
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/preview", nil)
		data := previewData(t, w)
		svg, _ := data["svg"].(string)
		return data["state"] == "rendered" && bytes.Contains([]byte(svg), []byte("X--"))
	}, time.Second, 10*time.Millisecond)
}

func TestPreviewControlsRerenderImmediately(t *testing.T) {
	f := newFixture(t)

	// seed the session
	f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/preview", nil)
	require.Eventually(t, func() bool { return f.compiler.count() >= 1 }, time.Second, 5*time.Millisecond)
	before := f.compiler.count()

	w := f.do(t, http.MethodPut, "/api/v1/diagrams/diag-1/preview/controls",
		gin.H{"direction": "LR"})
	require.Equal(t, http.StatusAccepted, w.Code)

	require.Eventually(t, func() bool {
		return f.compiler.count() > before
	}, time.Second, 5*time.Millisecond)
}

func TestPreviewZoomValidation(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/diagrams/diag-1/preview/zoom", gin.H{"action": "sideways"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodPost, "/api/v1/diagrams/diag-1/preview/zoom", gin.H{"action": "in"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestPreviewUnknownDiagram(t *testing.T) {
	f := newFixture(t)
	w := f.do(t, http.MethodGet, "/api/v1/diagrams/missing/preview", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDownloadSource(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/export/mmd", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "flowchart TD\n  A-->B\n", w.Body.String())
	require.Contains(t, w.Header().Get("Content-Disposition"), "Checkout-Flow-")
	require.Contains(t, w.Header().Get("Content-Disposition"), ".mmd")
}

func TestDownloadSVGRequiresRenderedSurface(t *testing.T) {
	f := newFixture(t)

	// nothing rendered yet for this user's session
	w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/export/svg", nil)
	require.Equal(t, http.StatusConflict, w.Code)

	f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/preview", nil)
	require.Eventually(t, func() bool {
		w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/preview", nil)
		return previewData(t, w)["state"] == "rendered"
	}, time.Second, 10*time.Millisecond)

	w = f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/export/svg", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "xmlns=")
}

func TestThumbnailCached(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/thumbnail", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
	renders := f.compiler.count()

	w = f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/thumbnail", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, renders, f.compiler.count())
}

func TestThumbnailRenderIDsUnique(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/thumbnail", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// change the stored source so the cache misses and a second render runs
	f.store.mu.Lock()
	f.store.byID["diag-1"].Source = "flowchart TD\n  X-->Y"
	f.store.mu.Unlock()

	w = f.do(t, http.MethodGet, "/api/v1/diagrams/diag-1/thumbnail", nil)
	require.Equal(t, http.StatusOK, w.Code)

	ids := f.compiler.renderIDs()
	require.Len(t, ids, 2)
	require.NotEqual(t, ids[0], ids[1])
	require.Contains(t, ids[0], "thumb-diag-1-")
	require.Contains(t, ids[1], "thumb-diag-1-")
}
