package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tabmirror/backend/internal/domain/approval"
	"github.com/tabmirror/backend/internal/domain/install"
	"github.com/tabmirror/backend/internal/domain/prefs"
	"github.com/tabmirror/backend/internal/domain/registry"
	"github.com/tabmirror/backend/internal/domain/session"
	"github.com/tabmirror/backend/internal/infrastructure/logging"
	"github.com/tabmirror/backend/internal/infrastructure/monitoring"
)

// Prometheus collectors register globally; share one instance.
var testMetrics = sync.OnceValue(monitoring.NewMetrics)

func fixtureSessions() []*session.Session {
	return []*session.Session{
		{
			Tag:          "device-1",
			Name:         "Pixel",
			DeviceType:   session.DevicePhone,
			ModifiedTime: time.Unix(1700000000, 0),
			Windows: []*session.Window{
				{ID: 1, Tabs: []*session.Tab{
					{ID: 11, Navigations: []session.Navigation{
						{URL: "http://example.com", Title: "Example"},
					}},
					{ID: 12}, // no navigations, never displayed
				}},
				{ID: 2}, // empty window, never displayed
			},
		},
		{
			Tag:     "device-2",
			Name:    "Empty",
			Windows: []*session.Window{{ID: 1, Tabs: []*session.Tab{{ID: 21}}}},
		},
	}
}

func newTestRouter(t *testing.T, source session.Source) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	collapsed := prefs.NewBoolSetStore(filepath.Join(t.TempDir(), "collapsed.json"))
	helper := session.NewHelper(source, collapsed, logging.NewNop())

	packages := registry.NewManager(t.TempDir())
	flow := install.NewFlow(
		approval.NewRegistry(time.Minute),
		packages,
		logging.NewNop(),
	)

	h := NewHandlers(helper, flow, packages, testMetrics(), logging.NewNop())

	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/sessions", h.ListSessions)
	router.POST("/sessions/:tag/tabs/:id/open", h.OpenTab)
	router.DELETE("/sessions/:tag", h.DeleteSession)
	router.POST("/sync/refresh", h.RefreshSync)
	router.GET("/sync/status", h.SyncStatus)
	router.POST("/install/begin", h.BeginInstall)
	router.POST("/install/complete", h.CompleteInstall)
	router.GET("/packages", h.ListPackages)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type inactiveSource struct {
	session.StaticSource
}

func (s *inactiveSource) Active() bool { return false }

func TestListSessions(t *testing.T) {
	router := newTestRouter(t, session.NewStaticSource(fixtureSessions()))

	w := doJSON(t, router, http.MethodGet, "/sessions", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []struct {
			Tag     string `json:"tag"`
			Windows []struct {
				ID   int `json:"id"`
				Tabs []struct {
					URL string `json:"url"`
				} `json:"tabs"`
			} `json:"windows"`
		} `json:"sessions"`
		Order string `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "visual", resp.Order)
	require.Len(t, resp.Sessions, 1, "the all-empty session is filtered out")
	assert.Equal(t, "device-1", resp.Sessions[0].Tag)
	require.Len(t, resp.Sessions[0].Windows, 1)
	require.Len(t, resp.Sessions[0].Windows[0].Tabs, 1)
	assert.Equal(t, "http://example.com", resp.Sessions[0].Windows[0].Tabs[0].URL)
}

func TestListSessionsRecency(t *testing.T) {
	router := newTestRouter(t, session.NewStaticSource(fixtureSessions()))

	w := doJSON(t, router, http.MethodGet, "/sessions?order=recency", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Sessions []struct {
			Windows []struct {
				ID int `json:"id"`
			} `json:"windows"`
		} `json:"sessions"`
		Order string `json:"order"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.Equal(t, "recency", resp.Order)
	require.Len(t, resp.Sessions, 1)
	require.Len(t, resp.Sessions[0].Windows, 1, "recency mode emits one synthetic window")
	assert.Equal(t, 0, resp.Sessions[0].Windows[0].ID)
}

func TestListSessionsSyncUnavailable(t *testing.T) {
	router := newTestRouter(t, &inactiveSource{})

	w := doJSON(t, router, http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOpenTab(t *testing.T) {
	router := newTestRouter(t, session.NewStaticSource(fixtureSessions()))

	t.Run("existing tab", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions/device-1/tabs/11/open", nil)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("tab without navigations is gone", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions/device-1/tabs/12/open", nil)
		assert.Equal(t, http.StatusGone, w.Code)
	})

	t.Run("unknown tab", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions/device-1/tabs/999/open", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-integer id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/sessions/device-1/tabs/abc/open", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteSession(t *testing.T) {
	router := newTestRouter(t, session.NewStaticSource(fixtureSessions()))

	w := doJSON(t, router, http.MethodDelete, "/sessions/device-1", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodDelete, "/sessions/device-1", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestSyncEndpoints(t *testing.T) {
	router := newTestRouter(t, session.NewStaticSource(nil))

	w := doJSON(t, router, http.MethodPost, "/sync/refresh", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)

	w = doJSON(t, router, http.MethodGet, "/sync/status", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"tab_sync_enabled":true`)
}

func TestInstallFlowEndpoints(t *testing.T) {
	router := newTestRouter(t, session.NewStaticSource(nil))

	begin := map[string]interface{}{
		"principal_id": "alice",
		"manifest": map[string]interface{}{
			"item_id": "tab-themes",
			"name":    "Tab Themes",
			"version": "1.0.0",
		},
	}

	t.Run("complete before begin is a conflict", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/install/complete", map[string]interface{}{
			"principal_id": "alice",
			"item_id":      "tab-themes",
		})
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "no matching prior begin-install request")
	})

	t.Run("begin then complete installs", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/install/begin", begin)
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodPost, "/install/complete", map[string]interface{}{
			"principal_id": "alice",
			"item_id":      "tab-themes",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, router, http.MethodGet, "/packages", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "tab-themes")
	})

	t.Run("begin without manifest is rejected", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/install/begin", map[string]interface{}{
			"principal_id": "alice",
			"manifest":     map[string]interface{}{},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
