package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *gin.Engine) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := DefaultConfig()
	cfg.SnapshotDir = t.TempDir()

	s, err := New(cfg)
	require.NoError(t, err)
	return s, s.Router()
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func getJSON(t *testing.T, r *gin.Engine, path string, out interface{}) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if out != nil && w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), out))
	}
	return w
}

func seedMarkers(t *testing.T, r *gin.Engine) {
	t.Helper()
	// Three near the default view center, one far away.
	markers := []map[string]interface{}{
		{"lat": 39.0, "lng": -96.0, "icon": "a.png", "title": "m1"},
		{"lat": 39.01, "lng": -96.01, "icon": "b.png", "title": "m2"},
		{"lat": 39.02, "lng": -96.02, "icon": "c.png", "title": "m3"},
		{"lat": -33.0, "lng": 151.0, "icon": "d.png", "title": "far"},
	}
	w := postJSON(t, r, "/api/markers", map[string]interface{}{"markers": markers})
	require.Equal(t, http.StatusOK, w.Code)
}

const viewQuery = "zoom=4&north=50&south=30&east=-80&west=-110"

func TestAddMarkersAndQueryClusters(t *testing.T) {
	_, r := newTestServer(t)
	seedMarkers(t, r)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	w := getJSON(t, r, "/api/clusters?"+viewQuery, &fc)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	assert.Equal(t, float64(3), fc.Features[0].Properties["point_count"])
}

func TestQueryClustersBadParams(t *testing.T) {
	_, r := newTestServer(t)

	w := getJSON(t, r, "/api/clusters?zoom=abc&north=50&south=30&east=-80&west=-110", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = getJSON(t, r, "/api/clusters?zoom=4&north=50&south=30&east=-80", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestClusterSummary(t *testing.T) {
	_, r := newTestServer(t)
	seedMarkers(t, r)

	var summary struct {
		TotalMarkers    int `json:"totalMarkers"`
		NumClusters     int `json:"numClusters"`
		NumSinglePoints int `json:"numSinglePoints"`
		LargestCluster  int `json:"largestCluster"`
	}
	w := getJSON(t, r, "/api/clusters/summary?"+viewQuery, &summary)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 3, summary.TotalMarkers)
	assert.Equal(t, 1, summary.NumClusters)
	assert.Equal(t, 0, summary.NumSinglePoints)
	assert.Equal(t, 3, summary.LargestCluster)
}

func queriedClusterID(t *testing.T, r *gin.Engine) string {
	t.Helper()
	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	w := getJSON(t, r, "/api/clusters?"+viewQuery, &fc)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotEmpty(t, fc.Features)
	return fc.Features[0].Properties["cluster_id"].(string)
}

func TestSpiderExpandAndCollapse(t *testing.T) {
	_, r := newTestServer(t)
	seedMarkers(t, r)
	id := queriedClusterID(t, r)

	var state struct {
		Expanded bool   `json:"expanded"`
		Cluster  string `json:"cluster"`
		Spiders  []struct {
			Marker string `json:"marker"`
			Parent string `json:"parent"`
		} `json:"spiders"`
	}
	w := postJSON(t, r, "/api/spider/expand/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))

	assert.True(t, state.Expanded)
	assert.Equal(t, id, state.Cluster)
	assert.Len(t, state.Spiders, 3)

	// The state endpoint reports the same expansion.
	w = getJSON(t, r, "/api/spider", &state)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, state.Expanded)

	w = postJSON(t, r, "/api/spider/collapse", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	assert.False(t, state.Expanded)
}

func TestSpiderExpandUnknownCluster(t *testing.T) {
	_, r := newTestServer(t)
	seedMarkers(t, r)
	queriedClusterID(t, r)

	w := postJSON(t, r, "/api/spider/expand/no-such-cluster", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSnapshotSaveListLoad(t *testing.T) {
	s, r := newTestServer(t)
	seedMarkers(t, r)

	w := postJSON(t, r, "/api/snapshots", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var infos []struct {
		ID         string `json:"id"`
		NumMarkers int    `json:"numMarkers"`
	}
	w = getJSON(t, r, "/api/snapshots", &infos)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, infos, 1)
	assert.Equal(t, 4, infos[0].NumMarkers)

	// Loading replaces the layer contents wholesale.
	s.layer.Clear()
	assert.Empty(t, s.layer.Markers())

	w = postJSON(t, r, "/api/snapshots/load/"+infos[0].ID, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, s.layer.Markers(), 4)
}

func TestSnapshotLoadUnknownID(t *testing.T) {
	_, r := newTestServer(t)

	w := postJSON(t, r, "/api/snapshots/load/deadbeef", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSetView(t *testing.T) {
	s, r := newTestServer(t)

	w := postJSON(t, r, "/api/view", map[string]interface{}{"lat": 48.85, "lng": 2.35, "zoom": 12})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 12, s.binding.Zoom())
	assert.InDelta(t, 48.85, s.binding.Center().Lat, 1e-9)
}

func TestWebSocketEvents(t *testing.T) {
	_, r := newTestServer(t)
	seedMarkers(t, r)
	id := queriedClusterID(t, r)

	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// A cluster click forwarded over the socket expands the spider and is
	// broadcast back to every client.
	msg := fmt.Sprintf(`{"type":"clusterClick","id":"%s"}`, id)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))

	var event map[string]interface{}
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "spiderExpanded", event["type"])
	assert.Equal(t, id, event["cluster"])

	// A zoom change collapses it again.
	require.NoError(t, conn.WriteMessage(websocket.TextMessage,
		[]byte(`{"type":"viewChangeEnd","lat":39,"lng":-96,"zoom":7}`)))

	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "spiderCollapsed", event["type"])
}
