// Package server exposes a clustering layer and its spider expansion engine
// over HTTP, with a websocket bridge for host map events.
package server

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"web/spidermap/cluster"
	"web/spidermap/geo"
	"web/spidermap/provider"
	"web/spidermap/snapshot"
	"web/spidermap/spider"
)

// Server hosts one clustering layer and its spider engine. The engine is
// single-owner and all handlers run synchronously, so every entry point from
// a request or websocket goroutine takes mu before touching it.
type Server struct {
	mu      sync.Mutex
	cfg     Config
	binding provider.Binding
	layer   *cluster.Layer
	engine  *spider.Engine
	hub     *Hub

	// lastClusters indexes the most recent viewport query so expand
	// requests can reference a cluster by id.
	lastClusters map[string]*cluster.Cluster
}

// New builds a server from config: binding, layer, spider engine, event hub.
func New(cfg Config) (*Server, error) {
	binding := provider.ForKind(provider.KindFromString(cfg.Provider))
	binding.SetView(geo.LatLng{Lat: cfg.View.Lat, Lng: cfg.View.Lng}, cfg.View.Zoom)

	layer := cluster.NewLayer(binding, cluster.Options{
		Radius:    cfg.Cluster.Radius,
		MinPoints: cfg.Cluster.MinPoints,
		Extent:    cfg.Cluster.Extent,
		Log:       cfg.Log,
	})

	s := &Server{
		cfg:          cfg,
		binding:      binding,
		layer:        layer,
		hub:          NewHub(),
		lastClusters: make(map[string]*cluster.Cluster),
	}

	opts := cfg.Spider
	opts.MarkerSelected = func(parent provider.Marker, c *cluster.Cluster) {
		s.hub.Broadcast(gin.H{"type": "markerSelected", "marker": parent.Handle(), "cluster": c.ID})
	}
	opts.MarkerUnSelected = func() {
		s.hub.Broadcast(gin.H{"type": "spiderCollapsed"})
	}

	engine, err := spider.EnableSpiderSupport(layer, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to enable spider support: %v", err)
	}
	s.engine = engine

	return s, nil
}

// Layer returns the server's clustering layer.
func (s *Server) Layer() *cluster.Layer { return s.layer }

// Router builds the gin route table.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	// Enable CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	r.GET("/api/clusters", s.handleGetClusters)
	r.GET("/api/clusters/summary", s.handleClusterSummary)
	r.POST("/api/markers", s.handleAddMarkers)
	r.POST("/api/view", s.handleSetView)

	r.GET("/api/spider", s.handleSpiderState)
	r.POST("/api/spider/expand/:id", s.handleSpiderExpand)
	r.POST("/api/spider/collapse", s.handleSpiderCollapse)

	r.GET("/api/snapshots", s.handleListSnapshots)
	r.POST("/api/snapshots", s.handleSaveSnapshot)
	r.POST("/api/snapshots/load/:id", s.handleLoadSnapshot)

	r.GET("/ws", s.handleWebSocket)

	return r
}

// Run starts the HTTP server on the configured port.
func (s *Server) Run() error {
	return s.Router().Run(fmt.Sprintf(":%d", s.cfg.Port))
}

func queryBounds(c *gin.Context) (geo.Bounds, error) {
	north, err := strconv.ParseFloat(c.Query("north"), 64)
	if err != nil {
		return geo.Bounds{}, fmt.Errorf("invalid north parameter")
	}
	south, err := strconv.ParseFloat(c.Query("south"), 64)
	if err != nil {
		return geo.Bounds{}, fmt.Errorf("invalid south parameter")
	}
	east, err := strconv.ParseFloat(c.Query("east"), 64)
	if err != nil {
		return geo.Bounds{}, fmt.Errorf("invalid east parameter")
	}
	west, err := strconv.ParseFloat(c.Query("west"), 64)
	if err != nil {
		return geo.Bounds{}, fmt.Errorf("invalid west parameter")
	}
	return geo.Bounds{MinLat: south, MinLng: west, MaxLat: north, MaxLng: east}, nil
}

func (s *Server) queryClusters(c *gin.Context) ([]*cluster.Cluster, error) {
	zoom, err := strconv.Atoi(c.Query("zoom"))
	if err != nil {
		return nil, fmt.Errorf("invalid zoom parameter")
	}
	bounds, err := queryBounds(c)
	if err != nil {
		return nil, err
	}

	clusters := s.layer.GetClusters(bounds, zoom)

	s.lastClusters = make(map[string]*cluster.Cluster, len(clusters))
	for _, cl := range clusters {
		s.lastClusters[cl.ID] = cl
	}
	return clusters, nil
}

func (s *Server) handleGetClusters(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clusters, err := s.queryClusters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cluster.ToGeoJSON(clusters))
}

func (s *Server) handleClusterSummary(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	clusters, err := s.queryClusters(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cluster.CalculateSummary(clusters))
}

type markerRequest struct {
	Lat      float64                `json:"lat"`
	Lng      float64                `json:"lng"`
	Icon     string                 `json:"icon"`
	Title    string                 `json:"title"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (s *Server) handleAddMarkers(c *gin.Context) {
	var req struct {
		Markers []markerRequest `json:"markers"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	markers := make([]provider.Marker, len(req.Markers))
	for i, m := range req.Markers {
		pos := geo.LatLng{Lat: m.Lat, Lng: m.Lng}
		markers[i] = s.binding.CreateMarker(provider.MarkerMetadata{
			Position: &pos,
			Icon:     m.Icon,
			Title:    m.Title,
			Visible:  true,
			Metadata: m.Metadata,
		})
	}
	s.layer.AddMarkers(markers)

	c.JSON(http.StatusOK, gin.H{"added": len(markers), "total": len(s.layer.Markers())})
}

func (s *Server) handleSetView(c *gin.Context) {
	var req struct {
		Lat  float64 `json:"lat"`
		Lng  float64 `json:"lng"`
		Zoom int     `json:"zoom"`
	}
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	s.mu.Lock()
	s.binding.SetView(geo.LatLng{Lat: req.Lat, Lng: req.Lng}, req.Zoom)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"zoom": req.Zoom})
}

// spiderStateLocked reports the engine state. Callers hold mu.
func (s *Server) spiderStateLocked() gin.H {
	state := gin.H{"expanded": s.engine.Expanded()}
	if !s.engine.Expanded() {
		return state
	}

	state["cluster"] = s.engine.Current().ID
	state["anchor"] = s.engine.Current().Anchor

	spiders := make([]gin.H, 0, len(s.engine.ActiveSpiders()))
	for _, sm := range s.engine.ActiveSpiders() {
		pos, _ := sm.Marker.Position()
		spiders = append(spiders, gin.H{
			"marker":   sm.Marker.Handle(),
			"parent":   sm.Parent.Handle(),
			"position": pos,
			"stick": [][]float64{
				{s.engine.Current().Anchor.Lng, s.engine.Current().Anchor.Lat},
				{sm.Target.Lng, sm.Target.Lat},
			},
		})
	}
	state["spiders"] = spiders
	return state
}

func (s *Server) handleSpiderState(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, s.spiderStateLocked())
}

func (s *Server) handleSpiderExpand(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := c.Param("id")
	cl, ok := s.lastClusters[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("cluster %s not found in last query", id)})
		return
	}

	s.layer.ClickCluster(cl)
	if !s.engine.Expanded() || s.engine.Current().ID != cl.ID {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "cluster could not be expanded"})
		return
	}

	s.hub.Broadcast(gin.H{"type": "spiderExpanded", "cluster": cl.ID, "count": cl.Count()})
	c.JSON(http.StatusOK, s.spiderStateLocked())
}

func (s *Server) handleSpiderCollapse(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.HideSpiderCluster()
	c.JSON(http.StatusOK, s.spiderStateLocked())
}

func (s *Server) handleListSnapshots(c *gin.Context) {
	infos, err := snapshot.List(s.cfg.SnapshotDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, infos)
}

func (s *Server) handleSaveSnapshot(c *gin.Context) {
	s.mu.Lock()
	records := snapshot.RecordsFromMarkers(s.layer.Markers())
	s.mu.Unlock()

	if err := os.MkdirAll(s.cfg.SnapshotDir, 0755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	path := snapshot.GenerateFilename(s.cfg.SnapshotDir, len(records))
	if err := snapshot.SaveCompressed(path, records); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Snapshot saved", "path": path, "markers": len(records)})
}

func (s *Server) handleLoadSnapshot(c *gin.Context) {
	id := c.Param("id")
	path, err := snapshot.FindByID(s.cfg.SnapshotDir, id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}

	records, err := snapshot.LoadCompressed(path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("failed to load snapshot: %v", err)})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.HideSpiderCluster()
	s.layer.Clear()
	s.layer.AddMarkers(snapshot.MarkersFromRecords(s.binding, records))
	s.lastClusters = make(map[string]*cluster.Cluster)

	c.JSON(http.StatusOK, gin.H{"message": "Snapshot loaded", "markers": len(records)})
}
