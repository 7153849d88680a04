package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"web/spidermap/geo"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans broadcast messages out to every connected websocket client.
type Hub struct {
	clients map[*websocket.Conn]bool
	mutex   sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[*websocket.Conn]bool),
	}
}

// Broadcast sends v as JSON to all connected clients, dropping any client
// whose write fails.
func (h *Hub) Broadcast(v interface{}) {
	message, err := json.Marshal(v)
	if err != nil {
		fmt.Printf("Failed to marshal broadcast message: %v\n", err)
		return
	}

	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if err := client.WriteMessage(websocket.TextMessage, message); err != nil {
			client.Close()
			delete(h.clients, client)
		}
	}
}

// clientEvent is the inbound message shape: host maps forward their raw
// interaction events here so the engine can react to them.
type clientEvent struct {
	Type string  `json:"type"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Lat  float64 `json:"lat"`
	Lng  float64 `json:"lng"`
	Zoom int     `json:"zoom"`
	ID   string  `json:"id"`
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		fmt.Printf("Failed to upgrade connection: %v\n", err)
		return
	}
	defer conn.Close()

	s.hub.mutex.Lock()
	s.hub.clients[conn] = true
	s.hub.mutex.Unlock()

	defer func() {
		s.hub.mutex.Lock()
		delete(s.hub.clients, conn)
		s.hub.mutex.Unlock()
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var event clientEvent
		if err := json.Unmarshal(message, &event); err != nil {
			if s.cfg.Log {
				fmt.Printf("Failed to parse client message: %v\n", err)
			}
			continue
		}

		s.dispatchClientEvent(event)
	}
}

// dispatchClientEvent feeds a forwarded host event into the binding. The
// binding fans it out to the engine's subscriptions.
func (s *Server) dispatchClientEvent(event clientEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch event.Type {
	case "mapClick":
		s.binding.DispatchMapClick(geo.Point{X: event.X, Y: event.Y})
	case "viewChangeStart":
		s.binding.DispatchViewChangeStart()
	case "viewChangeEnd":
		// SetView fires view-change-start and -end itself, matching the
		// vendor SDK ordering the engine subscribes to.
		s.binding.SetView(geo.LatLng{Lat: event.Lat, Lng: event.Lng}, event.Zoom)
	case "clusterClick":
		if cl, ok := s.lastClusters[event.ID]; ok {
			s.layer.ClickCluster(cl)
			if s.engine.Expanded() && s.engine.Current().ID == cl.ID {
				s.hub.Broadcast(gin.H{"type": "spiderExpanded", "cluster": cl.ID, "count": cl.Count()})
			}
		}
	default:
		if s.cfg.Log {
			fmt.Printf("Unknown client event type: %s\n", event.Type)
		}
	}
}
