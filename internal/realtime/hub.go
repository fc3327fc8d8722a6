package realtime

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/duobet/couple-bets-platform/pkg/contracts/events"
)

var (
	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "realtime_ws_connections",
		Help: "Clientes WebSocket conectados",
	})
	wsEventsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "realtime_ws_events_sent_total",
		Help: "Total de eventos de aposta entregues via WS",
	})
)

// Hub gerencia conexões WebSocket e assinaturas de eventos de aposta
// subs: mapeia coupleID para o conjunto de conexões inscritas (com o filtro
// de status opcional de cada uma)
type Hub struct {
	upgrader websocket.Upgrader
	mu       sync.RWMutex
	// coupleID -> conn -> filtro de status ("" = todos)
	subs map[string]map[*websocket.Conn]string
}

// NewHub cria uma instância de Hub com política customizada de origem (CORS)
func NewHub(allowOrigin func(r *http.Request) bool) *Hub {
	return &Hub{
		upgrader: websocket.Upgrader{CheckOrigin: allowOrigin},
		subs:     make(map[string]map[*websocket.Conn]string),
	}
}

// HandleWS gerencia o ciclo de vida de uma conexão WebSocket
// Permite subscribe/unsubscribe por casal e responde a pings
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	wsConnections.Inc()
	defer func() {
		wsConnections.Dec()
		conn.Close()
	}()

	for {
		var msg ClientMsg
		if err := conn.ReadJSON(&msg); err != nil {
			break
		}
		switch msg.Type {
		case "subscribe":
			if msg.CoupleID == "" {
				continue
			}
			h.mu.Lock()
			if _, ok := h.subs[msg.CoupleID]; !ok {
				h.subs[msg.CoupleID] = make(map[*websocket.Conn]string)
			}
			h.subs[msg.CoupleID][conn] = msg.Status
			h.mu.Unlock()
		case "unsubscribe":
			h.mu.Lock()
			if m, ok := h.subs[msg.CoupleID]; ok {
				delete(m, conn)
				if len(m) == 0 {
					delete(h.subs, msg.CoupleID)
				}
			}
			h.mu.Unlock()
		case "ping":
			_ = conn.WriteJSON(map[string]string{"type": "pong"})
		}
	}
	// Remove a conexão de todas as assinaturas ao desconectar
	h.mu.Lock()
	for coupleID, set := range h.subs {
		delete(set, conn)
		if len(set) == 0 {
			delete(h.subs, coupleID)
		}
	}
	h.mu.Unlock()
}

// Broadcast entrega um evento de aposta às conexões inscritas no coupleID,
// respeitando o filtro de status de cada assinatura. Deletes passam por
// qualquer filtro (o cliente precisa saber que a linha sumiu).
func (h *Hub) Broadcast(e events.BetChanged) {
	h.mu.RLock()
	conns := make(map[*websocket.Conn]string, len(h.subs[e.CoupleID]))
	for c, f := range h.subs[e.CoupleID] {
		conns[c] = f
	}
	h.mu.RUnlock()
	if len(conns) == 0 {
		return
	}

	b, _ := json.Marshal(e)
	for c, filter := range conns {
		if filter != "" && e.Op != events.OpDelete && e.Status != filter {
			continue
		}
		if err := c.WriteMessage(websocket.TextMessage, b); err == nil {
			wsEventsSent.Inc()
		}
	}
}
