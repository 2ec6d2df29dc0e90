package websocket

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"auction-explorer/pkg/logger"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins in development
	},
}

// SessionChecker answers whether a page session exists before a client may
// attach to it.
type SessionChecker interface {
	Has(sessionID string) bool
}

type WebSocketHandler struct {
	sessions    SessionChecker
	connManager *ConnectionManager
	log         logger.Logger
}

func NewWebSocketHandler(sessions SessionChecker, connManager *ConnectionManager, log logger.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		sessions:    sessions,
		connManager: connManager,
		log:         log,
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["sessionID"]

	if sessionID == "" || !h.sessions.Has(sessionID) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Falha ao atualizar conexão", "error", err)
		return
	}

	wsConn := NewWebSocketConnection(conn, uuid.NewString(), sessionID)

	if err := h.connManager.RegisterConnection(sessionID, wsConn); err != nil {
		h.log.Error("Falha ao registrar conexão", "error", err)
		conn.Close()
		return
	}

	go h.handleMessages(wsConn, sessionID)
}

func (h *WebSocketHandler) handleMessages(conn *WebSocketConnection, sessionID string) {
	defer func() {
		h.connManager.UnregisterConnection(sessionID, conn.ID())
		conn.Close()
	}()

	for {
		var msg map[string]interface{}
		if err := conn.conn.ReadJSON(&msg); err != nil {
			h.log.Debug("Conexão de leitura encerrada", "session_id", sessionID, "error", err)
			break
		}

		msgType, ok := msg["type"].(string)
		if !ok {
			continue
		}

		if msgType == "ping" {
			conn.SendJSON(map[string]string{"type": "pong"})
		}
	}
}

type WebSocketConnection struct {
	conn      *websocket.Conn
	id        string
	sessionID string
	writeMu   sync.Mutex
}

func NewWebSocketConnection(conn *websocket.Conn, id, sessionID string) *WebSocketConnection {
	return &WebSocketConnection{
		conn:      conn,
		id:        id,
		sessionID: sessionID,
	}
}

func (wsc *WebSocketConnection) Send(message []byte) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteMessage(websocket.TextMessage, message)
}

func (wsc *WebSocketConnection) SendJSON(message interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	return wsc.conn.WriteJSON(message)
}

func (wsc *WebSocketConnection) Close() error {
	return wsc.conn.Close()
}

func (wsc *WebSocketConnection) ID() string {
	return wsc.id
}

func (wsc *WebSocketConnection) SessionID() string {
	return wsc.sessionID
}
