package websocket

import (
	"encoding/json"
	"sync"

	"auction-explorer/pkg/logger"
)

// Connection is one attached client.
type Connection interface {
	Send(message []byte) error
	Close() error
	ID() string
	SessionID() string
}

// ConnectionManager tracks which clients are attached to which page
// session and fans pushed frames out to them.
type ConnectionManager struct {
	connections map[string]map[string]Connection // sessionID -> connID -> connection
	mutex       sync.RWMutex
	log         logger.Logger
}

func NewConnectionManager(log logger.Logger) *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]map[string]Connection),
		log:         log,
	}
}

func (cm *ConnectionManager) RegisterConnection(sessionID string, conn Connection) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if cm.connections[sessionID] == nil {
		cm.connections[sessionID] = make(map[string]Connection)
	}
	cm.connections[sessionID][conn.ID()] = conn

	cm.log.Info("Conexão registrada", "session_id", sessionID, "conn_id", conn.ID())
	return nil
}

func (cm *ConnectionManager) UnregisterConnection(sessionID, connID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if sessionConns, exists := cm.connections[sessionID]; exists {
		delete(sessionConns, connID)
		if len(sessionConns) == 0 {
			delete(cm.connections, sessionID)
		}
	}

	cm.log.Info("Conexão removida", "session_id", sessionID, "conn_id", connID)
	return nil
}

func (cm *ConnectionManager) connectionsForSession(sessionID string) []Connection {
	cm.mutex.RLock()
	defer cm.mutex.RUnlock()

	var connections []Connection
	for _, conn := range cm.connections[sessionID] {
		connections = append(connections, conn)
	}
	return connections
}

// NotifySession pushes one frame to every client of the session. A failed
// send is logged and skipped; the remaining clients still receive it.
func (cm *ConnectionManager) NotifySession(sessionID string, message interface{}) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	for _, conn := range cm.connectionsForSession(sessionID) {
		if err := conn.Send(messageBytes); err != nil {
			cm.log.Error("Falha ao enviar mensagem", "session_id", sessionID,
				"conn_id", conn.ID(), "error", err)
		}
	}
	return nil
}

// CloseSession disconnects and forgets every client of the session.
func (cm *ConnectionManager) CloseSession(sessionID string) error {
	cm.mutex.Lock()
	defer cm.mutex.Unlock()

	if sessionConns, exists := cm.connections[sessionID]; exists {
		for connID, conn := range sessionConns {
			if err := conn.Close(); err != nil {
				cm.log.Error("Falha ao fechar conexão", "session_id", sessionID,
					"conn_id", connID, "error", err)
			}
		}
		delete(cm.connections, sessionID)
	}

	cm.log.Info("Conexões da sessão encerradas", "session_id", sessionID)
	return nil
}
