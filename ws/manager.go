// Package ws is the realtime transport: a hub of authenticated websocket
// connections that receives committed chat events and fans them out to the
// member connections named in each envelope.
package ws

import (
	"encoding/json"
	"sync"

	"gorm.io/gorm"

	"convo_backend/internal/events"
	"convo_backend/internal/logger"
	"convo_backend/internal/presence"
	chatrepo "convo_backend/internal/repositories/chat"
	chatservice "convo_backend/internal/services/chat"
)

// Deps are the services a connection needs to execute inbound actions.
type Deps struct {
	DB           *gorm.DB
	Messages     chatservice.MessageService
	Reactions    chatservice.ReactionService
	Reads        chatservice.ReadTracker
	Participants chatrepo.ParticipantRepository
	Presence     presence.Store
}

type Manager struct {
	deps Deps

	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	outbound   chan events.Envelope
	done       chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		outbound:   make(chan events.Envelope, 256),
		done:       make(chan struct{}),
	}
}

// SetDeps wires the services connections use for inbound actions. The hub
// publishes events, the services publish through the hub; two-phase setup
// breaks that cycle. Call before Run.
func (m *Manager) SetDeps(deps Deps) {
	m.deps = deps
}

// Run owns the client roster. Call it once, in its own goroutine.
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.addClient(client)
		case client := <-m.unregister:
			m.removeClient(client)
		case envelope := <-m.outbound:
			m.deliver(envelope)
		case <-m.done:
			m.closeAll()
			return
		}
	}
}

func (m *Manager) Shutdown() {
	close(m.done)
}

// Publish implements events.Publisher. A full outbound buffer drops the
// event instead of stalling the committing request; connected clients will
// resync over HTTP.
func (m *Manager) Publish(envelope events.Envelope) {
	select {
	case m.outbound <- envelope:
	default:
		logger.Warn("ws outbound buffer full, dropping event",
			"event_type", envelope.Type,
			"conversation_id", envelope.ConversationID)
	}
}

func (m *Manager) addClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.clients[client.userID]
	if !ok {
		conns = make(map[*Client]struct{})
		m.clients[client.userID] = conns
	}
	conns[client] = struct{}{}
	logger.Debug("ws client connected", "user_id", client.userID, "connections", len(conns))
}

func (m *Manager) removeClient(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	conns, ok := m.clients[client.userID]
	if !ok {
		return
	}
	if _, ok := conns[client]; !ok {
		return
	}
	delete(conns, client)
	close(client.send)
	if len(conns) == 0 {
		delete(m.clients, client.userID)
	}
	logger.Debug("ws client disconnected", "user_id", client.userID)
}

func (m *Manager) deliver(envelope events.Envelope) {
	frame, err := json.Marshal(envelope)
	if err != nil {
		logger.WithError(err).Error("failed to marshal ws frame")
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, userID := range envelope.Recipients {
		for client := range m.clients[userID] {
			select {
			case client.send <- frame:
			default:
				// Slow reader; drop the frame rather than block the hub.
			}
		}
	}
}

func (m *Manager) closeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, conns := range m.clients {
		for client := range conns {
			close(client.send)
		}
	}
	m.clients = make(map[string]map[*Client]struct{})
}

// ConnectedUsers reports how many distinct users hold at least one open
// connection.
func (m *Manager) ConnectedUsers() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}
