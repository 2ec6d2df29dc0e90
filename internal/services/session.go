package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"auction-explorer/internal/domain"
	"auction-explorer/pkg/logger"
)

const (
	PageExplorer = "explorer"
	PageDetail   = "detail"
)

var (
	ErrSessionNotFound = errors.New("sessão não encontrada")
	ErrActionInFlight  = errors.New("Aguarde a operação em andamento.")
	ErrSessionBlocked  = errors.New("sessão bloqueada")
	ErrPageMismatch    = errors.New("operação indisponível para este tipo de página")
)

// WriterFactory derives a write-capable auction handle bound to a signer.
type WriterFactory func(address common.Address, auth *bind.TransactOpts) (domain.AuctionWriter, error)

// Session is the explicit per-page context object: every handle, timer and
// snapshot a page owns lives here, constructed on page init and torn down on
// navigation. Nothing is ambient.
type Session struct {
	ID        string
	Page      string
	CreatedAt time.Time

	mu    sync.Mutex
	fatal string
	busy  map[string]bool

	wallet Wallet

	// detail page state
	address   string
	name      string
	read      domain.AuctionReader
	write     domain.AuctionWriter
	recon     *Reconciler
	countdown *CountdownScheduler
	watcher   AuctionWatcher
	view      *domain.AuctionViewState

	// explorer page state
	summaries []domain.AuctionSummary
	loaded    bool
}

// tryBegin marks an action in flight; a second submission of the same
// action is refused until the first completes.
func (s *Session) tryBegin(action string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy[action] {
		return false
	}
	s.busy[action] = true
	return true
}

func (s *Session) end(action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.busy, action)
}

func (s *Session) blocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fatal != "" {
		return fmt.Errorf("%w: %s", ErrSessionBlocked, s.fatal)
	}
	return nil
}

// SessionDescriptor is the REST projection of a session.
type SessionDescriptor struct {
	ID      string `json:"id"`
	Page    string `json:"page"`
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
	Wallet  string `json:"wallet"`
	Account string `json:"account,omitempty"`
	Fatal   string `json:"fatal_error,omitempty"`
}

// Frame is one WebSocket push to a session's clients.
type Frame struct {
	Kind         string                   `json:"kind"`
	Notification *domain.Notification     `json:"notification,omitempty"`
	View         *domain.AuctionViewState `json:"view,omitempty"`
	Text         string                   `json:"text,omitempty"`
	Summaries    []domain.AuctionSummary  `json:"summaries,omitempty"`
	Message      string                   `json:"message,omitempty"`
}

// SessionManagerDeps collects the collaborators of the session manager.
type SessionManagerDeps struct {
	Log        logger.Logger
	Notifier   domain.SessionNotifier
	Events     domain.EventSubscriber
	Aggregator *RegistryAggregator
	NewReader  ReaderFactory
	NewWriter  WriterFactory
	NewWatcher func() AuctionWatcher
	NewWallet  func() Wallet
}

// SessionManager owns every live page session and routes bus events,
// reconciliations and client pushes to them.
type SessionManager struct {
	log        logger.Logger
	notifier   domain.SessionNotifier
	events     domain.EventSubscriber
	aggregator *RegistryAggregator
	newReader  ReaderFactory
	newWriter  WriterFactory
	newWatcher func() AuctionWatcher
	newWallet  func() Wallet

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionManager(deps SessionManagerDeps) *SessionManager {
	return &SessionManager{
		log:        deps.Log,
		notifier:   deps.Notifier,
		events:     deps.Events,
		aggregator: deps.Aggregator,
		newReader:  deps.NewReader,
		newWriter:  deps.NewWriter,
		newWatcher: deps.NewWatcher,
		newWallet:  deps.NewWallet,
	}
}

func (m *SessionManager) get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

func (m *SessionManager) store(session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = make(map[string]*Session)
	}
	m.sessions[session.ID] = session
}

// Has reports whether a session exists; used by the WebSocket endpoint.
func (m *SessionManager) Has(id string) bool {
	_, err := m.get(id)
	return err == nil
}

func (m *SessionManager) Describe(id string) (*SessionDescriptor, error) {
	session, err := m.get(id)
	if err != nil {
		return nil, err
	}
	return m.describe(session), nil
}

func (m *SessionManager) describe(session *Session) *SessionDescriptor {
	session.mu.Lock()
	defer session.mu.Unlock()
	return &SessionDescriptor{
		ID:      session.ID,
		Page:    session.Page,
		Address: session.address,
		Name:    session.name,
		Wallet:  session.wallet.State().String(),
		Account: session.wallet.AccountAddress(),
		Fatal:   session.fatal,
	}
}

// Close tears a session down: countdown cancelled, listeners removed,
// clients disconnected.
func (m *SessionManager) Close(id string) error {
	m.mu.Lock()
	session, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}

	m.teardown(session)
	m.log.Info("Sessão encerrada", "session_id", id, "page", session.Page)
	return nil
}

func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = nil
	m.mu.Unlock()

	for _, session := range sessions {
		m.teardown(session)
	}
}

func (m *SessionManager) teardown(session *Session) {
	if session.countdown != nil {
		session.countdown.Close()
	}
	if session.watcher != nil {
		session.watcher.Unsubscribe()
	}
	if err := m.notifier.CloseSession(session.ID); err != nil {
		m.log.Warn("Falha ao desconectar clientes da sessão", "session_id", session.ID, "error", err)
	}
}

func (m *SessionManager) notify(sessionID string, kind domain.NotificationType, text string) {
	frame := &Frame{
		Kind: "notification",
		Notification: &domain.Notification{
			ID:   uuid.NewString(),
			Type: kind,
			Text: text,
		},
	}
	if err := m.notifier.NotifySession(sessionID, frame); err != nil {
		m.log.Warn("Falha ao notificar sessão", "session_id", sessionID, "error", err)
	}
}

func (m *SessionManager) pushSnapshot(sessionID string, view *domain.AuctionViewState) {
	if err := m.notifier.NotifySession(sessionID, &Frame{Kind: "snapshot", View: view}); err != nil {
		m.log.Warn("Falha ao enviar snapshot", "session_id", sessionID, "error", err)
	}
}

func (m *SessionManager) pushCountdown(sessionID, text string) {
	if err := m.notifier.NotifySession(sessionID, &Frame{Kind: "countdown", Text: text}); err != nil {
		m.log.Warn("Falha ao enviar contagem regressiva", "session_id", sessionID, "error", err)
	}
}

func (m *SessionManager) pushSummaries(sessionID string, summaries []domain.AuctionSummary, message string) {
	frame := &Frame{Kind: "summaries", Summaries: summaries, Message: message}
	if err := m.notifier.NotifySession(sessionID, frame); err != nil {
		m.log.Warn("Falha ao enviar lista de leilões", "session_id", sessionID, "error", err)
	}
}

// Refresh re-runs the page's load path on user request.
func (m *SessionManager) Refresh(ctx context.Context, id string) error {
	session, err := m.get(id)
	if err != nil {
		return err
	}
	if err := session.blocked(); err != nil {
		return err
	}

	switch session.Page {
	case PageDetail:
		m.notify(id, domain.NotifyInfo, "Atualizando dados…")
		m.reconcileDetail(ctx, session)
		return nil
	case PageExplorer:
		return m.reloadExplorer(ctx, session)
	default:
		return ErrPageMismatch
	}
}
