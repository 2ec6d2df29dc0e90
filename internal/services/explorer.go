package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"auction-explorer/internal/domain"
)

// CreateExplorerSession builds the registry page context: restores the
// wallet silently, then performs the initial registry load.
func (m *SessionManager) CreateExplorerSession(ctx context.Context) *SessionDescriptor {
	session := &Session{
		ID:        uuid.NewString(),
		Page:      PageExplorer,
		CreatedAt: time.Now(),
		busy:      make(map[string]bool),
		wallet:    m.newWallet(),
	}
	m.store(session)

	session.wallet.Restore(ctx)

	if err := m.reloadExplorer(ctx, session); err != nil {
		if errors.Is(err, ErrRegistryUnconfigured) {
			session.mu.Lock()
			session.fatal = ErrRegistryUnconfigured.Error()
			session.mu.Unlock()
		}
		m.log.Error("Falha ao carregar o registro", "session_id", session.ID, "error", err)
	}

	m.log.Info("Sessão do explorador criada", "session_id", session.ID)
	return m.describe(session)
}

// reloadExplorer re-enumerates the registry. The load holds the refresh
// guard so overlapping refreshes collapse into one.
func (m *SessionManager) reloadExplorer(ctx context.Context, session *Session) error {
	if !session.tryBegin("refresh") {
		return ErrActionInFlight
	}
	defer session.end("refresh")

	m.notify(session.ID, domain.NotifyInfo, "Carregando lista de leilões…")

	summaries, err := m.aggregator.LoadAll(ctx)
	if err != nil {
		if errors.Is(err, ErrRegistryUnconfigured) {
			m.notify(session.ID, domain.NotifyError, ErrRegistryUnconfigured.Error())
		} else {
			m.notify(session.ID, domain.NotifyError, "Não foi possível carregar os leilões do registro.")
		}
		return err
	}

	session.mu.Lock()
	session.summaries = summaries
	session.loaded = true
	session.mu.Unlock()

	message := ""
	if len(summaries) == 0 {
		message = EmptyStateMessage(0, "")
	}
	m.pushSummaries(session.ID, summaries, message)
	return nil
}

// ListAuctions filters the last successfully loaded set; it never
// re-fetches. The message distinguishes the three empty cases.
func (m *SessionManager) ListAuctions(id, query string) ([]domain.AuctionSummary, string, error) {
	session, err := m.get(id)
	if err != nil {
		return nil, "", err
	}
	if session.Page != PageExplorer {
		return nil, "", ErrPageMismatch
	}
	if err := session.blocked(); err != nil {
		return nil, "", err
	}

	session.mu.Lock()
	summaries := session.summaries
	session.mu.Unlock()

	filtered := FilterSummaries(summaries, query)
	message := ""
	if len(filtered) == 0 {
		message = EmptyStateMessage(len(summaries), query)
	}
	return filtered, message, nil
}

// RefreshAllExplorers is the periodic registry re-sync entry point.
func (m *SessionManager) RefreshAllExplorers(ctx context.Context) {
	m.mu.RLock()
	var explorers []*Session
	for _, session := range m.sessions {
		if session.Page == PageExplorer && session.fatal == "" {
			explorers = append(explorers, session)
		}
	}
	m.mu.RUnlock()

	for _, session := range explorers {
		if err := m.reloadExplorer(ctx, session); err != nil && !errors.Is(err, ErrActionInFlight) {
			m.log.Warn("Falha na atualização periódica do registro", "session_id", session.ID, "error", err)
		}
	}
}
