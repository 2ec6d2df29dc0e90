package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"

	"auction-explorer/internal/chain"
	"auction-explorer/internal/domain"
)

// CreateDetailSession builds the per-page context for one auction: read
// handle, countdown, event listeners and an initial reconciliation pass. An
// invalid address yields a blocked session carrying the fatal message
// instead of an error, mirroring the page that renders but refuses actions.
func (m *SessionManager) CreateDetailSession(ctx context.Context, rawAddress, providedName string) *SessionDescriptor {
	session := &Session{
		ID:        uuid.NewString(),
		Page:      PageDetail,
		CreatedAt: time.Now(),
		busy:      make(map[string]bool),
		wallet:    m.newWallet(),
		name:      domain.DefaultAuctionName,
	}
	if trimmed := strings.TrimSpace(providedName); trimmed != "" {
		session.name = trimmed
	}

	normalized, ok := chain.NormalizeAddress(rawAddress)
	if !ok {
		session.fatal = "Informe o endereço do leilão pela URL (parâmetro address)."
		m.store(session)
		m.log.Warn("Sessão de detalhe sem endereço válido", "session_id", session.ID, "address", rawAddress)
		return m.describe(session)
	}
	session.address = normalized

	reader, err := m.newReader(common.HexToAddress(normalized))
	if err != nil {
		session.fatal = "Não foi possível preparar o contrato para leitura."
		m.store(session)
		m.log.Error("Falha ao preparar contrato de leitura", "session_id", session.ID, "error", err)
		return m.describe(session)
	}
	session.read = reader
	session.recon = NewReconciler(m.log)
	session.countdown = NewCountdownScheduler(m.log, func(text string) {
		m.pushCountdown(session.ID, text)
	})
	session.watcher = m.newWatcher()
	session.view = initialViewState(session.address, session.name)
	m.store(session)

	session.watcher.Subscribe(common.HexToAddress(normalized))

	if auth := session.wallet.Restore(ctx); auth != nil {
		if writer, err := m.newWriter(common.HexToAddress(normalized), auth); err != nil {
			m.log.Warn("Falha ao derivar contrato de escrita", "session_id", session.ID, "error", err)
			session.wallet.Disconnect()
		} else {
			session.mu.Lock()
			session.write = writer
			session.mu.Unlock()
		}
	}

	m.reconcileDetail(ctx, session)
	m.log.Info("Sessão de detalhe criada", "session_id", session.ID, "auction", normalized)
	return m.describe(session)
}

// View returns the most recently applied snapshot.
func (m *SessionManager) View(id string) (*domain.AuctionViewState, error) {
	session, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if session.Page != PageDetail {
		return nil, ErrPageMismatch
	}
	if err := session.blocked(); err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.view, nil
}

// Connect binds the signing identity to the session. On failure the write
// handle is dropped, the disconnected view is restored, the listeners are
// rebound and a read-only pass still runs.
func (m *SessionManager) Connect(ctx context.Context, id string) (*SessionDescriptor, error) {
	session, err := m.get(id)
	if err != nil {
		return nil, err
	}
	if err := session.blocked(); err != nil {
		return nil, err
	}
	if !session.tryBegin("connect") {
		return nil, ErrActionInFlight
	}
	defer session.end("connect")

	auth, connectErr := session.wallet.Connect(ctx)
	if session.Page == PageExplorer {
		if connectErr != nil {
			m.notify(id, domain.NotifyError, "Não foi possível conectar a carteira.")
			return nil, fmt.Errorf("não foi possível conectar a carteira: %w", connectErr)
		}
		m.notify(id, domain.NotifySuccess, "Carteira conectada. Clique em 'Ver detalhes' para abrir o leilão.")
		return m.describe(session), nil
	}

	if connectErr != nil {
		session.mu.Lock()
		session.write = nil
		session.view = initialViewState(session.address, session.name)
		address := session.address
		session.mu.Unlock()

		m.notify(id, domain.NotifyError, "Não foi possível conectar a carteira.")
		session.watcher.Subscribe(common.HexToAddress(address))
		m.reconcileDetail(ctx, session)
		return nil, fmt.Errorf("não foi possível conectar a carteira: %w", connectErr)
	}

	session.mu.Lock()
	address := session.address
	session.mu.Unlock()

	writer, err := m.newWriter(common.HexToAddress(address), auth)
	if err != nil {
		session.wallet.Disconnect()
		m.notify(id, domain.NotifyError, "Não foi possível conectar a carteira.")
		return nil, fmt.Errorf("não foi possível derivar o contrato de escrita: %w", err)
	}

	session.mu.Lock()
	session.write = writer
	session.mu.Unlock()

	m.notify(id, domain.NotifySuccess, "Carteira conectada com sucesso.")
	m.reconcileDetail(ctx, session)
	return m.describe(session), nil
}

// PlaceBid submits a bid for the given ether-denominated amount and waits
// for confirmation before re-reconciling.
func (m *SessionManager) PlaceBid(ctx context.Context, id, amount string) error {
	session, err := m.get(id)
	if err != nil {
		return err
	}
	if session.Page != PageDetail {
		return ErrPageMismatch
	}
	if err := session.blocked(); err != nil {
		return err
	}
	if !session.tryBegin("bid") {
		return ErrActionInFlight
	}
	defer session.end("bid")

	writer := session.currentWriter()
	if writer == nil {
		return chain.ErrNoSigner
	}

	if strings.TrimSpace(amount) == "" {
		return fmt.Errorf("Digite um valor em ETH.")
	}
	wei, err := chain.ParseEther(amount)
	if err != nil {
		return fmt.Errorf("Digite um valor em ETH.")
	}

	tx, err := writer.Bid(ctx, wei)
	if err != nil {
		m.notify(id, domain.NotifyError, actionErrorText(err, "Erro ao enviar o lance."))
		return fmt.Errorf("erro ao enviar o lance: %w", err)
	}

	m.notify(id, domain.NotifyInfo, "Lance enviado. Aguardando confirmação…")
	if err := tx.Wait(ctx); err != nil {
		m.notify(id, domain.NotifyError, actionErrorText(err, "Erro ao enviar o lance."))
		return fmt.Errorf("erro ao enviar o lance: %w", err)
	}

	m.notify(id, domain.NotifySuccess, "Lance confirmado!")
	m.reconcileDetail(ctx, session)
	return nil
}

// Withdraw pulls the caller's pending balance. It stays available after the
// auction ends and does not trigger a reconciliation: pending balances are
// not part of the view model.
func (m *SessionManager) Withdraw(ctx context.Context, id string) error {
	session, err := m.get(id)
	if err != nil {
		return err
	}
	if session.Page != PageDetail {
		return ErrPageMismatch
	}
	if err := session.blocked(); err != nil {
		return err
	}
	if !session.tryBegin("withdraw") {
		return ErrActionInFlight
	}
	defer session.end("withdraw")

	writer := session.currentWriter()
	if writer == nil {
		return chain.ErrNoSigner
	}

	tx, err := writer.Withdraw(ctx)
	if err != nil {
		m.notify(id, domain.NotifyError, actionErrorText(err, "Erro ao retirar valores."))
		return fmt.Errorf("erro ao retirar valores: %w", err)
	}

	m.notify(id, domain.NotifyInfo, "Solicitando retirada…")
	if err := tx.Wait(ctx); err != nil {
		m.notify(id, domain.NotifyError, actionErrorText(err, "Erro ao retirar valores."))
		return fmt.Errorf("erro ao retirar valores: %w", err)
	}

	m.notify(id, domain.NotifySuccess, "Valor retirado com sucesso!")
	return nil
}

// EndAuction settles the auction and re-reconciles on confirmation.
func (m *SessionManager) EndAuction(ctx context.Context, id string) error {
	session, err := m.get(id)
	if err != nil {
		return err
	}
	if session.Page != PageDetail {
		return ErrPageMismatch
	}
	if err := session.blocked(); err != nil {
		return err
	}
	if !session.tryBegin("end") {
		return ErrActionInFlight
	}
	defer session.end("end")

	writer := session.currentWriter()
	if writer == nil {
		return chain.ErrNoSigner
	}

	tx, err := writer.EndAuction(ctx)
	if err != nil {
		m.notify(id, domain.NotifyError, actionErrorText(err, "Erro ao encerrar o leilão."))
		return fmt.Errorf("erro ao encerrar o leilão: %w", err)
	}

	m.notify(id, domain.NotifyInfo, "Encerrando leilão…")
	if err := tx.Wait(ctx); err != nil {
		m.notify(id, domain.NotifyError, actionErrorText(err, "Erro ao encerrar o leilão."))
		return fmt.Errorf("erro ao encerrar o leilão: %w", err)
	}

	m.notify(id, domain.NotifySuccess, "Leilão encerrado!")
	m.reconcileDetail(ctx, session)
	return nil
}

// reconcileDetail runs one pass and, when it applies, overwrites the
// snapshot, restarts the countdown and pushes the result. The application
// runs inside the reconciler's staleness check, so overlapping passes apply
// in sequence order and a stale one is discarded wholesale.
func (m *SessionManager) reconcileDetail(ctx context.Context, session *Session) {
	session.mu.Lock()
	reader := session.read
	priorName := session.name
	hasWallet := session.write != nil
	session.mu.Unlock()

	if reader == nil {
		return
	}

	session.recon.Reconcile(ctx, reader, priorName, hasWallet, func(view *domain.AuctionViewState) {
		session.mu.Lock()
		session.view = view
		session.name = view.Name
		session.mu.Unlock()

		session.countdown.Start(view.EndTime, view.Ended)
		m.pushSnapshot(session.ID, view)
	})
}

func (s *Session) currentWriter() domain.AuctionWriter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write
}

// initialViewState is the disconnected placeholder rendered before the
// first successful pass.
func initialViewState(address, name string) *domain.AuctionViewState {
	return &domain.AuctionViewState{
		Address:       address,
		Name:          name,
		TypeIndex:     domain.AuctionTypeUnknown,
		TypeLabel:     "-",
		HighestBid:    "-",
		HighestBidder: "-",
		Beneficiary:   "-",
		EndTimeText:   "-",
		Status:        "-",
		Description:   "Conecte a carteira ou utilize um provedor compatível para carregar os dados do leilão.",
		Controls:      domain.ControlState{},
	}
}

// actionErrorText prefers the underlying reason when one exists, falling
// back to the localized generic message.
func actionErrorText(err error, fallback string) string {
	if err == nil || strings.TrimSpace(err.Error()) == "" {
		return fallback
	}
	return err.Error()
}
