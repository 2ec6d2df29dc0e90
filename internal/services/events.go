package services

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"auction-explorer/internal/chain"
	"auction-explorer/internal/domain"
)

// Run consumes the auction event bus until the context ends, retrying the
// subscription after transient failures.
func (m *SessionManager) Run(ctx context.Context) {
	go func() {
		for {
			err := m.events.SubscribeToAuctionEvents(ctx, m.handleEvent)
			if ctx.Err() != nil {
				return
			}
			m.log.Error("Assinatura do barramento de eventos interrompida", "error", err)
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				return
			}
		}
	}()
}

// handleEvent fans a ledger event out to every detail session watching that
// auction: a notification always, a reconciliation pass for bids and
// endings. Withdrawals notify only; pending balances are not in the view
// model, so a re-read would change nothing.
func (m *SessionManager) handleEvent(event *domain.AuctionEvent) error {
	normalized, ok := chain.NormalizeAddress(event.Auction)
	if !ok {
		return fmt.Errorf("evento com endereço inválido: %s", event.Auction)
	}

	text := eventText(event)
	if text == "" {
		return fmt.Errorf("evento de tipo desconhecido: %s", event.Type)
	}

	m.mu.RLock()
	var watching []*Session
	for _, session := range m.sessions {
		if session.Page == PageDetail && session.address == normalized {
			watching = append(watching, session)
		}
	}
	m.mu.RUnlock()

	for _, session := range watching {
		m.notify(session.ID, domain.NotifyInfo, text)
		if event.Type != domain.EventWithdrawn {
			go m.reconcileDetail(context.Background(), session)
		}
	}
	return nil
}

func eventText(event *domain.AuctionEvent) string {
	amount, ok := new(big.Int).SetString(event.AmountWei, 10)
	if !ok {
		amount = big.NewInt(0)
	}
	actor := chain.FormatAddress(event.Actor)
	ether := chain.FormatEther(amount)

	switch event.Type {
	case domain.EventBidPlaced:
		return fmt.Sprintf("Novo lance de %s (%s ETH).", actor, ether)
	case domain.EventWithdrawn:
		return fmt.Sprintf("%s retirou %s ETH de saldo pendente.", actor, ether)
	case domain.EventAuctionEnded:
		return fmt.Sprintf("Leilão encerrado. Vencedor: %s (%s ETH).", actor, ether)
	default:
		return ""
	}
}
