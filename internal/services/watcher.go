package services

import (
	"context"
	"math/big"
	"sync"
	"time"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"auction-explorer/internal/chain"
	"auction-explorer/internal/domain"
	"auction-explorer/pkg/logger"
)

// AuctionWatcher binds the three auction event listeners to one contract.
type AuctionWatcher interface {
	Subscribe(address common.Address)
	Unsubscribe()
}

// EventWatcher watches BidPlaced, Withdrawn and AuctionEnded on the active
// auction contract and publishes them to the event bus. A new Subscribe
// replaces the previous listener set wholesale. Push subscriptions are
// preferred; transports without them degrade to a cancellable polling loop.
type EventWatcher struct {
	log          logger.Logger
	source       domain.LogSource
	publisher    domain.EventPublisher
	auctionABI   abi.ABI
	pollInterval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewEventWatcher(log logger.Logger, source domain.LogSource, publisher domain.EventPublisher,
	pollInterval time.Duration) (*EventWatcher, error) {
	parsed, err := chain.ParseAuctionABI()
	if err != nil {
		return nil, err
	}
	return &EventWatcher{
		log:          log,
		source:       source,
		publisher:    publisher,
		auctionABI:   parsed,
		pollInterval: pollInterval,
	}, nil
}

func (w *EventWatcher) Subscribe(address common.Address) {
	w.Unsubscribe()

	ctx, cancel := context.WithCancel(context.Background())
	w.mu.Lock()
	w.cancel = cancel
	w.mu.Unlock()

	go w.watch(ctx, address)
}

func (w *EventWatcher) Unsubscribe() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *EventWatcher) watch(ctx context.Context, address common.Address) {
	bidID := w.auctionABI.Events["BidPlaced"].ID
	withdrawnID := w.auctionABI.Events["Withdrawn"].ID
	endedID := w.auctionABI.Events["AuctionEnded"].ID

	query := ethereum.FilterQuery{
		Addresses: []common.Address{address},
		Topics:    [][]common.Hash{{bidID, withdrawnID, endedID}},
	}

	ch := make(chan types.Log, 128)
	sub, err := w.source.SubscribeFilterLogs(ctx, query, ch)
	if err != nil {
		w.log.Warn("Assinatura de eventos indisponível, usando sondagem",
			"auction", address.Hex(), "error", err)
		w.poll(ctx, query)
		return
	}
	defer sub.Unsubscribe()

	w.log.Info("Assinado aos eventos do leilão", "auction", address.Hex())
	for {
		select {
		case l := <-ch:
			w.dispatch(l)
		case err := <-sub.Err():
			if ctx.Err() != nil {
				return
			}
			// A dropped subscription must not leave the session deaf.
			w.log.Warn("Assinatura de eventos interrompida, usando sondagem",
				"auction", address.Hex(), "error", err)
			w.poll(ctx, query)
			return
		case <-ctx.Done():
			return
		}
	}
}

func (w *EventWatcher) poll(ctx context.Context, query ethereum.FilterQuery) {
	var last uint64
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pollInterval):
		}

		head, err := w.source.BlockNumber(ctx)
		if err != nil {
			w.log.Warn("Falha ao ler o bloco atual", "error", err)
			continue
		}
		if head <= last {
			continue
		}

		ranged := query
		if last > 0 {
			ranged.FromBlock = new(big.Int).SetUint64(last + 1)
		}
		ranged.ToBlock = new(big.Int).SetUint64(head)

		logs, err := w.source.FilterLogs(ctx, ranged)
		if err != nil {
			w.log.Warn("Falha ao sondar eventos", "error", err)
			continue
		}
		for _, l := range logs {
			w.dispatch(l)
		}
		last = head
	}
}

func (w *EventWatcher) dispatch(l types.Log) {
	if len(l.Topics) == 0 {
		return
	}

	var eventName string
	var eventType domain.AuctionEventType
	switch l.Topics[0] {
	case w.auctionABI.Events["BidPlaced"].ID:
		eventName, eventType = "BidPlaced", domain.EventBidPlaced
	case w.auctionABI.Events["Withdrawn"].ID:
		eventName, eventType = "Withdrawn", domain.EventWithdrawn
	case w.auctionABI.Events["AuctionEnded"].ID:
		eventName, eventType = "AuctionEnded", domain.EventAuctionEnded
	default:
		return
	}

	values, err := w.auctionABI.Events[eventName].Inputs.Unpack(l.Data)
	if err != nil || len(values) < 2 {
		w.log.Warn("Falha ao decodificar evento", "event", eventName, "error", err)
		return
	}
	actor, ok := values[0].(common.Address)
	if !ok {
		return
	}
	amount, ok := values[1].(*big.Int)
	if !ok {
		return
	}

	event := &domain.AuctionEvent{
		Type:      eventType,
		Auction:   l.Address.Hex(),
		Actor:     actor.Hex(),
		AmountWei: amount.String(),
		Timestamp: time.Now(),
	}
	if err := w.publisher.PublishAuctionEvent(context.Background(), event); err != nil {
		w.log.Error("Falha ao publicar evento do leilão", "event", eventName, "error", err)
	}
}
