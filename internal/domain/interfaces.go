package domain

import (
	"context"
	"math/big"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// AuctionReader is the read side of a deployed auction contract handle.
type AuctionReader interface {
	Address() common.Address
	HighestBid(ctx context.Context) (*big.Int, error)
	HighestBidder(ctx context.Context) (common.Address, error)
	AuctionEndTime(ctx context.Context) (*big.Int, error)
	Beneficiary(ctx context.Context) (common.Address, error)
	Ended(ctx context.Context) (bool, error)
	AuctionType(ctx context.Context) (uint8, error)

	// HasMethod reports whether the contract interface declares the named
	// zero-argument accessor. Probing an undeclared method must not reach
	// the network.
	HasMethod(name string) bool
	CallString(ctx context.Context, name string) (string, error)
}

// PendingTx is a submitted state-mutating call awaiting confirmation.
type PendingTx interface {
	Hash() string
	Wait(ctx context.Context) error
}

// AuctionWriter is the write side of an auction contract handle, bound to a
// signing identity.
type AuctionWriter interface {
	Bid(ctx context.Context, amountWei *big.Int) (PendingTx, error)
	Withdraw(ctx context.Context) (PendingTx, error)
	EndAuction(ctx context.Context) (PendingTx, error)
}

// RegistryReader enumerates the auctions known to the registry contract.
type RegistryReader interface {
	Address() common.Address
	AuctionCount(ctx context.Context) (*big.Int, error)
	AuctionAt(ctx context.Context, index *big.Int) (common.Address, error)
}

// LogSource is the subset of the ledger client used to watch contract events.
// Implemented by ethclient.Client.
type LogSource interface {
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	BlockNumber(ctx context.Context) (uint64, error)
}

// Event bus interfaces
type EventPublisher interface {
	PublishAuctionEvent(ctx context.Context, event *AuctionEvent) error
}

type EventSubscriber interface {
	SubscribeToAuctionEvents(ctx context.Context, handler EventHandler) error
}

type EventHandler func(event *AuctionEvent) error

// SummaryCache caches explorer summaries per auction address.
type SummaryCache interface {
	GetSummary(ctx context.Context, address string) (*AuctionSummary, bool, error)
	SetSummary(ctx context.Context, summary *AuctionSummary) error
}

// SessionNotifier pushes frames to every client attached to a session.
type SessionNotifier interface {
	NotifySession(sessionID string, message interface{}) error
	CloseSession(sessionID string) error
}
