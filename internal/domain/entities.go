package domain

import (
	"fmt"
	"time"
)

// DefaultAuctionName is the label shown when no on-chain name is available.
const DefaultAuctionName = "Leilão selecionado"

// AuctionTypeLabels maps on-chain auction type indexes to display labels.
var AuctionTypeLabels = []string{"Item off-chain", "NFT (ERC721)"}

const (
	AuctionTypeOffChain = 0
	AuctionTypeNFT      = 1
	// AuctionTypeUnknown marks a type index that could not be read.
	AuctionTypeUnknown = -1
)

// AuctionTypeLabel resolves a type index to its display label. A negative
// index means the read failed.
func AuctionTypeLabel(index int) string {
	if index < 0 {
		return "Tipo desconhecido"
	}
	if index < len(AuctionTypeLabels) {
		return AuctionTypeLabels[index]
	}
	return fmt.Sprintf("Tipo %d", index)
}

// ControlState carries the enablement of the detail page affordances, derived
// on every reconciliation pass.
type ControlState struct {
	Bid      bool `json:"bid"`
	Withdraw bool `json:"withdraw"`
	End      bool `json:"end"`
	Refresh  bool `json:"refresh"`
}

// AuctionViewState is the display snapshot for one auction. It is rebuilt
// wholesale by each reconciliation pass; unavailable fields hold their
// fallback display values ("-", false, generic labels).
type AuctionViewState struct {
	Address       string       `json:"address"`
	Name          string       `json:"name"`
	TypeIndex     int          `json:"type_index"`
	TypeLabel     string       `json:"type_label"`
	HighestBid    string       `json:"highest_bid"`
	HighestBidder string       `json:"highest_bidder"`
	Beneficiary   string       `json:"beneficiary"`
	EndTime       int64        `json:"end_time"`
	EndTimeText   string       `json:"end_time_text"`
	Ended         bool         `json:"ended"`
	Status        string       `json:"status"`
	Description   string       `json:"description"`
	Message       string       `json:"message,omitempty"`
	Controls      ControlState `json:"controls"`
}

// AuctionSummary is the lightweight projection used by the explorer list.
type AuctionSummary struct {
	Address   string `json:"address"`
	Name      string `json:"name"`
	TypeLabel string `json:"type_label"`
	Ended     bool   `json:"ended"`
}

type AuctionEventType string

const (
	EventBidPlaced    AuctionEventType = "bid_placed"
	EventWithdrawn    AuctionEventType = "withdrawn"
	EventAuctionEnded AuctionEventType = "auction_ended"
)

// AuctionEvent is a ledger-emitted event as carried on the event bus.
type AuctionEvent struct {
	Type      AuctionEventType `json:"type"`
	Auction   string           `json:"auction"`
	Actor     string           `json:"actor"`
	AmountWei string           `json:"amount_wei"`
	Timestamp time.Time        `json:"timestamp"`
}

type NotificationType string

const (
	NotifyInfo    NotificationType = "info"
	NotifySuccess NotificationType = "success"
	NotifyError   NotificationType = "error"
)

// Notification is a user-facing status message pushed to session clients.
type Notification struct {
	ID   string           `json:"id"`
	Type NotificationType `json:"type"`
	Text string           `json:"text"`
}

type WalletState int

const (
	WalletDisconnected WalletState = iota
	WalletConnecting
	WalletConnected
)

func (s WalletState) String() string {
	switch s {
	case WalletDisconnected:
		return "disconnected"
	case WalletConnecting:
		return "connecting"
	case WalletConnected:
		return "connected"
	default:
		return "unknown"
	}
}
