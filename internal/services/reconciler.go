package services

import (
	"context"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"auction-explorer/internal/chain"
	"auction-explorer/internal/domain"
	"auction-explorer/pkg/logger"
)

// Reconciler produces display snapshots from fan-out contract reads.
// Passes can overlap (user refresh racing an event-triggered pass); each
// invocation takes a sequence number at call time and only the
// highest-numbered completion is applied, so a slow stale pass can never
// overwrite fresher data.
type Reconciler struct {
	log logger.Logger

	mu          sync.Mutex
	nextSeq     uint64
	lastApplied uint64
}

func NewReconciler(log logger.Logger) *Reconciler {
	return &Reconciler{log: log}
}

func (r *Reconciler) begin() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextSeq++
	return r.nextSeq
}

// Reconcile issues the primary reads concurrently, then the optional
// descriptive accessors, and merges the results into a fresh snapshot.
// Individual read failures degrade to fallback values; they never fail the
// pass. The apply callback runs inside the staleness check's critical
// section, so a slow pass that lost the race can never apply after a newer
// one. The boolean result is false when the pass was discarded.
func (r *Reconciler) Reconcile(ctx context.Context, reader domain.AuctionReader, priorName string, hasWallet bool, apply func(*domain.AuctionViewState)) bool {
	seq := r.begin()

	var (
		bidWei    *big.Int
		bidOK     bool
		bidder    common.Address
		bidderOK  bool
		endTime   *big.Int
		endOK     bool
		benef     common.Address
		benefOK   bool
		ended     bool
		endedOK   bool
		typeIndex uint8
		typeOK    bool
	)

	var wg sync.WaitGroup
	wg.Add(6)
	go func() {
		defer wg.Done()
		bidWei, bidOK = chain.Attempt(r.log, "highestBid()", func() (*big.Int, error) { return reader.HighestBid(ctx) })
	}()
	go func() {
		defer wg.Done()
		bidder, bidderOK = chain.Attempt(r.log, "highestBidder()", func() (common.Address, error) { return reader.HighestBidder(ctx) })
	}()
	go func() {
		defer wg.Done()
		endTime, endOK = chain.Attempt(r.log, "auctionEndTime()", func() (*big.Int, error) { return reader.AuctionEndTime(ctx) })
	}()
	go func() {
		defer wg.Done()
		benef, benefOK = chain.Attempt(r.log, "beneficiary()", func() (common.Address, error) { return reader.Beneficiary(ctx) })
	}()
	go func() {
		defer wg.Done()
		ended, endedOK = chain.Attempt(r.log, "ended()", func() (bool, error) { return reader.Ended(ctx) })
	}()
	go func() {
		defer wg.Done()
		typeIndex, typeOK = chain.Attempt(r.log, "auctionType()", func() (uint8, error) { return reader.AuctionType(ctx) })
	}()
	wg.Wait()

	var (
		description   string
		descriptionOK bool
		itemName      string
		itemNameOK    bool
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		description, descriptionOK = chain.ProbeOptionalString(ctx, r.log, reader, "itemDescription")
	}()
	go func() {
		defer wg.Done()
		itemName, itemNameOK = chain.ProbeOptionalString(ctx, r.log, reader, "itemName")
	}()
	wg.Wait()

	view := &domain.AuctionViewState{
		Address: reader.Address().Hex(),
		Name:    resolveName(itemName, itemNameOK, description, descriptionOK, priorName),
	}

	if bidOK {
		view.HighestBid = chain.FormatEther(bidWei)
	} else {
		view.HighestBid = "-"
	}

	if bidderOK {
		view.HighestBidder = chain.FormatAddress(bidder.Hex())
	} else {
		view.HighestBidder = chain.FormatAddress("")
	}

	if benefOK {
		view.Beneficiary = chain.FormatAddress(benef.Hex())
	} else {
		view.Beneficiary = chain.FormatAddress("")
	}

	if typeOK {
		view.TypeIndex = int(typeIndex)
	} else {
		view.TypeIndex = domain.AuctionTypeUnknown
	}
	view.TypeLabel = domain.AuctionTypeLabel(view.TypeIndex)

	if endOK && endTime != nil {
		view.EndTime = endTime.Int64()
	}
	if view.EndTime != 0 {
		view.EndTimeText = time.Unix(view.EndTime, 0).Format("02/01/2006 15:04:05")
	} else {
		view.EndTimeText = "-"
	}

	// A failed ended() read keeps the auction open rather than locking the
	// controls out.
	view.Ended = endedOK && ended
	if view.Ended {
		view.Status = "Encerrado"
	} else {
		view.Status = "Aberto"
	}

	view.Controls = domain.ControlState{
		Bid:      hasWallet && !view.Ended,
		Withdraw: hasWallet,
		End:      hasWallet && !view.Ended,
		Refresh:  true,
	}

	descriptionText := strings.TrimSpace(description)
	if view.TypeIndex == domain.AuctionTypeOffChain {
		if descriptionText != "" {
			view.Description = descriptionText
		} else {
			view.Description = "Nenhuma descrição cadastrada para este leilão."
			view.Message = "Nenhuma descrição cadastrada para este leilão."
		}
	} else {
		view.Description = "Este leilão referencia um NFT (ERC721)."
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if seq <= r.lastApplied {
		r.log.Debug("Descartando reconciliação obsoleta", "seq", seq, "auction", view.Address)
		return false
	}
	r.lastApplied = seq
	if apply != nil {
		apply(view)
	}
	return true
}

// resolveName walks the display-name fallback chain: item name, then
// description, then the previously known name, then the generic label.
// First non-empty value after trimming wins.
func resolveName(itemName string, itemNameOK bool, description string, descriptionOK bool, priorName string) string {
	if itemNameOK {
		if trimmed := strings.TrimSpace(itemName); trimmed != "" {
			return trimmed
		}
	}
	if descriptionOK {
		if trimmed := strings.TrimSpace(description); trimmed != "" {
			return trimmed
		}
	}
	if trimmed := strings.TrimSpace(priorName); trimmed != "" {
		return trimmed
	}
	return domain.DefaultAuctionName
}
