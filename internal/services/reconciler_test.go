package services

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"auction-explorer/internal/domain"
)

var testAuctionAddr = common.HexToAddress("0x00000000000000000000000000000000000000aa")

func reconcileOnce(t *testing.T, recon *Reconciler, reader domain.AuctionReader, priorName string, hasWallet bool) *domain.AuctionViewState {
	t.Helper()
	var view *domain.AuctionViewState
	applied := recon.Reconcile(context.Background(), reader, priorName, hasWallet, func(v *domain.AuctionViewState) {
		view = v
	})
	require.True(t, applied)
	require.NotNil(t, view)
	return view
}

func TestReconcileHealthyAuction(t *testing.T) {
	endTime := time.Date(2026, 3, 15, 18, 30, 0, 0, time.Local)

	reader := newStubReader(testAuctionAddr)
	reader.highestBid = func() (*big.Int, error) { return big.NewInt(1500000000000000000), nil }
	reader.highestBidder = func() (common.Address, error) {
		return common.HexToAddress("0x00000000000000000000000000000000000000bb"), nil
	}
	reader.endTime = func() (*big.Int, error) { return big.NewInt(endTime.Unix()), nil }
	reader.auctionType = func() (uint8, error) { return 1, nil }

	view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, "", false)

	require.Equal(t, testAuctionAddr.Hex(), view.Address)
	require.Equal(t, "1.5", view.HighestBid)
	require.Equal(t, "0x0000…00bb", view.HighestBidder)
	require.Equal(t, 1, view.TypeIndex)
	require.Equal(t, "NFT (ERC721)", view.TypeLabel)
	require.Equal(t, endTime.Unix(), view.EndTime)
	require.Equal(t, "15/03/2026 18:30:00", view.EndTimeText)
	require.False(t, view.Ended)
	require.Equal(t, "Aberto", view.Status)
	require.Equal(t, "Este leilão referencia um NFT (ERC721).", view.Description)
}

func TestReconcileSingleFailureDegradesOneField(t *testing.T) {
	reader := newStubReader(testAuctionAddr)
	reader.highestBid = func() (*big.Int, error) { return nil, errors.New("rpc timeout") }
	reader.endTime = func() (*big.Int, error) { return big.NewInt(time.Now().Add(time.Hour).Unix()), nil }

	view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, "", false)

	require.Equal(t, "-", view.HighestBid)
	require.NotEqual(t, "-", view.EndTimeText, "other fields keep their values")
	require.Equal(t, "Aberto", view.Status)
}

func TestReconcileEndedReadFailsOpen(t *testing.T) {
	reader := newStubReader(testAuctionAddr)
	reader.ended = func() (bool, error) { return true, errors.New("rpc timeout") }

	view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, "", true)

	require.False(t, view.Ended)
	require.Equal(t, "Aberto", view.Status)
	require.True(t, view.Controls.Bid)
	require.True(t, view.Controls.End)
}

func TestReconcileTypeReadFailure(t *testing.T) {
	reader := newStubReader(testAuctionAddr)
	reader.auctionType = func() (uint8, error) { return 0, errors.New("rpc timeout") }

	view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, "", false)

	require.Equal(t, domain.AuctionTypeUnknown, view.TypeIndex)
	require.Equal(t, "Tipo desconhecido", view.TypeLabel)
}

func TestReconcileNameFallbackChain(t *testing.T) {
	tests := []struct {
		name        string
		itemName    string
		hasItemName bool
		description string
		hasDesc     bool
		priorName   string
		want        string
	}{
		{"item name wins", "Violão", true, "Descrição", true, "Anterior", "Violão"},
		{"blank item name falls to description", "   ", true, "Descrição", true, "Anterior", "Descrição"},
		{"no optional accessors keeps prior", "", false, "", false, "Anterior", "Anterior"},
		{"everything empty uses generic label", "", false, "", false, "  ", domain.DefaultAuctionName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newStubReader(testAuctionAddr)
			if tt.hasItemName {
				reader.optional["itemName"] = tt.itemName
			}
			if tt.hasDesc {
				reader.optional["itemDescription"] = tt.description
			}

			view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, tt.priorName, false)
			require.Equal(t, tt.want, view.Name)
		})
	}
}

func TestReconcileControlDerivation(t *testing.T) {
	tests := []struct {
		name      string
		hasWallet bool
		ended     bool
		want      domain.ControlState
	}{
		{"no wallet open", false, false, domain.ControlState{Refresh: true}},
		{"no wallet ended", false, true, domain.ControlState{Refresh: true}},
		{"wallet open", true, false, domain.ControlState{Bid: true, Withdraw: true, End: true, Refresh: true}},
		{"wallet ended keeps withdraw only", true, true, domain.ControlState{Withdraw: true, Refresh: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := newStubReader(testAuctionAddr)
			ended := tt.ended
			reader.ended = func() (bool, error) { return ended, nil }

			view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, "", tt.hasWallet)
			require.Equal(t, tt.want, view.Controls)
		})
	}
}

func TestReconcileOffChainDescription(t *testing.T) {
	reader := newStubReader(testAuctionAddr)
	reader.optional["itemDescription"] = "Uma guitarra de 1978."

	view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, "", false)
	require.Equal(t, "Uma guitarra de 1978.", view.Description)
	require.Empty(t, view.Message)
}

func TestReconcileOffChainWithoutDescription(t *testing.T) {
	reader := newStubReader(testAuctionAddr)

	view := reconcileOnce(t, NewReconciler(nopLogger{}), reader, "", false)
	require.Equal(t, "Nenhuma descrição cadastrada para este leilão.", view.Description)
	require.Equal(t, "Nenhuma descrição cadastrada para este leilão.", view.Message)
}

func TestReconcileDiscardsStalePass(t *testing.T) {
	reader := newStubReader(testAuctionAddr)

	var calls int32
	release := make(chan struct{})
	reader.highestBid = func() (*big.Int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release
		}
		return big.NewInt(0), nil
	}

	recon := NewReconciler(nopLogger{})

	stale := make(chan bool, 1)
	staleApplies := make(chan struct{}, 1)
	go func() {
		stale <- recon.Reconcile(context.Background(), reader, "", false, func(*domain.AuctionViewState) {
			staleApplies <- struct{}{}
		})
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, time.Millisecond, "first pass must start before the second")

	applied := recon.Reconcile(context.Background(), reader, "", false, nil)
	require.True(t, applied, "the newer pass applies")

	close(release)
	require.False(t, <-stale, "the older pass is discarded")
	require.Empty(t, staleApplies, "the older pass never runs its application")
}

// A pass that loses the race applies nothing: the application callback runs
// inside the staleness check, so the last applied view is always the one
// from the highest-numbered pass.
func TestReconcileAppliesInSequenceOrder(t *testing.T) {
	reader := newStubReader(testAuctionAddr)

	var calls int32
	release := make(chan struct{})
	reader.highestBid = func() (*big.Int, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			<-release
			return big.NewInt(1), nil
		}
		return big.NewInt(2), nil
	}

	recon := NewReconciler(nopLogger{})

	var lastApplied atomic.Value
	apply := func(view *domain.AuctionViewState) {
		lastApplied.Store(view.HighestBid)
	}

	done := make(chan struct{})
	go func() {
		recon.Reconcile(context.Background(), reader, "", false, apply)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return atomic.LoadInt32(&calls) >= 1
	}, time.Second, time.Millisecond)

	require.True(t, recon.Reconcile(context.Background(), reader, "", false, apply))

	close(release)
	<-done

	require.Equal(t, "0.000000000000000002", lastApplied.Load(),
		"the fresh pass's view is never overwritten by the slow stale one")
}
