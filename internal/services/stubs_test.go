package services

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"auction-explorer/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

// stubReader is a contract read handle with overridable accessors. The
// constructor wires a healthy open auction; tests override single fields.
type stubReader struct {
	addr          common.Address
	highestBid    func() (*big.Int, error)
	highestBidder func() (common.Address, error)
	endTime       func() (*big.Int, error)
	beneficiary   func() (common.Address, error)
	ended         func() (bool, error)
	auctionType   func() (uint8, error)

	optional    map[string]string
	optionalErr map[string]error

	mu          sync.Mutex
	stringCalls int
}

func newStubReader(addr common.Address) *stubReader {
	return &stubReader{
		addr:          addr,
		highestBid:    func() (*big.Int, error) { return big.NewInt(0), nil },
		highestBidder: func() (common.Address, error) { return common.Address{}, nil },
		endTime:       func() (*big.Int, error) { return big.NewInt(0), nil },
		beneficiary:   func() (common.Address, error) { return common.Address{}, nil },
		ended:         func() (bool, error) { return false, nil },
		auctionType:   func() (uint8, error) { return 0, nil },
		optional:      map[string]string{},
		optionalErr:   map[string]error{},
	}
}

func (r *stubReader) Address() common.Address { return r.addr }

func (r *stubReader) HighestBid(ctx context.Context) (*big.Int, error) { return r.highestBid() }

func (r *stubReader) HighestBidder(ctx context.Context) (common.Address, error) {
	return r.highestBidder()
}

func (r *stubReader) AuctionEndTime(ctx context.Context) (*big.Int, error) { return r.endTime() }

func (r *stubReader) Beneficiary(ctx context.Context) (common.Address, error) {
	return r.beneficiary()
}

func (r *stubReader) Ended(ctx context.Context) (bool, error) { return r.ended() }

func (r *stubReader) AuctionType(ctx context.Context) (uint8, error) { return r.auctionType() }

func (r *stubReader) HasMethod(name string) bool {
	if _, ok := r.optional[name]; ok {
		return true
	}
	_, ok := r.optionalErr[name]
	return ok
}

func (r *stubReader) CallString(ctx context.Context, name string) (string, error) {
	r.mu.Lock()
	r.stringCalls++
	r.mu.Unlock()

	if err := r.optionalErr[name]; err != nil {
		return "", err
	}
	value, ok := r.optional[name]
	if !ok {
		return "", fmt.Errorf("method %s not declared", name)
	}
	return value, nil
}

type stubTx struct {
	hash    string
	waitErr error
}

func (t stubTx) Hash() string                   { return t.hash }
func (t stubTx) Wait(ctx context.Context) error { return t.waitErr }

type stubWriter struct {
	mu      sync.Mutex
	bids    []*big.Int
	bidErr  error
	waitErr error

	withdrawals int
	endings     int
}

func (w *stubWriter) Bid(ctx context.Context, amountWei *big.Int) (domain.PendingTx, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.bidErr != nil {
		return nil, w.bidErr
	}
	w.bids = append(w.bids, new(big.Int).Set(amountWei))
	return stubTx{hash: "0x01", waitErr: w.waitErr}, nil
}

func (w *stubWriter) Withdraw(ctx context.Context) (domain.PendingTx, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.withdrawals++
	return stubTx{hash: "0x02", waitErr: w.waitErr}, nil
}

func (w *stubWriter) EndAuction(ctx context.Context) (domain.PendingTx, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.endings++
	return stubTx{hash: "0x03", waitErr: w.waitErr}, nil
}

type stubWallet struct {
	mu          sync.Mutex
	auth        *bind.TransactOpts
	connectErr  error
	restoreAuth *bind.TransactOpts
	account     string
	state       domain.WalletState
	disconnects int
}

func (w *stubWallet) Connect(ctx context.Context) (*bind.TransactOpts, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.connectErr != nil {
		w.state = domain.WalletDisconnected
		return nil, w.connectErr
	}
	w.state = domain.WalletConnected
	return w.auth, nil
}

func (w *stubWallet) Restore(ctx context.Context) *bind.TransactOpts {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.restoreAuth != nil {
		w.state = domain.WalletConnected
	}
	return w.restoreAuth
}

func (w *stubWallet) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.disconnects++
	w.state = domain.WalletDisconnected
}

func (w *stubWallet) State() domain.WalletState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

func (w *stubWallet) AccountAddress() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != domain.WalletConnected {
		return ""
	}
	return w.account
}

type stubNotifier struct {
	mu     sync.Mutex
	frames map[string][]*Frame
	closed []string
}

func (n *stubNotifier) NotifySession(sessionID string, message interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.frames == nil {
		n.frames = make(map[string][]*Frame)
	}
	if frame, ok := message.(*Frame); ok {
		n.frames[sessionID] = append(n.frames[sessionID], frame)
	}
	return nil
}

func (n *stubNotifier) CloseSession(sessionID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.closed = append(n.closed, sessionID)
	return nil
}

func (n *stubNotifier) notificationTexts(sessionID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var texts []string
	for _, frame := range n.frames[sessionID] {
		if frame.Kind == "notification" && frame.Notification != nil {
			texts = append(texts, frame.Notification.Text)
		}
	}
	return texts
}

func (n *stubNotifier) lastSnapshot(sessionID string) *domain.AuctionViewState {
	n.mu.Lock()
	defer n.mu.Unlock()
	var snapshot *domain.AuctionViewState
	for _, frame := range n.frames[sessionID] {
		if frame.Kind == "snapshot" {
			snapshot = frame.View
		}
	}
	return snapshot
}

func (n *stubNotifier) countdownTexts(sessionID string) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var texts []string
	for _, frame := range n.frames[sessionID] {
		if frame.Kind == "countdown" {
			texts = append(texts, frame.Text)
		}
	}
	return texts
}

type stubSubscriber struct{}

func (stubSubscriber) SubscribeToAuctionEvents(ctx context.Context, handler domain.EventHandler) error {
	<-ctx.Done()
	return ctx.Err()
}

type stubWatcher struct {
	mu           sync.Mutex
	subscribed   []common.Address
	unsubscribes int
}

func (w *stubWatcher) Subscribe(address common.Address) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.subscribed = append(w.subscribed, address)
}

func (w *stubWatcher) Unsubscribe() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.unsubscribes++
}

type stubRegistry struct {
	count    *big.Int
	countErr error
	at       func(index int64) (common.Address, error)
}

func (r *stubRegistry) Address() common.Address { return common.Address{} }

func (r *stubRegistry) AuctionCount(ctx context.Context) (*big.Int, error) {
	if r.countErr != nil {
		return nil, r.countErr
	}
	return r.count, nil
}

func (r *stubRegistry) AuctionAt(ctx context.Context, index *big.Int) (common.Address, error) {
	return r.at(index.Int64())
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]*domain.AuctionSummary
	gets    int
	sets    int
}

func (c *stubCache) GetSummary(ctx context.Context, address string) (*domain.AuctionSummary, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	entry, ok := c.entries[address]
	return entry, ok, nil
}

func (c *stubCache) SetSummary(ctx context.Context, summary *domain.AuctionSummary) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string]*domain.AuctionSummary)
	}
	c.entries[summary.Address] = summary
	c.sets++
	return nil
}

// managerFixture bundles a session manager with its observable stubs.
type managerFixture struct {
	manager  *SessionManager
	notifier *stubNotifier
	watcher  *stubWatcher
	wallet   *stubWallet
	writer   *stubWriter
}

func newManagerFixture(reader *stubReader, registry domain.RegistryReader) *managerFixture {
	fixture := &managerFixture{
		notifier: &stubNotifier{},
		watcher:  &stubWatcher{},
		wallet:   &stubWallet{state: domain.WalletDisconnected},
		writer:   &stubWriter{},
	}

	newReader := func(address common.Address) (domain.AuctionReader, error) {
		if reader != nil {
			return reader, nil
		}
		return newStubReader(address), nil
	}

	aggregator := NewRegistryAggregator(nopLogger{}, registry, nil, newReader)

	fixture.manager = NewSessionManager(SessionManagerDeps{
		Log:        nopLogger{},
		Notifier:   fixture.notifier,
		Events:     stubSubscriber{},
		Aggregator: aggregator,
		NewReader:  newReader,
		NewWriter: func(address common.Address, auth *bind.TransactOpts) (domain.AuctionWriter, error) {
			return fixture.writer, nil
		},
		NewWatcher: func() AuctionWatcher { return fixture.watcher },
		NewWallet:  func() Wallet { return fixture.wallet },
	})
	return fixture
}
