package services

import (
	"context"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"auction-explorer/internal/domain"
	"auction-explorer/pkg/logger"
)

// Wallet is a session-scoped signing identity with explicit connect,
// silent restore and disconnect transitions.
type Wallet interface {
	Connect(ctx context.Context) (*bind.TransactOpts, error)
	Restore(ctx context.Context) *bind.TransactOpts
	Disconnect()
	State() domain.WalletState
	AccountAddress() string
}

var errNoWalletKey = errors.New("Nenhuma chave de assinatura configurada para a carteira.")

// WalletSession derives the signing identity from a configured key file.
// Exactly one write-capable contract handle exists per session at a time,
// always derived from the identity held here.
type WalletSession struct {
	log     logger.Logger
	keyFile string
	chainID *big.Int

	mu      sync.Mutex
	state   domain.WalletState
	account common.Address
	auth    *bind.TransactOpts
}

func NewWalletSession(log logger.Logger, keyFile string, chainID *big.Int) *WalletSession {
	return &WalletSession{
		log:     log,
		keyFile: keyFile,
		chainID: chainID,
		state:   domain.WalletDisconnected,
	}
}

// Connect loads the signing key and transitions to Connected. Any failure
// leaves the session Disconnected with no retained identity.
func (w *WalletSession) Connect(ctx context.Context) (*bind.TransactOpts, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.state = domain.WalletConnecting

	if w.keyFile == "" {
		w.reset()
		return nil, errNoWalletKey
	}

	key, err := crypto.LoadECDSA(w.keyFile)
	if err != nil {
		w.reset()
		return nil, err
	}

	auth, err := bind.NewKeyedTransactorWithChainID(key, w.chainID)
	if err != nil {
		w.reset()
		return nil, err
	}

	w.state = domain.WalletConnected
	w.account = crypto.PubkeyToAddress(key.PublicKey)
	w.auth = auth
	return auth, nil
}

// Restore attempts a silent reconnect. Failures degrade to Disconnected
// with a warning log only; this is a background attempt, never surfaced.
func (w *WalletSession) Restore(ctx context.Context) *bind.TransactOpts {
	auth, err := w.Connect(ctx)
	if err != nil {
		if !errors.Is(err, errNoWalletKey) {
			w.log.Warn("Falha ao restaurar conexão com a carteira", "error", err)
		}
		return nil
	}
	return auth
}

func (w *WalletSession) Disconnect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.reset()
}

// reset requires w.mu held.
func (w *WalletSession) reset() {
	w.state = domain.WalletDisconnected
	w.account = common.Address{}
	w.auth = nil
}

func (w *WalletSession) State() domain.WalletState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// AccountAddress returns the connected account in hex form, or "" when
// disconnected.
func (w *WalletSession) AccountAddress() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != domain.WalletConnected {
		return ""
	}
	return w.account.Hex()
}
