package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"auction-explorer/internal/domain"
)

// ErrNoSigner is returned by write calls on a handle without a bound
// signing identity.
var ErrNoSigner = errors.New("Conecte a carteira para interagir com o leilão.")

// Backend is the ledger client surface the contract handles need.
// ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// AuctionContract is a typed proxy bound to a deployed auction contract.
// The zero-signer form is read-only; WithSigner derives the write-capable
// handle from it.
type AuctionContract struct {
	address  common.Address
	abi      abi.ABI
	contract *bind.BoundContract
	backend  Backend
	auth     *bind.TransactOpts
}

func NewAuctionContract(address common.Address, backend Backend) (*AuctionContract, error) {
	parsed, err := ParseAuctionABI()
	if err != nil {
		return nil, err
	}
	return &AuctionContract{
		address:  address,
		abi:      parsed,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
		backend:  backend,
	}, nil
}

// WithSigner derives a write-capable handle bound to the given identity.
func (c *AuctionContract) WithSigner(auth *bind.TransactOpts) *AuctionContract {
	bound := *c
	bound.auth = auth
	return &bound
}

func (c *AuctionContract) Address() common.Address {
	return c.address
}

func (c *AuctionContract) HighestBid(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "highestBid"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *AuctionContract) HighestBidder(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "highestBidder"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (c *AuctionContract) AuctionEndTime(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "auctionEndTime"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (c *AuctionContract) Beneficiary(ctx context.Context) (common.Address, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "beneficiary"); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (c *AuctionContract) Ended(ctx context.Context) (bool, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "ended"); err != nil {
		return false, err
	}
	return *abi.ConvertType(out[0], new(bool)).(*bool), nil
}

func (c *AuctionContract) AuctionType(ctx context.Context) (uint8, error) {
	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, "auctionType"); err != nil {
		return 0, err
	}
	return *abi.ConvertType(out[0], new(uint8)).(*uint8), nil
}

// HasMethod reports whether the contract interface declares the named
// zero-argument accessor.
func (c *AuctionContract) HasMethod(name string) bool {
	method, ok := c.abi.Methods[name]
	return ok && len(method.Inputs) == 0
}

// CallString invokes a declared accessor and returns its value only when the
// declared output is a single string.
func (c *AuctionContract) CallString(ctx context.Context, name string) (string, error) {
	method, ok := c.abi.Methods[name]
	if !ok {
		return "", fmt.Errorf("method %s not declared", name)
	}
	if len(method.Outputs) != 1 || method.Outputs[0].Type.T != abi.StringTy {
		return "", fmt.Errorf("method %s does not return a string", name)
	}

	var out []interface{}
	if err := c.contract.Call(&bind.CallOpts{Context: ctx}, &out, name); err != nil {
		return "", err
	}
	return *abi.ConvertType(out[0], new(string)).(*string), nil
}

func (c *AuctionContract) Bid(ctx context.Context, amountWei *big.Int) (domain.PendingTx, error) {
	if c.auth == nil {
		return nil, ErrNoSigner
	}
	opts := *c.auth
	opts.Context = ctx
	opts.Value = amountWei
	tx, err := c.contract.Transact(&opts, "bid")
	if err != nil {
		return nil, err
	}
	return &pendingTx{tx: tx, backend: c.backend}, nil
}

func (c *AuctionContract) Withdraw(ctx context.Context) (domain.PendingTx, error) {
	if c.auth == nil {
		return nil, ErrNoSigner
	}
	opts := *c.auth
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, "withdraw")
	if err != nil {
		return nil, err
	}
	return &pendingTx{tx: tx, backend: c.backend}, nil
}

func (c *AuctionContract) EndAuction(ctx context.Context) (domain.PendingTx, error) {
	if c.auth == nil {
		return nil, ErrNoSigner
	}
	opts := *c.auth
	opts.Context = ctx
	tx, err := c.contract.Transact(&opts, "endAuction")
	if err != nil {
		return nil, err
	}
	return &pendingTx{tx: tx, backend: c.backend}, nil
}

type pendingTx struct {
	tx      *types.Transaction
	backend Backend
}

func (p *pendingTx) Hash() string {
	return p.tx.Hash().Hex()
}

func (p *pendingTx) Wait(ctx context.Context) error {
	receipt, err := bind.WaitMined(ctx, p.backend, p.tx)
	if err != nil {
		return err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("transação %s revertida pela rede", p.tx.Hash().Hex())
	}
	return nil
}

// RegistryContract is a typed proxy bound to the auction registry.
type RegistryContract struct {
	address  common.Address
	contract *bind.BoundContract
}

func NewRegistryContract(address common.Address, backend Backend) (*RegistryContract, error) {
	parsed, err := ParseRegistryABI()
	if err != nil {
		return nil, err
	}
	return &RegistryContract{
		address:  address,
		contract: bind.NewBoundContract(address, parsed, backend, backend, backend),
	}, nil
}

func (r *RegistryContract) Address() common.Address {
	return r.address
}

func (r *RegistryContract) AuctionCount(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAuctionCount"); err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

func (r *RegistryContract) AuctionAt(ctx context.Context, index *big.Int) (common.Address, error) {
	var out []interface{}
	if err := r.contract.Call(&bind.CallOpts{Context: ctx}, &out, "getAuction", index); err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}
