package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"auction-explorer/internal/chain"
	"auction-explorer/internal/domain"
	"auction-explorer/pkg/logger"
)

// ErrRegistryUnconfigured marks the configuration-fatal case of a missing
// or invalid registry address.
var ErrRegistryUnconfigured = errors.New("Configure o endereço do registro de leilões.")

// ReaderFactory builds a read handle for one auction contract.
type ReaderFactory func(address common.Address) (domain.AuctionReader, error)

// RegistryAggregator enumerates the registry and reconciles a lightweight
// summary per auction. A single bad entry is skipped with a log, never
// aborting the enumeration.
type RegistryAggregator struct {
	log       logger.Logger
	registry  domain.RegistryReader
	cache     domain.SummaryCache
	newReader ReaderFactory
}

func NewRegistryAggregator(log logger.Logger, registry domain.RegistryReader,
	cache domain.SummaryCache, newReader ReaderFactory) *RegistryAggregator {
	return &RegistryAggregator{
		log:       log,
		registry:  registry,
		cache:     cache,
		newReader: newReader,
	}
}

// LoadAll reads the registry count and walks indexes 0..count-1 in order.
// Addresses that normalize to none are skipped and logged; the returned
// sequence preserves registry enumeration order.
func (a *RegistryAggregator) LoadAll(ctx context.Context) ([]domain.AuctionSummary, error) {
	if a.registry == nil {
		return nil, ErrRegistryUnconfigured
	}

	count, err := a.registry.AuctionCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("não foi possível carregar os leilões do registro: %w", err)
	}

	total := count.Int64()
	summaries := make([]domain.AuctionSummary, 0, total)
	for index := int64(0); index < total; index++ {
		address, err := a.registry.AuctionAt(ctx, big.NewInt(index))
		if err != nil {
			return nil, fmt.Errorf("não foi possível carregar os leilões do registro: %w", err)
		}

		normalized, ok := chain.NormalizeAddress(address.Hex())
		if !ok {
			a.log.Warn("Ignorando entrada inválida do registro", "index", index, "address", address.Hex())
			continue
		}

		summary := a.Summarize(ctx, normalized)
		if summary == nil {
			a.log.Warn("Falha ao carregar leilão", "address", normalized)
			continue
		}
		summaries = append(summaries, *summary)
	}

	return summaries, nil
}

// Summarize reconciles the explorer projection for one auction: type, ended
// and the name fallback chain, each read resiliently. Results are cached
// with a TTL so registry refreshes stay cheap.
func (a *RegistryAggregator) Summarize(ctx context.Context, address string) *domain.AuctionSummary {
	if a.cache != nil {
		cached, ok, err := a.cache.GetSummary(ctx, address)
		if err != nil {
			a.log.Warn("Falha ao consultar o cache de resumos", "address", address, "error", err)
		} else if ok {
			return cached
		}
	}

	reader, err := a.newReader(common.HexToAddress(address))
	if err != nil {
		return nil
	}

	var (
		typeIndex uint8
		typeOK    bool
		ended     bool
		endedOK   bool
		name      string
		nameOK    bool
		desc      string
		descOK    bool
	)
	var wg sync.WaitGroup
	wg.Add(4)
	go func() {
		defer wg.Done()
		typeIndex, typeOK = chain.Attempt(a.log, "auctionType()", func() (uint8, error) { return reader.AuctionType(ctx) })
	}()
	go func() {
		defer wg.Done()
		ended, endedOK = chain.Attempt(a.log, "ended()", func() (bool, error) { return reader.Ended(ctx) })
	}()
	go func() {
		defer wg.Done()
		name, nameOK = chain.ProbeOptionalString(ctx, a.log, reader, "itemName")
	}()
	go func() {
		defer wg.Done()
		desc, descOK = chain.ProbeOptionalString(ctx, a.log, reader, "itemDescription")
	}()
	wg.Wait()

	displayName := ""
	if nameOK {
		displayName = strings.TrimSpace(name)
	}
	if displayName == "" && descOK {
		displayName = strings.TrimSpace(desc)
	}
	if displayName == "" {
		displayName = "Leilão " + chain.FormatAddress(address)
	}

	index := domain.AuctionTypeUnknown
	if typeOK {
		index = int(typeIndex)
	}

	summary := &domain.AuctionSummary{
		Address:   address,
		Name:      displayName,
		TypeLabel: domain.AuctionTypeLabel(index),
		Ended:     endedOK && ended,
	}

	if a.cache != nil {
		if err := a.cache.SetSummary(ctx, summary); err != nil {
			a.log.Warn("Falha ao gravar no cache de resumos", "address", address, "error", err)
		}
	}
	return summary
}

// FilterSummaries applies the case-insensitive substring filter against
// display names. It never re-fetches; it only narrows the given set.
func FilterSummaries(list []domain.AuctionSummary, query string) []domain.AuctionSummary {
	normalized := strings.ToLower(strings.TrimSpace(query))
	if normalized == "" {
		return list
	}

	filtered := make([]domain.AuctionSummary, 0, len(list))
	for _, summary := range list {
		if strings.Contains(strings.ToLower(summary.Name), normalized) {
			filtered = append(filtered, summary)
		}
	}
	return filtered
}

// EmptyStateMessage distinguishes an empty registry, an exhausted filter and
// the generic empty case.
func EmptyStateMessage(totalLoaded int, query string) string {
	if totalLoaded == 0 {
		return "Nenhum leilão registrado no momento."
	}
	if strings.TrimSpace(query) != "" {
		return "Nenhum leilão corresponde ao filtro informado."
	}
	return "Nenhum leilão encontrado."
}
