package chain

import (
	"context"

	"auction-explorer/internal/domain"
	"auction-explorer/pkg/logger"
)

// Attempt runs a single remote read and converts any failure into an
// unavailable result. Individual accessors are independently fallible (stale
// node, method missing on a contract variant, transient RPC error); callers
// render a partial view instead of failing the whole pass.
func Attempt[T any](log logger.Logger, label string, fn func() (T, error)) (T, bool) {
	value, err := fn()
	if err != nil {
		log.Warn("Falha ao ler "+label, "error", err)
		var zero T
		return zero, false
	}
	return value, true
}

// ProbeOptionalString reads an optional textual accessor. When the contract
// interface does not declare the method, it reports absent without touching
// the network; otherwise the read goes through Attempt.
func ProbeOptionalString(ctx context.Context, log logger.Logger, reader domain.AuctionReader, method string) (string, bool) {
	if !reader.HasMethod(method) {
		return "", false
	}
	return Attempt(log, method+"()", func() (string, error) {
		return reader.CallString(ctx, method)
	})
}
