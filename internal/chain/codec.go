package chain

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// ZeroAddress is the all-zero address, never a valid auction reference.
const ZeroAddress = "0x0000000000000000000000000000000000000000"

var weiPerEther = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// NormalizeAddress trims and canonicalizes an address string into its
// EIP-55 checksummed form. It returns false for empty, malformed or
// checksum-invalid input, and for the all-zero address.
func NormalizeAddress(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !common.IsHexAddress(trimmed) {
		return "", false
	}

	addr := common.HexToAddress(trimmed)
	if addr == (common.Address{}) {
		return "", false
	}

	hexPart := strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	if hasMixedCase(hexPart) && "0x"+hexPart != addr.Hex() {
		// Mixed-case input claims a checksum; reject when it doesn't hold.
		return "", false
	}

	return addr.Hex(), true
}

func hasMixedCase(s string) bool {
	return strings.ContainsAny(s, "abcdef") && strings.ContainsAny(s, "ABCDEF")
}

// FormatAddress renders an address for compact display: "-" for empty or
// zero addresses, otherwise the first 6 and last 4 characters joined by an
// ellipsis. Total over any input.
func FormatAddress(value string) string {
	if value == "" || strings.EqualFold(value, ZeroAddress) {
		return "-"
	}
	if len(value) < 11 {
		return value
	}
	return value[:6] + "…" + value[len(value)-4:]
}

// FormatEther converts an amount in wei to its decimal ether representation
// with full precision. The result always carries at least one fractional
// digit, matching the wire client this replaces.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0.0"
	}

	value := new(big.Int).Set(wei)
	sign := ""
	if value.Sign() < 0 {
		sign = "-"
		value.Neg(value)
	}

	quo, rem := new(big.Int).QuoRem(value, weiPerEther, new(big.Int))
	frac := strings.TrimRight(fmt.Sprintf("%018s", rem.String()), "0")
	if frac == "" {
		frac = "0"
	}
	return sign + quo.String() + "." + frac
}

// ParseEther converts a decimal ether string into wei. It rejects empty,
// malformed and over-precise (more than 18 fractional digits) input.
func ParseEther(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("empty amount")
	}

	parts := strings.SplitN(trimmed, ".", 2)
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" && fracPart == "" {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	if intPart == "" {
		intPart = "0"
	}
	if len(fracPart) > 18 {
		return nil, fmt.Errorf("amount %q exceeds 18 decimal places", value)
	}
	if !isDigits(intPart) || (fracPart != "" && !isDigits(fracPart)) {
		return nil, fmt.Errorf("invalid amount %q", value)
	}

	padded := fracPart + strings.Repeat("0", 18-len(fracPart))
	wei, ok := new(big.Int).SetString(intPart+padded, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return wei, nil
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
