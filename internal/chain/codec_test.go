package chain

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Fatal(string, ...interface{}) {}

func TestNormalizeAddress(t *testing.T) {
	checksummed := "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"lowercase input is checksummed", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed", checksummed, true},
		{"checksummed input is unchanged", checksummed, checksummed, true},
		{"uppercase hex carries no checksum claim", "0x5AAEB6053F3E94C9B9A09F33669435E7EF1BEAED", checksummed, true},
		{"surrounding whitespace is trimmed", "  0x5aaeb6053f3e94c9b9a09f33669435e7ef1beaed  ", checksummed, true},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"too short", "0x5aaeb6", "", false},
		{"not hex", "0x5aaeb6053f3e94c9b9a09f33669435e7ef1bezzz", "", false},
		{"zero address", ZeroAddress, "", false},
		{"broken checksum", "0x5AAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeAddress(tt.input)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeAddressIdempotent(t *testing.T) {
	first, ok := NormalizeAddress("0xfb6916095ca1df60bb79ce92ce3ea74c37c5d359")
	require.True(t, ok)

	second, ok := NormalizeAddress(first)
	require.True(t, ok)
	require.Equal(t, first, second)
}

func TestFormatAddress(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "-"},
		{"zero address", ZeroAddress, "-"},
		{"zero address lowercase", "0x0000000000000000000000000000000000000000", "-"},
		{"short value passes through", "0x12345", "0x12345"},
		{"full address is abbreviated", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", "0x5aAe…eAed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatAddress(tt.input))
		})
	}
}

func TestFormatEther(t *testing.T) {
	ether := func(s string) *big.Int {
		v, ok := new(big.Int).SetString(s, 10)
		require.True(t, ok)
		return v
	}

	tests := []struct {
		name string
		wei  *big.Int
		want string
	}{
		{"nil", nil, "0.0"},
		{"zero", big.NewInt(0), "0.0"},
		{"one ether", ether("1000000000000000000"), "1.0"},
		{"one and a half", ether("1500000000000000000"), "1.5"},
		{"sub-ether", ether("1000000000000000"), "0.001"},
		{"single wei", big.NewInt(1), "0.000000000000000001"},
		{"trailing zeros trimmed", ether("1230000000000000000"), "1.23"},
		{"negative", ether("-2500000000000000000"), "-2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, FormatEther(tt.wei))
		})
	}
}

func TestParseEther(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"integer", "2", "2000000000000000000", false},
		{"decimal", "1.5", "1500000000000000000", false},
		{"leading dot", ".5", "500000000000000000", false},
		{"trailing dot", "2.", "2000000000000000000", false},
		{"whitespace trimmed", " 0.001 ", "1000000000000000", false},
		{"full precision", "0.000000000000000001", "1", false},
		{"empty", "", "", true},
		{"lone dot", ".", "", true},
		{"not a number", "abc", "", true},
		{"negative rejected", "-1", "", true},
		{"too many decimals", "0.0000000000000000001", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEther(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	wei, err := ParseEther("12.345")
	require.NoError(t, err)
	require.Equal(t, "12.345", FormatEther(wei))
}
