// Package normalize converts raw node-reported quantities into ledger scalar types.
package normalize

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/shopspring/decimal"
)

const (
	// EtherDecimals is the exponent between wei and the chain's major unit.
	EtherDecimals = 18
	// GasPriceDigits is the number of fractional digits kept for gas prices.
	GasPriceDigits = 12

	// timestampLayout renders like RFC 1123 with a literal GMT zone, which Timestamp replaces.
	timestampLayout = "Mon, 02 Jan 2006 15:04:05 GMT"
)

// Timestamp renders unix seconds as an RFC 1123 UTC string with "UTC" in place of "GMT",
// e.g. 0 -> "Thu, 01 Jan 1970 00:00:00 UTC". The format is part of the stored schema.
func Timestamp(seconds int64) string {
	formatted := time.Unix(seconds, 0).UTC().Format(timestampLayout)
	return strings.Replace(formatted, "GMT", "UTC", 1)
}

// HexToUint64 decodes a 0x-prefixed quantity into a uint64.
func HexToUint64(value string) (uint64, error) {
	v, err := hexutil.DecodeUint64(value)
	if err != nil {
		return 0, fmt.Errorf("decode quantity %q: %w", value, err)
	}
	return v, nil
}

// HexToBig decodes a 0x-prefixed quantity of up to 256 bits.
func HexToBig(value string) (*big.Int, error) {
	v, err := hexutil.DecodeBig(value)
	if err != nil {
		return nil, fmt.Errorf("decode big quantity %q: %w", value, err)
	}
	return v, nil
}

// HexToDecimalString decodes a quantity into its base-10 string.
func HexToDecimalString(value string) (string, error) {
	v, err := HexToBig(value)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}

// Address validates a 20-byte hex address and returns its EIP-55 checksummed form.
func Address(value string) (string, error) {
	if !common.IsHexAddress(value) {
		return "", fmt.Errorf("invalid address %q", value)
	}
	return common.HexToAddress(value).Hex(), nil
}

// WeiToEther converts a hex wei amount into the major unit as an exact fixed-point decimal.
func WeiToEther(value string) (decimal.Decimal, error) {
	wei, err := HexToBig(value)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromBigInt(wei, -EtherDecimals), nil
}

// GasPrice converts a hex wei gas price into the major unit with GasPriceDigits fractional digits.
func GasPrice(value string) (string, error) {
	ether, err := WeiToEther(value)
	if err != nil {
		return "", err
	}
	return ether.StringFixed(GasPriceDigits), nil
}
