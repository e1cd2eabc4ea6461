package types

import (
	"math/big"
	"math/bits"

	"github.com/shopspring/decimal"
)

// Fee rate bounds, in basis points.
const (
	BpsDenominator uint64 = 10_000
	MaxFeeRateBps  uint32 = 100
)

// SplitFee divides a gross amount into the fee owed at rateBps and the net
// remainder. The fee is floor(amount * rateBps / 10000), so fee <= amount and
// fee + net == amount for every rate up to BpsDenominator.
//
// The product is computed in 128 bits and never overflows.
func SplitFee(amount uint64, rateBps uint32) (fee, net uint64) {
	if amount == 0 || rateBps == 0 {
		return 0, amount
	}
	hi, lo := bits.Mul64(amount, uint64(rateBps))
	fee, _ = bits.Div64(hi, lo, BpsDenominator)
	return fee, amount - fee
}

// AddChecked returns a + b and false when the sum overflows uint64.
func AddChecked(a, b uint64) (uint64, bool) {
	sum, carry := bits.Add64(a, b, 0)
	return sum, carry == 0
}

// FormatUnits renders an integer amount in major units with the given number
// of decimal places. Micro-denominated assets use 6: FormatUnits(1500000, 6)
// is "1.500000".
func FormatUnits(amount uint64, decimals int32) string {
	d := decimal.NewFromBigInt(new(big.Int).SetUint64(amount), 0).Shift(-decimals)
	return d.StringFixed(decimals)
}

// ParseUnits converts a major-unit decimal string into an integer amount with
// the given number of decimal places. Fractions finer than the precision are
// truncated.
func ParseUnits(s string, decimals int32) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	if d.IsNegative() {
		return 0, errNegativeUnits
	}
	scaled := d.Shift(decimals).Truncate(0)
	if !scaled.BigInt().IsUint64() {
		return 0, errUnitsOverflow
	}
	return scaled.BigInt().Uint64(), nil
}
