// Package indexer turns raw Cetus swap events into priced swaps and
// OHLCV bars.
package indexer

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
)

const (
	x64Shift  = 64
	floatPrec = 256
)

// SqrtPriceX64ToPrice converts a Q64.64 square-root price into the price of
// coin A in units of coin B: (s / 2^64)^2 * 10^(decA - decB).
func SqrtPriceX64ToPrice(sqrtPriceX64 *big.Int, decimalsA, decimalsB int) float64 {
	if sqrtPriceX64 == nil || sqrtPriceX64.Sign() <= 0 {
		return 0
	}
	r := new(big.Float).SetPrec(floatPrec).SetInt(sqrtPriceX64)
	r.SetMantExp(r, -x64Shift)
	r.Mul(r, r)
	f, _ := r.Float64()
	return f * math.Pow10(decimalsA-decimalsB)
}

// scaleAmount divides a raw integer token amount by 10^decimals.
func scaleAmount(raw *big.Int, decimals int) float64 {
	if raw == nil {
		return 0
	}
	f := new(big.Float).SetPrec(floatPrec).SetInt(raw)
	if decimals > 0 {
		div := new(big.Float).SetPrec(floatPrec).SetInt(new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil))
		f.Quo(f, div)
	}
	out, _ := f.Float64()
	return out
}

// bigFromAny reads a u64/u128 that may arrive as a JSON string or number.
func bigFromAny(v interface{}) (*big.Int, error) {
	switch x := v.(type) {
	case string:
		n, ok := new(big.Int).SetString(x, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", x)
		}
		return n, nil
	case json.Number:
		return bigFromAny(x.String())
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("invalid integer %v", x)
		}
		n, _ := big.NewFloat(x).Int(nil)
		return n, nil
	case int64:
		return big.NewInt(x), nil
	case int:
		return big.NewInt(int64(x)), nil
	case nil:
		return nil, fmt.Errorf("missing integer")
	default:
		return nil, fmt.Errorf("unexpected integer type %T", v)
	}
}

func boolFromAny(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(x)
	default:
		return false, fmt.Errorf("unexpected bool type %T", v)
	}
}
