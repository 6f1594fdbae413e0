package payment

import (
	"strings"

	"github.com/shopspring/decimal"
)

var zeroDecimalCurrencies = map[string]bool{
	"BIF": true, "CLP": true, "DJF": true, "GNF": true,
	"JPY": true, "KMF": true, "KRW": true, "MGA": true,
	"PYG": true, "RWF": true, "UGX": true, "VND": true,
	"VUV": true, "XAF": true, "XOF": true, "XPF": true,
}

var threeDecimalCurrencies = map[string]bool{
	"BHD": true, "IQD": true, "JOD": true, "KWD": true, "OMR": true, "TND": true,
}

var ten = decimal.NewFromInt(10)

// CurrencyExponent returns the number of minor-unit digits for the currency.
// Unknown codes default to 2.
func CurrencyExponent(currency string) int32 {
	code := strings.ToUpper(currency)
	switch {
	case zeroDecimalCurrencies[code]:
		return 0
	case threeDecimalCurrencies[code]:
		return 3
	default:
		return 2
	}
}

// ToSmallestUnit converts a decimal amount to the integer the gateway expects.
// Three-decimal currencies are rounded up to a multiple of ten because the
// charge API rejects the last digit.
func ToSmallestUnit(amount decimal.Decimal, currency string) int64 {
	exp := CurrencyExponent(currency)
	smallest := amount.Shift(exp).Round(0)

	if exp == 3 {
		smallest = smallest.Div(ten).Ceil().Mul(ten)
	}
	return smallest.IntPart()
}

// FromSmallestUnit converts a gateway integer amount back to a decimal amount.
func FromSmallestUnit(amount int64, currency string) decimal.Decimal {
	return decimal.NewFromInt(amount).Shift(-CurrencyExponent(currency))
}
