// Package core holds the trip domain types and the formatting helpers the
// rest of the module shares.
//
// This file contains functions for parsing and formatting monetary amounts.
// Amounts travel as float64, matching what the spreadsheet API returns;
// decimal arithmetic is used only at the edges where rounding is visible.
package core

import (
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ReportingCurrency is the currency every AmountInBRL/PriceInBRL is expressed in.
const ReportingCurrency = "BRL"

var currencySymbols = map[string]string{
	"BRL": "R$",
	"EUR": "€",
	"USD": "US$",
	"GBP": "£",
	"CHF": "CHF",
	"ARS": "ARS$",
	"CLP": "CLP$",
}

// ParseAmount converts a user-entered amount to a float rounded to cents.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. When both
// appear, the last one is the decimal separator and the other is treated as a
// thousands separator, so "1.234,56" and "1,234.56" both parse to 1234.56.
// Negative or zero values are rejected.
//
// Examples:
//
//	ParseAmount("12,34")    -> 12.34, nil
//	ParseAmount("1.234,56") -> 1234.56, nil
//	ParseAmount("12.345")   -> 12.35, nil (half-up)
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for _, sym := range currencySymbols {
		s = strings.TrimSpace(strings.TrimPrefix(s, sym))
	}
	if s == "" || strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		return 0, ErrInvalidAmount
	}
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0 && lastComma > lastDot:
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot >= 0 && lastComma >= 0:
		s = strings.ReplaceAll(s, ",", "")
	default:
		s = strings.ReplaceAll(s, ",", ".")
	}
	if strings.Count(s, ".") > 1 {
		return 0, ErrInvalidAmount
	}
	for _, r := range s {
		if !unicode.IsDigit(r) && r != '.' {
			return 0, ErrInvalidAmount
		}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return d.InexactFloat64(), nil
}

// RoundCents rounds an amount half away from zero to two decimals.
func RoundCents(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// ConvertToBRL converts amount using rate (BRL per unit of the source
// currency), rounded to cents.
func ConvertToBRL(amount, rate float64) float64 {
	return decimal.NewFromFloat(amount).Mul(decimal.NewFromFloat(rate)).Round(2).InexactFloat64()
}

// FormatBRL renders an amount in the reporting currency, e.g. "R$ 1.234,56".
func FormatBRL(amount float64) string {
	return FormatCurrency(amount, ReportingCurrency)
}

// FormatCurrency renders amount with the Brazilian separators (dot for
// thousands, comma for decimals) and the currency symbol. Unknown currency
// codes are used as their own symbol.
func FormatCurrency(amount float64, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	symbol, ok := currencySymbols[currency]
	if !ok {
		symbol = currency
	}

	d := decimal.NewFromFloat(amount).Round(2)
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}

	out := b.String() + "," + fracPart
	if neg {
		out = "-" + out
	}
	if symbol == "" {
		return out
	}
	return symbol + " " + out
}
