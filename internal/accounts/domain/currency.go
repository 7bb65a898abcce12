package domain

import "fmt"

// Currency is the fixed set of supported display currencies.
type Currency string

const (
	CurrencyINR Currency = "INR"
	CurrencyUSD Currency = "USD"
	CurrencyEUR Currency = "EUR"
	CurrencyGBP Currency = "GBP"
	CurrencyAUD Currency = "AUD"
	CurrencyCAD Currency = "CAD"
)

const DefaultCurrency = CurrencyINR

func ParseCurrency(s string) (Currency, error) {
	switch Currency(s) {
	case CurrencyINR, CurrencyUSD, CurrencyEUR, CurrencyGBP, CurrencyAUD, CurrencyCAD:
		return Currency(s), nil
	}
	return "", fmt.Errorf("unknown currency %q", s)
}

func (c Currency) Valid() bool {
	_, err := ParseCurrency(string(c))
	return err == nil
}

func (c Currency) String() string { return string(c) }
