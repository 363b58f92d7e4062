package shared

import (
	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyCode is the bookkeeping currency.
const CurrencyCode = money.IDR

// FormatRupiah renders an amount in the bookkeeping currency, e.g. "Rp1.075.000,00".
func FormatRupiah(amount decimal.Decimal) string {
	cur := money.New(0, CurrencyCode).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(minor, CurrencyCode).Display()
}
