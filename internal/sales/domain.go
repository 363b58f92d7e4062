package sales

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

// Transaction categories used by sales.
const (
	CategoryRetail = "retail_sale"
	CategoryPack   = "pack_sale"
)

var (
	// ErrInvalidSale is returned for malformed sale input.
	ErrInvalidSale = fmt.Errorf("%w: sales: invalid sale", httpx.ErrValidation)
)

// SaleInput describes a retail sale of loose finished goods.
type SaleInput struct {
	ProductName   string
	Size          string
	Quantity      int64
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	PaymentMethod string
	Notes         string
}

// PackSaleInput describes a sale of packed goods.
type PackSaleInput struct {
	PackName      string
	Quantity      int64
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	PaymentMethod string
	Notes         string
}

// Result is the outcome of a recorded sale.
type Result struct {
	Amount         decimal.Decimal   `json:"amount"`
	Balance        decimal.Decimal   `json:"balance"`
	DisplayBalance string            `json:"display_balance"`
	Transaction    store.Transaction `json:"transaction"`
	Stock          store.StockEntry  `json:"stock"`
}

// AvailableProduct is a catalog product with finished stock on hand.
type AvailableProduct struct {
	store.Product
	Quantity int64 `json:"quantity"`
}

var hundred = decimal.NewFromInt(100)

// Total returns unit × quantity reduced by a percentage discount, rounded to cents.
func Total(unit decimal.Decimal, qty int64, discount decimal.Decimal) decimal.Decimal {
	gross := unit.Mul(decimal.NewFromInt(qty))
	factor := decimal.NewFromInt(1).Sub(discount.Div(hundred))
	return gross.Mul(factor).Round(2)
}

func validateLine(name string, qty int64, unit, discount decimal.Decimal) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: product name required", ErrInvalidSale)
	case qty <= 0:
		return fmt.Errorf("%w: quantity must be positive", ErrInvalidSale)
	case unit.IsNegative():
		return fmt.Errorf("%w: unit price must not be negative", ErrInvalidSale)
	case discount.IsNegative() || discount.GreaterThan(hundred):
		return fmt.Errorf("%w: discount must be between 0 and 100", ErrInvalidSale)
	}
	return nil
}
