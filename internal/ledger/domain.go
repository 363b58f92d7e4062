// Package ledger maintains the finance history: every posted transaction
// appends a balance snapshot computed from the previous one.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

// DefaultWithdrawalFee is the marketplace surcharge applied to every withdrawal.
var DefaultWithdrawalFee = decimal.NewFromInt(3000)

var (
	// ErrNegativeAmount is returned for amounts below zero.
	ErrNegativeAmount = fmt.Errorf("%w: ledger: amount must not be negative", httpx.ErrValidation)
	// ErrUnknownType is returned for transaction types outside the known set.
	ErrUnknownType = fmt.Errorf("%w: ledger: unknown transaction type", httpx.ErrValidation)
	// ErrInvalidSize is returned for sizes outside the known set.
	ErrInvalidSize = fmt.Errorf("%w: ledger: invalid size", httpx.ErrValidation)
	// ErrInvalidQuantity is returned for negative quantities on money rows.
	ErrInvalidQuantity = fmt.Errorf("%w: ledger: quantity must not be negative", httpx.ErrValidation)
	// ErrInvalidDiscount is returned for discounts outside 0..100 percent.
	ErrInvalidDiscount = fmt.Errorf("%w: ledger: discount must be between 0 and 100", httpx.ErrValidation)
)

// Effect is the signed change a transaction applies to a snapshot.
type Effect struct {
	Balance  decimal.Decimal `json:"balance"`
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Apply returns prev moved by e. LastUpdated and ID are left for the store.
func (e Effect) Apply(prev store.Snapshot) store.Snapshot {
	return store.Snapshot{
		CurrentBalance: prev.CurrentBalance.Add(e.Balance),
		TotalIncome:    prev.TotalIncome.Add(e.Income),
		TotalExpenses:  prev.TotalExpenses.Add(e.Expenses),
	}
}

// IncomeTypes are the transaction kinds counted as income in summaries.
var IncomeTypes = []store.TransactionType{store.TypeSale, store.TypeSEIncome}

// ExpenseTypes are the transaction kinds counted as expenses in summaries.
var ExpenseTypes = []store.TransactionType{store.TypePurchase, store.TypeExpense, store.TypeWithdrawal}

// Summary is the latest snapshot plus income/expense activity counts.
type Summary struct {
	Snapshot       store.Snapshot `json:"snapshot"`
	DisplayBalance string         `json:"display_balance"`
	IncomeCount    int64          `json:"income_count"`
	ExpenseCount   int64          `json:"expense_count"`
}

// Posting is the outcome of one posted transaction.
type Posting struct {
	Transaction store.Transaction `json:"transaction"`
	Snapshot    store.Snapshot    `json:"snapshot"`
}

var hundred = decimal.NewFromInt(100)

// Validate checks t before it touches storage.
func Validate(t store.Transaction) error {
	if !t.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownType, t.Type)
	}
	if t.Amount.IsNegative() {
		return ErrNegativeAmount
	}
	if !store.ValidSize(t.Size) {
		return fmt.Errorf("%w: %q", ErrInvalidSize, t.Size)
	}
	if t.Quantity != nil && *t.Quantity < 0 && t.Type != store.TypeStockAdjustment {
		return ErrInvalidQuantity
	}
	if t.Discount.IsNegative() || t.Discount.GreaterThan(hundred) {
		return ErrInvalidDiscount
	}
	return nil
}
