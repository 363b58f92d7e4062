package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/store"
)

// EffectOf computes the delta t applies to the finance snapshot.
//
// sale and se_income raise balance and income. initial_balance funds the
// balance only. purchase and expense lower the balance and raise expenses.
// withdrawal does the same for amount plus fee. Every other type leaves the
// snapshot unchanged.
func EffectOf(t store.Transaction, fee decimal.Decimal) Effect {
	zero := decimal.Zero
	switch t.Type {
	case store.TypeSale, store.TypeSEIncome:
		return Effect{Balance: t.Amount, Income: t.Amount, Expenses: zero}
	case store.TypeInitialBalance:
		return Effect{Balance: t.Amount, Income: zero, Expenses: zero}
	case store.TypePurchase, store.TypeExpense:
		return Effect{Balance: t.Amount.Neg(), Income: zero, Expenses: t.Amount}
	case store.TypeWithdrawal:
		total := t.Amount.Add(fee)
		return Effect{Balance: total.Neg(), Income: zero, Expenses: total}
	default:
		return Effect{Balance: zero, Income: zero, Expenses: zero}
	}
}
