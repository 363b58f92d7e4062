package store

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates the kinds of cash-book rows.
type TransactionType string

const (
	// TypeSale is retail or pack income.
	TypeSale TransactionType = "sale"
	// TypePurchase is money spent on goods or materials.
	TypePurchase TransactionType = "purchase"
	// TypeExpense is an operating cost such as labor or packing.
	TypeExpense TransactionType = "expense"
	// TypeWithdrawal is cash taken out of the marketplace wallet; a fee applies.
	TypeWithdrawal TransactionType = "withdrawal"
	// TypeSEIncome is marketplace payout income.
	TypeSEIncome TransactionType = "se_income"
	// TypeStockAdjustment records a stock movement; it never moves money.
	TypeStockAdjustment TransactionType = "stock_adjustment"
	// TypeInitialBalance is the opening capital.
	TypeInitialBalance TransactionType = "initial_balance"
	// TypeProduction marks a production event.
	TypeProduction TransactionType = "production"
	// TypePacking marks a packing event.
	TypePacking TransactionType = "packing"
)

// TransactionTypes lists every accepted transaction type.
var TransactionTypes = []TransactionType{
	TypeSale, TypePurchase, TypeExpense, TypeWithdrawal, TypeSEIncome,
	TypeStockAdjustment, TypeInitialBalance, TypeProduction, TypePacking,
}

// Valid reports whether t is a known type.
func (t TransactionType) Valid() bool {
	for _, known := range TransactionTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Size values accepted on transactions.
const (
	SizeS      = "S"
	SizeM      = "M"
	SizeL      = "L"
	SizeXL     = "XL"
	SizeXXL    = "XXL"
	SizeMixed  = "MIXED"
	SizePacked = "PACKED"
)

// ValidSize reports whether s is empty or one of the known sizes.
func ValidSize(s string) bool {
	switch s {
	case "", SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeMixed, SizePacked:
		return true
	}
	return false
}

// ItemType classifies stock entries.
type ItemType string

const (
	// ItemRaw is ready-to-sew raw stock.
	ItemRaw ItemType = "raw"
	// ItemFinished is sellable goods, loose or packed.
	ItemFinished ItemType = "finished"
	// ItemMaterial is a consumable production material.
	ItemMaterial ItemType = "material"
)

// Valid reports whether i is a known item type.
func (i ItemType) Valid() bool {
	switch i {
	case ItemRaw, ItemFinished, ItemMaterial:
		return true
	}
	return false
}

// Transaction is one immutable cash-book row.
type Transaction struct {
	ID        int64           `json:"id"`
	Ref       string          `json:"ref,omitempty"`
	Type      TransactionType `json:"type"`
	Category  string          `json:"category"`
	Amount    decimal.Decimal `json:"amount"`
	Quantity  *int64          `json:"quantity,omitempty"`
	Size      string          `json:"size,omitempty"`
	Unit      string          `json:"unit,omitempty"`
	Discount  decimal.Decimal `json:"discount"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot is one row of the append-only finance history.
type Snapshot struct {
	ID             int64           `json:"id"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	TotalIncome    decimal.Decimal `json:"total_income"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	LastUpdated    time.Time       `json:"last_updated"`
}

// StockKey identifies a stock entry.
type StockKey struct {
	ItemType ItemType `json:"item_type"`
	ItemName string   `json:"item_name"`
	Size     string   `json:"size,omitempty"`
}

// StockEntry is a mutable quantity row keyed by StockKey.
type StockEntry struct {
	StockKey
	Quantity    int64     `json:"quantity"`
	LastUpdated time.Time `json:"last_updated"`
}

// Product is a catalog row.
type Product struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	Size          string          `json:"size"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	CostPerPiece  decimal.Decimal `json:"cost_per_piece"`
	PiecesPerPack int             `json:"pieces_per_pack"`
}

// RawMaterial is a purchasable production material.
type RawMaterial struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Unit        string          `json:"unit"`
	CostPerUnit decimal.Decimal `json:"cost_per_unit"`
}

// ProductionBatch records one production run.
type ProductionBatch struct {
	ID               int64           `json:"id"`
	Ref              string          `json:"ref,omitempty"`
	ProductName      string          `json:"product_name"`
	Size             string          `json:"size"`
	QuantityProduced int64           `json:"quantity_produced"`
	LaborCost        decimal.Decimal `json:"labor_cost"`
	MaterialsCost    decimal.Decimal `json:"materials_cost"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	Notes            string          `json:"notes,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// TransactionFilter narrows transaction listings. Zero values mean "no constraint".
type TransactionFilter struct {
	Types []TransactionType
	From  time.Time
	To    time.Time
	Limit int
}

// Matches reports whether t passes the filter. From is inclusive, To exclusive.
func (f TransactionFilter) Matches(t Transaction) bool {
	if len(f.Types) > 0 {
		found := false
		for _, typ := range f.Types {
			if typ == t.Type {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.From.IsZero() && t.CreatedAt.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.CreatedAt.Before(f.To) {
		return false
	}
	return true
}

// StockFilter narrows stock listings.
type StockFilter struct {
	ItemType ItemType
	// MaxQuantity, when set, keeps entries with quantity <= *MaxQuantity.
	MaxQuantity *int64
}
