// Package reporting aggregates the cash book and stock into read-only reports.
package reporting

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

// Placeholder unit valuations used by the stock summary.
var (
	DefaultRawUnitValue      = decimal.NewFromInt(50000)
	DefaultFinishedUnitValue = decimal.NewFromInt(80000)
)

// RecentLimit caps the dashboard transaction list.
const RecentLimit = 10

// Stock level bands for the stock report.
const (
	LevelLow    = "LOW"
	LevelMedium = "MEDIUM"
	LevelHigh   = "HIGH"
)

// ErrInvalidPeriod is returned for out-of-range months or day windows.
var ErrInvalidPeriod = fmt.Errorf("%w: reporting: invalid period", httpx.ErrValidation)

// DailyProfit is the income statement of one calendar day.
type DailyProfit struct {
	Date             string          `json:"date"`
	Income           decimal.Decimal `json:"income"`
	Expenses         decimal.Decimal `json:"expenses"`
	WithdrawalFees   decimal.Decimal `json:"withdrawal_fees"`
	Profit           decimal.Decimal `json:"profit"`
	TransactionCount int64           `json:"transaction_count"`
}

// TypeTotal aggregates transactions of one type.
type TypeTotal struct {
	Type  store.TransactionType `json:"type"`
	Count int64                 `json:"count"`
	Total decimal.Decimal       `json:"total"`
}

// MonthlyReport groups a calendar month by transaction type.
type MonthlyReport struct {
	Year   int         `json:"year"`
	Month  int         `json:"month"`
	Totals []TypeTotal `json:"totals"`
}

// NamedQuantity is a quantity grouped by item name.
type NamedQuantity struct {
	Name     string `json:"name"`
	Quantity int64  `json:"quantity"`
}

// SizeQuantity is a quantity grouped by size.
type SizeQuantity struct {
	Size     string `json:"size"`
	Quantity int64  `json:"quantity"`
}

// StockSummary is the dashboard stock overview.
type StockSummary struct {
	RawMaterials       []NamedQuantity `json:"raw_materials"`
	FinishedGoods      []SizeQuantity  `json:"finished_goods"`
	TotalRawValue      decimal.Decimal `json:"total_raw_value"`
	TotalFinishedValue decimal.Decimal `json:"total_finished_value"`
	DisplayRawValue    string          `json:"display_raw_value"`
	DisplayFinished    string          `json:"display_finished_value"`
}

// SalesDay aggregates sale rows of one calendar day.
type SalesDay struct {
	Date             string          `json:"date"`
	TransactionCount int64           `json:"transaction_count"`
	TotalSales       decimal.Decimal `json:"total_sales"`
	TotalQuantity    int64           `json:"total_quantity"`
}

// StockLine is one stock entry with its level band.
type StockLine struct {
	store.StockEntry
	Level string `json:"stock_level"`
}

// LevelFor bands a quantity into LOW, MEDIUM or HIGH.
func LevelFor(qty int64) string {
	switch {
	case qty <= 10:
		return LevelLow
	case qty <= 25:
		return LevelMedium
	default:
		return LevelHigh
	}
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
