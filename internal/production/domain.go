package production

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

// Transaction categories used by production flows.
const (
	CategoryLabor            = "production_labor"
	CategoryPacking          = "packing"
	CategoryMaterialPurchase = "material_purchase"
)

// ErrInvalidInput is returned for malformed production input.
var ErrInvalidInput = fmt.Errorf("%w: production: invalid input", httpx.ErrValidation)

// MaterialUse is one raw material consumed by a batch.
type MaterialUse struct {
	MaterialID int64
	Quantity   int64
}

// ProductionInput describes one production run. LaborCost wins over
// CostPerPiece when both are set.
type ProductionInput struct {
	ProductName  string
	Size         string
	Quantity     int64
	LaborCost    decimal.Decimal
	CostPerPiece decimal.Decimal
	Materials    []MaterialUse
	Notes        string
}

// PackingInput describes packing loose pieces into packs.
type PackingInput struct {
	ProductName string
	Size        string
	PackSize    int64
	Quantity    int64
	PackCost    decimal.Decimal
}

// MaterialPurchaseInput describes a purchase of raw material. A zero
// TotalCost is priced from the catalog.
type MaterialPurchaseInput struct {
	MaterialID int64
	Quantity   int64
	TotalCost  decimal.Decimal
	Notes      string
}

// BatchResult is the outcome of a production run.
type BatchResult struct {
	Batch   store.ProductionBatch `json:"batch"`
	Balance decimal.Decimal       `json:"balance"`
	Stock   store.StockEntry      `json:"stock"`
}

// PackingResult is the outcome of a packing run.
type PackingResult struct {
	Loose   store.StockEntry  `json:"loose"`
	Packed  store.StockEntry  `json:"packed"`
	Posting store.Transaction `json:"transaction"`
	Balance decimal.Decimal   `json:"balance"`
}

// PurchaseResult is the outcome of a material purchase.
type PurchaseResult struct {
	Material store.RawMaterial `json:"material"`
	Stock    store.StockEntry  `json:"stock"`
	Posting  store.Transaction `json:"transaction"`
	Balance  decimal.Decimal   `json:"balance"`
}

// SummaryLine aggregates batches of one product and size.
type SummaryLine struct {
	ProductName string          `json:"product_name"`
	Size        string          `json:"size"`
	Quantity    int64           `json:"quantity"`
	TotalCost   decimal.Decimal `json:"total_cost"`
}

// PackName is the stock name of packs of size pieces of product.
func PackName(product string, size int64) string {
	return fmt.Sprintf("%s Pack %dpcs", product, size)
}
