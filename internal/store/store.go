// Package store holds the persisted bookkeeping records and the ports the
// services use to read and write them.
package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSnapshotNotFound indicates the finance history is empty.
	ErrSnapshotNotFound = errors.New("store: finance snapshot not found")
	// ErrStockNotFound indicates a missing stock key.
	ErrStockNotFound = errors.New("store: stock entry not found")
	// ErrRawMaterialNotFound indicates a missing raw material id.
	ErrRawMaterialNotFound = errors.New("store: raw material not found")
	// ErrProductNotFound indicates a missing product.
	ErrProductNotFound = errors.New("store: product not found")
	// ErrDuplicateStock indicates a concurrent insert of the same stock key.
	ErrDuplicateStock = errors.New("store: stock entry already exists")
)

// Reader exposes the read-only queries.
type Reader interface {
	LatestSnapshot(ctx context.Context) (Snapshot, error)
	CountSnapshots(ctx context.Context) (int64, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error)
	CountTransactions(ctx context.Context, filter TransactionFilter) (int64, error)
	ListStock(ctx context.Context, filter StockFilter) ([]StockEntry, error)
	ListProducts(ctx context.Context) ([]Product, error)
	ListRawMaterials(ctx context.Context) ([]RawMaterial, error)
	GetRawMaterial(ctx context.Context, id int64) (RawMaterial, error)
	ListProductionBatches(ctx context.Context, since time.Time) ([]ProductionBatch, error)
}

// Tx exposes the mutations available inside one unit of work. Every write made
// through a Tx commits or rolls back together.
type Tx interface {
	Reader
	// LockLedger serialises finance postings until the unit of work ends.
	LockLedger(ctx context.Context) error
	InsertSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error)
	InsertTransaction(ctx context.Context, t Transaction) (Transaction, error)
	// GetStockForUpdate locks and returns the entry for key.
	GetStockForUpdate(ctx context.Context, key StockKey) (StockEntry, error)
	InsertStock(ctx context.Context, entry StockEntry) error
	UpdateStockQuantity(ctx context.Context, key StockKey, qty int64) error
	// UpsertStock replaces the quantity of key, creating the entry when missing.
	UpsertStock(ctx context.Context, entry StockEntry) error
	InsertProductionBatch(ctx context.Context, batch ProductionBatch) (ProductionBatch, error)
	ReplaceProducts(ctx context.Context, products []Product) error
	ReplaceRawMaterials(ctx context.Context, materials []RawMaterial) error
}

// Store is the full persistence port.
type Store interface {
	Reader
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	CountProducts(ctx context.Context) (int64, error)
	CountStock(ctx context.Context) (int64, error)
}
