package inventory

import (
	"fmt"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

var (
	// ErrNegativeStock indicates an adjustment would drive a quantity below zero.
	ErrNegativeStock = fmt.Errorf("%w: inventory: stock cannot be negative", httpx.ErrValidation)
	// ErrUnknownItem indicates a reduction of a key that has no stock entry.
	ErrUnknownItem = fmt.Errorf("%w: inventory: cannot reduce stock for non-existent item", httpx.ErrValidation)
	// ErrInvalidQuantity indicates a zero delta or one the quantity cannot hold.
	ErrInvalidQuantity = fmt.Errorf("%w: inventory: invalid adjustment quantity", httpx.ErrValidation)
	// ErrInvalidItem indicates a missing name, unknown item type or size.
	ErrInvalidItem = fmt.Errorf("%w: inventory: invalid item", httpx.ErrValidation)
)

// AdjustInput describes one signed stock movement.
type AdjustInput struct {
	ItemType store.ItemType
	ItemName string
	Size     string
	Delta    int64
	Notes    string
	// Ref groups the audit row with the other rows of the same user action.
	Ref string
	// SkipAudit suppresses the stock_adjustment transaction row.
	SkipAudit bool
}

// Key returns the stock identity addressed by the input.
func (in AdjustInput) Key() store.StockKey {
	return store.StockKey{ItemType: in.ItemType, ItemName: in.ItemName, Size: in.Size}
}

func (in AdjustInput) validate() error {
	if err := validateKey(in.Key()); err != nil {
		return err
	}
	if in.Delta == 0 {
		return ErrInvalidQuantity
	}
	return nil
}

func validateKey(key store.StockKey) error {
	if key.ItemName == "" {
		return fmt.Errorf("%w: name required", ErrInvalidItem)
	}
	if !key.ItemType.Valid() {
		return fmt.Errorf("%w: item type %q", ErrInvalidItem, key.ItemType)
	}
	return nil
}
