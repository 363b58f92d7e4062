// Package catalog serves the static product and raw material lists.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/vpants/bookkeeper/internal/platform/httpx"
	"github.com/vpants/bookkeeper/internal/store"
)

var (
	// ErrProductNotFound is returned when no catalog row matches name and size.
	ErrProductNotFound = fmt.Errorf("%w: catalog: product not found", httpx.ErrNotFound)
	// ErrRawMaterialNotFound is returned for unknown material ids.
	ErrRawMaterialNotFound = fmt.Errorf("%w: catalog: raw material not found", httpx.ErrNotFound)
)

// Service exposes catalog lookups.
type Service struct {
	store store.Reader
}

// NewService builds Service.
func NewService(st store.Reader) *Service {
	return &Service{store: st}
}

// Products lists the catalog ordered by name and size.
func (s *Service) Products(ctx context.Context) ([]store.Product, error) {
	return s.store.ListProducts(ctx)
}

// RawMaterials lists purchasable materials ordered by name.
func (s *Service) RawMaterials(ctx context.Context) ([]store.RawMaterial, error) {
	return s.store.ListRawMaterials(ctx)
}

// Product returns the first catalog row for name and size.
func (s *Service) Product(ctx context.Context, name, size string) (store.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return store.Product{}, err
	}
	for _, p := range products {
		if p.Name == name && p.Size == size {
			return p, nil
		}
	}
	return store.Product{}, fmt.Errorf("%w: %s %s", ErrProductNotFound, name, size)
}

// RawMaterial returns the material with id.
func (s *Service) RawMaterial(ctx context.Context, id int64) (store.RawMaterial, error) {
	m, err := s.store.GetRawMaterial(ctx, id)
	if errors.Is(err, store.ErrRawMaterialNotFound) {
		return store.RawMaterial{}, fmt.Errorf("%w: %d", ErrRawMaterialNotFound, id)
	}
	if err != nil {
		return store.RawMaterial{}, fmt.Errorf("catalog: raw material %d: %w", id, err)
	}
	return m, nil
}
