// Package memstore provides an in-memory store.Store used by tests and local
// experiments. Units of work run against a copy of the state which replaces
// the live state only when the callback succeeds.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vpants/bookkeeper/internal/store"
)

// Store is an in-memory implementation of store.Store.
type Store struct {
	mu    sync.Mutex
	state *state
	now   func() time.Time

	// FailInsertTransaction, when set, is returned by the next InsertTransaction call.
	FailInsertTransaction error
}

type state struct {
	snapshots    []store.Snapshot
	transactions []store.Transaction
	stock        map[store.StockKey]store.StockEntry
	products     []store.Product
	materials    []store.RawMaterial
	batches      []store.ProductionBatch
	nextID       int64
}

// New builds an empty store.
func New() *Store {
	return &Store{
		state: &state{stock: make(map[store.StockKey]store.StockEntry)},
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetClock overrides the timestamp source used for new rows.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// SeedRawMaterials installs catalog materials directly, assigning ids.
func (s *Store) SeedRawMaterials(materials ...store.RawMaterial) []store.RawMaterial {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.RawMaterial, 0, len(materials))
	for _, m := range materials {
		s.state.nextID++
		m.ID = s.state.nextID
		s.state.materials = append(s.state.materials, m)
		out = append(out, m)
	}
	return out
}

// Snapshots returns the full finance history, oldest first.
func (s *Store) Snapshots() []store.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]store.Snapshot(nil), s.state.snapshots...)
}

// WithTx runs fn against a private copy of the state.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, store.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	tx := &memTx{state: work, owner: s}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *Store) read() *state {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// LatestSnapshot implements store.Reader.
func (s *Store) LatestSnapshot(ctx context.Context) (store.Snapshot, error) {
	return s.read().LatestSnapshot(ctx)
}

// CountSnapshots implements store.Reader.
func (s *Store) CountSnapshots(ctx context.Context) (int64, error) {
	return s.read().CountSnapshots(ctx)
}

// ListTransactions implements store.Reader.
func (s *Store) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]store.Transaction, error) {
	return s.read().ListTransactions(ctx, filter)
}

// CountTransactions implements store.Reader.
func (s *Store) CountTransactions(ctx context.Context, filter store.TransactionFilter) (int64, error) {
	return s.read().CountTransactions(ctx, filter)
}

// ListStock implements store.Reader.
func (s *Store) ListStock(ctx context.Context, filter store.StockFilter) ([]store.StockEntry, error) {
	return s.read().ListStock(ctx, filter)
}

// ListProducts implements store.Reader.
func (s *Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	return s.read().ListProducts(ctx)
}

// ListRawMaterials implements store.Reader.
func (s *Store) ListRawMaterials(ctx context.Context) ([]store.RawMaterial, error) {
	return s.read().ListRawMaterials(ctx)
}

// GetRawMaterial implements store.Reader.
func (s *Store) GetRawMaterial(ctx context.Context, id int64) (store.RawMaterial, error) {
	return s.read().GetRawMaterial(ctx, id)
}

// ListProductionBatches implements store.Reader.
func (s *Store) ListProductionBatches(ctx context.Context, since time.Time) ([]store.ProductionBatch, error) {
	return s.read().ListProductionBatches(ctx, since)
}

// CountProducts implements store.Store.
func (s *Store) CountProducts(ctx context.Context) (int64, error) {
	return int64(len(s.read().products)), nil
}

// CountStock implements store.Store.
func (s *Store) CountStock(ctx context.Context) (int64, error) {
	return int64(len(s.read().stock)), nil
}

func (st *state) clone() *state {
	cp := &state{
		snapshots:    append([]store.Snapshot(nil), st.snapshots...),
		transactions: append([]store.Transaction(nil), st.transactions...),
		stock:        make(map[store.StockKey]store.StockEntry, len(st.stock)),
		products:     append([]store.Product(nil), st.products...),
		materials:    append([]store.RawMaterial(nil), st.materials...),
		batches:      append([]store.ProductionBatch(nil), st.batches...),
		nextID:       st.nextID,
	}
	for k, v := range st.stock {
		cp.stock[k] = v
	}
	return cp
}

func (st *state) LatestSnapshot(ctx context.Context) (store.Snapshot, error) {
	if len(st.snapshots) == 0 {
		return store.Snapshot{}, store.ErrSnapshotNotFound
	}
	return st.snapshots[len(st.snapshots)-1], nil
}

func (st *state) CountSnapshots(ctx context.Context) (int64, error) {
	return int64(len(st.snapshots)), nil
}

func (st *state) ListTransactions(ctx context.Context, filter store.TransactionFilter) ([]store.Transaction, error) {
	out := []store.Transaction{}
	for i := len(st.transactions) - 1; i >= 0; i-- {
		t := st.transactions[i]
		if !filter.Matches(t) {
			continue
		}
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (st *state) CountTransactions(ctx context.Context, filter store.TransactionFilter) (int64, error) {
	var n int64
	for _, t := range st.transactions {
		if filter.Matches(t) {
			n++
		}
	}
	return n, nil
}

func (st *state) ListStock(ctx context.Context, filter store.StockFilter) ([]store.StockEntry, error) {
	out := []store.StockEntry{}
	for _, e := range st.stock {
		if filter.ItemType != "" && e.ItemType != filter.ItemType {
			continue
		}
		if filter.MaxQuantity != nil && e.Quantity > *filter.MaxQuantity {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if filter.MaxQuantity != nil && a.Quantity != b.Quantity {
			return a.Quantity < b.Quantity
		}
		if a.ItemType != b.ItemType {
			return a.ItemType < b.ItemType
		}
		if a.ItemName != b.ItemName {
			return a.ItemName < b.ItemName
		}
		return a.Size < b.Size
	})
	return out, nil
}

func (st *state) ListProducts(ctx context.Context) ([]store.Product, error) {
	out := append([]store.Product{}, st.products...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		if out[i].Size != out[j].Size {
			return out[i].Size < out[j].Size
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (st *state) ListRawMaterials(ctx context.Context) ([]store.RawMaterial, error) {
	out := append([]store.RawMaterial{}, st.materials...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (st *state) GetRawMaterial(ctx context.Context, id int64) (store.RawMaterial, error) {
	for _, m := range st.materials {
		if m.ID == id {
			return m, nil
		}
	}
	return store.RawMaterial{}, store.ErrRawMaterialNotFound
}

func (st *state) ListProductionBatches(ctx context.Context, since time.Time) ([]store.ProductionBatch, error) {
	out := []store.ProductionBatch{}
	for i := len(st.batches) - 1; i >= 0; i-- {
		b := st.batches[i]
		if !since.IsZero() && b.CreatedAt.Before(since) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}

type memTx struct {
	*state
	owner *Store
}

func (t *memTx) LockLedger(ctx context.Context) error { return nil }

func (t *memTx) InsertSnapshot(ctx context.Context, snap store.Snapshot) (store.Snapshot, error) {
	t.nextID++
	snap.ID = t.nextID
	snap.LastUpdated = t.owner.now()
	t.snapshots = append(t.snapshots, snap)
	return snap, nil
}

func (t *memTx) InsertTransaction(ctx context.Context, tr store.Transaction) (store.Transaction, error) {
	if err := t.owner.FailInsertTransaction; err != nil {
		t.owner.FailInsertTransaction = nil
		return store.Transaction{}, err
	}
	t.nextID++
	tr.ID = t.nextID
	tr.CreatedAt = t.owner.now()
	t.transactions = append(t.transactions, tr)
	return tr, nil
}

func (t *memTx) GetStockForUpdate(ctx context.Context, key store.StockKey) (store.StockEntry, error) {
	if e, ok := t.stock[key]; ok {
		return e, nil
	}
	return store.StockEntry{StockKey: key}, store.ErrStockNotFound
}

func (t *memTx) InsertStock(ctx context.Context, entry store.StockEntry) error {
	if _, ok := t.stock[entry.StockKey]; ok {
		return store.ErrDuplicateStock
	}
	entry.LastUpdated = t.owner.now()
	t.stock[entry.StockKey] = entry
	return nil
}

func (t *memTx) UpdateStockQuantity(ctx context.Context, key store.StockKey, qty int64) error {
	e, ok := t.stock[key]
	if !ok {
		return store.ErrStockNotFound
	}
	e.Quantity = qty
	e.LastUpdated = t.owner.now()
	t.stock[key] = e
	return nil
}

func (t *memTx) UpsertStock(ctx context.Context, entry store.StockEntry) error {
	entry.LastUpdated = t.owner.now()
	t.stock[entry.StockKey] = entry
	return nil
}

func (t *memTx) InsertProductionBatch(ctx context.Context, b store.ProductionBatch) (store.ProductionBatch, error) {
	t.nextID++
	b.ID = t.nextID
	b.CreatedAt = t.owner.now()
	t.batches = append(t.batches, b)
	return b, nil
}

func (t *memTx) ReplaceProducts(ctx context.Context, products []store.Product) error {
	t.products = t.products[:0]
	for _, p := range products {
		t.nextID++
		p.ID = t.nextID
		t.products = append(t.products, p)
	}
	return nil
}

func (t *memTx) ReplaceRawMaterials(ctx context.Context, materials []store.RawMaterial) error {
	t.materials = t.materials[:0]
	for _, m := range materials {
		t.nextID++
		m.ID = t.nextID
		t.materials = append(t.materials, m)
	}
	return nil
}
