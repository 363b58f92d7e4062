package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vpants/bookkeeper/internal/platform/db"
)

// ledgerLockKey is the advisory lock id guarding finance postings.
const ledgerLockKey int64 = 0x7670616e7473

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres persists bookkeeping data in PostgreSQL.
type Postgres struct {
	pool *pgxpool.Pool
	reader
}

// NewPostgres constructs the PostgreSQL store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool, reader: reader{q: pool}}
}

type reader struct {
	q querier
}

type pgTx struct {
	reader
	tx pgx.Tx
}

// WithTx executes fn inside a read-committed transaction. Finance postings
// serialise on LockLedger and stock rows are taken FOR UPDATE, so every
// statement after the lock observes the latest committed state.
func (p *Postgres) WithTx(ctx context.Context, fn func(context.Context, Tx) error) error {
	if p == nil || p.pool == nil {
		return errors.New("store: postgres not initialised")
	}
	return db.WithTx(ctx, p.pool, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(ctx, &pgTx{reader: reader{q: tx}, tx: tx})
	})
}

// CountProducts returns the number of catalog rows.
func (p *Postgres) CountProducts(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM products`)
}

// CountStock returns the number of stock entries.
func (p *Postgres) CountStock(ctx context.Context) (int64, error) {
	return p.count(ctx, `SELECT COUNT(*) FROM stock`)
}

func (r reader) count(ctx context.Context, sql string, args ...any) (int64, error) {
	var n int64
	if err := r.q.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r reader) LatestSnapshot(ctx context.Context) (Snapshot, error) {
	return r.latestSnapshot(ctx)
}

func (r reader) latestSnapshot(ctx context.Context) (Snapshot, error) {
	var snap Snapshot
	err := r.q.QueryRow(ctx, `SELECT id, current_balance, total_income, total_expenses, last_updated
FROM finance ORDER BY last_updated DESC, id DESC LIMIT 1`).
		Scan(&snap.ID, &snap.CurrentBalance, &snap.TotalIncome, &snap.TotalExpenses, &snap.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Snapshot{}, ErrSnapshotNotFound
		}
		return Snapshot{}, err
	}
	return snap, nil
}

func (r reader) CountSnapshots(ctx context.Context) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM finance`)
}

const transactionColumns = `id, COALESCE(ref::text, ''), type, category, amount, quantity, COALESCE(size, ''), COALESCE(unit, ''), discount, COALESCE(notes, ''), created_at`

const transactionWhere = `WHERE ($1::text[] IS NULL OR type = ANY($1))
AND ($2::timestamptz IS NULL OR created_at >= $2)
AND ($3::timestamptz IS NULL OR created_at < $3)`

func (r reader) ListTransactions(ctx context.Context, filter TransactionFilter) ([]Transaction, error) {
	rows, err := r.q.Query(ctx, `SELECT `+transactionColumns+`
FROM transactions `+transactionWhere+`
ORDER BY created_at DESC, id DESC
LIMIT $4`, typeArgs(filter.Types), nullTime(filter.From), nullTime(filter.To), nullLimit(filter.Limit))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.Ref, &t.Type, &t.Category, &t.Amount, &t.Quantity, &t.Size, &t.Unit, &t.Discount, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r reader) CountTransactions(ctx context.Context, filter TransactionFilter) (int64, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM transactions `+transactionWhere,
		typeArgs(filter.Types), nullTime(filter.From), nullTime(filter.To))
}

func (r reader) ListStock(ctx context.Context, filter StockFilter) ([]StockEntry, error) {
	var maxQty any
	order := `item_type, item_name, size`
	if filter.MaxQuantity != nil {
		maxQty = *filter.MaxQuantity
		order = `quantity ASC, item_type, item_name, size`
	}
	rows, err := r.q.Query(ctx, `SELECT item_type, item_name, size, quantity, last_updated
FROM stock
WHERE ($1::text IS NULL OR item_type = $1)
AND ($2::bigint IS NULL OR quantity <= $2)
ORDER BY `+order, nullString(string(filter.ItemType)), maxQty)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []StockEntry{}
	for rows.Next() {
		var e StockEntry
		if err := rows.Scan(&e.ItemType, &e.ItemName, &e.Size, &e.Quantity, &e.LastUpdated); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r reader) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, size, selling_price, cost_per_piece, pieces_per_pack
FROM products ORDER BY name, size, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Size, &p.SellingPrice, &p.CostPerPiece, &p.PiecesPerPack); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r reader) ListRawMaterials(ctx context.Context) ([]RawMaterial, error) {
	rows, err := r.q.Query(ctx, `SELECT id, name, unit, cost_per_unit FROM raw_materials ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []RawMaterial{}
	for rows.Next() {
		var m RawMaterial
		if err := rows.Scan(&m.ID, &m.Name, &m.Unit, &m.CostPerUnit); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r reader) GetRawMaterial(ctx context.Context, id int64) (RawMaterial, error) {
	var m RawMaterial
	err := r.q.QueryRow(ctx, `SELECT id, name, unit, cost_per_unit FROM raw_materials WHERE id=$1`, id).
		Scan(&m.ID, &m.Name, &m.Unit, &m.CostPerUnit)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return RawMaterial{}, ErrRawMaterialNotFound
		}
		return RawMaterial{}, err
	}
	return m, nil
}

func (r reader) ListProductionBatches(ctx context.Context, since time.Time) ([]ProductionBatch, error) {
	rows, err := r.q.Query(ctx, `SELECT id, COALESCE(ref::text, ''), product_name, size, quantity_produced, labor_cost, materials_cost, total_cost, COALESCE(notes, ''), created_at
FROM production_batches
WHERE ($1::timestamptz IS NULL OR created_at >= $1)
ORDER BY created_at DESC, id DESC`, nullTime(since))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []ProductionBatch{}
	for rows.Next() {
		var b ProductionBatch
		if err := rows.Scan(&b.ID, &b.Ref, &b.ProductName, &b.Size, &b.QuantityProduced, &b.LaborCost, &b.MaterialsCost, &b.TotalCost, &b.Notes, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *pgTx) LockLedger(ctx context.Context) error {
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey)
	return err
}

func (t *pgTx) InsertSnapshot(ctx context.Context, snap Snapshot) (Snapshot, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO finance (current_balance, total_income, total_expenses, last_updated)
VALUES ($1,$2,$3,clock_timestamp()) RETURNING id, last_updated`, snap.CurrentBalance, snap.TotalIncome, snap.TotalExpenses).
		Scan(&snap.ID, &snap.LastUpdated)
	return snap, err
}

func (t *pgTx) InsertTransaction(ctx context.Context, tr Transaction) (Transaction, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO transactions (ref, type, category, amount, quantity, size, unit, discount, notes, created_at)
VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,$9,clock_timestamp()) RETURNING id, created_at`,
		nullString(tr.Ref), string(tr.Type), tr.Category, tr.Amount, tr.Quantity, nullString(tr.Size), nullString(tr.Unit), tr.Discount, nullString(tr.Notes)).
		Scan(&tr.ID, &tr.CreatedAt)
	return tr, err
}

func (t *pgTx) GetStockForUpdate(ctx context.Context, key StockKey) (StockEntry, error) {
	var e StockEntry
	err := t.tx.QueryRow(ctx, `SELECT item_type, item_name, size, quantity, last_updated
FROM stock WHERE item_type=$1 AND item_name=$2 AND size=$3 FOR UPDATE`, string(key.ItemType), key.ItemName, key.Size).
		Scan(&e.ItemType, &e.ItemName, &e.Size, &e.Quantity, &e.LastUpdated)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StockEntry{StockKey: key}, ErrStockNotFound
		}
		return StockEntry{}, err
	}
	return e, nil
}

func (t *pgTx) InsertStock(ctx context.Context, entry StockEntry) error {
	// ON CONFLICT keeps the transaction usable when another writer created the key first.
	tag, err := t.tx.Exec(ctx, `INSERT INTO stock (item_type, item_name, size, quantity, last_updated)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (item_type, item_name, size) DO NOTHING`, string(entry.ItemType), entry.ItemName, entry.Size, entry.Quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateStock
	}
	return nil
}

func (t *pgTx) UpdateStockQuantity(ctx context.Context, key StockKey, qty int64) error {
	tag, err := t.tx.Exec(ctx, `UPDATE stock SET quantity=$4, last_updated=NOW()
WHERE item_type=$1 AND item_name=$2 AND size=$3`, string(key.ItemType), key.ItemName, key.Size, qty)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStockNotFound
	}
	return nil
}

func (t *pgTx) UpsertStock(ctx context.Context, entry StockEntry) error {
	_, err := t.tx.Exec(ctx, `INSERT INTO stock (item_type, item_name, size, quantity, last_updated)
VALUES ($1,$2,$3,$4,NOW())
ON CONFLICT (item_type, item_name, size) DO UPDATE SET quantity=EXCLUDED.quantity, last_updated=NOW()`,
		string(entry.ItemType), entry.ItemName, entry.Size, entry.Quantity)
	return err
}

func (t *pgTx) InsertProductionBatch(ctx context.Context, b ProductionBatch) (ProductionBatch, error) {
	err := t.tx.QueryRow(ctx, `INSERT INTO production_batches (ref, product_name, size, quantity_produced, labor_cost, materials_cost, total_cost, notes, created_at)
VALUES ($1::uuid,$2,$3,$4,$5,$6,$7,$8,clock_timestamp()) RETURNING id, created_at`,
		nullString(b.Ref), b.ProductName, b.Size, b.QuantityProduced, b.LaborCost, b.MaterialsCost, b.TotalCost, nullString(b.Notes)).
		Scan(&b.ID, &b.CreatedAt)
	return b, err
}

func (t *pgTx) ReplaceProducts(ctx context.Context, products []Product) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM products`); err != nil {
		return err
	}
	for _, p := range products {
		if _, err := t.tx.Exec(ctx, `INSERT INTO products (name, size, selling_price, cost_per_piece, pieces_per_pack, created_at)
VALUES ($1,$2,$3,$4,$5,NOW())`, p.Name, p.Size, p.SellingPrice, p.CostPerPiece, p.PiecesPerPack); err != nil {
			return err
		}
	}
	return nil
}

func (t *pgTx) ReplaceRawMaterials(ctx context.Context, materials []RawMaterial) error {
	if _, err := t.tx.Exec(ctx, `DELETE FROM raw_materials`); err != nil {
		return err
	}
	for _, m := range materials {
		if _, err := t.tx.Exec(ctx, `INSERT INTO raw_materials (name, unit, cost_per_unit, created_at)
VALUES ($1,$2,$3,NOW())`, m.Name, m.Unit, m.CostPerUnit); err != nil {
			return err
		}
	}
	return nil
}

func typeArgs(types []TransactionType) any {
	if len(types) == 0 {
		return nil
	}
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func nullString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullLimit(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
