package reporting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vpants/bookkeeper/internal/ledger"
	"github.com/vpants/bookkeeper/internal/shared"
	"github.com/vpants/bookkeeper/internal/store"
)

// Service computes reports from the store, caching results when a Cache is set.
type Service struct {
	store         store.Reader
	cache         *Cache
	logger        *slog.Logger
	loc           *time.Location
	fee           decimal.Decimal
	rawValue      decimal.Decimal
	finishedValue decimal.Decimal
	now           func() time.Time
}

// ServiceConfig groups optional settings. Zero values take the defaults.
type ServiceConfig struct {
	Location          *time.Location
	WithdrawalFee     decimal.Decimal
	RawUnitValue      decimal.Decimal
	FinishedUnitValue decimal.Decimal
}

// NewService wires a store reader with a Cache helper.
func NewService(st store.Reader, cache *Cache, cfg ServiceConfig, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	svc := &Service{
		store:         st,
		cache:         cache,
		logger:        logger,
		loc:           cfg.Location,
		fee:           cfg.WithdrawalFee,
		rawValue:      cfg.RawUnitValue,
		finishedValue: cfg.FinishedUnitValue,
		now:           time.Now,
	}
	if svc.loc == nil {
		svc.loc = time.UTC
	}
	if svc.fee.IsZero() {
		svc.fee = ledger.DefaultWithdrawalFee
	}
	if svc.rawValue.IsZero() {
		svc.rawValue = DefaultRawUnitValue
	}
	if svc.finishedValue.IsZero() {
		svc.finishedValue = DefaultFinishedUnitValue
	}
	return svc
}

// Location returns the zone calendar days are computed in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// DailyProfit reports income, expenses and profit for the calendar day of
// date. A zero date means today.
func (s *Service) DailyProfit(ctx context.Context, date time.Time) (DailyProfit, error) {
	if date.IsZero() {
		date = s.now()
	}
	start := s.startOfDay(date)
	var out DailyProfit
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.dailyProfit(ctx, start)
	}, "daily_profit", dayKey(start))
	return out, err
}

func (s *Service) dailyProfit(ctx context.Context, start time.Time) (DailyProfit, error) {
	rows, err := s.store.ListTransactions(ctx, store.TransactionFilter{From: start, To: start.AddDate(0, 0, 1)})
	if err != nil {
		return DailyProfit{}, fmt.Errorf("reporting: daily transactions: %w", err)
	}
	income := decimal.Zero
	expenses := decimal.Zero
	var withdrawals int64
	for _, t := range rows {
		switch t.Type {
		case store.TypeSale, store.TypeSEIncome:
			income = income.Add(t.Amount)
		case store.TypePurchase, store.TypeExpense:
			expenses = expenses.Add(t.Amount)
		case store.TypeWithdrawal:
			withdrawals++
		}
	}
	fees := s.fee.Mul(decimal.NewFromInt(withdrawals))
	expenses = expenses.Add(fees)
	return DailyProfit{
		Date:             dayKey(start),
		Income:           income,
		Expenses:         expenses,
		WithdrawalFees:   fees,
		Profit:           income.Sub(expenses),
		TransactionCount: int64(len(rows)),
	}, nil
}

// MonthlyReport groups the transactions of one calendar month by type.
func (s *Service) MonthlyReport(ctx context.Context, year, month int) (MonthlyReport, error) {
	if month < 1 || month > 12 || year < 1 {
		return MonthlyReport{}, fmt.Errorf("%w: %04d-%02d", ErrInvalidPeriod, year, month)
	}
	var out MonthlyReport
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.monthlyReport(ctx, year, month)
	}, "monthly", strconv.Itoa(year), strconv.Itoa(month))
	return out, err
}

func (s *Service) monthlyReport(ctx context.Context, year, month int) (MonthlyReport, error) {
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, s.loc)
	rows, err := s.store.ListTransactions(ctx, store.TransactionFilter{From: start, To: start.AddDate(0, 1, 0)})
	if err != nil {
		return MonthlyReport{}, fmt.Errorf("reporting: monthly transactions: %w", err)
	}
	byType := map[store.TransactionType]*TypeTotal{}
	for _, t := range rows {
		total, ok := byType[t.Type]
		if !ok {
			total = &TypeTotal{Type: t.Type, Total: decimal.Zero}
			byType[t.Type] = total
		}
		total.Count++
		total.Total = total.Total.Add(t.Amount)
	}
	out := MonthlyReport{Year: year, Month: month, Totals: make([]TypeTotal, 0, len(byType))}
	for _, typ := range store.TransactionTypes {
		if total, ok := byType[typ]; ok {
			out.Totals = append(out.Totals, *total)
		}
	}
	return out, nil
}

// TransactionHistory lists every transaction from the trailing days, newest first.
func (s *Service) TransactionHistory(ctx context.Context, days int) ([]store.Transaction, error) {
	return s.history(ctx, days, 0)
}

// RecentTransactions is TransactionHistory capped to the dashboard size.
func (s *Service) RecentTransactions(ctx context.Context, days int) ([]store.Transaction, error) {
	return s.history(ctx, days, RecentLimit)
}

func (s *Service) history(ctx context.Context, days, limit int) ([]store.Transaction, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", ErrInvalidPeriod)
	}
	from := s.startOfDay(s.now()).AddDate(0, 0, -days)
	rows, err := s.store.ListTransactions(ctx, store.TransactionFilter{From: from, Limit: limit})
	if err != nil {
		return nil, fmt.Errorf("reporting: history: %w", err)
	}
	return rows, nil
}

// StockSummary groups raw stock by name and finished goods by size, valued
// at the placeholder unit prices.
func (s *Service) StockSummary(ctx context.Context) (StockSummary, error) {
	var out StockSummary
	err := s.cached(ctx, &out, s.stockSummary, "stock_summary")
	return out, err
}

func (s *Service) stockSummary(ctx context.Context) (any, error) {
	entries, err := s.store.ListStock(ctx, store.StockFilter{})
	if err != nil {
		return nil, fmt.Errorf("reporting: stock: %w", err)
	}
	raw := map[string]int64{}
	finished := map[string]int64{}
	var rawQty, finishedQty int64
	for _, e := range entries {
		switch e.ItemType {
		case store.ItemRaw:
			raw[e.ItemName] += e.Quantity
			rawQty += e.Quantity
		case store.ItemFinished:
			finishedQty += e.Quantity
			if e.Size != "" {
				finished[e.Size] += e.Quantity
			}
		}
	}
	out := StockSummary{
		RawMaterials:       make([]NamedQuantity, 0, len(raw)),
		FinishedGoods:      make([]SizeQuantity, 0, len(finished)),
		TotalRawValue:      s.rawValue.Mul(decimal.NewFromInt(rawQty)),
		TotalFinishedValue: s.finishedValue.Mul(decimal.NewFromInt(finishedQty)),
	}
	for name, qty := range raw {
		out.RawMaterials = append(out.RawMaterials, NamedQuantity{Name: name, Quantity: qty})
	}
	sort.Slice(out.RawMaterials, func(i, j int) bool { return out.RawMaterials[i].Name < out.RawMaterials[j].Name })
	for size, qty := range finished {
		out.FinishedGoods = append(out.FinishedGoods, SizeQuantity{Size: size, Quantity: qty})
	}
	sort.Slice(out.FinishedGoods, func(i, j int) bool { return sizeRank(out.FinishedGoods[i].Size) < sizeRank(out.FinishedGoods[j].Size) })
	out.DisplayRawValue = shared.FormatRupiah(out.TotalRawValue)
	out.DisplayFinished = shared.FormatRupiah(out.TotalFinishedValue)
	return out, nil
}

// LowStock lists entries at or below threshold, lowest first.
func (s *Service) LowStock(ctx context.Context, threshold int64) ([]store.StockEntry, error) {
	entries, err := s.store.ListStock(ctx, store.StockFilter{MaxQuantity: &threshold})
	if err != nil {
		return nil, fmt.Errorf("reporting: low stock: %w", err)
	}
	return entries, nil
}

// SalesReport aggregates sale rows per calendar day over the trailing days,
// newest day first.
func (s *Service) SalesReport(ctx context.Context, days int) ([]SalesDay, error) {
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", ErrInvalidPeriod)
	}
	var out []SalesDay
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		return s.salesReport(ctx, days)
	}, "sales", dayKey(s.startOfDay(s.now())), strconv.Itoa(days))
	return out, err
}

func (s *Service) salesReport(ctx context.Context, days int) ([]SalesDay, error) {
	from := s.startOfDay(s.now()).AddDate(0, 0, -days)
	rows, err := s.store.ListTransactions(ctx, store.TransactionFilter{Types: []store.TransactionType{store.TypeSale}, From: from})
	if err != nil {
		return nil, fmt.Errorf("reporting: sales: %w", err)
	}
	byDay := map[string]*SalesDay{}
	for _, t := range rows {
		key := dayKey(t.CreatedAt.In(s.loc))
		day, ok := byDay[key]
		if !ok {
			day = &SalesDay{Date: key, TotalSales: decimal.Zero}
			byDay[key] = day
		}
		day.TransactionCount++
		day.TotalSales = day.TotalSales.Add(t.Amount)
		if t.Quantity != nil {
			day.TotalQuantity += *t.Quantity
		}
	}
	out := make([]SalesDay, 0, len(byDay))
	for _, day := range byDay {
		out = append(out, *day)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

// StockReport lists every stock entry with its level band.
func (s *Service) StockReport(ctx context.Context) ([]StockLine, error) {
	var out []StockLine
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		entries, err := s.store.ListStock(ctx, store.StockFilter{})
		if err != nil {
			return nil, fmt.Errorf("reporting: stock report: %w", err)
		}
		lines := make([]StockLine, 0, len(entries))
		for _, e := range entries {
			lines = append(lines, StockLine{StockEntry: e, Level: LevelFor(e.Quantity)})
		}
		return lines, nil
	}, "stock_report")
	return out, err
}

// Warmup precomputes today's daily profit and the stock summary.
func (s *Service) Warmup(ctx context.Context) error {
	if _, err := s.DailyProfit(ctx, time.Time{}); err != nil {
		return err
	}
	_, err := s.StockSummary(ctx)
	return err
}

func (s *Service) startOfDay(t time.Time) time.Time {
	local := t.In(s.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)
}

// cached serves dest from the cache, computing it with load on a miss. Cache
// outages degrade to a direct load; load failures are returned as is.
func (s *Service) cached(ctx context.Context, dest any, load func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err == nil {
		err = s.cache.FetchJSON(ctx, key, dest, load)
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			return loadErr.Err
		}
		if err == nil || ctx.Err() != nil {
			return err
		}
	}
	s.logger.Warn("report cache unavailable", slog.Any("error", err))
	v, err := load(ctx)
	if err != nil {
		return err
	}
	return roundTrip(v, dest)
}

func sizeRank(size string) int {
	for i, known := range []string{store.SizeS, store.SizeM, store.SizeL, store.SizeXL, store.SizeXXL, store.SizeMixed, store.SizePacked} {
		if size == known {
			return i
		}
	}
	return 100
}
