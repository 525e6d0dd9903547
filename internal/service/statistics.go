package service

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/flicky/agri-backoffice/internal/dto"
	"github.com/flicky/agri-backoffice/internal/model"
	"github.com/flicky/agri-backoffice/internal/repository"
)

const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
	PeriodYear  = "year"
	PeriodAll   = "all"

	ChartSalesByZone = "salesByZone"
	ChartDemandPeaks = "demandPeaks"
	ChartTopProducts = "topProducts"

	UnspecifiedZone = "Non spécifiée"
	UnknownProduct  = "Produit inconnu"

	topProductsLimit = 10
)

// Zones are the region names searched for in order addresses, in match order.
var Zones = []string{
	"Dakar", "Thiès", "Saint-Louis", "Kaolack", "Ziguinchor", "Tambacounda", "Louga",
	"Fatick", "Kolda", "Matam", "Kaffrine", "Kédougou", "Sédhiou",
}

// ZoneOf returns the first known region named in address, or the
// unspecified bucket.
func ZoneOf(address string) string {
	addr := strings.ToLower(address)
	for _, z := range Zones {
		if strings.Contains(addr, strings.ToLower(z)) {
			return z
		}
	}
	return UnspecifiedZone
}

// PeriodStart returns the earliest creation time included in period; the
// zero time means no lower bound.
func PeriodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case PeriodWeek:
		return now.AddDate(0, 0, -7), nil
	case "", PeriodMonth:
		return now.AddDate(0, -1, 0), nil
	case PeriodYear:
		return now.AddDate(-1, 0, 0), nil
	case PeriodAll:
		return time.Time{}, nil
	default:
		return time.Time{}, invalid("period", "must be one of week, month, year, all")
	}
}

type StatisticsService struct {
	orders repository.OrderRepository
	charts *ChartRegistry
	now    func() time.Time
}

func NewStatisticsService(orders repository.OrderRepository, charts *ChartRegistry) *StatisticsService {
	if charts == nil {
		charts = NewChartRegistry()
	}
	return &StatisticsService{orders: orders, charts: charts, now: time.Now}
}

// Charts recomputes the three order charts for period and replaces the
// previously registered ones.
func (s *StatisticsService) Charts(ctx context.Context, period string) (*dto.StatisticsResponse, error) {
	if period == "" {
		period = PeriodMonth
	}
	from, err := PeriodStart(period, s.now())
	if err != nil {
		return nil, err
	}
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, err
	}
	orders = ordersSince(orders, from)

	built := []*Chart{
		NewChart(ChartSalesByZone, "bar", "Ventes (FCFA)", SalesByZone(orders)),
		NewChart(ChartDemandPeaks, "line", "Nombre de commandes", DailyDemand(orders)),
		NewChart(ChartTopProducts, "doughnut", "Produits les plus vendus", TopProducts(orders, topProductsLimit)),
	}

	resp := &dto.StatisticsResponse{Period: period, Orders: len(orders)}
	for _, c := range built {
		// A concurrent request may replace, and so dispose, c once it is
		// registered.
		resp.Charts = append(resp.Charts, c.Response())
		s.charts.Replace(c)
	}
	return resp, nil
}

func ordersSince(orders []model.Order, from time.Time) []model.Order {
	if from.IsZero() {
		return orders
	}
	out := make([]model.Order, 0, len(orders))
	for _, o := range orders {
		if !o.CreatedAt.Before(from) {
			out = append(out, o)
		}
	}
	return out
}

// SalesByZone sums order totals per region, in region order with the
// unspecified bucket last. Regions without sales are omitted.
func SalesByZone(orders []model.Order) []dto.SeriesPoint {
	totals := map[string]decimal.Decimal{}
	for _, o := range orders {
		z := ZoneOf(o.Address)
		totals[z] = totals[z].Add(o.TotalAmount)
	}
	out := make([]dto.SeriesPoint, 0, len(totals))
	for _, z := range append(slices.Clone(Zones), UnspecifiedZone) {
		if v, ok := totals[z]; ok {
			out = append(out, dto.SeriesPoint{Label: z, Value: v})
		}
	}
	return out
}

// DailyDemand counts orders per UTC calendar day, oldest first. Orders
// without a creation time are skipped.
func DailyDemand(orders []model.Order) []dto.SeriesPoint {
	counts := map[string]int64{}
	for _, o := range orders {
		if o.CreatedAt.IsZero() {
			continue
		}
		counts[o.CreatedAt.UTC().Format(time.DateOnly)]++
	}
	days := make([]string, 0, len(counts))
	for d := range counts {
		days = append(days, d)
	}
	sort.Strings(days)

	out := make([]dto.SeriesPoint, 0, len(days))
	for _, d := range days {
		out = append(out, dto.SeriesPoint{Label: d, Value: decimal.NewFromInt(counts[d])})
	}
	return out
}

// TopProducts ranks line items by total quantity, ties broken by name.
func TopProducts(orders []model.Order, limit int) []dto.SeriesPoint {
	qty := map[string]int64{}
	for _, o := range orders {
		for _, it := range o.Items {
			name := it.ProductName
			if name == "" {
				name = UnknownProduct
			}
			qty[name] += int64(it.Quantity)
		}
	}
	names := make([]string, 0, len(qty))
	for n := range qty {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool {
		if qty[names[i]] != qty[names[j]] {
			return qty[names[i]] > qty[names[j]]
		}
		return names[i] < names[j]
	})
	if len(names) > limit {
		names = names[:limit]
	}

	out := make([]dto.SeriesPoint, 0, len(names))
	for _, n := range names {
		out = append(out, dto.SeriesPoint{Label: n, Value: decimal.NewFromInt(qty[n])})
	}
	return out
}

// Chart is a rendered chart handle. A disposed chart holds no data.
type Chart struct {
	ID    string
	Type  string
	Title string

	mu       sync.Mutex
	series   []dto.SeriesPoint
	disposed bool
}

func NewChart(id, typ, title string, series []dto.SeriesPoint) *Chart {
	return &Chart{ID: id, Type: typ, Title: title, series: series}
}

func (c *Chart) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.series = nil
	c.disposed = true
}

func (c *Chart) Disposed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disposed
}

func (c *Chart) Response() dto.ChartResponse {
	c.mu.Lock()
	defer c.mu.Unlock()
	series := c.series
	if series == nil {
		series = []dto.SeriesPoint{}
	}
	return dto.ChartResponse{ID: c.ID, Type: c.Type, Title: c.Title, Series: series}
}

// ChartRegistry holds the live chart per id. Registering a chart disposes
// the one it replaces.
type ChartRegistry struct {
	mu     sync.Mutex
	charts map[string]*Chart
}

func NewChartRegistry() *ChartRegistry {
	return &ChartRegistry{charts: make(map[string]*Chart)}
}

func (r *ChartRegistry) Replace(c *Chart) {
	r.mu.Lock()
	prev := r.charts[c.ID]
	r.charts[c.ID] = c
	r.mu.Unlock()
	if prev != nil && prev != c {
		prev.Dispose()
	}
}

func (r *ChartRegistry) Get(id string) (*Chart, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.charts[id]
	return c, ok
}

// Close disposes every registered chart.
func (r *ChartRegistry) Close() {
	r.mu.Lock()
	charts := r.charts
	r.charts = make(map[string]*Chart)
	r.mu.Unlock()
	for _, c := range charts {
		c.Dispose()
	}
}
