package fuel

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mamadbah2/fueldepot/internal/domain/models"
)

const monthLayout = "2006-01"

// Group is the aggregate of one grouping key.
type Group struct {
	Key     string          `json:"key"`
	Sum     decimal.Decimal `json:"sum"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
}

// Period is the sum of the records falling in one calendar month.
type Period struct {
	Month string          `json:"month"`
	Sum   decimal.Decimal `json:"sum"`
	Count int             `json:"count"`
}

// Summary holds the figures derived from a flat record set.
type Summary struct {
	Total   decimal.Decimal `json:"total"`
	Count   int             `json:"count"`
	Average decimal.Decimal `json:"average"`
	// Groups are listed in the order their key first appears.
	Groups []Group `json:"groups"`
	// Best is the group with the largest sum; nil when there are no records.
	Best   *Group   `json:"best,omitempty"`
	Months []Period `json:"months"`
}

// Aggregate sums value over records, grouped by key and by calendar month.
// On equal sums the best performer is the group seen first in records.
// date may be nil when no period buckets are wanted.
func Aggregate[T any](records []T, key func(T) string, value func(T) decimal.Decimal, date func(T) time.Time) Summary {
	out := Summary{
		Total:   decimal.Zero,
		Average: decimal.Zero,
		Groups:  []Group{},
		Months:  []Period{},
	}

	groupIdx := make(map[string]int)
	monthIdx := make(map[string]int)

	for _, rec := range records {
		v := value(rec)
		out.Total = out.Total.Add(v)
		out.Count++

		k := key(rec)
		i, ok := groupIdx[k]
		if !ok {
			i = len(out.Groups)
			groupIdx[k] = i
			out.Groups = append(out.Groups, Group{Key: k, Sum: decimal.Zero})
		}
		out.Groups[i].Sum = out.Groups[i].Sum.Add(v)
		out.Groups[i].Count++

		if date == nil {
			continue
		}
		m := date(rec).Format(monthLayout)
		j, ok := monthIdx[m]
		if !ok {
			j = len(out.Months)
			monthIdx[m] = j
			out.Months = append(out.Months, Period{Month: m, Sum: decimal.Zero})
		}
		out.Months[j].Sum = out.Months[j].Sum.Add(v)
		out.Months[j].Count++
	}

	if out.Count == 0 {
		return out
	}

	out.Average = out.Total.Div(decimal.NewFromInt(int64(out.Count)))
	for i := range out.Groups {
		g := &out.Groups[i]
		g.Average = g.Sum.Div(decimal.NewFromInt(int64(g.Count)))
		if out.Best == nil || g.Sum.GreaterThan(out.Best.Sum) {
			best := *g
			out.Best = &best
		}
	}

	slices.SortFunc(out.Months, func(a, b Period) int {
		if a.Month < b.Month {
			return -1
		}
		if a.Month > b.Month {
			return 1
		}
		return 0
	})

	return out
}

// SortedGroups returns the groups ordered by descending sum, first-seen order on ties.
func (s Summary) SortedGroups() []Group {
	groups := slices.Clone(s.Groups)
	slices.SortStableFunc(groups, func(a, b Group) int {
		return b.Sum.Cmp(a.Sum)
	})
	return groups
}

// StockSummary is the dashboard summary of the purchase ledger.
type StockSummary struct {
	InitialStock    decimal.Decimal `json:"initial_stock"`
	SafetyThreshold decimal.Decimal `json:"safety_threshold"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalVolume     decimal.Decimal `json:"total_volume"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Records         int             `json:"records"`
	// CurrentClosingStock and CurrentAlert are absent on an empty ledger.
	CurrentClosingStock *decimal.Decimal `json:"current_closing_stock,omitempty"`
	CurrentAlert        AlertStatus      `json:"current_alert,omitempty"`
}

// Summarize builds the dashboard summary from computed ledger rows.
func Summarize(rows []LedgerRow, params models.Parameters) StockSummary {
	out := StockSummary{
		InitialStock:    params.InitialStock,
		SafetyThreshold: params.Threshold(),
		UnitPrice:       params.UnitPrice,
		TotalVolume:     decimal.Zero,
		TotalAmount:     decimal.Zero,
		Records:         len(rows),
	}

	for _, r := range rows {
		out.TotalVolume = out.TotalVolume.Add(r.Record.Volume)
		out.TotalAmount = out.TotalAmount.Add(r.Record.Amount)
	}

	if current, ok := CurrentStock(rows); ok {
		out.CurrentClosingStock = &current
		out.CurrentAlert = rows[len(rows)-1].Alert
	}

	return out
}

// VolumeByAsset aggregates purchased volume per asset and per month.
func VolumeByAsset(rows []LedgerRow) Summary {
	return Aggregate(rows,
		func(r LedgerRow) string { return r.Record.AssetID },
		func(r LedgerRow) decimal.Decimal { return r.Record.Volume },
		func(r LedgerRow) time.Time { return r.Record.Date },
	)
}

// AgentStatistics is the commercial sales report of the agent ledger.
type AgentStatistics struct {
	TotalSales       decimal.Decimal `json:"total_sales"`
	SalesCount       int             `json:"sales_count"`
	TotalQuantity    decimal.Decimal `json:"total_quantity"`
	AverageUnitPrice decimal.Decimal `json:"average_unit_price"`
	BestAgent        *Group          `json:"best_agent,omitempty"`
	Agents           []Group         `json:"agents"`
	Months           []Period        `json:"months"`
}

// AgentSalesStatistics summarises sales per agent and per month.
func AgentSalesStatistics(sales []models.AgentSale) AgentStatistics {
	byAgent := Aggregate(sales,
		func(s models.AgentSale) string { return s.Agent },
		func(s models.AgentSale) decimal.Decimal { return s.Total },
		func(s models.AgentSale) time.Time { return s.Date },
	)
	quantity := Aggregate(sales,
		func(models.AgentSale) string { return "" },
		func(s models.AgentSale) decimal.Decimal { return s.Quantity },
		nil,
	)
	unitPrice := Aggregate(sales,
		func(models.AgentSale) string { return "" },
		func(s models.AgentSale) decimal.Decimal { return s.UnitPrice },
		nil,
	)

	return AgentStatistics{
		TotalSales:       byAgent.Total,
		SalesCount:       byAgent.Count,
		TotalQuantity:    quantity.Total,
		AverageUnitPrice: unitPrice.Average,
		BestAgent:        byAgent.Best,
		Agents:           byAgent.SortedGroups(),
		Months:           byAgent.Months,
	}
}
