// Package insights computes the financial dashboard figures from payment
// and expense records. Everything here is pure: callers pass the records
// and a reference time, which keeps the period math testable.
package insights

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/agrismart/marketplace/internal/models"
)

type Period string

const (
	PeriodDaily   Period = "Daily"
	PeriodMonthly Period = "Monthly"
	PeriodYearly  Period = "Yearly"
)

func (p Period) Valid() bool {
	return p == PeriodDaily || p == PeriodMonthly || p == PeriodYearly
}

// Summary is the profit card: revenue and expenses for the current period
// and growth against the previous one.
type Summary struct {
	Period           Period          `json:"period"`
	Revenue          decimal.Decimal `json:"revenue"`
	Expenses         decimal.Decimal `json:"expenses"`
	Profit           decimal.Decimal `json:"profit"`
	GrowthPercentage decimal.Decimal `json:"growth_percentage"`
}

// ChartPoint is one labelled revenue/expense bar.
type ChartPoint struct {
	Label   string          `json:"label"`
	Revenue decimal.Decimal `json:"revenue"`
	Expense decimal.Decimal `json:"expense"`
}

// CategoryShare is one slice of the expense breakdown.
type CategoryShare struct {
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Percentage int             `json:"percentage"`
}

// Summarize computes the profit card for the period containing now. Only
// Received payments count as revenue. Growth compares profit against the
// previous period; it is zero when the previous period had no profit.
func Summarize(transactions []models.Transaction, expenses []models.Expense, period Period, now time.Time) Summary {
	currentStart, previousStart := periodStarts(period, now)

	revenue := revenueBetween(transactions, currentStart, now.Add(time.Nanosecond))
	spent := expensesBetween(expenses, currentStart, now.Add(time.Nanosecond))
	profit := revenue.Sub(spent)

	prevRevenue := revenueBetween(transactions, previousStart, currentStart)
	prevSpent := expensesBetween(expenses, previousStart, currentStart)
	prevProfit := prevRevenue.Sub(prevSpent)

	growth := decimal.Zero
	if prevProfit.IsPositive() {
		growth = profit.Sub(prevProfit).Div(prevProfit).Mul(decimal.NewFromInt(100)).Round(1)
	}

	return Summary{
		Period:           period,
		Revenue:          revenue,
		Expenses:         spent,
		Profit:           profit,
		GrowthPercentage: growth,
	}
}

// Series buckets revenue and expenses into the chart for a period: the last
// seven days for Daily, five months for Monthly, four years for Yearly.
func Series(transactions []models.Transaction, expenses []models.Expense, period Period, now time.Time) []ChartPoint {
	var points []ChartPoint

	switch period {
	case PeriodDaily:
		day := now.Truncate(24 * time.Hour)
		for i := 6; i >= 0; i-- {
			start := day.AddDate(0, 0, -i)
			end := start.AddDate(0, 0, 1)
			points = append(points, ChartPoint{
				Label:   start.Format("Mon"),
				Revenue: revenueBetween(transactions, start, end),
				Expense: expensesBetween(expenses, start, end),
			})
		}
	case PeriodMonthly:
		month := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		for i := 4; i >= 0; i-- {
			start := month.AddDate(0, -i, 0)
			end := start.AddDate(0, 1, 0)
			points = append(points, ChartPoint{
				Label:   start.Format("Jan"),
				Revenue: revenueBetween(transactions, start, end),
				Expense: expensesBetween(expenses, start, end),
			})
		}
	case PeriodYearly:
		year := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		for i := 3; i >= 0; i-- {
			start := year.AddDate(-i, 0, 0)
			end := start.AddDate(1, 0, 0)
			points = append(points, ChartPoint{
				Label:   start.Format("2006"),
				Revenue: revenueBetween(transactions, start, end),
				Expense: expensesBetween(expenses, start, end),
			})
		}
	}

	return points
}

// Breakdown aggregates expenses per category, largest first. Percentages
// are derived from the amounts, never stored.
func Breakdown(expenses []models.Expense) []CategoryShare {
	totals := make(map[string]decimal.Decimal)
	var order []string
	for _, e := range expenses {
		if _, ok := totals[e.Category]; !ok {
			order = append(order, e.Category)
		}
		totals[e.Category] = totals[e.Category].Add(e.Amount)
	}

	grand := decimal.Zero
	for _, amount := range totals {
		grand = grand.Add(amount)
	}

	shares := make([]CategoryShare, 0, len(order))
	for _, category := range order {
		share := CategoryShare{Category: category, Amount: totals[category]}
		if grand.IsPositive() {
			share.Percentage = int(totals[category].Mul(decimal.NewFromInt(100)).Div(grand).Round(0).IntPart())
		}
		shares = append(shares, share)
	}

	sort.SliceStable(shares, func(i, j int) bool {
		return shares[i].Amount.GreaterThan(shares[j].Amount)
	})
	return shares
}

func periodStarts(period Period, now time.Time) (current, previous time.Time) {
	switch period {
	case PeriodDaily:
		current = now.Truncate(24 * time.Hour)
		previous = current.AddDate(0, 0, -1)
	case PeriodMonthly:
		current = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		previous = current.AddDate(0, -1, 0)
	default:
		current = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
		previous = current.AddDate(-1, 0, 0)
	}
	return current, previous
}

func revenueBetween(transactions []models.Transaction, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range transactions {
		if tx.Status != models.TransactionReceived {
			continue
		}
		if !tx.Date.Before(start) && tx.Date.Before(end) {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

func expensesBetween(expenses []models.Expense, start, end time.Time) decimal.Decimal {
	total := decimal.Zero
	for _, e := range expenses {
		if !e.Date.Before(start) && e.Date.Before(end) {
			total = total.Add(e.Amount)
		}
	}
	return total
}
