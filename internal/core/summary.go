package core

import "sort"

type (
	// DaySummary groups the rows of one account on one date.
	DaySummary struct {
		Date         Date
		TotalIncome  Money
		TotalExpense Money
		Total        Money
		Details      []Transaction
	}

	TransactionPage struct {
		Items       []DaySummary
		HasMore     bool
		CurrentPage int
	}

	CategorySummary struct {
		CategoryID string
		Name       string
		Icon       string
		Type       CategoryType
		Total      Money // income positive, expense negative
		Count      int
	}

	CategoryReport struct {
		Type         CategoryType // empty when both types are included
		TotalIncome  Money
		TotalExpense Money
		Categories   []CategorySummary
	}
)

// GroupByDay folds rows, already ordered by date descending, into day
// summaries. Outgoing transfers count as expense (amount plus fee) and
// incoming transfers as income.
func GroupByDay(rows []Transaction) []DaySummary {
	days := make([]DaySummary, 0)
	for _, t := range rows {
		n := len(days)
		if n == 0 || !days[n-1].Date.Equal(t.Date.Time) {
			days = append(days, DaySummary{Date: t.Date, Details: make([]Transaction, 0, 4)})
			n++
		}
		day := &days[n-1]
		effect := t.Effect()
		if effect.IsNegative() {
			day.TotalExpense = day.TotalExpense.Add(effect.Neg())
		} else {
			day.TotalIncome = day.TotalIncome.Add(effect)
		}
		day.Total = day.TotalIncome.Sub(day.TotalExpense)
		day.Details = append(day.Details, t)
	}
	return days
}

// NewCategoryReport totals the per-category rows and orders them by
// magnitude, then name.
func NewCategoryReport(typ CategoryType, cats []CategorySummary) CategoryReport {
	r := CategoryReport{Type: typ, Categories: cats}
	if r.Categories == nil {
		r.Categories = []CategorySummary{}
	}
	for _, c := range r.Categories {
		if c.Total.IsNegative() {
			r.TotalExpense = r.TotalExpense.Add(c.Total.Neg())
		} else {
			r.TotalIncome = r.TotalIncome.Add(c.Total)
		}
	}
	sort.SliceStable(r.Categories, func(i, j int) bool {
		a, b := r.Categories[i].Total.Abs().Cents, r.Categories[j].Total.Abs().Cents
		if a != b {
			return a > b
		}
		return r.Categories[i].Name < r.Categories[j].Name
	})
	return r
}
