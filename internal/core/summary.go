package core

import "time"

const dayKeyLayout = "2006-01-02"

// Totals pairs the income and expense sums over some record set.
type Totals struct {
	Income  Money
	Expense Money
}

// Net is income minus expense.
func (t Totals) Net() Money {
	return t.Income.Sub(t.Expense)
}

func (t Totals) add(r LedgerRecord) Totals {
	if r.Type == Income {
		t.Income = t.Income.Add(r.Amount)
	} else {
		t.Expense = t.Expense.Add(r.Amount)
	}
	return t
}

// SumRecords totals income and expense over all given records.
func SumRecords(records []LedgerRecord) Totals {
	var t Totals
	for _, r := range records {
		t = t.add(r)
	}
	return t
}

// DayKey formats a timestamp as the grouping key used by the daily views.
func DayKey(ts time.Time, loc *time.Location) string {
	return ts.In(loc).Format(dayKeyLayout)
}

// GroupByDay buckets records by calendar day in the given location. Order
// within a bucket follows the input order.
func GroupByDay(records []LedgerRecord, loc *time.Location) map[string][]LedgerRecord {
	grouped := make(map[string][]LedgerRecord)
	for _, r := range records {
		key := DayKey(r.Date, loc)
		grouped[key] = append(grouped[key], r)
	}
	return grouped
}

// MonthRange returns the half-open interval [start, end) covering the given
// month in the given location.
func MonthRange(year int, month time.Month, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 1, 0)
}

// MonthOverview is the aggregated view of one calendar month.
type MonthOverview struct {
	Year   int
	Month  time.Month
	Totals Totals
	ByDay  map[string]Totals
}

// NewMonthOverview filters records down to the given month and aggregates
// them per day and in total.
func NewMonthOverview(year int, month time.Month, loc *time.Location, records []LedgerRecord) MonthOverview {
	start, end := MonthRange(year, month, loc)
	ov := MonthOverview{
		Year:  year,
		Month: month,
		ByDay: make(map[string]Totals),
	}
	for _, r := range records {
		if r.Date.Before(start) || !r.Date.Before(end) {
			continue
		}
		ov.Totals = ov.Totals.add(r)
		key := DayKey(r.Date, loc)
		ov.ByDay[key] = ov.ByDay[key].add(r)
	}
	return ov
}

// DaySummary is one cell of the calendar heat-map.
type DaySummary struct {
	Day    int
	Totals Totals
}

// CalendarMonth expands a month overview into one entry per calendar day,
// including days without records, in day order.
func CalendarMonth(ov MonthOverview, loc *time.Location) []DaySummary {
	start, end := MonthRange(ov.Year, ov.Month, loc)
	days := make([]DaySummary, 0, 31)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		days = append(days, DaySummary{
			Day:    d.Day(),
			Totals: ov.ByDay[d.Format(dayKeyLayout)],
		})
	}
	return days
}

// NetAssets sums every account balance. Credit balances are negative, so
// outstanding debt reduces the total.
func NetAssets(accounts []Account) Money {
	var total Money
	for _, a := range accounts {
		total = total.Add(a.Balance)
	}
	return total
}

// Liabilities sums the debt magnitude of all credit accounts.
func Liabilities(accounts []Account) Money {
	var total Money
	for _, a := range accounts {
		if a.IsCredit {
			total = total.Add(a.Debt())
		}
	}
	return total
}
