package services

import (
	"math"
	"time"

	"github.com/rp-tuning/rp-tuning-api/models"
	"github.com/rp-tuning/rp-tuning-api/utils"
)

// MonthlySummary is the fixed-shape analytics result for one client month.
// Numeric fields are zero and TopService is null when the month has no data.
type MonthlySummary struct {
	MonthKey         string  `json:"month_key"`
	TodayEarnings    float64 `json:"today_earnings"`
	MonthlyProjected float64 `json:"monthly_projected"`
	MonthlyTotal     float64 `json:"monthly_total"`
	CarCount         int     `json:"car_count"`
	TopService       *string `json:"top_service"`
}

// ComputeMonthlySummary derives the per-month dashboard numbers from a
// client's work logs. The logs are expected to be pre-filtered by month_key;
// the computation itself is a pure read.
//
// Revenue sums each log's line item prices, falling back to the stored total
// for rows without items. Today's earnings deliberately sum the raw stored
// totals instead: historical records rely on that behavior, so the two paths
// are kept asymmetric on purpose.
func ComputeMonthlySummary(logs []models.WorkLog, catalog []models.Service, monthKey string, now time.Time) MonthlySummary {
	summary := MonthlySummary{MonthKey: monthKey}

	categoryByID := make(map[uint]string, len(catalog))
	for _, svc := range catalog {
		categoryByID[svc.ID] = svc.Category
	}

	cars := make(map[string]bool)
	categoryCounts := make(map[string]int)
	var categoryOrder []string
	today := now.Format("2006-01-02")

	for i := range logs {
		wl := &logs[i]

		summary.MonthlyTotal += wl.Revenue()

		if wl.CreatedAt.Format("2006-01-02") == today {
			summary.TodayEarnings += wl.TotalPrice
		}

		if car := utils.NormalizeCarInfo(wl.CarInfo); car != "" {
			cars[car] = true
		}

		for _, item := range wl.ServiceItems {
			category, ok := categoryByID[item.ServiceID]
			if !ok || category == "" {
				continue
			}
			if categoryCounts[category] == 0 {
				categoryOrder = append(categoryOrder, category)
			}
			categoryCounts[category]++
		}
	}

	summary.CarCount = len(cars)
	summary.MonthlyProjected = projectMonthlyRevenue(summary.MonthlyTotal, monthKey, now)

	// Highest-count category wins; ties break in favor of the category seen first
	best := ""
	bestCount := 0
	for _, category := range categoryOrder {
		if categoryCounts[category] > bestCount {
			best = category
			bestCount = categoryCounts[category]
		}
	}
	if best != "" {
		summary.TopService = &best
	}

	return summary
}

// projectMonthlyRevenue linearly extrapolates the month's revenue. For the
// current month: total / dayOfMonth * daysInMonth, rounded to the nearest
// integer. Day 1 divides by 1, so there is no degenerate case. A month that
// already ended projects to its own rounded total.
func projectMonthlyRevenue(monthlyTotal float64, monthKey string, now time.Time) float64 {
	if monthKey != models.MonthKeyFor(now) {
		return math.Round(monthlyTotal)
	}

	day := now.Day()
	daysInMonth := time.Date(now.Year(), now.Month()+1, 0, 0, 0, 0, 0, now.Location()).Day()
	return math.Round(monthlyTotal / float64(day) * float64(daysInMonth))
}
