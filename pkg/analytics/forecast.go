// Package analytics implements the deterministic half of the engine's
// intelligence: financial forecasting, heuristic recommendations, and
// dashboard aggregates computed from stored records without any provider
// call. Everything here is a pure function over model slices.
package analytics

import (
	"fmt"
	"math"
	"sort"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// FinancialForecast projects the next period from a monthly series.
type FinancialForecast struct {
	PredictedRevenue  float64  `json:"predicted_revenue"`
	PredictedExpenses float64  `json:"predicted_expenses"`
	ConfidenceScore   float64  `json:"confidence_score"`
	Factors           []string `json:"factors"`
}

// MonthlyTotal is the summed transaction amount for one calendar month.
type MonthlyTotal struct {
	Month string  `json:"month"` // YYYY-MM
	Total float64 `json:"total"`
}

// MonthlyTotals buckets transactions by calendar month and sums their
// amounts. Results are in chronological order.
func MonthlyTotals(transactions []models.Transaction) []MonthlyTotal {
	sums := make(map[string]float64)
	for _, t := range transactions {
		sums[t.Date.Format("2006-01")] += t.Amount
	}

	months := make([]string, 0, len(sums))
	for m := range sums {
		months = append(months, m)
	}
	sort.Strings(months)

	totals := make([]MonthlyTotal, 0, len(months))
	for _, m := range months {
		totals = append(totals, MonthlyTotal{Month: m, Total: sums[m]})
	}
	return totals
}

// Series extracts the amounts from monthly totals, preserving order.
func Series(totals []MonthlyTotal) []float64 {
	series := make([]float64, 0, len(totals))
	for _, t := range totals {
		series = append(series, t.Total)
	}
	return series
}

// Forecast projects the next period's revenue and expenses from a monthly
// series. Revenue extrapolates the last period by its growth rate; expenses
// are assumed at 80% of the last period. Confidence falls with the
// volatility of the growth rates and is 0 when only one growth rate exists.
func Forecast(series []float64) (*FinancialForecast, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("forecast requires at least 2 periods, got %d: %w", len(series), apperrors.ErrInsufficientData)
	}

	growth := growthRates(series)
	last := series[len(series)-1]
	lastGrowth := growth[len(growth)-1]

	return &FinancialForecast{
		PredictedRevenue:  last * (1 + lastGrowth),
		PredictedExpenses: last * 0.8,
		ConfidenceScore:   clamp01(1 - sampleStdDev(growth)),
		Factors:           forecastFactors(series, growth),
	}, nil
}

// forecastFactors lists the signals behind the forecast, in a fixed order:
// trend, then seasonality, then volatility. Conditions not met are omitted.
func forecastFactors(series, growth []float64) []string {
	factors := []string{}

	trend := mean(growth)
	if trend > 0.1 {
		factors = append(factors, "Strong upward trend in revenue")
	} else if trend < -0.1 {
		factors = append(factors, "Declining revenue trend")
	}

	// Seasonality needs a full year of data: the swing across the last
	// twelve months compared against the overall mean.
	if len(series) >= 12 {
		last12 := series[len(series)-12:]
		if sampleStdDev(last12) > mean(series)*0.2 {
			factors = append(factors, "Significant seasonal variations")
		}
	}

	if sampleStdDev(growth) > 0.2 {
		factors = append(factors, "High revenue volatility")
	}

	return factors
}

// growthRates returns the period-over-period growth of a series. The
// result has one fewer element than the input.
func growthRates(series []float64) []float64 {
	growth := make([]float64, 0, len(series)-1)
	for i := 1; i < len(series); i++ {
		growth = append(growth, (series[i]-series[i-1])/series[i-1])
	}
	return growth
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// sampleStdDev is the n-1 standard deviation. Fewer than two samples have
// no spread and yield NaN, which comparisons treat as false and clamp01
// treats as zero confidence.
func sampleStdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		d := x - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(xs)-1))
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) || x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
