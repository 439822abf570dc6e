package analytics

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/smartbizhq/smartbiz-engine/pkg/apperrors"
	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestForecast_TwoPeriods(t *testing.T) {
	f, err := Forecast([]float64{100, 110})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !near(f.PredictedRevenue, 121.0) {
		t.Errorf("PredictedRevenue = %v, want 121.0", f.PredictedRevenue)
	}
	if !near(f.PredictedExpenses, 88.0) {
		t.Errorf("PredictedExpenses = %v, want 88.0", f.PredictedExpenses)
	}
	// A single growth rate has no measurable spread, so confidence is 0.
	if f.ConfidenceScore != 0 {
		t.Errorf("ConfidenceScore = %v, want 0", f.ConfidenceScore)
	}
}

func TestForecast_InsufficientData(t *testing.T) {
	for _, series := range [][]float64{nil, {}, {500}} {
		_, err := Forecast(series)
		if err == nil {
			t.Fatalf("expected error for %d periods", len(series))
		}
		if !errors.Is(err, apperrors.ErrInsufficientData) {
			t.Errorf("expected ErrInsufficientData, got %v", err)
		}
	}
}

func TestForecast_SteadyGrowthHasFullConfidence(t *testing.T) {
	f, err := Forecast([]float64{100, 110, 121})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ConfidenceScore != 1 {
		t.Errorf("ConfidenceScore = %v, want 1 for constant growth", f.ConfidenceScore)
	}
	if !near(f.PredictedRevenue, 133.1) {
		t.Errorf("PredictedRevenue = %v, want 133.1", f.PredictedRevenue)
	}
}

func TestForecast_ScaleInvariantConfidence(t *testing.T) {
	base := []float64{120, 90, 150, 135}
	const c = 3.5
	scaled := make([]float64, len(base))
	for i, v := range base {
		scaled[i] = v * c
	}

	f1, err := Forecast(base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f2, err := Forecast(scaled)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(f1.ConfidenceScore-f2.ConfidenceScore) > 1e-9 {
		t.Errorf("confidence changed under scaling: %v vs %v", f1.ConfidenceScore, f2.ConfidenceScore)
	}
	if math.Abs(f2.PredictedRevenue-c*f1.PredictedRevenue) > 1e-6 {
		t.Errorf("PredictedRevenue did not scale: %v vs %v", f2.PredictedRevenue, c*f1.PredictedRevenue)
	}
	if math.Abs(f2.PredictedExpenses-c*f1.PredictedExpenses) > 1e-6 {
		t.Errorf("PredictedExpenses did not scale: %v vs %v", f2.PredictedExpenses, c*f1.PredictedExpenses)
	}
}

func TestForecast_UpwardTrendFactor(t *testing.T) {
	f, err := Forecast([]float64{100, 120, 144})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Factors) != 1 || f.Factors[0] != "Strong upward trend in revenue" {
		t.Errorf("Factors = %v, want upward trend only", f.Factors)
	}
}

func TestForecast_DecliningTrendFactor(t *testing.T) {
	f, err := Forecast([]float64{100, 80, 64})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Factors) != 1 || f.Factors[0] != "Declining revenue trend" {
		t.Errorf("Factors = %v, want declining trend only", f.Factors)
	}
}

func TestForecast_VolatilityFactor(t *testing.T) {
	// Growth rates 0.5 and -0.333: mean within the neutral band, spread
	// well over 0.2.
	f, err := Forecast([]float64{100, 150, 100})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.Factors) != 1 || f.Factors[0] != "High revenue volatility" {
		t.Errorf("Factors = %v, want volatility only", f.Factors)
	}
	if f.ConfidenceScore <= 0 || f.ConfidenceScore >= 1 {
		t.Errorf("ConfidenceScore = %v, want value strictly between 0 and 1", f.ConfidenceScore)
	}
}

func TestForecast_SeasonalityNeedsTwelvePeriods(t *testing.T) {
	alternating := func(n int) []float64 {
		series := make([]float64, n)
		for i := range series {
			if i%2 == 0 {
				series[i] = 100
			} else {
				series[i] = 200
			}
		}
		return series
	}

	f, err := Forecast(alternating(12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Strong upward trend in revenue", "Significant seasonal variations", "High revenue volatility"}
	if len(f.Factors) != len(want) {
		t.Fatalf("Factors = %v, want %v", f.Factors, want)
	}
	for i := range want {
		if f.Factors[i] != want[i] {
			t.Errorf("Factors[%d] = %q, want %q", i, f.Factors[i], want[i])
		}
	}

	// The same swings over fewer than 12 periods are not called seasonal.
	f, err = Forecast(alternating(11))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, factor := range f.Factors {
		if factor == "Significant seasonal variations" {
			t.Error("seasonality reported with fewer than 12 periods")
		}
	}
}

func TestMonthlyTotals_ChronologicalBuckets(t *testing.T) {
	tx := func(day string, amount float64) models.Transaction {
		date, err := time.Parse("2006-01-02", day)
		if err != nil {
			t.Fatalf("bad date %s: %v", day, err)
		}
		return models.Transaction{ID: uuid.New(), Type: models.TransactionIncome, Amount: amount, Date: date}
	}

	totals := MonthlyTotals([]models.Transaction{
		tx("2025-03-15", 300),
		tx("2025-01-10", 100),
		tx("2025-01-20", 50),
		tx("2025-02-05", 200),
	})

	want := []MonthlyTotal{
		{Month: "2025-01", Total: 150},
		{Month: "2025-02", Total: 200},
		{Month: "2025-03", Total: 300},
	}
	if len(totals) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(totals), len(want))
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, totals[i], want[i])
		}
	}

	series := Series(totals)
	if len(series) != 3 || series[0] != 150 || series[2] != 300 {
		t.Errorf("Series = %v", series)
	}
}
