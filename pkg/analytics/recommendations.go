package analytics

import (
	"fmt"
	"time"

	"github.com/smartbizhq/smartbiz-engine/pkg/models"
)

// Recommendation is a heuristic finding with suggested follow-up actions.
type Recommendation struct {
	Type        string   `json:"type"`
	Message     string   `json:"message"`
	Impact      string   `json:"impact"`
	Priority    string   `json:"priority"`
	ActionItems []string `json:"action_items"`
}

// Recommendations runs every heuristic over the current data: expense
// concentration, retention risk, then overdue invoices.
func Recommendations(transactions []models.Transaction, employees []models.Employee, invoices []models.Invoice, now time.Time) []Recommendation {
	recs := []Recommendation{}
	recs = append(recs, RecommendExpenseOptimization(transactions)...)
	recs = append(recs, RecommendRetention(employees, now)...)
	recs = append(recs, RecommendInvoiceFollowup(invoices, now)...)
	return recs
}

// RecommendExpenseOptimization flags every expense category holding more
// than 30% of total expenses. Categories are reported in the order they
// first appear in the transaction list.
func RecommendExpenseOptimization(transactions []models.Transaction) []Recommendation {
	totals := make(map[string]float64)
	order := []string{}
	var total float64
	for _, t := range transactions {
		if t.Type != models.TransactionExpense {
			continue
		}
		if _, seen := totals[t.Category]; !seen {
			order = append(order, t.Category)
		}
		totals[t.Category] += t.Amount
		total += t.Amount
	}

	recs := []Recommendation{}
	for _, category := range order {
		share := totals[category] / total
		if share <= 0.3 {
			continue
		}
		recs = append(recs, Recommendation{
			Type:     "expense_optimization",
			Message:  fmt.Sprintf("High spending in %s category (%.1f%% of total expenses)", category, share*100),
			Impact:   "medium",
			Priority: "high",
			ActionItems: []string{
				fmt.Sprintf("Review %s expenses for potential cost reduction", category),
				"Consider negotiating better rates with vendors",
				"Implement budget controls for this category",
			},
		})
	}
	return recs
}

// RecommendRetention flags a retention risk when the mean tenure across
// all employees is under one year.
func RecommendRetention(employees []models.Employee, now time.Time) []Recommendation {
	if len(employees) == 0 {
		return nil
	}

	var totalDays int64
	for _, e := range employees {
		totalDays += int64(now.Sub(e.HireDate) / (24 * time.Hour))
	}
	avgTenure := float64(totalDays) / float64(len(employees))

	if avgTenure >= 365 {
		return nil
	}
	return []Recommendation{{
		Type:     "employee_retention",
		Message:  "Low average employee tenure detected",
		Impact:   "high",
		Priority: "medium",
		ActionItems: []string{
			"Review compensation and benefits package",
			"Implement employee engagement programs",
			"Conduct exit interviews to identify issues",
		},
	}}
}

// RecommendInvoiceFollowup reports the number of invoices past their due
// date that have not been paid.
func RecommendInvoiceFollowup(invoices []models.Invoice, now time.Time) []Recommendation {
	overdue := 0
	for _, inv := range invoices {
		if inv.DueDate.Before(now) && inv.Status != models.InvoicePaid {
			overdue++
		}
	}

	if overdue == 0 {
		return nil
	}
	return []Recommendation{{
		Type:     "invoice_processing",
		Message:  fmt.Sprintf("%d overdue invoices detected", overdue),
		Impact:   "medium",
		Priority: "high",
		ActionItems: []string{
			"Review and process overdue invoices",
			"Implement automated payment reminders",
			"Consider early payment discounts",
		},
	}}
}
