package analytics

import "github.com/smartbizhq/smartbiz-engine/pkg/models"

// DashboardStats is the aggregate snapshot shown on the ERP dashboard.
type DashboardStats struct {
	TotalRevenue    float64 `json:"total_revenue"`
	TotalExpenses   float64 `json:"total_expenses"`
	NetProfit       float64 `json:"net_profit"`
	ActiveEmployees int     `json:"active_employees"`
	PendingInvoices int     `json:"pending_invoices"`
}

// ComputeDashboardStats totals revenue and expenses, counts active
// employees, and counts invoices still awaiting payment (sent or overdue).
func ComputeDashboardStats(transactions []models.Transaction, employees []models.Employee, invoices []models.Invoice) DashboardStats {
	var stats DashboardStats

	for _, t := range transactions {
		switch t.Type {
		case models.TransactionIncome:
			stats.TotalRevenue += t.Amount
		case models.TransactionExpense:
			stats.TotalExpenses += t.Amount
		}
	}
	stats.NetProfit = stats.TotalRevenue - stats.TotalExpenses

	for _, e := range employees {
		if e.IsActive {
			stats.ActiveEmployees++
		}
	}

	for _, inv := range invoices {
		if inv.Status == models.InvoiceSent || inv.Status == models.InvoiceOverdue {
			stats.PendingInvoices++
		}
	}

	return stats
}
