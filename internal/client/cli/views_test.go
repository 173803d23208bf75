package cli

import (
	"testing"

	"github.com/dmitrijs2005/fieldsales/internal/client/services"
	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0.00"},
		{12.5, "12.50"},
		{999, "999.00"},
		{1000, "1,000.00"},
		{1234567.891, "1,234,567.89"},
		{-98765.4, "-98,765.40"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatAmount(tt.in))
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "Lanka St~", truncate("Lanka Stores", 9))
}

func TestRenderInvoices(t *testing.T) {
	out := renderInvoices(&services.InvoiceReport{
		StartDate: "2025-01-01",
		EndDate:   "2025-01-10",
		Invoices: []services.Invoice{
			{ID: "INV-9", Customer: "Lanka Stores", Amount: 1500, Status: "Paid", Date: "2025-01-05", Channel: "cash"},
			{ID: "INV-10", Customer: "Kandy Mart", Amount: 20, Status: "Overdue", Date: "2025-01-06", Channel: "N/A"},
		},
		Stats: services.InvoiceStats{Total: 2, Actuals: 1, ActualValue: 1500, TotalValue: 1500},
	})

	assert.Contains(t, out, "Active invoices 2025-01-01 .. 2025-01-10")
	assert.Contains(t, out, "INV-9")
	assert.Contains(t, out, "Lanka Stores")
	assert.Contains(t, out, "1,500.00")
	assert.Contains(t, out, "Overdue")
	assert.Contains(t, out, "Summary")
}

func TestRenderDashboard_MissingValues(t *testing.T) {
	out := renderDashboard(&services.Dashboard{CheckInTime: "2025-01-10T02:30:00Z"})

	assert.Contains(t, out, "Targets")
	assert.Contains(t, out, notAvailable)
	assert.Contains(t, out, "Checked in: 2025-01-10T02:30:00Z")
}

func TestRenderVersion_Error(t *testing.T) {
	out := renderVersion("1.0.7", services.VersionOutcome{Status: services.VersionError})
	assert.Contains(t, out, "unable to verify app version")
	assert.Contains(t, out, "1.0.7")
}
