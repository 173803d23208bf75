package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/clock"
)

var (
	ErrMissingTerritory = errors.New("territory id is required to fetch invoices")
	ErrInvalidRange     = errors.New("start date must be before end date")
)

type InvoiceAPI interface {
	ActiveInvoices(ctx context.Context, territoryID int64, startDate, endDate string) (any, error)
}

// Invoice is one normalized row of the active invoice report.
type Invoice struct {
	ID                string
	InvoiceNo         string
	Customer          string
	Amount            float64
	Status            string
	Date              string
	Channel           string
	OutletID          any
	RouteName         string
	InvoiceType       string
	DiscountValue     float64
	FreeValue         float64
	BookingFinalValue float64
	ActualFinalValue  float64
	IsBook            bool
	IsActual          bool
	IsLateDelivery    bool
	UnproductiveCalls float64
}

// InvoiceStats aggregates a report. Bookings are booked invoices that are
// neither actual nor late.
type InvoiceStats struct {
	Total             int
	Bookings          int
	Actuals           int
	BookingValue      float64
	ActualValue       float64
	TotalValue        float64
	UnproductiveCalls float64
}

type InvoiceReport struct {
	StartDate string
	EndDate   string
	Invoices  []Invoice
	Stats     InvoiceStats
}

type ReportService interface {
	ActiveInvoices(ctx context.Context, territoryID int64, start, end time.Time) (*InvoiceReport, error)
	DefaultRange() (time.Time, time.Time)
}

type reportService struct {
	api   InvoiceAPI
	clock *clock.Clock
}

func NewReportService(api InvoiceAPI, clk *clock.Clock) ReportService {
	if clk == nil {
		clk = clock.Default()
	}
	return &reportService{api: api, clock: clk}
}

// DefaultRange is month to date in the business zone.
func (s *reportService) DefaultRange() (time.Time, time.Time) {
	now := s.clock.Now()
	return s.clock.StartOfMonth(now), now
}

func (s *reportService) ActiveInvoices(ctx context.Context, territoryID int64, start, end time.Time) (*InvoiceReport, error) {
	if territoryID == 0 {
		return nil, ErrMissingTerritory
	}

	from := start.In(s.clock.Location()).Format(clock.DateLayout)
	to := end.In(s.clock.Location()).Format(clock.DateLayout)
	if from > to {
		return nil, ErrInvalidRange
	}

	raw, err := s.api.ActiveInvoices(ctx, territoryID, from, to)
	if err != nil {
		return nil, fmt.Errorf("invoice report: %w", err)
	}

	items := invoiceList(raw)
	invoices := make([]Invoice, 0, len(items))
	for i, item := range items {
		invoices = append(invoices, normalizeInvoice(item, i, s.clock.Today()))
	}

	return &InvoiceReport{
		StartDate: from,
		EndDate:   to,
		Invoices:  invoices,
		Stats:     ComputeInvoiceStats(invoices),
	}, nil
}

func ComputeInvoiceStats(invoices []Invoice) InvoiceStats {
	st := InvoiceStats{Total: len(invoices)}
	for _, inv := range invoices {
		if inv.IsBook && !inv.IsActual && !inv.IsLateDelivery {
			st.Bookings++
			st.BookingValue += inv.BookingFinalValue
		}
		if inv.IsActual {
			st.Actuals++
			st.ActualValue += inv.ActualFinalValue
		}
		st.UnproductiveCalls += inv.UnproductiveCalls
	}
	st.TotalValue = st.BookingValue + st.ActualValue
	return st
}

// invoiceList accepts a bare array or an object wrapping it under "payload".
func invoiceList(raw any) []map[string]any {
	list, ok := raw.([]any)
	if !ok {
		if m, isMap := raw.(map[string]any); isMap {
			list, _ = m["payload"].([]any)
		}
	}
	out := make([]map[string]any, 0, len(list))
	for _, v := range list {
		m, _ := v.(map[string]any)
		if m == nil {
			m = map[string]any{}
		}
		out = append(out, m)
	}
	return out
}

func normalizeInvoice(item map[string]any, idx int, today string) Invoice {
	isActual := truthy(item["isActual"])
	isLate := truthy(item["isLateDelivery"])

	inv := Invoice{
		ID:                firstString(item, "invoiceNumber", "invoiceNo", "id"),
		InvoiceNo:         firstString(item, "invoiceNo", "invoiceNumber", "id"),
		Customer:          firstString(item, "customerName", "outletName"),
		Amount:            firstNumber(item, "totalValue", "invoiceValue", "actualValue", "bookingValue", "amount"),
		OutletID:          item["outletId"],
		RouteName:         firstString(item, "routeName"),
		InvoiceType:       firstString(item, "invoiceType"),
		DiscountValue:     firstNumber(item, "totalDiscountValue", "discountValue"),
		FreeValue:         firstNumber(item, "totalFreeValue", "freeValue"),
		BookingFinalValue: firstNumber(item, "totalBookFinalValue", "bookingValue", "totalValue", "amount"),
		ActualFinalValue:  firstNumber(item, "totalActualValue", "actualValue", "totalValue", "amount"),
		Status:            firstString(item, "status"),
		Date:              firstString(item, "invoiceDate", "createdDate", "date"),
		Channel:           firstString(item, "paymentType", "channel"),
		IsBook:            truthy(item["isBook"]),
		IsActual:          isActual,
		IsLateDelivery:    isLate,
		UnproductiveCalls: firstNumber(item, "unproductiveCalls", "unproductive_call"),
	}

	if inv.ID == "" {
		inv.ID = fmt.Sprintf("INV-%d", idx+1)
	}
	if inv.Customer == "" {
		inv.Customer = "Unknown outlet"
	}
	if inv.Status == "" {
		switch {
		case isActual:
			inv.Status = "Paid"
		case isLate:
			inv.Status = "Overdue"
		default:
			inv.Status = "Pending"
		}
	}
	if inv.Date == "" {
		inv.Date = today
	}
	if inv.Channel == "" {
		inv.Channel = "N/A"
	}
	return inv
}

// firstString returns the first non-empty value among keys, rendering
// numbers without a fraction.
func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			if v != 0 {
				return fmt.Sprintf("%.0f", v)
			}
		}
	}
	return ""
}

// firstNumber takes the first present (non-null) key and converts it; an
// unparseable value yields 0.
func firstNumber(m map[string]any, keys ...string) float64 {
	for _, k := range keys {
		v, ok := m[k]
		if !ok || v == nil {
			continue
		}
		if n := toNumber(v); n != nil {
			return *n
		}
		return 0
	}
	return 0
}

func truthy(v any) bool {
	switch b := v.(type) {
	case bool:
		return b
	case float64:
		return b != 0
	case string:
		return b != ""
	}
	return false
}
