package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DashboardAPI fetches the raw dashboard payload.
type DashboardAPI interface {
	DashboardReport(ctx context.Context, territoryID, userID int64) (any, error)
}

// TargetMetrics are the monthly targets of the agent. Nil means the backend
// did not report the value.
type TargetMetrics struct {
	TerritoryTarget       *float64
	AchievementValue      *float64
	AchievementPercentage *float64
	PCTarget              *float64
	AchievedPC            *float64
	UnproductiveCalls     *float64
}

type OutletMetrics struct {
	Active           *float64
	Inactive         *float64
	VisitedThisMonth *float64
	VisitsThisMonth  *float64
}

type InvoiceMetrics struct {
	BookingValue      *float64
	BookingCount      *float64
	ActualValue       *float64
	ActualCount       *float64
	CancelValue       *float64
	CancelCount       *float64
	LateDeliveryValue *float64
	LateDeliveryCount *float64
}

// Dashboard is everything the dashboard view shows.
type Dashboard struct {
	Targets     TargetMetrics
	Outlets     OutletMetrics
	Invoices    InvoiceMetrics
	CheckInTime string
}

// AchievementPercentage is the reported percentage, or achievement over
// territory target.
func (d *Dashboard) AchievementPercentage() *float64 {
	t := d.Targets
	if t.AchievementPercentage != nil {
		return t.AchievementPercentage
	}
	if t.AchievementValue != nil && t.TerritoryTarget != nil && *t.TerritoryTarget != 0 {
		return ptr(*t.AchievementValue / *t.TerritoryTarget * 100)
	}
	return nil
}

// PCProgress is achieved PC over PC target, clamped to 0..100.
func (d *Dashboard) PCProgress() *float64 {
	t := d.Targets
	if t.PCTarget != nil && *t.PCTarget > 0 && t.AchievedPC != nil {
		return ptr(math.Max(0, math.Min(100, *t.AchievedPC / *t.PCTarget * 100)))
	}
	return nil
}

// InvoiceConversion is actual value over booking value in percent.
func (d *Dashboard) InvoiceConversion() *float64 {
	i := d.Invoices
	if i.BookingValue != nil && *i.BookingValue > 0 && i.ActualValue != nil {
		return ptr(*i.ActualValue / *i.BookingValue * 100)
	}
	return nil
}

type DashboardService interface {
	Load(ctx context.Context, territoryID, userID int64) (*Dashboard, error)
}

type dashboardService struct {
	api DashboardAPI
}

func NewDashboardService(api DashboardAPI) DashboardService {
	return &dashboardService{api: api}
}

func (s *dashboardService) Load(ctx context.Context, territoryID, userID int64) (*Dashboard, error) {
	raw, err := s.api.DashboardReport(ctx, territoryID, userID)
	if err != nil {
		return nil, fmt.Errorf("dashboard: %w", err)
	}
	return ExtractDashboard(raw), nil
}

// ExtractDashboard reads the metrics out of a loosely shaped payload. Values
// are looked up in the root object and a set of known nested containers, by
// any of several key spellings, case-insensitively; numeric strings count.
func ExtractDashboard(raw any) *Dashboard {
	base := dashboardBase(raw)

	d := &Dashboard{
		Targets:  extractTargets(base),
		Invoices: extractInvoices(base),
	}

	// outlet counts may sit in the summary containers or in the outlet ones
	out := pickFrom(sourcesAt(base, summaryPaths), outletKeys)
	if out.empty() {
		out = pickFrom(sourcesAt(base, outletPaths), outletKeys)
	}
	d.Outlets = OutletMetrics{
		Active:           out[0],
		Inactive:         out[1],
		VisitedThisMonth: out[2],
		VisitsThisMonth:  out[3],
	}

	d.CheckInTime = pickTime(sourcesAt(base, checkInPaths),
		[]string{"checkInTime", "check_in_time", "checkIn", "check_in", "checkintime"})
	return d
}

var (
	summaryPaths = [][]string{
		{}, {"payload"}, {"data"}, {"dashboard"}, {"dashboardData"}, {"summary"},
		{"payload", "dashboard"}, {"payload", "dashboardData"}, {"payload", "summary"},
		{"data", "dashboard"}, {"data", "dashboardData"}, {"data", "summary"},
		{"dashboard", "summary"}, {"dashboardData", "summary"},
		{"outletSummary"}, {"outlets"},
	}
	targetPaths = [][]string{
		{}, {"payload"}, {"data"}, {"dashboard"}, {"dashboardData"}, {"summary"},
		{"target"}, {"targets"}, {"metrics"},
	}
	outletPaths = [][]string{
		{}, {"payload"}, {"data"}, {"dashboard"}, {"dashboardData"},
		{"outlets"}, {"outletSummary"},
	}
	checkInPaths = append(append([][]string{}, summaryPaths[:14]...),
		[]string{"dayCycle"}, []string{"day_cycle"}, []string{"daycycle"})
)

var outletKeys = [][]string{
	{"activeOutletCount", "active_outlet_count", "activeOutlets"},
	{"inactiveOutletCount", "inactive_outlet_count", "closedOutletCount", "closed_outlet_count"},
	{"visitedOutletCountForThisMonth", "visited_outlet_count_for_this_month", "visitedOutletThisMonth"},
	{"visitCountForThisMonth", "visit_count_for_this_month", "totalVisitCountForThisMonth"},
}

func extractTargets(base map[string]any) TargetMetrics {
	v := pickFrom(sourcesAt(base, targetPaths), [][]string{
		{"territoryTargetForThisMonth", "territory_target_for_this_month", "territoryTarget", "territory_target",
			"territoryTargetValue", "territory_target_value", "target", "targetValue"},
		{"myAchievementValue", "myAchievementValues", "achievementValue", "achievement_value",
			"totalActualValueForThisMonth", "total_actual_value_for_this_month",
			"achievedPcTargetForThisMonth", "achieved_pc_target_for_this_month",
			"my_achievement_value", "achievement", "achieved"},
		{"achievementPercentageForThisMonth", "achievement_percentage_for_this_month",
			"myAchievementPercentage", "myAchievementPrecentage", "achievementPercentage",
			"my_achievement_percentage", "achievement_percent", "achievementPct", "achievement_pct", "achievement"},
		{"pcTargetForThisMonth", "pc_target_for_this_month", "pcTarget", "pc_target", "targetPc", "pcTargetValue"},
		{"achievedPcTargetForThisMonth", "achieved_pc_target_for_this_month", "achievedPc", "achieved_pc", "achieved"},
		{"unproductiveCallCountForThisMonth", "unproductive_call_count_for_this_month",
			"unproductiveCallCount", "unproductive_call_count", "unproductiveCalls", "unproductive_calls"},
	})
	return TargetMetrics{
		TerritoryTarget:       v[0],
		AchievementValue:      v[1],
		AchievementPercentage: v[2],
		PCTarget:              v[3],
		AchievedPC:            v[4],
		UnproductiveCalls:     v[5],
	}
}

func extractInvoices(base map[string]any) InvoiceMetrics {
	v := pickFrom(sourcesAt(base, summaryPaths), [][]string{
		{"totalBookingValueForThisMonth", "total_booking_value_for_this_month", "bookingValueForThisMonth",
			"booking_value_for_this_month", "bookingValue", "booking_value"},
		{"bookingInvoicesCountForThisMonth", "booking_invoices_count_for_this_month", "bookingInvoiceCount",
			"booking_invoice_count", "bookingCount"},
		{"totalActualValueForThisMonth", "total_actual_value_for_this_month", "actualValueForThisMonth",
			"actual_value_for_this_month", "actualValue", "actual_value"},
		{"actualInvoicesCountForThisMonth", "actual_invoices_count_for_this_month", "actualInvoiceCount",
			"actual_invoice_count", "actualCount"},
		{"totalCancelValueForThisMonth", "total_cancel_value_for_this_month", "cancelValueForThisMonth",
			"cancel_value_for_this_month", "cancelValue", "cancel_value", "cancelledValue", "cancelled_value"},
		{"cancelInvoicesCountForThisMonth", "cancel_invoices_count_for_this_month", "cancelInvoiceCount",
			"cancel_invoice_count", "cancelledInvoiceCount", "cancelled_invoices_count"},
		{"totalLateDeliveryValueForThisMonth", "total_late_delivery_value_for_this_month",
			"lateDeliveryValueForThisMonth", "late_delivery_value_for_this_month", "lateDeliveryValue",
			"late_delivery_value", "lateDeliveredValue"},
		{"lateDeliveryInvoicesCountForThisMonth", "late_delivery_invoices_count_for_this_month",
			"lateDeliveryInvoiceCount", "late_delivery_invoice_count", "lateDeliveredInvoices", "late_delivered_invoices"},
	})
	return InvoiceMetrics{
		BookingValue:      v[0],
		BookingCount:      v[1],
		ActualValue:       v[2],
		ActualCount:       v[3],
		CancelValue:       v[4],
		CancelCount:       v[5],
		LateDeliveryValue: v[6],
		LateDeliveryCount: v[7],
	}
}

type picked []*float64

func (p picked) empty() bool {
	for _, v := range p {
		if v != nil {
			return false
		}
	}
	return true
}

// pickFrom resolves each key group against the sources in order.
func pickFrom(sources []map[string]any, groups [][]string) picked {
	out := make(picked, len(groups))
	for i, keys := range groups {
		for _, src := range sources {
			if v := pickNumber(src, keys); v != nil {
				out[i] = v
				break
			}
		}
	}
	return out
}

func dashboardBase(raw any) map[string]any {
	switch v := raw.(type) {
	case map[string]any:
		return v
	case []any:
		if len(v) > 0 {
			if m, ok := v[0].(map[string]any); ok {
				return m
			}
		}
	}
	return map[string]any{}
}

func sourcesAt(base map[string]any, paths [][]string) []map[string]any {
	var out []map[string]any
	for _, p := range paths {
		if m := dig(base, p); m != nil {
			out = append(out, m)
		}
	}
	return out
}

func dig(m map[string]any, path []string) map[string]any {
	cur := m
	for _, k := range path {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

// lookup tries exact keys first, then a case-insensitive match in stable key
// order.
func lookup(src map[string]any, keys []string, accept func(any) bool) (any, bool) {
	for _, k := range keys {
		if v, ok := src[k]; ok && accept(v) {
			return v, true
		}
	}
	names := make([]string, 0, len(src))
	for k := range src {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, k := range keys {
			if strings.EqualFold(name, k) && accept(src[name]) {
				return src[name], true
			}
		}
	}
	return nil, false
}

func pickNumber(src map[string]any, keys []string) *float64 {
	v, ok := lookup(src, keys, func(v any) bool { return toNumber(v) != nil })
	if !ok {
		return nil
	}
	return toNumber(v)
}

func toNumber(v any) *float64 {
	switch n := v.(type) {
	case float64:
		if math.IsInf(n, 0) || math.IsNaN(n) {
			return nil
		}
		return ptr(n)
	case int:
		return ptr(float64(n))
	case int64:
		return ptr(float64(n))
	case bool:
		if n {
			return ptr(1)
		}
		return ptr(0)
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return ptr(0)
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
			return nil
		}
		return ptr(f)
	}
	return nil
}

func pickTime(sources []map[string]any, keys []string) string {
	for _, src := range sources {
		v, ok := lookup(src, keys, func(v any) bool { return parseTimeValue(v) != "" })
		if ok {
			return parseTimeValue(v)
		}
	}
	return ""
}

// parseTimeValue normalizes epoch seconds or milliseconds and date strings
// to RFC 3339 UTC. Unparseable strings are returned trimmed.
func parseTimeValue(v any) string {
	switch t := v.(type) {
	case float64:
		return epochToString(t)
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return ""
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return epochToString(f)
		}
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"} {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC().Format(time.RFC3339Nano)
			}
		}
		return s
	}
	return ""
}

func epochToString(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) {
		return ""
	}
	ms := f
	if f <= 1e12 {
		ms = f * 1000
	}
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
}

func ptr(f float64) *float64 { return &f }
