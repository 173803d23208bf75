package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/client/services"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0")).
			Width(22)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#04B575")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500")).
			Bold(true)

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#874BFD")).
			Padding(0, 1)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

const notAvailable = "n/a"

func row(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), value)
}

func box(title string, rows ...string) string {
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, append([]string{titleStyle.Render(title)}, rows...)...))
}

func statusLabel(s models.DayStatus) string {
	switch s {
	case models.DayInProgress:
		return okStyle.Render("In progress")
	case models.DayCompleted:
		return footerStyle.Render("Completed")
	default:
		return warnStyle.Render("Not started")
	}
}

func clockTime(t *time.Time, loc *time.Location) string {
	if t == nil {
		return notAvailable
	}
	return t.In(loc).Format("15:04:05")
}

func renderDay(sess *models.Session, state *models.DayCycleState, loc *time.Location, untilEnd time.Duration) string {
	rows := []string{
		row("Agent", fmt.Sprintf("%s (#%d)", displayName(sess), sess.UserID)),
		row("Territory", orNA(sess.TerritoryName)),
		row("Status", statusLabel(state.Status())),
	}
	if state != nil {
		rows = append(rows,
			row("Date", state.Date),
			row("Started", clockTime(state.StartTime, loc)),
			row("Ended", clockTime(state.EndTime, loc)),
		)
	}
	if state.Status() == models.DayInProgress {
		rows = append(rows, row("Auto close in", untilEnd.Truncate(time.Minute).String()))
	}
	return box("Day cycle", rows...)
}

func displayName(sess *models.Session) string {
	if sess.PersonalName != "" {
		return sess.PersonalName
	}
	return sess.UserName
}

func orNA(s string) string {
	if s == "" {
		return notAvailable
	}
	return s
}

func number(p *float64) string {
	if p == nil {
		return notAvailable
	}
	return formatAmount(*p)
}

func percent(p *float64) string {
	if p == nil {
		return notAvailable
	}
	return strconv.FormatFloat(*p, 'f', 1, 64) + "%"
}

// formatAmount renders v with two decimals and thousands separators.
func formatAmount(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

func renderDashboard(d *services.Dashboard) string {
	targets := box("Targets",
		row("Territory target", number(d.Targets.TerritoryTarget)),
		row("Achievement", number(d.Targets.AchievementValue)),
		row("Achievement %", percent(d.AchievementPercentage())),
		row("PC target", number(d.Targets.PCTarget)),
		row("Achieved PC", number(d.Targets.AchievedPC)),
		row("PC progress", percent(d.PCProgress())),
		row("Unproductive calls", number(d.Targets.UnproductiveCalls)),
	)
	outlets := box("Outlets",
		row("Active", number(d.Outlets.Active)),
		row("Inactive", number(d.Outlets.Inactive)),
		row("Visited this month", number(d.Outlets.VisitedThisMonth)),
		row("Visits this month", number(d.Outlets.VisitsThisMonth)),
	)
	invoices := box("Invoices",
		row("Booking value", number(d.Invoices.BookingValue)),
		row("Booking count", number(d.Invoices.BookingCount)),
		row("Actual value", number(d.Invoices.ActualValue)),
		row("Actual count", number(d.Invoices.ActualCount)),
		row("Conversion", percent(d.InvoiceConversion())),
		row("Cancelled value", number(d.Invoices.CancelValue)),
		row("Late delivery value", number(d.Invoices.LateDeliveryValue)),
	)

	left := lipgloss.JoinVertical(lipgloss.Left, targets, outlets)
	out := lipgloss.JoinHorizontal(lipgloss.Top, left, invoices)
	if d.CheckInTime != "" {
		out = lipgloss.JoinVertical(lipgloss.Left, out, footerStyle.Render("Checked in: "+d.CheckInTime))
	}
	return out
}

func renderInvoices(r *services.InvoiceReport) string {
	header := titleStyle.Render(fmt.Sprintf("Active invoices %s .. %s", r.StartDate, r.EndDate))
	if len(r.Invoices) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, header, footerStyle.Render("No invoices in this range."))
	}

	lines := []string{header}
	for _, inv := range r.Invoices {
		lines = append(lines, fmt.Sprintf("%-12s %-24s %14s  %-8s %s  %s",
			inv.ID, truncate(inv.Customer, 24), formatAmount(inv.Amount), invoiceStatus(inv.Status), inv.Date, inv.Channel))
	}

	st := r.Stats
	summary := box("Summary",
		row("Invoices", strconv.Itoa(st.Total)),
		row("Bookings", fmt.Sprintf("%d (%s)", st.Bookings, formatAmount(st.BookingValue))),
		row("Actuals", fmt.Sprintf("%d (%s)", st.Actuals, formatAmount(st.ActualValue))),
		row("Total value", formatAmount(st.TotalValue)),
		row("Unproductive calls", strconv.FormatFloat(st.UnproductiveCalls, 'f', -1, 64)),
	)
	return lipgloss.JoinVertical(lipgloss.Left, append(lines, summary)...)
}

func invoiceStatus(s string) string {
	switch s {
	case "Paid":
		return okStyle.Render(s)
	case "Overdue":
		return errStyle.Render(s)
	default:
		return warnStyle.Render(s)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}

func renderVersion(current string, out services.VersionOutcome) string {
	rows := []string{row("Installed", current)}
	switch out.Status {
	case services.VersionError:
		rows = append(rows, row("Status", errStyle.Render("unable to verify app version")))
		if out.Err != nil {
			rows = append(rows, footerStyle.Render(out.Err.Error()))
		}
		return box("Version", rows...)
	case services.VersionOutdated:
		rows = append(rows, row("Status", errStyle.Render("update required")))
	default:
		rows = append(rows, row("Status", okStyle.Render("ok")))
	}

	m := out.Manifest
	rows = append(rows, row("Latest", m.Version))
	if out.Status == services.VersionOutdated {
		msg := m.Message
		if msg == "" {
			msg = fmt.Sprintf("A new version (%s) is required to continue.", m.Version)
		}
		rows = append(rows, msg)
	} else if m.Message != "" {
		rows = append(rows, footerStyle.Render(m.Message))
	}
	if m.UpdateURL != "" {
		rows = append(rows, row("Download", m.UpdateURL))
	}
	return box("Version", rows...)
}
