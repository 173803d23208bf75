package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/clock"
)

var errNotLoggedIn = errors.New("please login first")

func (a *App) Dashboard(ctx context.Context) error {
	sess := a.authService.Current()
	if sess == nil {
		return errNotLoggedIn
	}
	d, err := a.dashboardService.Load(ctx, sess.TerritoryID, sess.UserID)
	if err != nil {
		return a.check(ctx, err)
	}
	a.println(renderDashboard(d))
	return nil
}

// Invoices lists active invoices. args are optional start and end dates
// (YYYY-MM-DD); the default range is month to date.
func (a *App) Invoices(ctx context.Context, args []string) error {
	sess := a.authService.Current()
	if sess == nil {
		return errNotLoggedIn
	}

	from, to := a.reportService.DefaultRange()
	if len(args) > 2 {
		return errors.New("usage: invoices [from] [to]")
	}
	if len(args) > 0 {
		t, err := a.parseDate(args[0])
		if err != nil {
			return err
		}
		from = t
	}
	if len(args) > 1 {
		t, err := a.parseDate(args[1])
		if err != nil {
			return err
		}
		to = t
	}

	rep, err := a.reportService.ActiveInvoices(ctx, sess.TerritoryID, from, to)
	if err != nil {
		return a.check(ctx, err)
	}
	a.println(renderInvoices(rep))
	return nil
}

func (a *App) parseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(clock.DateLayout, s, a.clock.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}

// Version runs the version check on demand.
func (a *App) Version(ctx context.Context) error {
	if a.versionService == nil {
		a.println("Version check is not configured, installed version " + a.version)
		return nil
	}
	a.println(renderVersion(a.version, a.versionService.Check(ctx)))
	return nil
}
