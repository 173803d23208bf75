package cli

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/client/services"
)

// Status loads the current day of the logged in agent and re-arms the
// auto close for it.
func (a *App) Status(ctx context.Context) error {
	sess := a.authService.Current()
	if sess == nil {
		return errNotLoggedIn
	}

	res, err := a.dayService.Load(ctx, sess.UserID)
	if err != nil {
		return a.check(ctx, err)
	}
	a.autoClose.Reschedule(sess.UserID, res.State.Status())

	if res.AutoEnded {
		a.println(warnStyle.Render("Your previous day was still open and has been ended."))
	}
	a.println(renderDay(sess, res.State, a.clock.Location(), a.untilEndOfDay()))
	return nil
}

func (a *App) StartDay(ctx context.Context) error {
	sess := a.authService.Current()
	if sess == nil {
		return errNotLoggedIn
	}

	tr, err := a.dayService.Start(ctx, sess.UserID, a.dayOptions(ctx))
	if err != nil {
		return a.check(ctx, err)
	}
	a.autoClose.Reschedule(sess.UserID, tr.State.Status())

	if tr.Kind == services.Unchanged {
		a.println("Day already started")
	} else {
		a.println(okStyle.Render("Day started"))
	}
	a.println(renderDay(sess, tr.State, a.clock.Location(), a.untilEndOfDay()))
	return nil
}

func (a *App) EndDay(ctx context.Context) error {
	sess := a.authService.Current()
	if sess == nil {
		return errNotLoggedIn
	}

	tr, err := a.dayService.End(ctx, sess.UserID, a.dayOptions(ctx))
	if err != nil {
		// both leave no local record behind
		if errors.Is(err, services.ErrWindowExpired) || errors.Is(err, services.ErrNotStarted) {
			a.autoClose.Reschedule(sess.UserID, models.DayNotStarted)
		}
		return a.check(ctx, err)
	}
	a.autoClose.Reschedule(sess.UserID, models.DayCompleted)

	if tr.Kind == services.Unchanged {
		a.println("Day already ended")
	} else {
		a.println(okStyle.Render("Day ended"))
	}
	a.println(renderDay(sess, tr.State, a.clock.Location(), 0))
	return nil
}

func (a *App) dayOptions(ctx context.Context) services.DayActionOptions {
	loc := a.location.Current(ctx)
	gps := loc.Enabled()
	return services.DayActionOptions{
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		GPSStatus: &gps,
	}
}

func (a *App) untilEndOfDay() time.Duration {
	return time.Duration(a.dayService.MsUntilEndOfDay()) * time.Millisecond
}
