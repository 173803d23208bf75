package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
)

const (
	LoginPath     = "/api/v1/auth/login"
	RefreshPath   = "/api/v1/auth/refresh"
	DayStartPath  = "/api/v1/auth/dayStart"
	DayEndPath    = "/api/v1/auth/dayEnd"
	DashboardPath = "/api/v1/reports/dashboardReport/dashboardReportWithRequiredArguments"
	InvoicesPath  = "/api/v1/reports/invoiceReport/getAllActiveInvoicesForMobile"
)

var (
	errInvalidLogin     = errors.New("invalid login response")
	errDashboardPayload = errors.New("dashboard response missing payload")
	errInvoicePayload   = errors.New("reports response missing payload")
)

// Login authenticates without touching the session; the caller installs the
// returned tokens.
func (c *HTTPClient) Login(ctx context.Context, userName, password string) (*models.Session, error) {
	var env models.Envelope[models.Session]
	err := c.Do(ctx, LoginPath, RequestOptions{
		Method: http.MethodPost,
		Body:   map[string]string{"userName": userName, "password": password},
		NoAuth: true,
	}, &env)
	if err != nil {
		return nil, err
	}
	if env.Payload == nil || env.Payload.Token == "" {
		return nil, unknownError(errInvalidLogin)
	}
	return env.Payload, nil
}

func (c *HTTPClient) DayStart(ctx context.Context, ev models.DayEvent) error {
	return c.Do(ctx, DayStartPath, RequestOptions{Method: http.MethodPost, Body: ev}, nil)
}

func (c *HTTPClient) DayEnd(ctx context.Context, ev models.DayEvent) error {
	return c.Do(ctx, DayEndPath, RequestOptions{Method: http.MethodPost, Body: ev}, nil)
}

// DashboardReport returns the raw dashboard payload; its shape varies between
// backend releases.
func (c *HTTPClient) DashboardReport(ctx context.Context, territoryID, userID int64) (any, error) {
	path := fmt.Sprintf("%s/%s/%s?status=true", DashboardPath,
		url.PathEscape(strconv.FormatInt(territoryID, 10)),
		url.PathEscape(strconv.FormatInt(userID, 10)))

	var env models.Envelope[any]
	if err := c.Do(ctx, path, RequestOptions{}, &env); err != nil {
		return nil, err
	}
	if env.Payload == nil || *env.Payload == nil {
		return nil, unknownError(errDashboardPayload)
	}
	return *env.Payload, nil
}

// ActiveInvoices returns the raw invoice report payload for the territory and
// the inclusive YYYY-MM-DD range.
func (c *HTTPClient) ActiveInvoices(ctx context.Context, territoryID int64, startDate, endDate string) (any, error) {
	query := strings.Join([]string{
		"territoryId=" + url.QueryEscape(strconv.FormatInt(territoryID, 10)),
		"startDate=" + url.QueryEscape(startDate),
		"endDate=" + url.QueryEscape(endDate),
	}, "&")

	var env models.Envelope[any]
	if err := c.Do(ctx, InvoicesPath+"?"+query, RequestOptions{}, &env); err != nil {
		return nil, err
	}
	if env.Payload == nil || *env.Payload == nil {
		return nil, unknownError(errInvoicePayload)
	}
	return *env.Payload, nil
}
