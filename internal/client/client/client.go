package client

import (
	"context"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
)

// Client is the sales API as seen by the services.
type Client interface {
	Login(ctx context.Context, userName, password string) (*models.Session, error)
	DayStart(ctx context.Context, ev models.DayEvent) error
	DayEnd(ctx context.Context, ev models.DayEvent) error
	DashboardReport(ctx context.Context, territoryID, userID int64) (any, error)
	ActiveInvoices(ctx context.Context, territoryID int64, startDate, endDate string) (any, error)
	SetAuthTokens(tokens *models.Tokens, onChange TokenChangeFunc)
}

var _ Client = (*HTTPClient)(nil)
