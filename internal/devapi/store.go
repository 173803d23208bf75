package devapi

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
)

type user struct {
	Password string
	Profile  models.Session
}

type refreshToken struct {
	UserID  int64
	Expires time.Time
}

// DayEventRecord is one dayStart/dayEnd notification as received.
type DayEventRecord struct {
	RequestID string
	Received  time.Time
	Event     models.DayEvent
}

func seedUsers() map[string]*user {
	return map[string]*user{
		"agent": {
			Password: "agent123",
			Profile: models.Session{
				UserID: 42, RoleID: 3, Role: "Sales Representative", UserTypeID: 2, UserType: "Field",
				RangeID: 1, Range: "Consumer", AreaIDs: []int64{11, 12},
				TerritoryID: 7, TerritoryName: "Colombo North",
				DistributorID: 501, DistributorName: "Lanka Distributors",
				AgencyCode: 1001, AgencyName: "Western Agency",
				UserName: "agent", PersonalName: "Nimal Perera", GPSStatus: true,
			},
		},
		"agent2": {
			Password: "agent123",
			Profile: models.Session{
				UserID: 43, RoleID: 3, Role: "Sales Representative", UserTypeID: 2, UserType: "Field",
				RangeID: 1, Range: "Consumer", AreaIDs: []int64{21},
				TerritoryID: 8, TerritoryName: "Kandy",
				DistributorID: 502, DistributorName: "Hill Country Traders",
				AgencyCode: 1002, AgencyName: "Central Agency",
				UserName: "agent2", PersonalName: "Kamala Silva",
			},
		},
	}
}

// seedInvoices builds a month of invoices for territory 7 ending at now.
func seedInvoices(now time.Time) []map[string]any {
	outlets := []string{"Lanka Stores", "Kandy Mart", "Galle Traders", "Negombo Foods"}
	out := make([]map[string]any, 0, 12)
	for i := 0; i < 12; i++ {
		day := now.AddDate(0, 0, -i*2)
		value := float64(1500 + i*250)
		inv := map[string]any{
			"invoiceNo":    fmt.Sprintf("INV-%04d", 100+i),
			"territoryId":  float64(7),
			"outletId":     float64(900 + i%len(outlets)),
			"customerName": outlets[i%len(outlets)],
			"routeName":    "Route " + string(rune('A'+i%3)),
			"invoiceType":  "Credit",
			"invoiceDate":  day.Format("2006-01-02"),
			"paymentType":  []string{"cash", "cheque", "credit"}[i%3],
			"totalValue":   value,
			"isBook":       true,
		}
		switch i % 4 {
		case 0:
			inv["isActual"] = true
			inv["totalActualValue"] = value
		case 1:
			inv["isLateDelivery"] = true
			inv["totalBookFinalValue"] = value
		default:
			inv["totalBookFinalValue"] = value
			inv["unproductiveCalls"] = float64(i % 2)
		}
		out = append(out, inv)
	}
	return out
}
