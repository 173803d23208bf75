package devapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/fieldsales/internal/client/models"
	"github.com/dmitrijs2005/fieldsales/internal/clock"
	"github.com/dmitrijs2005/fieldsales/internal/common"
)

type envelope struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Payload any    `json:"payload,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, envelope{Code: http.StatusBadRequest, Message: msg})
}

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid body")
		return
	}

	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(req.UserName))]
	s.mu.Unlock()
	if !ok || subtle.ConstantTimeCompare([]byte(u.Password), []byte(req.Password)) != 1 {
		writeJSON(w, http.StatusUnauthorized, envelope{Code: http.StatusUnauthorized, Message: "Invalid credentials"})
		return
	}

	access, refresh, err := s.issue(u.Profile.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Code: http.StatusInternalServerError, Message: common.ErrorInternal.Error()})
		return
	}

	sess := u.Profile
	sess.Token = access
	sess.RefreshToken = refresh
	sess.AccessTokenExpiry = models.Millis(s.cfg.AccessTTL.Milliseconds())
	sess.RefreshTokenExpiry = models.Millis(s.cfg.RefreshTTL.Milliseconds())
	sess.ServerTime = s.clock.Now().Format("2006-01-02T15:04:05Z07:00")

	s.mu.Lock()
	s.stats.Logins++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Message: "Login successful", Payload: sess})
}

// issue mints an access token and stores a new refresh token.
func (s *Server) issue(userID int64) (string, string, error) {
	now := s.clock.Now()
	access, err := GenerateToken(userID, s.secret, now, s.cfg.AccessTTL)
	if err != nil {
		return "", "", err
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return "", "", err
	}

	s.mu.Lock()
	s.refresh[refresh] = refreshToken{UserID: userID, Expires: now.Add(s.cfg.RefreshTTL)}
	s.mu.Unlock()
	return access, refresh, nil
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// handleRefresh rotates the refresh token: the presented one is consumed.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		s.reject(w, "missing refresh token")
		return
	}

	s.mu.Lock()
	tok, ok := s.refresh[req.RefreshToken]
	delete(s.refresh, req.RefreshToken)
	s.mu.Unlock()

	if !ok {
		s.reject(w, common.ErrorNotFound.Error())
		return
	}
	if tok.Expires.Before(s.clock.Now()) {
		s.reject(w, common.ErrRefreshTokenExpired.Error())
		return
	}

	access, refresh, err := s.issue(tok.UserID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, envelope{Code: http.StatusInternalServerError, Message: common.ErrorInternal.Error()})
		return
	}

	s.mu.Lock()
	s.stats.Refreshes++
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Message: "Token refreshed", Payload: models.RefreshPayload{
		Token:              access,
		RefreshToken:       refresh,
		AccessTokenExpiry:  models.Millis(s.cfg.AccessTTL.Milliseconds()),
		RefreshTokenExpiry: models.Millis(s.cfg.RefreshTTL.Milliseconds()),
	}})
}

func (s *Server) handleDayEvent(checkIn bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ev models.DayEvent
		if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
			badRequest(w, "invalid body")
			return
		}
		if ev.UserID != r.Context().Value(userIDKey).(int64) {
			writeJSON(w, http.StatusForbidden, envelope{Code: http.StatusForbidden, Message: "user mismatch"})
			return
		}
		if ev.IsCheckIn != checkIn || ev.IsCheckOut == checkIn {
			badRequest(w, "inconsistent check in/out flags")
			return
		}

		id, _ := r.Context().Value(requestIDKey).(string)
		s.mu.Lock()
		s.events = append(s.events, DayEventRecord{RequestID: id, Received: s.clock.Now(), Event: ev})
		s.mu.Unlock()

		msg := "Day ended"
		if checkIn {
			msg = "Day started"
		}
		writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Message: msg})
	})
}

// lastCheckIn is the newest check-in of userID on the current business day.
func (s *Server) lastCheckIn(userID int64) string {
	today := s.clock.Today()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.events) - 1; i >= 0; i-- {
		e := s.events[i]
		if e.Event.UserID == userID && e.Event.IsCheckIn && e.Received.In(s.clock.Location()).Format(clock.DateLayout) == today {
			return e.Received.UTC().Format("2006-01-02T15:04:05Z")
		}
	}
	return ""
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	territoryID, err1 := strconv.ParseInt(r.PathValue("territoryId"), 10, 64)
	userID, err2 := strconv.ParseInt(r.PathValue("userId"), 10, 64)
	if err1 != nil || err2 != nil {
		badRequest(w, "invalid territory or user id")
		return
	}

	from := s.clock.StartOfMonth(s.clock.Now()).Format(clock.DateLayout)
	to := s.clock.Today()
	var bookingValue, actualValue float64
	var bookings, actuals, lateCount int
	for _, inv := range s.invoicesFor(territoryID, from, to) {
		switch {
		case inv["isActual"] == true:
			actuals++
			actualValue += inv["totalActualValue"].(float64)
		case inv["isLateDelivery"] == true:
			lateCount++
		default:
			bookings++
			bookingValue += inv["totalBookFinalValue"].(float64)
		}
	}

	summary := map[string]any{
		"territoryTargetForThisMonth":           250000,
		"myAchievementValue":                    actualValue,
		"pcTargetForThisMonth":                  120,
		"achievedPcTargetForThisMonth":          actuals + bookings,
		"unproductiveCallCountForThisMonth":     3,
		"activeOutletCount":                     148,
		"inactiveOutletCount":                   12,
		"visitedOutletCountForThisMonth":        61,
		"visitCountForThisMonth":                87,
		"totalBookingValueForThisMonth":         bookingValue,
		"bookingInvoicesCountForThisMonth":      bookings,
		"totalActualValueForThisMonth":          actualValue,
		"actualInvoicesCountForThisMonth":       actuals,
		"lateDeliveryInvoicesCountForThisMonth": lateCount,
	}
	if r.URL.Query().Get("status") == "true" {
		summary["checkInTime"] = s.lastCheckIn(userID)
	}

	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Message: "success", Payload: map[string]any{"dashboard": summary}})
}

func (s *Server) invoicesFor(territoryID int64, from, to string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []map[string]any
	for _, inv := range s.invoices {
		date, _ := inv["invoiceDate"].(string)
		if inv["territoryId"] == float64(territoryID) && date >= from && date <= to {
			out = append(out, inv)
		}
	}
	return out
}

func (s *Server) handleInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	territoryID, err := strconv.ParseInt(q.Get("territoryId"), 10, 64)
	if err != nil {
		badRequest(w, "territoryId is required")
		return
	}
	from, to := q.Get("startDate"), q.Get("endDate")
	if from == "" || to == "" || from > to {
		badRequest(w, "invalid date range")
		return
	}

	list := s.invoicesFor(territoryID, from, to)
	if list == nil {
		list = []map[string]any{}
	}
	writeJSON(w, http.StatusOK, envelope{Code: http.StatusOK, Message: "success", Payload: list})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"version":   s.cfg.LatestVersion,
		"mandatory": s.cfg.Mandatory,
		"updateUrl": s.cfg.UpdateURL,
		"message":   "",
	})
}
