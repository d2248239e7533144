package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"tendermgmt/db"
	"tendermgmt/internal/handlers"
	"tendermgmt/internal/testutil"

	"github.com/stretchr/testify/require"
)

func newTestHandler() (*handlers.Handler, *testutil.MemStorage) {
	store := testutil.NewMemStorage()
	return handlers.NewHandler(store), store
}

func seedTender(t *testing.T, store *testutil.MemStorage, ref string, orgID int) *db.Tender {
	t.Helper()
	tender := &db.Tender{
		RefNo:          ref,
		OrgID:          orgID,
		Title:          "Test Tender " + ref,
		Location:       "Pune",
		Status:         db.TenderOpen,
		OpeningDate:    db.Today().AddDate(0, 0, -1),
		ClosingDate:    db.Today().AddDate(0, 0, 14),
		PublishingDate: db.Today(),
	}
	require.NoError(t, store.CreateTender(context.Background(), tender))
	return tender
}

func seedVendor(t *testing.T, store *testutil.MemStorage, name, email string) *db.Vendor {
	t.Helper()
	v := &db.Vendor{Name: name, Email: email, Password: "secret"}
	require.NoError(t, store.CreateVendor(context.Background(), v))
	return v
}

func postJSON(t *testing.T, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestPingHandler(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rr := httptest.NewRecorder()
	h.PingHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func TestCreateTenderHandler(t *testing.T) {
	h, store := newTestHandler()

	req := postJSON(t, "/api/tenders/new", map[string]any{
		"refNo":       "PWD-2025-01",
		"orgId":       1,
		"title":       "Road Repair",
		"location":    "Delhi",
		"openingDate": db.Today().Format("2006-01-02"),
		"closingDate": db.Today().AddDate(0, 0, 30).Format("2006-01-02"),
	})
	rr := httptest.NewRecorder()
	h.CreateTenderHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, true, resp["success"])

	created, err := store.GetTenderByRef(context.Background(), "PWD-2025-01")
	require.NoError(t, err)
	require.Equal(t, db.TenderOpen, created.Status)
}

func TestCreateTenderHandlerBadDate(t *testing.T) {
	h, _ := newTestHandler()

	req := postJSON(t, "/api/tenders/new", map[string]any{
		"refNo":       "PWD-2025-01",
		"orgId":       1,
		"title":       "Road Repair",
		"openingDate": "tomorrow",
		"closingDate": "2025-12-31",
	})
	rr := httptest.NewRecorder()
	h.CreateTenderHandler(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTenderHandlerDuplicate(t *testing.T) {
	h, store := newTestHandler()
	seedTender(t, store, "PWD-2025-01", 1)

	req := postJSON(t, "/api/tenders/new", map[string]any{
		"refNo":       "PWD-2025-01",
		"orgId":       2,
		"title":       "Another",
		"openingDate": db.Today().Format("2006-01-02"),
		"closingDate": db.Today().AddDate(0, 0, 30).Format("2006-01-02"),
	})
	rr := httptest.NewRecorder()
	h.CreateTenderHandler(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestSubmitBidHandler(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")

	req := postJSON(t, "/api/bids/new", map[string]any{
		"vendorId":      vendor.ID,
		"tenderRef":     "T-1",
		"technicalSpec": "ISO 9001 certified",
		"financialSpec": "250000",
	})
	rr := httptest.NewRecorder()
	h.SubmitBidHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	bid, err := store.GetBid(context.Background(), vendor.ID, tender.ID)
	require.NoError(t, err)
	require.Equal(t, db.BidSubmitted, bid.Status)

	// о подаче уведомляет слой HTTP
	notes, err := store.ListNotificationsForVendor(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "Bid Submitted", notes[0].Title)
}

func TestSubmitBidHandlerDuplicate(t *testing.T) {
	h, store := newTestHandler()
	seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")

	body := map[string]any{
		"vendorId":      vendor.ID,
		"tenderRef":     "T-1",
		"technicalSpec": "spec",
		"financialSpec": "100",
	}

	rr := httptest.NewRecorder()
	h.SubmitBidHandler(rr, postJSON(t, "/api/bids/new", body))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.SubmitBidHandler(rr, postJSON(t, "/api/bids/new", body))
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestSubmitBidHandlerUnknownTender(t *testing.T) {
	h, store := newTestHandler()
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")

	req := postJSON(t, "/api/bids/new", map[string]any{
		"vendorId":      vendor.ID,
		"tenderRef":     "NOPE-1",
		"technicalSpec": "spec",
		"financialSpec": "100",
	})
	rr := httptest.NewRecorder()
	h.SubmitBidHandler(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWithdrawBidHandler(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")
	require.NoError(t, store.CreateBid(context.Background(), &db.Bid{
		VendorID: vendor.ID, TenderID: tender.ID,
		SubmissionDate: db.Today(), TechnicalSpec: "spec", FinancialSpec: "100",
		Status: db.BidSubmitted,
	}))

	target := fmt.Sprintf("/api/bids/%d?vendorId=%d", tender.ID, vendor.ID)
	req := httptest.NewRequest(http.MethodDelete, target, nil)
	req = testutil.WithChiURLParams(req, map[string]string{"tenderId": strconv.Itoa(tender.ID)})
	rr := httptest.NewRecorder()
	h.WithdrawBidHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, float64(1), resp["withdrawn"])

	notes, err := store.ListNotificationsForVendor(context.Background(), vendor.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.Equal(t, "Bid Withdrawn", notes[0].Title)
}

func TestWithdrawBidHandlerNoop(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)

	target := fmt.Sprintf("/api/bids/%d?vendorId=42", tender.ID)
	req := httptest.NewRequest(http.MethodDelete, target, nil)
	req = testutil.WithChiURLParams(req, map[string]string{"tenderId": strconv.Itoa(tender.ID)})
	rr := httptest.NewRecorder()
	h.WithdrawBidHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, float64(0), resp["withdrawn"])
}

func TestEvaluateBidHandler(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")
	require.NoError(t, store.CreateBid(context.Background(), &db.Bid{
		VendorID: vendor.ID, TenderID: tender.ID,
		SubmissionDate: db.Today(), TechnicalSpec: "spec", FinancialSpec: "100",
		Status: db.BidSubmitted,
	}))

	req := postJSON(t, "/api/bids/evaluate", map[string]any{
		"orgId":          1,
		"tenderRef":      "T-1",
		"vendorId":       vendor.ID,
		"technicalScore": 80,
		"financialScore": 70,
		"remarks":        "solid",
	})
	rr := httptest.NewRecorder()
	h.EvaluateBidHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Body.String(), "150.0")

	bid, err := store.GetBid(context.Background(), vendor.ID, tender.ID)
	require.NoError(t, err)
	require.Equal(t, db.BidUnderReview, bid.Status)
}

func TestAwardTenderHandler(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")
	score := 150.0
	tech, fin := 80.0, 70.0
	require.NoError(t, store.CreateBid(context.Background(), &db.Bid{
		VendorID: vendor.ID, TenderID: tender.ID,
		SubmissionDate: db.Today(), TechnicalSpec: "spec", FinancialSpec: "100",
		Status:         db.BidUnderReview,
		TechnicalScore: &tech, FinancialScore: &fin, FinalScore: &score,
	}))

	req := postJSON(t, fmt.Sprintf("/api/tenders/%d/award", tender.ID), map[string]any{
		"orgId":          1,
		"winnerVendorId": vendor.ID,
	})
	req = testutil.WithChiURLParams(req, map[string]string{"tenderId": strconv.Itoa(tender.ID)})
	rr := httptest.NewRecorder()
	h.AwardTenderHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	closed, err := store.GetTender(context.Background(), tender.ID)
	require.NoError(t, err)
	require.Equal(t, db.TenderClosed, closed.Status)
	require.Equal(t, vendor.ID, *closed.WinnerVendorID)

	logs, err := store.ListLogsForTender(context.Background(), tender.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, db.WinnerYes, logs[0].IsWinner)
}

func TestAwardTenderHandlerIncomplete(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")
	require.NoError(t, store.CreateBid(context.Background(), &db.Bid{
		VendorID: vendor.ID, TenderID: tender.ID,
		SubmissionDate: db.Today(), TechnicalSpec: "spec", FinancialSpec: "100",
		Status: db.BidSubmitted,
	}))

	req := postJSON(t, fmt.Sprintf("/api/tenders/%d/award", tender.ID), map[string]any{
		"orgId":          1,
		"winnerVendorId": vendor.ID,
	})
	req = testutil.WithChiURLParams(req, map[string]string{"tenderId": strconv.Itoa(tender.ID)})
	rr := httptest.NewRecorder()
	h.AwardTenderHandler(rr, req)

	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestCanAwardHandler(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/tenders/%d/can_award", tender.ID), nil)
	req = testutil.WithChiURLParams(req, map[string]string{"tenderId": strconv.Itoa(tender.ID)})
	rr := httptest.NewRecorder()
	h.CanAwardHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]bool
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.False(t, resp["canAward"])
}

func TestWithdrawTenderHandler(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")
	require.NoError(t, store.CreateBid(context.Background(), &db.Bid{
		VendorID: vendor.ID, TenderID: tender.ID,
		SubmissionDate: db.Today(), TechnicalSpec: "spec", FinancialSpec: "100",
		Status: db.BidSubmitted,
	}))

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/tenders/%d/withdraw", tender.ID), nil)
	req = testutil.WithChiURLParams(req, map[string]string{"tenderId": strconv.Itoa(tender.ID)})
	rr := httptest.NewRecorder()
	h.WithdrawTenderHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	logs, err := store.ListLogsForTender(context.Background(), tender.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	require.Equal(t, db.BidWithdrawn, logs[0].Status)
}

func TestGetTendersHandlerOpenFilter(t *testing.T) {
	h, store := newTestHandler()
	seedTender(t, store, "T-1", 1)
	closed := seedTender(t, store, "T-2", 1)
	closed.Status = db.TenderClosed

	req := httptest.NewRequest(http.MethodGet, "/api/tenders?status=Open", nil)
	rr := httptest.NewRecorder()
	h.GetTendersHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var tenders []db.Tender
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tenders))
	require.Len(t, tenders, 1)
	require.Equal(t, "T-1", tenders[0].RefNo)
}

func TestVendorLoginHandler(t *testing.T) {
	h, store := newTestHandler()
	seedVendor(t, store, "Acme Ltd", "acme@example.com")

	rr := httptest.NewRecorder()
	h.VendorLoginHandler(rr, postJSON(t, "/api/auth/vendor/login", map[string]any{
		"email": "acme@example.com", "password": "secret",
	}))
	require.Equal(t, http.StatusOK, rr.Code)
	// пароль не должен утекать в ответ
	require.NotContains(t, rr.Body.String(), "secret")

	rr = httptest.NewRecorder()
	h.VendorLoginHandler(rr, postJSON(t, "/api/auth/vendor/login", map[string]any{
		"email": "acme@example.com", "password": "wrong",
	}))
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVendorSignupHandlerDuplicateEmail(t *testing.T) {
	h, store := newTestHandler()
	seedVendor(t, store, "Acme Ltd", "acme@example.com")

	rr := httptest.NewRecorder()
	h.VendorSignupHandler(rr, postJSON(t, "/api/vendors/new", map[string]any{
		"name": "Imposter", "email": "acme@example.com", "password": "x",
	}))
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestNotificationHandlers(t *testing.T) {
	h, store := newTestHandler()
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")
	require.NoError(t, store.CreateNotification(context.Background(), &db.Notification{
		VendorID: vendor.ID, Title: "Tender Result", Message: "Tender T-1 awarded.",
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/notifications/unread_count?email=acme@example.com", nil)
	rr := httptest.NewRecorder()
	h.UnreadCountHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"unread":1}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodPut, "/api/notifications/read_all?email=acme@example.com", nil)
	rr = httptest.NewRecorder()
	h.MarkAllReadHandler(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/notifications/unread_count?email=acme@example.com", nil)
	rr = httptest.NewRecorder()
	h.UnreadCountHandler(rr, req)
	require.JSONEq(t, `{"unread":0}`, rr.Body.String())
}

func TestNotificationHandlersUnknownVendor(t *testing.T) {
	h, _ := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/notifications?email=ghost@example.com", nil)
	rr := httptest.NewRecorder()
	h.ListNotificationsHandler(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestExportTenderLogsHandler(t *testing.T) {
	h, store := newTestHandler()
	tender := seedTender(t, store, "T-1", 1)
	vendor := seedVendor(t, store, "Acme Ltd", "acme@example.com")
	require.NoError(t, store.CreateBid(context.Background(), &db.Bid{
		VendorID: vendor.ID, TenderID: tender.ID,
		SubmissionDate: db.Today(), TechnicalSpec: "spec", FinancialSpec: "100",
		Status: db.BidSubmitted,
	}))
	require.NoError(t, store.WithdrawTender(context.Background(), tender.ID))

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/tenders/%d/logs/export", tender.ID), nil)
	req = testutil.WithChiURLParams(req, map[string]string{"tenderId": strconv.Itoa(tender.ID)})
	rr := httptest.NewRecorder()
	h.ExportTenderLogsHandler(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "text/csv", rr.Header().Get("Content-Type"))
	require.Contains(t, rr.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(rr.Body.String()), "\n")
	require.Len(t, lines, 2)
	require.True(t, strings.HasPrefix(lines[0], "vendor_id,submission_date"))
	require.Contains(t, lines[1], "Withdrawn")
}
