// Package testutil содержит вспомогательные средства для тестов:
// хранилище в памяти, реализующее lifecycle.Storage, и хелпер для
// подстановки chi URL-параметров в запрос.
package testutil

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"tendermgmt/db"

	"github.com/lib/pq"
)

type bidKey struct {
	VendorID, TenderID int
}

// MemStorage — хранилище в памяти для тестов. Повторяет семантику
// db.Storage, включая нарушение уникальности как *pq.Error 23505 и
// отсутствие строки как sql.ErrNoRows.
type MemStorage struct {
	Vendors       map[int]*db.Vendor
	Orgs          map[int]*db.Organisation
	Tenders       map[int]*db.Tender
	Bids          map[bidKey]*db.Bid
	Logs          []db.BidLog
	Notifications []db.Notification

	// FailAward и FailWithdraw имитируют сбой транзакции: операция
	// возвращает ошибку, не меняя состояние.
	FailAward    bool
	FailWithdraw bool

	nextID int
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		Vendors: map[int]*db.Vendor{},
		Orgs:    map[int]*db.Organisation{},
		Tenders: map[int]*db.Tender{},
		Bids:    map[bidKey]*db.Bid{},
		nextID:  1,
	}
}

func uniqueViolation() error {
	return &pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"}
}

func (m *MemStorage) newID() int {
	id := m.nextID
	m.nextID++
	return id
}

func (m *MemStorage) CreateVendor(ctx context.Context, v *db.Vendor) error {
	for _, existing := range m.Vendors {
		if existing.Email == v.Email {
			return uniqueViolation()
		}
	}
	v.ID = m.newID()
	m.Vendors[v.ID] = v
	return nil
}

func (m *MemStorage) GetVendor(ctx context.Context, id int) (*db.Vendor, error) {
	v, ok := m.Vendors[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return v, nil
}

func (m *MemStorage) GetVendorByEmail(ctx context.Context, email string) (*db.Vendor, error) {
	for _, v := range m.Vendors {
		if v.Email == email {
			return v, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStorage) ListVendors(ctx context.Context) ([]db.Vendor, error) {
	vendors := []db.Vendor{}
	for _, v := range m.Vendors {
		vendors = append(vendors, *v)
	}
	sort.Slice(vendors, func(i, j int) bool { return vendors[i].Name < vendors[j].Name })
	return vendors, nil
}

func (m *MemStorage) DeleteVendorByEmail(ctx context.Context, email string) error {
	for id, v := range m.Vendors {
		if v.Email == email {
			delete(m.Vendors, id)
		}
	}
	return nil
}

func (m *MemStorage) CreateOrganisation(ctx context.Context, o *db.Organisation) error {
	for _, existing := range m.Orgs {
		if existing.Email == o.Email {
			return uniqueViolation()
		}
	}
	o.ID = m.newID()
	m.Orgs[o.ID] = o
	return nil
}

func (m *MemStorage) GetOrganisation(ctx context.Context, id int) (*db.Organisation, error) {
	o, ok := m.Orgs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return o, nil
}

func (m *MemStorage) GetOrganisationByEmail(ctx context.Context, email string) (*db.Organisation, error) {
	for _, o := range m.Orgs {
		if o.Email == email {
			return o, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStorage) CreateTender(ctx context.Context, t *db.Tender) error {
	for _, existing := range m.Tenders {
		if existing.RefNo == t.RefNo {
			return uniqueViolation()
		}
	}
	t.ID = m.newID()
	m.Tenders[t.ID] = t
	return nil
}

func (m *MemStorage) GetTender(ctx context.Context, id int) (*db.Tender, error) {
	t, ok := m.Tenders[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return t, nil
}

func (m *MemStorage) GetTenderByRef(ctx context.Context, ref string) (*db.Tender, error) {
	for _, t := range m.Tenders {
		if t.RefNo == ref {
			return t, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *MemStorage) TenderRefExists(ctx context.Context, ref string) (bool, error) {
	_, err := m.GetTenderByRef(ctx, ref)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (m *MemStorage) UpdateTenderField(ctx context.Context, tenderID int, column, value string) error {
	t, ok := m.Tenders[tenderID]
	if !ok {
		return sql.ErrNoRows
	}
	switch column {
	case "title":
		t.Title = value
	case "description":
		t.Description = value
	case "location":
		t.Location = value
	case "closing_date":
		d, err := time.Parse("2006-01-02", value)
		if err != nil {
			return err
		}
		t.ClosingDate = d
	}
	return nil
}

func (m *MemStorage) DeleteTender(ctx context.Context, id int) error {
	delete(m.Tenders, id)
	return nil
}

func (m *MemStorage) listTenders(filter func(*db.Tender) bool) []db.Tender {
	tenders := []db.Tender{}
	for _, t := range m.Tenders {
		if filter(t) {
			tenders = append(tenders, *t)
		}
	}
	sort.Slice(tenders, func(i, j int) bool { return tenders[i].RefNo < tenders[j].RefNo })
	return tenders
}

func (m *MemStorage) ListTenders(ctx context.Context) ([]db.Tender, error) {
	return m.listTenders(func(*db.Tender) bool { return true }), nil
}

func (m *MemStorage) ListTendersForOrg(ctx context.Context, orgID int) ([]db.Tender, error) {
	return m.listTenders(func(t *db.Tender) bool { return t.OrgID == orgID }), nil
}

func (m *MemStorage) ListOpenTenders(ctx context.Context) ([]db.Tender, error) {
	return m.listTenders(func(t *db.Tender) bool { return t.Status == db.TenderOpen }), nil
}

func (m *MemStorage) WithdrawTender(ctx context.Context, tenderID int) error {
	if m.FailWithdraw {
		return errors.New("simulated transaction failure")
	}
	t, ok := m.Tenders[tenderID]
	if !ok {
		return sql.ErrNoRows
	}
	for key, b := range m.Bids {
		if b.TenderID != tenderID {
			continue
		}
		m.Logs = append(m.Logs, toLog(b, db.BidWithdrawn, db.WinnerNo))
		m.Notifications = append(m.Notifications, db.Notification{
			ID:        m.newID(),
			VendorID:  b.VendorID,
			Title:     "Tender Withdrawn",
			Message:   "Tender " + t.RefNo + " has been withdrawn by the issuing organisation. Your bid was archived.",
			Timestamp: time.Now(),
		})
		delete(m.Bids, key)
	}
	t.Status = db.TenderClosed
	t.WinnerVendorID = nil
	return nil
}

func toLog(b *db.Bid, status, isWinner string) db.BidLog {
	return db.BidLog{
		VendorID:        b.VendorID,
		TenderID:        b.TenderID,
		SubmissionDate:  b.SubmissionDate,
		TechnicalSpec:   b.TechnicalSpec,
		FinancialSpec:   b.FinancialSpec,
		Status:          status,
		OpenedAt:        b.OpenedAt,
		TechnicalScore:  b.TechnicalScore,
		FinancialScore:  b.FinancialScore,
		FinalScore:      b.FinalScore,
		Remarks:         b.Remarks,
		ClosedTimestamp: time.Now(),
		IsWinner:        isWinner,
	}
}

func (m *MemStorage) CreateBid(ctx context.Context, b *db.Bid) error {
	key := bidKey{b.VendorID, b.TenderID}
	if _, exists := m.Bids[key]; exists {
		return uniqueViolation()
	}
	m.Bids[key] = b
	return nil
}

func (m *MemStorage) GetBid(ctx context.Context, vendorID, tenderID int) (*db.Bid, error) {
	b, ok := m.Bids[bidKey{vendorID, tenderID}]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return b, nil
}

func (m *MemStorage) UpdateBidSpecs(ctx context.Context, vendorID, tenderID int, techSpec, finSpec string) error {
	b, ok := m.Bids[bidKey{vendorID, tenderID}]
	if !ok {
		return sql.ErrNoRows
	}
	b.TechnicalSpec = techSpec
	b.FinancialSpec = finSpec
	b.SubmissionDate = db.Today()
	return nil
}

func (m *MemStorage) DeleteSubmittedBid(ctx context.Context, vendorID, tenderID int) (int64, error) {
	key := bidKey{vendorID, tenderID}
	b, ok := m.Bids[key]
	if !ok || b.Status != db.BidSubmitted {
		return 0, nil
	}
	delete(m.Bids, key)
	return 1, nil
}

func (m *MemStorage) UpdateBidScores(ctx context.Context, vendorID, tenderID int, techScore, finScore, finalScore float64, remarks string) error {
	b, ok := m.Bids[bidKey{vendorID, tenderID}]
	if !ok {
		return sql.ErrNoRows
	}
	b.TechnicalScore = &techScore
	b.FinancialScore = &finScore
	b.FinalScore = &finalScore
	b.Remarks = remarks
	b.Status = db.BidUnderReview
	return nil
}

func (m *MemStorage) listBids(filter func(*db.Bid) bool) []db.Bid {
	bids := []db.Bid{}
	for _, b := range m.Bids {
		if filter(b) {
			bids = append(bids, *b)
		}
	}
	sort.Slice(bids, func(i, j int) bool { return bids[i].VendorID < bids[j].VendorID })
	return bids
}

func (m *MemStorage) ListBidsForTender(ctx context.Context, tenderID int) ([]db.Bid, error) {
	return m.listBids(func(b *db.Bid) bool { return b.TenderID == tenderID }), nil
}

func (m *MemStorage) ListBidsForVendor(ctx context.Context, vendorID int) ([]db.Bid, error) {
	return m.listBids(func(b *db.Bid) bool { return b.VendorID == vendorID }), nil
}

func (m *MemStorage) CountBids(ctx context.Context, tenderID int) (int, error) {
	return len(m.listBids(func(b *db.Bid) bool { return b.TenderID == tenderID })), nil
}

func (m *MemStorage) CountUnscoredBids(ctx context.Context, tenderID int) (int, error) {
	return len(m.listBids(func(b *db.Bid) bool {
		return b.TenderID == tenderID && b.FinalScore == nil
	})), nil
}

func (m *MemStorage) AwardTender(ctx context.Context, tenderID, winnerVendorID int) error {
	if m.FailAward {
		return errors.New("simulated transaction failure")
	}
	t, ok := m.Tenders[tenderID]
	if !ok {
		return sql.ErrNoRows
	}
	for key, b := range m.Bids {
		if b.TenderID != tenderID {
			continue
		}
		status, isWinner := db.BidRejected, db.WinnerNo
		title := "Tender Result"
		if b.VendorID == winnerVendorID {
			status, isWinner = db.BidAccepted, db.WinnerYes
			title = "Tender Awarded"
		}
		m.Logs = append(m.Logs, toLog(b, status, isWinner))
		m.Notifications = append(m.Notifications, db.Notification{
			ID:        m.newID(),
			VendorID:  b.VendorID,
			Title:     title,
			Timestamp: time.Now(),
		})
		delete(m.Bids, key)
	}
	t.Status = db.TenderClosed
	winner := winnerVendorID
	t.WinnerVendorID = &winner
	return nil
}

func (m *MemStorage) listLogs(filter func(*db.BidLog) bool) []db.BidLog {
	logs := []db.BidLog{}
	for i := range m.Logs {
		if filter(&m.Logs[i]) {
			logs = append(logs, m.Logs[i])
		}
	}
	return logs
}

func (m *MemStorage) ListLogsForTender(ctx context.Context, tenderID int) ([]db.BidLog, error) {
	return m.listLogs(func(l *db.BidLog) bool { return l.TenderID == tenderID }), nil
}

func (m *MemStorage) ListLogsForVendor(ctx context.Context, vendorID int) ([]db.BidLog, error) {
	return m.listLogs(func(l *db.BidLog) bool { return l.VendorID == vendorID }), nil
}

func (m *MemStorage) CreateNotification(ctx context.Context, n *db.Notification) error {
	n.ID = m.newID()
	n.Timestamp = time.Now()
	n.IsRead = false
	m.Notifications = append(m.Notifications, *n)
	return nil
}

// ListNotificationsForVendor возвращает уведомления новыми вперед,
// как и SQL-реализация.
func (m *MemStorage) ListNotificationsForVendor(ctx context.Context, vendorID int) ([]db.Notification, error) {
	notifications := []db.Notification{}
	for i := len(m.Notifications) - 1; i >= 0; i-- {
		if m.Notifications[i].VendorID == vendorID {
			notifications = append(notifications, m.Notifications[i])
		}
	}
	return notifications, nil
}

func (m *MemStorage) CountUnreadNotifications(ctx context.Context, vendorID int) (int, error) {
	count := 0
	for _, n := range m.Notifications {
		if n.VendorID == vendorID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MemStorage) MarkAllNotificationsRead(ctx context.Context, vendorID int) error {
	for i := range m.Notifications {
		if m.Notifications[i].VendorID == vendorID {
			m.Notifications[i].IsRead = true
		}
	}
	return nil
}

func (m *MemStorage) MarkNotificationsRead(ctx context.Context, ids []int) error {
	for i := range m.Notifications {
		for _, id := range ids {
			if m.Notifications[i].ID == id {
				m.Notifications[i].IsRead = true
			}
		}
	}
	return nil
}
