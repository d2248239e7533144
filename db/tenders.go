package db

import (
	"context"
	"time"
)

// Статусы тендера
const (
	TenderOpen    = "Open"
	TenderClosed  = "Closed"
	TenderAwarded = "Awarded"
)

// Tender (Тендер)
type Tender struct {
	ID             int       `db:"tender_id" json:"id"`
	RefNo          string    `db:"tender_ref_no" json:"refNo"`
	OrgID          int       `db:"org_id" json:"orgId"`
	Title          string    `db:"title" json:"title"`
	Description    string    `db:"description" json:"description"`
	Location       string    `db:"location" json:"location"`
	Status         string    `db:"status" json:"status"`
	OpeningDate    time.Time `db:"opening_date" json:"openingDate"`
	ClosingDate    time.Time `db:"closing_date" json:"closingDate"`
	PublishingDate time.Time `db:"publishing_date" json:"publishingDate"`
	WinnerVendorID *int      `db:"winner_vendor_id" json:"winnerVendorId,omitempty"`
}

func (s *Storage) CreateTender(ctx context.Context, t *Tender) error {
	query := `
        INSERT INTO tender
            (tender_ref_no, org_id, title, description, location, status, opening_date, closing_date, publishing_date)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING tender_id`
	return s.db.QueryRowContext(ctx, query,
		t.RefNo, t.OrgID, t.Title, t.Description, t.Location, t.Status,
		t.OpeningDate, t.ClosingDate, t.PublishingDate).Scan(&t.ID)
}

func (s *Storage) GetTender(ctx context.Context, id int) (*Tender, error) {
	t := &Tender{}
	query := `SELECT * FROM tender WHERE tender_id=$1`
	err := s.db.GetContext(ctx, t, query, id)
	return t, err
}

func (s *Storage) GetTenderByRef(ctx context.Context, ref string) (*Tender, error) {
	t := &Tender{}
	query := `SELECT * FROM tender WHERE tender_ref_no=$1`
	err := s.db.GetContext(ctx, t, query, ref)
	return t, err
}

func (s *Storage) TenderRefExists(ctx context.Context, ref string) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM tender WHERE tender_ref_no=$1`
	err := s.db.GetContext(ctx, &count, query, ref)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UpdateTenderField обновляет одну колонку тендера. Колонка должна быть
// проверена вызывающей стороной по белому списку: сюда попадает только
// доверенное имя, значение передаётся параметром.
func (s *Storage) UpdateTenderField(ctx context.Context, tenderID int, column, value string) error {
	query := `UPDATE tender SET ` + column + ` = $1 WHERE tender_id = $2`
	_, err := s.db.ExecContext(ctx, query, value, tenderID)
	return err
}

func (s *Storage) DeleteTender(ctx context.Context, id int) error {
	query := `DELETE FROM tender WHERE tender_id=$1`
	_, err := s.db.ExecContext(ctx, query, id)
	return err
}

func (s *Storage) ListTenders(ctx context.Context) ([]Tender, error) {
	tenders := []Tender{}
	query := `SELECT * FROM tender ORDER BY publishing_date DESC, tender_ref_no ASC`
	err := s.db.SelectContext(ctx, &tenders, query)
	return tenders, err
}

func (s *Storage) ListTendersForOrg(ctx context.Context, orgID int) ([]Tender, error) {
	tenders := []Tender{}
	query := `SELECT * FROM tender WHERE org_id=$1 ORDER BY publishing_date DESC, tender_ref_no ASC`
	err := s.db.SelectContext(ctx, &tenders, query, orgID)
	return tenders, err
}

func (s *Storage) ListOpenTenders(ctx context.Context) ([]Tender, error) {
	tenders := []Tender{}
	query := `SELECT * FROM tender WHERE status=$1 ORDER BY closing_date ASC`
	err := s.db.SelectContext(ctx, &tenders, query, TenderOpen)
	return tenders, err
}

// WithdrawTender снимает открытый тендер: все активные предложения
// переносятся в журнал со статусом Withdrawn, каждому участнику создаётся
// уведомление, предложения удаляются, тендер закрывается без победителя.
// Всё выполняется в одной транзакции.
func (s *Storage) WithdrawTender(ctx context.Context, tenderID int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var ref string
	if err := tx.QueryRowContext(ctx,
		`SELECT tender_ref_no FROM tender WHERE tender_id=$1`, tenderID).Scan(&ref); err != nil {
		return err
	}

	archive := `
        INSERT INTO bid_log
            (vendor_id, tender_id, submission_date, technical_spec, financial_spec,
             status, opened_at, technical_score, financial_score, final_score, remarks,
             closed_timestamp, is_winner)
        SELECT vendor_id, tender_id, submission_date, technical_spec, financial_spec,
               $2, opened_at, technical_score, financial_score, final_score, remarks,
               NOW(), $3
        FROM bid WHERE tender_id = $1`
	if _, err := tx.ExecContext(ctx, archive, tenderID, BidWithdrawn, WinnerNo); err != nil {
		return err
	}

	notify := `
        INSERT INTO notification (vendor_id, title, message)
        SELECT vendor_id, 'Tender Withdrawn',
               'Tender ' || $2 || ' has been withdrawn by the issuing organisation. Your bid was archived.'
        FROM bid WHERE tender_id = $1`
	if _, err := tx.ExecContext(ctx, notify, tenderID, ref); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bid WHERE tender_id=$1`, tenderID); err != nil {
		return err
	}

	update := `UPDATE tender SET status=$1, winner_vendor_id=NULL WHERE tender_id=$2`
	if _, err := tx.ExecContext(ctx, update, TenderClosed, tenderID); err != nil {
		return err
	}

	return tx.Commit()
}
