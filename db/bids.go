package db

import (
	"context"
	"time"
)

// Статусы предложения
const (
	BidSubmitted   = "Submitted"
	BidUnderReview = "Under Review"
	BidAccepted    = "Accepted"
	BidRejected    = "Rejected"
	BidWithdrawn   = "Withdrawn"
)

// Флаг победителя в журнале
const (
	WinnerYes = "Yes"
	WinnerNo  = "No"
)

// Bid (Предложение). Составной ключ (vendor_id, tender_id): не более
// одного активного предложения поставщика на тендер.
type Bid struct {
	VendorID       int       `db:"vendor_id" json:"vendorId"`
	TenderID       int       `db:"tender_id" json:"tenderId"`
	SubmissionDate time.Time `db:"submission_date" json:"submissionDate"`
	TechnicalSpec  string    `db:"technical_spec" json:"technicalSpec"`
	FinancialSpec  string    `db:"financial_spec" json:"financialSpec"`
	Status         string    `db:"status" json:"status"`
	OpenedAt       time.Time `db:"opened_at" json:"openedAt"`
	TechnicalScore *float64  `db:"technical_score" json:"technicalScore,omitempty"`
	FinancialScore *float64  `db:"financial_score" json:"financialScore,omitempty"`
	FinalScore     *float64  `db:"final_score" json:"finalScore,omitempty"`
	Remarks        string    `db:"remarks" json:"remarks,omitempty"`
}

// BidLog — архивная запись предложения после закрытия тендера.
// Никогда не изменяется после вставки.
type BidLog struct {
	VendorID        int       `db:"vendor_id" json:"vendorId"`
	TenderID        int       `db:"tender_id" json:"tenderId"`
	SubmissionDate  time.Time `db:"submission_date" json:"submissionDate"`
	TechnicalSpec   string    `db:"technical_spec" json:"technicalSpec"`
	FinancialSpec   string    `db:"financial_spec" json:"financialSpec"`
	Status          string    `db:"status" json:"status"`
	OpenedAt        time.Time `db:"opened_at" json:"openedAt"`
	TechnicalScore  *float64  `db:"technical_score" json:"technicalScore,omitempty"`
	FinancialScore  *float64  `db:"financial_score" json:"financialScore,omitempty"`
	FinalScore      *float64  `db:"final_score" json:"finalScore,omitempty"`
	Remarks         string    `db:"remarks" json:"remarks,omitempty"`
	ClosedTimestamp time.Time `db:"closed_timestamp" json:"closedTimestamp"`
	IsWinner        string    `db:"is_winner" json:"isWinner"`
}

func (s *Storage) CreateBid(ctx context.Context, b *Bid) error {
	query := `
        INSERT INTO bid
            (vendor_id, tender_id, submission_date, technical_spec, financial_spec, status, opened_at)
        VALUES
            ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.db.ExecContext(ctx, query,
		b.VendorID, b.TenderID, b.SubmissionDate, b.TechnicalSpec, b.FinancialSpec,
		b.Status, b.OpenedAt)
	return err
}

func (s *Storage) GetBid(ctx context.Context, vendorID, tenderID int) (*Bid, error) {
	b := &Bid{}
	query := `SELECT * FROM bid WHERE vendor_id=$1 AND tender_id=$2`
	err := s.db.GetContext(ctx, b, query, vendorID, tenderID)
	return b, err
}

func (s *Storage) UpdateBidSpecs(ctx context.Context, vendorID, tenderID int, techSpec, finSpec string) error {
	query := `
        UPDATE bid
        SET technical_spec=$1, financial_spec=$2, submission_date=$3
        WHERE vendor_id=$4 AND tender_id=$5`
	_, err := s.db.ExecContext(ctx, query, techSpec, finSpec, Today(), vendorID, tenderID)
	return err
}

// DeleteSubmittedBid удаляет предложение только в статусе Submitted.
// Возвращает число затронутых строк: 0 — молчаливый no-op.
func (s *Storage) DeleteSubmittedBid(ctx context.Context, vendorID, tenderID int) (int64, error) {
	query := `DELETE FROM bid WHERE vendor_id=$1 AND tender_id=$2 AND status=$3`
	res, err := s.db.ExecContext(ctx, query, vendorID, tenderID, BidSubmitted)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *Storage) UpdateBidScores(ctx context.Context, vendorID, tenderID int, techScore, finScore, finalScore float64, remarks string) error {
	query := `
        UPDATE bid
        SET technical_score=$1, financial_score=$2, final_score=$3, remarks=$4, status=$5
        WHERE vendor_id=$6 AND tender_id=$7`
	_, err := s.db.ExecContext(ctx, query,
		techScore, finScore, finalScore, remarks, BidUnderReview, vendorID, tenderID)
	return err
}

func (s *Storage) ListBidsForTender(ctx context.Context, tenderID int) ([]Bid, error) {
	bids := []Bid{}
	query := `SELECT * FROM bid WHERE tender_id=$1 ORDER BY submission_date ASC, vendor_id ASC`
	err := s.db.SelectContext(ctx, &bids, query, tenderID)
	return bids, err
}

func (s *Storage) ListBidsForVendor(ctx context.Context, vendorID int) ([]Bid, error) {
	bids := []Bid{}
	query := `SELECT * FROM bid WHERE vendor_id=$1 ORDER BY submission_date DESC`
	err := s.db.SelectContext(ctx, &bids, query, vendorID)
	return bids, err
}

func (s *Storage) CountBids(ctx context.Context, tenderID int) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM bid WHERE tender_id=$1`
	err := s.db.GetContext(ctx, &count, query, tenderID)
	return count, err
}

func (s *Storage) CountUnscoredBids(ctx context.Context, tenderID int) (int, error) {
	var count int
	query := `SELECT COUNT(1) FROM bid WHERE tender_id=$1 AND final_score IS NULL`
	err := s.db.GetContext(ctx, &count, query, tenderID)
	return count, err
}

// AwardTender присуждает тендер победителю. Каждое активное предложение
// архивируется в журнал (Accepted для победителя, Rejected для остальных),
// участникам рассылаются уведомления об итогах, предложения удаляются,
// тендер закрывается с зафиксированным победителем. Одна транзакция:
// частичная архивация не должна быть наблюдаема.
func (s *Storage) AwardTender(ctx context.Context, tenderID, winnerVendorID int) error {
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
               CASE WHEN vendor_id = $2 THEN $3 ELSE $4 END,
               opened_at, technical_score, financial_score, final_score, remarks,
               NOW(),
               CASE WHEN vendor_id = $2 THEN $5 ELSE $6 END
        FROM bid WHERE tender_id = $1`
	if _, err := tx.ExecContext(ctx, archive, tenderID, winnerVendorID,
		BidAccepted, BidRejected, WinnerYes, WinnerNo); err != nil {
		return err
	}

	notify := `
        INSERT INTO notification (vendor_id, title, message)
        SELECT vendor_id,
               CASE WHEN vendor_id = $2 THEN 'Tender Awarded' ELSE 'Tender Result' END,
               CASE WHEN vendor_id = $2
                    THEN 'Congratulations! Your bid for tender ' || $3 || ' has been accepted.'
                    ELSE 'Tender ' || $3 || ' has been awarded to another bidder. Your bid was not selected.'
               END
        FROM bid WHERE tender_id = $1`
	if _, err := tx.ExecContext(ctx, notify, tenderID, winnerVendorID, ref); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM bid WHERE tender_id=$1`, tenderID); err != nil {
		return err
	}

	update := `UPDATE tender SET status=$1, winner_vendor_id=$2 WHERE tender_id=$3`
	if _, err := tx.ExecContext(ctx, update, TenderClosed, winnerVendorID, tenderID); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Storage) ListLogsForTender(ctx context.Context, tenderID int) ([]BidLog, error) {
	logs := []BidLog{}
	query := `SELECT * FROM bid_log WHERE tender_id=$1 ORDER BY is_winner DESC, vendor_id ASC`
	err := s.db.SelectContext(ctx, &logs, query, tenderID)
	return logs, err
}

func (s *Storage) ListLogsForVendor(ctx context.Context, vendorID int) ([]BidLog, error) {
	logs := []BidLog{}
	query := `SELECT * FROM bid_log WHERE vendor_id=$1 ORDER BY closed_timestamp DESC`
	err := s.db.SelectContext(ctx, &logs, query, vendorID)
	return logs, err
}
