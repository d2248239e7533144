package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tendermgmt/db"
)

// BidManager принимает, правит и оценивает предложения, пока тендер открыт.
type BidManager struct {
	store Storage
}

func NewBidManager(store Storage) *BidManager {
	return &BidManager{store: store}
}

// Submit подаёт предложение по открытому тендеру. Повторная подача той же
// парой (vendor, tender) отклоняется; при гонке двух вставок вторую
// останавливает ограничение уникальности хранилища.
func (m *BidManager) Submit(ctx context.Context, vendorID int, tenderRef, techSpec, finSpec string) (string, error) {
	if strings.TrimSpace(techSpec) == "" || strings.TrimSpace(finSpec) == "" {
		return "", fmt.Errorf("%w: technical and financial specifications are required", ErrValidation)
	}

	t, err := m.store.GetTenderByRef(ctx, tenderRef)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: tender %s", ErrNotFound, tenderRef)
		}
		return "", storageFail(err)
	}
	if t.Status != db.TenderOpen {
		return "", fmt.Errorf("%w: %s", ErrNotOpen, tenderRef)
	}

	if _, err := m.store.GetBid(ctx, vendorID, t.ID); err == nil {
		return "", fmt.Errorf("%w: tender %s", ErrDuplicateBid, tenderRef)
	} else if !isNoRows(err) {
		return "", storageFail(err)
	}

	b := &db.Bid{
		VendorID:       vendorID,
		TenderID:       t.ID,
		SubmissionDate: db.Today(),
		TechnicalSpec:  techSpec,
		FinancialSpec:  finSpec,
		Status:         db.BidSubmitted,
		OpenedAt:       time.Now(),
	}
	if err := m.store.CreateBid(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: tender %s", ErrDuplicateBid, tenderRef)
		}
		return "", storageFail(err)
	}
	return fmt.Sprintf("Bid submitted successfully for tender %s.", tenderRef), nil
}

// Edit обновляет спецификации предложения, пока оно не ушло на оценку.
// Дата подачи сдвигается на сегодня.
func (m *BidManager) Edit(ctx context.Context, vendorID, tenderID int, techSpec, finSpec string) (string, error) {
	if strings.TrimSpace(techSpec) == "" || strings.TrimSpace(finSpec) == "" {
		return "", fmt.Errorf("%w: technical and financial specifications are required", ErrValidation)
	}

	b, err := m.store.GetBid(ctx, vendorID, tenderID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: bid", ErrNotFound)
		}
		return "", storageFail(err)
	}
	if b.Status != db.BidSubmitted {
		return "", fmt.Errorf("%w: bid is %s and can no longer be edited", ErrInvalidState, b.Status)
	}

	if err := m.store.UpdateBidSpecs(ctx, vendorID, tenderID, techSpec, finSpec); err != nil {
		return "", storageFail(err)
	}
	return "Bid updated successfully.", nil
}

// Withdraw удаляет предложение, если оно ещё в статусе Submitted.
// Ошибки нет и при отсутствии подходящей строки: вызывающая сторона
// проверяет число удалённых строк.
func (m *BidManager) Withdraw(ctx context.Context, vendorID, tenderID int) (int64, error) {
	rows, err := m.store.DeleteSubmittedBid(ctx, vendorID, tenderID)
	if err != nil {
		return 0, storageFail(err)
	}
	return rows, nil
}

// Evaluate выставляет оценки предложению. orgID — необязательный фильтр
// владельца: 0 означает административный вызов без проверки принадлежности.
// Итоговая оценка — простая сумма технической и финансовой.
// Предложения в терминальных статусах переоценке не подлежат.
func (m *BidManager) Evaluate(ctx context.Context, orgID int, tenderRef string, vendorID int, techScore, finScore float64, remarks string) (string, error) {
	if techScore < 0 || techScore > 100 || finScore < 0 || finScore > 100 {
		return "", fmt.Errorf("%w: scores must be between 0 and 100", ErrValidation)
	}

	t, err := m.store.GetTenderByRef(ctx, tenderRef)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: tender %s", ErrNotFound, tenderRef)
		}
		return "", storageFail(err)
	}
	if orgID != 0 && t.OrgID != orgID {
		return "", fmt.Errorf("%w: tender %s for this organisation", ErrNotFound, tenderRef)
	}

	b, err := m.store.GetBid(ctx, vendorID, t.ID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: bid by vendor %d on tender %s", ErrNotFound, vendorID, tenderRef)
		}
		return "", storageFail(err)
	}
	if b.Status != db.BidSubmitted && b.Status != db.BidUnderReview {
		return "", fmt.Errorf("%w: bid is already %s", ErrInvalidState, b.Status)
	}

	finalScore := techScore + finScore
	if err := m.store.UpdateBidScores(ctx, vendorID, t.ID, techScore, finScore, finalScore, remarks); err != nil {
		return "", storageFail(err)
	}
	return fmt.Sprintf("Bid evaluated, final score %.1f.", finalScore), nil
}
