package lifecycle

import (
	"context"
	"fmt"

	"tendermgmt/db"
)

// AwardEngine присуждает тендер: проверяет готовность оценок, выбирает
// победителя, архивирует все предложения и закрывает тендер.
type AwardEngine struct {
	store Storage
}

func NewAwardEngine(store Storage) *AwardEngine {
	return &AwardEngine{store: store}
}

// CanAward: присуждение возможно, когда есть хотя бы одно предложение
// и у каждого проставлена итоговая оценка.
func (e *AwardEngine) CanAward(ctx context.Context, tenderID int) (bool, error) {
	total, err := e.store.CountBids(ctx, tenderID)
	if err != nil {
		return false, storageFail(err)
	}
	if total == 0 {
		return false, nil
	}
	unscored, err := e.store.CountUnscoredBids(ctx, tenderID)
	if err != nil {
		return false, storageFail(err)
	}
	return unscored == 0, nil
}

// Award закрывает открытый тендер в пользу победителя. orgID —
// необязательный фильтр владельца, 0 для административного вызова.
// Архивация, уведомления, удаление предложений и смена статуса
// выполняются хранилищем в одной транзакции.
func (e *AwardEngine) Award(ctx context.Context, orgID, tenderID, winnerVendorID int) (string, error) {
	t, err := e.store.GetTender(ctx, tenderID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: tender %d", ErrNotFound, tenderID)
		}
		return "", storageFail(err)
	}
	if orgID != 0 && t.OrgID != orgID {
		return "", fmt.Errorf("%w: tender %d for this organisation", ErrNotFound, tenderID)
	}
	if t.Status != db.TenderOpen {
		return "", fmt.Errorf("%w: tender %s is %s", ErrInvalidState, t.RefNo, t.Status)
	}

	ok, err := e.CanAward(ctx, tenderID)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w: tender %s", ErrIncompleteEvaluation, t.RefNo)
	}

	if _, err := e.store.GetBid(ctx, winnerVendorID, tenderID); err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: vendor %d has no bid on tender %s", ErrNotFound, winnerVendorID, t.RefNo)
		}
		return "", storageFail(err)
	}

	if err := e.store.AwardTender(ctx, tenderID, winnerVendorID); err != nil {
		return "", storageFail(err)
	}
	return fmt.Sprintf("Tender %s awarded to vendor %d.", t.RefNo, winnerVendorID), nil
}
