package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tendermgmt/db"
)

// TenderManager управляет жизненным циклом тендера: создание,
// удаление до открытия, снятие в пределах окна, правка полей.
type TenderManager struct {
	store Storage
}

func NewTenderManager(store Storage) *TenderManager {
	return &TenderManager{store: store}
}

// Белый список редактируемых полей тендера: имя поля запроса -> колонка.
var editableTenderFields = map[string]string{
	"title":        "title",
	"description":  "description",
	"location":     "location",
	"closing_date": "closing_date",
}

// Create создаёт тендер в статусе Open с датой публикации = сегодня.
func (m *TenderManager) Create(ctx context.Context, ref string, orgID int, title, description, location string, openingDate, closingDate time.Time) (string, error) {
	if strings.TrimSpace(ref) == "" || strings.TrimSpace(title) == "" {
		return "", fmt.Errorf("%w: reference number and title are required", ErrValidation)
	}
	if orgID <= 0 {
		return "", fmt.Errorf("%w: organisation id must be positive", ErrValidation)
	}
	if closingDate.Before(openingDate) {
		return "", fmt.Errorf("%w: closing date precedes opening date", ErrValidation)
	}

	exists, err := m.store.TenderRefExists(ctx, ref)
	if err != nil {
		return "", storageFail(err)
	}
	if exists {
		return "", fmt.Errorf("%w: %s", ErrDuplicateReference, ref)
	}

	t := &db.Tender{
		RefNo:          ref,
		OrgID:          orgID,
		Title:          title,
		Description:    description,
		Location:       location,
		Status:         db.TenderOpen,
		OpeningDate:    openingDate,
		ClosingDate:    closingDate,
		PublishingDate: db.Today(),
	}
	if err := m.store.CreateTender(ctx, t); err != nil {
		if isUniqueViolation(err) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateReference, ref)
		}
		return "", storageFail(err)
	}
	return fmt.Sprintf("Tender %s created successfully.", ref), nil
}

// Delete удаляет тендер, только пока он ещё не открылся для подачи.
// После открытия удаление запрещено: тендер можно лишь снять (Withdraw).
func (m *TenderManager) Delete(ctx context.Context, tenderID int) (string, error) {
	t, err := m.store.GetTender(ctx, tenderID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: tender %d", ErrNotFound, tenderID)
		}
		return "", storageFail(err)
	}

	if t.Status != db.TenderOpen || !db.Today().Before(t.OpeningDate) {
		return "", fmt.Errorf("%w: tender %s is past its opening date or closed, withdraw it instead", ErrInvalidState, t.RefNo)
	}

	if err := m.store.DeleteTender(ctx, tenderID); err != nil {
		return "", storageFail(err)
	}
	return fmt.Sprintf("Tender %s deleted successfully.", t.RefNo), nil
}

// Withdraw снимает тендер внутри окна подачи. Все активные предложения
// архивируются со статусом Withdrawn, участникам уходят уведомления.
func (m *TenderManager) Withdraw(ctx context.Context, tenderID int) (string, error) {
	t, err := m.store.GetTender(ctx, tenderID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: tender %d", ErrNotFound, tenderID)
		}
		return "", storageFail(err)
	}

	today := db.Today()
	if t.Status != db.TenderOpen || today.After(t.ClosingDate) {
		return "", fmt.Errorf("%w: %s", ErrTenderClosed, t.RefNo)
	}
	if today.Before(t.OpeningDate) {
		return "", fmt.Errorf("%w: %s has not opened yet", ErrNotWithdrawable, t.RefNo)
	}

	if err := m.store.WithdrawTender(ctx, tenderID); err != nil {
		return "", storageFail(err)
	}
	return fmt.Sprintf("Tender %s withdrawn, all bids archived.", t.RefNo), nil
}

// EditField обновляет одно поле открытого тендера непустым значением.
func (m *TenderManager) EditField(ctx context.Context, tenderID int, field, value string) (string, error) {
	column, ok := editableTenderFields[field]
	if !ok {
		return "", fmt.Errorf("%w: field %q is not editable", ErrValidation, field)
	}
	if strings.TrimSpace(value) == "" {
		return "", fmt.Errorf("%w: new value cannot be empty", ErrValidation)
	}
	if column == "closing_date" {
		if _, err := time.Parse("2006-01-02", value); err != nil {
			return "", fmt.Errorf("%w: closing date must be YYYY-MM-DD", ErrValidation)
		}
	}

	t, err := m.store.GetTender(ctx, tenderID)
	if err != nil {
		if isNoRows(err) {
			return "", fmt.Errorf("%w: tender %d", ErrNotFound, tenderID)
		}
		return "", storageFail(err)
	}
	if t.Status != db.TenderOpen {
		return "", fmt.Errorf("%w: tender %s is not open", ErrInvalidState, t.RefNo)
	}

	if err := m.store.UpdateTenderField(ctx, tenderID, column, value); err != nil {
		return "", storageFail(err)
	}
	return fmt.Sprintf("Tender %s updated successfully.", t.RefNo), nil
}
