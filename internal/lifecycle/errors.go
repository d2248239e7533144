package lifecycle

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Таксономия ошибок ядра. Проверки состояния выполняются до любой
// мутации; сбой хранилища внутри многошаговой операции откатывается
// целиком и выходит наружу как ErrStorage.
var (
	ErrNotFound             = errors.New("not found")
	ErrDuplicateReference   = errors.New("tender reference already exists")
	ErrDuplicateBid         = errors.New("bid already exists for this tender")
	ErrNotOpen              = errors.New("tender is not open")
	ErrInvalidState         = errors.New("operation not allowed in current state")
	ErrNotWithdrawable      = errors.New("tender is outside its withdrawal window")
	ErrTenderClosed         = errors.New("tender is already closed")
	ErrIncompleteEvaluation = errors.New("not all bids have been evaluated")
	ErrValidation           = errors.New("validation failed")
	ErrStorage              = errors.New("storage failure")
)

// isUniqueViolation распознаёт нарушение ограничения уникальности Postgres.
// Именно на этом ограничении держится защита от конкурентной вставки
// второго предложения по одной паре (vendor, tender).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func storageFail(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
