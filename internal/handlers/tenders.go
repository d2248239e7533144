package handlers

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

const dateLayout = "2006-01-02"

func tenderIDParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, "tenderId"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid tenderId")
	}
	return id, nil
}

// CreateTenderHandler обрабатывает POST /api/tenders/new запрос
func (h *Handler) CreateTenderHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		RefNo       string `json:"refNo"`
		OrgID       int    `json:"orgId"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Location    string `json:"location"`
		OpeningDate string `json:"openingDate"`
		ClosingDate string `json:"closingDate"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	openingDate, err := time.Parse(dateLayout, input.OpeningDate)
	if err != nil {
		http.Error(w, "openingDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	closingDate, err := time.Parse(dateLayout, input.ClosingDate)
	if err != nil {
		http.Error(w, "closingDate must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	msg, err := h.Tenders.Create(r.Context(), input.RefNo, input.OrgID,
		input.Title, input.Description, input.Location, openingDate, closingDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, msg)
}

// GetTendersHandler возвращает список тендеров; ?status=Open — только открытые
func (h *Handler) GetTendersHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("status") == "Open" {
		tenders, err := h.Store.ListOpenTenders(r.Context())
		if err != nil {
			http.Error(w, "Failed to get tenders", http.StatusInternalServerError)
			return
		}
		writeJSON(w, tenders)
		return
	}

	tenders, err := h.Store.ListTenders(r.Context())
	if err != nil {
		http.Error(w, "Failed to get tenders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tenders)
}

// GetOrgTendersHandler возвращает тендеры одной организации
func (h *Handler) GetOrgTendersHandler(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.Atoi(r.URL.Query().Get("orgId"))
	if err != nil || orgID <= 0 {
		http.Error(w, "Invalid orgId", http.StatusBadRequest)
		return
	}

	tenders, err := h.Store.ListTendersForOrg(r.Context(), orgID)
	if err != nil {
		http.Error(w, "Failed to get tenders", http.StatusInternalServerError)
		return
	}
	writeJSON(w, tenders)
}

// DeleteTenderHandler удаляет тендер до его открытия
func (h *Handler) DeleteTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Tenders.Delete(r.Context(), tenderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, msg)
}

// WithdrawTenderHandler снимает открытый тендер с архивацией предложений
func (h *Handler) WithdrawTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Tenders.Withdraw(r.Context(), tenderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, msg)
}

// EditTenderHandler правит одно поле открытого тендера
func (h *Handler) EditTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var input struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Tenders.EditField(r.Context(), tenderID, input.Field, input.Value)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, msg)
}

// GetTenderBidsHandler возвращает активные предложения по тендеру
func (h *Handler) GetTenderBidsHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bids, err := h.Store.ListBidsForTender(r.Context(), tenderID)
	if err != nil {
		http.Error(w, "Failed to get bids for tender", http.StatusInternalServerError)
		return
	}
	writeJSON(w, bids)
}

// GetTenderLogsHandler возвращает архив предложений закрытого тендера
func (h *Handler) GetTenderLogsHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := h.Store.ListLogsForTender(r.Context(), tenderID)
	if err != nil {
		http.Error(w, "Failed to get bid logs", http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}

// ExportTenderLogsHandler выгружает архив предложений тендера в CSV
func (h *Handler) ExportTenderLogsHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := h.Store.ListLogsForTender(r.Context(), tenderID)
	if err != nil {
		http.Error(w, "Failed to get bid logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=tender_%d_bid_log.csv", tenderID))

	cw := csv.NewWriter(w)
	cw.Write([]string{"vendor_id", "submission_date", "technical_spec", "financial_spec",
		"status", "technical_score", "financial_score", "final_score", "remarks",
		"closed_timestamp", "is_winner"})
	for _, l := range logs {
		cw.Write([]string{
			strconv.Itoa(l.VendorID),
			l.SubmissionDate.Format(dateLayout),
			l.TechnicalSpec,
			l.FinancialSpec,
			l.Status,
			formatScore(l.TechnicalScore),
			formatScore(l.FinancialScore),
			formatScore(l.FinalScore),
			l.Remarks,
			l.ClosedTimestamp.Format(time.RFC3339),
			l.IsWinner,
		})
	}
	cw.Flush()
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', 1, 64)
}

// CanAwardHandler сообщает, готов ли тендер к присуждению
func (h *Handler) CanAwardHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ok, err := h.Awards.CanAward(r.Context(), tenderID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"canAward": ok})
}

// AwardTenderHandler присуждает тендер победителю
func (h *Handler) AwardTenderHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var input struct {
		OrgID          int `json:"orgId"`
		WinnerVendorID int `json:"winnerVendorId"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.WinnerVendorID <= 0 {
		http.Error(w, "winnerVendorId must be positive", http.StatusBadRequest)
		return
	}

	msg, err := h.Awards.Award(r.Context(), input.OrgID, tenderID, input.WinnerVendorID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, msg)
}
