package handlers

import (
	"fmt"
	"net/http"
	"strconv"
)

func vendorIDQuery(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.URL.Query().Get("vendorId"))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid vendorId")
	}
	return id, nil
}

// SubmitBidHandler обрабатывает POST /api/bids/new запрос.
// Уведомление о подаче — обязанность этого слоя, не ядра
func (h *Handler) SubmitBidHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		VendorID      int    `json:"vendorId"`
		TenderRef     string `json:"tenderRef"`
		TechnicalSpec string `json:"technicalSpec"`
		FinancialSpec string `json:"financialSpec"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.VendorID <= 0 {
		http.Error(w, "vendorId must be positive", http.StatusBadRequest)
		return
	}

	msg, err := h.Bids.Submit(r.Context(), input.VendorID, input.TenderRef,
		input.TechnicalSpec, input.FinancialSpec)
	if err != nil {
		writeError(w, err)
		return
	}

	_ = h.Notices.Notify(r.Context(), input.VendorID, "Bid Submitted",
		fmt.Sprintf("Your bid for tender %s was received.", input.TenderRef))

	writeResult(w, msg)
}

// EditBidHandler правит спецификации еще не оцененного предложения
func (h *Handler) EditBidHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vendorID, err := vendorIDQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var input struct {
		TechnicalSpec string `json:"technicalSpec"`
		FinancialSpec string `json:"financialSpec"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	msg, err := h.Bids.Edit(r.Context(), vendorID, tenderID,
		input.TechnicalSpec, input.FinancialSpec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, msg)
}

// WithdrawBidHandler отзывает предложение. Нулевое число удаленных строк
// не ошибка: предложение либо отсутствовало, либо уже ушло на оценку
func (h *Handler) WithdrawBidHandler(w http.ResponseWriter, r *http.Request) {
	tenderID, err := tenderIDParam(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	vendorID, err := vendorIDQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rows, err := h.Bids.Withdraw(r.Context(), vendorID, tenderID)
	if err != nil {
		writeError(w, err)
		return
	}

	if rows > 0 {
		_ = h.Notices.Notify(r.Context(), vendorID, "Bid Withdrawn",
			"Your bid has been withdrawn.")
	}
	writeJSON(w, map[string]any{"success": true, "withdrawn": rows})
}

// EvaluateBidHandler выставляет оценки предложению. orgId=0 —
// административный вызов без фильтра владельца
func (h *Handler) EvaluateBidHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		OrgID          int     `json:"orgId"`
		TenderRef      string  `json:"tenderRef"`
		VendorID       int     `json:"vendorId"`
		TechnicalScore float64 `json:"technicalScore"`
		FinancialScore float64 `json:"financialScore"`
		Remarks        string  `json:"remarks"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.VendorID <= 0 {
		http.Error(w, "vendorId must be positive", http.StatusBadRequest)
		return
	}

	msg, err := h.Bids.Evaluate(r.Context(), input.OrgID, input.TenderRef,
		input.VendorID, input.TechnicalScore, input.FinancialScore, input.Remarks)
	if err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, msg)
}

// GetVendorBidsHandler возвращает активные предложения поставщика
func (h *Handler) GetVendorBidsHandler(w http.ResponseWriter, r *http.Request) {
	vendorID, err := vendorIDQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	bids, err := h.Store.ListBidsForVendor(r.Context(), vendorID)
	if err != nil {
		http.Error(w, "Failed to get vendor bids", http.StatusInternalServerError)
		return
	}
	writeJSON(w, bids)
}

// GetVendorLogsHandler возвращает историю предложений поставщика
func (h *Handler) GetVendorLogsHandler(w http.ResponseWriter, r *http.Request) {
	vendorID, err := vendorIDQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := h.Store.ListLogsForVendor(r.Context(), vendorID)
	if err != nil {
		http.Error(w, "Failed to get vendor bid history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, logs)
}
