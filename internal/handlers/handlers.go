package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"tendermgmt/db"
	"tendermgmt/internal/lifecycle"
)

// Handler оборачивает менеджеры жизненного цикла и хранилище для
// read-only запросов
type Handler struct {
	Store   lifecycle.Storage
	Tenders *lifecycle.TenderManager
	Bids    *lifecycle.BidManager
	Awards  *lifecycle.AwardEngine
	Notices *lifecycle.Notifier
}

// NewHandler создает новый Handler поверх хранилища
func NewHandler(store lifecycle.Storage) *Handler {
	return &Handler{
		Store:   store,
		Tenders: lifecycle.NewTenderManager(store),
		Bids:    lifecycle.NewBidManager(store),
		Awards:  lifecycle.NewAwardEngine(store),
		Notices: lifecycle.NewNotifier(store),
	}
}

// PingHandler отвечает "ok" для проверки сервера
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// writeError переводит ошибку ядра в HTTP-статус; текст ошибки уходит
// клиенту как есть, чтобы UI мог показать точную причину отказа
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, lifecycle.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, lifecycle.ErrDuplicateReference),
		errors.Is(err, lifecycle.ErrDuplicateBid),
		errors.Is(err, lifecycle.ErrNotOpen),
		errors.Is(err, lifecycle.ErrInvalidState),
		errors.Is(err, lifecycle.ErrNotWithdrawable),
		errors.Is(err, lifecycle.ErrTenderClosed),
		errors.Is(err, lifecycle.ErrIncompleteEvaluation):
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeResult(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"success": true, "message": message})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1048576)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return errors.New("failed to read request body")
	}
	defer r.Body.Close()
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.New("invalid JSON format")
	}
	return nil
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// VendorLoginHandler сверяет учетные данные поставщика и возвращает его
// идентичность; само ядро аутентификацией не занимается
func (h *Handler) VendorLoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeBody(w, r, &creds); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	vendor, err := h.Store.GetVendorByEmail(r.Context(), creds.Email)
	if err != nil || vendor.Password != creds.Password {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	writeJSON(w, vendor)
}

// OrgLoginHandler сверяет учетные данные организации
func (h *Handler) OrgLoginHandler(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := decodeBody(w, r, &creds); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	org, err := h.Store.GetOrganisationByEmail(r.Context(), creds.Email)
	if err != nil || org.Password != creds.Password {
		http.Error(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	writeJSON(w, org)
}

type signupInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	Password string `json:"password"`
}

// VendorSignupHandler регистрирует нового поставщика. Пароль принимается
// только здесь: в структуре Vendor он скрыт от сериализации
func (h *Handler) VendorSignupHandler(w http.ResponseWriter, r *http.Request) {
	var input signupInput
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		http.Error(w, "name, email and password are required", http.StatusBadRequest)
		return
	}

	if _, err := h.Store.GetVendorByEmail(r.Context(), input.Email); err == nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	vendor := db.Vendor{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		Password: input.Password,
	}
	if err := h.Store.CreateVendor(r.Context(), &vendor); err != nil {
		http.Error(w, "Failed to create vendor", http.StatusInternalServerError)
		return
	}
	writeJSON(w, vendor)
}

// OrgSignupHandler регистрирует новую организацию
func (h *Handler) OrgSignupHandler(w http.ResponseWriter, r *http.Request) {
	var input signupInput
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if input.Name == "" || input.Email == "" || input.Password == "" {
		http.Error(w, "name, email and password are required", http.StatusBadRequest)
		return
	}

	if _, err := h.Store.GetOrganisationByEmail(r.Context(), input.Email); err == nil {
		http.Error(w, "Email already registered", http.StatusConflict)
		return
	}

	org := db.Organisation{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Address:  input.Address,
		Password: input.Password,
	}
	if err := h.Store.CreateOrganisation(r.Context(), &org); err != nil {
		http.Error(w, "Failed to create organisation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, org)
}

// ListVendorsHandler возвращает справочник поставщиков
func (h *Handler) ListVendorsHandler(w http.ResponseWriter, r *http.Request) {
	vendors, err := h.Store.ListVendors(r.Context())
	if err != nil {
		http.Error(w, "Failed to list vendors", http.StatusInternalServerError)
		return
	}
	writeJSON(w, vendors)
}

// DeleteVendorHandler удаляет поставщика по email
func (h *Handler) DeleteVendorHandler(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "Missing email parameter", http.StatusBadRequest)
		return
	}
	if err := h.Store.DeleteVendorByEmail(r.Context(), email); err != nil {
		http.Error(w, "Failed to delete vendor", http.StatusInternalServerError)
		return
	}
	writeResult(w, "Vendor deleted.")
}
