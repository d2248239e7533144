package handlers

import (
	"net/http"
)

func emailQuery(w http.ResponseWriter, r *http.Request) (string, bool) {
	email := r.URL.Query().Get("email")
	if email == "" {
		http.Error(w, "Missing email parameter", http.StatusBadRequest)
		return "", false
	}
	return email, true
}

// ListNotificationsHandler возвращает уведомления поставщика, новые первыми
func (h *Handler) ListNotificationsHandler(w http.ResponseWriter, r *http.Request) {
	email, ok := emailQuery(w, r)
	if !ok {
		return
	}

	notifications, err := h.Notices.ListForVendor(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, notifications)
}

// UnreadCountHandler возвращает число непрочитанных уведомлений
func (h *Handler) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	email, ok := emailQuery(w, r)
	if !ok {
		return
	}

	count, err := h.Notices.UnreadCount(r.Context(), email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{"unread": count})
}

// MarkAllReadHandler отмечает все уведомления поставщика прочитанными
func (h *Handler) MarkAllReadHandler(w http.ResponseWriter, r *http.Request) {
	email, ok := emailQuery(w, r)
	if !ok {
		return
	}

	if err := h.Notices.MarkAllRead(r.Context(), email); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, "All notifications marked as read.")
}

// MarkReadHandler отмечает прочитанными уведомления из списка
func (h *Handler) MarkReadHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		IDs []int `json:"ids"`
	}
	if err := decodeBody(w, r, &input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Notices.MarkRead(r.Context(), input.IDs); err != nil {
		writeError(w, err)
		return
	}
	writeResult(w, "Notifications marked as read.")
}
