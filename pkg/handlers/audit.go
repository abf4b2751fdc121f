package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"scanteate/pkg/audit"
)

type AuditHandler struct {
	Repo   audit.Repository
	Logger *zap.Logger
}

func NewAuditHandler(repo audit.Repository, logger *zap.Logger) *AuditHandler {
	return &AuditHandler{Repo: repo, Logger: logger}
}

// ByUser lists the latest audit entries of a user, newest first.
func (h *AuditHandler) ByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "userId")
	if !ok {
		return
	}

	limit := audit.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, typeError, "invalid limit")
			return
		}
		limit = min(n, audit.MaxLimit)
	}

	entries, err := h.Repo.ByUser(r.Context(), userID, limit)
	if err != nil {
		internalError(w, h.Logger, "list audit entries", err)
		return
	}
	if entries == nil {
		entries = []*audit.Entry{}
	}
	writeJSON(w, h.Logger, http.StatusOK, entries)
}

func Health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
