package httpapi

import (
	"database/sql"
	"net/http"
	"strconv"

	"jobapply-engine/internal/store"
)

type ApplicationsHandler struct {
	DB *sql.DB
}

// List returns recent sends, newest first. ?limit= caps the count.
func (h ApplicationsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.DB == nil {
		WriteError(w, r, http.StatusServiceUnavailable, "no_database", "applications log is not configured")
		return
	}

	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			WriteError(w, r, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	apps, err := store.ListApplications(r.Context(), h.DB, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	if apps == nil {
		apps = []store.Application{}
	}
	WriteJSON(w, http.StatusOK, apps)
}
