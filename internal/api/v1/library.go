package v1

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/vmunix/teevee/internal/library"
)

func entryToResponse(e *library.Entry) entryResponse {
	return entryResponse{
		ID:         e.ID,
		Title:      e.Title,
		Status:     e.Status,
		Downloaded: e.Downloaded,
		Watched:    e.Watched,
		Notes:      e.Notes,
		CatalogID:  e.CatalogID,
		CreatedAt:  e.CreatedAt,
	}
}

func validEntryStatus(status string) bool {
	switch status {
	case library.EntryStatusPlanned, library.EntryStatusWatching,
		library.EntryStatusDone, library.EntryStatusDropped:
		return true
	}
	return false
}

func (s *Server) listLibrary(w http.ResponseWriter, r *http.Request) {
	entries, err := s.library.ListEntries(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	resp := make([]entryResponse, len(entries))
	for i, e := range entries {
		resp[i] = entryToResponse(e)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) addLibraryEntry(w http.ResponseWriter, r *http.Request) {
	var req addEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "INVALID_TITLE", "title is required")
		return
	}
	if req.Status != "" && !validEntryStatus(req.Status) {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS",
			"status must be planned, watching, done, or dropped")
		return
	}

	e := &library.Entry{
		Title:      req.Title,
		Status:     req.Status,
		Downloaded: req.Downloaded,
		Watched:    req.Watched,
		Notes:      req.Notes,
		CatalogID:  req.CatalogID,
	}
	if err := s.library.AddEntry(r.Context(), e); err != nil {
		if errors.Is(err, library.ErrConstraint) {
			writeError(w, http.StatusBadRequest, "INVALID_CATALOG_ID", "catalog title does not exist")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, entryToResponse(e))
}

func (s *Server) updateLibraryEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	var req updateEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Status != nil && !validEntryStatus(*req.Status) {
		writeError(w, http.StatusBadRequest, "INVALID_STATUS",
			"status must be planned, watching, done, or dropped")
		return
	}

	e, err := s.library.UpdateEntry(r.Context(), id, library.EntryUpdate{
		Status:     req.Status,
		Downloaded: req.Downloaded,
		Watched:    req.Watched,
		Notes:      req.Notes,
	})
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, entryToResponse(e))
}

func (s *Server) deleteLibraryEntry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	if err := s.library.DeleteEntry(r.Context(), id); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Entry not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
