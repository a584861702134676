package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vmunix/teevee/internal/catalog"
	"github.com/vmunix/teevee/internal/library"
	"github.com/vmunix/teevee/pkg/match"
)

// searchCandidates is how many rows the substring search pulls before
// fuzzy ranking narrows them down.
const searchCandidates = 50

func titleToResponse(t *catalog.Title) titleResponse {
	return titleResponse{
		ID:          t.ID,
		Title:       t.Title,
		MediaType:   string(t.MediaType),
		Year:        t.Year,
		Source:      t.Source,
		SourceURL:   t.SourceURL,
		ExternalID:  t.ExternalID,
		Description: t.Description,
		ReleaseDate: t.ReleaseDate,
		Rating:      t.Rating,
	}
}

func (s *Server) listCatalog(w http.ResponseWriter, r *http.Request) {
	filter := library.TitleFilter{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
		Source: queryString(r, "source"),
	}
	if typeStr := queryString(r, "type"); typeStr != nil {
		mt := catalog.MediaType(*typeStr)
		filter.MediaType = &mt
	}

	items, total, err := s.library.ListTitles(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listTitlesResponse{
		Items:  make([]titleResponse, len(items)),
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}
	for i, t := range items {
		resp.Items[i] = titleToResponse(t)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getCatalogTitle(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	t, err := s.library.GetTitle(r.Context(), id)
	if err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Title not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, titleToResponse(t))
}

// searchCatalog does a substring match in sqlite, then orders the
// candidates by fuzzy similarity to the query.
func (s *Server) searchCatalog(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusOK, []titleResponse{})
		return
	}
	limit := queryInt(r, "limit", 8)

	candidates, err := s.library.SearchTitles(r.Context(), query, searchCandidates)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	names := make([]string, len(candidates))
	for i, t := range candidates {
		names[i] = t.Title
	}

	resp := make([]titleResponse, 0, limit)
	for _, ranked := range match.Rank(query, names) {
		if len(resp) >= limit {
			break
		}
		resp = append(resp, titleToResponse(candidates[ranked.Index]))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listEpisodes(w http.ResponseWriter, r *http.Request) {
	catalogID, err := pathID(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ID", err.Error())
		return
	}

	if _, err := s.library.GetTitle(r.Context(), catalogID); err != nil {
		if errors.Is(err, library.ErrNotFound) {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Title not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	filter := library.EpisodeFilter{CatalogID: &catalogID}
	if season := queryString(r, "season"); season != nil {
		n := queryInt(r, "season", 0)
		filter.Season = &n
	}

	episodes, total, err := s.library.ListEpisodes(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "DB_ERROR", err.Error())
		return
	}

	resp := listEpisodesResponse{
		Items: make([]episodeResponse, len(episodes)),
		Total: total,
	}
	for i, ep := range episodes {
		resp.Items[i] = episodeResponse{
			ID:          ep.ID,
			CatalogID:   ep.CatalogID,
			Title:       ep.Title,
			Season:      ep.Season,
			Episode:     ep.Episode,
			AirDate:     ep.AirDate,
			Description: ep.Description,
			Source:      ep.Source,
			SourceURL:   ep.SourceURL,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) triggerRefresh(w http.ResponseWriter, r *http.Request) {
	summary, err := s.refresher.Refresh(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "REFRESH_FAILED", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, refreshResponse{
		TitlesCreated:   summary.Titles.Created,
		TitlesUpdated:   summary.Titles.Updated,
		EpisodesCreated: summary.Episodes.Created,
		EpisodesUpdated: summary.Episodes.Updated,
	})
}
