package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vmunix/teevee/internal/catalog"
)

const episodeColumns = "id, catalog_id, title, season, episode, air_date, description, source, source_url"

func scanEpisode(scan func(dest ...any) error) (*catalog.Episode, error) {
	e := &catalog.Episode{}
	var season, episode sql.NullInt64
	var airDate, description, sourceURL sql.NullString
	err := scan(&e.ID, &e.CatalogID, &e.Title, &season, &episode, &airDate, &description, &e.Source, &sourceURL)
	if err != nil {
		return nil, err
	}
	if season.Valid {
		v := int(season.Int64)
		e.Season = &v
	}
	if episode.Valid {
		v := int(episode.Int64)
		e.Episode = &v
	}
	e.AirDate = airDate.String
	e.Description = description.String
	e.SourceURL = sourceURL.String
	return e, nil
}

func addEpisode(ctx context.Context, q querier, e *catalog.Episode) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO episodes (catalog_id, title, season, episode, air_date, description, source, source_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.CatalogID, e.Title, nullInt(e.Season), nullInt(e.Episode),
		nullString(e.AirDate), nullString(e.Description), e.Source, nullString(e.SourceURL),
	)
	if err != nil {
		return fmt.Errorf("insert episode: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	e.ID = id
	return nil
}

// AddEpisode inserts a new episode. Sets ID on the struct.
func (s *Store) AddEpisode(ctx context.Context, e *catalog.Episode) error {
	return addEpisode(ctx, s.db, e)
}

// AddEpisode inserts a new episode within a transaction.
func (t *Tx) AddEpisode(ctx context.Context, e *catalog.Episode) error {
	return addEpisode(ctx, t.tx, e)
}

func findEpisodeByNumber(ctx context.Context, q querier, catalogID int64, season, episode int) (*catalog.Episode, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+episodeColumns+` FROM episodes
		WHERE catalog_id = ? AND season = ? AND episode = ?
		LIMIT 1`, catalogID, season, episode)
	e, err := scanEpisode(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find episode by number: %w", mapSQLiteError(err))
	}
	return e, nil
}

// FindEpisodeByNumber looks up an episode by (catalog_id, season, episode).
// Returns nil, nil if not found.
func (s *Store) FindEpisodeByNumber(ctx context.Context, catalogID int64, season, episode int) (*catalog.Episode, error) {
	return findEpisodeByNumber(ctx, s.db, catalogID, season, episode)
}

// FindEpisodeByNumber looks up an episode by number within a transaction.
func (t *Tx) FindEpisodeByNumber(ctx context.Context, catalogID int64, season, episode int) (*catalog.Episode, error) {
	return findEpisodeByNumber(ctx, t.tx, catalogID, season, episode)
}

func findEpisodeByTitle(ctx context.Context, q querier, catalogID int64, title string) (*catalog.Episode, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+episodeColumns+` FROM episodes
		WHERE catalog_id = ? AND title = ?
		LIMIT 1`, catalogID, title)
	e, err := scanEpisode(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find episode by title: %w", mapSQLiteError(err))
	}
	return e, nil
}

// FindEpisodeByTitle looks up an episode by (catalog_id, title), the
// fallback identity key for sources that supply no numbering.
// Returns nil, nil if not found.
func (s *Store) FindEpisodeByTitle(ctx context.Context, catalogID int64, title string) (*catalog.Episode, error) {
	return findEpisodeByTitle(ctx, s.db, catalogID, title)
}

// FindEpisodeByTitle looks up an episode by title within a transaction.
func (t *Tx) FindEpisodeByTitle(ctx context.Context, catalogID int64, title string) (*catalog.Episode, error) {
	return findEpisodeByTitle(ctx, t.tx, catalogID, title)
}

func updateEpisode(ctx context.Context, q querier, e *catalog.Episode) error {
	result, err := q.ExecContext(ctx, `
		UPDATE episodes
		SET title = ?, season = ?, episode = ?, air_date = ?, description = ?, source_url = ?
		WHERE id = ?`,
		e.Title, nullInt(e.Season), nullInt(e.Episode),
		nullString(e.AirDate), nullString(e.Description), nullString(e.SourceURL), e.ID,
	)
	if err != nil {
		return fmt.Errorf("update episode %d: %w", e.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update episode %d: %w", e.ID, ErrNotFound)
	}
	return nil
}

// UpdateEpisode updates an existing episode.
// Returns ErrNotFound if the episode does not exist.
func (s *Store) UpdateEpisode(ctx context.Context, e *catalog.Episode) error {
	return updateEpisode(ctx, s.db, e)
}

// UpdateEpisode updates an existing episode within a transaction.
func (t *Tx) UpdateEpisode(ctx context.Context, e *catalog.Episode) error {
	return updateEpisode(ctx, t.tx, e)
}

func listEpisodes(ctx context.Context, q querier, f EpisodeFilter) ([]*catalog.Episode, int, error) {
	var conditions []string
	var args []any

	if f.CatalogID != nil {
		conditions = append(conditions, "catalog_id = ?")
		args = append(args, *f.CatalogID)
	}
	if f.Season != nil {
		conditions = append(conditions, "season = ?")
		args = append(args, *f.Season)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM episodes "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count episodes: %w", err)
	}

	query := "SELECT " + episodeColumns + " FROM episodes " + whereClause + " ORDER BY season, episode, title"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list episodes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*catalog.Episode
	for rows.Next() {
		e, err := scanEpisode(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan episode: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate episodes: %w", err)
	}

	return results, total, nil
}

// ListEpisodes returns episodes matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListEpisodes(ctx context.Context, f EpisodeFilter) ([]*catalog.Episode, int, error) {
	return listEpisodes(ctx, s.db, f)
}
