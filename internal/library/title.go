package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vmunix/teevee/internal/catalog"
)

const titleColumns = "id, title, media_type, year, source, source_url, external_id, description, release_date, rating, created_at"

func scanTitle(scan func(dest ...any) error) (*catalog.Title, error) {
	t := &catalog.Title{}
	var year sql.NullInt64
	var rating sql.NullFloat64
	var sourceURL, externalID, description, releaseDate sql.NullString
	err := scan(&t.ID, &t.Title, &t.MediaType, &year, &t.Source,
		&sourceURL, &externalID, &description, &releaseDate, &rating, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	if year.Valid {
		y := int(year.Int64)
		t.Year = &y
	}
	if rating.Valid {
		r := rating.Float64
		t.Rating = &r
	}
	t.SourceURL = sourceURL.String
	t.ExternalID = externalID.String
	t.Description = description.String
	t.ReleaseDate = releaseDate.String
	return t, nil
}

// nullString stores "" as NULL so the partial unique index on external_id
// and the fill-only semantics line up with the absent value.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func addTitle(ctx context.Context, q querier, t *catalog.Title) error {
	now := time.Now().UTC()
	result, err := q.ExecContext(ctx, `
		INSERT INTO catalog_titles (title, media_type, year, source, source_url, external_id, description, release_date, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.Title, t.MediaType, nullInt(t.Year), t.Source, nullString(t.SourceURL),
		nullString(t.ExternalID), nullString(t.Description), nullString(t.ReleaseDate),
		nullFloat(t.Rating), now,
	)
	if err != nil {
		return fmt.Errorf("insert title: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	t.ID = id
	t.CreatedAt = now
	return nil
}

// AddTitle inserts a new catalog title. Sets ID and CreatedAt on the struct.
func (s *Store) AddTitle(ctx context.Context, t *catalog.Title) error { return addTitle(ctx, s.db, t) }

// AddTitle inserts a new catalog title within a transaction.
func (t *Tx) AddTitle(ctx context.Context, c *catalog.Title) error { return addTitle(ctx, t.tx, c) }

func findTitle(ctx context.Context, q querier, title, source string, mediaType catalog.MediaType) (*catalog.Title, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+titleColumns+` FROM catalog_titles
		WHERE title = ? AND source = ? AND media_type = ?
		LIMIT 1`, title, source, mediaType)
	t, err := scanTitle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find title: %w", mapSQLiteError(err))
	}
	return t, nil
}

// FindTitle looks up a title by its natural (title, source, media_type) key.
// Returns nil, nil if not found.
func (s *Store) FindTitle(ctx context.Context, title, source string, mediaType catalog.MediaType) (*catalog.Title, error) {
	return findTitle(ctx, s.db, title, source, mediaType)
}

// FindTitle looks up a title by its natural key within a transaction.
func (t *Tx) FindTitle(ctx context.Context, title, source string, mediaType catalog.MediaType) (*catalog.Title, error) {
	return findTitle(ctx, t.tx, title, source, mediaType)
}

func findTitleByExternalID(ctx context.Context, q querier, source, externalID string) (*catalog.Title, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+titleColumns+` FROM catalog_titles
		WHERE source = ? AND external_id = ?
		LIMIT 1`, source, externalID)
	t, err := scanTitle(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find title by external id: %w", mapSQLiteError(err))
	}
	return t, nil
}

// FindTitleByExternalID looks up a title by its source-scoped external ID.
// Returns nil, nil if not found.
func (s *Store) FindTitleByExternalID(ctx context.Context, source, externalID string) (*catalog.Title, error) {
	return findTitleByExternalID(ctx, s.db, source, externalID)
}

// FindTitleByExternalID looks up a title by external ID within a transaction.
func (t *Tx) FindTitleByExternalID(ctx context.Context, source, externalID string) (*catalog.Title, error) {
	return findTitleByExternalID(ctx, t.tx, source, externalID)
}

func getTitle(ctx context.Context, q querier, id int64) (*catalog.Title, error) {
	row := q.QueryRowContext(ctx, `SELECT `+titleColumns+` FROM catalog_titles WHERE id = ?`, id)
	t, err := scanTitle(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("get title %d: %w", id, mapSQLiteError(err))
	}
	return t, nil
}

// GetTitle retrieves a catalog title by ID.
// Returns ErrNotFound if the title does not exist.
func (s *Store) GetTitle(ctx context.Context, id int64) (*catalog.Title, error) {
	return getTitle(ctx, s.db, id)
}

func updateTitle(ctx context.Context, q querier, t *catalog.Title) error {
	result, err := q.ExecContext(ctx, `
		UPDATE catalog_titles
		SET year = ?, source_url = ?, external_id = ?, description = ?, release_date = ?, rating = ?
		WHERE id = ?`,
		nullInt(t.Year), nullString(t.SourceURL), nullString(t.ExternalID),
		nullString(t.Description), nullString(t.ReleaseDate), nullFloat(t.Rating), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update title %d: %w", t.ID, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("update title %d: %w", t.ID, ErrNotFound)
	}
	return nil
}

// UpdateTitle updates the mergeable fields of an existing title. The title,
// source, and media_type columns form the identity key and are not touched.
// Returns ErrNotFound if the title does not exist.
func (s *Store) UpdateTitle(ctx context.Context, t *catalog.Title) error {
	return updateTitle(ctx, s.db, t)
}

// UpdateTitle updates an existing title within a transaction.
func (t *Tx) UpdateTitle(ctx context.Context, c *catalog.Title) error {
	return updateTitle(ctx, t.tx, c)
}

func listTitles(ctx context.Context, q querier, f TitleFilter) ([]*catalog.Title, int, error) {
	var conditions []string
	var args []any

	if f.Source != nil {
		conditions = append(conditions, "source = ?")
		args = append(args, *f.Source)
	}
	if f.MediaType != nil {
		conditions = append(conditions, "media_type = ?")
		args = append(args, *f.MediaType)
	}
	if f.HasExternalID {
		conditions = append(conditions, "external_id IS NOT NULL AND external_id != ''")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM catalog_titles "+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count titles: %w", err)
	}

	query := "SELECT " + titleColumns + " FROM catalog_titles " + whereClause + " ORDER BY title"
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.Limit, f.Offset)
	}

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*catalog.Title
	for rows.Next() {
		t, err := scanTitle(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("scan title: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate titles: %w", err)
	}

	return results, total, nil
}

// ListTitles returns catalog titles matching the filter with pagination.
// Returns (results, totalCount, error).
func (s *Store) ListTitles(ctx context.Context, f TitleFilter) ([]*catalog.Title, int, error) {
	return listTitles(ctx, s.db, f)
}

// SearchTitles returns titles whose name contains the query,
// case-insensitively, ordered by title.
func (s *Store) SearchTitles(ctx context.Context, query string, limit int) ([]*catalog.Title, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+titleColumns+` FROM catalog_titles
		WHERE title LIKE ? COLLATE NOCASE
		ORDER BY title
		LIMIT ?`, "%"+query+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*catalog.Title
	for rows.Next() {
		t, err := scanTitle(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		results = append(results, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}
	return results, nil
}
