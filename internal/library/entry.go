package library

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Entry statuses for tracked titles.
const (
	EntryStatusPlanned  = "planned"
	EntryStatusWatching = "watching"
	EntryStatusDone     = "done"
	EntryStatusDropped  = "dropped"
)

// Entry is a user's tracked title: a watchlist row, optionally linked to a
// catalog title. Curation is manual; the merge engine never touches entries.
type Entry struct {
	ID         int64
	Title      string
	Status     string
	Downloaded bool
	Watched    bool
	Notes      string
	CatalogID  *int64
	CreatedAt  time.Time
}

// EntryUpdate carries a partial update; nil fields are left unchanged.
type EntryUpdate struct {
	Status     *string
	Downloaded *bool
	Watched    *bool
	Notes      *string
}

const entryColumns = "id, title, status, downloaded, watched, notes, catalog_id, created_at"

func scanEntry(scan func(dest ...any) error) (*Entry, error) {
	e := &Entry{}
	var notes sql.NullString
	var catalogID sql.NullInt64
	err := scan(&e.ID, &e.Title, &e.Status, &e.Downloaded, &e.Watched, &notes, &catalogID, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	e.Notes = notes.String
	if catalogID.Valid {
		e.CatalogID = &catalogID.Int64
	}
	return e, nil
}

// AddEntry inserts a new library entry. Sets ID and CreatedAt on the struct.
func (s *Store) AddEntry(ctx context.Context, e *Entry) error {
	if e.Status == "" {
		e.Status = EntryStatusPlanned
	}
	now := time.Now().UTC()
	var catalogID any
	if e.CatalogID != nil {
		catalogID = *e.CatalogID
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO library_entries (title, status, downloaded, watched, notes, catalog_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Title, e.Status, e.Downloaded, e.Watched, nullString(e.Notes), catalogID, now,
	)
	if err != nil {
		return fmt.Errorf("insert entry: %w", mapSQLiteError(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	e.ID = id
	e.CreatedAt = now
	return nil
}

// GetEntry retrieves a library entry by ID.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) GetEntry(ctx context.Context, id int64) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+entryColumns+` FROM library_entries WHERE id = ?`, id)
	e, err := scanEntry(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, mapSQLiteError(err))
	}
	return e, nil
}

// ListEntries returns all library entries in creation order.
func (s *Store) ListEntries(ctx context.Context) ([]*Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM library_entries ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []*Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		results = append(results, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return results, nil
}

// UpdateEntry applies a partial update to a library entry and returns the
// updated row. Returns ErrNotFound if the entry does not exist.
func (s *Store) UpdateEntry(ctx context.Context, id int64, u EntryUpdate) (*Entry, error) {
	e, err := s.GetEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Status != nil {
		e.Status = *u.Status
	}
	if u.Downloaded != nil {
		e.Downloaded = *u.Downloaded
	}
	if u.Watched != nil {
		e.Watched = *u.Watched
	}
	if u.Notes != nil {
		e.Notes = *u.Notes
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE library_entries SET status = ?, downloaded = ?, watched = ?, notes = ?
		WHERE id = ?`,
		e.Status, e.Downloaded, e.Watched, nullString(e.Notes), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update entry %d: %w", id, mapSQLiteError(err))
	}
	return e, nil
}

// DeleteEntry removes a library entry by ID.
// Returns ErrNotFound if the entry does not exist.
func (s *Store) DeleteEntry(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM library_entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, mapSQLiteError(err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete entry %d: %w", id, ErrNotFound)
	}
	return nil
}
