package repository

import (
	"context"

	"opncheck-backend/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RevisionRepository handles database operations for revision records
type RevisionRepository struct {
	db *pgxpool.Pool
}

// NewRevisionRepository creates a new revision repository
func NewRevisionRepository(db *pgxpool.Pool) *RevisionRepository {
	return &RevisionRepository{db: db}
}

// Insert appends a revision record. Records are append-only; there is no
// update path.
func (r *RevisionRepository) Insert(ctx context.Context, rec *models.RevisionRecord) error {
	query := `
		INSERT INTO revisions (session_id, requirement_ids, note, filenames, stored_paths, uploaded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(ctx, query,
		rec.SessionID,
		rec.RequirementIDs,
		rec.Note,
		rec.Filenames,
		rec.StoredPaths,
		rec.UploadedAt,
	).Scan(&rec.ID)
}

// ListBySession returns a session's revisions, oldest first.
func (r *RevisionRepository) ListBySession(ctx context.Context, sessionID string) ([]models.RevisionRecord, error) {
	query := `
		SELECT id, session_id, requirement_ids, note, filenames, stored_paths, uploaded_at
		FROM revisions
		WHERE session_id = $1
		ORDER BY uploaded_at ASC, id ASC`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.RevisionRecord
	for rows.Next() {
		var rec models.RevisionRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.SessionID,
			&rec.RequirementIDs,
			&rec.Note,
			&rec.Filenames,
			&rec.StoredPaths,
			&rec.UploadedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
