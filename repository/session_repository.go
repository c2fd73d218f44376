// Package repository holds the Postgres persistence layer: saved sessions
// and their revision history survive restarts and the session-cache TTL.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"opncheck-backend/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a saved session does not exist.
var ErrNotFound = errors.New("saved session not found")

// SessionRepository handles database operations for saved sessions
type SessionRepository struct {
	db *pgxpool.Pool
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

// Upsert inserts or replaces the saved snapshot of a session. The evidence
// and the latest result are stored as JSONB blobs; result may be nil when no
// analysis has run yet.
func (r *SessionRepository) Upsert(ctx context.Context, s *models.SavedSession, data models.SessionData, result *models.AnalysisResult) error {
	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal session data: %w", err)
	}
	var resultJSON []byte
	if result != nil {
		resultJSON, err = json.Marshal(result)
		if err != nil {
			return fmt.Errorf("marshal session result: %w", err)
		}
	}

	query := `
		INSERT INTO saved_sessions (session_id, project_name, summary, data, result, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id) DO UPDATE SET
			project_name = EXCLUDED.project_name,
			summary = EXCLUDED.summary,
			data = EXCLUDED.data,
			result = EXCLUDED.result,
			updated_at = EXCLUDED.updated_at`

	_, err = r.db.Exec(ctx, query,
		s.SessionID,
		s.ProjectName,
		s.Summary,
		dataJSON,
		resultJSON,
		s.UpdatedAt,
	)
	return err
}

// List returns all saved sessions, most recently updated first.
func (r *SessionRepository) List(ctx context.Context) ([]models.SavedSession, error) {
	query := `
		SELECT session_id, project_name, summary, updated_at
		FROM saved_sessions
		ORDER BY updated_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.SavedSession
	for rows.Next() {
		var s models.SavedSession
		if err := rows.Scan(&s.SessionID, &s.ProjectName, &s.Summary, &s.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// Get retrieves the stored evidence and latest result for a session.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (models.SessionData, *models.AnalysisResult, error) {
	query := `
		SELECT data, result
		FROM saved_sessions
		WHERE session_id = $1`

	var dataJSON, resultJSON []byte
	err := r.db.QueryRow(ctx, query, sessionID).Scan(&dataJSON, &resultJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.SessionData{}, nil, ErrNotFound
		}
		return models.SessionData{}, nil, err
	}

	var data models.SessionData
	if err := json.Unmarshal(dataJSON, &data); err != nil {
		return models.SessionData{}, nil, fmt.Errorf("unmarshal session data: %w", err)
	}
	var result *models.AnalysisResult
	if len(resultJSON) > 0 {
		result = &models.AnalysisResult{}
		if err := json.Unmarshal(resultJSON, result); err != nil {
			return models.SessionData{}, nil, fmt.Errorf("unmarshal session result: %w", err)
		}
	}
	return data, result, nil
}

// Delete removes a saved session and its revisions.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM saved_sessions WHERE session_id = $1`, sessionID)
	return err
}
