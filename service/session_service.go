package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"opncheck-backend/cache"
	"opncheck-backend/config"
	"opncheck-backend/models"

	"github.com/google/uuid"
)

// SessionRepository persists saved sessions across restarts.
type SessionRepository interface {
	Upsert(ctx context.Context, s *models.SavedSession, data models.SessionData, result *models.AnalysisResult) error
	List(ctx context.Context) ([]models.SavedSession, error)
	Get(ctx context.Context, sessionID string) (models.SessionData, *models.AnalysisResult, error)
	Delete(ctx context.Context, sessionID string) error
}

// SessionService creates analysis sessions from uploaded evidence and
// manages the saved-session list.
type SessionService struct {
	cache *cache.SessionCache
	repo  SessionRepository
}

// SessionServiceOption is a functional option for SessionService
type SessionServiceOption func(*SessionService)

// WithSessionServiceCache sets the session cache
func WithSessionServiceCache(c *cache.SessionCache) SessionServiceOption {
	return func(s *SessionService) {
		s.cache = c
	}
}

// WithSessionRepository sets the saved-session repository
func WithSessionRepository(repo SessionRepository) SessionServiceOption {
	return func(s *SessionService) {
		s.repo = repo
	}
}

// NewSessionService creates a new session service
func NewSessionService(opts ...SessionServiceOption) *SessionService {
	s := &SessionService{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSessionRequest carries the evidence a new session starts from.
// ProjectText is the already-extracted documentation text; document parsing
// happens upstream.
type CreateSessionRequest struct {
	ProjectText      string
	Metadata         map[string]string
	SourceFiles      []models.SourceFile
	MunicipalitySlug string
}

// CreateSession stores the evidence under a fresh session id.
func (s *SessionService) CreateSession(ctx context.Context, req CreateSessionRequest) (string, error) {
	if s.cache == nil {
		return "", errors.New("session cache not set")
	}
	if strings.TrimSpace(req.ProjectText) == "" {
		return "", errors.New("project text is empty")
	}

	slug := req.MunicipalitySlug
	if slug == "" {
		slug = config.DefaultMunicipalitySlug
	}

	sessionID := uuid.New().String()
	data := models.SessionData{
		ProjectText:      req.ProjectText,
		Metadata:         req.Metadata,
		SourceFiles:      req.SourceFiles,
		MunicipalitySlug: slug,
	}
	if err := s.cache.Put(sessionID, data); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Data returns the evidence stored for a session.
func (s *SessionService) Data(sessionID string) (models.SessionData, error) {
	var data models.SessionData
	found, err := s.cache.Get(sessionID, &data)
	if err != nil {
		return models.SessionData{}, err
	}
	if !found {
		return models.SessionData{}, ErrSessionNotFound
	}
	return data, nil
}

// Save persists the session's evidence and latest result so it survives the
// cache TTL and appears in the saved-session list.
func (s *SessionService) Save(ctx context.Context, sessionID, projectName string) (*models.SavedSession, error) {
	if s.repo == nil {
		return nil, errors.New("session repository not set")
	}
	data, err := s.Data(sessionID)
	if err != nil {
		return nil, err
	}

	var result *models.AnalysisResult
	var res models.AnalysisResult
	found, err := s.cache.Get(cache.ResultKey(sessionID), &res)
	if err != nil {
		return nil, err
	}
	if found {
		result = &res
	}

	saved := &models.SavedSession{
		SessionID:   sessionID,
		ProjectName: projectName,
		Summary:     ComputeSummary(result),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := s.repo.Upsert(ctx, saved, data, result); err != nil {
		return nil, err
	}
	return saved, nil
}

// List returns all saved sessions, most recently updated first.
func (s *SessionService) List(ctx context.Context) ([]models.SavedSession, error) {
	if s.repo == nil {
		return nil, errors.New("session repository not set")
	}
	return s.repo.List(ctx)
}

// Restore loads a saved session back into the cache so analysis and
// revisions can continue where they stopped.
func (s *SessionService) Restore(ctx context.Context, sessionID string) error {
	if s.repo == nil {
		return errors.New("session repository not set")
	}
	data, result, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.cache.Put(sessionID, data); err != nil {
		return err
	}
	if result != nil {
		if err := s.cache.Put(cache.ResultKey(sessionID), *result); err != nil {
			return err
		}
		report := models.AnalysisResult{
			Requirements: result.Requirements,
			Results:      result.Results,
		}
		if err := s.cache.Put(cache.ReportKey(sessionID), report); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a session from cache and, if persisted, from the database.
func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	s.cache.Delete(sessionID)
	s.cache.Delete(cache.ProgressKey(sessionID))
	s.cache.Delete(cache.ReportKey(sessionID))
	s.cache.Delete(cache.ResultKey(sessionID))
	if s.repo != nil {
		if err := s.repo.Delete(ctx, sessionID); err != nil {
			log.Printf("Warning: Failed to delete saved session %s: %v", sessionID, err)
			return err
		}
	}
	return nil
}

// ComputeSummary renders the one-line verdict for a session's latest result.
func ComputeSummary(result *models.AnalysisResult) string {
	if result == nil || len(result.Results) == 0 {
		return "Analiza še ni bila izvedena."
	}
	total := len(result.Results)
	nonCompliant := 0
	for _, e := range result.Results {
		if e.Status.IsNonCompliant() {
			nonCompliant++
		}
	}
	if nonCompliant == 0 {
		return fmt.Sprintf("Vseh %d zahtev je skladnih.", total)
	}
	return fmt.Sprintf("Ugotovljenih %d od %d neskladnih zahtev.", nonCompliant, total)
}
